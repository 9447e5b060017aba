package export

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/models/domain"
)

type TableConfig struct {
	IDWidth      int
	NumberWidth  int
	LabelWidth   int
	WarningWidth int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		IDWidth:      22,
		NumberWidth:  14,
		LabelWidth:   18,
		WarningWidth: 60,
	}
}

type Reporter struct {
	writer io.Writer
	config TableConfig
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer: writer,
		config: DefaultTableConfig(),
	}
}

// Handle renders the analysis report as a text table. Absent quantities
// print as "n/a"; the deviation factor is withheld when ineligible.
func (c *Reporter) Handle(report *domain.AnalysisReport) error {
	funcMap := template.FuncMap{
		"runtime": func(hours *float64) string {
			if hours == nil {
				return "n/a"
			}
			return fmt.Sprintf("%.1f h", *hours)
		},
		"cost": func(alloc *domain.AllocatedCost) string {
			if alloc == nil {
				return "n/a"
			}
			if alloc.Excluded {
				return "excluded"
			}
			return fmt.Sprintf("%.2f %s", alloc.Amount, alloc.Currency)
		},
		"co2": func(estimates []domain.EmissionEstimate, method domain.EmissionMethod) string {
			for _, est := range estimates {
				if est.Method == method {
					suffix := ""
					if est.Projected {
						suffix = " (projected)"
					}
					return fmt.Sprintf("%.3f kg [%s]%s", est.CO2Kg, est.Quality, suffix)
				}
			}
			return "n/a"
		},
		"row": func(id string, runtime, cost, co2 string) string {
			return fmt.Sprintf("| %-*s | %-*s | %-*s | %-*s |",
				c.config.IDWidth, id,
				c.config.NumberWidth, runtime,
				c.config.NumberWidth, cost,
				c.config.LabelWidth+c.config.NumberWidth, co2)
		},
		"separator": func() string {
			return fmt.Sprintf("+%s+%s+%s+%s+",
				strings.Repeat("-", c.config.IDWidth+2),
				strings.Repeat("-", c.config.NumberWidth+2),
				strings.Repeat("-", c.config.NumberWidth+2),
				strings.Repeat("-", c.config.LabelWidth+c.config.NumberWidth+2))
		},
		"validation": func(v *domain.ValidationResult) string {
			if v == nil {
				return "not computed"
			}
			if !v.Eligible {
				return "window too short for a meaningful comparison"
			}
			return fmt.Sprintf("reported %.2f / calculated %.2f = factor %.3f",
				v.AggregateReported, v.AggregateCalculated, v.DeviationFactor)
		},
		"methodAverage": func() domain.EmissionMethod { return domain.MethodAverageBased },
	}

	tmpl := `
Carbon/FinOps Analysis {{.RunID}}
Window: {{.Period.Start.Format "2006-01-02 15:04"}} to {{.Period.End.Format "2006-01-02 15:04"}} UTC
Total runtime: {{printf "%.1f" .TotalRuntimeHours}} h | Total cost: {{.Currency}} {{printf "%.2f" .TotalCost}}

{{separator}}
{{row "Resource" "Runtime" "Cost" "CO2 (average-based)"}}
{{separator}}
{{range .Resources}}{{row .Resource.ID (runtime .RuntimeHours) (cost .AllocatedCost) (co2 .Emissions methodAverage)}}
{{end}}{{separator}}

Validation: {{validation .Validation}}
{{if .Warnings}}
Warnings:
{{range .Warnings}}  - {{.Message}}
{{end}}{{end}}`

	t, err := template.New("report").Funcs(funcMap).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, report)
}
