package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/runtime/terminal/export"
	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/services/analysis"
	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/services/config"
	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/services/registry"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type AnalyzeCmd struct {
	configPath string
	windowDays int
	zone       string
	profile    string
	reporter   *export.Reporter
}

func NewAnalyzeCmd(reporter *export.Reporter) *cobra.Command {
	ac := &AnalyzeCmd{reporter: reporter}
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run a cost and emissions analysis over the lookback window",
		RunE:  ac.run,
	}

	cmd.Flags().StringVar(&ac.configPath, "config", "", "Path to the configuration file")
	cmd.Flags().IntVar(&ac.windowDays, "window", 0, "Analysis window in days (overrides config)")
	cmd.Flags().StringVar(&ac.zone, "zone", "", "Grid zone for carbon intensity (overrides config)")
	cmd.Flags().StringVar(&ac.profile, "profile", "", "AWS shared config profile (overrides config)")

	return cmd
}

func (ac *AnalyzeCmd) run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(ac.configPath)
	if err != nil {
		return err
	}
	if ac.windowDays > 0 {
		cfg.Analysis.WindowDays = ac.windowDays
	}
	if ac.zone != "" {
		cfg.Carbon.Zone = ac.zone
	}
	if ac.profile != "" {
		cfg.AWS.Profile = ac.profile
	}

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	ctx, cancel := context.WithTimeout(logger.WithContext(cmd.Context()), 120*time.Second)
	defer cancel()

	set, err := registry.BuildSources(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to build sources: %w", err)
	}

	engine := analysis.NewEngine(set, analysis.Config{
		WindowDays:        cfg.Analysis.WindowDays,
		LookbackDays:      cfg.Analysis.LookbackDays,
		MetricsHours:      cfg.Analysis.MetricsHours,
		ValidationMinDays: cfg.Analysis.ValidationMinDays,
		Workers:           cfg.Analysis.Workers,
	})

	report, err := engine.Run(ctx)
	if err != nil {
		return err
	}

	return ac.reporter.Handle(report)
}
