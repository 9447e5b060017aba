package analysis

import (
	"context"
	"net/http"

	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/adapters"
	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/models/domain"
	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// Runner triggers one analysis pass. A refresh simply starts a new run
// whose results supersede the prior one.
type Runner interface {
	Run(ctx context.Context) (*domain.AnalysisReport, error)
}

type Handler struct {
	runner Runner
}

func NewHandler(runner Runner) *Handler {
	return &Handler{runner: runner}
}

// GetAnalysis runs a full analysis and renders the report. A failed run is
// an explicit error response, never a zeroed report.
func (h *Handler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	report, err := h.runner.Run(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("analysis run failed")
		writeError(w, http.StatusBadGateway, "analysis incomplete", err)
		return
	}

	writeJSON(w, logger, adapters.MapAnalysisReportDomainToApi(report))
}

// GetResource runs an analysis and renders one resource's record.
func (h *Handler) GetResource(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)
	resourceID := chi.URLParam(r, "resource")

	report, err := h.runner.Run(ctx)
	if err != nil {
		logger.Error().Err(err).Str("resource_id", resourceID).Msg("analysis run failed")
		writeError(w, http.StatusBadGateway, "analysis incomplete", err)
		return
	}

	for _, rr := range report.Resources {
		if rr.Resource.ID == resourceID {
			writeJSON(w, logger, adapters.MapResourceReportDomainToApi(rr))
			return
		}
	}

	writeError(w, http.StatusNotFound, "unknown resource", nil)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, zerolog.Ctx(r.Context()), map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, logger *zerolog.Logger, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	body := map[string]string{"error": message}
	if err != nil {
		body["detail"] = err.Error()
	}
	_ = json.NewEncoder(w).Encode(body)
}
