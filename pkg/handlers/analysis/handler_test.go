package analysis

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/models/api"
	"github.com/ChristopherKlein0802/CarbonAware-FinOps-Local-sub000/pkg/models/domain"
	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRunner struct{ mock.Mock }

func (m *MockRunner) Run(ctx context.Context) (*domain.AnalysisReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AnalysisReport), args.Error(1)
}

func sampleReport() *domain.AnalysisReport {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	runtime := 168.0
	return &domain.AnalysisReport{
		RunID:  "run-1",
		Period: domain.TimePeriod{Start: start, End: start.Add(7 * 24 * time.Hour)},
		Resources: []domain.ResourceReport{{
			Resource:     domain.Resource{ID: "i-0aaa", Category: "t3.medium", InstanceType: "t3.medium", Region: "eu-central-1"},
			RuntimeHours: &runtime,
			Confidence:   domain.ConfidenceMeasured,
			Emissions: []domain.EmissionEstimate{{
				ResourceID: "i-0aaa",
				Method:     domain.MethodAverageBased,
				CO2Kg:      0.468,
				Quality:    domain.QualityHigh,
			}},
		}},
		TotalRuntimeHours: 168,
		TotalCost:         52.8,
		Currency:          "USD",
		TotalCO2Kg:        map[domain.EmissionMethod]float64{domain.MethodAverageBased: 0.468},
	}
}

func newRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/api/v1/health", h.Health)
	r.Get("/api/v1/analysis", h.GetAnalysis)
	r.Get("/api/v1/analysis/resources/{resource}", h.GetResource)
	return r
}

func TestGetAnalysis(t *testing.T) {
	t.Run("renders the report", func(t *testing.T) {
		runner := &MockRunner{}
		runner.On("Run", mock.Anything).Return(sampleReport(), nil)
		router := newRouter(NewHandler(runner))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analysis", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var got api.AnalysisReport
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "run-1", got.RunID)
		require.Len(t, got.Resources, 1)
		assert.Equal(t, "i-0aaa", got.Resources[0].ID)
		require.NotNil(t, got.Resources[0].RuntimeHours)
		assert.InDelta(t, 168, *got.Resources[0].RuntimeHours, 1e-9)
		assert.InDelta(t, 0.468, got.TotalCO2Kg["average_based"], 1e-9)
	})

	t.Run("failed run is a bad gateway, not an empty report", func(t *testing.T) {
		runner := &MockRunner{}
		runner.On("Run", mock.Anything).Return(nil, assert.AnError)
		router := newRouter(NewHandler(runner))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analysis", nil))

		require.Equal(t, http.StatusBadGateway, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "analysis incomplete", body["error"])
		assert.NotEmpty(t, body["detail"])
	})
}

func TestGetResource(t *testing.T) {
	t.Run("renders one resource", func(t *testing.T) {
		runner := &MockRunner{}
		runner.On("Run", mock.Anything).Return(sampleReport(), nil)
		router := newRouter(NewHandler(runner))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analysis/resources/i-0aaa", nil))

		require.Equal(t, http.StatusOK, rec.Code)

		var got api.ResourceReport
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "i-0aaa", got.ID)
		require.Len(t, got.Emissions, 1)
		assert.Equal(t, "average_based", got.Emissions[0].Method)
	})

	t.Run("unknown resource is a 404", func(t *testing.T) {
		runner := &MockRunner{}
		runner.On("Run", mock.Anything).Return(sampleReport(), nil)
		router := newRouter(NewHandler(runner))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analysis/resources/i-0zzz", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHealth(t *testing.T) {
	router := newRouter(NewHandler(&MockRunner{}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
