// Package report serves the generated reporting views over HTTP. Views are
// read from disk on every request, so a rerun of the aggregate stage is
// visible without a restart.
package report

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/cart-monitor/internal/aggregate"
	"github.com/sells-group/cart-monitor/internal/model"
	"github.com/sells-group/cart-monitor/internal/tabular"
)

// Handler serves the views found in Dir.
type Handler struct {
	Dir string
}

// NewRouter returns the report API. origins configures CORS; empty allows
// any origin.
func NewRouter(h *Handler, origins []string) *chi.Mux {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/kpis", h.KPIs)
		r.Get("/status-distribution", h.StatusDistribution)
		r.Get("/aging-buckets", h.AgingBuckets)
		r.Get("/issue-cases", h.IssueCases)
	})

	return r
}

// KPIs returns the daily KPI view, optionally filtered by ?date=.
func (h *Handler) KPIs(w http.ResponseWriter, r *http.Request) {
	rows, ok := readView[model.DailyKPI](w, h.path(aggregate.DailyKPIsFile))
	if !ok {
		return
	}
	date := r.URL.Query().Get("date")
	writeJSON(w, http.StatusOK, filter(rows, func(k model.DailyKPI) bool {
		return date == "" || k.SnapshotDate == date
	}))
}

// StatusDistribution returns the status distribution view, optionally
// filtered by ?date=.
func (h *Handler) StatusDistribution(w http.ResponseWriter, r *http.Request) {
	rows, ok := readView[model.StatusCount](w, h.path(aggregate.StatusDistributionFile))
	if !ok {
		return
	}
	date := r.URL.Query().Get("date")
	writeJSON(w, http.StatusOK, filter(rows, func(s model.StatusCount) bool {
		return date == "" || s.SnapshotDate == date
	}))
}

// AgingBuckets returns the aging bucket view, optionally filtered by ?date=.
func (h *Handler) AgingBuckets(w http.ResponseWriter, r *http.Request) {
	rows, ok := readView[model.AgingCount](w, h.path(aggregate.AgingBucketsFile))
	if !ok {
		return
	}
	date := r.URL.Query().Get("date")
	writeJSON(w, http.StatusOK, filter(rows, func(a model.AgingCount) bool {
		return date == "" || a.SnapshotDate == date
	}))
}

// IssueCases returns the issue case list, optionally filtered by ?date= and
// ?case_type= (hard or warning).
func (h *Handler) IssueCases(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	caseType := model.CaseType(q.Get("case_type"))
	if caseType != "" && caseType != model.CaseHard && caseType != model.CaseWarning {
		writeError(w, http.StatusBadRequest, "case_type must be hard or warning")
		return
	}

	rows, ok := readView[model.IssueCase](w, h.path(aggregate.IssueCasesFile))
	if !ok {
		return
	}
	date := q.Get("date")
	writeJSON(w, http.StatusOK, filter(rows, func(c model.IssueCase) bool {
		return (date == "" || c.SnapshotDate == date) && (caseType == "" || c.CaseType == caseType)
	}))
}

func (h *Handler) path(name string) string {
	return filepath.Join(h.Dir, name)
}

// readView loads a view file and writes the error response itself when it
// cannot.
func readView[T any](w http.ResponseWriter, path string) ([]T, bool) {
	if !tabular.Exists(path) {
		writeError(w, http.StatusNotFound, "view not generated: "+filepath.Base(path))
		return nil, false
	}
	rows, _, err := tabular.ReadFile[T](path)
	if err != nil {
		zap.L().Error("report: read view", zap.String("path", path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to read view")
		return nil, false
	}
	return rows, true
}

func filter[T any](rows []T, keep func(T) bool) []T {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("report: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}
