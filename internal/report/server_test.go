package report

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/cart-monitor/internal/aggregate"
	"github.com/sells-group/cart-monitor/internal/model"
	"github.com/sells-group/cart-monitor/internal/tabular"
)

func seedViews(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, tabular.WriteFile(filepath.Join(dir, aggregate.DailyKPIsFile), []model.DailyKPI{
		{SnapshotDate: "2024-01-10", Rows: 3, HasIssue: 2, IssueRate: 2.0 / 3},
		{SnapshotDate: "2024-01-11", Rows: 1},
	}))
	require.NoError(t, tabular.WriteFile(filepath.Join(dir, aggregate.IssueCasesFile), []model.IssueCase{
		{SnapshotDate: "2024-01-10", CaseType: model.CaseHard, CartID: "C100", Reasons: "inpo_on_hold_gt_4d"},
		{SnapshotDate: "2024-01-10", CaseType: model.CaseWarning, CartID: "C300", Reasons: "missing_in_a"},
		{SnapshotDate: "2024-01-11", CaseType: model.CaseWarning, CartID: "C400", Reasons: "missing_in_b"},
	}))
	require.NoError(t, tabular.WriteFile(filepath.Join(dir, aggregate.AgingBucketsFile), []model.AgingCount{
		{SnapshotDate: "2024-01-10", Status: "In PO Creation", Substatus: "On Hold", AgeBucket: "4-30d", Count: 1},
	}))
	return dir
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := get(t, NewRouter(&Handler{Dir: t.TempDir()}, nil), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestKPIs(t *testing.T) {
	r := NewRouter(&Handler{Dir: seedViews(t)}, nil)

	rec := get(t, r, "/api/v1/kpis")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var kpis []model.DailyKPI
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &kpis))
	require.Len(t, kpis, 2)
	assert.Equal(t, 3, kpis[0].Rows)

	rec = get(t, r, "/api/v1/kpis?date=2024-01-11")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &kpis))
	require.Len(t, kpis, 1)
	assert.Equal(t, "2024-01-11", kpis[0].SnapshotDate)
}

func TestIssueCases_Filters(t *testing.T) {
	r := NewRouter(&Handler{Dir: seedViews(t)}, nil)

	var cases []struct {
		CartID   string `json:"cart_id"`
		CaseType string `json:"case_type"`
	}

	rec := get(t, r, "/api/v1/issue-cases?date=2024-01-10&case_type=warning")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cases))
	require.Len(t, cases, 1)
	assert.Equal(t, "C300", cases[0].CartID)

	rec = get(t, r, "/api/v1/issue-cases?case_type=hard")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cases))
	require.Len(t, cases, 1)
	assert.Equal(t, "C100", cases[0].CartID)

	rec = get(t, r, "/api/v1/issue-cases?date=2023-01-01")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestIssueCases_BadCaseType(t *testing.T) {
	rec := get(t, NewRouter(&Handler{Dir: seedViews(t)}, nil), "/api/v1/issue-cases?case_type=severe")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "case_type")
}

func TestAgingBuckets(t *testing.T) {
	rec := get(t, NewRouter(&Handler{Dir: seedViews(t)}, nil), "/api/v1/aging-buckets")
	require.Equal(t, http.StatusOK, rec.Code)

	var buckets []model.AgingCount
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &buckets))
	require.Len(t, buckets, 1)
	assert.Equal(t, "4-30d", buckets[0].AgeBucket)
}

func TestMissingView(t *testing.T) {
	rec := get(t, NewRouter(&Handler{Dir: seedViews(t)}, nil), "/api/v1/status-distribution")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"view not generated: status_distribution_daily.csv"}`, rec.Body.String())
}

func TestCORS(t *testing.T) {
	r := NewRouter(&Handler{Dir: t.TempDir()}, []string{"https://pbi.example.com"})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://pbi.example.com")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "https://pbi.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownRoute(t *testing.T) {
	rec := get(t, NewRouter(&Handler{Dir: t.TempDir()}, nil), "/api/v1/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
