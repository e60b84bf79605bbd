package factstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/cart-monitor/internal/model"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "model", "fact_orders.csv"))
}

func matched(date, id string) model.Matched {
	return model.Matched{SnapshotDate: date, CartID: id, ExistsInA: true, StatusA: "Completed"}
}

func TestLoad_NotFound(t *testing.T) {
	s := newStore(t)
	assert.False(t, s.Exists())

	_, _, err := s.Load()
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.LoadMatched()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveMatched_LoadUnannotated(t *testing.T) {
	s := newStore(t)
	m := matched("2024-01-10", "C1")
	m.StatusMismatch = model.True
	m.ValueMismatch = model.Unknown
	m.TotalValueA = model.ParseAmount("100.02")

	require.NoError(t, s.SaveMatched([]model.Matched{m}))
	assert.True(t, s.Exists())

	rows, annotated, err := s.Load()
	require.NoError(t, err)
	assert.False(t, annotated)
	require.Len(t, rows, 1)
	assert.Equal(t, "C1", rows[0].CartID)
	assert.Equal(t, model.True, rows[0].StatusMismatch)
	assert.Equal(t, model.Unknown, rows[0].ValueMismatch)
	assert.Equal(t, "100.02", rows[0].TotalValueA.Value.String())
	assert.Equal(t, model.Unknown, rows[0].HasIssue)
	assert.False(t, rows[0].AgeDays.Defined())
}

func TestSaveAnnotated_Load(t *testing.T) {
	s := newStore(t)
	row := model.FactRow{Matched: matched("2024-01-10", "C1")}
	row.AgeDays = model.AgeOf(6)
	row.InpoOnHoldGT4d = model.True
	row.HardIssue, row.Warning, row.HasIssue = model.True, model.True, model.True

	require.NoError(t, s.SaveAnnotated([]model.FactRow{row}))

	rows, annotated, err := s.Load()
	require.NoError(t, err)
	assert.True(t, annotated)
	require.Len(t, rows, 1)
	assert.Equal(t, 6.0, rows[0].AgeDays.Days())
	assert.Equal(t, model.True, rows[0].InpoOnHoldGT4d)
	assert.Equal(t, model.True, rows[0].HasIssue)

	m, err := s.LoadMatched()
	require.NoError(t, err)
	require.Len(t, m, 1)
	assert.Equal(t, row.Matched, m[0])
}

func TestSave_RejectsDuplicateKeys(t *testing.T) {
	s := newStore(t)
	err := s.SaveMatched([]model.Matched{matched("2024-01-10", "C1"), matched("2024-01-10", "C1")})
	assert.Error(t, err)
	assert.False(t, s.Exists())
}

func TestSave_FailureKeepsPriorArtifact(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.SaveMatched([]model.Matched{matched("2024-01-10", "C1")}))

	dup := model.FactRow{Matched: matched("2024-01-10", "C2")}
	require.Error(t, s.SaveAnnotated([]model.FactRow{dup, dup}))

	rows, _, err := s.Load()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "C1", rows[0].CartID)
}

func TestMerge(t *testing.T) {
	existing := []model.Matched{
		matched("2024-01-09", "C1"),
		matched("2024-01-10", "C1"),
		matched("2024-01-10", "C2"),
	}
	fresh := []model.Matched{
		matched("2024-01-10", "C3"),
		matched("2024-01-11", "C1"),
	}

	out := Merge(existing, fresh, []string{"2024-01-10", "2024-01-11"})

	var keys []model.FactKey
	for _, r := range out {
		keys = append(keys, r.Key())
	}
	assert.Equal(t, []model.FactKey{
		{SnapshotDate: "2024-01-09", CartID: "C1"},
		{SnapshotDate: "2024-01-10", CartID: "C3"},
		{SnapshotDate: "2024-01-11", CartID: "C1"},
	}, keys)
}

func TestMerge_DateWithNoFreshRowsIsCleared(t *testing.T) {
	existing := []model.Matched{matched("2024-01-10", "C1"), matched("2024-01-11", "C1")}

	out := Merge(existing, nil, []string{"2024-01-10"})
	require.Len(t, out, 1)
	assert.Equal(t, "2024-01-11", out[0].SnapshotDate)
}

func TestMerge_FreshDuplicatesLastWins(t *testing.T) {
	first := matched("2024-01-10", "C1")
	second := matched("2024-01-10", "C1")
	second.StatusA = "Closed"

	out := Merge(nil, []model.Matched{first, second, matched("2024-01-10", "C0")}, []string{"2024-01-10"})
	require.Len(t, out, 2)
	assert.Equal(t, "C0", out[0].CartID)
	assert.Equal(t, "Closed", out[1].StatusA)
}
