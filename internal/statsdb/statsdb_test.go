package statsdb

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/receipts/internal/model"
	"github.com/cleared-dev/receipts/internal/patterns"
)

func openStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".receipts", "stats.db")
	s, err := Open(path)
	require.NoError(t, err)
	return s, path
}

func TestCounters_RoundTrip(t *testing.T) {
	s, path := openStore(t)

	total := patterns.KeyOf(model.CategoryAmount, `TOTAL\s*TTC`)
	cb := patterns.KeyOf(model.CategoryPayment, `\bCB\b`)
	require.NoError(t, s.SaveCounters(map[patterns.Key]model.Counters{
		total: {Success: 4, Failure: 1},
		cb:    {Success: 2},
	}))
	require.NoError(t, s.Close())

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.LoadCounters()
	require.NoError(t, err)
	assert.Equal(t, map[patterns.Key]model.Counters{
		total: {Success: 4, Failure: 1},
		cb:    {Success: 2},
	}, got)
}

func TestCounters_Overwrite(t *testing.T) {
	s, _ := openStore(t)
	defer s.Close()

	k := patterns.KeyOf(model.CategoryAmount, "TOTAL")
	require.NoError(t, s.SaveCounters(map[patterns.Key]model.Counters{k: {Success: 1}}))
	require.NoError(t, s.SaveCounters(map[patterns.Key]model.Counters{k: {Success: 3, Failure: 2}}))

	got, err := s.LoadCounters()
	require.NoError(t, err)
	assert.Equal(t, model.Counters{Success: 3, Failure: 2}, got[k])
}

func TestResetCounters(t *testing.T) {
	s, _ := openStore(t)
	defer s.Close()

	k := patterns.KeyOf(model.CategoryAmount, "TOTAL")
	require.NoError(t, s.SaveCounters(map[patterns.Key]model.Counters{k: {Success: 1}}))
	_, err := s.AddTotals(1, 1, 0)
	require.NoError(t, err)

	require.NoError(t, s.ResetCounters())
	got, err := s.LoadCounters()
	require.NoError(t, err)
	assert.Empty(t, got)

	totals, err := s.Totals()
	require.NoError(t, err)
	assert.Equal(t, int64(1), totals.Parses, "totals survive a counter reset")
}

func TestTotals(t *testing.T) {
	s, _ := openStore(t)
	defer s.Close()
	s.now = func() time.Time { return time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC) }

	empty, err := s.Totals()
	require.NoError(t, err)
	assert.Zero(t, empty.Parses)
	assert.Equal(t, 0.0, empty.DetectionRate())

	_, err = s.AddTotals(4, 3, 2)
	require.NoError(t, err)
	got, err := s.AddTotals(4, 3, 1)
	require.NoError(t, err)

	assert.Equal(t, Totals{
		Parses:    8,
		Detected:  6,
		Reliable:  3,
		UpdatedAt: time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC),
	}, got)
	assert.Equal(t, 0.75, got.DetectionRate())

	stored, err := s.Totals()
	require.NoError(t, err)
	assert.Equal(t, got.Parses, stored.Parses)
}

func TestCountersFeedCatalogue(t *testing.T) {
	s, _ := openStore(t)
	defer s.Close()

	c := patterns.Default()
	first := c.PatternsFor(model.CategoryAmount)[0]
	require.NoError(t, c.RecordOutcome(first.ID, true))
	require.NoError(t, s.SaveCounters(c.Counters()))

	loaded, err := s.LoadCounters()
	require.NoError(t, err)
	fresh := patterns.Default()
	assert.Equal(t, 1, fresh.ApplyCounters(loaded))
	p, _ := fresh.Pattern(first.ID)
	assert.Equal(t, 1, p.Counters.Success)
}
