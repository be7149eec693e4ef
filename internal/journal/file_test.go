package journal

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/crossarb/internal/domain"
)

func tempJournal(t *testing.T) *FileJournal {
	t.Helper()
	j, err := OpenFile(filepath.Join(t.TempDir(), "trades.jsonl"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func record(id string, outcome domain.Outcome) domain.TradeRecord {
	return domain.TradeRecord{
		ID:             id,
		Timestamp:      time.Date(2026, 1, 17, 18, 0, 0, 0, time.UTC),
		Game:           "nfl:buf-den",
		MarketType:     domain.MarketWinner,
		KalshiSide:     domain.SideNo,
		PolySide:       domain.SideNo,
		UnitCost:       0.556,
		UnitProfit:     0.444,
		ROI:            0.7985,
		PositionSize:   5,
		TradeCost:      2.78,
		Outcome:        outcome,
		BothLegsFilled: outcome != domain.OutcomeNaked,
	}
}

func TestFileJournal_AppendAndReplay(t *testing.T) {
	ctx := context.Background()
	j := tempJournal(t)

	require.NoError(t, j.Append(ctx, record("1", domain.OutcomeSuccess)))
	require.NoError(t, j.Append(ctx, record("2", domain.OutcomeFailure)))

	var got []domain.TradeRecord
	require.NoError(t, j.Replay(ctx, func(rec domain.TradeRecord) error {
		got = append(got, rec)
		return nil
	}))

	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "2", got[1].ID)
	assert.Equal(t, "nfl:buf-den", got[0].Game)
	assert.InDelta(t, 0.556, got[0].UnitCost, 1e-9)
	assert.True(t, got[1].BothLegsFilled)
}

func TestFileJournal_Recent(t *testing.T) {
	ctx := context.Background()
	j := tempJournal(t)
	for _, id := range []string{"1", "2", "3", "4"} {
		require.NoError(t, j.Append(ctx, record(id, domain.OutcomeSuccess)))
	}

	recent, err := j.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "4", recent[0].ID)
	assert.Equal(t, "3", recent[1].ID)
}

func TestFileJournal_ReplayEmptyFile(t *testing.T) {
	j := tempJournal(t)
	calls := 0
	require.NoError(t, j.Replay(context.Background(), func(domain.TradeRecord) error {
		calls++
		return nil
	}))
	assert.Zero(t, calls)
}

func TestFileJournal_MalformedLineFailsReplay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trades.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{not json\n"), 0o644))

	j, err := OpenFile(path)
	require.NoError(t, err)
	defer j.Close()

	err = j.Replay(context.Background(), func(domain.TradeRecord) error { return nil })
	assert.Error(t, err)
}

func TestFileJournal_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "trades.jsonl")

	j, err := OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, j.Append(ctx, record("1", domain.OutcomeNaked)))
	require.NoError(t, j.Close())

	j2, err := OpenFile(path)
	require.NoError(t, err)
	defer j2.Close()

	recent, err := j2.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, domain.OutcomeNaked, recent[0].Outcome)
	assert.False(t, recent[0].BothLegsFilled)
}
