package odds

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utakatalp/prem-predictor/internal/league"
)

const sampleYAML = `
source: test-book
teams:
  Man City:
    positions:
      1: {odds: 1.5}
      2: {probability: 16.7}
      3: {odds: 12}
      4: {odds: 25}
    top4: {odds: 1.1}
    relegated: {odds: 1000}
  Burnley:
    positions:
      1: {odds: 1000}
      18: {odds: 5}
      19: {odds: 5}
      20: {odds: 4}
    top4: {odds: 50}
  Brighton:
    positions:
      1: {odds: 150}
    top4: {odds: 12}
    relegated: {odds: 8}
`

func sampleSnapshot(t *testing.T) *Snapshot {
	t.Helper()
	snap, err := DecodeSnapshot(strings.NewReader(sampleYAML), time.Unix(0, 0))
	require.NoError(t, err)
	return snap
}

func TestDecimalToPercent(t *testing.T) {
	tests := []struct {
		odds float64
		want float64
	}{
		{2.0, 50},
		{1.5, 66.6667},
		{4.0, 25},
		{1000, 0.1},
	}
	for _, tt := range tests {
		got, err := DecimalToPercent(tt.odds)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, got, 0.001)
	}

	_, err := DecimalToPercent(0.9)
	assert.Error(t, err)
}

func TestPercentToDecimal(t *testing.T) {
	got, err := PercentToDecimal(4)
	require.NoError(t, err)
	assert.InDelta(t, 25.0, got, 1e-9)

	_, err = PercentToDecimal(0)
	assert.Error(t, err)
	_, err = PercentToDecimal(101)
	assert.Error(t, err)
}

func TestDecodeSnapshot(t *testing.T) {
	snap := sampleSnapshot(t)

	assert.Equal(t, "test-book", snap.Source)

	p, ok := snap.Probability("Man City", 1)
	require.True(t, ok)
	assert.Equal(t, 66.67, p)

	p, ok = snap.Probability("Man City", 2)
	require.True(t, ok)
	assert.Equal(t, 16.7, p)

	_, ok = snap.Probability("Man City", 10)
	assert.False(t, ok, "unquoted position must be signalled, not zero")
	_, ok = snap.Probability("Fulham", 1)
	assert.False(t, ok)
}

func TestFileProviderRereads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "odds.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	p := FileProvider{Path: path}
	snap, err := p.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test-book", snap.Source)

	require.NoError(t, os.WriteFile(path, []byte("source: other\nteams: {}\n"), 0o644))
	snap, err = p.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "other", snap.Source)

	_, err = FileProvider{Path: filepath.Join(t.TempDir(), "missing.yaml")}.Snapshot(context.Background())
	assert.Error(t, err)
}

func TestDecodeSnapshotRejectsBadPrices(t *testing.T) {
	bad := "teams:\n  X:\n    positions:\n      1: {odds: 0.5}\n"
	_, err := DecodeSnapshot(strings.NewReader(bad), time.Now())
	assert.Error(t, err)

	bad = "teams:\n  X:\n    positions:\n      0: {odds: 2}\n"
	_, err = DecodeSnapshot(strings.NewReader(bad), time.Now())
	assert.Error(t, err)
}

func TestNilSnapshotHasNoMarkets(t *testing.T) {
	var snap *Snapshot
	_, ok := snap.Probability("Man City", 1)
	assert.False(t, ok)
	_, ok = snap.Top4("Man City")
	assert.False(t, ok)
}

func TestRelegatedSumsPositionsWithoutMarket(t *testing.T) {
	snap := sampleSnapshot(t)

	p, ok := snap.Relegated("Burnley")
	require.True(t, ok)
	assert.InDelta(t, 65.0, p, 0.001)

	p, ok = snap.Relegated("Brighton")
	require.True(t, ok)
	assert.Equal(t, 12.5, p)
}

func TestSummarize(t *testing.T) {
	now := time.Date(2025, 5, 25, 16, 0, 0, 0, time.UTC)
	sum := Summarize(sampleSnapshot(t), now)

	require.Len(t, sum.Favorites, 3)
	assert.Equal(t, "Man City", sum.Favorites[0].Team)
	assert.Equal(t, 1.5, sum.Favorites[0].Odds)

	require.Len(t, sum.Longshots, 2)
	assert.Equal(t, "Burnley", sum.Longshots[0].Team)
	assert.Equal(t, "Brighton", sum.Longshots[1].Team)

	assert.Equal(t, "Burnley", sum.RelegationFavorites[0].Team)
	assert.Equal(t, now, sum.UpdatedAt)
}

func TestSummarizeEmpty(t *testing.T) {
	sum := Summarize(nil, time.Now())
	assert.Empty(t, sum.Favorites)
	assert.NotNil(t, sum.Favorites)
}

func simTeams() []*league.Team {
	names := []string{"Strong", "Good", "Average", "Weak"}
	elo := []float64{2400, 1800, 1500, 900}
	teams := make([]*league.Team, len(names))
	for i, n := range names {
		teams[i] = &league.Team{ID: i + 1, Name: n, ELO: elo[i]}
	}
	return teams
}

func TestSimulatorSnapshot(t *testing.T) {
	sim := NewSeasonSimulator(simTeams(), 400, 7)

	snap, err := sim.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Teams, 4)

	for team, m := range snap.Teams {
		total := 0.0
		for _, p := range m.Positions {
			total += p
		}
		assert.InDelta(t, 100.0, total, 0.05, team)
	}

	strong, _ := snap.Probability("Strong", 1)
	weak, _ := snap.Probability("Weak", 1)
	assert.Greater(t, strong, weak)

	again, err := NewSeasonSimulator(simTeams(), 400, 7).Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, snap.Teams, again.Teams)
}

func TestSimulatorHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSeasonSimulator(simTeams(), 1000, 1).Snapshot(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

type countingProvider struct {
	calls atomic.Int32
	snap  *Snapshot
	err   error
}

func (c *countingProvider) Snapshot(ctx context.Context) (*Snapshot, error) {
	c.calls.Add(1)
	return c.snap, c.err
}

func TestCachedProviderServesWithinTTL(t *testing.T) {
	inner := &countingProvider{snap: &Snapshot{Source: "x"}}
	store := NewMemoryStore()
	clock := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }
	log, _ := test.NewNullLogger()

	cached := NewCachedProvider(inner, store, 5*time.Minute, log)

	for i := 0; i < 3; i++ {
		_, err := cached.Snapshot(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), inner.calls.Load())

	clock = clock.Add(6 * time.Minute)
	_, err := cached.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), inner.calls.Load())
}

func TestCachedProviderPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	log, _ := test.NewNullLogger()
	cached := NewCachedProvider(&countingProvider{err: boom}, NewMemoryStore(), time.Minute, log)

	_, err := cached.Snapshot(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client, "2024-25")
	ctx := context.Background()

	_, ok, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	snap := sampleSnapshot(t)
	require.NoError(t, store.Save(ctx, snap, time.Minute))
	assert.True(t, mr.Exists("odds:league:2024-25"))

	got, ok, err := store.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	p, found := got.Probability("Man City", 1)
	assert.True(t, found)
	assert.Equal(t, 66.67, p)

	mr.FastForward(2 * time.Minute)
	_, ok, err = store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

type slowProvider struct{}

func (slowProvider) Snapshot(ctx context.Context) (*Snapshot, error) {
	time.Sleep(time.Second)
	return &Snapshot{}, nil
}

func TestFetchBoundedWait(t *testing.T) {
	start := time.Now()
	_, err := Fetch(context.Background(), slowProvider{}, 20*time.Millisecond)

	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestFetch(t *testing.T) {
	snap := &Snapshot{Source: "static"}
	got, err := Fetch(context.Background(), NewStaticProvider(snap), time.Second)
	require.NoError(t, err)
	assert.Same(t, snap, got)

	_, err = Fetch(context.Background(), NewStaticProvider(nil), time.Second)
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = Fetch(context.Background(), nil, time.Second)
	assert.ErrorIs(t, err, ErrUnavailable)
}
