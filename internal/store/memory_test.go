package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utakatalp/prem-predictor/internal/league"
	"github.com/utakatalp/prem-predictor/internal/scoring"
)

func TestMemoryEnsureUserKeepsExisting(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	u, err := m.EnsureUser(ctx, User{Name: "ana", Team: "Arsenal", IsAdmin: true})
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)

	u, err = m.EnsureUser(ctx, User{Name: "ana", Team: "Chelsea"})
	require.NoError(t, err)
	assert.Equal(t, "Arsenal", u.Team)
	assert.True(t, u.IsAdmin)
}

func TestMemoryAddWeeklyPoints(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_, _ = m.EnsureUser(ctx, User{Name: "ana"})

	require.NoError(t, m.AddWeeklyPoints(ctx, "ana", 2, 75))
	require.NoError(t, m.AddWeeklyPoints(ctx, "ana", 1, 200))
	require.NoError(t, m.AddWeeklyPoints(ctx, "ana", 2, 25))

	u, err := m.GetUser(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, 300, u.TotalPoints)
	assert.Equal(t, []WeeklyScore{{Week: 1, Points: 200}, {Week: 2, Points: 100}}, u.WeeklyPoints)

	assert.ErrorIs(t, m.AddWeeklyPoints(ctx, "ghost", 1, 10), ErrNotFound)
}

func TestMemoryPredictionKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	first := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	later := first.Add(48 * time.Hour)

	p := Prediction{
		User:       "ana",
		Season:     "2024-25",
		Prediction: scoring.Prediction{TopEight: []scoring.Slot{{Team: "Arsenal"}}},
		CreatedAt:  first, LastModified: first,
	}
	require.NoError(t, m.SavePrediction(ctx, p))

	p.CreatedAt, p.LastModified = later, later
	p.Prediction.TopEight[0].Team = "Chelsea"
	require.NoError(t, m.SavePrediction(ctx, p))

	got, err := m.GetPrediction(ctx, "ana", "2024-25")
	require.NoError(t, err)
	assert.Equal(t, first, got.CreatedAt)
	assert.Equal(t, later, got.LastModified)
	assert.Equal(t, "Chelsea", got.Prediction.TopEight[0].Team)

	_, err = m.GetPrediction(ctx, "ana", "2023-24")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.SaveSeasonTable(ctx, SeasonTable{Season: "2024-25", Table: league.FinalTable{"Liverpool", "Arsenal"}}))

	got, err := m.GetSeasonTable(ctx, "2024-25")
	require.NoError(t, err)
	got.Table[0] = "Everton"

	again, err := m.GetSeasonTable(ctx, "2024-25")
	require.NoError(t, err)
	assert.Equal(t, "Liverpool", again.Table[0])
}

func TestMemoryListChallengesOrdered(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	base := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, m.SaveChallenge(ctx, Challenge{ID: "b", Week: 2, CreatedAt: base}))
	require.NoError(t, m.SaveChallenge(ctx, Challenge{ID: "c", Week: 1, CreatedAt: base.Add(time.Hour)}))
	require.NoError(t, m.SaveChallenge(ctx, Challenge{ID: "a", Week: 1, CreatedAt: base}))

	list, err := m.ListChallenges(ctx)
	require.NoError(t, err)
	var ids []string
	for _, c := range list {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"a", "c", "b"}, ids)
}

func TestMemorySubmitAnswerUpserts(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.SaveChallenge(ctx, Challenge{ID: "c1", Week: 1, Kind: scoring.KindNumber}))

	_, err := m.SubmitAnswer(ctx, "c1", Submission{User: "ana", Answer: 1})
	require.NoError(t, err)
	_, err = m.SubmitAnswer(ctx, "c1", Submission{User: "bob", Answer: 2})
	require.NoError(t, err)
	c, err := m.SubmitAnswer(ctx, "c1", Submission{User: "ana", Answer: 3})
	require.NoError(t, err)

	require.Len(t, c.Submissions, 2)
	assert.Equal(t, 3.0, c.Submissions[0].Answer)

	_, err = m.SubmitAnswer(ctx, "nope", Submission{User: "ana"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemorySettleChallengeIsAtomic(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_, _ = m.EnsureUser(ctx, User{Name: "ana"})
	require.NoError(t, m.SaveChallenge(ctx, Challenge{
		ID:          "c1",
		Week:        2,
		Kind:        scoring.KindNumber,
		Submissions: []Submission{{User: "ana", Answer: 4}, {User: "ghost", Answer: 4}},
	}))
	score := func(Submission) int { return 200 }

	_, err := m.SettleChallenge(ctx, "c1", 4, score)
	assert.ErrorIs(t, err, ErrNotFound)
	c, err := m.GetChallenge(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, c.Settled)
	u, err := m.GetUser(ctx, "ana")
	require.NoError(t, err)
	assert.Zero(t, u.TotalPoints)

	_, _ = m.EnsureUser(ctx, User{Name: "ghost"})
	c, err = m.SettleChallenge(ctx, "c1", 4, score)
	require.NoError(t, err)
	assert.True(t, c.Settled)
	u, err = m.GetUser(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, 200, u.TotalPoints)

	_, err = m.SettleChallenge(ctx, "c1", 4, score)
	assert.ErrorIs(t, err, ErrSettled)
	_, err = m.SubmitAnswer(ctx, "c1", Submission{User: "ana", Answer: 1})
	assert.ErrorIs(t, err, ErrSettled)
}
