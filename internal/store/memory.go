package store

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
)

// Memory is an in-process repository with the same behaviour as Store. It
// backs the CLI and tests when no database is configured.
type Memory struct {
	mu          sync.RWMutex
	users       map[string]User
	predictions map[string]Prediction // user + "/" + season
	tables      map[string]SeasonTable
	challenges  map[string]Challenge
}

func NewMemory() *Memory {
	return &Memory{
		users:       make(map[string]User),
		predictions: make(map[string]Prediction),
		tables:      make(map[string]SeasonTable),
		challenges:  make(map[string]Challenge),
	}
}

func predictionKey(user, season string) string { return user + "/" + season }

func copyUser(u User) User {
	u.WeeklyPoints = slices.Clone(u.WeeklyPoints)
	return u
}

func copyPrediction(p Prediction) Prediction {
	p.Prediction.TopEight = slices.Clone(p.Prediction.TopEight)
	p.Prediction.BottomThree = slices.Clone(p.Prediction.BottomThree)
	return p
}

func copyChallenge(c Challenge) Challenge {
	c.Submissions = slices.Clone(c.Submissions)
	if c.Result != nil {
		r := *c.Result
		c.Result = &r
	}
	return c
}

func (m *Memory) Migrate(context.Context) error { return nil }

func (m *Memory) EnsureUser(_ context.Context, u User) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.users[u.Name]; ok {
		return copyUser(existing), nil
	}
	m.users[u.Name] = User{Name: u.Name, Team: u.Team, IsAdmin: u.IsAdmin}
	return copyUser(m.users[u.Name]), nil
}

func (m *Memory) GetUser(_ context.Context, name string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[name]
	if !ok {
		return User{}, fmt.Errorf("user %s: %w", name, ErrNotFound)
	}
	return copyUser(u), nil
}

func (m *Memory) ListUsers(context.Context) ([]User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, copyUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) AddWeeklyPoints(_ context.Context, name string, week, points int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creditWeek(name, week, points)
}

// creditWeek requires m.mu held for writing.
func (m *Memory) creditWeek(name string, week, points int) error {
	u, ok := m.users[name]
	if !ok {
		return fmt.Errorf("user %s: %w", name, ErrNotFound)
	}
	u.WeeklyPoints = slices.Clone(u.WeeklyPoints)
	found := false
	for i := range u.WeeklyPoints {
		if u.WeeklyPoints[i].Week == week {
			u.WeeklyPoints[i].Points += points
			found = true
			break
		}
	}
	if !found {
		u.WeeklyPoints = append(u.WeeklyPoints, WeeklyScore{Week: week, Points: points})
		sort.Slice(u.WeeklyPoints, func(i, j int) bool { return u.WeeklyPoints[i].Week < u.WeeklyPoints[j].Week })
	}
	u.TotalPoints += points
	m.users[name] = u
	return nil
}

func (m *Memory) SavePrediction(_ context.Context, p Prediction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := predictionKey(p.User, p.Season)
	if existing, ok := m.predictions[key]; ok {
		p.CreatedAt = existing.CreatedAt
	}
	m.predictions[key] = copyPrediction(p)
	return nil
}

func (m *Memory) GetPrediction(_ context.Context, user, season string) (Prediction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.predictions[predictionKey(user, season)]
	if !ok {
		return Prediction{}, fmt.Errorf("prediction %s/%s: %w", user, season, ErrNotFound)
	}
	return copyPrediction(p), nil
}

func (m *Memory) ListPredictions(_ context.Context, season string) ([]Prediction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Prediction
	for _, p := range m.predictions {
		if p.Season == season {
			out = append(out, copyPrediction(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].User < out[j].User })
	return out, nil
}

func (m *Memory) SaveSeasonTable(_ context.Context, t SeasonTable) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.Table = slices.Clone(t.Table)
	m.tables[t.Season] = t
	return nil
}

func (m *Memory) GetSeasonTable(_ context.Context, season string) (SeasonTable, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tables[season]
	if !ok {
		return SeasonTable{}, fmt.Errorf("final table %s: %w", season, ErrNotFound)
	}
	t.Table = slices.Clone(t.Table)
	return t, nil
}

func (m *Memory) SaveChallenge(_ context.Context, c Challenge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.challenges[c.ID] = copyChallenge(c)
	return nil
}

func (m *Memory) GetChallenge(_ context.Context, id string) (Challenge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.challenges[id]
	if !ok {
		return Challenge{}, fmt.Errorf("challenge %s: %w", id, ErrNotFound)
	}
	return copyChallenge(c), nil
}

// SubmitAnswer stores sub on challenge id, replacing the user's earlier
// answer. A settled challenge returns ErrSettled.
func (m *Memory) SubmitAnswer(_ context.Context, id string, sub Submission) (Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.challenges[id]
	if !ok {
		return Challenge{}, fmt.Errorf("challenge %s: %w", id, ErrNotFound)
	}
	if c.Settled {
		return Challenge{}, fmt.Errorf("challenge %s: %w", id, ErrSettled)
	}
	c = copyChallenge(c)
	c.upsert(sub)
	m.challenges[id] = c
	return copyChallenge(c), nil
}

// SettleChallenge scores the submissions, closes the challenge and credits
// every user's week. Nothing changes unless all of it succeeds.
func (m *Memory) SettleChallenge(_ context.Context, id string, result float64, score func(Submission) int) (Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.challenges[id]
	if !ok {
		return Challenge{}, fmt.Errorf("challenge %s: %w", id, ErrNotFound)
	}
	if c.Settled {
		return Challenge{}, fmt.Errorf("challenge %s: %w", id, ErrSettled)
	}
	for _, sub := range c.Submissions {
		if _, ok := m.users[sub.User]; !ok {
			return Challenge{}, fmt.Errorf("crediting %s: user %s: %w", id, sub.User, ErrNotFound)
		}
	}

	c = copyChallenge(c)
	c.settle(result, score)
	for _, sub := range c.Submissions {
		if err := m.creditWeek(sub.User, c.Week, sub.Points); err != nil {
			return Challenge{}, err
		}
	}
	m.challenges[id] = c
	return copyChallenge(c), nil
}

func (m *Memory) ListChallenges(context.Context) ([]Challenge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Challenge, 0, len(m.challenges))
	for _, c := range m.challenges {
		out = append(out, copyChallenge(c))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Week != out[j].Week {
			return out[i].Week < out[j].Week
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
