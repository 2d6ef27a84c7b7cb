// Package game runs the friends league: users, season predictions with a
// submission deadline, leaderboards and weekly challenges.
package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/utakatalp/prem-predictor/internal/league"
	"github.com/utakatalp/prem-predictor/internal/odds"
	"github.com/utakatalp/prem-predictor/internal/scoring"
	"github.com/utakatalp/prem-predictor/internal/store"
)

var (
	ErrPredictionsLocked = errors.New("predictions are locked")
	ErrNotAdmin          = errors.New("admin access required")
	ErrUnknownUser       = errors.New("unknown user")
	ErrChallengeClosed   = errors.New("challenge is closed")
	ErrInvalidRequest    = errors.New("invalid request")
)

// Repository is the persistence the service needs. store.Store and
// store.Memory both satisfy it.
type Repository interface {
	EnsureUser(ctx context.Context, u store.User) (store.User, error)
	GetUser(ctx context.Context, name string) (store.User, error)
	ListUsers(ctx context.Context) ([]store.User, error)
	AddWeeklyPoints(ctx context.Context, name string, week, points int) error

	SavePrediction(ctx context.Context, p store.Prediction) error
	GetPrediction(ctx context.Context, user, season string) (store.Prediction, error)
	ListPredictions(ctx context.Context, season string) ([]store.Prediction, error)

	SaveSeasonTable(ctx context.Context, t store.SeasonTable) error
	GetSeasonTable(ctx context.Context, season string) (store.SeasonTable, error)

	SaveChallenge(ctx context.Context, c store.Challenge) error
	GetChallenge(ctx context.Context, id string) (store.Challenge, error)
	ListChallenges(ctx context.Context) ([]store.Challenge, error)
	SubmitAnswer(ctx context.Context, id string, sub store.Submission) (store.Challenge, error)
	SettleChallenge(ctx context.Context, id string, result float64, score func(store.Submission) int) (store.Challenge, error)
}

// Options configures a Service. Zero values fall back to sensible defaults.
type Options struct {
	Season       string
	Deadline     time.Time
	Workers      int
	FetchTimeout time.Duration
	Ranges       scoring.ExpectedRanges
}

type Service struct {
	repo         Repository
	odds         odds.Provider
	log          logrus.FieldLogger
	eval         scoring.Evaluator
	season       string
	deadline     time.Time
	workers      int
	fetchTimeout time.Duration

	now   func() time.Time
	newID func() string
}

// NewService wires a game service. provider may be nil, in which case every
// evaluation runs on the expected-range fallback.
func NewService(repo Repository, provider odds.Provider, log logrus.FieldLogger, opts Options) *Service {
	if opts.Season == "" {
		opts.Season = "2024-25"
	}
	if opts.Workers < 1 {
		opts.Workers = 4
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 2 * time.Second
	}
	return &Service{
		repo:         repo,
		odds:         provider,
		log:          log,
		eval:         scoring.Evaluator{Ranges: opts.Ranges},
		season:       opts.Season,
		deadline:     opts.Deadline,
		workers:      opts.Workers,
		fetchTimeout: opts.FetchTimeout,
		now:          time.Now,
		newID:        uuid.NewString,
	}
}

func (s *Service) Season() string { return s.season }

// Locked reports whether the submission deadline has passed. A zero
// deadline never locks.
func (s *Service) Locked() bool {
	return !s.deadline.IsZero() && s.now().After(s.deadline)
}

// RegisterUser creates a user, or returns the existing one with that name.
func (s *Service) RegisterUser(ctx context.Context, name, team string, isAdmin bool) (store.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return store.User{}, fmt.Errorf("%w: name is required", ErrInvalidRequest)
	}
	u, err := s.repo.EnsureUser(ctx, store.User{Name: name, Team: team, IsAdmin: isAdmin})
	if err != nil {
		return store.User{}, fmt.Errorf("registering user %s: %w", name, err)
	}
	return u, nil
}

func (s *Service) User(ctx context.Context, name string) (store.User, error) {
	return s.repo.GetUser(ctx, name)
}

func (s *Service) Users(ctx context.Context) ([]store.User, error) {
	return s.repo.ListUsers(ctx)
}

// existingUser maps a missing user to ErrUnknownUser.
func (s *Service) existingUser(ctx context.Context, name string) (store.User, error) {
	u, err := s.repo.GetUser(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return store.User{}, fmt.Errorf("%w: %s", ErrUnknownUser, name)
	}
	return u, err
}

func (s *Service) requireAdmin(ctx context.Context, name string) error {
	u, err := s.repo.GetUser(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotAdmin, name)
	}
	if err != nil {
		return err
	}
	if !u.IsAdmin {
		return fmt.Errorf("%w: %s", ErrNotAdmin, name)
	}
	return nil
}

// SetFinalTable records a season's final standings. Admin only.
func (s *Service) SetFinalTable(ctx context.Context, admin, season string, table league.FinalTable) (store.SeasonTable, error) {
	if err := s.requireAdmin(ctx, admin); err != nil {
		return store.SeasonTable{}, err
	}
	if err := table.Validate(); err != nil {
		return store.SeasonTable{}, err
	}
	t := store.SeasonTable{Season: season, Table: table, UpdatedAt: s.now().UTC()}
	if err := s.repo.SaveSeasonTable(ctx, t); err != nil {
		return store.SeasonTable{}, err
	}
	s.log.WithFields(logrus.Fields{"season": season, "admin": admin}).Info("final table updated")
	return t, nil
}

func (s *Service) FinalTable(ctx context.Context, season string) (store.SeasonTable, error) {
	return s.repo.GetSeasonTable(ctx, season)
}

// Evaluate scores a prediction against a caller-supplied table without
// touching the repository.
func (s *Service) Evaluate(ctx context.Context, p scoring.Prediction, table league.FinalTable, useOdds bool) (*scoring.ScoreBreakdown, error) {
	var lookup scoring.ProbabilityLookup
	if useOdds {
		lookup = s.lookup(ctx)
	}
	b, err := s.eval.Evaluate(p, table, lookup, useOdds)
	if err != nil {
		return nil, err
	}
	s.logDegraded("", s.season, b)
	return b, nil
}

// OddsSummary reports title favourites, longshots and relegation favourites
// from the current snapshot.
func (s *Service) OddsSummary(ctx context.Context) (odds.Summary, error) {
	snap, err := odds.Fetch(ctx, s.odds, s.fetchTimeout)
	if err != nil {
		return odds.Summary{}, err
	}
	return odds.Summarize(snap, s.now().UTC()), nil
}

// lookup fetches the current snapshot with a bounded wait. It returns a nil
// interface on failure so scoring falls back to expected ranges.
func (s *Service) lookup(ctx context.Context) scoring.ProbabilityLookup {
	snap, err := odds.Fetch(ctx, s.odds, s.fetchTimeout)
	if err != nil {
		s.log.WithError(err).Warn("odds unavailable, scoring with expected ranges")
		return nil
	}
	return snap
}

func (s *Service) logDegraded(user, season string, b *scoring.ScoreBreakdown) {
	if !b.Degraded {
		return
	}
	for _, team := range b.FallbackTeams() {
		fields := logrus.Fields{"season": season, "team": team}
		if user != "" {
			fields["user"] = user
		}
		s.log.WithFields(fields).Warn("no odds for team, used expected-range fallback")
	}
}
