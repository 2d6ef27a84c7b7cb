package game

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/utakatalp/prem-predictor/internal/scoring"
	"github.com/utakatalp/prem-predictor/internal/store"
)

// CreateChallenge opens a weekly challenge. Admin only. An empty kind means
// a plain number question.
func (s *Service) CreateChallenge(ctx context.Context, admin string, week int, kind scoring.ChallengeKind, question string) (store.Challenge, error) {
	if err := s.requireAdmin(ctx, admin); err != nil {
		return store.Challenge{}, err
	}
	question = strings.TrimSpace(question)
	if week < 1 || question == "" {
		return store.Challenge{}, fmt.Errorf("%w: challenge needs a week >= 1 and a question", ErrInvalidRequest)
	}
	if kind == "" {
		kind = scoring.KindNumber
	}

	c := store.Challenge{
		ID:          s.newID(),
		Week:        week,
		Kind:        kind,
		Question:    question,
		Submissions: []store.Submission{},
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.SaveChallenge(ctx, c); err != nil {
		return store.Challenge{}, err
	}
	s.log.WithFields(logrus.Fields{"challenge": c.ID, "week": week, "kind": kind}).Info("challenge created")
	return c, nil
}

// SubmitAnswer records user's answer, replacing any earlier one.
func (s *Service) SubmitAnswer(ctx context.Context, user, id string, answer float64) (store.Challenge, error) {
	if _, err := s.existingUser(ctx, user); err != nil {
		return store.Challenge{}, err
	}

	sub := store.Submission{User: user, Answer: answer, SubmittedAt: s.now().UTC()}
	c, err := s.repo.SubmitAnswer(ctx, id, sub)
	if errors.Is(err, store.ErrSettled) {
		return store.Challenge{}, fmt.Errorf("%w: %s", ErrChallengeClosed, id)
	}
	if err != nil {
		return store.Challenge{}, err
	}
	return c, nil
}

// SettleChallenge scores every submission against result and credits the
// points to each user's week. Admin only; a challenge settles once.
func (s *Service) SettleChallenge(ctx context.Context, admin, id string, result float64) (store.Challenge, error) {
	if err := s.requireAdmin(ctx, admin); err != nil {
		return store.Challenge{}, err
	}
	// kind is fixed at creation
	open, err := s.repo.GetChallenge(ctx, id)
	if err != nil {
		return store.Challenge{}, err
	}
	score := func(sub store.Submission) int {
		return scoring.ScoreChallengeAnswer(sub.Answer, result, open.Kind)
	}

	c, err := s.repo.SettleChallenge(ctx, id, result, score)
	if errors.Is(err, store.ErrSettled) {
		return store.Challenge{}, fmt.Errorf("%w: %s already settled", ErrChallengeClosed, id)
	}
	if err != nil {
		return store.Challenge{}, err
	}

	s.log.WithFields(logrus.Fields{
		"challenge":   c.ID,
		"week":        c.Week,
		"submissions": len(c.Submissions),
	}).Info("challenge settled")
	return c, nil
}

func (s *Service) Challenges(ctx context.Context) ([]store.Challenge, error) {
	return s.repo.ListChallenges(ctx)
}
