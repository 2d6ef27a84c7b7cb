package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/utakatalp/prem-predictor/internal/scoring"
	"github.com/utakatalp/prem-predictor/internal/store"
)

// validateSubmission applies the evaluator's shape checks plus the game rule
// that a team may appear only once across both lists.
func validateSubmission(p scoring.Prediction) error {
	if err := p.Validate(); err != nil {
		return err
	}
	seen := make(map[string]bool, len(p.TopEight)+len(p.BottomThree))
	for _, team := range append(scoring.Teams(p.TopEight), scoring.Teams(p.BottomThree)...) {
		if seen[team] {
			return fmt.Errorf("%w: %s predicted more than once", scoring.ErrMalformedPrediction, team)
		}
		seen[team] = true
	}
	return nil
}

// SubmitPrediction stores a user's prediction for the current season,
// replacing any earlier one. It fails once the deadline has passed.
func (s *Service) SubmitPrediction(ctx context.Context, user string, p scoring.Prediction) (store.Prediction, error) {
	if s.Locked() {
		return store.Prediction{}, ErrPredictionsLocked
	}
	if _, err := s.existingUser(ctx, user); err != nil {
		return store.Prediction{}, err
	}
	return s.savePrediction(ctx, user, p)
}

// AdminUpdatePrediction replaces target's prediction regardless of the
// deadline.
func (s *Service) AdminUpdatePrediction(ctx context.Context, admin, target string, p scoring.Prediction) (store.Prediction, error) {
	if err := s.requireAdmin(ctx, admin); err != nil {
		return store.Prediction{}, err
	}
	if _, err := s.existingUser(ctx, target); err != nil {
		return store.Prediction{}, err
	}
	saved, err := s.savePrediction(ctx, target, p)
	if err != nil {
		return store.Prediction{}, err
	}
	s.log.WithFields(logrus.Fields{"admin": admin, "user": target, "season": s.season}).Info("prediction overridden")
	return saved, nil
}

func (s *Service) savePrediction(ctx context.Context, user string, p scoring.Prediction) (store.Prediction, error) {
	if err := validateSubmission(p); err != nil {
		return store.Prediction{}, err
	}

	now := s.now().UTC()
	rec := store.Prediction{
		User:         user,
		Season:       s.season,
		Prediction:   p,
		CreatedAt:    now,
		LastModified: now,
	}
	existing, err := s.repo.GetPrediction(ctx, user, s.season)
	switch {
	case err == nil:
		rec.CreatedAt = existing.CreatedAt
	case !errors.Is(err, store.ErrNotFound):
		return store.Prediction{}, err
	}

	if err := s.repo.SavePrediction(ctx, rec); err != nil {
		return store.Prediction{}, err
	}
	rec.Locked = s.Locked()
	return rec, nil
}

// Prediction returns user's prediction for the current season.
func (s *Service) Prediction(ctx context.Context, user string) (store.Prediction, error) {
	if _, err := s.existingUser(ctx, user); err != nil {
		return store.Prediction{}, err
	}
	p, err := s.repo.GetPrediction(ctx, user, s.season)
	if err != nil {
		return store.Prediction{}, err
	}
	p.Locked = p.Locked || s.Locked()
	return p, nil
}

func (s *Service) Predictions(ctx context.Context) ([]store.Prediction, error) {
	preds, err := s.repo.ListPredictions(ctx, s.season)
	if err != nil {
		return nil, err
	}
	locked := s.Locked()
	for i := range preds {
		preds[i].Locked = preds[i].Locked || locked
	}
	return preds, nil
}
