package store

import (
	"errors"
	"time"

	"github.com/utakatalp/prem-predictor/internal/league"
	"github.com/utakatalp/prem-predictor/internal/scoring"
)

var (
	ErrNotFound = errors.New("not found")
	ErrSettled  = errors.New("challenge already settled")
)

// User is a player in the friends league.
type User struct {
	Name         string        `json:"name"`
	Team         string        `json:"team,omitempty"`
	IsAdmin      bool          `json:"isAdmin"`
	TotalPoints  int           `json:"totalPoints"`
	WeeklyPoints []WeeklyScore `json:"weeklyPoints"`
}

// WeeklyScore is the points a user earned in one game week.
type WeeklyScore struct {
	Week   int `json:"week"`
	Points int `json:"points"`
}

// Prediction is a stored season prediction, keyed by user and season.
type Prediction struct {
	User         string             `json:"user"`
	Season       string             `json:"season"`
	Prediction   scoring.Prediction `json:"prediction"`
	Locked       bool               `json:"locked"`
	CreatedAt    time.Time          `json:"createdAt"`
	LastModified time.Time          `json:"lastModified"`
}

// Submission is one user's answer to a weekly challenge.
type Submission struct {
	User        string    `json:"user"`
	Answer      float64   `json:"answer"`
	SubmittedAt time.Time `json:"submittedAt"`
	Points      int       `json:"points"`
}

// Challenge is a weekly mini-game.
type Challenge struct {
	ID          string                `json:"id"`
	Week        int                   `json:"week"`
	Kind        scoring.ChallengeKind `json:"kind"`
	Question    string                `json:"question"`
	Submissions []Submission          `json:"submissions"`
	Result      *float64              `json:"result,omitempty"`
	Settled     bool                  `json:"settled"`
	CreatedAt   time.Time             `json:"createdAt"`
}

// upsert replaces sub.User's earlier answer or appends a new one.
func (c *Challenge) upsert(sub Submission) {
	for i := range c.Submissions {
		if c.Submissions[i].User == sub.User {
			c.Submissions[i] = sub
			return
		}
	}
	c.Submissions = append(c.Submissions, sub)
}

// settle scores every submission and closes the challenge.
func (c *Challenge) settle(result float64, score func(Submission) int) {
	for i := range c.Submissions {
		c.Submissions[i].Points = score(c.Submissions[i])
	}
	c.Result = &result
	c.Settled = true
}

// SeasonTable is the recorded final standings of a season.
type SeasonTable struct {
	Season    string            `json:"season"`
	Table     league.FinalTable `json:"table"`
	UpdatedAt time.Time         `json:"updatedAt"`
}
