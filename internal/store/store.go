package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/utakatalp/prem-predictor/internal/league"
	"github.com/utakatalp/prem-predictor/internal/scoring"
)

// Store wraps a Postgres connection and persists users, predictions,
// season tables and weekly challenges.
type Store struct {
	DB *sql.DB
}

// NewStore opens a Postgres connection using the given connection string.
func NewStore(ctx context.Context, connStr string) (*Store, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// verify early
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Store{DB: db}, nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}

// Migrate creates the necessary tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
		    name         TEXT    PRIMARY KEY,
		    team         TEXT    NOT NULL DEFAULT '',
		    is_admin     BOOLEAN NOT NULL DEFAULT FALSE,
		    total_points INT     NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS weekly_points (
		    user_name TEXT NOT NULL REFERENCES users(name),
		    week      INT  NOT NULL,
		    points    INT  NOT NULL DEFAULT 0,
		    PRIMARY KEY (user_name, week)
		);`,
		`CREATE TABLE IF NOT EXISTS predictions (
		    user_name     TEXT        NOT NULL REFERENCES users(name),
		    season        TEXT        NOT NULL,
		    top_eight     JSONB       NOT NULL,
		    bottom_three  JSONB       NOT NULL,
		    favorite_team TEXT        NOT NULL DEFAULT '',
		    locked        BOOLEAN     NOT NULL DEFAULT FALSE,
		    created_at    TIMESTAMPTZ NOT NULL,
		    last_modified TIMESTAMPTZ NOT NULL,
		    PRIMARY KEY (user_name, season)
		);`,
		`CREATE TABLE IF NOT EXISTS season_tables (
		    season     TEXT        PRIMARY KEY,
		    final_table JSONB      NOT NULL,
		    updated_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS challenges (
		    id          TEXT             PRIMARY KEY,
		    week        INT              NOT NULL,
		    kind        TEXT             NOT NULL,
		    question    TEXT             NOT NULL,
		    submissions JSONB            NOT NULL DEFAULT '[]',
		    result      DOUBLE PRECISION,
		    settled     BOOLEAN          NOT NULL DEFAULT FALSE,
		    created_at  TIMESTAMPTZ      NOT NULL
		);`,
	}
	for _, q := range queries {
		if _, err := s.DB.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrating: %w", err)
		}
	}
	return nil
}

// EnsureUser inserts u unless a user with that name exists, and returns the
// stored user either way.
func (s *Store) EnsureUser(ctx context.Context, u User) (User, error) {
	const q = `
    INSERT INTO users (name, team, is_admin)
    VALUES ($1, $2, $3)
    ON CONFLICT (name) DO NOTHING
    `
	if _, err := s.DB.ExecContext(ctx, q, u.Name, u.Team, u.IsAdmin); err != nil {
		return User{}, fmt.Errorf("inserting user %s: %w", u.Name, err)
	}
	return s.GetUser(ctx, u.Name)
}

func (s *Store) GetUser(ctx context.Context, name string) (User, error) {
	const q = `SELECT name, team, is_admin, total_points FROM users WHERE name = $1`

	var u User
	err := s.DB.QueryRowContext(ctx, q, name).Scan(&u.Name, &u.Team, &u.IsAdmin, &u.TotalPoints)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, fmt.Errorf("user %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return User{}, fmt.Errorf("querying user %s: %w", name, err)
	}

	weekly, err := s.weeklyPoints(ctx, name)
	if err != nil {
		return User{}, err
	}
	u.WeeklyPoints = weekly[name]
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	const q = `SELECT name, team, is_admin, total_points FROM users ORDER BY name`

	rows, err := s.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.Name, &u.Team, &u.IsAdmin, &u.TotalPoints); err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user rows: %w", err)
	}

	weekly, err := s.weeklyPoints(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].WeeklyPoints = weekly[users[i].Name]
	}
	return users, nil
}

// weeklyPoints loads weekly scores for one user, or everyone when name is empty.
func (s *Store) weeklyPoints(ctx context.Context, name string) (map[string][]WeeklyScore, error) {
	const q = `
    SELECT user_name, week, points
    FROM weekly_points
    WHERE $1 = '' OR user_name = $1
    ORDER BY user_name, week
    `
	rows, err := s.DB.QueryContext(ctx, q, name)
	if err != nil {
		return nil, fmt.Errorf("querying weekly points: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]WeeklyScore)
	for rows.Next() {
		var user string
		var ws WeeklyScore
		if err := rows.Scan(&user, &ws.Week, &ws.Points); err != nil {
			return nil, fmt.Errorf("scanning weekly points: %w", err)
		}
		out[user] = append(out[user], ws)
	}
	return out, rows.Err()
}

// AddWeeklyPoints credits points to a user's week and running total.
func (s *Store) AddWeeklyPoints(ctx context.Context, name string, week, points int) error {
	// 1) Begin a transaction
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin AddWeeklyPoints tx: %w", err)
	}
	defer tx.Rollback()

	// 2) Credit the week and the running total
	if err := creditWeek(ctx, tx, name, week, points); err != nil {
		return err
	}

	// 3) Commit
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit AddWeeklyPoints tx: %w", err)
	}
	return nil
}

func creditWeek(ctx context.Context, tx *sql.Tx, name string, week, points int) error {
	const weekly = `
    INSERT INTO weekly_points (user_name, week, points)
    VALUES ($1, $2, $3)
    ON CONFLICT (user_name, week)
    DO UPDATE SET points = weekly_points.points + EXCLUDED.points
    `
	if _, err := tx.ExecContext(ctx, weekly, name, week, points); err != nil {
		return fmt.Errorf("adding week %d points for %s: %w", week, name, err)
	}

	res, err := tx.ExecContext(ctx, `UPDATE users SET total_points = total_points + $1 WHERE name = $2`, points, name)
	if err != nil {
		return fmt.Errorf("updating total for %s: %w", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("user %s: %w", name, ErrNotFound)
	}
	return nil
}

// SavePrediction inserts or replaces the prediction for (user, season).
func (s *Store) SavePrediction(ctx context.Context, p Prediction) error {
	top, err := json.Marshal(p.Prediction.TopEight)
	if err != nil {
		return fmt.Errorf("marshaling top eight: %w", err)
	}
	bottom, err := json.Marshal(p.Prediction.BottomThree)
	if err != nil {
		return fmt.Errorf("marshaling bottom three: %w", err)
	}

	const q = `
    INSERT INTO predictions
      (user_name, season, top_eight, bottom_three, favorite_team, locked, created_at, last_modified)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    ON CONFLICT (user_name, season) DO UPDATE SET
      top_eight     = EXCLUDED.top_eight,
      bottom_three  = EXCLUDED.bottom_three,
      favorite_team = EXCLUDED.favorite_team,
      locked        = EXCLUDED.locked,
      last_modified = EXCLUDED.last_modified
    `
	_, err = s.DB.ExecContext(ctx, q,
		p.User, p.Season, top, bottom, p.Prediction.FavoriteTeam,
		p.Locked, p.CreatedAt, p.LastModified,
	)
	if err != nil {
		return fmt.Errorf("saving prediction for %s/%s: %w", p.User, p.Season, err)
	}
	return nil
}

const predictionColumns = `user_name, season, top_eight, bottom_three, favorite_team, locked, created_at, last_modified`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPrediction(row rowScanner) (Prediction, error) {
	var p Prediction
	var top, bottom []byte
	if err := row.Scan(&p.User, &p.Season, &top, &bottom, &p.Prediction.FavoriteTeam,
		&p.Locked, &p.CreatedAt, &p.LastModified); err != nil {
		return Prediction{}, err
	}
	if err := json.Unmarshal(top, &p.Prediction.TopEight); err != nil {
		return Prediction{}, fmt.Errorf("unmarshaling top eight: %w", err)
	}
	if err := json.Unmarshal(bottom, &p.Prediction.BottomThree); err != nil {
		return Prediction{}, fmt.Errorf("unmarshaling bottom three: %w", err)
	}
	return p, nil
}

func (s *Store) GetPrediction(ctx context.Context, user, season string) (Prediction, error) {
	q := `SELECT ` + predictionColumns + ` FROM predictions WHERE user_name = $1 AND season = $2`

	p, err := scanPrediction(s.DB.QueryRowContext(ctx, q, user, season))
	if errors.Is(err, sql.ErrNoRows) {
		return Prediction{}, fmt.Errorf("prediction %s/%s: %w", user, season, ErrNotFound)
	}
	if err != nil {
		return Prediction{}, fmt.Errorf("querying prediction %s/%s: %w", user, season, err)
	}
	return p, nil
}

func (s *Store) ListPredictions(ctx context.Context, season string) ([]Prediction, error) {
	q := `SELECT ` + predictionColumns + ` FROM predictions WHERE season = $1 ORDER BY user_name`

	rows, err := s.DB.QueryContext(ctx, q, season)
	if err != nil {
		return nil, fmt.Errorf("querying predictions: %w", err)
	}
	defer rows.Close()

	var out []Prediction
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning prediction row: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating prediction rows: %w", err)
	}
	return out, nil
}

func (s *Store) SaveSeasonTable(ctx context.Context, t SeasonTable) error {
	data, err := json.Marshal(t.Table)
	if err != nil {
		return fmt.Errorf("marshaling final table: %w", err)
	}
	const q = `
    INSERT INTO season_tables (season, final_table, updated_at)
    VALUES ($1, $2, $3)
    ON CONFLICT (season) DO UPDATE SET
      final_table = EXCLUDED.final_table,
      updated_at  = EXCLUDED.updated_at
    `
	if _, err := s.DB.ExecContext(ctx, q, t.Season, data, t.UpdatedAt); err != nil {
		return fmt.Errorf("saving final table %s: %w", t.Season, err)
	}
	return nil
}

func (s *Store) GetSeasonTable(ctx context.Context, season string) (SeasonTable, error) {
	const q = `SELECT season, final_table, updated_at FROM season_tables WHERE season = $1`

	var t SeasonTable
	var data []byte
	err := s.DB.QueryRowContext(ctx, q, season).Scan(&t.Season, &data, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return SeasonTable{}, fmt.Errorf("final table %s: %w", season, ErrNotFound)
	}
	if err != nil {
		return SeasonTable{}, fmt.Errorf("querying final table %s: %w", season, err)
	}
	var table league.FinalTable
	if err := json.Unmarshal(data, &table); err != nil {
		return SeasonTable{}, fmt.Errorf("unmarshaling final table: %w", err)
	}
	t.Table = table
	return t, nil
}

func (s *Store) SaveChallenge(ctx context.Context, c Challenge) error {
	subs, err := json.Marshal(c.Submissions)
	if err != nil {
		return fmt.Errorf("marshaling submissions: %w", err)
	}
	const q = `
    INSERT INTO challenges (id, week, kind, question, submissions, result, settled, created_at)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    ON CONFLICT (id) DO UPDATE SET
      submissions = EXCLUDED.submissions,
      result      = EXCLUDED.result,
      settled     = EXCLUDED.settled
    `
	_, err = s.DB.ExecContext(ctx, q,
		c.ID, c.Week, string(c.Kind), c.Question, subs, c.Result, c.Settled, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving challenge %s: %w", c.ID, err)
	}
	return nil
}

const challengeColumns = `id, week, kind, question, submissions, result, settled, created_at`

func scanChallenge(row rowScanner) (Challenge, error) {
	var c Challenge
	var kind string
	var subs []byte
	var result sql.NullFloat64
	if err := row.Scan(&c.ID, &c.Week, &kind, &c.Question, &subs, &result, &c.Settled, &c.CreatedAt); err != nil {
		return Challenge{}, err
	}
	c.Kind = scoring.ChallengeKind(kind)
	if result.Valid {
		c.Result = &result.Float64
	}
	if err := json.Unmarshal(subs, &c.Submissions); err != nil {
		return Challenge{}, fmt.Errorf("unmarshaling submissions: %w", err)
	}
	return c, nil
}

func (s *Store) GetChallenge(ctx context.Context, id string) (Challenge, error) {
	q := `SELECT ` + challengeColumns + ` FROM challenges WHERE id = $1`

	c, err := scanChallenge(s.DB.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Challenge{}, fmt.Errorf("challenge %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Challenge{}, fmt.Errorf("querying challenge %s: %w", id, err)
	}
	return c, nil
}

func (s *Store) ListChallenges(ctx context.Context) ([]Challenge, error) {
	q := `SELECT ` + challengeColumns + ` FROM challenges ORDER BY week, created_at`

	rows, err := s.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("querying challenges: %w", err)
	}
	defer rows.Close()

	var out []Challenge
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning challenge row: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating challenge rows: %w", err)
	}
	return out, nil
}

// lockChallenge loads challenge id inside tx and holds its row lock until
// the tx ends. A settled challenge returns ErrSettled.
func lockChallenge(ctx context.Context, tx *sql.Tx, id string) (Challenge, error) {
	q := `SELECT ` + challengeColumns + ` FROM challenges WHERE id = $1 FOR UPDATE`

	c, err := scanChallenge(tx.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Challenge{}, fmt.Errorf("challenge %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Challenge{}, fmt.Errorf("locking challenge %s: %w", id, err)
	}
	if c.Settled {
		return Challenge{}, fmt.Errorf("challenge %s: %w", id, ErrSettled)
	}
	return c, nil
}

// SubmitAnswer stores sub on challenge id, replacing the user's earlier
// answer. A settled challenge returns ErrSettled.
func (s *Store) SubmitAnswer(ctx context.Context, id string, sub Submission) (Challenge, error) {
	// 1) Begin a transaction
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return Challenge{}, fmt.Errorf("begin SubmitAnswer tx: %w", err)
	}
	defer tx.Rollback()

	// 2) Lock the challenge row
	c, err := lockChallenge(ctx, tx, id)
	if err != nil {
		return Challenge{}, err
	}

	// 3) Write the merged submissions
	c.upsert(sub)
	subs, err := json.Marshal(c.Submissions)
	if err != nil {
		return Challenge{}, fmt.Errorf("marshaling submissions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE challenges SET submissions = $2 WHERE id = $1`, id, subs); err != nil {
		return Challenge{}, fmt.Errorf("saving answer on %s: %w", id, err)
	}

	// 4) Commit
	if err := tx.Commit(); err != nil {
		return Challenge{}, fmt.Errorf("commit SubmitAnswer tx: %w", err)
	}
	return c, nil
}

// SettleChallenge scores the submissions, closes the challenge and credits
// every user's week in one transaction.
func (s *Store) SettleChallenge(ctx context.Context, id string, result float64, score func(Submission) int) (Challenge, error) {
	// 1) Begin a transaction
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return Challenge{}, fmt.Errorf("begin SettleChallenge tx: %w", err)
	}
	defer tx.Rollback()

	// 2) Lock the challenge row
	c, err := lockChallenge(ctx, tx, id)
	if err != nil {
		return Challenge{}, err
	}

	// 3) Score and close
	c.settle(result, score)
	subs, err := json.Marshal(c.Submissions)
	if err != nil {
		return Challenge{}, fmt.Errorf("marshaling submissions: %w", err)
	}
	const q = `UPDATE challenges SET submissions = $2, result = $3, settled = TRUE WHERE id = $1`
	if _, err := tx.ExecContext(ctx, q, id, subs, result); err != nil {
		return Challenge{}, fmt.Errorf("settling challenge %s: %w", id, err)
	}

	// 4) Credit every answer
	for _, sub := range c.Submissions {
		if err := creditWeek(ctx, tx, sub.User, c.Week, sub.Points); err != nil {
			return Challenge{}, fmt.Errorf("crediting %s: %w", id, err)
		}
	}

	// 5) Commit
	if err := tx.Commit(); err != nil {
		return Challenge{}, fmt.Errorf("commit SettleChallenge tx: %w", err)
	}
	return c, nil
}
