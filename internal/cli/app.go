package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/utakatalp/prem-predictor/internal/config"
	"github.com/utakatalp/prem-predictor/internal/game"
	"github.com/utakatalp/prem-predictor/internal/league"
	"github.com/utakatalp/prem-predictor/internal/logging"
	"github.com/utakatalp/prem-predictor/internal/odds"
	"github.com/utakatalp/prem-predictor/internal/scoring"
	"github.com/utakatalp/prem-predictor/internal/store"
)

// app holds the wired service and whatever must be closed on exit.
type app struct {
	cfg     *config.Config
	log     *logrus.Logger
	svc     *game.Service
	closers []func() error
}

// newApp wires a game service from cfg. With persistent set and a database
// URL configured the service runs on Postgres; otherwise it uses the
// in-memory repository.
func newApp(ctx context.Context, cfg *config.Config, persistent bool) (*app, error) {
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log}

	var repo game.Repository = store.NewMemory()
	if persistent && cfg.Database.URL != "" {
		st, err := store.NewStore(ctx, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, st.Close)
		repo = st
		log.Info("using postgres repository")
	} else if persistent {
		log.Warn("database.url not set; data lives in memory only")
	}

	provider, err := a.oddsProvider()
	if err != nil {
		a.Close()
		return nil, err
	}

	ranges, err := loadRanges(cfg.Scoring.ExpectationsFile)
	if err != nil {
		a.Close()
		return nil, err
	}

	deadline, err := cfg.Game.DeadlineTime()
	if err != nil {
		a.Close()
		return nil, err
	}

	a.svc = game.NewService(repo, provider, log, game.Options{
		Season:       cfg.Game.Season,
		Deadline:     deadline,
		Workers:      cfg.Game.Workers,
		FetchTimeout: cfg.Odds.FetchTimeout,
		Ranges:       ranges,
	})
	return a, nil
}

// oddsProvider builds the configured source behind a TTL cache, kept in
// Redis when redis.addr is set.
func (a *app) oddsProvider() (odds.Provider, error) {
	cfg := a.cfg

	var inner odds.Provider
	switch cfg.Odds.Source {
	case config.OddsSimulated:
		teams, err := league.LoadTeamsFile(cfg.Odds.TeamsFile)
		if err != nil {
			return nil, err
		}
		inner = odds.NewSeasonSimulator(teams, cfg.Odds.SimulationRuns, cfg.Odds.Seed)
	default:
		inner = odds.FileProvider{Path: cfg.Odds.SnapshotFile}
	}

	var cache odds.SnapshotStore = odds.NewMemoryStore()
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		a.closers = append(a.closers, client.Close)
		cache = odds.NewRedisStore(client, cfg.Game.Season)
	}

	a.log.WithFields(logrus.Fields{
		"source":    cfg.Odds.Source,
		"cache_ttl": cfg.Odds.CacheTTL,
		"redis":     cfg.Redis.Addr != "",
	}).Debug("odds provider ready")
	return odds.NewCachedProvider(inner, cache, cfg.Odds.CacheTTL, a.log), nil
}

func loadRanges(path string) (scoring.ExpectedRanges, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening expectations file: %w", err)
	}
	defer f.Close()
	ranges, err := scoring.LoadRanges(f)
	if err != nil {
		return nil, err
	}
	return ranges, nil
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}
