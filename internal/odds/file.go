package odds

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// quote is a single market price as written in a snapshot file: either
// decimal odds or an explicit probability in percent.
type quote struct {
	Odds        float64 `yaml:"odds"`
	Probability float64 `yaml:"probability"`
}

func (q quote) percent() (float64, error) {
	if q.Probability > 0 {
		if q.Probability > 100 {
			return 0, fmt.Errorf("probability %v above 100", q.Probability)
		}
		return q.Probability, nil
	}
	return DecimalToPercent(q.Odds)
}

type fileTeam struct {
	Positions map[int]quote `yaml:"positions"`
	Top4      *quote        `yaml:"top4"`
	Relegated *quote        `yaml:"relegated"`
}

type fileSnapshot struct {
	Source string              `yaml:"source"`
	Teams  map[string]fileTeam `yaml:"teams"`
}

// DecodeSnapshot reads a YAML snapshot:
//
//	source: bookmaker-consensus
//	teams:
//	  Man City:
//	    positions:
//	      1: {odds: 1.5}
//	      2: {probability: 16.7}
//	    top4: {odds: 1.1}
//	    relegated: {odds: 1000}
func DecodeSnapshot(r io.Reader, fetchedAt time.Time) (*Snapshot, error) {
	var raw fileSnapshot
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding odds snapshot: %w", err)
	}

	snap := &Snapshot{
		Source:    raw.Source,
		FetchedAt: fetchedAt,
		Teams:     make(map[string]Markets, len(raw.Teams)),
	}
	for team, ft := range raw.Teams {
		m := Markets{Positions: make(map[int]float64, len(ft.Positions))}
		for pos, q := range ft.Positions {
			if pos < 1 {
				return nil, fmt.Errorf("odds for %s: invalid position %d", team, pos)
			}
			p, err := q.percent()
			if err != nil {
				return nil, fmt.Errorf("odds for %s position %d: %w", team, pos, err)
			}
			m.Positions[pos] = round2(p)
		}
		var err error
		if m.Top4, err = optionalPercent(ft.Top4); err != nil {
			return nil, fmt.Errorf("top4 odds for %s: %w", team, err)
		}
		if m.Relegated, err = optionalPercent(ft.Relegated); err != nil {
			return nil, fmt.Errorf("relegation odds for %s: %w", team, err)
		}
		snap.Teams[team] = m
	}
	return snap, nil
}

func optionalPercent(q *quote) (*float64, error) {
	if q == nil {
		return nil, nil
	}
	p, err := q.percent()
	if err != nil {
		return nil, err
	}
	p = round2(p)
	return &p, nil
}

// LoadSnapshotFile decodes the snapshot at path, stamped with the file's
// modification time.
func LoadSnapshotFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening odds snapshot: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat odds snapshot: %w", err)
	}
	return DecodeSnapshot(f, info.ModTime().UTC())
}

// FileProvider re-reads a snapshot file on every call. Wrap it in a
// CachedProvider to bound how often the file is read.
type FileProvider struct {
	Path string
}

func (p FileProvider) Snapshot(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return LoadSnapshotFile(p.Path)
}
