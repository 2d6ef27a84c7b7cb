package league

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type teamsFile struct {
	Teams []struct {
		Name string  `yaml:"name"`
		ELO  float64 `yaml:"elo"`
	} `yaml:"teams"`
}

// DecodeTeams reads a list of clubs with optional ELO ratings. IDs follow
// file order starting at 1.
func DecodeTeams(r io.Reader) ([]*Team, error) {
	var raw teamsFile
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding teams: %w", err)
	}
	if len(raw.Teams) < 2 {
		return nil, fmt.Errorf("decoding teams: need at least 2, got %d", len(raw.Teams))
	}

	seen := make(map[string]bool, len(raw.Teams))
	teams := make([]*Team, 0, len(raw.Teams))
	for i, t := range raw.Teams {
		if t.Name == "" {
			return nil, fmt.Errorf("decoding teams: entry %d has no name", i+1)
		}
		if seen[t.Name] {
			return nil, fmt.Errorf("decoding teams: %s listed twice", t.Name)
		}
		seen[t.Name] = true
		teams = append(teams, &Team{ID: i + 1, Name: t.Name, ELO: t.ELO})
	}
	return teams, nil
}

func LoadTeamsFile(path string) ([]*Team, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening teams file: %w", err)
	}
	defer f.Close()
	return DecodeTeams(f)
}

type tableFile struct {
	Season  string       `yaml:"season"`
	Table   []string     `yaml:"table"`
	Results []resultLine `yaml:"results"`
}

type resultLine struct {
	Home      string `yaml:"home"`
	Away      string `yaml:"away"`
	HomeGoals int    `yaml:"homeGoals"`
	AwayGoals int    `yaml:"awayGoals"`
}

// DecodeTable reads a final table, either listed directly
//
//	season: 2024-25
//	table: [Liverpool, Arsenal, ...]
//
// or derived from the season's results
//
//	results:
//	  - {home: Arsenal, away: Chelsea, homeGoals: 2, awayGoals: 1}
func DecodeTable(r io.Reader) (season string, table FinalTable, err error) {
	var raw tableFile
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		return "", nil, fmt.Errorf("decoding final table: %w", err)
	}

	switch {
	case len(raw.Table) > 0 && len(raw.Results) > 0:
		return "", nil, fmt.Errorf("%w: give either table or results, not both", ErrMalformedTable)
	case len(raw.Results) > 0:
		table, err = tableFromResults(raw.Results)
		if err != nil {
			return "", nil, err
		}
	default:
		table = FinalTable(raw.Table)
	}
	if err := table.Validate(); err != nil {
		return "", nil, err
	}
	return raw.Season, table, nil
}

// tableFromResults ranks every team that appears in results using the
// league's standings rules.
func tableFromResults(results []resultLine) (FinalTable, error) {
	teams := make(map[string]*Team)
	team := func(name string) *Team {
		t, ok := teams[name]
		if !ok {
			t = &Team{ID: len(teams) + 1, Name: name}
			teams[name] = t
		}
		return t
	}

	matches := make([]*Match, 0, len(results))
	for i, res := range results {
		if res.Home == "" || res.Away == "" || res.Home == res.Away {
			return nil, fmt.Errorf("%w: result %d needs two different teams", ErrMalformedTable, i+1)
		}
		if res.HomeGoals < 0 || res.AwayGoals < 0 {
			return nil, fmt.Errorf("%w: result %d has negative goals", ErrMalformedTable, i+1)
		}
		matches = append(matches, &Match{
			ID:        i + 1,
			Home:      team(res.Home),
			Away:      team(res.Away),
			HomeGoals: res.HomeGoals,
			AwayGoals: res.AwayGoals,
			Played:    true,
		})
	}
	return FinishingOrder(CalculateTable(matches)), nil
}

func LoadTableFile(path string) (string, FinalTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("opening table file: %w", err)
	}
	defer f.Close()
	return DecodeTable(f)
}
