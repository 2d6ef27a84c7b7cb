// internal/league/logic.go
package league

import (
	"math"
	"math/rand"
	"sort"
)

// defaultELO is used for teams that have no rating yet.
const defaultELO = 1500.0

// SimulateMatch samples a scoreline for m from the teams' ratings. prevWins
// maps a team name to the number of earlier wins in this pairing.
// Matches that are already played return their recorded result.
func SimulateMatch(r *rand.Rand, m *Match, prevWins map[string]int) (homeGoals, awayGoals int) {
	// 1) recorded result?
	if m.Played {
		return m.HomeGoals, m.AwayGoals
	}

	// 2) head-to-head form, each prior win = +0.4 rating
	baseHome := rating(m.Home) + float64(prevWins[m.Home.Name])*0.4
	baseAway := rating(m.Away) + float64(prevWins[m.Away.Name])*0.4

	// 3) normalize into Poisson means (scaled so avg goals ≈3)
	total := baseHome + baseAway
	lambdaHome := baseHome / total * 3.0
	lambdaAway := baseAway / total * 3.0

	// 4) sample goals with added randomness
	homeGoals = samplePoisson(r, lambdaHome) + r.Intn(2)
	awayGoals = samplePoisson(r, lambdaAway) + r.Intn(2)
	return homeGoals, awayGoals
}

func rating(t *Team) float64 {
	if t.ELO <= 0 {
		return defaultELO
	}
	return t.ELO
}

// samplePoisson generates a random sample from a Poisson distribution with mean lambda
func samplePoisson(r *rand.Rand, lambda float64) int {
	L := math.Exp(-lambda)
	p := 1.0
	k := 0
	for p > L {
		k++
		p *= r.Float64()
	}
	return k - 1
}

// GenerateFullSeason returns a double round-robin: the second half repeats
// the first with home and away swapped.
func GenerateFullSeason(teams []*Team) [][]*Match {
	firstHalf := GenerateSchedule(teams)
	secondHalf := make([][]*Match, len(firstHalf))
	for i, rnd := range firstHalf {
		swapped := make([]*Match, len(rnd))
		for j, m := range rnd {
			swapped[j] = &Match{Home: m.Away, Away: m.Home, Week: i + 1 + len(firstHalf)}
		}
		secondHalf[i] = swapped
	}
	return append(firstHalf, secondHalf...)
}

// GenerateSchedule returns a single round-robin schedule for the provided
// teams using the circle method. The input slice is not modified.
func GenerateSchedule(teams []*Team) [][]*Match {
	// odd number of teams: a nil placeholder gives one team a bye each week
	order := make([]*Team, len(teams), len(teams)+1)
	copy(order, teams)
	if len(order)%2 != 0 {
		order = append(order, nil)
	}
	n := len(order)
	if n < 2 {
		return nil
	}

	rounds := make([][]*Match, n-1)
	for i := 0; i < n-1; i++ {
		round := make([]*Match, 0, n/2)
		for j := 0; j < n/2; j++ {
			home, away := order[j], order[n-1-j]
			if home != nil && away != nil {
				round = append(round, &Match{Home: home, Away: away, Week: i + 1})
			}
		}
		rounds[i] = round

		// rotate everyone except the first slot
		last := order[n-1]
		copy(order[2:], order[1:n-1])
		order[1] = last
	}
	return rounds
}

// CalculateTable builds standings from played matches.
func CalculateTable(matches []*Match) []*TableEntry {
	entriesMap := make(map[*Team]*TableEntry)
	entry := func(t *Team) *TableEntry {
		e, ok := entriesMap[t]
		if !ok {
			e = &TableEntry{Team: t}
			entriesMap[t] = e
		}
		return e
	}

	for _, m := range matches {
		if !m.Played {
			continue
		}
		home, away := entry(m.Home), entry(m.Away)
		recordResult(home, away, m.HomeGoals, m.AwayGoals)
	}

	entries := make([]*TableEntry, 0, len(entriesMap))
	for _, e := range entriesMap {
		entries = append(entries, e)
	}
	SortTable(entries)
	return entries
}

func recordResult(home, away *TableEntry, homeGoals, awayGoals int) {
	home.Played++
	away.Played++
	home.GoalsFor += homeGoals
	home.GoalsAgainst += awayGoals
	away.GoalsFor += awayGoals
	away.GoalsAgainst += homeGoals

	switch {
	case homeGoals > awayGoals:
		home.Wins++
		away.Losses++
		home.Points += 3
	case homeGoals < awayGoals:
		away.Wins++
		home.Losses++
		away.Points += 3
	default:
		home.Draws++
		away.Draws++
		home.Points++
		away.Points++
	}
	home.GoalDiff = home.GoalsFor - home.GoalsAgainst
	away.GoalDiff = away.GoalsFor - away.GoalsAgainst
}

// SortTable orders entries by points, goal difference, goals scored, then name.
func SortTable(entries []*TableEntry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.GoalDiff != b.GoalDiff {
			return a.GoalDiff > b.GoalDiff
		}
		if a.GoalsFor != b.GoalsFor {
			return a.GoalsFor > b.GoalsFor
		}
		return a.Team.Name < b.Team.Name
	})
}

// EntryFromTeam seeds a table entry with a team's accumulated record.
func EntryFromTeam(t *Team) *TableEntry {
	return &TableEntry{
		Team:         t,
		Played:       t.Played,
		Wins:         t.Win,
		Draws:        t.Draw,
		Losses:       t.Lose,
		GoalsFor:     t.GoalsFor,
		GoalsAgainst: t.GoalsAgainst,
		GoalDiff:     t.GoalsFor - t.GoalsAgainst,
		Points:       t.Points,
	}
}

// FinishingOrder converts sorted standings into a FinalTable.
func FinishingOrder(entries []*TableEntry) FinalTable {
	table := make(FinalTable, len(entries))
	for i, e := range entries {
		table[i] = e.Team.Name
	}
	return table
}

// SimulateSeason plays every unplayed fixture from startWeek on top of the
// teams' current records and returns the resulting finishing order.
func SimulateSeason(r *rand.Rand, teams []*Team, fixtures [][]*Match, startWeek int) FinalTable {
	// 1) fresh stats per team, seeded from current standings
	entries := make(map[string]*TableEntry, len(teams))
	for _, t := range teams {
		entries[t.Name] = EntryFromTeam(t)
	}
	wins := make(map[[2]string]map[string]int)

	// 2) simulate each remaining week
	for week := startWeek; week < len(fixtures); week++ {
		for _, m := range fixtures[week] {
			home, away := entries[m.Home.Name], entries[m.Away.Name]
			if home == nil || away == nil {
				continue
			}
			key := pairKey(m.Home.Name, m.Away.Name)
			if wins[key] == nil {
				wins[key] = make(map[string]int)
			}
			hg, ag := SimulateMatch(r, m, wins[key])
			switch {
			case hg > ag:
				wins[key][m.Home.Name]++
			case ag > hg:
				wins[key][m.Away.Name]++
			}
			if !m.Played {
				recordResult(home, away, hg, ag)
			}
		}
	}

	// 3) rank by seeded+simulated record
	sorted := make([]*TableEntry, 0, len(entries))
	for _, t := range teams {
		sorted = append(sorted, entries[t.Name])
	}
	SortTable(sorted)
	return FinishingOrder(sorted)
}

func pairKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}
