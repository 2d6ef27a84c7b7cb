package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/utakatalp/prem-predictor/internal/game"
	"github.com/utakatalp/prem-predictor/internal/odds"
	"github.com/utakatalp/prem-predictor/internal/scoring"
)

// printStyles holds the styles used by console output.
type printStyles struct {
	header lipgloss.Style
	good   lipgloss.Style
	ok     lipgloss.Style
	warn   lipgloss.Style
	bad    lipgloss.Style
	dim    lipgloss.Style
}

func newPrintStyles() printStyles {
	return printStyles{
		header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		good:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		ok:     lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		warn:   lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		bad:    lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		dim:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// points colours a challenge score.
func (s printStyles) points(p int) lipgloss.Style {
	switch {
	case p >= scoring.ChallengePerfect:
		return s.good
	case p >= scoring.ChallengeClose:
		return s.ok
	case p > scoring.ChallengeTerrible:
		return s.warn
	default:
		return s.bad
	}
}

func renderStandings(w io.Writer, season string, standings []game.Standing, detail bool) {
	styles := newPrintStyles()

	fmt.Fprintln(w, styles.header.Render("Season "+season))

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styles.dim).
		Headers("#", "User", "Score", "Base", "Bonus", "Favourite", "Notes")

	rank := 0
	for _, st := range standings {
		if st.Error != "" {
			t.Row("-", st.User, "-", "-", "-", "-", styles.bad.Render(st.Error))
			continue
		}
		rank++
		b := st.Breakdown
		fav := "-"
		if b.Favorite != nil {
			fav = fmt.Sprintf("%s x%.2f", b.Favorite.Team, b.FavoriteMultiplier)
		}
		t.Row(
			fmt.Sprint(rank),
			st.User,
			fmt.Sprint(st.FinalScore),
			fmt.Sprint(b.BaseScore),
			fmt.Sprint(b.BonusPoints),
			fav,
			notes(b, styles),
		)
	}
	fmt.Fprintln(w, t.Render())

	if !detail {
		return
	}
	for _, st := range standings {
		if st.Breakdown == nil {
			continue
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, styles.header.Render(st.User))
		for _, ts := range st.Breakdown.Teams {
			line := fmt.Sprintf("  %-16s %5d  %s", ts.Team, ts.Points, ts.Narrative)
			if ts.OddsSource == scoring.SourceFallback {
				line = styles.warn.Render(line)
			}
			fmt.Fprintln(w, line)
		}
		for _, bonus := range st.Breakdown.Bonuses {
			fmt.Fprintln(w, styles.good.Render(fmt.Sprintf("  %-16s %5d  %s", bonus.Name, bonus.Points, bonus.Narrative)))
		}
	}
}

func notes(b *scoring.ScoreBreakdown, styles printStyles) string {
	var parts []string
	if b.PerfectSections.Top4 {
		parts = append(parts, styles.good.Render("perfect top 4"))
	}
	if b.PerfectSections.Top8 {
		parts = append(parts, styles.good.Render("perfect top 8"))
	}
	if b.PerfectSections.Relegation {
		parts = append(parts, styles.good.Render("perfect relegation"))
	}
	if b.Degraded {
		parts = append(parts, styles.warn.Render("odds fallback"))
	}
	return strings.Join(parts, ", ")
}

func renderOddsSummary(w io.Writer, sum odds.Summary) {
	styles := newPrintStyles()
	section := func(title string, lines []odds.Line) {
		fmt.Fprintln(w, styles.header.Render(title))
		if len(lines) == 0 {
			fmt.Fprintln(w, styles.dim.Render("  none"))
			return
		}
		for _, l := range lines {
			fmt.Fprintf(w, "  %-16s %6.2f%%  %s\n", l.Team, l.Probability, styles.dim.Render(fmt.Sprintf("@ %.2f", l.Odds)))
		}
	}
	section("Title favourites", sum.Favorites)
	section("Top-four longshots", sum.Longshots)
	section("Relegation favourites", sum.RelegationFavorites)
	fmt.Fprintln(w, styles.dim.Render("updated "+sum.UpdatedAt.Format("2006-01-02 15:04 MST")))
}
