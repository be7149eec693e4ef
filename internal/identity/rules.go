package identity

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/alanyoungcy/crossarb/internal/domain"
)

func lowerTrim(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func containsTerm(text, term string) bool {
	return strings.Contains(text, strings.ToLower(term))
}

// partialGameMarkers exclude half and quarter markets; only full-game
// contracts settle against the same event on both venues.
var partialGameMarkers = []string{
	"1h ", " 1h", "1st half", "first half", "2h ", " 2h", "2nd half", "second half",
	"1q ", " 1q", "1st quarter", "first quarter",
	"2q ", " 2q", "2nd quarter", "second quarter",
	"3q ", " 3q", "3rd quarter", "third quarter",
	"4q ", " 4q", "4th quarter", "fourth quarter",
}

// propMarkers exclude player and statistical prop markets.
var propMarkers = []string{
	"touchdown", "reception", "yard", "passing", "rushing", "sack",
	"interception", "completion", "attempt", "team total", "mvp",
	"player", "score", "field goal", "punt", "turnover",
}

// awardSlugMarkers exclude season-award events on the Polymarket event slug.
var awardSlugMarkers = []string{"award", "rookie", "comeback", "coach", "mvp", "dpoy", "opoy"}

// IsBundle reports whether the title describes a multi-leg bundle or parlay.
func IsBundle(title string) bool {
	return strings.Contains(title, ",") || strings.Contains(title, " and ")
}

// IsPartialGame reports whether the text references a half or quarter market.
func IsPartialGame(text string) bool {
	for _, marker := range partialGameMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// IsProp reports whether the title describes a player or statistical prop.
func IsProp(title string) bool {
	for _, marker := range propMarkers {
		if strings.Contains(title, marker) {
			return true
		}
	}
	return false
}

// IsAwardEvent reports whether the Polymarket event slug names a season award.
func IsAwardEvent(slug string) bool {
	for _, marker := range awardSlugMarkers {
		if strings.Contains(slug, marker) {
			return true
		}
	}
	return false
}

// ClassifyMarket maps a lowercased title onto a market type using ordered
// keyword rules. Spread outranks total outranks winner; anything that matches
// no rule is unclassifiable and excluded from pairing.
func ClassifyMarket(title string) (domain.MarketType, bool) {
	if strings.Contains(title, "spread") || strings.Contains(title, "wins by") {
		return domain.MarketSpread, true
	}
	if strings.Contains(title, "o/u") || strings.Contains(title, "over/under") ||
		(strings.Contains(title, "over") && strings.Contains(title, "under")) {
		return domain.MarketTotal, true
	}
	if strings.Contains(title, "team total") {
		return domain.MarketTotal, true
	}
	if strings.Contains(title, "winner") ||
		(strings.Contains(title, " wins") && !strings.Contains(title, "by")) {
		return domain.MarketWinner, true
	}
	if strings.Contains(title, " vs") && !strings.Contains(title, "spread") &&
		!strings.Contains(title, "o/u") && !strings.Contains(title, "total") {
		return domain.MarketWinner, true
	}
	return "", false
}

var lineRe = regexp.MustCompile(`[-+]?\d+\.?\d*`)

// ExtractLine pulls the first numeric value out of a title. Sign is preserved;
// spread callers take the absolute value themselves.
func ExtractLine(title string) (float64, bool) {
	m := lineRe.FindString(title)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ExtractSpread resolves a spread title to the team it is quoted on and the
// absolute line. Both venues must resolve to the same (team, line) for a
// spread pair to form; unresolvable spreads are discarded.
func ExtractSpread(title string, teams domain.TeamPair) (domain.SpreadRef, bool) {
	line, ok := ExtractLine(title)
	if !ok {
		return domain.SpreadRef{}, false
	}
	if line < 0 {
		line = -line
	}
	for _, code := range teams.Teams() {
		if TeamMentioned(title, code) {
			return domain.SpreadRef{Team: code, Line: line}, true
		}
	}
	return domain.SpreadRef{}, false
}

// AttributeTeam finds which of the game's two teams a lowercased text refers
// to. It returns "" when neither team's search terms appear.
func AttributeTeam(text string, teams domain.TeamPair) string {
	for _, code := range teams.Teams() {
		if TeamMentioned(text, code) {
			return code
		}
	}
	return ""
}
