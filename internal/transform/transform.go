// Package transform reshapes raw crawl output into the reporting tables:
// affiliation/grade splitting, per-match player rollups, date/venue
// splitting, and medal-match flagging.
package transform

import (
	"regexp"
	"sort"
	"strings"

	"github.com/JMJ-GIF/jw-streamlit/internal/textnorm"
	"github.com/JMJ-GIF/jw-streamlit/internal/types"
)

// affiliationGradeRe splits "순천고[3]" into affiliation and grade. The
// bracketed grade is optional and may use full-width digits.
var affiliationGradeRe = regexp.MustCompile(`^\s*(.*?)\s*(?:\[([0-9０-９]+)\])?\s*$`)

// SplitAffiliationGrade separates the combined 소속[학년] cell into its
// affiliation and grade parts. Grade digits are normalized to ASCII; a
// missing bracket yields an empty grade.
func SplitAffiliationGrade(combined string) (affiliation, grade string) {
	m := affiliationGradeRe.FindStringSubmatch(textnorm.Normalize(combined))
	if m == nil {
		return textnorm.Normalize(combined), ""
	}
	return m[1], textnorm.Normalize(m[2])
}

// MatchPlayers is one match's roster rolled up to one row per team, with
// player lines joined for display.
type MatchPlayers struct {
	LocalPK    int
	GlobalPK   string
	MatchTitle string
	TeamLabel  string
	Players    string // "이름(소속)" lines joined with "/"
}

// PlayersPerMatch groups roster entries by match and team, preserving the
// crawl's scan order within each group.
func PlayersPerMatch(entries []types.RosterEntry) []MatchPlayers {
	type key struct {
		localPK int
		team    string
	}
	order := make([]key, 0)
	groups := make(map[key][]types.RosterEntry)
	for _, e := range entries {
		k := key{localPK: e.LocalPK, team: e.TeamLabel}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], e)
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].localPK != order[j].localPK {
			return order[i].localPK < order[j].localPK
		}
		return false
	})

	rows := make([]MatchPlayers, 0, len(order))
	for _, k := range order {
		group := groups[k]
		lines := make([]string, 0, len(group))
		for _, e := range group {
			aff, _ := SplitAffiliationGrade(e.AffiliationGrade)
			line := e.PlayerName
			if aff != "" {
				line += "(" + aff + ")"
			}
			lines = append(lines, line)
		}
		rows = append(rows, MatchPlayers{
			LocalPK:    k.localPK,
			GlobalPK:   group[0].GlobalPK,
			MatchTitle: group[0].MatchTitle,
			TeamLabel:  k.team,
			Players:    strings.Join(lines, "/"),
		})
	}
	return rows
}

// SplitDateTime separates the schedule's combined "10.11 (금) 09:00" cell
// into its date and time parts. A cell with no time component returns it
// whole as the date.
func SplitDateTime(combined string) (date, clock string) {
	s := textnorm.Normalize(combined)
	if i := strings.LastIndex(s, " "); i >= 0 && strings.Contains(s[i+1:], ":") {
		return strings.TrimSpace(s[:i]), s[i+1:]
	}
	return s, ""
}

// IsMedalMatch reports whether a match type denotes a medal round.
func IsMedalMatch(matchType string) bool {
	s := textnorm.Normalize(matchType)
	return strings.Contains(s, "결승") && !strings.Contains(s, "준결승")
}
