package transform

import (
	"github.com/JMJ-GIF/jw-streamlit/internal/types"
)

// MatchRow is one schedule row joined with its rolled-up rosters, the shape
// consumed by downstream reporting.
type MatchRow struct {
	LocalPK   int
	GlobalPK  string
	Sport     string
	Kind      string
	Subkind   string
	MatchType string
	Status    string
	Date      string
	Time      string
	Venue     string
	Medal     bool
	HomeTeam  string
	HomeList  string
	AwayTeam  string
	AwayList  string
}

// BuildMatchTable joins schedule records with their roster rollups. Rows
// with no roster (record events, failed extractions) still appear, with
// empty team columns. The first two team groups of a match become home and
// away in panel order.
func BuildMatchTable(records []types.ScheduleRecord, rosters []types.RosterEntry) []MatchRow {
	rollups := PlayersPerMatch(rosters)
	byMatch := make(map[int][]MatchPlayers)
	for _, r := range rollups {
		byMatch[r.LocalPK] = append(byMatch[r.LocalPK], r)
	}

	rows := make([]MatchRow, 0, len(records))
	for _, rec := range records {
		date, clock := SplitDateTime(rec.DateTime)
		row := MatchRow{
			LocalPK:   rec.LocalPK,
			GlobalPK:  rec.GlobalPK,
			Sport:     rec.Sport,
			Kind:      rec.Kind,
			Subkind:   rec.Subkind,
			MatchType: rec.MatchType,
			Status:    rec.Status,
			Date:      date,
			Time:      clock,
			Venue:     rec.Venue,
			Medal:     IsMedalMatch(rec.MatchType),
		}
		if teams := byMatch[rec.LocalPK]; len(teams) > 0 {
			row.HomeTeam = teams[0].TeamLabel
			row.HomeList = teams[0].Players
			if len(teams) > 1 {
				row.AwayTeam = teams[1].TeamLabel
				row.AwayList = teams[1].Players
			}
		}
		rows = append(rows, row)
	}
	return rows
}
