// Package types defines the typed records produced by the crawl pipeline and
// the error taxonomy shared by its components.
package types

import (
	"strings"

	"github.com/JMJ-GIF/jw-streamlit/internal/textnorm"
)

// ScheduleCaption is the marker string identifying a results table on both
// schedule endpoints; tables with other captions are layout chrome.
const ScheduleCaption = "시·도 토너먼트 경기일정"

// Attendance is the tri-state derived from a roster row's attendance icon.
type Attendance string

const (
	AttendanceYes     Attendance = "Y"
	AttendanceNo      Attendance = "N"
	AttendanceUnknown Attendance = ""
)

// AttendanceFromIconSrc derives attendance from an icon image URL. The live
// site encodes the checked state in the asset name; an empty src means the
// state could not be determined.
func AttendanceFromIconSrc(src string) Attendance {
	if src == "" {
		return AttendanceUnknown
	}
	for _, k := range []string{"check", "on", "checked"} {
		if strings.Contains(src, k) {
			return AttendanceYes
		}
	}
	return AttendanceNo
}

// GlobalPK builds the content-derived composite key for a schedule row. It is
// a pure function of the four normalized text fields, so two rows describing
// the same event always produce the same key, even across independent crawl
// runs.
func GlobalPK(sport, kind, subkind, matchType string) string {
	return textnorm.Normalize(sport) + "_" +
		textnorm.Normalize(kind) + "_" +
		textnorm.Normalize(subkind) + "_" +
		textnorm.Normalize(matchType)
}

// PageKey identifies one (date, category) results page. Together with a row
// index it is enough to re-open any schedule row in a later run.
type PageKey struct {
	FilterDate         string
	FilterCategoryCode string
	FilterCategoryName string
}

// ScheduleRecord is one row of a results table.
//
// LocalPK is a scan-order counter valid only within one crawl run; GlobalPK
// is the stable cross-run identity.
type ScheduleRecord struct {
	LocalPK   int
	GlobalPK  string
	Sport     string
	Kind      string
	Subkind   string
	MatchType string
	Status    string
	DateTime  string
	Venue     string
	Region    string

	// Crawl-context fields: which filter combination produced this row.
	Page PageKey
}

// RosterEntry is one player row nested under a tournament-bracket schedule
// row. Many entries share one parent ScheduleRecord.
type RosterEntry struct {
	LocalPK          int
	GlobalPK         string
	MatchTitle       string
	TeamLabel        string
	Attended         Attendance
	PlayerName       string
	AffiliationGrade string
	Position         string
}

// ResultEntry is one ranked result row nested under a match-record schedule
// row.
type ResultEntry struct {
	LocalPK     int
	GlobalPK    string
	Page        PageKey
	Rank        string
	Region      string
	PlayerName  string
	Affiliation string
	Grade       string
	Record      string
	Remarks     string
}
