package transform

import (
	"testing"

	"github.com/JMJ-GIF/jw-streamlit/internal/types"
)

func TestSplitAffiliationGrade(t *testing.T) {
	cases := []struct {
		in          string
		affiliation string
		grade       string
	}{
		{"순천고[3]", "순천고", "3"},
		{"한국체육대학교[１]", "한국체육대학교", "1"},
		{"전남도청", "전남도청", ""},
		{"  여수고 [2] ", "여수고", "2"},
		{"", "", ""},
	}
	for _, c := range cases {
		aff, grade := SplitAffiliationGrade(c.in)
		if aff != c.affiliation || grade != c.grade {
			t.Errorf("SplitAffiliationGrade(%q) = (%q, %q), want (%q, %q)",
				c.in, aff, grade, c.affiliation, c.grade)
		}
	}
}

func TestPlayersPerMatch(t *testing.T) {
	entries := []types.RosterEntry{
		{LocalPK: 1, GlobalPK: "g1", MatchTitle: "t1", TeamLabel: "전남", PlayerName: "김하나", AffiliationGrade: "순천고[1]"},
		{LocalPK: 1, GlobalPK: "g1", MatchTitle: "t1", TeamLabel: "전남", PlayerName: "박둘", AffiliationGrade: "여수고[2]"},
		{LocalPK: 1, GlobalPK: "g1", MatchTitle: "t1", TeamLabel: "서울", PlayerName: "이셋", AffiliationGrade: "서울고[3]"},
		{LocalPK: 2, GlobalPK: "g2", MatchTitle: "t2", TeamLabel: "전남", PlayerName: "최넷", AffiliationGrade: ""},
	}

	rows := PlayersPerMatch(entries)
	if len(rows) != 3 {
		t.Fatalf("want 3 rollup rows, got %d: %+v", len(rows), rows)
	}

	if rows[0].LocalPK != 1 || rows[0].TeamLabel != "전남" {
		t.Errorf("first row grouping: %+v", rows[0])
	}
	if rows[0].Players != "김하나(순천고)/박둘(여수고)" {
		t.Errorf("players line = %q", rows[0].Players)
	}
	if rows[1].TeamLabel != "서울" || rows[1].Players != "이셋(서울고)" {
		t.Errorf("second row: %+v", rows[1])
	}
	if rows[2].Players != "최넷" {
		t.Errorf("player without affiliation should have no parens: %q", rows[2].Players)
	}
}

func TestSplitDateTime(t *testing.T) {
	cases := []struct {
		in    string
		date  string
		clock string
	}{
		{"10.11 (금) 09:00", "10.11 (금)", "09:00"},
		{"10.12 (토)", "10.12 (토)", ""},
		{"", "", ""},
	}
	for _, c := range cases {
		date, clock := SplitDateTime(c.in)
		if date != c.date || clock != c.clock {
			t.Errorf("SplitDateTime(%q) = (%q, %q), want (%q, %q)", c.in, date, clock, c.date, c.clock)
		}
	}
}

func TestIsMedalMatch(t *testing.T) {
	cases := map[string]bool{
		"결승":    true,
		"3·4위전": false,
		"준결승":   false,
		"예선":    false,
		"결승전":   true,
	}
	for in, want := range cases {
		if got := IsMedalMatch(in); got != want {
			t.Errorf("IsMedalMatch(%q) = %v, want %v", in, got, want)
		}
	}
}
