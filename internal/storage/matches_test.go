package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/JMJ-GIF/jw-streamlit/internal/transform"
)

func readAll(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return rows
}

func TestWriteMatches(t *testing.T) {
	dir := t.TempDir()
	rows := []transform.MatchRow{
		{LocalPK: 1, GlobalPK: "g1", MatchType: "결승", Medal: true, HomeTeam: "전남", HomeList: "김하나(순천고)"},
	}
	if err := WriteMatches(dir, rows); err != nil {
		t.Fatalf("WriteMatches: %v", err)
	}

	got := readAll(t, filepath.Join(dir, MatchFile))
	if len(got) != 2 {
		t.Fatalf("want header + 1 row, got %d lines", len(got))
	}
	if got[0][0] != "로컬 PK" || got[0][10] != "메달경기" {
		t.Errorf("unexpected header: %v", got[0])
	}
	if got[1][10] != "true" || got[1][11] != "전남" {
		t.Errorf("unexpected row: %v", got[1])
	}
}

func TestWriteVerifications(t *testing.T) {
	dir := t.TempDir()
	flags := map[string]bool{
		"김선수 (순천고)": true,
		"이선수 (여수고)": false,
	}
	if err := WriteVerifications(dir, flags); err != nil {
		t.Fatalf("WriteVerifications: %v", err)
	}

	got := readAll(t, filepath.Join(dir, VerifiedFile))
	if len(got) != 3 {
		t.Fatalf("want header + 2 rows, got %d lines", len(got))
	}
	// Rows are sorted by player for stable diffs.
	if got[1][0] != "김선수 (순천고)" || got[1][1] != "1" {
		t.Errorf("unexpected first row: %v", got[1])
	}
	if got[2][1] != "0" {
		t.Errorf("unverified player should be 0: %v", got[2])
	}
}
