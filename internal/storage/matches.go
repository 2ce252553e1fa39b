package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/JMJ-GIF/jw-streamlit/internal/transform"
)

// Derived files produced by the builddb and validate commands.
const (
	MatchFile    = "matches.csv"
	VerifiedFile = "players_verified.csv"
)

var matchHeader = []string{
	"로컬 PK", "글로벌 PK", "종목정보", "종별", "세부종목", "경기구분", "상태",
	"일자", "시각", "경기장", "메달경기", "홈 팀", "홈 선수", "원정 팀", "원정 선수",
}

// WriteMatches writes the derived match table alongside the raw outputs.
func WriteMatches(dir string, rows []transform.MatchRow) error {
	f, err := os.Create(filepath.Join(dir, MatchFile))
	if err != nil {
		return fmt.Errorf("create %s: %w", MatchFile, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(matchHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		rec := []string{
			strconv.Itoa(r.LocalPK), r.GlobalPK, r.Sport, r.Kind, r.Subkind,
			r.MatchType, r.Status, r.Date, r.Time, r.Venue,
			strconv.FormatBool(r.Medal),
			r.HomeTeam, r.HomeList, r.AwayTeam, r.AwayList,
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", MatchFile, err)
	}
	return nil
}

var verifiedHeader = []string{"선수", "확인"}

// WriteVerifications writes the per-player directory check, one row per
// distinct player with a 0/1 verified column.
func WriteVerifications(dir string, flags map[string]bool) error {
	f, err := os.Create(filepath.Join(dir, VerifiedFile))
	if err != nil {
		return fmt.Errorf("create %s: %w", VerifiedFile, err)
	}
	defer f.Close()

	players := make([]string, 0, len(flags))
	for p := range flags {
		players = append(players, p)
	}
	sort.Strings(players)

	w := csv.NewWriter(f)
	if err := w.Write(verifiedHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, p := range players {
		mark := "0"
		if flags[p] {
			mark = "1"
		}
		if err := w.Write([]string{p, mark}); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", VerifiedFile, err)
	}
	return nil
}
