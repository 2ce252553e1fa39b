package storage

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/JMJ-GIF/jw-streamlit/internal/types"
)

// Output file names under the configured directory.
const (
	ScheduleFile = "schedule.csv"
	RosterFile   = "rosters.csv"
	ResultFile   = "results.csv"
)

var (
	scheduleHeader = []string{
		"로컬 PK", "글로벌 PK", "필터_일자", "필터_종목코드", "필터_종목명",
		"종목정보", "종별", "세부종목", "경기구분", "상태", "일시", "경기장", "시도",
	}
	rosterHeader = []string{
		"로컬 PK", "글로벌 PK", "경기 제목", "팀 구분", "출전", "선수명", "소속[학년]", "포지션",
	}
	resultHeader = []string{
		"로컬 PK", "글로벌 PK", "필터_일자", "필터_종목코드", "필터_종목명",
		"순위", "시도", "선수명", "소속", "학년", "기록", "신기록/비고",
	}
)

// CSVSink writes each record type to its own CSV file, overwriting per run.
type CSVSink struct {
	dir    string
	logger *slog.Logger
}

func NewCSVSink(dir string, logger *slog.Logger) (*CSVSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &CSVSink{dir: dir, logger: logger.With("component", "csv_storage")}, nil
}

func (s *CSVSink) Name() string { return "csv" }

func (s *CSVSink) WriteSchedule(records []types.ScheduleRecord) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			strconv.Itoa(r.LocalPK), r.GlobalPK,
			r.Page.FilterDate, r.Page.FilterCategoryCode, r.Page.FilterCategoryName,
			r.Sport, r.Kind, r.Subkind, r.MatchType, r.Status, r.DateTime, r.Venue, r.Region,
		})
	}
	return s.writeFile(ScheduleFile, scheduleHeader, rows)
}

func (s *CSVSink) WriteRosters(entries []types.RosterEntry) error {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			strconv.Itoa(e.LocalPK), e.GlobalPK,
			e.MatchTitle, e.TeamLabel, string(e.Attended),
			e.PlayerName, e.AffiliationGrade, e.Position,
		})
	}
	return s.writeFile(RosterFile, rosterHeader, rows)
}

func (s *CSVSink) WriteResults(entries []types.ResultEntry) error {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			strconv.Itoa(e.LocalPK), e.GlobalPK,
			e.Page.FilterDate, e.Page.FilterCategoryCode, e.Page.FilterCategoryName,
			e.Rank, e.Region, e.PlayerName, e.Affiliation, e.Grade, e.Record, e.Remarks,
		})
	}
	return s.writeFile(ResultFile, resultHeader, rows)
}

func (s *CSVSink) Close() error { return nil }

func (s *CSVSink) writeFile(name string, header []string, rows [][]string) error {
	path := filepath.Join(s.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", name, err)
	}
	s.logger.Info("csv written", "file", path, "rows", len(rows))
	return nil
}

// ReadSchedule loads a previous run's schedule output, for backfill passes
// that need the page index.
func ReadSchedule(dir string) ([]types.ScheduleRecord, error) {
	rows, err := readFile(filepath.Join(dir, ScheduleFile), len(scheduleHeader))
	if err != nil {
		return nil, err
	}
	records := make([]types.ScheduleRecord, 0, len(rows))
	for _, row := range rows {
		pk, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, fmt.Errorf("bad local key %q: %w", row[0], err)
		}
		records = append(records, types.ScheduleRecord{
			LocalPK:  pk,
			GlobalPK: row[1],
			Page: types.PageKey{
				FilterDate:         row[2],
				FilterCategoryCode: row[3],
				FilterCategoryName: row[4],
			},
			Sport:     row[5],
			Kind:      row[6],
			Subkind:   row[7],
			MatchType: row[8],
			Status:    row[9],
			DateTime:  row[10],
			Venue:     row[11],
			Region:    row[12],
		})
	}
	return records, nil
}

// ReadRosters loads a previous run's roster output.
func ReadRosters(dir string) ([]types.RosterEntry, error) {
	rows, err := readFile(filepath.Join(dir, RosterFile), len(rosterHeader))
	if err != nil {
		return nil, err
	}
	entries := make([]types.RosterEntry, 0, len(rows))
	for _, row := range rows {
		pk, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, fmt.Errorf("bad local key %q: %w", row[0], err)
		}
		entries = append(entries, types.RosterEntry{
			LocalPK:          pk,
			GlobalPK:         row[1],
			MatchTitle:       row[2],
			TeamLabel:        row[3],
			Attended:         types.Attendance(row[4]),
			PlayerName:       row[5],
			AffiliationGrade: row[6],
			Position:         row[7],
		})
	}
	return entries, nil
}

// ReadResults loads a previous run's record-event output.
func ReadResults(dir string) ([]types.ResultEntry, error) {
	rows, err := readFile(filepath.Join(dir, ResultFile), len(resultHeader))
	if err != nil {
		return nil, err
	}
	entries := make([]types.ResultEntry, 0, len(rows))
	for _, row := range rows {
		pk, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, fmt.Errorf("bad local key %q: %w", row[0], err)
		}
		entries = append(entries, types.ResultEntry{
			LocalPK:  pk,
			GlobalPK: row[1],
			Page: types.PageKey{
				FilterDate:         row[2],
				FilterCategoryCode: row[3],
				FilterCategoryName: row[4],
			},
			Rank:        row[5],
			Region:      row[6],
			PlayerName:  row[7],
			Affiliation: row[8],
			Grade:       row[9],
			Record:      row[10],
			Remarks:     row[11],
		})
	}
	return entries, nil
}

func readFile(path string, wantCols int) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = wantCols
	all, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all[1:], nil
}
