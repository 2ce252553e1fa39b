// Package backfill re-harvests schedule rows whose detail extraction failed
// during a main crawl. Failed rows are identified by the gap between the
// local keys present in the detail output and the contiguous range the
// schedule output spans, mapped back to their page and on-page position, and
// re-extracted page by page.
package backfill

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/JMJ-GIF/jw-streamlit/internal/types"
)

// RowRef locates one schedule row for re-extraction: which filter page it
// lives on and its zero-based position within that page's table.
type RowRef struct {
	Record   types.ScheduleRecord
	RowIndex int
}

// Missing returns the local keys in 1..max absent from have, ascending.
func Missing(have []int, max int) []int {
	present := make(map[int]bool, len(have))
	for _, pk := range have {
		present[pk] = true
	}
	var missing []int
	for pk := 1; pk <= max; pk++ {
		if !present[pk] {
			missing = append(missing, pk)
		}
	}
	return missing
}

// BuildPageIndex maps every schedule record's local key to its page and its
// position within that page. Position is recovered by ordering: rows were
// assigned local keys in scan order, so within one page ascending local key
// is ascending table row.
func BuildPageIndex(records []types.ScheduleRecord) map[int]RowRef {
	sorted := make([]types.ScheduleRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Page != b.Page {
			if a.Page.FilterDate != b.Page.FilterDate {
				return a.Page.FilterDate < b.Page.FilterDate
			}
			if a.Page.FilterCategoryCode != b.Page.FilterCategoryCode {
				return a.Page.FilterCategoryCode < b.Page.FilterCategoryCode
			}
			return a.Page.FilterCategoryName < b.Page.FilterCategoryName
		}
		return a.LocalPK < b.LocalPK
	})

	index := make(map[int]RowRef, len(sorted))
	var cur types.PageKey
	row := 0
	for i, rec := range sorted {
		if i == 0 || rec.Page != cur {
			cur = rec.Page
			row = 0
		}
		index[rec.LocalPK] = RowRef{Record: rec, RowIndex: row}
		row++
	}
	return index
}

// GroupByPage resolves the missing keys through the index and buckets them
// per page, each bucket sorted by row position. Keys absent from the index
// are returned separately.
func GroupByPage(missing []int, index map[int]RowRef) (map[types.PageKey][]RowRef, []int) {
	groups := make(map[types.PageKey][]RowRef)
	var unmapped []int
	for _, pk := range missing {
		ref, ok := index[pk]
		if !ok {
			unmapped = append(unmapped, pk)
			continue
		}
		groups[ref.Record.Page] = append(groups[ref.Record.Page], ref)
	}
	for page := range groups {
		refs := groups[page]
		sort.Slice(refs, func(i, j int) bool { return refs[i].RowIndex < refs[j].RowIndex })
		groups[page] = refs
	}
	return groups, unmapped
}

// PageLoader reproduces one filter page's result table in the live browser.
type PageLoader interface {
	EnsurePageLoaded(page types.PageKey) error
}

// RowExtractor re-runs detail extraction for one row on the loaded page.
type RowExtractor func(rowIndex int, rec types.ScheduleRecord) bool

// Runner drives a backfill pass over a live session.
type Runner struct {
	loader PageLoader
	logger *slog.Logger
}

func NewRunner(loader PageLoader, logger *slog.Logger) *Runner {
	return &Runner{loader: loader, logger: logger.With("component", "backfill")}
}

// Run opens each page holding missing rows once and re-extracts its rows in
// ascending position. Pages that fail to load are skipped with their rows
// counted as still missing; extraction results land through extract, which
// reports per-row success.
func (r *Runner) Run(groups map[types.PageKey][]RowRef, extract RowExtractor) (recovered, remaining int) {
	pages := make([]types.PageKey, 0, len(groups))
	for page := range groups {
		pages = append(pages, page)
	}
	sort.Slice(pages, func(i, j int) bool {
		a, b := pages[i], pages[j]
		if a.FilterDate != b.FilterDate {
			return a.FilterDate < b.FilterDate
		}
		return a.FilterCategoryCode < b.FilterCategoryCode
	})

	for _, page := range pages {
		refs := groups[page]
		r.logger.Info("backfilling page",
			"date", page.FilterDate,
			"category", page.FilterCategoryName,
			"rows", len(refs),
		)
		if err := r.loader.EnsurePageLoaded(page); err != nil {
			r.logger.Warn("page load failed, skipping its rows",
				"date", page.FilterDate,
				"category", page.FilterCategoryName,
				"error", err,
			)
			remaining += len(refs)
			continue
		}
		for _, ref := range refs {
			if extract(ref.RowIndex, ref.Record) {
				recovered++
			} else {
				remaining++
				r.logger.Warn("row still failing after backfill",
					"local_pk", ref.Record.LocalPK,
					"row_index", ref.RowIndex,
				)
			}
		}
	}
	return recovered, remaining
}

// MergeRosters combines a main-crawl roster set with backfilled entries and
// restores scan order. Running a merge over already-merged input is a no-op
// beyond re-sorting.
func MergeRosters(base, patch []types.RosterEntry) []types.RosterEntry {
	merged := make([]types.RosterEntry, 0, len(base)+len(patch))
	merged = append(merged, base...)
	merged = append(merged, patch...)
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].LocalPK < merged[j].LocalPK })
	return merged
}

// MergeResults is MergeRosters for record-event results.
func MergeResults(base, patch []types.ResultEntry) []types.ResultEntry {
	merged := make([]types.ResultEntry, 0, len(base)+len(patch))
	merged = append(merged, base...)
	merged = append(merged, patch...)
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].LocalPK < merged[j].LocalPK })
	return merged
}

// MaxLocalPK returns the highest local key in a schedule set, the upper
// bound for Missing.
func MaxLocalPK(records []types.ScheduleRecord) int {
	max := 0
	for _, rec := range records {
		if rec.LocalPK > max {
			max = rec.LocalPK
		}
	}
	return max
}

// Describe renders a short human summary of a backfill plan for logs.
func Describe(groups map[types.PageKey][]RowRef, unmapped []int) string {
	rows := 0
	for _, refs := range groups {
		rows += len(refs)
	}
	return fmt.Sprintf("%d rows across %d pages, %d unmapped", rows, len(groups), len(unmapped))
}
