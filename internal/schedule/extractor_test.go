package schedule

import (
	"log/slog"
	"os"
	"testing"

	"github.com/JMJ-GIF/jw-streamlit/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const labeledHTML = `<!DOCTYPE html>
<html><body>
<h5 id="classNm">양궁</h5>
<table class="tablesaw tablesaw-stack">
  <caption>시·도 토너먼트 경기일정</caption>
  <tbody>
    <tr>
      <td><b class="tablesaw-cell-label">종별</b><span class="tablesaw-cell-content">남자 일반부</span></td>
      <td><b class="tablesaw-cell-label">세부종목</b><span class="tablesaw-cell-content">단체전 단체전</span></td>
      <td><b class="tablesaw-cell-label">경기구분</b><span class="tablesaw-cell-content">예선</span></td>
      <td><b class="tablesaw-cell-label">상태</b><span class="tablesaw-cell-content">종료</span></td>
      <td><b class="tablesaw-cell-label">일시</b><span class="tablesaw-cell-content">10.13 10:00</span></td>
      <td><b class="tablesaw-cell-label">경기장</b><span class="tablesaw-cell-content">목포양궁장</span></td>
      <td><b class="tablesaw-cell-label">시도</b><span class="tablesaw-cell-content">전남 : 경북</span></td>
    </tr>
    <tr>
      <td><b class="tablesaw-cell-label">종별</b><span class="tablesaw-cell-content"></span></td>
      <td><b class="tablesaw-cell-label">세부종목</b><span class="tablesaw-cell-content">개인전</span></td>
      <td><b class="tablesaw-cell-label">경기구분</b><span class="tablesaw-cell-content">결승</span></td>
      <td><b class="tablesaw-cell-label">상태</b><span class="tablesaw-cell-content">예정</span></td>
      <td><b class="tablesaw-cell-label">일시</b><span class="tablesaw-cell-content">10.14 14:00</span></td>
      <td><b class="tablesaw-cell-label">경기장</b><span class="tablesaw-cell-content">목포양궁장</span></td>
      <td><b class="tablesaw-cell-label">시도</b><span class="tablesaw-cell-content">전남 : 서울</span></td>
    </tr>
  </tbody>
</table>
<h5 class="subTit">펜싱</h5>
<table class="tablesaw tablesaw-stack">
  <caption>시·도 토너먼트 경기일정</caption>
  <tbody>
    <tr>
      <td><b class="tablesaw-cell-label">종별</b><span class="tablesaw-cell-content">여자 고등부</span></td>
      <td><b class="tablesaw-cell-label">세부종목</b><span class="tablesaw-cell-content">플뢰레</span></td>
      <td><b class="tablesaw-cell-label">경기구분</b><span class="tablesaw-cell-content">8강</span></td>
      <td><b class="tablesaw-cell-label">상태</b><span class="tablesaw-cell-content">종료</span></td>
      <td><b class="tablesaw-cell-label">일시</b><span class="tablesaw-cell-content">10.13 11:00</span></td>
      <td><b class="tablesaw-cell-label">경기장</b><span class="tablesaw-cell-content">여수체육관</span></td>
      <td><b class="tablesaw-cell-label">시도</b><span class="tablesaw-cell-content">전남 : 대구</span></td>
    </tr>
  </tbody>
</table>
<table class="tablesaw tablesaw-stack">
  <caption>다른 안내 표</caption>
  <tbody><tr><td>무시</td></tr></tbody>
</table>
</body></html>`

const positionalHTML = `<!DOCTYPE html>
<html><body>
<h5 id="classNm">수영</h5>
<table class="tablesaw tablesaw-stack">
  <caption>시·도 토너먼트 경기일정</caption>
  <tbody>
    <tr>
      <td>남자 중등부</td><td>자유형 100m</td><td>결승</td>
      <td>종료</td><td>10.15 09:00</td><td>김대중컨벤션센터</td><td>전남</td>
    </tr>
    <tr>
      <td></td><td>자유형 200m</td><td>예선 1조</td>
      <td>종료</td><td>10.15 09:30</td><td>김대중컨벤션센터</td><td>전남</td>
    </tr>
    <tr><td>짧은행</td></tr>
  </tbody>
</table>
</body></html>`

func testPage() types.PageKey {
	return types.PageKey{FilterDate: "10.13", FilterCategoryCode: "14", FilterCategoryName: "양궁"}
}

func TestParseLabeledRows(t *testing.T) {
	e := NewExtractor(testLogger)
	recs, err := e.Parse(labeledHTML, testPage())
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}

	first := recs[0]
	if first.Sport != "양궁" || first.Kind != "남자 일반부" {
		t.Errorf("unexpected first row: %+v", first)
	}
	if first.Subkind != "단체전" {
		t.Errorf("expected duplicated subkind collapsed, got %q", first.Subkind)
	}
	if first.GlobalPK != "양궁_남자 일반부_단체전_예선" {
		t.Errorf("unexpected global PK %q", first.GlobalPK)
	}
	if first.Page != testPage() {
		t.Errorf("crawl context not tagged: %+v", first.Page)
	}

	// Third row comes from the second table and its own heading.
	if recs[2].Sport != "펜싱" {
		t.Errorf("expected section label from nearest preceding h5, got %q", recs[2].Sport)
	}
}

func TestKindCarryForward(t *testing.T) {
	e := NewExtractor(testLogger)
	recs, err := e.Parse(labeledHTML, testPage())
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if recs[1].Kind != "남자 일반부" {
		t.Errorf("empty kind cell should inherit previous row's kind, got %q", recs[1].Kind)
	}
	// Carry-forward resets per table.
	if recs[2].Kind != "여자 고등부" {
		t.Errorf("second table should not inherit first table's kind, got %q", recs[2].Kind)
	}
}

func TestPositionalFallback(t *testing.T) {
	e := NewExtractor(testLogger)
	recs, err := e.Parse(positionalHTML, testPage())
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records (short row skipped), got %d", len(recs))
	}
	if recs[0].Sport != "수영" || recs[0].Subkind != "자유형 100m" || recs[0].Venue != "김대중컨벤션센터" {
		t.Errorf("unexpected positional row: %+v", recs[0])
	}
	if recs[1].Kind != "남자 중등부" {
		t.Errorf("positional carry-forward failed, got %q", recs[1].Kind)
	}
}

func TestLocalPKThreadsAcrossPages(t *testing.T) {
	e := NewExtractor(testLogger)

	recs1, err := e.Parse(labeledHTML, testPage())
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	recs2, err := e.Parse(positionalHTML, types.PageKey{FilterDate: "10.15", FilterCategoryCode: "21", FilterCategoryName: "수영"})
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	all := append(recs1, recs2...)
	for i, r := range all {
		if r.LocalPK != i+1 {
			t.Fatalf("localPK sequence broken at index %d: got %d", i, r.LocalPK)
		}
	}
	if e.NextSeq() != len(all)+1 {
		t.Errorf("NextSeq = %d, want %d", e.NextSeq(), len(all)+1)
	}
}
