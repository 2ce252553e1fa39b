package detail

import (
	"errors"
	"testing"

	"github.com/JMJ-GIF/jw-streamlit/internal/types"
)

const bracketTableHTML = `
<html><body>
<div class="record">
  <div class="scoreTop">
    <span>양궁 &gt; 남자 일반부 &gt; 단체전</span>
    <span>예선 1경기</span>
  </div>
  <div class="participating-players">
    <ul>
      <li>
        <h6>홈 (서울)</h6>
        <div class="boardTable01">
          <table class="pcView">
            <thead><tr><th>출전</th><th>선수명</th><th>소속[학년]</th><th>포지션</th></tr></thead>
            <tbody>
              <tr><td><img src="/img/ico_check_on.png"></td><td>김철수</td><td>한국체대[3]</td><td>리드</td></tr>
              <tr><td><img src="/img/ico_box.png"></td><td>이영희</td><td>서울고[2]</td><td>앵커</td></tr>
            </tbody>
          </table>
        </div>
      </li>
      <li>
        <h6>원정 (부산)</h6>
        <div class="mobView">
          <ul class="box-list">
            <li><strong>선수명</strong><span>박민수</span></li>
            <li><strong>소속[학년]</strong><span>부산대[1]</span></li>
            <li><strong>포지션</strong><span>리드</span></li>
            <li><strong>선수명</strong><span>최지훈</span></li>
            <li><strong>소속[학년]</strong><span>동아고[3]</span></li>
            <li><strong>포지션</strong><span>앵커</span></li>
          </ul>
        </div>
      </li>
    </ul>
  </div>
</div>
</body></html>`

func TestParseBracketPanelTableAndList(t *testing.T) {
	entries, err := ParseBracketPanel(bracketTableHTML, 7, "양궁_남자 일반부_단체전_예선")
	if err != nil {
		t.Fatalf("ParseBracketPanel: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("want 4 entries, got %d: %+v", len(entries), entries)
	}

	for i, e := range entries {
		if e.LocalPK != 7 || e.GlobalPK != "양궁_남자 일반부_단체전_예선" {
			t.Errorf("entry %d: identifiers not carried: %+v", i, e)
		}
		if e.MatchTitle == "" {
			t.Errorf("entry %d: empty match title", i)
		}
	}

	home := entries[0]
	if home.TeamLabel != "서울" {
		t.Errorf("team label: want 서울, got %q", home.TeamLabel)
	}
	if home.PlayerName != "김철수" || home.AffiliationGrade != "한국체대[3]" || home.Position != "리드" {
		t.Errorf("unexpected first entry: %+v", home)
	}
	if home.Attended != types.AttendanceYes {
		t.Errorf("first entry attendance: want Y, got %q", home.Attended)
	}
	if entries[1].Attended != types.AttendanceNo {
		t.Errorf("second entry attendance: want N, got %q", entries[1].Attended)
	}
}

func TestParseBracketPanelListReconstruction(t *testing.T) {
	entries, err := ParseBracketPanel(bracketTableHTML, 7, "gpk")
	if err != nil {
		t.Fatalf("ParseBracketPanel: %v", err)
	}

	var away []types.RosterEntry
	for _, e := range entries {
		if e.TeamLabel == "부산" {
			away = append(away, e)
		}
	}
	if len(away) != 2 {
		t.Fatalf("want 2 away entries, got %d", len(away))
	}
	if away[0].PlayerName != "박민수" || away[0].AffiliationGrade != "부산대[1]" || away[0].Position != "리드" {
		t.Errorf("unexpected away[0]: %+v", away[0])
	}
	if away[1].PlayerName != "최지훈" || away[1].AffiliationGrade != "동아고[3]" || away[1].Position != "앵커" {
		t.Errorf("unexpected away[1]: %+v", away[1])
	}
}

func TestParseBracketPanelListFlushOnRepeatedName(t *testing.T) {
	// Second record has no position item, the repeated name label must
	// flush the first buffered record anyway.
	html := `
<div class="record"><div class="scoreTop"><span>육상 &gt; 혼성</span></div>
<div class="participating-players"><ul><li><h6>팀 (전남)</h6>
<div class="mobView"><ul class="box-list">
  <li><strong>선수명</strong><span>가나다</span></li>
  <li><strong>소속[학년]</strong><span>전남고[1]</span></li>
  <li><strong>선수명</strong><span>라마바</span></li>
  <li><strong>소속[학년]</strong><span>목포고[2]</span></li>
</ul></div>
</li></ul></div></div>`

	entries, err := ParseBracketPanel(html, 1, "gpk")
	if err != nil {
		t.Fatalf("ParseBracketPanel: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("want 2 entries, got %d: %+v", len(entries), entries)
	}
	if entries[0].PlayerName != "가나다" || entries[1].PlayerName != "라마바" {
		t.Errorf("unexpected entries: %+v", entries)
	}
}

func TestParseBracketPanelNoRosterBlock(t *testing.T) {
	_, err := ParseBracketPanel(`<div class="record"><div class="scoreTop"><span>t</span></div></div>`, 1, "g")
	if !errors.Is(err, types.ErrNoRosterBlock) {
		t.Fatalf("want ErrNoRosterBlock, got %v", err)
	}
}

const recordPanelHTML = `
<html><body>
<div class="record">
  <table>
    <caption>기록경기 결과</caption>
    <tbody><tr><td class="no-result" colspan="7">없음</td></tr></tbody>
  </table>
  <table>
    <caption>기록경기 결과</caption>
    <tbody>
      <tr>
        <td>1</td><td>전남</td><td>홍길동</td><td>순천고</td><td>３</td><td>10.52</td><td>대회신</td>
      </tr>
      <tr><td class="no-result" colspan="7">기록 없음</td></tr>
      <tr>
        <td>2</td><td>서울</td><td>임꺽정</td><td>서울체고</td><td>2</td><td>10.77</td><td></td>
      </tr>
    </tbody>
  </table>
</div>
</body></html>`

func TestParseRecordPanelSecondTableWins(t *testing.T) {
	rec := types.ScheduleRecord{
		LocalPK:  3,
		GlobalPK: "육상_남자 고등부_100m_결승",
		Page:     types.PageKey{FilterDate: "2024-10-11", FilterCategoryCode: "100", FilterCategoryName: "육상"},
	}

	entries, err := ParseRecordPanel(recordPanelHTML, rec)
	if err != nil {
		t.Fatalf("ParseRecordPanel: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("want 2 entries, got %d: %+v", len(entries), entries)
	}

	first := entries[0]
	if first.LocalPK != 3 || first.GlobalPK != rec.GlobalPK || first.Page != rec.Page {
		t.Errorf("identifiers not carried: %+v", first)
	}
	if first.Rank != "1" || first.Region != "전남" || first.PlayerName != "홍길동" {
		t.Errorf("unexpected first entry: %+v", first)
	}
	if first.Grade != "3" {
		t.Errorf("grade should be ascii-normalized, got %q", first.Grade)
	}
	if first.Record != "10.52" || first.Remarks != "대회신" {
		t.Errorf("unexpected record columns: %+v", first)
	}
	if entries[1].PlayerName != "임꺽정" {
		t.Errorf("no-result row should be skipped: %+v", entries[1])
	}
}

func TestParseRecordPanelSingleTable(t *testing.T) {
	html := `<div class="record"><table><caption>기록경기</caption><tbody>
	<tr><td>1</td><td>전남</td><td>아무개</td><td>여수고</td><td>1</td><td>4:10.2</td><td></td></tr>
	</tbody></table></div>`

	entries, err := ParseRecordPanel(html, types.ScheduleRecord{LocalPK: 1, GlobalPK: "g"})
	if err != nil {
		t.Fatalf("ParseRecordPanel: %v", err)
	}
	if len(entries) != 1 || entries[0].PlayerName != "아무개" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestStandingsWithOnlyNoResultRowsRetries(t *testing.T) {
	html := `<div class="record"><table><caption>기록경기</caption><tbody>
	<tr><td class="no-result" colspan="7">결과 없음</td></tr>
	</tbody></table></div>`

	entries, err := ParseRecordPanel(html, types.ScheduleRecord{LocalPK: 4, GlobalPK: "g"})
	if err != nil {
		t.Fatalf("ParseRecordPanel: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("no-result table should parse to zero entries, got %+v", entries)
	}

	out, got := standingsOutcome(entries, err)
	if out.ok() {
		t.Fatal("zero standings must not classify as success")
	}
	if out.kind != outcomeRetry {
		t.Errorf("zero standings should be retryable, got kind %d", out.kind)
	}
	if got != nil {
		t.Errorf("failed classification should carry no entries, got %+v", got)
	}
}

func TestParseRecordPanelNoTable(t *testing.T) {
	_, err := ParseRecordPanel(`<div class="record"><table><caption>다른 표</caption></table></div>`, types.ScheduleRecord{})
	if !errors.Is(err, types.ErrNoResults) {
		t.Fatalf("want ErrNoResults, got %v", err)
	}
}

func TestRunAttemptsStopsOnSuccess(t *testing.T) {
	calls := 0
	out := runAttempts(3, 0, func(attempt int) outcome {
		calls++
		if attempt == 2 {
			return succeed()
		}
		return retry("not yet")
	})
	if !out.ok() || calls != 2 {
		t.Fatalf("want success on attempt 2, got ok=%v calls=%d", out.ok(), calls)
	}
}

func TestRunAttemptsFatalShortCircuits(t *testing.T) {
	calls := 0
	out := runAttempts(5, 0, func(int) outcome {
		calls++
		return failed("broken")
	})
	if out.ok() || calls != 1 {
		t.Fatalf("fatal should stop immediately, ok=%v calls=%d", out.ok(), calls)
	}
}

func TestRunAttemptsExhaustion(t *testing.T) {
	calls := 0
	out := runAttempts(3, 0, func(int) outcome {
		calls++
		return retry("flaky")
	})
	if out.ok() || calls != 3 {
		t.Fatalf("want 3 attempts and failure, ok=%v calls=%d", out.ok(), calls)
	}
}
