package validate

import (
	"testing"

	"github.com/JMJ-GIF/jw-streamlit/internal/types"
)

const searchResultHTML = `
<html><body>
<table><caption>다른 표</caption><tbody><tr><td>x</td></tr></tbody></table>
<table>
  <caption>선수명 검색 결과</caption>
  <tbody>
    <tr><td>배드민턴</td><td>남자 고등부</td><td>김선수</td><td>순천고</td></tr>
    <tr><td>탁구</td><td>여자 일반부</td><td>김선수</td><td>전남도청</td></tr>
    <tr><td class="no-result" colspan="4">결과 없음</td></tr>
  </tbody>
</table>
</body></html>`

func TestParseSearchResults(t *testing.T) {
	hits, ok := ParseSearchResults(searchResultHTML)
	if !ok {
		t.Fatal("results table should be detected")
	}
	if len(hits) != 2 {
		t.Fatalf("want 2 hits, got %d: %+v", len(hits), hits)
	}
	if hits[0].Sport != "배드민턴" || hits[0].Kind != "남자 고등부" || hits[0].Name != "김선수" {
		t.Errorf("unexpected first hit: %+v", hits[0])
	}
}

func TestParseSearchResultsNotRendered(t *testing.T) {
	if _, ok := ParseSearchResults(`<table><caption>로딩중</caption></table>`); ok {
		t.Fatal("page without the results caption should not parse")
	}
}

func TestMatches(t *testing.T) {
	hits := []PlayerHit{
		{Sport: "배드민턴", Kind: "남자 고등부", Name: "김선수"},
		{Sport: "탁구", Kind: "여자 일반부", Name: "김선수"},
	}

	entry := types.RosterEntry{
		PlayerName: "김선수",
		MatchTitle: "배드민턴 > 남자 고등부 > 복식",
	}
	if !Matches(entry, hits) {
		t.Error("matching sport and kind should verify")
	}

	entry.MatchTitle = "축구 > 남자 고등부 > 단체전"
	if Matches(entry, hits) {
		t.Error("sport absent from the title should not verify")
	}

	entry.PlayerName = "박아무"
	entry.MatchTitle = "배드민턴 > 남자 고등부 > 복식"
	if Matches(entry, hits) {
		t.Error("unknown name should not verify")
	}
}

func TestSummarize(t *testing.T) {
	vs := []Verification{
		{Entry: types.RosterEntry{PlayerName: "김선수", AffiliationGrade: "순천고[2]"}, Verified: false},
		{Entry: types.RosterEntry{PlayerName: "김선수", AffiliationGrade: "순천고[2]"}, Verified: true},
		{Entry: types.RosterEntry{PlayerName: "이선수", AffiliationGrade: "여수고[1]"}, Verified: false},
	}

	flags := Summarize(vs)
	if len(flags) != 2 {
		t.Fatalf("want 2 players, got %d: %v", len(flags), flags)
	}
	if !flags["김선수 (순천고)"] {
		t.Error("any verified appearance should flag the player")
	}
	if flags["이선수 (여수고)"] {
		t.Error("never-verified player should stay false")
	}
}
