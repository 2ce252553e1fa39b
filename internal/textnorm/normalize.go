// Package textnorm canonicalizes text extracted from the results site.
// Every parser funnels cell text through Normalize before it is compared,
// keyed, or persisted, so these functions must stay pure and deterministic.
package textnorm

import (
	"regexp"
	"strings"
)

var spaceRun = regexp.MustCompile(`\s+`)

// fullWidthDigits maps ０-９ to their ASCII counterparts.
var fullWidthDigits = strings.NewReplacer(
	"０", "0", "１", "1", "２", "2", "３", "3", "４", "4",
	"５", "5", "６", "6", "７", "7", "８", "8", "９", "9",
)

// Normalize canonicalizes a string scraped from the site: non-breaking and
// full-width spaces become ASCII spaces, full-width digits become ASCII
// digits, internal whitespace runs collapse to a single space, and the result
// is trimmed. Normalize is idempotent.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.ReplaceAll(s, "　", " ")
	s = fullWidthDigits.Replace(s)
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}

// categoryTerms are the sub-event labels the site is known to duplicate when
// its markup is malformed, e.g. "단체전단체전" with no separating space.
var categoryTerms = []string{"단체전", "개인전", "단식", "복식", "혼합복식"}

var concatDupes = func() []*regexp.Regexp {
	res := make([]*regexp.Regexp, 0, len(categoryTerms))
	for _, term := range categoryTerms {
		q := regexp.QuoteMeta(term)
		res = append(res, regexp.MustCompile(`(?:`+q+`)\s*(?:`+q+`)+`))
	}
	return res
}()

// NormalizeSubkind normalizes a sub-event label and additionally collapses
// consecutive duplicate tokens, both space-separated ("단체전 단체전") and
// directly concatenated repeats of known category terms ("단체전단체전").
func NormalizeSubkind(s string) string {
	s = Normalize(s)
	if s == "" {
		return s
	}

	tokens := strings.Fields(s)
	out := tokens[:0]
	for _, t := range tokens {
		if len(out) == 0 || out[len(out)-1] != t {
			out = append(out, t)
		}
	}
	s = strings.Join(out, " ")

	for i, re := range concatDupes {
		s = re.ReplaceAllString(s, categoryTerms[i])
	}
	return s
}
