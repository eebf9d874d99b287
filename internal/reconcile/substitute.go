package reconcile

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/xxxsen/proofnote/internal/model"
)

const quoteClass = "[\"'“”‘’`]"

var (
	quotedChangeRe = regexp.MustCompile(`(?i)\b(?:change|changed|replace|replaced)\s+` + quoteClass + `(.+?)` + quoteClass +
		`\s+(?:to|into|with)\s+` + quoteClass + `(.*?)` + quoteClass + `(?:[\s.,;:!?)]|$)`)
	bareChangeRe   = regexp.MustCompile(`(?i)\b(?:change|changed|replace|replaced)\s+(\S+)\s+(?:to|into|with)\s+(\S+)`)
	quotedTargetRe = regexp.MustCompile(`(?i)\b(?:to|with)\s+` + quoteClass + `(.*?)` + quoteClass + `(?:[\s.,;:!?)]|$)`)
	bareTargetRe   = regexp.MustCompile(`(?i)\b(?:to|with)\s+`)
)

const trailingPunct = ".,;:!?\"'`“”‘’"

type edit struct {
	start       int
	end         int
	replacement string
}

// ApplySubstitutions applies every correction it can turn into a literal
// edit of region. Corrections that cannot be located stay suggestion-only.
// It returns the edited text and the number of applied edits.
func ApplySubstitutions(region string, corrections []model.Correction) (string, int) {
	var edits []edit
	for _, c := range corrections {
		e, ok := locate(region, c, edits)
		if !ok {
			continue
		}
		edits = append(edits, e)
	}
	if len(edits) == 0 {
		return region, 0
	}
	sort.Slice(edits, func(i, j int) bool { return edits[i].start > edits[j].start })
	out := region
	for _, e := range edits {
		out = out[:e.start] + e.replacement + out[e.end:]
	}
	return out, len(edits)
}

func locate(region string, c model.Correction, taken []edit) (edit, bool) {
	if from, to, ok := parseChange(c.Correction); ok {
		if e, ok := find(region, from, to, taken, true); ok {
			return e, true
		}
	}
	issue := c.Issue
	if strings.TrimSpace(issue) == "" {
		return edit{}, false
	}
	to, ok := parseTarget(c.Correction)
	if !ok {
		return edit{}, false
	}
	return find(region, issue, to, taken, false)
}

func parseChange(text string) (string, string, bool) {
	if m := quotedChangeRe.FindStringSubmatch(text); m != nil {
		return m[1], m[2], true
	}
	if m := bareChangeRe.FindStringSubmatch(text); m != nil {
		return strings.Trim(m[1], trailingPunct), strings.Trim(m[2], trailingPunct), true
	}
	return "", "", false
}

func parseTarget(text string) (string, bool) {
	if m := quotedTargetRe.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	locs := bareTargetRe.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return "", false
	}
	target := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(text[locs[len(locs)-1][1]:]), trailingPunct))
	if target == "" {
		return "", false
	}
	return target, true
}

// find returns the first occurrence of needle in region that does not
// overlap an already claimed edit.
func find(region, needle, replacement string, taken []edit, foldCase bool) (edit, bool) {
	if needle == "" || needle == replacement {
		return edit{}, false
	}
	if e, ok := scan(region, needle, replacement, taken); ok {
		return e, true
	}
	if !foldCase {
		return edit{}, false
	}
	lowerRegion, lowerNeedle := strings.ToLower(region), strings.ToLower(needle)
	if len(lowerRegion) != len(region) || len(lowerNeedle) != len(needle) {
		return edit{}, false
	}
	e, ok := scan(lowerRegion, lowerNeedle, replacement, taken)
	if ok && region[e.start:e.end] == replacement {
		return edit{}, false
	}
	return e, ok
}

func scan(haystack, needle, replacement string, taken []edit) (edit, bool) {
	offset := 0
	for offset <= len(haystack) {
		idx := strings.Index(haystack[offset:], needle)
		if idx < 0 {
			return edit{}, false
		}
		start := offset + idx
		e := edit{start: start, end: start + len(needle), replacement: replacement}
		if wordBounded(haystack, e.start, e.end) && !overlaps(e, taken) {
			return e, true
		}
		offset = start + 1
	}
	return edit{}, false
}

// wordBounded rejects a match that starts or ends inside a word, so "an"
// never lands in "and".
func wordBounded(s string, start, end int) bool {
	if first, _ := utf8.DecodeRuneInString(s[start:]); isWordRune(first) && start > 0 {
		if prev, _ := utf8.DecodeLastRuneInString(s[:start]); isWordRune(prev) {
			return false
		}
	}
	if last, _ := utf8.DecodeLastRuneInString(s[:end]); isWordRune(last) && end < len(s) {
		if next, _ := utf8.DecodeRuneInString(s[end:]); isWordRune(next) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func overlaps(e edit, taken []edit) bool {
	for _, t := range taken {
		if e.start < t.end && t.start < e.end {
			return true
		}
	}
	return false
}
