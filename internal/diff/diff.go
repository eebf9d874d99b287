package diff

import (
	"strings"
	"unicode"

	"github.com/xxxsen/proofnote/internal/model"
)

const DefaultThreshold = 0.7

// Engine is a cheap two-cursor line differ. It never backtracks, so an
// inserted or deleted line shows up as a run of changed lines rather than a
// single insertion.
type Engine struct {
	// Threshold is the positional similarity above which two differing
	// lines (or tokens) are reported as one changed entry.
	Threshold float64
}

func Diff(original, corrected string) []model.DiffLine {
	return Engine{Threshold: DefaultThreshold}.Diff(original, corrected)
}

func (e Engine) threshold() float64 {
	if e.Threshold <= 0 || e.Threshold > 1 {
		return DefaultThreshold
	}
	return e.Threshold
}

func (e Engine) Diff(original, corrected string) []model.DiffLine {
	a, b := splitLines(original), splitLines(corrected)
	out := make([]model.DiffLine, 0, maxInt(len(a), len(b)))
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		switch {
		case i >= len(a):
			out = append(out, added(b[j]))
			j++
		case j >= len(b):
			out = append(out, removed(a[i]))
			i++
		case a[i] == b[j]:
			out = append(out, model.DiffLine{Kind: model.DiffSame, OriginalText: strPtr(a[i]), CorrectedText: strPtr(b[j])})
			i++
			j++
		case Similarity(a[i], b[j]) > e.threshold():
			out = append(out, model.DiffLine{
				Kind:          model.DiffChanged,
				OriginalText:  strPtr(a[i]),
				CorrectedText: strPtr(b[j]),
				WordSpans:     e.Words(a[i], b[j]),
			})
			i++
			j++
		default:
			out = append(out, removed(a[i]), added(b[j]))
			i++
			j++
		}
	}
	return out
}

// Words diffs two lines token by token with the same two-cursor rule.
func (e Engine) Words(original, corrected string) []model.WordSpan {
	a, b := Tokenize(original), Tokenize(corrected)
	var spans []model.WordSpan
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		switch {
		case i >= len(a):
			spans = appendSpan(spans, model.WordSpan{Kind: model.DiffAdded, Text: b[j]})
			j++
		case j >= len(b):
			spans = appendSpan(spans, model.WordSpan{Kind: model.DiffRemoved, Text: a[i]})
			i++
		case a[i] == b[j]:
			spans = appendSpan(spans, model.WordSpan{Kind: model.DiffSame, Text: a[i]})
			i++
			j++
		case Similarity(a[i], b[j]) > e.threshold():
			spans = append(spans, model.WordSpan{Kind: model.DiffChanged, Text: b[j], OriginalText: a[i]})
			i++
			j++
		default:
			spans = appendSpan(spans, model.WordSpan{Kind: model.DiffRemoved, Text: a[i]})
			spans = appendSpan(spans, model.WordSpan{Kind: model.DiffAdded, Text: b[j]})
			i++
			j++
		}
	}
	return spans
}

// appendSpan merges runs of same, added or removed tokens into one span.
func appendSpan(spans []model.WordSpan, s model.WordSpan) []model.WordSpan {
	if n := len(spans); n > 0 && s.Kind != model.DiffChanged && spans[n-1].Kind == s.Kind {
		spans[n-1].Text += s.Text
		return spans
	}
	return append(spans, s)
}

// Similarity is the share of rune positions at which a and b agree, relative
// to the longer of the two.
func Similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	longest := maxInt(len(ra), len(rb))
	if longest == 0 {
		return 1
	}
	same := 0
	for i := 0; i < len(ra) && i < len(rb); i++ {
		if ra[i] == rb[i] {
			same++
		}
	}
	return float64(same) / float64(longest)
}

// Tokenize splits a line into letter/digit runs, whitespace runs and single
// punctuation runes. Concatenating the tokens yields the input.
func Tokenize(s string) []string {
	var tokens []string
	var cur strings.Builder
	curClass := classNone
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		c := classOf(r)
		if c != curClass || c == classPunct {
			flush()
		}
		cur.WriteRune(r)
		curClass = c
	}
	flush()
	return tokens
}

type runeClass int

const (
	classNone runeClass = iota
	classWord
	classSpace
	classPunct
)

func classOf(r rune) runeClass {
	switch {
	case unicode.IsLetter(r) || unicode.IsDigit(r):
		return classWord
	case unicode.IsSpace(r):
		return classSpace
	default:
		return classPunct
	}
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func added(line string) model.DiffLine {
	return model.DiffLine{Kind: model.DiffAdded, CorrectedText: strPtr(line)}
}

func removed(line string) model.DiffLine {
	return model.DiffLine{Kind: model.DiffRemoved, OriginalText: strPtr(line)}
}

func strPtr(s string) *string { return &s }

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
