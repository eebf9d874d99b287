package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/xxxsen/proofnote/internal/correction"
	"github.com/xxxsen/proofnote/internal/model"
)

var (
	removedColor = color.New(color.FgRed)
	addedColor   = color.New(color.FgGreen)
	changedColor = color.New(color.FgYellow)
	noticeColor  = color.New(color.FgCyan)
)

func printReview(w io.Writer, review *correction.Review) {
	if summary := strings.TrimSpace(review.Result.Summary); summary != "" {
		noticeColor.Fprintln(w, summary)
		fmt.Fprintln(w)
	}
	if len(review.Diff) > 0 {
		printDiff(w, review.Diff)
	} else {
		printSuggestions(w, review.Result.Corrections)
	}
	if review.Partial {
		changedColor.Fprintln(w, "review was truncated, only recovered suggestions are shown")
	}
	if len(review.FailedChunks) > 0 {
		sections := make([]string, 0, len(review.FailedChunks))
		for _, idx := range review.FailedChunks {
			sections = append(sections, fmt.Sprintf("%d", idx+1))
		}
		changedColor.Fprintf(w, "sections skipped: %s\n", strings.Join(sections, ", "))
	}
}

func printSuggestions(w io.Writer, corrections []model.Correction) {
	if len(corrections) == 0 {
		fmt.Fprintln(w, "no suggestions")
		return
	}
	for i, item := range corrections {
		fmt.Fprintf(w, "%d. ", i+1)
		if item.Location != "" {
			noticeColor.Fprintf(w, "[%s] ", item.Location)
		}
		removedColor.Fprint(w, item.Issue)
		fmt.Fprint(w, " -> ")
		addedColor.Fprintln(w, item.Correction)
	}
}

func printDiff(w io.Writer, lines []model.DiffLine) {
	for _, line := range lines {
		switch line.Kind {
		case model.DiffSame:
			fmt.Fprintf(w, "  %s\n", deref(line.OriginalText))
		case model.DiffRemoved:
			removedColor.Fprintf(w, "- %s\n", deref(line.OriginalText))
		case model.DiffAdded:
			addedColor.Fprintf(w, "+ %s\n", deref(line.CorrectedText))
		case model.DiffChanged:
			fmt.Fprint(w, "~ ")
			printSpans(w, line.WordSpans)
			fmt.Fprintln(w)
		}
	}
}

func printSpans(w io.Writer, spans []model.WordSpan) {
	for _, span := range spans {
		switch span.Kind {
		case model.DiffRemoved:
			removedColor.Fprintf(w, "[-%s-]", span.Text)
		case model.DiffAdded:
			addedColor.Fprintf(w, "{+%s+}", span.Text)
		case model.DiffChanged:
			removedColor.Fprintf(w, "[-%s-]", span.OriginalText)
			addedColor.Fprintf(w, "{+%s+}", span.Text)
		default:
			fmt.Fprint(w, span.Text)
		}
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
