package chunker

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/proofnote/internal/model"
)

func para(n int) string {
	return strings.Repeat("x", n)
}

func joinedParagraphs(content string) string {
	ps := paragraphs(content)
	parts := make([]string, 0, len(ps))
	for _, p := range ps {
		parts = append(parts, content[p.start:p.end])
	}
	return strings.Join(parts, Separator)
}

func joinChunks(chunks []model.Chunk) string {
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		parts = append(parts, c.Text)
	}
	return strings.Join(parts, Separator)
}

func TestSplitEmpty(t *testing.T) {
	require.Empty(t, Split(context.Background(), "", Options{}))
	require.Empty(t, Split(context.Background(), " \n\n\t", Options{}))
}

func TestSplitBelowThresholdReturnsWholeDocument(t *testing.T) {
	content := "  first paragraph\n\nsecond paragraph\n"
	chunks := Split(context.Background(), content, Options{})
	require.Len(t, chunks, 1)
	require.Equal(t, content, chunks[0].Text)
	require.Equal(t, 0, chunks[0].Start)
	require.Equal(t, len(content), chunks[0].End)
}

func TestSplitFourLargeParagraphs(t *testing.T) {
	content := strings.Join([]string{para(2498), para(2498), para(2498), para(2498)}, "\n\n")
	chunks := Split(context.Background(), content, Options{})
	require.Len(t, chunks, 4)
	for i, c := range chunks {
		require.Equal(t, i, c.Index)
		require.LessOrEqual(t, utf8.RuneCountInString(c.Text), DefaultMaxChunkSize)
		require.Equal(t, c.Text, content[c.Start:c.End])
	}
	require.Equal(t, joinedParagraphs(content), joinChunks(chunks))
}

func TestSplitPacksGreedily(t *testing.T) {
	parts := make([]string, 0, 10)
	for i := 0; i < 10; i++ {
		parts = append(parts, para(500))
	}
	content := strings.Join(parts, "\n\n\n")
	chunks := Split(context.Background(), content, Options{})
	require.Len(t, chunks, 2)
	for _, c := range chunks {
		require.Equal(t, 5, strings.Count(c.Text, Separator)+1)
		require.LessOrEqual(t, utf8.RuneCountInString(c.Text), DefaultMaxChunkSize)
	}
	require.Equal(t, joinedParagraphs(content), joinChunks(chunks))
}

func TestSplitOversizedParagraphIsKeptWhole(t *testing.T) {
	content := para(100) + "\n\n" + para(5000) + "\n\n" + para(100)
	chunks := Split(context.Background(), content, Options{})
	require.Len(t, chunks, 3)
	require.Equal(t, para(5000), chunks[1].Text)
	for _, c := range chunks {
		if c.Index == 1 {
			continue
		}
		require.LessOrEqual(t, utf8.RuneCountInString(c.Text), DefaultMaxChunkSize)
	}
	require.Equal(t, joinedParagraphs(content), joinChunks(chunks))
}

func TestSplitSingleHugeParagraphFallsBackToWhole(t *testing.T) {
	content := "\n" + para(6000) + "\n"
	chunks := Split(context.Background(), content, Options{})
	require.Len(t, chunks, 1)
	require.Equal(t, content, chunks[0].Text)
}

func TestSplitRespectsMaxChunkSizeProperty(t *testing.T) {
	sizes := []int{10, 300, 40, 1200, 7, 900, 60, 2000, 3, 450, 800}
	parts := make([]string, 0, len(sizes))
	for _, n := range sizes {
		parts = append(parts, para(n))
	}
	content := strings.Join(parts, "\n\n")
	for _, max := range []int{50, 500, 1000, 2500} {
		chunks := Split(context.Background(), content, Options{Threshold: 10, MaxChunkSize: max})
		require.Equal(t, joinedParagraphs(content), joinChunks(chunks), "max=%d", max)
		for _, c := range chunks {
			n := utf8.RuneCountInString(c.Text)
			if n > max {
				require.NotContains(t, c.Text, Separator, "only a single paragraph may exceed the limit")
			}
		}
	}
}

func TestParagraphsKeepFencedCodeTogether(t *testing.T) {
	content := "intro\n\n```go\ncode a\n\ncode b\n```\n\noutro"
	ps := paragraphs(content)
	require.Len(t, ps, 3)
	require.Equal(t, "```go\ncode a\n\ncode b\n```", content[ps[1].start:ps[1].end])
}

func TestParagraphsCollapseBlankRuns(t *testing.T) {
	content := "a\r\n\r\n \r\nb\n\n\n\nc"
	ps := paragraphs(content)
	require.Len(t, ps, 3)
	require.Equal(t, "a", content[ps[0].start:ps[0].end])
	require.Equal(t, "b", content[ps[1].start:ps[1].end])
	require.Equal(t, "c", content[ps[2].start:ps[2].end])
}
