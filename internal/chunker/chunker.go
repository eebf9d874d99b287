package chunker

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/xxxsen/common/logutil"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"go.uber.org/zap"

	"github.com/xxxsen/proofnote/internal/model"
)

const (
	DefaultThreshold    = 4000
	DefaultMaxChunkSize = 3000

	Separator = "\n\n"
)

type Options struct {
	// Threshold is the rune length at or below which the document is sent whole.
	Threshold    int
	MaxChunkSize int
}

func (o Options) normalize() Options {
	if o.Threshold <= 0 {
		o.Threshold = DefaultThreshold
	}
	if o.MaxChunkSize <= 0 {
		o.MaxChunkSize = DefaultMaxChunkSize
	}
	return o
}

type paragraph struct {
	start int
	end   int
}

// Split cuts content into paragraph-aligned chunks of at most MaxChunkSize
// runes. A paragraph longer than the limit becomes a chunk on its own. Short
// documents, and documents that would only produce one chunk, are returned
// verbatim as a single chunk.
func Split(ctx context.Context, content string, opts Options) []model.Chunk {
	opts = opts.normalize()
	if strings.TrimSpace(content) == "" {
		return nil
	}
	whole := []model.Chunk{{Index: 0, Text: content, Start: 0, End: len(content)}}
	size := utf8.RuneCountInString(content)
	if size <= opts.Threshold {
		return whole
	}

	sepLen := utf8.RuneCountInString(Separator)
	var chunks []model.Chunk
	var current []paragraph
	currentSize := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		parts := make([]string, 0, len(current))
		for _, p := range current {
			parts = append(parts, content[p.start:p.end])
		}
		chunks = append(chunks, model.Chunk{
			Index: len(chunks),
			Text:  strings.Join(parts, Separator),
			Start: current[0].start,
			End:   current[len(current)-1].end,
		})
		current = nil
		currentSize = 0
	}

	for _, p := range paragraphs(content) {
		n := utf8.RuneCountInString(content[p.start:p.end])
		if len(current) > 0 && currentSize+sepLen+n > opts.MaxChunkSize {
			flush()
		}
		if len(current) > 0 {
			currentSize += sepLen
		}
		current = append(current, p)
		currentSize += n
	}
	flush()

	if len(chunks) <= 1 {
		return whole
	}
	logutil.GetLogger(ctx).Debug("document chunked",
		zap.Int("size", size),
		zap.Int("max_chunk_size", opts.MaxChunkSize),
		zap.Int("chunks", len(chunks)),
	)
	return chunks
}
