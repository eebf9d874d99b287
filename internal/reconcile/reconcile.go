package reconcile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xxxsen/proofnote/internal/model"
)

// Single reconciles the result of a non-chunked run. A returned correctedText
// is taken verbatim, otherwise the document is left as it was.
func Single(original string, result model.ChunkResult) model.ReconciliationResult {
	corrected := original
	if result.CorrectedText != nil {
		corrected = *result.CorrectedText
	}
	corrections := make([]model.Correction, len(result.Corrections))
	copy(corrections, result.Corrections)
	return model.ReconciliationResult{
		Corrections:   corrections,
		CorrectedText: corrected,
		Summary:       result.Summary,
	}
}

// Chunked merges per-chunk results in chunk order. Each chunk's corrections
// are applied only inside that chunk's span of the working document.
func Chunked(original string, chunks []model.Chunk, results []model.ChunkResult) model.ReconciliationResult {
	byIndex := make(map[int]model.Chunk, len(chunks))
	for _, c := range chunks {
		byIndex[c.Index] = c
	}
	ordered := make([]model.ChunkResult, len(results))
	copy(ordered, results)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].ChunkIndex < ordered[j].ChunkIndex })

	working := original
	delta := 0
	corrections := make([]model.Correction, 0)
	summaries := make([]string, 0, len(ordered))
	for _, r := range ordered {
		section := sectionLabel(r.ChunkIndex)
		for _, c := range r.Corrections {
			c.Location = strings.TrimSpace(section + " " + c.Location)
			corrections = append(corrections, c)
		}
		if s := strings.TrimSpace(r.Summary); s != "" {
			summaries = append(summaries, section+" "+s)
		}
		chunk, ok := byIndex[r.ChunkIndex]
		if !ok || len(r.Corrections) == 0 {
			continue
		}
		start, end := clamp(chunk.Start+delta, len(working)), clamp(chunk.End+delta, len(working))
		if end < start {
			continue
		}
		region, applied := ApplySubstitutions(working[start:end], r.Corrections)
		if applied == 0 {
			continue
		}
		working = working[:start] + region + working[end:]
		delta += len(region) - (end - start)
	}
	return model.ReconciliationResult{
		Corrections:   corrections,
		CorrectedText: working,
		Summary:       strings.Join(summaries, "\n"),
		Chunked:       true,
	}
}

func sectionLabel(index int) string {
	return fmt.Sprintf("Section %d:", index+1)
}

func clamp(v, limit int) int {
	if v < 0 {
		return 0
	}
	if v > limit {
		return limit
	}
	return v
}
