package model

type DiffKind string

const (
	DiffSame    DiffKind = "same"
	DiffAdded   DiffKind = "added"
	DiffRemoved DiffKind = "removed"
	DiffChanged DiffKind = "changed"
)

type WordSpan struct {
	Kind DiffKind `json:"kind"`
	Text string   `json:"text"`
	// OriginalText is only set on changed spans.
	OriginalText string `json:"original_text,omitempty"`
}

type DiffLine struct {
	Kind          DiffKind   `json:"kind"`
	OriginalText  *string    `json:"original_text,omitempty"`
	CorrectedText *string    `json:"corrected_text,omitempty"`
	WordSpans     []WordSpan `json:"word_spans,omitempty"`
}
