package model

// Correction is a single suggestion reported by the oracle. All fields are
// free text and are not guaranteed to be machine-parseable.
type Correction struct {
	Issue      string `json:"issue"`
	Location   string `json:"location"`
	Correction string `json:"correction"`
}

// Chunk is a paragraph-aligned slice of a document. Start and End are byte
// offsets of the first and last paragraph in the source text.
type Chunk struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

type ChunkResult struct {
	ChunkIndex    int          `json:"chunk_index"`
	Corrections   []Correction `json:"corrections"`
	CorrectedText *string      `json:"corrected_text,omitempty"`
	Summary       string       `json:"summary,omitempty"`
}

type ReconciliationResult struct {
	Corrections   []Correction `json:"corrections"`
	CorrectedText string       `json:"corrected_text"`
	Summary       string       `json:"summary"`
	Chunked       bool         `json:"chunked"`
}
