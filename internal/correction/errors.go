package correction

import "fmt"

// ChunkParseError is reported for a section whose response could not be
// parsed. The section contributes no corrections.
type ChunkParseError struct {
	ChunkIndex int
	Reason     string
}

func (e *ChunkParseError) Error() string {
	return fmt.Sprintf("parse section %d response: %s", e.ChunkIndex+1, e.Reason)
}

// WholeDocumentParseError is returned when neither strict parsing nor
// salvage found anything in the response to a non-chunked document.
type WholeDocumentParseError struct {
	Reason string
}

func (e *WholeDocumentParseError) Error() string {
	return "could not parse correction response: " + e.Reason
}

func (e *WholeDocumentParseError) Retryable() bool {
	return true
}
