package models

import "strings"

// Finding is one accepted PII candidate. Immutable once accepted.
type Finding struct {
	Category string `json:"category"`
	Value    string `json:"value"`
}

// Key is the deduplication key for a finding: the value lower-cased plus the
// category. Two findings with the same key are the same discovery.
func (f Finding) Key() string {
	return strings.ToLower(f.Value) + "|" + f.Category
}

// Chunk is one overlapping window of normalized document text, the unit of
// work sent to the model. Index defines the total order used by the merge step.
type Chunk struct {
	Index  int    `json:"index"`
	Offset int    `json:"offset"`
	Text   string `json:"text"`
}

// ChunkOutcome carries one chunk's raw model response, or the error that
// replaced it. A failed chunk contributes zero findings but is counted, so
// partial data loss stays visible to the caller.
type ChunkOutcome struct {
	Chunk Chunk
	Raw   string
	Err   error
}

// ScanResult is the final output of one PII scan.
type ScanResult struct {
	Findings     []Finding `json:"findings"`
	FailedChunks int       `json:"failed_chunks"`
}
