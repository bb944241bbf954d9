package scan

import "piiscan/internal/models"

// pipelineState is the accumulator threaded through the merge step of each
// batch. It is only ever touched by the scheduler goroutine after a batch
// barrier, so it needs no locking: the single-writer invariant holds by
// construction.
type pipelineState struct {
	known    []string // accepted values in acceptance order, only grows
	seen     map[string]struct{}
	findings []models.Finding
}

func newPipelineState() *pipelineState {
	return &pipelineState{seen: make(map[string]struct{})}
}

// accept records a finding unless its dedup key was seen before. The first
// occurrence of a key wins; later occurrences are dropped for the rest of
// the scan.
func (s *pipelineState) accept(f models.Finding) bool {
	key := f.Key()
	if _, dup := s.seen[key]; dup {
		return false
	}
	s.seen[key] = struct{}{}
	s.findings = append(s.findings, f)
	s.known = append(s.known, f.Value)
	return true
}

// knownSuffix returns the most recent window of accepted values. Prompts
// read this bounded suffix, never the full history.
func (s *pipelineState) knownSuffix(window int) []string {
	if window <= 0 || len(s.known) <= window {
		return s.known
	}
	return s.known[len(s.known)-window:]
}
