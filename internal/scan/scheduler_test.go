package scan

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"piiscan/internal/models"
)

// mockCaller scripts responses by chunk content and records every prompt in
// call order. Optional random latency exercises the ordering guarantees.
type mockCaller struct {
	respond func(user string) (string, error)
	latency time.Duration

	mu      sync.Mutex
	prompts []string
}

func (m *mockCaller) Chat(_ context.Context, _, user string) (string, error) {
	if m.latency > 0 {
		time.Sleep(time.Duration(rand.Int63n(int64(m.latency))))
	}
	m.mu.Lock()
	m.prompts = append(m.prompts, user)
	m.mu.Unlock()
	return m.respond(user)
}

func newScheduler(t *testing.T, caller Caller, cfg Config) *Scheduler {
	t.Helper()
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = 10
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = 2
	}
	if cfg.KnownValuesWindow == 0 {
		cfg.KnownValuesWindow = 50
	}
	s, err := NewScheduler(caller, cfg, nil)
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}
	return s
}

// fourChunkText produces exactly four chunks of ten characters with no
// overlap: "aaaaaaaaaa", "bbbbbbbbbb", "cccccccccc", "dddddddddd".
const fourChunkText = "aaaaaaaaaabbbbbbbbbbccccccccccdddddddddd"

func TestScanDedupAcrossChunksAndBatches(t *testing.T) {
	caller := &mockCaller{respond: func(string) (string, error) {
		return "[EMAIL] a@b.com", nil
	}}
	s := newScheduler(t, caller, Config{Concurrency: 2})

	res, err := s.Scan(context.Background(), fourChunkText, "")
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(res.Findings) != 1 {
		t.Fatalf("expected 1 finding after dedup, got %d: %+v", len(res.Findings), res.Findings)
	}
	if res.Findings[0].Category != "EMAIL" || res.Findings[0].Value != "a@b.com" {
		t.Errorf("unexpected finding: %+v", res.Findings[0])
	}
}

func TestScanDedupIsCaseInsensitiveOnValue(t *testing.T) {
	first := true
	var mu sync.Mutex
	caller := &mockCaller{respond: func(string) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if first {
			first = false
			return "[EMAIL] A@B.com", nil
		}
		return "[EMAIL] a@b.com", nil
	}}
	s := newScheduler(t, caller, Config{Concurrency: 1})

	res, err := s.Scan(context.Background(), fourChunkText, "")
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(res.Findings) != 1 {
		t.Fatalf("expected 1 finding, got %+v", res.Findings)
	}
	// First occurrence wins, original casing preserved.
	if res.Findings[0].Value != "A@B.com" {
		t.Errorf("expected first-seen casing, got %q", res.Findings[0].Value)
	}
}

func TestScanDeterministicOrderUnderRandomLatency(t *testing.T) {
	respond := func(user string) (string, error) {
		// One distinct finding per chunk, derived from the chunk content.
		for _, letter := range []string{"a", "b", "c", "d"} {
			if strings.Contains(user, strings.Repeat(letter, 10)) {
				return "[CODE] value-" + letter, nil
			}
		}
		return "", nil
	}

	var firstRun []models.Finding
	for run := 0; run < 5; run++ {
		caller := &mockCaller{respond: respond, latency: 20 * time.Millisecond}
		s := newScheduler(t, caller, Config{Concurrency: 2})

		res, err := s.Scan(context.Background(), fourChunkText, "")
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		if len(res.Findings) != 4 {
			t.Fatalf("expected 4 findings, got %+v", res.Findings)
		}
		for i, letter := range []string{"a", "b", "c", "d"} {
			if res.Findings[i].Value != "value-"+letter {
				t.Fatalf("run %d: findings out of chunk order: %+v", run, res.Findings)
			}
		}
		if run == 0 {
			firstRun = res.Findings
			continue
		}
		for i := range firstRun {
			if res.Findings[i] != firstRun[i] {
				t.Fatalf("run %d differs from first run: %+v vs %+v", run, res.Findings, firstRun)
			}
		}
	}
}

func TestScanContextVisibilityAcrossBatches(t *testing.T) {
	caller := &mockCaller{respond: func(user string) (string, error) {
		if strings.Contains(user, strings.Repeat("a", 10)) {
			return "[CODE] alpha-secret", nil
		}
		return "nothing found", nil
	}}
	s := newScheduler(t, caller, Config{Concurrency: 2})

	if _, err := s.Scan(context.Background(), fourChunkText, ""); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if len(caller.prompts) != 4 {
		t.Fatalf("expected 4 prompts, got %d", len(caller.prompts))
	}
	// The batch barrier guarantees the first two recorded prompts belong to
	// batch 0 and the last two to batch 1, whatever the order within each.
	for _, p := range caller.prompts[:2] {
		if strings.Contains(p, "alpha-secret") {
			t.Errorf("batch 0 prompt already contains its own batch's discovery:\n%s", p)
		}
	}
	for _, p := range caller.prompts[2:] {
		if !strings.Contains(p, "alpha-secret") {
			t.Errorf("batch 1 prompt is missing the batch 0 discovery:\n%s", p)
		}
	}
}

func TestScanKnownValuesWindowIsBounded(t *testing.T) {
	caller := &mockCaller{respond: func(user string) (string, error) {
		for _, letter := range []string{"a", "b", "c", "d"} {
			if strings.Contains(user, strings.Repeat(letter, 10)) {
				return "[CODE] found-" + letter, nil
			}
		}
		return "", nil
	}}
	s := newScheduler(t, caller, Config{Concurrency: 1, KnownValuesWindow: 2})

	if _, err := s.Scan(context.Background(), fourChunkText, ""); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	last := caller.prompts[3]
	if strings.Contains(last, "found-a") {
		t.Errorf("prompt leaked values beyond the window:\n%s", last)
	}
	for _, want := range []string{"found-b", "found-c"} {
		if !strings.Contains(last, want) {
			t.Errorf("prompt is missing recent value %s:\n%s", want, last)
		}
	}
}

func TestScanAbsorbsChunkFailures(t *testing.T) {
	caller := &mockCaller{respond: func(user string) (string, error) {
		if strings.Contains(user, strings.Repeat("b", 10)) {
			return "", errors.New("connection refused")
		}
		if strings.Contains(user, strings.Repeat("a", 10)) {
			return "[EMAIL] a@b.com", nil
		}
		return "", nil
	}}
	s := newScheduler(t, caller, Config{Concurrency: 2})

	res, err := s.Scan(context.Background(), fourChunkText, "")
	if err != nil {
		t.Fatalf("a failing chunk must not fail the scan, got %v", err)
	}
	if res.FailedChunks != 1 {
		t.Errorf("FailedChunks = %d, want 1", res.FailedChunks)
	}
	if len(res.Findings) != 1 {
		t.Errorf("findings from healthy chunks lost: %+v", res.Findings)
	}
}

func TestScanEmptyTextYieldsNoFindings(t *testing.T) {
	caller := &mockCaller{respond: func(string) (string, error) {
		t.Error("no model call expected for empty text")
		return "", nil
	}}
	s := newScheduler(t, caller, Config{})

	res, err := s.Scan(context.Background(), "   \n\n  ", "")
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(res.Findings) != 0 || res.FailedChunks != 0 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestScanHonorsCancellationAtBatchBoundary(t *testing.T) {
	caller := &mockCaller{respond: func(string) (string, error) { return "", nil }}
	s := newScheduler(t, caller, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Scan(ctx, fourChunkText, ""); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestScanEndToEndSingleChunk(t *testing.T) {
	// A document with one form field and one e-mail in the body, scanned as
	// a single chunk; the duplicate line in the response collapses.
	text := "=== FORM FIELDS ===\nSurname: Rossi\n=== END FORM FIELDS ===\n\nContact: mario@example.com"
	caller := &mockCaller{respond: func(string) (string, error) {
		return "[EMAIL] mario@example.com\n[EMAIL] mario@example.com\n[SURNAME] Rossi", nil
	}}
	s := newScheduler(t, caller, Config{ChunkSize: 4000, Concurrency: 3})

	res, err := s.Scan(context.Background(), text, "")
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	want := []models.Finding{
		{Category: "EMAIL", Value: "mario@example.com"},
		{Category: "SURNAME", Value: "Rossi"},
	}
	if len(res.Findings) != len(want) {
		t.Fatalf("findings = %+v, want %+v", res.Findings, want)
	}
	for i := range want {
		if res.Findings[i] != want[i] {
			t.Errorf("finding %d = %+v, want %+v", i, res.Findings[i], want[i])
		}
	}
}
