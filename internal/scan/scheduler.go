package scan

import (
	"context"
	"fmt"
	"sync"

	"piiscan/internal/models"
	"piiscan/pkg/logger"
)

// Caller is the model transport used for one chunk's chat request.
// Implementations must be safe for concurrent use.
type Caller interface {
	Chat(ctx context.Context, system, user string) (string, error)
}

// Config tunes the scheduler. Concurrency bounds the outstanding model calls
// within a batch; KnownValuesWindow bounds how much accepted-value history is
// echoed into prompts.
type Config struct {
	ChunkSize         int
	Overlap           int
	Concurrency       int
	KnownValuesWindow int
	Strict            bool
}

// Scheduler drives the PII scan: it partitions chunks into batches of at
// most Concurrency, dispatches each batch's model calls concurrently, waits
// for the whole batch to settle, then merges results sequentially in chunk
// order.
//
// The known-values snapshot for a batch is taken once, before dispatch, so
// a batch's prompts reflect only discoveries from strictly earlier batches.
// Sibling chunks in the same batch cannot see each other's discoveries; that
// trade of duplicate-suppression recall for parallelism is deliberate and
// relied upon by callers (set Concurrency to 1 for full visibility).
type Scheduler struct {
	caller Caller
	cfg    Config
	parser Parser
	log    *logger.Logger
}

// NewScheduler creates a Scheduler over the given transport.
func NewScheduler(caller Caller, cfg Config, log *logger.Logger) (*Scheduler, error) {
	if cfg.Concurrency < 1 {
		return nil, fmt.Errorf("concurrency must be at least 1, got %d", cfg.Concurrency)
	}
	if cfg.Overlap < 0 || cfg.Overlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("overlap %d must be in [0, %d)", cfg.Overlap, cfg.ChunkSize)
	}
	return &Scheduler{
		caller: caller,
		cfg:    cfg,
		parser: Parser{Strict: cfg.Strict},
		log:    log,
	}, nil
}

// Scan normalizes and chunks text, then runs the batch pipeline to produce
// the ordered findings list. Per-chunk transport or parse failures are
// absorbed as zero findings for that chunk and surfaced only through
// FailedChunks; a scan never fails because a subset of chunks did.
// Cancellation is honored at batch boundaries; an in-flight batch always
// runs to completion.
func (s *Scheduler) Scan(ctx context.Context, text, systemPrompt string) (*models.ScanResult, error) {
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}

	normalized := Normalize(text)
	if normalized == "" {
		return &models.ScanResult{Findings: []models.Finding{}}, nil
	}

	chunks, err := Split(normalized, s.cfg.ChunkSize, s.cfg.Overlap)
	if err != nil {
		return nil, err
	}

	state := newPipelineState()
	failed := 0

	for start := 0; start < len(chunks); start += s.cfg.Concurrency {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := start + s.cfg.Concurrency
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		// Snapshot read once, before dispatch: every prompt in this batch
		// sees the same history.
		known := state.knownSuffix(s.cfg.KnownValuesWindow)

		outcomes := s.dispatch(ctx, batch, systemPrompt, known)
		failed += s.merge(state, outcomes)

		if s.log != nil {
			s.log.WithField("batch_first_chunk", start).
				WithField("findings_total", len(state.findings)).
				Debug("batch merged")
		}
	}

	findings := state.findings
	if findings == nil {
		findings = []models.Finding{}
	}
	return &models.ScanResult{Findings: findings, FailedChunks: failed}, nil
}

// dispatch fires one model call per chunk and blocks until every call in the
// batch has settled. Outcomes are stored positionally so the merge order is
// the chunk order regardless of network completion order.
func (s *Scheduler) dispatch(ctx context.Context, batch []models.Chunk, system string, known []string) []models.ChunkOutcome {
	outcomes := make([]models.ChunkOutcome, len(batch))

	var wg sync.WaitGroup
	for i, chunk := range batch {
		wg.Add(1)
		go func(i int, chunk models.Chunk) {
			defer wg.Done()
			raw, err := s.caller.Chat(ctx, system, buildUserPrompt(known, chunk.Text))
			outcomes[i] = models.ChunkOutcome{Chunk: chunk, Raw: raw, Err: err}
		}(i, chunk)
	}
	wg.Wait()

	return outcomes
}

// merge folds a settled batch into the pipeline state, strictly sequentially
// and in chunk-index order. Returns the number of failed chunks.
func (s *Scheduler) merge(state *pipelineState, outcomes []models.ChunkOutcome) int {
	failed := 0
	for _, out := range outcomes {
		if out.Err != nil {
			failed++
			if s.log != nil {
				s.log.WithError(out.Err).
					WithField("chunk_index", out.Chunk.Index).
					Warn("chunk request failed, continuing without it")
			}
			continue
		}
		for _, f := range s.parser.Parse(out.Raw) {
			state.accept(f)
		}
	}
	return failed
}
