// Package pipeline runs one document end to end: remote analysis, payload
// isolation, parsing, normalization, aggregation, and run persistence. The
// processor holds no per-document state; concurrent Process calls are safe.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jmarceau/echeancier/constants"
	"github.com/jmarceau/echeancier/internal/llm"
	"github.com/jmarceau/echeancier/internal/repository"
	"github.com/jmarceau/echeancier/internal/schedule"
)

// RunRecorder is the slice of the run store the processor needs.
type RunRecorder interface {
	CreateRun(ctx context.Context, run repository.Run) error
}

// Config tunes the processor.
type Config struct {
	// RepairPayload switches payload parsing from the strict decoder to the
	// jsonrepair-backed lenient one. Off by default: a malformed payload is
	// then reported, not patched.
	RepairPayload bool
}

// Result is the outcome of processing one document. NoData marks responses
// the core could not turn into a table (isolation or parse failure); Reason
// then carries the human-readable cause and Table/Summary are unset.
type Result struct {
	RunID   uuid.UUID
	RawText string
	Payload string
	Table   *schedule.Table
	Summary schedule.Summary
	NoData  bool
	Reason  string
}

type Processor struct {
	analyzer llm.DocumentAnalyzer
	runs     RunRecorder // nil disables persistence
	cfg      Config
	logger   *slog.Logger
}

func NewProcessor(analyzer llm.DocumentAnalyzer, runs RunRecorder, cfg Config, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{analyzer: analyzer, runs: runs, cfg: cfg, logger: logger}
}

// Process sends the document to the analyzer and normalizes the response.
// Upstream failures propagate as errors (the caller decides on retry);
// unusable responses come back as a NoData result, never as a panic or a
// bare error without diagnostics.
func (p *Processor) Process(ctx context.Context, document []byte, filename string) (*Result, error) {
	runID := uuid.New()
	start := time.Now()

	p.logger.Info("pipeline.run.start",
		"run_id", runID.String(),
		"filename", filename,
		"document_bytes", len(document),
	)

	raw, err := p.analyzer.Analyze(ctx, llm.AnalyzeRequest{Document: document, Filename: filename})
	if err != nil {
		p.logger.Error("pipeline.analyze.failed",
			"run_id", runID.String(), "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		p.record(ctx, repository.Run{
			ID:       runID,
			Filename: filename,
			Status:   constants.RunStatusFailed,
			Error:    err.Error(),
		})
		return nil, err
	}

	payload, ok := schedule.FencedPayload(raw)
	if !ok {
		var isoErr error
		payload, isoErr = schedule.IsolatePayload(raw)
		if isoErr != nil {
			return p.noData(ctx, runID, filename, raw, "", isoErr, start), nil
		}
	}

	parse := schedule.ParseRecords
	if p.cfg.RepairPayload {
		parse = schedule.RepairRecords
	}
	records, err := parse(payload)
	if err != nil {
		return p.noData(ctx, runID, filename, raw, payload, err, start), nil
	}

	// Advisory shape check; deviations are logged, never fatal.
	if err := schedule.ValidatePayload([]byte(payload)); err != nil {
		p.logger.Warn("pipeline.payload.schema_mismatch",
			"run_id", runID.String(), "error", err)
	}

	table := schedule.Normalize(records)
	summary := schedule.Aggregate(table, p.logger)

	p.record(ctx, repository.Run{
		ID:             runID,
		Filename:       filename,
		Status:         constants.RunStatusSucceeded,
		RowCount:       summary.RowCount,
		TotalInsurance: summary.TotalInsurance,
		TotalInterest:  summary.TotalInterest,
		FirstDueDate:   summary.FirstDueDate,
		Payload:        payload,
	})

	p.logger.Info("pipeline.run.ok",
		"run_id", runID.String(),
		"rows", summary.RowCount,
		"first_due_date", summary.FirstDueDate,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	return &Result{
		RunID:   runID,
		RawText: raw,
		Payload: payload,
		Table:   table,
		Summary: summary,
	}, nil
}

func (p *Processor) noData(ctx context.Context, runID uuid.UUID, filename, raw, payload string, cause error, start time.Time) *Result {
	p.logger.Warn("pipeline.run.no_data",
		"run_id", runID.String(),
		"reason", cause.Error(),
		"raw_len", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	p.record(ctx, repository.Run{
		ID:       runID,
		Filename: filename,
		Status:   constants.RunStatusNoData,
		Payload:  payload,
		RawText:  raw,
		Error:    cause.Error(),
	})
	return &Result{
		RunID:   runID,
		RawText: raw,
		Payload: payload,
		NoData:  true,
		Reason:  cause.Error(),
	}
}

// record persists the run when a store is wired. Persistence trouble must
// not fail an extraction that already produced a result.
func (p *Processor) record(ctx context.Context, run repository.Run) {
	if p.runs == nil {
		return
	}
	if err := p.runs.CreateRun(ctx, run); err != nil {
		p.logger.Error("pipeline.run.persist_failed",
			"run_id", run.ID.String(), "error", err)
	}
}
