package correction

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/proofnote/internal/ai"
	"github.com/xxxsen/proofnote/internal/chunker"
	"github.com/xxxsen/proofnote/internal/diff"
	"github.com/xxxsen/proofnote/internal/model"
	"github.com/xxxsen/proofnote/internal/parser"
	appErr "github.com/xxxsen/proofnote/internal/pkg/errors"
	"github.com/xxxsen/proofnote/internal/reconcile"
	"github.com/xxxsen/proofnote/internal/validator"
)

type Reviewer interface {
	Review(ctx context.Context, req ai.ReviewRequest) (string, error)
}

type Config struct {
	Chunking            chunker.Options
	SimilarityThreshold float64
	InstructionPrompt   string
}

// Hooks lets the caller observe and interrupt a run. All fields are
// optional.
type Hooks struct {
	Progress    func(section, sections int)
	Canceled    func() bool
	OnReconcile func()
}

func (h Hooks) progress(section, sections int) {
	if h.Progress != nil {
		h.Progress(section, sections)
	}
}

func (h Hooks) canceled() bool {
	return h.Canceled != nil && h.Canceled()
}

func (h Hooks) reconciling() {
	if h.OnReconcile != nil {
		h.OnReconcile()
	}
}

// Review is the outcome of one run. Diff is only computed when the preview
// is enabled.
type Review struct {
	Result           model.ReconciliationResult `json:"result"`
	Diff             []model.DiffLine           `json:"diff,omitempty"`
	Partial          bool                       `json:"partial"`
	PreviewEnabled   bool                       `json:"preview_enabled"`
	AutoApplyEnabled bool                       `json:"auto_apply_enabled"`
	ChunkCount       int                        `json:"chunk_count"`
	FailedChunks     []int                      `json:"failed_chunks"`
	Dropped          int                        `json:"dropped"`
}

type Pipeline struct {
	oracle Reviewer
	cfg    Config
	differ diff.Engine
}

func NewPipeline(oracle Reviewer, cfg Config) *Pipeline {
	return &Pipeline{
		oracle: oracle,
		cfg:    cfg,
		differ: diff.Engine{Threshold: cfg.SimilarityThreshold},
	}
}

func (p *Pipeline) Run(ctx context.Context, content string, hooks Hooks) (*Review, error) {
	chunks := chunker.Split(ctx, content, p.cfg.Chunking)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("content is empty: %w", appErr.ErrInvalid)
	}
	if len(chunks) == 1 {
		return p.runWhole(ctx, content, hooks)
	}
	return p.runChunked(ctx, content, chunks, hooks)
}

func (p *Pipeline) runWhole(ctx context.Context, content string, hooks Hooks) (*Review, error) {
	logger := logutil.GetLogger(ctx).With(zap.Int("chunk_count", 1))
	if hooks.canceled() {
		return nil, appErr.ErrCanceled
	}
	hooks.progress(1, 1)
	req := ai.ReviewRequest{
		ChunkText:         content,
		InstructionPrompt: p.cfg.InstructionPrompt,
		ChunkCount:        1,
	}
	raw, err := p.oracle.Review(ctx, req)
	if err != nil {
		logger.Error("oracle review failed", zap.Error(err))
		return nil, err
	}
	if hooks.canceled() {
		return nil, appErr.ErrCanceled
	}
	outcome := parser.ParseWhole(raw)
	if outcome.Kind != parser.Success {
		p.forget(req)
	}
	if !outcome.OK() {
		logger.Warn("parse correction response failed", zap.String("reason", outcome.Reason))
		return nil, &WholeDocumentParseError{Reason: outcome.Reason}
	}
	partial := outcome.Kind == parser.PartialSalvage
	if partial {
		logger.Warn("correction response salvaged", zap.Int("corrections", len(outcome.Payload.Corrections)))
	}
	report := p.validate(ctx, outcome.Payload.Corrections, content)

	hooks.reconciling()
	result := reconcile.Single(content, model.ChunkResult{
		Corrections:   report.Corrections,
		CorrectedText: outcome.Payload.CorrectedText,
		Summary:       outcome.Payload.Summary,
	})
	review := &Review{
		Result:         result,
		Partial:        partial,
		PreviewEnabled: !partial,
		ChunkCount:     1,
		FailedChunks:   []int{},
		Dropped:        report.Dropped,
	}
	if review.PreviewEnabled {
		review.Diff = p.differ.Diff(content, result.CorrectedText)
		review.AutoApplyEnabled = outcome.Payload.CorrectedText != nil
	}
	logger.Info("correction finished",
		zap.String("strategy", outcome.Strategy),
		zap.Int("corrections", len(result.Corrections)),
		zap.Bool("partial", partial),
	)
	return review, nil
}

func (p *Pipeline) runChunked(ctx context.Context, content string, chunks []model.Chunk, hooks Hooks) (*Review, error) {
	total := len(chunks)
	logger := logutil.GetLogger(ctx).With(zap.Int("chunk_count", total))
	logger.Info("correction started in sections")

	results := make([]model.ChunkResult, 0, total)
	failed := []int{}
	dropped := 0
	var lastErr error
	for _, chunk := range chunks {
		if hooks.canceled() {
			logger.Info("correction canceled", zap.Int("chunk_index", chunk.Index))
			return nil, appErr.ErrCanceled
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hooks.progress(chunk.Index+1, total)
		chunkLogger := logger.With(zap.Int("chunk_index", chunk.Index))

		req := ai.ReviewRequest{
			ChunkText:         chunk.Text,
			InstructionPrompt: p.cfg.InstructionPrompt,
			IsPartial:         true,
			ChunkIndex:        chunk.Index,
			ChunkCount:        total,
		}
		raw, err := p.oracle.Review(ctx, req)
		if err != nil {
			var oe *ai.OracleError
			if errors.As(err, &oe) && oe.Fatal() {
				chunkLogger.Error("oracle review failed, aborting", zap.Error(err))
				return nil, err
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			chunkLogger.Warn("oracle review failed, skipping section", zap.Error(err))
			failed = append(failed, chunk.Index)
			lastErr = err
			continue
		}
		outcome := parser.Parse(raw)
		if !outcome.OK() {
			p.forget(req)
			perr := &ChunkParseError{ChunkIndex: chunk.Index, Reason: outcome.Reason}
			chunkLogger.Warn("section response unparseable, skipping section", zap.Error(perr))
			failed = append(failed, chunk.Index)
			lastErr = perr
			continue
		}
		report := p.validate(ctx, outcome.Payload.Corrections, chunk.Text)
		dropped += report.Dropped
		chunkLogger.Debug("section reviewed",
			zap.String("strategy", outcome.Strategy),
			zap.Int("corrections", len(report.Corrections)),
		)
		results = append(results, model.ChunkResult{
			ChunkIndex:  chunk.Index,
			Corrections: report.Corrections,
			Summary:     strings.TrimSpace(outcome.Payload.Summary),
		})
	}
	if len(results) == 0 {
		logger.Error("every section failed", zap.Error(lastErr))
		return nil, lastErr
	}

	hooks.reconciling()
	result := reconcile.Chunked(content, chunks, results)
	logger.Info("correction finished",
		zap.Int("corrections", len(result.Corrections)),
		zap.Int("failed_chunks", len(failed)),
	)
	return &Review{
		Result:       result,
		Partial:      len(failed) > 0,
		ChunkCount:   total,
		FailedChunks: failed,
		Dropped:      dropped,
	}, nil
}

type reviewForgetter interface {
	Forget(req ai.ReviewRequest)
}

// forget keeps an unusable response out of the oracle cache.
func (p *Pipeline) forget(req ai.ReviewRequest) {
	if f, ok := p.oracle.(reviewForgetter); ok {
		f.Forget(req)
	}
}

func (p *Pipeline) validate(ctx context.Context, corrections []model.Correction, source string) validator.Report {
	report := validator.Check(corrections, source)
	if report.FellBack {
		logutil.GetLogger(ctx).Warn("no correction matched the source text, keeping all", zap.Int("corrections", len(report.Corrections)))
	}
	return report
}
