// Package pipeline consumes disaster reports from a batch source and creates
// disasters from them through the disaster record service.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/couchcryptid/disaster-response-service/internal/domain"
	"github.com/couchcryptid/disaster-response-service/internal/observability"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second

	// maxCreateAttempts bounds retries of a single report so one that the
	// store always rejects cannot stall the partition.
	maxCreateAttempts = 3
)

// BatchExtractor reads up to batchSize raw reports from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawReport, error)
}

// Transformer converts a raw report into disaster input.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawReport) (domain.CreateDisasterInput, error)
}

// Creator persists a disaster. The disaster record service satisfies it.
type Creator interface {
	Create(ctx context.Context, in domain.CreateDisasterInput) (domain.Disaster, error)
}

// Pipeline orchestrates the extract-transform-create loop.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	creator     Creator
	logger      *slog.Logger
	metrics     *observability.Metrics
	batchSize   int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, c Creator, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		creator:     c,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// Run executes the intake loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("intake started", "batch_size", p.batchSize)
	p.metrics.IntakeRunning.Set(1)
	defer p.metrics.IntakeRunning.Set(0)

	backoff := initialBackoff
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("intake stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff) {
			return nil
		}
	}
}

// processBatch runs one extract-transform-create cycle. Returns false if the
// pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration) bool {
	batch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return backoffOrStop(ctx, backoff)
	}
	if len(batch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.IntakeConsumed.Add(float64(len(batch)))
	*backoff = initialBackoff

	for _, raw := range batch {
		if !p.handle(ctx, raw, backoff) {
			return false
		}
	}
	return true
}

// handle creates one disaster. Reports that can never succeed are skipped
// and committed; anything else is retried with backoff, up to
// maxCreateAttempts, before it is skipped too. Returns false if the pipeline
// should stop.
func (p *Pipeline) handle(ctx context.Context, raw domain.RawReport, backoff *time.Duration) bool {
	in, err := p.transformer.Transform(ctx, raw)
	if err != nil {
		p.skip(ctx, raw, "transform failed, skipping report", err)
		return true
	}

	for attempt := 1; ; attempt++ {
		d, err := p.creator.Create(ctx, in)
		if err == nil {
			p.logger.Info("report ingested",
				"disaster_id", d.ID,
				"owner_id", d.OwnerID,
				"offset", raw.Offset,
			)
			p.commit(ctx, raw)
			*backoff = initialBackoff
			return true
		}
		if permanent(err) {
			p.skip(ctx, raw, "create failed, skipping report", err)
			return true
		}
		if attempt >= maxCreateAttempts {
			p.skip(ctx, raw, "create retries exhausted, skipping report", err)
			*backoff = initialBackoff
			return true
		}

		p.logger.Error("create failed, retrying",
			"error", err,
			"partition", raw.Partition,
			"offset", raw.Offset,
			"attempt", attempt,
			"backoff", *backoff,
		)
		if !backoffOrStop(ctx, backoff) {
			return false
		}
	}
}

func (p *Pipeline) skip(ctx context.Context, raw domain.RawReport, msg string, err error) {
	p.logger.Warn(msg,
		"error", err,
		"topic", raw.Topic,
		"partition", raw.Partition,
		"offset", raw.Offset,
	)
	p.metrics.IntakeFailed.Inc()
	p.commit(ctx, raw)
}

// commit commits the report offset if a commit function is available.
func (p *Pipeline) commit(ctx context.Context, raw domain.RawReport) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

// permanent reports errors that retrying the same report cannot fix.
func permanent(err error) bool {
	var rErr *domain.ResolutionError
	return errors.Is(err, domain.ErrValidation) || errors.As(err, &rErr)
}

// backoffOrStop sleeps with the current backoff and advances it. Returns
// false if the context ended first.
func backoffOrStop(ctx context.Context, backoff *time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff)
	return true
}

func nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
