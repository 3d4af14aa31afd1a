package runner

import (
	"context"
	"time"

	"github.com/acme/voice-campaign-manager/internal/config"
)

// Pacer throttles successive dispatches within one campaign run.
type Pacer interface {
	// Reset starts a fresh run; the attempt counter is per-run.
	Reset()
	// Pause blocks between two dispatches. It counts the attempt that just
	// finished, successful or not.
	Pause(ctx context.Context) error
}

// FixedPacer pauses for a fixed interval after every dispatch and for a
// longer interval after every batchSize-th dispatch. This is a fixed
// throttle, not adaptive; it exists to respect the provider's rate
// tolerance.
type FixedPacer struct {
	interval   time.Duration
	batchSize  int
	batchPause time.Duration

	count int
	sleep func(context.Context, time.Duration) error
}

// NewFixedPacer builds a pacer from configuration. Zero values fall back to
// 1s between calls and a 10s pause after every 10th call.
func NewFixedPacer(cfg config.PacingConfig) *FixedPacer {
	interval := cfg.CallInterval
	if interval <= 0 {
		interval = time.Second
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 10
	}
	batchPause := cfg.BatchPause
	if batchPause <= 0 {
		batchPause = 10 * time.Second
	}
	return &FixedPacer{
		interval:   interval,
		batchSize:  batchSize,
		batchPause: batchPause,
		sleep:      sleepContext,
	}
}

// Reset clears the per-run attempt counter.
func (p *FixedPacer) Reset() {
	p.count = 0
}

// Pause sleeps the inter-call interval, and additionally the batch pause
// when the attempt count hits a multiple of the batch size.
func (p *FixedPacer) Pause(ctx context.Context) error {
	p.count++
	if err := p.sleep(ctx, p.interval); err != nil {
		return err
	}
	if p.count%p.batchSize == 0 {
		return p.sleep(ctx, p.batchPause)
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
