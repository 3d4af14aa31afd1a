package runner

import (
	"context"
	"testing"
	"time"

	"github.com/acme/voice-campaign-manager/internal/config"
)

func TestFixedPacerTotals(t *testing.T) {
	pacer := NewFixedPacer(config.PacingConfig{
		CallInterval: time.Second,
		BatchSize:    10,
		BatchPause:   10 * time.Second,
	})

	var slept []time.Duration
	pacer.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	// A 25-contact run pauses after contacts 1..24; the last dispatch has
	// nothing to pace against.
	pacer.Reset()
	for i := 0; i < 24; i++ {
		if err := pacer.Pause(context.Background()); err != nil {
			t.Fatalf("pause %d: %v", i, err)
		}
	}

	var short, long int
	for _, d := range slept {
		switch d {
		case time.Second:
			short++
		case 10 * time.Second:
			long++
		default:
			t.Fatalf("unexpected sleep duration %v", d)
		}
	}
	if short != 24 {
		t.Fatalf("expected 24 short pauses, got %d", short)
	}
	if long != 2 {
		t.Fatalf("expected 2 long pauses (after contacts 10 and 20), got %d", long)
	}

	// The long pauses must immediately follow the 10th and 20th short pause.
	if slept[10] != 10*time.Second || slept[21] != 10*time.Second {
		t.Fatalf("long pauses misplaced: %v", slept)
	}
}

func TestFixedPacerResetClearsCounter(t *testing.T) {
	pacer := NewFixedPacer(config.PacingConfig{BatchSize: 2})

	var slept []time.Duration
	pacer.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	pacer.Reset()
	_ = pacer.Pause(context.Background())
	pacer.Reset()
	_ = pacer.Pause(context.Background())

	// Without the reset the second pause would be the batch boundary.
	for _, d := range slept {
		if d != time.Second {
			t.Fatalf("expected only short pauses after resets, got %v", slept)
		}
	}
}

func TestFixedPacerHonoursCancellation(t *testing.T) {
	pacer := NewFixedPacer(config.PacingConfig{CallInterval: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := pacer.Pause(ctx); err == nil {
		t.Fatal("expected context error from cancelled pause")
	}
}
