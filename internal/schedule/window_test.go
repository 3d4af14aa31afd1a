package schedule

import (
	"errors"
	"testing"
	"time"

	apperrors "github.com/acme/voice-campaign-manager/pkg/errors"
)

// 2024-06-15 06:00 UTC == 10:00 in Asia/Dubai (UTC+4).
var dubaiMidMorning = time.Date(2024, 6, 15, 6, 0, 0, 0, time.UTC)

func TestEvaluateTodayWithinWindow(t *testing.T) {
	w := Window{Date: "2024-06-15", StartTime: "09:00", EndTime: "18:00", TimeZone: "Asia/Dubai"}

	eval, err := Evaluate(w, dubaiMidMorning)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eval.Decision != DecisionTodayWithinWindow {
		t.Fatalf("expected today_within_window, got %s", eval.Decision)
	}

	wantStart := time.Date(2024, 6, 15, 5, 0, 0, 0, time.UTC)
	if !eval.StartAt.Equal(wantStart) {
		t.Fatalf("expected start instant %v, got %v", wantStart, eval.StartAt)
	}
}

func TestEvaluateFutureDay(t *testing.T) {
	for _, tz := range []string{"UTC", "Asia/Dubai", "America/New_York", "Pacific/Auckland"} {
		w := Window{Date: "2024-06-16", StartTime: "00:01", EndTime: "23:59", TimeZone: tz}
		eval, err := Evaluate(w, dubaiMidMorning)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tz, err)
		}
		if eval.Decision != DecisionFutureDay {
			t.Fatalf("%s: expected future_day, got %s", tz, eval.Decision)
		}
	}
}

func TestEvaluatePastDay(t *testing.T) {
	w := Window{Date: "2024-06-14", StartTime: "09:00", EndTime: "18:00", TimeZone: "Asia/Dubai"}
	eval, err := Evaluate(w, dubaiMidMorning)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eval.Decision != DecisionPastDay {
		t.Fatalf("expected past_day, got %s", eval.Decision)
	}
}

func TestEvaluateTodayBeforeWindow(t *testing.T) {
	w := Window{Date: "2024-06-15", StartTime: "11:00", EndTime: "18:00", TimeZone: "Asia/Dubai"}
	eval, err := Evaluate(w, dubaiMidMorning)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eval.Decision != DecisionTodayBeforeWindow {
		t.Fatalf("expected today_before_window, got %s", eval.Decision)
	}
}

func TestEvaluateTodayAfterWindow(t *testing.T) {
	w := Window{Date: "2024-06-15", StartTime: "06:00", EndTime: "09:00", TimeZone: "Asia/Dubai"}
	eval, err := Evaluate(w, dubaiMidMorning)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eval.Decision != DecisionTodayAfterWindow {
		t.Fatalf("expected today_after_window, got %s", eval.Decision)
	}
}

func TestEvaluateHalfOpenBoundaries(t *testing.T) {
	w := Window{Date: "2024-06-15", StartTime: "09:00", EndTime: "18:00", TimeZone: "Asia/Dubai"}

	atStart := time.Date(2024, 6, 15, 5, 0, 0, 0, time.UTC) // 09:00 Dubai
	eval, err := Evaluate(w, atStart)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eval.Decision != DecisionTodayWithinWindow {
		t.Fatalf("now == start must be within window, got %s", eval.Decision)
	}

	atEnd := time.Date(2024, 6, 15, 14, 0, 0, 0, time.UTC) // 18:00 Dubai
	eval, err = Evaluate(w, atEnd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eval.Decision != DecisionTodayAfterWindow {
		t.Fatalf("now == end must be after window, got %s", eval.Decision)
	}
}

func TestEvaluateInvalidWindow(t *testing.T) {
	cases := []Window{
		{Date: "2024-06-15", StartTime: "18:00", EndTime: "09:00", TimeZone: "Asia/Dubai"},
		{Date: "2024-06-15", StartTime: "09:00", EndTime: "09:00", TimeZone: "UTC"},
		// Invalid ordering wins even on a future date.
		{Date: "2030-01-01", StartTime: "12:00", EndTime: "08:00", TimeZone: "America/New_York"},
	}

	for _, w := range cases {
		eval, err := Evaluate(w, dubaiMidMorning)
		if err != nil {
			t.Fatalf("%+v: unexpected error: %v", w, err)
		}
		if eval.Decision != DecisionInvalidWindow {
			t.Fatalf("%+v: expected invalid_window, got %s", w, eval.Decision)
		}
	}
}

func TestEvaluateDSTOffset(t *testing.T) {
	// 2024-11-03 is the fall-back date in America/New_York; 09:00 local is
	// already EST, so the start instant must be 14:00 UTC, not 13:00.
	w := Window{Date: "2024-11-03", StartTime: "09:00", EndTime: "18:00", TimeZone: "America/New_York"}
	now := time.Date(2024, 11, 3, 15, 0, 0, 0, time.UTC)

	eval, err := Evaluate(w, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantStart := time.Date(2024, 11, 3, 14, 0, 0, 0, time.UTC)
	if !eval.StartAt.Equal(wantStart) {
		t.Fatalf("expected start instant %v, got %v", wantStart, eval.StartAt)
	}
	if eval.Decision != DecisionTodayWithinWindow {
		t.Fatalf("expected today_within_window, got %s", eval.Decision)
	}
}

func TestEvaluateIsIdempotent(t *testing.T) {
	w := Window{Date: "2024-06-15", StartTime: "09:00", EndTime: "18:00", TimeZone: "Asia/Dubai"}

	first, err := Evaluate(w, dubaiMidMorning)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Evaluate(w, dubaiMidMorning)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Fatalf("evaluations differ: %+v vs %+v", first, second)
	}
}

func TestEvaluateRejectsMalformedInput(t *testing.T) {
	cases := []Window{
		{Date: "2024-06-15", StartTime: "09:00", EndTime: "18:00", TimeZone: "Mars/Olympus"},
		{Date: "15-06-2024", StartTime: "09:00", EndTime: "18:00", TimeZone: "UTC"},
		{Date: "2024-06-15", StartTime: "9am", EndTime: "18:00", TimeZone: "UTC"},
		{Date: "2024-06-15", StartTime: "09:00", EndTime: "25:00", TimeZone: "UTC"},
	}

	for _, w := range cases {
		if _, err := Evaluate(w, dubaiMidMorning); !errors.Is(err, apperrors.ErrValidation) {
			t.Fatalf("%+v: expected validation error, got %v", w, err)
		}
	}
}
