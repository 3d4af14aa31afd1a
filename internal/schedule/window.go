package schedule

import (
	"fmt"
	"time"

	apperrors "github.com/acme/voice-campaign-manager/pkg/errors"
)

// Decision classifies a campaign window against the current instant.
type Decision string

const (
	DecisionInvalidWindow     Decision = "invalid_window"
	DecisionFutureDay         Decision = "future_day"
	DecisionPastDay           Decision = "past_day"
	DecisionTodayBeforeWindow Decision = "today_before_window"
	DecisionTodayWithinWindow Decision = "today_within_window"
	DecisionTodayAfterWindow  Decision = "today_after_window"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

// Window is a campaign's calling window: a calendar date plus daily
// start/end wall-clock times, interpreted in TimeZone.
type Window struct {
	Date      string
	StartTime string
	EndTime   string
	TimeZone  string
}

// Evaluation is the result of classifying a window. StartAt and EndAt are
// the absolute UTC instants of the window bounds on the campaign date.
type Evaluation struct {
	Decision Decision
	StartAt  time.Time
	EndAt    time.Time
}

// Evaluate classifies the window relative to now. The window bounds are
// constructed as local wall-clock instants directly in the target zone, so
// DST shifts on the campaign date are honoured. The interval is half-open:
// now == StartAt is within the window, now == EndAt is past it.
//
// Evaluate is pure: the same window and instant always yield the same
// classification.
func Evaluate(w Window, now time.Time) (Evaluation, error) {
	loc, err := time.LoadLocation(w.TimeZone)
	if err != nil {
		return Evaluation{}, fmt.Errorf("%w: unknown time zone %q", apperrors.ErrValidation, w.TimeZone)
	}

	date, err := time.ParseInLocation(dateLayout, w.Date, loc)
	if err != nil {
		return Evaluation{}, fmt.Errorf("%w: invalid date %q", apperrors.ErrValidation, w.Date)
	}

	startHour, startMin, err := parseClock(w.StartTime)
	if err != nil {
		return Evaluation{}, fmt.Errorf("%w: invalid start time %q", apperrors.ErrValidation, w.StartTime)
	}
	endHour, endMin, err := parseClock(w.EndTime)
	if err != nil {
		return Evaluation{}, fmt.Errorf("%w: invalid end time %q", apperrors.ErrValidation, w.EndTime)
	}

	year, month, day := date.Date()
	startAt := time.Date(year, month, day, startHour, startMin, 0, 0, loc)
	endAt := time.Date(year, month, day, endHour, endMin, 0, 0, loc)

	eval := Evaluation{StartAt: startAt.UTC(), EndAt: endAt.UTC()}

	if !endAt.After(startAt) {
		eval.Decision = DecisionInvalidWindow
		return eval, nil
	}

	localNow := now.In(loc)
	nowYear, nowMonth, nowDay := localNow.Date()
	today := time.Date(nowYear, nowMonth, nowDay, 0, 0, 0, 0, loc)
	campaignDay := time.Date(year, month, day, 0, 0, 0, 0, loc)

	switch {
	case campaignDay.After(today):
		eval.Decision = DecisionFutureDay
	case campaignDay.Before(today):
		eval.Decision = DecisionPastDay
	case now.Before(startAt):
		eval.Decision = DecisionTodayBeforeWindow
	case now.Before(endAt):
		eval.Decision = DecisionTodayWithinWindow
	default:
		eval.Decision = DecisionTodayAfterWindow
	}

	return eval, nil
}

func parseClock(value string) (int, int, error) {
	t, err := time.Parse(clockLayout, value)
	if err != nil {
		return 0, 0, err
	}
	return t.Hour(), t.Minute(), nil
}
