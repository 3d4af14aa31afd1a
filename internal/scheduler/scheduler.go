package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/acme/voice-campaign-manager/internal/domain"
	"github.com/acme/voice-campaign-manager/internal/repository"
	"github.com/acme/voice-campaign-manager/internal/schedule"
	"github.com/acme/voice-campaign-manager/pkg/logger"
)

// Outcome is the business result of a scheduling request.
type Outcome string

const (
	// OutcomeScheduled means the run was registered for a future instant.
	OutcomeScheduled Outcome = "scheduled"
	// OutcomeStarted means the run was launched immediately.
	OutcomeStarted Outcome = "started"
	// OutcomeEnded means the window was unusable and the campaign was
	// marked ended.
	OutcomeEnded Outcome = "ended"
)

// ScheduleRequest carries the campaign and its calling window. The window
// travels in the request rather than on the stored campaign so callers can
// reschedule with corrected fields.
type ScheduleRequest struct {
	CampaignID uuid.UUID
	Date       string // 2006-01-02
	StartTime  string // 15:04
	EndTime    string // 15:04
	TimeZone   string // IANA name
}

// Result reports what the scheduler decided and when a deferred run fires.
type Result struct {
	Outcome Outcome
	Message string
	RunAt   *time.Time
}

// Runner launches the dispatch loop for one campaign.
type Runner interface {
	Run(ctx context.Context, campaignID uuid.UUID) error
}

// Scheduler decides, per campaign window, whether to run now, defer, or
// mark the campaign ended.
type Scheduler struct {
	campaigns repository.CampaignRepository
	triggers  schedule.TriggerRegistry
	runner    Runner
	logger    *logger.Logger

	now func() time.Time
}

// New constructs a scheduler.
func New(
	campaigns repository.CampaignRepository,
	triggers schedule.TriggerRegistry,
	runner Runner,
	lg *logger.Logger,
) *Scheduler {
	return &Scheduler{
		campaigns: campaigns,
		triggers:  triggers,
		runner:    runner,
		logger:    lg,
		now:       time.Now,
	}
}

// ScheduleOrRun evaluates the campaign's calling window against the current
// instant and takes exactly one action:
//
//   - window already over, on a past day, or invalid: the campaign is
//     marked ended and no call is ever placed;
//   - window opens later (today or a future day): a one-shot trigger is
//     registered at the window's start instant;
//   - currently inside the window: the run is launched immediately on a
//     supervised goroutine.
//
// A malformed window field returns a validation error and writes nothing.
// A trigger-registration failure also writes nothing, so the caller can
// retry the request as-is.
func (s *Scheduler) ScheduleOrRun(ctx context.Context, req ScheduleRequest) (Result, error) {
	tracer := otel.Tracer("voicecampaign.scheduler")
	ctx, span := tracer.Start(ctx, "campaign.schedule", trace.WithAttributes(
		attribute.String("campaign.id", req.CampaignID.String()),
	))
	defer span.End()

	if _, err := s.campaigns.Get(ctx, req.CampaignID); err != nil {
		span.RecordError(err)
		return Result{}, fmt.Errorf("scheduler: load campaign: %w", err)
	}

	eval, err := schedule.Evaluate(schedule.Window{
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		TimeZone:  req.TimeZone,
	}, s.now())
	if err != nil {
		span.RecordError(err)
		return Result{}, err
	}
	span.SetAttributes(attribute.String("window.decision", string(eval.Decision)))

	switch eval.Decision {
	case schedule.DecisionInvalidWindow, schedule.DecisionPastDay, schedule.DecisionTodayAfterWindow:
		return s.end(ctx, req.CampaignID, eval.Decision)

	case schedule.DecisionFutureDay, schedule.DecisionTodayBeforeWindow:
		return s.deferRun(req.CampaignID, eval.StartAt)

	case schedule.DecisionTodayWithinWindow:
		s.launch(req.CampaignID)
		return Result{
			Outcome: OutcomeStarted,
			Message: "campaign is within its calling window, run started",
		}, nil

	default:
		return Result{}, fmt.Errorf("scheduler: unhandled window decision %q", eval.Decision)
	}
}

func (s *Scheduler) end(ctx context.Context, campaignID uuid.UUID, decision schedule.Decision) (Result, error) {
	if err := s.campaigns.UpdateStatus(ctx, campaignID, domain.CampaignStatusEnded); err != nil {
		return Result{}, fmt.Errorf("scheduler: mark ended: %w", err)
	}
	s.logger.Info("scheduler: campaign ended without running",
		zap.String("campaign_id", campaignID.String()),
		zap.String("reason", string(decision)))
	return Result{
		Outcome: OutcomeEnded,
		Message: fmt.Sprintf("calling window not usable (%s), campaign ended", decision),
	}, nil
}

func (s *Scheduler) deferRun(campaignID uuid.UUID, startAt time.Time) (Result, error) {
	_, err := s.triggers.RegisterOnce(startAt, func() {
		s.launch(campaignID)
	})
	if err != nil {
		// The campaign keeps its current status so the request can simply
		// be re-submitted.
		return Result{}, fmt.Errorf("scheduler: register trigger: %w", err)
	}
	s.logger.Info("scheduler: campaign run deferred",
		zap.String("campaign_id", campaignID.String()),
		zap.Time("run_at", startAt))
	runAt := startAt
	return Result{
		Outcome: OutcomeScheduled,
		Message: fmt.Sprintf("campaign run scheduled for %s", startAt.Format(time.RFC3339)),
		RunAt:   &runAt,
	}, nil
}

// launch starts the run on its own goroutine. The run outlives the HTTP
// request that triggered it, so it gets a fresh context; failures and
// panics surface in logs, keyed by campaign id.
func (s *Scheduler) launch(campaignID uuid.UUID) {
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("scheduler: campaign run panicked",
					zap.String("campaign_id", campaignID.String()),
					zap.Any("panic", rec))
			}
		}()
		if err := s.runner.Run(context.Background(), campaignID); err != nil {
			s.logger.Error("scheduler: campaign run failed",
				zap.Error(err),
				zap.String("campaign_id", campaignID.String()))
		}
	}()
}
