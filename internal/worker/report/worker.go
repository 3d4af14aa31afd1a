package report

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/acme/voice-campaign-manager/internal/app"
	"github.com/acme/voice-campaign-manager/internal/domain"
	"github.com/acme/voice-campaign-manager/internal/queue"
)

// Worker consumes end-of-call reports and persists them.
type Worker struct {
	container *app.Container
}

// New creates a new report worker.
func New(container *app.Container) *Worker {
	return &Worker{container: container}
}

// Run processes reports until the context is cancelled. Bad payloads are
// committed and skipped; the topic is not a dead-letter queue.
func (w *Worker) Run(ctx context.Context) error {
	cfg := w.container.Config
	groupID := cfg.Kafka.ConsumerGroupID + "-report"
	reader := w.container.Kafka.NewReader(cfg.Kafka.ReportTopic, groupID)
	defer reader.Close()

	logger := w.container.Logger

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error("report worker: fetch", zap.Error(err))
			continue
		}

		var report queue.ReportMessage
		if err := json.Unmarshal(msg.Value, &report); err != nil {
			logger.Error("report worker: unmarshal", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		w.handle(ctx, report)

		if err := reader.CommitMessages(ctx, msg); err != nil {
			logger.Error("report worker: commit", zap.Error(err))
		}
	}
}

func (w *Worker) handle(ctx context.Context, report queue.ReportMessage) {
	tracer := otel.Tracer("voicecampaign.reportworker")
	ctx, span := tracer.Start(ctx, "report.persist", trace.WithAttributes(
		attribute.String("call.id", report.CallID),
		attribute.String("campaign.id", report.CampaignID),
	))
	defer span.End()

	logger := w.container.Logger
	repos := w.container.Repositories()

	record := &domain.CallReport{
		CallID:       report.CallID,
		CampaignID:   report.CampaignID,
		PhoneNumber:  report.PhoneNumber,
		StartedAt:    report.StartedAt,
		EndedAt:      report.EndedAt,
		DurationMs:   report.DurationMs,
		EndedReason:  report.EndedReason,
		RecordingURL: report.RecordingURL,
		Transcript:   report.Transcript,
		Payload:      report.Payload,
		ReceivedAt:   report.ReceivedAt,
	}
	if err := repos.Reports.Save(ctx, record); err != nil {
		span.RecordError(err)
		logger.Error("report worker: save report", zap.Error(err),
			zap.String("call_id", report.CallID))
	}

	status := report.Status
	if status == "" {
		status = report.EndedReason
	}
	if status != "" {
		if err := repos.Contact.SetCallStatusByCallID(ctx, report.CallID, status); err != nil {
			span.RecordError(err)
			logger.Error("report worker: update contact status", zap.Error(err),
				zap.String("call_id", report.CallID))
		}
	}
}
