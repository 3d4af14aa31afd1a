package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/acme/voice-campaign-manager/internal/queue"
)

// voiceWebhookRequest mirrors the provider's webhook envelope. Only
// end-of-call reports are processed; everything else is acknowledged and
// dropped.
type voiceWebhookRequest struct {
	Message struct {
		Type string `json:"type"`
		Call struct {
			ID       string         `json:"id"`
			Metadata map[string]any `json:"metadata"`
			Customer struct {
				Number string `json:"number"`
			} `json:"customer"`
		} `json:"call"`
		Status       string     `json:"status"`
		EndedReason  string     `json:"endedReason"`
		StartedAt    *time.Time `json:"startedAt"`
		EndedAt      *time.Time `json:"endedAt"`
		DurationMs   int64      `json:"durationMs"`
		RecordingURL string     `json:"recordingUrl"`
		Transcript   string     `json:"transcript"`
	} `json:"message"`
}

func (h *HandlerSet) voiceWebhook(ctx *fiber.Ctx) error {
	var req voiceWebhookRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid webhook body")
	}

	if req.Message.Type != "end-of-call-report" {
		return ctx.Status(http.StatusOK).JSON(fiber.Map{"status": "ignored"})
	}
	if req.Message.Call.ID == "" {
		return fiber.NewError(http.StatusBadRequest, "report without call id")
	}

	msg := queue.ReportMessage{
		CallID:       req.Message.Call.ID,
		PhoneNumber:  req.Message.Call.Customer.Number,
		Status:       req.Message.Status,
		EndedReason:  req.Message.EndedReason,
		DurationMs:   req.Message.DurationMs,
		RecordingURL: req.Message.RecordingURL,
		Transcript:   req.Message.Transcript,
		Payload:      append([]byte(nil), ctx.Body()...),
		ReceivedAt:   time.Now().UTC(),
	}
	if req.Message.StartedAt != nil {
		msg.StartedAt = *req.Message.StartedAt
	}
	if req.Message.EndedAt != nil {
		msg.EndedAt = *req.Message.EndedAt
	}
	if v, ok := req.Message.Call.Metadata["campaign_id"].(string); ok {
		msg.CampaignID = v
	}
	if v, ok := req.Message.Call.Metadata["contact_id"].(string); ok {
		msg.ContactID = v
	}

	if err := h.publisher.PublishReport(ctx.Context(), msg); err != nil {
		h.logger.Error("webhook: publish report", zap.Error(err),
			zap.String("call_id", msg.CallID))
		return fiber.NewError(http.StatusServiceUnavailable, "report intake unavailable")
	}

	return ctx.Status(http.StatusOK).JSON(fiber.Map{"status": "accepted"})
}
