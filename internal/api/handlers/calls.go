package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/acme/voice-campaign-manager/internal/domain"
)

type callReportResponse struct {
	CallID       string    `json:"call_id"`
	CampaignID   string    `json:"campaign_id,omitempty"`
	PhoneNumber  string    `json:"phone_number,omitempty"`
	EndedReason  string    `json:"ended_reason,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	EndedAt      time.Time `json:"ended_at"`
	DurationMs   int64     `json:"duration_ms"`
	RecordingURL string    `json:"recording_url,omitempty"`
	Transcript   string    `json:"transcript,omitempty"`
	ReceivedAt   time.Time `json:"received_at"`
}

type listCallsResponse struct {
	Calls    []callReportResponse `json:"calls"`
	NextPage string               `json:"next_page_token,omitempty"`
}

func (h *HandlerSet) listCampaignCalls(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid campaign id")
	}

	limit, _ := strconv.Atoi(ctx.Query("limit", "100"))
	token := ctx.Query("page_token", "")

	page, err := h.reports.ListByCampaign(ctx.Context(), id, limit, token)
	if err != nil {
		return translateError(err)
	}

	resp := listCallsResponse{Calls: make([]callReportResponse, 0, len(page.Reports)), NextPage: page.NextToken}
	for _, r := range page.Reports {
		resp.Calls = append(resp.Calls, toCallReportResponse(r))
	}

	return ctx.Status(http.StatusOK).JSON(resp)
}

func (h *HandlerSet) getCall(ctx *fiber.Ctx) error {
	report, err := h.reports.Get(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return translateError(err)
	}

	return ctx.Status(http.StatusOK).JSON(toCallReportResponse(*report))
}

func toCallReportResponse(r domain.CallReport) callReportResponse {
	return callReportResponse{
		CallID:       r.CallID,
		CampaignID:   r.CampaignID,
		PhoneNumber:  r.PhoneNumber,
		EndedReason:  r.EndedReason,
		StartedAt:    r.StartedAt,
		EndedAt:      r.EndedAt,
		DurationMs:   r.DurationMs,
		RecordingURL: r.RecordingURL,
		Transcript:   r.Transcript,
		ReceivedAt:   r.ReceivedAt,
	}
}
