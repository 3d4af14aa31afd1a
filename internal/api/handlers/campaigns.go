package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/acme/voice-campaign-manager/internal/domain"
	"github.com/acme/voice-campaign-manager/internal/scheduler"
	campaignsvc "github.com/acme/voice-campaign-manager/internal/service/campaign"
)

type contactRequest struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
	ProjectName string `json:"project_name"`
	UnitNumber  string `json:"unit_number"`
}

type createCampaignRequest struct {
	Name          string           `json:"name"`
	TimeZone      string           `json:"timezone"`
	Date          string           `json:"date"`
	StartTime     string           `json:"start_time"`
	EndTime       string           `json:"end_time"`
	AssistantID   string           `json:"assistant_id"`
	PhoneNumberID string           `json:"phone_number_id"`
	Contacts      []contactRequest `json:"contacts"`
}

type campaignResponse struct {
	ID             uuid.UUID             `json:"id"`
	Name           string                `json:"name"`
	TimeZone       string                `json:"timezone"`
	Date           string                `json:"date"`
	StartTime      string                `json:"start_time"`
	EndTime        string                `json:"end_time"`
	AssistantID    string                `json:"assistant_id"`
	PhoneNumberID  string                `json:"phone_number_id"`
	Status         domain.CampaignStatus `json:"status"`
	TotalContacts  int                   `json:"total_contacts"`
	ContactsCalled int                   `json:"contacts_called"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
	StartedAt      *time.Time            `json:"started_at,omitempty"`
	CompletedAt    *time.Time            `json:"completed_at,omitempty"`
}

type listCampaignsResponse struct {
	Campaigns []campaignResponse `json:"campaigns"`
}

type contactResponse struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	PhoneNumber string     `json:"phone_number"`
	ProjectName string     `json:"project_name,omitempty"`
	UnitNumber  string     `json:"unit_number,omitempty"`
	Called      bool       `json:"called"`
	CallID      *string    `json:"call_id,omitempty"`
	CallStatus  *string    `json:"call_status,omitempty"`
	CallError   *string    `json:"call_error,omitempty"`
	CalledAt    *time.Time `json:"called_at,omitempty"`
}

type scheduleCampaignRequest struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	TimeZone  string `json:"timezone"`
}

type scheduleCampaignResponse struct {
	Status  string     `json:"status"`
	Message string     `json:"message"`
	RunAt   *time.Time `json:"run_at,omitempty"`
}

func (h *HandlerSet) createCampaign(ctx *fiber.Ctx) error {
	var req createCampaignRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request body")
	}

	input := campaignsvc.CreateCampaignInput{
		Name:          req.Name,
		TimeZone:      req.TimeZone,
		Date:          req.Date,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		AssistantID:   req.AssistantID,
		PhoneNumberID: req.PhoneNumberID,
		Contacts:      make([]campaignsvc.ContactInput, 0, len(req.Contacts)),
	}
	for _, c := range req.Contacts {
		input.Contacts = append(input.Contacts, campaignsvc.ContactInput{
			Name:        c.Name,
			PhoneNumber: c.PhoneNumber,
			ProjectName: c.ProjectName,
			UnitNumber:  c.UnitNumber,
		})
	}

	campaign, err := h.campaigns.Create(ctx.Context(), input)
	if err != nil {
		return translateError(err)
	}

	return ctx.Status(http.StatusCreated).JSON(toCampaignResponse(campaign))
}

func (h *HandlerSet) listCampaigns(ctx *fiber.Ctx) error {
	limit, _ := strconv.Atoi(ctx.Query("limit", "50"))
	var afterID *uuid.UUID
	if afterStr := ctx.Query("after_id"); afterStr != "" {
		if id, err := uuid.Parse(afterStr); err == nil {
			afterID = &id
		}
	}

	campaigns, err := h.campaigns.List(ctx.Context(), afterID, limit)
	if err != nil {
		return translateError(err)
	}

	resp := listCampaignsResponse{Campaigns: make([]campaignResponse, 0, len(campaigns))}
	for _, c := range campaigns {
		resp.Campaigns = append(resp.Campaigns, toCampaignResponse(c))
	}

	return ctx.Status(http.StatusOK).JSON(resp)
}

func (h *HandlerSet) getCampaign(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid campaign id")
	}

	campaign, err := h.campaigns.Get(ctx.Context(), id)
	if err != nil {
		return translateError(err)
	}

	return ctx.Status(http.StatusOK).JSON(toCampaignResponse(campaign))
}

func (h *HandlerSet) listContacts(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid campaign id")
	}

	contacts, err := h.campaigns.Contacts(ctx.Context(), id)
	if err != nil {
		return translateError(err)
	}

	resp := make([]contactResponse, 0, len(contacts))
	for _, c := range contacts {
		resp = append(resp, contactResponse{
			ID:          c.ID,
			Name:        c.Name,
			PhoneNumber: c.PhoneNumber,
			ProjectName: c.ProjectName,
			UnitNumber:  c.UnitNumber,
			Called:      c.Called,
			CallID:      c.CallID,
			CallStatus:  c.CallStatus,
			CallError:   c.CallError,
			CalledAt:    c.CalledAt,
		})
	}

	return ctx.Status(http.StatusOK).JSON(fiber.Map{"contacts": resp})
}

func (h *HandlerSet) scheduleCampaign(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid campaign id")
	}

	var req scheduleCampaignRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request body")
	}

	result, err := h.scheduler.ScheduleOrRun(ctx.Context(), scheduler.ScheduleRequest{
		CampaignID: id,
		Date:       req.Date,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		TimeZone:   req.TimeZone,
	})
	if err != nil {
		return translateError(err)
	}

	return ctx.Status(http.StatusOK).JSON(scheduleCampaignResponse{
		Status:  string(result.Outcome),
		Message: result.Message,
		RunAt:   result.RunAt,
	})
}

func (h *HandlerSet) endCampaign(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid campaign id")
	}

	if err := h.campaigns.End(ctx.Context(), id); err != nil {
		return translateError(err)
	}

	return ctx.Status(http.StatusOK).JSON(fiber.Map{"status": "ended"})
}

func toCampaignResponse(campaign *domain.Campaign) campaignResponse {
	return campaignResponse{
		ID:             campaign.ID,
		Name:           campaign.Name,
		TimeZone:       campaign.TimeZone,
		Date:           campaign.Date,
		StartTime:      campaign.StartTime,
		EndTime:        campaign.EndTime,
		AssistantID:    campaign.AssistantID,
		PhoneNumberID:  campaign.PhoneNumberID,
		Status:         campaign.Status,
		TotalContacts:  campaign.TotalContacts,
		ContactsCalled: campaign.ContactsCalled,
		CreatedAt:      campaign.CreatedAt,
		UpdatedAt:      campaign.UpdatedAt,
		StartedAt:      campaign.StartedAt,
		CompletedAt:    campaign.CompletedAt,
	}
}
