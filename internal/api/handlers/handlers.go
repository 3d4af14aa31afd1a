package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/acme/voice-campaign-manager/internal/app"
	"github.com/acme/voice-campaign-manager/internal/domain"
	"github.com/acme/voice-campaign-manager/internal/queue"
	"github.com/acme/voice-campaign-manager/internal/scheduler"
	campaignsvc "github.com/acme/voice-campaign-manager/internal/service/campaign"
	reportsvc "github.com/acme/voice-campaign-manager/internal/service/report"
	"github.com/acme/voice-campaign-manager/pkg/logger"
)

// CampaignService is the campaign lifecycle surface the handlers need.
type CampaignService interface {
	Create(ctx context.Context, input campaignsvc.CreateCampaignInput) (*domain.Campaign, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Campaign, error)
	List(ctx context.Context, afterID *uuid.UUID, limit int) ([]*domain.Campaign, error)
	Contacts(ctx context.Context, campaignID uuid.UUID) ([]domain.Contact, error)
	End(ctx context.Context, id uuid.UUID) error
}

// SchedulerService decides whether a campaign runs now, later, or not at all.
type SchedulerService interface {
	ScheduleOrRun(ctx context.Context, req scheduler.ScheduleRequest) (scheduler.Result, error)
}

// ReportService reads end-of-call reports.
type ReportService interface {
	Get(ctx context.Context, callID string) (*domain.CallReport, error)
	ListByCampaign(ctx context.Context, campaignID uuid.UUID, limit int, token string) (*reportsvc.Page, error)
}

// ReportPublisher forwards webhook reports to the queue.
type ReportPublisher interface {
	PublishReport(ctx context.Context, msg queue.ReportMessage) error
}

// HandlerSet bundles all HTTP handlers.
type HandlerSet struct {
	logger    *logger.Logger
	campaigns CampaignService
	scheduler SchedulerService
	reports   ReportService
	publisher ReportPublisher
	health    func(ctx context.Context) map[string]string
}

// NewHandlerSet creates a new handler bundle.
func NewHandlerSet(container *app.Container) *HandlerSet {
	services := container.Services()
	return &HandlerSet{
		logger:    container.Logger,
		campaigns: services.Campaign,
		scheduler: services.Scheduler,
		reports:   services.Report,
		publisher: services.ReportPublisher,
		health:    container.HealthCheck,
	}
}

// Register wires all routes onto the fiber app.
func (h *HandlerSet) Register(app *fiber.App) {
	app.Get("/healthz", h.healthz)
	app.Post("/current_time", h.currentTime)
	app.Post("/webhooks/voice", h.voiceWebhook)

	api := app.Group("/api")
	v1 := api.Group("/v1")

	campaigns := v1.Group("/campaigns")
	campaigns.Post("/", h.createCampaign)
	campaigns.Get("/", h.listCampaigns)
	campaigns.Get("/:id", h.getCampaign)
	campaigns.Get("/:id/contacts", h.listContacts)
	campaigns.Post("/:id/schedule", h.scheduleCampaign)
	campaigns.Post("/:id/end", h.endCampaign)
	campaigns.Get("/:id/calls", h.listCampaignCalls)

	calls := v1.Group("/calls")
	calls.Get("/:id", h.getCall)
}

// ErrorHandler provides centralized error responses.
func (h *HandlerSet) ErrorHandler(ctx *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()

	if fiberErr, ok := err.(*fiber.Error); ok {
		code = fiberErr.Code
		message = fiberErr.Message
	}

	if code == fiber.StatusInternalServerError {
		h.logger.Error("request failed", zap.Error(err))
	}

	return ctx.Status(code).JSON(fiber.Map{
		"error":    message,
		"trace_id": ctx.GetRespHeader("Trace-Id"),
	})
}

func (h *HandlerSet) healthz(ctx *fiber.Ctx) error {
	errs := map[string]string{}
	if h.health != nil {
		errs = h.health(ctx.Context())
	}

	status := fiber.StatusOK
	if len(errs) > 0 {
		status = fiber.StatusServiceUnavailable
	}

	return ctx.Status(status).JSON(fiber.Map{"status": "ok", "errors": errs})
}
