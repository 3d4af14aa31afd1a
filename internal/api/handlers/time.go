package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

type currentTimeRequest struct {
	TimeZone string `json:"timezone"`
}

type currentTimeResponse struct {
	TimeZone    string `json:"timezone"`
	CurrentTime string `json:"current_time"`
	UTCOffset   string `json:"utc_offset"`
}

// currentTime reports the wall-clock time in a requested zone. Assistants
// call this mid-conversation to quote local time to the contact.
func (h *HandlerSet) currentTime(ctx *fiber.Ctx) error {
	var req currentTimeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request body")
	}
	if req.TimeZone == "" {
		req.TimeZone = "UTC"
	}

	loc, err := time.LoadLocation(req.TimeZone)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "unknown time zone")
	}

	now := time.Now().In(loc)
	return ctx.Status(http.StatusOK).JSON(currentTimeResponse{
		TimeZone:    req.TimeZone,
		CurrentTime: now.Format(time.RFC3339),
		UTCOffset:   now.Format("-07:00"),
	})
}
