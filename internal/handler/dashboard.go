package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/mathieu-neron/pumpwatch/internal/middleware"
	"github.com/mathieu-neron/pumpwatch/internal/service"
)

// DashboardHandler exposes the shared dashboard state.
type DashboardHandler struct {
	dash      *service.Dashboard
	refresher *service.Refresher
}

func NewDashboardHandler(dash *service.Dashboard, refresher *service.Refresher) *DashboardHandler {
	return &DashboardHandler{dash: dash, refresher: refresher}
}

type searchRequest struct {
	Term string `json:"term"`
}

type filterRequest struct {
	Filter string `json:"filter"`
}

// View handles GET /api/dashboard
func (h *DashboardHandler) View(c fiber.Ctx) error {
	return c.JSON(h.dash.View())
}

// Search handles POST /api/dashboard/search
func (h *DashboardHandler) Search(c fiber.Ctx) error {
	var req searchRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}
	term, errMsg := middleware.ValidateSearchTerm(req.Term)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	return c.JSON(h.dash.Search(term))
}

// Filter handles POST /api/dashboard/filter
func (h *DashboardHandler) Filter(c fiber.Ctx) error {
	var req filterRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}
	filter, errMsg := middleware.ValidateFilter(req.Filter)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FILTER", errMsg)
	}
	return c.JSON(h.dash.SetFilter(filter))
}

// Page handles POST /api/dashboard/page/:page
func (h *DashboardHandler) Page(c fiber.Ctx) error {
	page, errMsg := middleware.ValidatePage(c.Params("page"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_PAGE", errMsg)
	}
	view, ok := h.dash.GoToPage(page)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_PAGE", "page is out of range")
	}
	return c.JSON(view)
}

// Refresh handles POST /api/refresh. The cycle runs in the request's
// goroutine, concurrently with any timer-driven cycle.
func (h *DashboardHandler) Refresh(c fiber.Ctx) error {
	status := h.refresher.RefreshNow(c.Context(), service.TriggerManual)
	return c.JSON(fiber.Map{
		"refresh": status,
		"view":    h.dash.View(),
	})
}
