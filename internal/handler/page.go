package handler

import (
	"bytes"

	"github.com/gofiber/fiber/v3"

	"github.com/mathieu-neron/pumpwatch/internal/middleware"
	"github.com/mathieu-neron/pumpwatch/internal/render"
	"github.com/mathieu-neron/pumpwatch/internal/service"
)

// PageHandler serves the HTML dashboard.
type PageHandler struct {
	dash     *service.Dashboard
	renderer *render.Renderer
}

func NewPageHandler(dash *service.Dashboard, renderer *render.Renderer) *PageHandler {
	return &PageHandler{dash: dash, renderer: renderer}
}

// Index handles GET /
// Optional q, filter and page parameters are applied to the shared state
// before rendering, so plain links and bookmarks work without JavaScript.
func (h *PageHandler) Index(c fiber.Ctx) error {
	view := h.dash.View()

	if c.Request().URI().QueryArgs().Has("q") {
		term, errMsg := middleware.ValidateSearchTerm(fiber.Query[string](c, "q"))
		if errMsg != "" {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_PARAM", errMsg)
		}
		view = h.dash.Search(term)
	}
	if raw := fiber.Query[string](c, "filter"); raw != "" {
		f, errMsg := middleware.ValidateFilter(raw)
		if errMsg != "" {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FILTER", errMsg)
		}
		view = h.dash.SetFilter(f)
	}
	if raw := fiber.Query[string](c, "page"); raw != "" {
		page, errMsg := middleware.ValidatePage(raw)
		if errMsg != "" {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_PAGE", errMsg)
		}
		// Out-of-range pages keep the current page.
		view, _ = h.dash.GoToPage(page)
	}

	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, view); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "RENDER_FAILED", "Failed to render dashboard")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(buf.Bytes())
}
