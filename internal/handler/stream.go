package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/mathieu-neron/pumpwatch/internal/middleware"
	"github.com/mathieu-neron/pumpwatch/internal/model"
	"github.com/mathieu-neron/pumpwatch/internal/service"
)

type StreamHandler struct {
	svc *service.StreamService
}

func NewStreamHandler(svc *service.StreamService) *StreamHandler {
	return &StreamHandler{svc: svc}
}

// List handles GET /api/streams?q=&filter=&page=
// It is stateless: the shared dashboard search, filter and page are untouched.
func (h *StreamHandler) List(c fiber.Ctx) error {
	q, errMsg := parseQuery(c)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_PARAM", errMsg)
	}
	return c.JSON(h.svc.List(c.Context(), q))
}

// Get handles GET /api/streams/:id
func (h *StreamHandler) Get(c fiber.Ctx) error {
	id, errMsg := middleware.ValidateStreamID(c.Params("id"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	detail, ok := h.svc.Detail(id)
	if !ok {
		return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Stream not found in the current snapshot")
	}
	return c.JSON(detail)
}

// History handles GET /api/streams/:id/history?limit=N
func (h *StreamHandler) History(c fiber.Ctx) error {
	id, errMsg := middleware.ValidateStreamID(c.Params("id"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	limit := fiber.Query[int](c, "limit")
	if limit < 0 {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_PARAM", "limit must not be negative")
	}

	samples, err := h.svc.History(c.Context(), id, limit)
	if err != nil {
		if errors.Is(err, service.ErrArchiveDisabled) {
			return middleware.ErrorResponse(c, fiber.StatusServiceUnavailable, "ARCHIVE_DISABLED", "Stream history is not being recorded")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load stream history")
	}

	return c.JSON(fiber.Map{
		"streamId": id,
		"samples":  samples,
	})
}

// parseQuery reads and validates q, filter and page from the query string.
func parseQuery(c fiber.Ctx) (model.Query, string) {
	term, errMsg := middleware.ValidateSearchTerm(fiber.Query[string](c, "q"))
	if errMsg != "" {
		return model.Query{}, errMsg
	}
	filter, errMsg := middleware.ValidateFilter(fiber.Query[string](c, "filter"))
	if errMsg != "" {
		return model.Query{}, errMsg
	}
	page, errMsg := middleware.ValidatePage(fiber.Query[string](c, "page"))
	if errMsg != "" {
		return model.Query{}, errMsg
	}
	return model.Query{Search: term, Filter: filter, Page: page}, ""
}
