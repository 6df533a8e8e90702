package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"

	"github.com/mathieu-neron/pumpwatch/internal/events"
	"github.com/mathieu-neron/pumpwatch/internal/middleware"
	"github.com/mathieu-neron/pumpwatch/internal/service"
)

// errStreamNotFound is returned by the open-stream binding.
var errStreamNotFound = errors.New("stream not found")

// EventHandler is the single entry point for interactions raised by the
// rendered dashboard.
type EventHandler struct {
	binder *events.Binder
}

func NewEventHandler(binder *events.Binder) *EventHandler {
	return &EventHandler{binder: binder}
}

// Dispatch handles POST /api/events
func (h *EventHandler) Dispatch(c fiber.Ctx) error {
	var ev events.Event
	if err := c.Bind().JSON(&ev); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}
	if ev.Action == "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "MISSING_FIELD", "action is required")
	}

	result, err := h.binder.Dispatch(c.Context(), ev)
	switch {
	case err == nil:
		return c.JSON(fiber.Map{"action": ev.Action, "result": result})
	case errors.Is(err, events.ErrUnbound):
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "UNKNOWN_ACTION", fmt.Sprintf("No handler bound for action %q", ev.Action))
	case errors.Is(err, errStreamNotFound):
		return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Stream not found in the current snapshot")
	case errors.Is(err, events.ErrInvalid):
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_EVENT", err.Error())
	default:
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Event handling failed")
	}
}

// BindDashboardEvents registers the dashboard's actions on binder. Bindings
// are made once at startup; re-rendering the page never adds handlers.
func BindDashboardEvents(binder *events.Binder, dash *service.Dashboard, streams *service.StreamService, refresher *service.Refresher) {
	binder.Bind(events.ActionOpenStream, func(_ context.Context, ev events.Event) (any, error) {
		id, errMsg := middleware.ValidateStreamID(ev.StreamID)
		if errMsg != "" {
			return nil, fmt.Errorf("%w: %s", events.ErrInvalid, errMsg)
		}
		detail, ok := streams.Detail(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", errStreamNotFound, id)
		}
		return detail, nil
	})

	binder.Bind(events.ActionSearch, func(_ context.Context, ev events.Event) (any, error) {
		term, errMsg := middleware.ValidateSearchTerm(ev.Value)
		if errMsg != "" {
			return nil, fmt.Errorf("%w: %s", events.ErrInvalid, errMsg)
		}
		return dash.Search(term), nil
	})

	binder.Bind(events.ActionFilter, func(_ context.Context, ev events.Event) (any, error) {
		f, errMsg := middleware.ValidateFilter(ev.Value)
		if errMsg != "" {
			return nil, fmt.Errorf("%w: %s", events.ErrInvalid, errMsg)
		}
		return dash.SetFilter(f), nil
	})

	binder.Bind(events.ActionPage, func(_ context.Context, ev events.Event) (any, error) {
		page, errMsg := middleware.ValidatePage(ev.Value)
		if errMsg != "" {
			return nil, fmt.Errorf("%w: %s", events.ErrInvalid, errMsg)
		}
		view, ok := dash.GoToPage(page)
		if !ok {
			return nil, fmt.Errorf("%w: page %d is out of range", events.ErrInvalid, page)
		}
		return view, nil
	})

	binder.Bind(events.ActionRefresh, func(ctx context.Context, _ events.Event) (any, error) {
		status := refresher.RefreshNow(ctx, service.TriggerEvent)
		return fiber.Map{"refresh": status, "view": dash.View()}, nil
	})
}
