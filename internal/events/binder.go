// Package events is the declarative binding between dashboard markup and
// the operations behind it. Markup only carries an action name and its
// arguments as data attributes; the Binder decides what runs.
package events

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"sync"
)

// Action names a user interaction.
type Action string

const (
	ActionOpenStream Action = "open-stream"
	ActionSearch     Action = "search"
	ActionFilter     Action = "filter"
	ActionPage       Action = "page"
	ActionRefresh    Action = "refresh"
)

// ErrUnbound is returned when an event names an action nobody handles.
var ErrUnbound = errors.New("events: unbound action")

// ErrInvalid is wrapped by handlers that reject an event's arguments.
var ErrInvalid = errors.New("events: invalid event")

// Event is one dispatched interaction.
type Event struct {
	Action   Action `json:"action"`
	StreamID string `json:"streamId,omitempty"`
	Value    string `json:"value,omitempty"`
}

// Handler handles one action and returns its response payload.
type Handler func(ctx context.Context, ev Event) (any, error)

// Binder maps actions to handlers.
type Binder struct {
	mu       sync.RWMutex
	handlers map[Action]Handler
}

func NewBinder() *Binder {
	return &Binder{handlers: make(map[Action]Handler)}
}

// Bind registers h for action, replacing any previous handler.
func (b *Binder) Bind(action Action, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[action] = h
}

// Bound reports whether action has a handler.
func (b *Binder) Bound(action Action) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.handlers[action]
	return ok
}

// Dispatch runs the handler bound to ev.Action.
func (b *Binder) Dispatch(ctx context.Context, ev Event) (any, error) {
	b.mu.RLock()
	h, ok := b.handlers[ev.Action]
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnbound, ev.Action)
	}
	return h(ctx, ev)
}

// Attrs renders the data attributes that bind an element to action. The
// value is placed in data-stream-id for card clicks and data-value for
// everything else.
func Attrs(action Action, value string) template.HTMLAttr {
	key := "data-value"
	if action == ActionOpenStream {
		key = "data-stream-id"
	}
	return template.HTMLAttr(fmt.Sprintf(`data-action="%s" %s="%s"`,
		template.HTMLEscapeString(string(action)), key, template.HTMLEscapeString(value)))
}

// CardAttrs binds a stream card to the detail handler.
func CardAttrs(streamID string) template.HTMLAttr {
	return Attrs(ActionOpenStream, streamID)
}
