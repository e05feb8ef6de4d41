package actions

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"linkwatch/app/internal/config"
)

// ErrUnknownAction is returned for an id that was never registered.
var ErrUnknownAction = errors.New("actions: unknown action")

// Switcher is the subset of the scene bridge quick actions need.
type Switcher interface {
	SwitchScene(ctx context.Context, name string) error
	StartStream(ctx context.Context) error
	StopStream(ctx context.Context) error
	StreamActive(ctx context.Context) (bool, error)
}

// Handler runs one quick action and returns an operator-facing result
// message.
type Handler func(ctx context.Context) (string, error)

// Table is a static dispatch table from action id to handler, built once at
// startup from the configured actions. No handlers are added or removed at
// runtime.
type Table struct {
	handlers map[string]Handler
	labels   map[string]string
}

// Build constructs the dispatch table for the configured quick actions.
func Build(defs []config.QuickAction, sw Switcher) *Table {
	t := &Table{
		handlers: make(map[string]Handler, len(defs)),
		labels:   make(map[string]string, len(defs)),
	}
	for _, def := range defs {
		t.labels[def.ID] = def.Label
		switch def.Kind {
		case "stop_stream":
			t.handlers[def.ID] = func(ctx context.Context) (string, error) {
				active, err := sw.StreamActive(ctx)
				if err != nil {
					return "", err
				}
				if !active {
					return "Stream is not live", nil
				}
				if err := sw.StopStream(ctx); err != nil {
					return "", err
				}
				return "Stream stopped", nil
			}
		case "start_stream":
			t.handlers[def.ID] = func(ctx context.Context) (string, error) {
				active, err := sw.StreamActive(ctx)
				if err != nil {
					return "", err
				}
				if active {
					return "Stream is already live", nil
				}
				if err := sw.StartStream(ctx); err != nil {
					return "", err
				}
				return "Stream started", nil
			}
		default:
			scene := def.Scene
			t.handlers[def.ID] = func(ctx context.Context) (string, error) {
				if err := sw.SwitchScene(ctx, scene); err != nil {
					return "", err
				}
				return fmt.Sprintf("Switched to %s", scene), nil
			}
		}
	}
	return t
}

// Dispatch runs the action registered under id.
func (t *Table) Dispatch(ctx context.Context, id string) (string, error) {
	h, ok := t.handlers[id]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, id)
	}
	return h(ctx)
}

// IDs lists the registered action ids, sorted.
func (t *Table) IDs() []string {
	ids := make([]string, 0, len(t.handlers))
	for id := range t.handlers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Label returns the display label for an action id.
func (t *Table) Label(id string) string {
	return t.labels[id]
}
