package fallback

import (
	"context"
	"fmt"
	"sync"

	"module-loader/core/module"
	"module-loader/core/utils"
)

type listener struct {
	id      int
	once    bool
	handler module.Export
}

// eventBus is the in-memory stand-in for an event bus module.
type eventBus struct {
	mu        sync.Mutex
	nextID    int
	listeners map[string][]listener
}

func newEventBus(*Fallback) map[string]module.Export {
	bus := &eventBus{listeners: make(map[string][]listener)}
	return map[string]module.Export{
		"on":            bus.on,
		"once":          bus.once,
		"off":           bus.off,
		"emit":          bus.emit,
		"listenerCount": bus.listenerCount,
	}
}

// handlerOf accepts the callable shapes a caller may register.
func handlerOf(v any) (module.Export, error) {
	switch h := v.(type) {
	case module.Export:
		return h, nil
	case func(context.Context, ...any) (any, error):
		return h, nil
	case func(...any):
		return func(_ context.Context, args ...any) (any, error) {
			h(args...)
			return nil, nil
		}, nil
	case func():
		return func(context.Context, ...any) (any, error) {
			h()
			return nil, nil
		}, nil
	default:
		return nil, fmt.Errorf("unsupported handler type %T", v)
	}
}

func (b *eventBus) subscribe(args []any, once bool) (any, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("expected event name and handler")
	}
	event := utils.ToString(args[0])
	handler, err := handlerOf(args[1])
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.listeners[event] = append(b.listeners[event], listener{id: b.nextID, once: once, handler: handler})
	return b.nextID, nil
}

func (b *eventBus) on(_ context.Context, args ...any) (any, error) {
	return b.subscribe(args, false)
}

func (b *eventBus) once(_ context.Context, args ...any) (any, error) {
	return b.subscribe(args, true)
}

// off removes one subscription by id, or every listener of the event when
// no id is given. It returns the number removed.
func (b *eventBus) off(_ context.Context, args ...any) (any, error) {
	if len(args) == 0 {
		return 0, nil
	}
	event := utils.ToString(args[0])
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(args) == 1 {
		removed := len(b.listeners[event])
		delete(b.listeners, event)
		return removed, nil
	}
	id := utils.ToInt(args[1])
	kept := b.listeners[event][:0]
	removed := 0
	for _, l := range b.listeners[event] {
		if l.id == id {
			removed++
			continue
		}
		kept = append(kept, l)
	}
	b.listeners[event] = kept
	return removed, nil
}

// emit calls every listener of the event in subscription order and returns
// how many were called. Listener errors are collected, not fatal.
func (b *eventBus) emit(ctx context.Context, args ...any) (any, error) {
	if len(args) == 0 {
		return 0, nil
	}
	event := utils.ToString(args[0])

	b.mu.Lock()
	current := append([]listener(nil), b.listeners[event]...)
	kept := b.listeners[event][:0]
	for _, l := range b.listeners[event] {
		if !l.once {
			kept = append(kept, l)
		}
	}
	b.listeners[event] = kept
	b.mu.Unlock()

	var errs []error
	for _, l := range current {
		if _, err := l.handler(ctx, args[1:]...); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return len(current), fmt.Errorf("%d listener(s) failed for %s: %w", len(errs), event, errs[0])
	}
	return len(current), nil
}

func (b *eventBus) listenerCount(_ context.Context, args ...any) (any, error) {
	if len(args) == 0 {
		return 0, nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners[utils.ToString(args[0])]), nil
}
