package retry

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"module-loader/core/kvstore"
)

// HistoryKey is the store key holding the failed-module list.
const HistoryKey = "loader.failed_modules"

// History is the persisted set of permanently failed canonical paths.
type History struct {
	store kvstore.Store
	mu    sync.Mutex
}

// NewHistory returns a history backed by store.
func NewHistory(store kvstore.Store) *History {
	if store == nil {
		store = kvstore.NewMemory()
	}
	return &History{store: store}
}

func (h *History) read(ctx context.Context) (map[string]struct{}, error) {
	raw, ok, err := h.store.Get(ctx, HistoryKey)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{})
	if !ok || raw == "" {
		return set, nil
	}
	var paths []string
	if err := json.Unmarshal([]byte(raw), &paths); err != nil {
		return nil, fmt.Errorf("corrupt failed-module history: %w", err)
	}
	for _, p := range paths {
		set[p] = struct{}{}
	}
	return set, nil
}

func (h *History) write(ctx context.Context, set map[string]struct{}) error {
	if len(set) == 0 {
		return h.store.Remove(ctx, HistoryKey)
	}
	paths := make([]string, 0, len(set))
	for p := range set {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	data, err := json.Marshal(paths)
	if err != nil {
		return err
	}
	return h.store.Set(ctx, HistoryKey, string(data))
}

// MarkFailed adds path to the history.
func (h *History) MarkFailed(ctx context.Context, path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, err := h.read(ctx)
	if err != nil {
		return err
	}
	if _, ok := set[path]; ok {
		return nil
	}
	set[path] = struct{}{}
	return h.write(ctx, set)
}

// IsFailed reports whether path is in the history.
func (h *History) IsFailed(ctx context.Context, path string) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, err := h.read(ctx)
	if err != nil {
		return false, err
	}
	_, ok := set[path]
	return ok, nil
}

// Failed lists every recorded path, sorted.
func (h *History) Failed(ctx context.Context) ([]string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, err := h.read(ctx)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(set))
	for p := range set {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

// Clear removes the given paths from the history.
func (h *History) Clear(ctx context.Context, paths ...string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, err := h.read(ctx)
	if err != nil {
		return err
	}
	for _, p := range paths {
		delete(set, p)
	}
	return h.write(ctx, set)
}

// ClearAll empties the history.
func (h *History) ClearAll(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.store.Remove(ctx, HistoryKey)
}
