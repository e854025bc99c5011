package fallback

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"module-loader/core/kvstore"
	"module-loader/core/module"
	"module-loader/core/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TaskPrefix namespaces task-history entries in the store.
const TaskPrefix = "task_history."

// Task is one persisted task-history entry.
type Task struct {
	ID      string    `json:"id"`
	Payload any       `json:"payload"`
	Created time.Time `json:"created"`
}

type taskHistory struct {
	fb    *Fallback
	store kvstore.Store
}

func (f *Factory) newTaskHistory(fb *Fallback) map[string]module.Export {
	h := &taskHistory{fb: fb, store: f.store}
	return map[string]module.Export{
		"add":    h.add,
		"list":   h.list,
		"get":    h.get,
		"remove": h.remove,
		"clear":  h.clear,
	}
}

// add stores args[0] and returns the new task id. Ids are time-ordered.
func (h *taskHistory) add(ctx context.Context, args ...any) (any, error) {
	var payload any
	if len(args) > 0 {
		payload = args[0]
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to allocate task id: %w", err)
	}
	task := Task{ID: id.String(), Payload: payload, Created: time.Now().UTC()}
	data, err := json.Marshal(task)
	if err != nil {
		return nil, fmt.Errorf("task payload is not serializable: %w", err)
	}
	if err := h.store.Set(ctx, TaskPrefix+task.ID, string(data)); err != nil {
		return nil, err
	}
	return task.ID, nil
}

// list returns tasks oldest first, limited to args[0] most recent when set.
func (h *taskHistory) list(ctx context.Context, args ...any) (any, error) {
	keys, err := h.store.Keys(ctx, TaskPrefix)
	if err != nil {
		return nil, err
	}
	if len(args) > 0 {
		if limit := utils.ToInt(args[0]); limit > 0 && limit < len(keys) {
			keys = keys[len(keys)-limit:]
		}
	}
	tasks := make([]Task, 0, len(keys))
	for _, key := range keys {
		task, ok, err := h.load(ctx, key)
		if err != nil {
			return nil, err
		}
		if ok {
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

func (h *taskHistory) get(ctx context.Context, args ...any) (any, error) {
	if len(args) == 0 {
		return nil, nil
	}
	task, ok, err := h.load(ctx, TaskPrefix+utils.ToString(args[0]))
	if err != nil || !ok {
		return nil, err
	}
	return task, nil
}

func (h *taskHistory) remove(ctx context.Context, args ...any) (any, error) {
	if len(args) == 0 {
		return false, nil
	}
	key := TaskPrefix + utils.ToString(args[0])
	_, ok, err := h.store.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	return true, h.store.Remove(ctx, key)
}

func (h *taskHistory) clear(ctx context.Context, _ ...any) (any, error) {
	keys, err := h.store.Keys(ctx, TaskPrefix)
	if err != nil {
		return 0, err
	}
	for _, key := range keys {
		if err := h.store.Remove(ctx, key); err != nil {
			return 0, err
		}
	}
	return len(keys), nil
}

func (h *taskHistory) load(ctx context.Context, key string) (Task, bool, error) {
	raw, ok, err := h.store.Get(ctx, key)
	if err != nil || !ok {
		return Task{}, false, err
	}
	var task Task
	if err := json.Unmarshal([]byte(raw), &task); err != nil {
		h.fb.logger.Warn("Skipping corrupt task history entry",
			zap.String("module", h.fb.name),
			zap.String("key", key),
			zap.Error(err))
		return Task{}, false, nil
	}
	return task, true, nil
}
