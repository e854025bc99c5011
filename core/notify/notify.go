package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Level is the severity of a notification.
type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

// Notification is one user-visible message about a module.
type Notification struct {
	Level   Level     `json:"level"`
	Module  string    `json:"module"`
	Message string    `json:"message"`
	Err     string    `json:"error,omitempty"`
	At      time.Time `json:"at"`
}

// Notifier receives notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, n Notification)

func (f Func) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// LogNotifier writes notifications to a zap logger.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier returns a notifier that logs through l.
func NewLogNotifier(l *zap.Logger) *LogNotifier {
	if l == nil {
		l = zap.NewNop()
	}
	return &LogNotifier{logger: l}
}

func (n *LogNotifier) Notify(_ context.Context, note Notification) {
	fields := []zap.Field{zap.String("module", note.Module)}
	if note.Err != "" {
		fields = append(fields, zap.String("error", note.Err))
	}
	switch note.Level {
	case LevelError:
		n.logger.Error(note.Message, fields...)
	case LevelWarning:
		n.logger.Warn(note.Message, fields...)
	default:
		n.logger.Info(note.Message, fields...)
	}
}

// DefaultCapacity is the number of notifications a Recorder keeps.
const DefaultCapacity = 100

// Recorder keeps the most recent notifications in memory.
type Recorder struct {
	mu       sync.RWMutex
	capacity int
	items    []Notification
	total    int
}

// NewRecorder returns a recorder holding at most capacity entries.
func NewRecorder(capacity int) *Recorder {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Recorder{capacity: capacity}
}

func (r *Recorder) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.total++
	if len(r.items) == r.capacity {
		copy(r.items, r.items[1:])
		r.items = r.items[:len(r.items)-1]
	}
	r.items = append(r.items, n)
}

// List returns the retained notifications, oldest first.
func (r *Recorder) List() []Notification {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Notification(nil), r.items...)
}

// Total returns how many notifications were ever received.
func (r *Recorder) Total() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.total
}

// Multi fans notifications out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) {
	for _, target := range m {
		if target != nil {
			target.Notify(ctx, n)
		}
	}
}
