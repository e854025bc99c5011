package engine

import (
	"time"

	"module-loader/core/fallback"
	"module-loader/core/notify"
	"module-loader/core/registry"
	"module-loader/core/retry"
	"module-loader/core/source"

	"go.uber.org/zap"
)

const (
	DefaultTimeout         = 10 * time.Second
	DefaultPriorityTimeout = 30 * time.Second
	DefaultInitTimeout     = 15 * time.Second
	DefaultConcurrency     = 5
)

// Options configures an Engine. Registry and Source are required.
type Options struct {
	Registry  *registry.Registry
	Source    source.Source
	Overrides map[string]string

	Policy    retry.Policy
	History   *retry.History
	Fallbacks *fallback.Factory
	Notifier  notify.Notifier
	Logger    *zap.Logger

	// Timeout bounds a single fetch attempt.
	Timeout time.Duration
	// PriorityTimeout bounds a fetch attempt for priority-list modules.
	PriorityTimeout time.Duration
	// InitTimeout bounds a module's initialize step.
	InitTimeout time.Duration
	// Concurrency is the chunk size for ordinary modules in LoadMany.
	Concurrency int
}

// LoadOptions tunes a single Load call. Zero values use engine defaults.
type LoadOptions struct {
	// Required modules surface a notification on permanent failure. Callers
	// joining an in-flight load add their flag to it.
	Required bool
	// Timeout bounds each fetch attempt.
	Timeout time.Duration
	// MaxRetries is the attempt budget for this load.
	MaxRetries int
	// SkipCache ignores a completed cached value.
	SkipCache bool
	// BypassCircularCheck disables the ancestor-chain and wait-for checks.
	// Callers that set it must bound the call with a context deadline.
	BypassCircularCheck bool
}

// BatchOptions tunes LoadMany.
type BatchOptions struct {
	LoadOptions
	// IgnoreErrors keeps required-module failures out of the returned error.
	IgnoreErrors bool
	// Concurrency overrides the chunk size for ordinary modules.
	Concurrency int
	// PriorityTimeout overrides the fetch timeout for priority modules.
	PriorityTimeout time.Duration
	// InitTimeout overrides the initialize timeout for priority modules.
	InitTimeout time.Duration
}
