package modules

import (
	"time"

	"module-loader/core/health"
	"module-loader/core/modcache"
	"module-loader/core/module"
)

// ModuleView describes a loaded module value.
type ModuleView struct {
	Name     string   `json:"name"`
	Path     string   `json:"path,omitempty"`
	Fallback bool     `json:"fallback"`
	Deferred bool     `json:"deferred"`
	Exports  []string `json:"exports"`
	Missing  []string `json:"missing,omitempty"`
}

// RecordView is the JSON form of a cache record.
type RecordView struct {
	Path      string      `json:"path"`
	State     string      `json:"state"`
	Attempts  int         `json:"attempts"`
	Fallback  bool        `json:"fallback"`
	Error     string      `json:"error,omitempty"`
	InitError string      `json:"init_error,omitempty"`
	UpdatedAt time.Time   `json:"updated_at"`
	Module    *ModuleView `json:"module,omitempty"`
}

// CyclesReport lists what the dependency graph observed.
type CyclesReport struct {
	Dependencies map[string][]string `json:"dependencies"`
	Cycles       [][]string          `json:"cycles"`
	Circular     map[string]int      `json:"circular"`
}

// LoadRequest is the body of POST /modules/load.
type LoadRequest struct {
	References   []string `json:"references"`
	AllRequired  bool     `json:"all_required"`
	IgnoreErrors bool     `json:"ignore_errors"`
	SkipCache    bool     `json:"skip_cache"`
}

// LoadResponse reports the outcome of a batch.
type LoadResponse struct {
	Results map[string]*ModuleView `json:"results"`
	Error   string                 `json:"error,omitempty"`
	Health  health.Report          `json:"health"`
}

// ClearRequest is the body of POST /modules/clear.
type ClearRequest struct {
	Paths []string `json:"paths"`
}

// OverrideRequest is the body of PUT /modules/overrides.
type OverrideRequest struct {
	Reference string `json:"reference"`
	Path      string `json:"path"`
}

type missingReporter interface {
	Missing() []string
}

type pathReporter interface {
	Path() string
}

func viewOf(m module.Module) *ModuleView {
	if m == nil {
		return nil
	}
	v := &ModuleView{
		Name:     m.Name(),
		Fallback: module.IsFallback(m),
		Deferred: module.IsDeferred(m),
		Exports:  m.Exports(),
	}
	if p, ok := m.(pathReporter); ok {
		v.Path = p.Path()
	}
	if r, ok := m.(missingReporter); ok {
		v.Missing = r.Missing()
	}
	return v
}

func recordView(rec modcache.Record) RecordView {
	v := RecordView{
		Path:      rec.Path,
		State:     string(rec.State),
		Attempts:  rec.Attempts,
		Fallback:  rec.Fallback,
		UpdatedAt: rec.UpdatedAt,
		Module:    viewOf(rec.Value),
	}
	if rec.Err != nil {
		v.Error = rec.Err.Error()
	}
	if rec.InitErr != nil {
		v.InitError = rec.InitErr.Error()
	}
	return v
}
