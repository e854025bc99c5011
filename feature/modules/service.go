package modules

import (
	"context"
	"errors"
	"strings"

	"module-loader/core/engine"
	"module-loader/core/health"
	"module-loader/core/module"
	"module-loader/core/notify"

	"go.uber.org/zap"
)

// ErrNoReferences is returned for an empty load request.
var ErrNoReferences = errors.New("no module references given")

// Service adapts the engine to the HTTP surface.
type Service struct {
	engine *engine.Engine
	notes  *notify.Recorder
	logger *zap.Logger
}

// NewService creates a modules service. notes may be nil.
func NewService(e *engine.Engine, notes *notify.Recorder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{engine: e, notes: notes, logger: logger}
}

// Published lists published modules.
func (s *Service) Published() []ModuleView {
	names := s.engine.Published()
	out := make([]ModuleView, 0, len(names))
	for _, name := range names {
		if m, ok := s.engine.Lookup(name); ok {
			out = append(out, *viewOf(m))
		}
	}
	return out
}

// Health returns the current health report.
func (s *Service) Health() health.Report {
	return s.engine.Health()
}

// Cycles returns the dependency graph observations.
func (s *Service) Cycles() CyclesReport {
	cycles := s.engine.Cycles()
	if cycles == nil {
		cycles = [][]string{}
	}
	return CyclesReport{
		Dependencies: s.engine.Dependencies(),
		Cycles:       cycles,
		Circular:     s.engine.CircularHits(),
	}
}

// Notifications returns the recorded notifications, oldest first.
func (s *Service) Notifications() []notify.Notification {
	if s.notes == nil {
		return []notify.Notification{}
	}
	if list := s.notes.List(); list != nil {
		return list
	}
	return []notify.Notification{}
}

// Record returns the record of ref.
func (s *Service) Record(ref string) (RecordView, bool) {
	rec, ok := s.engine.Record(ref)
	if !ok {
		return RecordView{}, false
	}
	return recordView(rec), true
}

// Load runs a batch load.
func (s *Service) Load(ctx context.Context, req LoadRequest) (LoadResponse, error) {
	refs := make([]string, 0, len(req.References))
	for _, ref := range req.References {
		if strings.TrimSpace(ref) != "" {
			refs = append(refs, ref)
		}
	}
	if len(refs) == 0 {
		return LoadResponse{}, ErrNoReferences
	}
	results, err := s.engine.LoadMany(ctx, refs, req.AllRequired, engine.BatchOptions{
		LoadOptions:  engine.LoadOptions{SkipCache: req.SkipCache},
		IgnoreErrors: req.IgnoreErrors,
	})
	if err != nil {
		s.logger.Warn("Batch load reported failures", zap.Strings("references", refs), zap.Error(err))
	}
	return s.response(results, err), nil
}

// Fix clears every failed module and loads it again.
func (s *Service) Fix(ctx context.Context) LoadResponse {
	results, err := s.engine.FixFailed(ctx)
	return s.response(results, err)
}

// Clear clears the failed state of paths, or of every failed module.
func (s *Service) Clear(ctx context.Context, paths []string) []string {
	cleared := s.engine.ClearFailed(ctx, paths...)
	if cleared == nil {
		cleared = []string{}
	}
	return cleared
}

// SetOverride maps a reference to a path.
func (s *Service) SetOverride(ref, path string) map[string]string {
	s.engine.SetOverride(ref, path)
	return s.engine.Overrides()
}

// RemoveOverride deletes the override of a reference.
func (s *Service) RemoveOverride(ref string) map[string]string {
	s.engine.RemoveOverride(ref)
	return s.engine.Overrides()
}

func (s *Service) response(results map[string]module.Module, err error) LoadResponse {
	resp := LoadResponse{
		Results: make(map[string]*ModuleView, len(results)),
		Health:  s.engine.Health(),
	}
	for name, m := range results {
		resp.Results[name] = viewOf(m)
	}
	if err != nil {
		resp.Error = err.Error()
	}
	return resp
}
