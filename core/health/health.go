package health

import (
	"sort"
	"time"

	"module-loader/core/modcache"
)

// Status is the overall loader health.
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusDegraded Status = "degraded"
	StatusCritical Status = "critical"
)

// View is the state a report is built from.
type View interface {
	Records() []modcache.Record
	Cycles() [][]string
	CircularHits() map[string]int
	// NeverFallback reports whether the module recorded at path must never
	// fall back.
	NeverFallback(path string) bool
	// Unresolved lists never-fallback modules whose reference resolves to
	// no path.
	Unresolved() []string
}

// Counts tallies records by state.
type Counts struct {
	Total   int `json:"total"`
	Pending int `json:"pending"`
	Loading int `json:"loading"`
	Loaded  int `json:"loaded"`
	Failed  int `json:"failed"`
}

// Report is a point-in-time diagnostics snapshot.
type Report struct {
	Status           Status            `json:"status"`
	CanContinue      bool              `json:"can_continue"`
	Counts           Counts            `json:"counts"`
	Fallbacks        []string          `json:"fallbacks"`
	CriticalFailures []string          `json:"critical_failures"`
	Cycles           [][]string        `json:"cycles"`
	Circular         map[string]int    `json:"circular"`
	Attempts         map[string]int    `json:"attempts"`
	InitFailures     map[string]string `json:"init_failures"`
	Errors           map[string]string `json:"errors"`
	GeneratedAt      time.Time         `json:"generated_at"`
}

// Build derives a report from v.
func Build(v View) Report {
	report := Report{
		Fallbacks:        []string{},
		CriticalFailures: []string{},
		Cycles:           v.Cycles(),
		Circular:         v.CircularHits(),
		Attempts:         map[string]int{},
		InitFailures:     map[string]string{},
		Errors:           map[string]string{},
		GeneratedAt:      time.Now().UTC(),
	}
	if report.Cycles == nil {
		report.Cycles = [][]string{}
	}

	canContinue := true
	for _, name := range v.Unresolved() {
		report.CriticalFailures = append(report.CriticalFailures, name)
		canContinue = false
	}
	for _, rec := range v.Records() {
		report.Counts.Total++
		switch rec.State {
		case modcache.StatePending:
			report.Counts.Pending++
		case modcache.StateLoading:
			report.Counts.Loading++
		case modcache.StateLoaded:
			report.Counts.Loaded++
		case modcache.StateFailed:
			report.Counts.Failed++
		}
		if rec.Attempts > 0 {
			report.Attempts[rec.Path] = rec.Attempts
		}
		if rec.Fallback {
			report.Fallbacks = append(report.Fallbacks, rec.Path)
		}
		if rec.Err != nil {
			report.Errors[rec.Path] = rec.Err.Error()
		}
		if rec.InitErr != nil {
			report.InitFailures[rec.Path] = rec.InitErr.Error()
		}
		if rec.State == modcache.StateFailed && v.NeverFallback(rec.Path) {
			report.CriticalFailures = append(report.CriticalFailures, rec.Path)
			if !rec.Fallback {
				canContinue = false
			}
		}
	}
	sort.Strings(report.Fallbacks)
	sort.Strings(report.CriticalFailures)

	report.CanContinue = canContinue
	switch {
	case len(report.CriticalFailures) > 0:
		report.Status = StatusCritical
	case len(report.Fallbacks) > 0 || len(report.InitFailures) > 0:
		report.Status = StatusDegraded
	default:
		report.Status = StatusHealthy
	}
	return report
}
