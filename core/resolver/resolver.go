package resolver

import (
	"path"
	"regexp"
	"sort"
	"strings"
	"sync"

	"module-loader/core/registry"
)

var (
	schemePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]*://`)
	// "name 2.js" or "name 2"
	suffixPattern = regexp.MustCompile(`^(.+?) +\d+(\.[A-Za-z0-9]+)?$`)
)

// Resolver resolves references against a registry and an override table.
type Resolver struct {
	registry *registry.Registry

	mu        sync.RWMutex
	overrides map[string]string
	cache     map[string]string
}

// New creates a resolver seeded with overrides.
func New(reg *registry.Registry, overrides map[string]string) *Resolver {
	r := &Resolver{
		registry:  reg,
		overrides: make(map[string]string, len(overrides)),
		cache:     make(map[string]string),
	}
	for ref, target := range overrides {
		cleaned := Clean(ref)
		if cleaned == "" {
			continue
		}
		r.overrides[cleaned] = strings.TrimSpace(target)
	}
	return r
}

// Clean strips whitespace, query strings, fragments and trailing
// disambiguating numbers from a reference.
func Clean(ref string) string {
	cleaned := strings.TrimSpace(ref)
	if idx := strings.IndexAny(cleaned, "?#"); idx >= 0 {
		cleaned = cleaned[:idx]
	}
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return ""
	}
	dir, file := path.Split(cleaned)
	if m := suffixPattern.FindStringSubmatch(file); m != nil {
		file = m[1] + m[2]
	}
	return dir + file
}

// Resolve maps ref to its canonical path, or "" when unresolvable.
func (r *Resolver) Resolve(ref string) string {
	cleaned := Clean(ref)
	if cleaned == "" {
		return ""
	}

	r.mu.RLock()
	if target, ok := r.overrides[cleaned]; ok {
		r.mu.RUnlock()
		return target
	}
	if cached, ok := r.cache[cleaned]; ok {
		r.mu.RUnlock()
		return cached
	}
	r.mu.RUnlock()

	resolved := r.resolveCleaned(cleaned)

	r.mu.Lock()
	if _, overridden := r.overrides[cleaned]; !overridden {
		r.cache[cleaned] = resolved
	}
	r.mu.Unlock()
	return resolved
}

func (r *Resolver) resolveCleaned(cleaned string) string {
	if isAbsolute(cleaned) {
		return cleaned
	}
	if r.registry == nil {
		return cleaned
	}
	if strings.HasPrefix(cleaned, "./") || strings.HasPrefix(cleaned, "../") {
		filename := path.Base(cleaned)
		if entry, ok := r.registry.ByFilename(filename); ok {
			return r.registry.CanonicalPath(entry)
		}
		if entry, ok := r.registry.ByStem(strings.TrimSuffix(filename, path.Ext(filename))); ok {
			return r.registry.CanonicalPath(entry)
		}
		return cleaned
	}
	if !strings.Contains(cleaned, "/") {
		if entry, ok := r.registry.ByFilename(cleaned); ok {
			return r.registry.CanonicalPath(entry)
		}
		if entry, ok := r.registry.ByFilename(cleaned + r.registry.Extension()); ok {
			return r.registry.CanonicalPath(entry)
		}
		if entry, ok := r.registry.ByStem(strings.TrimSuffix(cleaned, path.Ext(cleaned))); ok {
			return r.registry.CanonicalPath(entry)
		}
		return cleaned
	}
	// Already under the canonical root, or an unknown path: returned as is.
	return cleaned
}

// SetOverride maps ref to target verbatim. It takes effect immediately.
func (r *Resolver) SetOverride(ref, target string) {
	cleaned := Clean(ref)
	if cleaned == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides[cleaned] = strings.TrimSpace(target)
	r.cache = make(map[string]string)
}

// RemoveOverride deletes the override for ref, if any.
func (r *Resolver) RemoveOverride(ref string) {
	cleaned := Clean(ref)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.overrides[cleaned]; !ok {
		return
	}
	delete(r.overrides, cleaned)
	r.cache = make(map[string]string)
}

// Overrides returns a copy of the override table.
func (r *Resolver) Overrides() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.overrides))
	for ref, target := range r.overrides {
		out[ref] = target
	}
	return out
}

// OverrideRefs lists overridden references in sorted order.
func (r *Resolver) OverrideRefs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	refs := make([]string, 0, len(r.overrides))
	for ref := range r.overrides {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}

func isAbsolute(ref string) bool {
	return strings.HasPrefix(ref, "/") || schemePattern.MatchString(ref)
}
