package registry

import (
	"fmt"
	"path"
	"strings"

	"module-loader/core/module"
)

const (
	// DefaultRoot is the canonical root prefix used when a file omits one.
	DefaultRoot = "/modules"
	// DefaultExtension is the conventional module file extension.
	DefaultExtension = ".js"
)

// Entry describes one module in the static registry.
type Entry struct {
	Filename     string      `yaml:"filename" toml:"filename"`
	Tier         module.Tier `yaml:"tier" toml:"tier"`
	Exports      []string    `yaml:"exports" toml:"exports"`
	AsyncExports []string    `yaml:"async_exports,omitempty" toml:"async_exports,omitempty"`
	DependsOn    []string    `yaml:"depends_on,omitempty" toml:"depends_on,omitempty"`
	Required     bool        `yaml:"required,omitempty" toml:"required,omitempty"`
	Critical     bool        `yaml:"critical,omitempty" toml:"critical,omitempty"`
}

// Name returns the short module name (filename without extension).
func (e Entry) Name() string {
	return stem(e.Filename)
}

// Definition is the on-disk shape of a registry file.
type Definition struct {
	Root          string   `yaml:"root" toml:"root"`
	Extension     string   `yaml:"extension" toml:"extension"`
	Priority      []string `yaml:"priority,omitempty" toml:"priority,omitempty"`
	NeverFallback []string `yaml:"never_fallback,omitempty" toml:"never_fallback,omitempty"`
	Modules       []Entry  `yaml:"modules" toml:"modules"`
}

// Registry is an immutable index over registry entries.
type Registry struct {
	root          string
	extension     string
	entries       []Entry
	byFilename    map[string]int
	byStem        map[string]int
	priority      []string
	neverFallback map[string]struct{}
}

// New validates def and builds a registry from it.
func New(def Definition) (*Registry, error) {
	root := strings.TrimRight(strings.TrimSpace(def.Root), "/")
	if root == "" {
		root = DefaultRoot
	}
	ext := strings.TrimSpace(def.Extension)
	if ext == "" {
		ext = DefaultExtension
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	r := &Registry{
		root:          root,
		extension:     ext,
		byFilename:    make(map[string]int, len(def.Modules)),
		byStem:        make(map[string]int, len(def.Modules)),
		neverFallback: make(map[string]struct{}, len(def.NeverFallback)),
	}
	for i, entry := range def.Modules {
		entry.Filename = strings.TrimSpace(entry.Filename)
		if entry.Filename == "" {
			return nil, fmt.Errorf("registry: modules[%d]: filename is required", i)
		}
		if strings.Contains(entry.Filename, "/") {
			return nil, fmt.Errorf("registry: %s: filename must not contain a path separator", entry.Filename)
		}
		if !entry.Tier.Valid() {
			return nil, fmt.Errorf("registry: %s: unknown tier %q", entry.Filename, entry.Tier)
		}
		if _, exists := r.byFilename[entry.Filename]; exists {
			return nil, fmt.Errorf("registry: duplicate module %s", entry.Filename)
		}
		r.byFilename[entry.Filename] = len(r.entries)
		if _, exists := r.byStem[entry.Name()]; !exists {
			r.byStem[entry.Name()] = len(r.entries)
		}
		r.entries = append(r.entries, entry)
	}
	for _, name := range def.Priority {
		entry, ok := r.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("registry: priority module %s is not registered", name)
		}
		r.priority = append(r.priority, entry.Name())
	}
	for _, name := range def.NeverFallback {
		entry, ok := r.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("registry: never_fallback module %s is not registered", name)
		}
		r.neverFallback[entry.Name()] = struct{}{}
	}
	return r, nil
}

// MustNew panics if the definition is invalid.
func MustNew(def Definition) *Registry {
	r, err := New(def)
	if err != nil {
		panic(err)
	}
	return r
}

// Root returns the canonical root prefix.
func (r *Registry) Root() string { return r.root }

// Extension returns the conventional module extension.
func (r *Registry) Extension() string { return r.extension }

// Entries returns every entry in declaration order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// ByFilename finds an entry by its exact filename.
func (r *Registry) ByFilename(filename string) (Entry, bool) {
	idx, ok := r.byFilename[filename]
	if !ok {
		return Entry{}, false
	}
	return r.entries[idx], true
}

// ByStem finds an entry by its filename without extension.
func (r *Registry) ByStem(name string) (Entry, bool) {
	idx, ok := r.byStem[name]
	if !ok {
		return Entry{}, false
	}
	return r.entries[idx], true
}

// Lookup accepts a filename, a short name or a path and returns its entry.
func (r *Registry) Lookup(ref string) (Entry, bool) {
	base := path.Base(strings.TrimSpace(ref))
	if base == "." || base == "/" || base == "" {
		return Entry{}, false
	}
	if entry, ok := r.ByFilename(base); ok {
		return entry, true
	}
	if entry, ok := r.ByFilename(base + r.extension); ok {
		return entry, true
	}
	return r.ByStem(stem(base))
}

// CanonicalPath synthesizes <root>/<tier>/<filename> for entry.
func (r *Registry) CanonicalPath(entry Entry) string {
	return r.root + "/" + string(entry.Tier) + "/" + entry.Filename
}

// Contract returns the call surface promised for entry at path.
func (r *Registry) Contract(entry Entry, canonical string) module.Contract {
	return module.Contract{
		Path:     canonical,
		Tier:     entry.Tier,
		Expected: append([]string(nil), entry.Exports...),
		Async:    append([]string(nil), entry.AsyncExports...),
	}
}

// ShortName returns the short module name for a reference or canonical path.
func (r *Registry) ShortName(ref string) string {
	if entry, ok := r.Lookup(ref); ok {
		return entry.Name()
	}
	return stem(path.Base(ref))
}

// Priority returns the declared initialization order as short names.
func (r *Registry) Priority() []string {
	out := make([]string, len(r.priority))
	copy(out, r.priority)
	return out
}

// PriorityIndex returns the position of name in the priority list, or -1.
func (r *Registry) PriorityIndex(name string) int {
	short := r.ShortName(name)
	for i, candidate := range r.priority {
		if candidate == short {
			return i
		}
	}
	return -1
}

// IsCritical reports whether the named module is flagged critical.
func (r *Registry) IsCritical(name string) bool {
	entry, ok := r.Lookup(name)
	return ok && entry.Critical
}

// IsRequired reports whether the named module is flagged required.
func (r *Registry) IsRequired(name string) bool {
	entry, ok := r.Lookup(name)
	return ok && entry.Required
}

// NeverFallback reports whether the named module must not be replaced by a fallback.
func (r *Registry) NeverFallback(name string) bool {
	_, ok := r.neverFallback[r.ShortName(name)]
	return ok
}

// NeverFallbackNames lists the modules that must never fall back, in declaration order.
func (r *Registry) NeverFallbackNames() []string {
	var out []string
	for _, entry := range r.entries {
		if _, ok := r.neverFallback[entry.Name()]; ok {
			out = append(out, entry.Name())
		}
	}
	return out
}

// DependenciesOf returns the declared dependency filenames of the named module.
func (r *Registry) DependenciesOf(name string) []string {
	entry, ok := r.Lookup(name)
	if !ok {
		return nil
	}
	return append([]string(nil), entry.DependsOn...)
}

func stem(filename string) string {
	if ext := path.Ext(filename); ext != "" {
		return strings.TrimSuffix(filename, ext)
	}
	return filename
}
