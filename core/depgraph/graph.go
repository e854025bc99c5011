package depgraph

import (
	"fmt"
	"strings"
	"sync"
)

// CycleError reports a dependency cycle found while ordering.
type CycleError struct {
	Cycle []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle: %s", strings.Join(e.Cycle, " -> "))
}

// Graph is a directed graph of module names. The zero value is not usable;
// call New.
type Graph struct {
	mu    sync.RWMutex
	nodes []string
	index map[string]int
	edges map[string][]string
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		index: make(map[string]int),
		edges: make(map[string][]string),
	}
}

func (g *Graph) addNode(name string) {
	if _, ok := g.index[name]; ok {
		return
	}
	g.index[name] = len(g.nodes)
	g.nodes = append(g.nodes, name)
}

// RecordEdge notes that from depends on to. Duplicate edges are ignored.
// It reports whether the edge was new.
func (g *Graph) RecordEdge(from, to string) bool {
	if from == "" || to == "" {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.addNode(from)
	g.addNode(to)
	for _, existing := range g.edges[from] {
		if existing == to {
			return false
		}
	}
	g.edges[from] = append(g.edges[from], to)
	return true
}

// Dependencies returns the direct dependencies of name in insertion order.
func (g *Graph) Dependencies(name string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string(nil), g.edges[name]...)
}

// Edges returns a copy of the adjacency list.
func (g *Graph) Edges() map[string][]string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make(map[string][]string, len(g.edges))
	for from, tos := range g.edges {
		out[from] = append([]string(nil), tos...)
	}
	return out
}

// Nodes returns every known node in first-seen order.
func (g *Graph) Nodes() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string(nil), g.nodes...)
}

// Reaches reports whether to is reachable from from by following edges
// whose target satisfies through. A nil filter follows every edge. The
// start node itself is never tested against the filter.
func (g *Graph) Reaches(from, to string, through func(string) bool) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if from == to {
		return true
	}
	seen := map[string]bool{from: true}
	queue := []string{from}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range g.edges[current] {
			if next == to {
				return true
			}
			if seen[next] {
				continue
			}
			seen[next] = true
			if through != nil && !through(next) {
				continue
			}
			queue = append(queue, next)
		}
	}
	return false
}

const (
	unvisited = iota
	visiting
	done
)

// DetectCycles returns every cycle reachable in the graph. Each cycle is
// listed from its entry node in traversal order, without repeating it.
func (g *Graph) DetectCycles() [][]string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	state := make(map[string]int, len(g.nodes))
	var (
		stack  []string
		cycles [][]string
	)

	var visit func(string)
	visit = func(node string) {
		state[node] = visiting
		stack = append(stack, node)
		for _, next := range g.edges[node] {
			switch state[next] {
			case visiting:
				start := len(stack) - 1
				for start >= 0 && stack[start] != next {
					start--
				}
				cycles = append(cycles, append([]string(nil), stack[start:]...))
			case unvisited:
				visit(next)
			}
		}
		stack = stack[:len(stack)-1]
		state[node] = done
	}

	for _, node := range g.nodes {
		if state[node] == unvisited {
			visit(node)
		}
	}
	return cycles
}

// Order sorts names so that each appears after the names it depends on.
// deps supplies the dependencies of a name; only dependencies that are
// themselves in names constrain the order. Ties keep request order. When
// a cycle prevents a full ordering the remaining names are appended in
// request order and a *CycleError is returned alongside the result.
func Order(names []string, deps func(string) []string) ([]string, error) {
	position := make(map[string]int, len(names))
	unique := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := position[name]; ok {
			continue
		}
		position[name] = len(unique)
		unique = append(unique, name)
	}

	inDegree := make(map[string]int, len(unique))
	dependents := make(map[string][]string, len(unique))
	for _, name := range unique {
		seen := make(map[string]bool)
		for _, dep := range deps(name) {
			if _, ok := position[dep]; !ok || dep == name || seen[dep] {
				continue
			}
			seen[dep] = true
			inDegree[name]++
			dependents[dep] = append(dependents[dep], name)
		}
	}

	placed := make(map[string]bool, len(unique))
	ordered := make([]string, 0, len(unique))
	for len(ordered) < len(unique) {
		next := ""
		for _, name := range unique {
			if !placed[name] && inDegree[name] == 0 {
				next = name
				break
			}
		}
		if next == "" {
			break
		}
		placed[next] = true
		ordered = append(ordered, next)
		for _, dependent := range dependents[next] {
			inDegree[dependent]--
		}
	}

	if len(ordered) == len(unique) {
		return ordered, nil
	}
	var stuck []string
	for _, name := range unique {
		if !placed[name] {
			stuck = append(stuck, name)
			ordered = append(ordered, name)
		}
	}
	return ordered, &CycleError{Cycle: stuck}
}
