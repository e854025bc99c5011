package engine

import "context"

type chainKey struct{}

// chain is the list of loads in progress on the current call path.
type chain struct {
	path   string
	parent *chain
}

func withAncestor(ctx context.Context, path string) context.Context {
	parent, _ := ctx.Value(chainKey{}).(*chain)
	return context.WithValue(ctx, chainKey{}, &chain{path: path, parent: parent})
}

func currentLoad(ctx context.Context) string {
	if c, ok := ctx.Value(chainKey{}).(*chain); ok {
		return c.path
	}
	return ""
}

func ancestors(ctx context.Context) []string {
	var out []string
	for c, _ := ctx.Value(chainKey{}).(*chain); c != nil; c = c.parent {
		out = append(out, c.path)
	}
	return out
}

func inChain(ctx context.Context, path string) bool {
	for c, _ := ctx.Value(chainKey{}).(*chain); c != nil; c = c.parent {
		if c.path == path {
			return true
		}
	}
	return false
}

// Ancestors returns the canonical paths being loaded on ctx's call path,
// innermost first.
func Ancestors(ctx context.Context) []string {
	return ancestors(ctx)
}
