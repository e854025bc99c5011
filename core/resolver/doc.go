// Package resolver maps module references to canonical load paths.
//
// Resolution is pure and deterministic for a given registry and override
// table; it performs no I/O. Rules apply in priority order:
//
//  1. Clean: strip query strings, fragments and trailing disambiguating
//     numbers ("auth 2.js" becomes "auth.js").
//  2. Overrides win over every heuristic below.
//  3. Absolute references (scheme or leading "/") are returned unchanged.
//  4. Relative references ("./", "../") are looked up by filename, then by
//     filename without extension, and synthesized as <root>/<tier>/<filename>.
//  5. Bare names are tried with and without the conventional extension.
//  6. References already under the canonical root are returned unchanged.
//  7. Anything else is returned cleaned, as a best effort.
//
// An empty result means the reference is unresolvable.
package resolver
