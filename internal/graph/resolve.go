package graph

import (
	"path/filepath"
	"strings"
)

// Resolver maps a module request to the path of another module.
type Resolver interface {
	// Resolve returns the target of request as seen from the module at
	// from. ok is false for bare specifiers and missing files.
	Resolve(from, request string) (target string, ok bool)
}

// DefaultExtensions are probed, in order, for extensionless requests.
var DefaultExtensions = []string{".js", ".mjs", ".cjs", ".jsx", ".ts", ".tsx", ".mts", ".cts"}

// typeScriptTwins lets "./a.js" find "a.ts", the way tsc-compiled imports
// are written.
var typeScriptTwins = map[string][]string{
	".js":  {".ts", ".tsx"},
	".jsx": {".tsx"},
	".mjs": {".mts"},
	".cjs": {".cts"},
}

// RelativeResolver resolves relative and absolute requests against a fixed
// set of known modules. Bare specifiers (packages) never resolve.
type RelativeResolver struct {
	known      map[string]bool
	Extensions []string
}

// NewRelativeResolver creates a resolver over the given module paths.
func NewRelativeResolver(modules []string) *RelativeResolver {
	known := make(map[string]bool, len(modules))
	for _, m := range modules {
		known[filepath.Clean(m)] = true
	}
	return &RelativeResolver{known: known, Extensions: DefaultExtensions}
}

// Resolve implements Resolver.
func (r *RelativeResolver) Resolve(from, request string) (string, bool) {
	var base string
	switch {
	case strings.HasPrefix(request, "./"), strings.HasPrefix(request, "../"), request == ".", request == "..":
		base = filepath.Join(filepath.Dir(from), filepath.FromSlash(request))
	case filepath.IsAbs(request):
		base = filepath.Clean(request)
	default:
		return "", false
	}

	for _, candidate := range r.candidates(base) {
		if r.known[candidate] {
			return candidate, true
		}
	}
	return "", false
}

func (r *RelativeResolver) candidates(base string) []string {
	out := []string{base}
	ext := filepath.Ext(base)
	for _, twin := range typeScriptTwins[ext] {
		out = append(out, strings.TrimSuffix(base, ext)+twin)
	}
	for _, e := range r.Extensions {
		out = append(out, base+e)
	}
	for _, e := range r.Extensions {
		out = append(out, filepath.Join(base, "index"+e))
	}
	return out
}
