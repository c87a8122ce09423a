// Package assets resolves stored file references into absolute URLs
// under the portal's static-asset base.
package assets

import "strings"

// StaticBase derives the static-asset base from the API base URL.
// "http://host:5000/api/" becomes "http://host:5000".
func StaticBase(apiBaseURL string) string {
	base := strings.TrimRight(apiBaseURL, "/")
	base = strings.TrimSuffix(base, "/api")
	return strings.TrimRight(base, "/")
}

// Resolver turns attachment references into absolute URLs
type Resolver struct {
	base string
}

// NewResolver creates a resolver rooted at the given static-asset base
func NewResolver(staticBase string) *Resolver {
	return &Resolver{base: strings.TrimRight(staticBase, "/")}
}

// FromAPIBase creates a resolver for the static base of an API URL
func FromAPIBase(apiBaseURL string) *Resolver {
	return NewResolver(StaticBase(apiBaseURL))
}

// Base returns the static-asset base
func (r *Resolver) Base() string {
	return r.base
}

// Resolve accepts a string path, an object with a "path" field, or nothing,
// and returns an absolute URL or "".
func (r *Resolver) Resolve(ref any) string {
	p := pathOf(ref)
	if p == "" {
		return ""
	}
	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return p
	}

	p = strings.TrimLeft(p, `/\`)
	p = strings.ReplaceAll(p, `\`, "/")
	if p == "" {
		return ""
	}
	return r.base + "/" + p
}

// ResolveAll resolves a list of references, dropping the ones that resolve to "".
func (r *Resolver) ResolveAll(refs []any) []string {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if u := r.Resolve(ref); u != "" {
			out = append(out, u)
		}
	}
	return out
}

func pathOf(ref any) string {
	switch v := ref.(type) {
	case string:
		return v
	case map[string]any:
		if s, ok := v["path"].(string); ok {
			return s
		}
	case map[string]string:
		return v["path"]
	}
	return ""
}
