package extract

import (
	"encoding/json"

	"rentcomps/internal/domain"
)

const maxWalkDepth = 14

// JSONAPI reads a structured API response: a root array, or a list found at one of ListPaths.
// When no path matches it walks the whole document for listing-shaped objects.
type JSONAPI struct {
	ListPaths []string
}

var DefaultListPaths = []string{
	"listings", "results", "data", "items", "properties", "hits",
	"data.listings", "data.results", "data.items", "searchResults.listResults", "elementList",
}

func (JSONAPI) Name() string { return "json_api" }

func (s JSONAPI) Extract(payload []byte, sc SourceContext) []domain.Comp {
	var root any
	if err := json.Unmarshal(payload, &root); err != nil {
		return nil
	}
	items := s.items(root)
	if items == nil {
		return walkListings(root, sc)
	}
	out := make([]domain.Comp, 0, len(items))
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		if c, ok := mapListing(m, sc); ok {
			out = append(out, c)
		}
	}
	return out
}

func (s JSONAPI) items(root any) []any {
	if arr, ok := root.([]any); ok {
		return arr
	}
	obj, ok := root.(map[string]any)
	if !ok {
		return nil
	}
	paths := s.ListPaths
	if len(paths) == 0 {
		paths = DefaultListPaths
	}
	for _, p := range paths {
		if arr, ok := lookupAny(obj, p).([]any); ok && len(arr) > 0 {
			return arr
		}
	}
	return nil
}

// walkListings collects every listing-shaped object in an arbitrary JSON tree.
// A matched object is not descended into.
func walkListings(root any, sc SourceContext) []domain.Comp {
	var out []domain.Comp
	var walk func(v any, depth int)
	walk = func(v any, depth int) {
		if depth > maxWalkDepth {
			return
		}
		switch t := v.(type) {
		case map[string]any:
			if looksLikeListing(t) {
				if c, ok := mapListing(t, sc); ok {
					out = append(out, c)
					return
				}
			}
			for _, child := range t {
				walk(child, depth+1)
			}
		case []any:
			for _, child := range t {
				walk(child, depth+1)
			}
		}
	}
	walk(root, 0)
	return out
}
