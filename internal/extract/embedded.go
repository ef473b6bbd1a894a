package extract

import (
	"encoding/json"
	"strconv"
	"strings"

	"rentcomps/internal/domain"
)

// EmbeddedJSON reads <script type="application/json"> blocks, such as a Next.js __NEXT_DATA__ payload.
type EmbeddedJSON struct{}

func (EmbeddedJSON) Name() string { return "embedded_json" }

func (EmbeddedJSON) Extract(payload []byte, sc SourceContext) []domain.Comp {
	doc := parseHTML(payload)
	if doc == nil {
		return nil
	}
	var out []domain.Comp
	for _, s := range scripts(doc) {
		if s.typ != "application/json" {
			continue
		}
		var v any
		if err := json.Unmarshal([]byte(s.text), &v); err != nil {
			continue
		}
		out = append(out, walkListings(v, sc)...)
	}
	return out
}

// HydrationState reads client-side state assigned in inline scripts,
// e.g. window.__INITIAL_STATE__ = {...} or window.__DATA__ = JSON.parse("...").
type HydrationState struct {
	Markers []string
}

var DefaultHydrationMarkers = []string{
	"__INITIAL_STATE__", "__PRELOADED_STATE__", "__APOLLO_STATE__", "__REDUX_STATE__", "__NUXT__", "__DATA__",
}

func (HydrationState) Name() string { return "hydration_state" }

func (h HydrationState) Extract(payload []byte, sc SourceContext) []domain.Comp {
	doc := parseHTML(payload)
	if doc == nil {
		return nil
	}
	markers := h.Markers
	if len(markers) == 0 {
		markers = DefaultHydrationMarkers
	}
	var out []domain.Comp
	for _, s := range scripts(doc) {
		if strings.Contains(s.typ, "json") {
			continue
		}
		for _, mk := range markers {
			raw := assignedJSON(s.text, mk)
			if raw == "" {
				continue
			}
			var v any
			if err := json.Unmarshal([]byte(raw), &v); err != nil {
				continue
			}
			out = append(out, walkListings(v, sc)...)
		}
	}
	return out
}

// assignedJSON returns the JSON text assigned to marker in js, or "".
func assignedJSON(js, marker string) string {
	i := strings.Index(js, marker)
	if i < 0 {
		return ""
	}
	rest := js[i+len(marker):]
	eq := strings.IndexByte(rest, '=')
	if eq < 0 {
		return ""
	}
	rest = strings.TrimSpace(rest[eq+1:])

	if strings.HasPrefix(rest, "JSON.parse(") {
		lit := quotedPrefix(strings.TrimSpace(rest[len("JSON.parse("):]))
		if lit == "" {
			return ""
		}
		s, err := strconv.Unquote(lit)
		if err != nil {
			return ""
		}
		return s
	}
	return balanced(rest)
}

// balanced returns the leading {...} or [...] of s, honoring string literals.
func balanced(s string) string {
	if s == "" || (s[0] != '{' && s[0] != '[') {
		return ""
	}
	depth := 0
	inStr := false
	esc := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inStr {
			switch {
			case esc:
				esc = false
			case ch == '\\':
				esc = true
			case ch == '"':
				inStr = false
			}
			continue
		}
		switch ch {
		case '"':
			inStr = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return s[:i+1]
			}
		}
	}
	return ""
}

// quotedPrefix returns the leading double-quoted literal of s, quotes included.
func quotedPrefix(s string) string {
	if s == "" || s[0] != '"' {
		return ""
	}
	esc := false
	for i := 1; i < len(s); i++ {
		switch {
		case esc:
			esc = false
		case s[i] == '\\':
			esc = true
		case s[i] == '"':
			return s[:i+1]
		}
	}
	return ""
}
