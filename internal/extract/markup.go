package extract

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"rentcomps/internal/domain"
)

// RawMarkup is the last resort: it finds listing cards in the page markup and pattern-matches
// price, bedrooms and area out of each card's visible text.
type RawMarkup struct {
	// CardHints are class-name fragments that mark a listing card. <article> always counts.
	CardHints []string
}

var DefaultCardHints = []string{"listing", "property-card", "result-card", "search-result", "card", "ad-item", "item-info"}

var (
	priceRe = regexp.MustCompile(`(?i)(?:€|\$|£|eur|usd|gbp)\s*\d[\d.,\x{00A0}\x{202F} ]*|\d[\d.,\x{00A0}\x{202F} ]*\s*(?:€|\$|£|eur\b|usd\b|gbp\b)`)
	bedsRe  = regexp.MustCompile(`(?i)(\d{1,2})\s*(?:bed(?:room)?s?\b|bd\b|υπνοδωμάτι\S*|κρεβατοκάμαρ\S*|habitaci\S*|hab\.|camer[ae]\b|quartos?\b|chambres?\b)`)
	roomsRe = regexp.MustCompile(`(?i)(\d{1,2})\s*(?:rooms?\b|δωμάτι\S*|locali\b|zimmer\b)`)
	studio  = regexp.MustCompile(`(?i)\b(?:studio|στούντιο|estudio|monolocale)\b`)
	sqmRe   = regexp.MustCompile(`(?i)(\d{1,4}(?:[.,]\d{1,2})?)\s*(?:m²|m2\b|τ\.μ\.?|sqm\b|sq\.?\s?m\b|μ²)`)
	sqftRe  = regexp.MustCompile(`(?i)(\d{1,2}(?:,\d{3})|\d{2,5})\s*(?:sq\.?\s?ft\b|sqft\b|ft²)`)
	bathsRe = regexp.MustCompile(`(?i)(\d{1,2}(?:\.5)?)\s*(?:bath(?:room)?s?\b|ba\b|μπάνι\S*|baños?\b|bagni\b)`)
	unitRe  = regexp.MustCompile(`(?i)^\s*(?:m²|m2\b|sqm\b|sq\.?\s?(?:m|ft)\b|sqft\b|ft²|τ\.μ|μ²)`)
)

func (RawMarkup) Name() string { return "raw_markup" }

func (r RawMarkup) Extract(payload []byte, sc SourceContext) []domain.Comp {
	doc := parseHTML(payload)
	if doc == nil {
		return nil
	}
	hints := r.CardHints
	if len(hints) == 0 {
		hints = DefaultCardHints
	}

	var out []domain.Comp
	for _, card := range cards(doc, hints) {
		m := cardFields(card)
		if m == nil {
			continue
		}
		if c, ok := mapListing(m, sc); ok {
			out = append(out, c)
		}
	}
	return out
}

func isCard(n *html.Node, hints []string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if n.Data == "article" {
		return true
	}
	cls := strings.ToLower(attr(n, "class"))
	if cls == "" {
		return false
	}
	for _, h := range hints {
		if strings.Contains(cls, h) {
			return true
		}
	}
	return false
}

// cards returns the innermost card nodes that contain a price.
func cards(doc *html.Node, hints []string) []*html.Node {
	var out []*html.Node
	var visit func(n *html.Node) bool
	visit = func(n *html.Node) bool {
		inner := false
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if visit(c) {
				inner = true
			}
		}
		if inner {
			return true
		}
		if isCard(n, hints) && priceRe.MatchString(textContent(n)) {
			out = append(out, n)
			return true
		}
		return false
	}
	visit(doc)
	return out
}

// cardFields builds an alias-compatible map from one card.
func cardFields(card *html.Node) map[string]any {
	text := textContent(card)
	price := cardPrice(card, text)
	if price == "" {
		return nil
	}
	m := map[string]any{"price": price}

	switch {
	case bedsRe.MatchString(text):
		m["bedrooms"] = bedsRe.FindStringSubmatch(text)[1]
	case studio.MatchString(text):
		m["bedrooms"] = "0"
	case roomsRe.MatchString(text):
		m["rooms"] = roomsRe.FindStringSubmatch(text)[1]
	}
	if sm := sqmRe.FindStringSubmatch(text); sm != nil {
		m["sqm"] = sm[1]
	} else if sf := sqftRe.FindStringSubmatch(text); sf != nil {
		m["sqft"] = sf[1]
	}
	if b := bathsRe.FindStringSubmatch(text); b != nil {
		m["bathrooms"] = b[1]
	}

	walkNodes(card, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		if _, ok := m["url"]; !ok && n.Data == "a" {
			if href := attr(n, "href"); href != "" && !strings.HasPrefix(href, "#") && !strings.HasPrefix(href, "javascript:") {
				m["url"] = href
			}
		}
		cls := strings.ToLower(attr(n, "class"))
		if _, ok := m["address"]; !ok && (strings.Contains(cls, "address") || strings.Contains(cls, "location")) {
			if t := textContent(n); t != "" && len(t) < 200 {
				m["address"] = t
			}
		}
		if id := attr(n, "data-id"); id != "" {
			if _, ok := m["id"]; !ok {
				m["id"] = id
			}
		}
		return true
	})
	return m
}

// cardPrice prefers a price-classed element, then the first text node carrying a price, and
// only then the card's joined text, where neighbouring figures sit one space away.
func cardPrice(card *html.Node, text string) string {
	var price string
	walkNodes(card, func(n *html.Node) bool {
		if price != "" {
			return false
		}
		if n.Type == html.ElementNode && strings.Contains(strings.ToLower(attr(n, "class")), "price") {
			price = findPrice(textContent(n))
		}
		return true
	})
	if price != "" {
		return price
	}
	walkNodes(card, func(n *html.Node) bool {
		if price != "" || (n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style")) {
			return false
		}
		if n.Type == html.TextNode {
			price = findPrice(n.Data)
		}
		return true
	})
	if price != "" {
		return price
	}
	return findPrice(text)
}

// findPrice returns the first price in s. A trailing space-separated group followed by an
// area unit belongs to the area ("€850 120 m²"), not to the price.
func findPrice(s string) string {
	loc := priceRe.FindStringIndex(s)
	if loc == nil {
		return ""
	}
	p := s[loc[0]:loc[1]]
	if !unitRe.MatchString(s[loc[1]:]) {
		return p
	}
	p = strings.TrimRight(p, " \u00a0\u202f")
	i := strings.LastIndexAny(p, " \u00a0\u202f")
	if i <= 0 || !strings.ContainsAny(p[:i], "0123456789") {
		return p
	}
	return strings.TrimRight(p[:i], " \u00a0\u202f")
}
