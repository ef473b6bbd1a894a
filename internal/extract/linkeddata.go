package extract

import (
	"encoding/json"
	"strings"

	"rentcomps/internal/domain"
)

// LinkedData reads schema.org JSON-LD blocks (Offer, Apartment, Residence, ItemList, @graph).
type LinkedData struct{}

var residenceTypes = map[string]bool{
	"apartment": true, "house": true, "singlefamilyresidence": true, "residence": true,
	"accommodation": true, "room": true, "offer": true, "product": true, "realestatelisting": true,
	"apartmentcomplex": true,
}

func (LinkedData) Name() string { return "linked_data" }

func (LinkedData) Extract(payload []byte, sc SourceContext) []domain.Comp {
	doc := parseHTML(payload)
	if doc == nil {
		return nil
	}
	var out []domain.Comp
	for _, s := range scripts(doc) {
		if s.typ != "application/ld+json" {
			continue
		}
		var v any
		if err := json.Unmarshal([]byte(s.text), &v); err != nil {
			continue
		}
		for _, node := range ldNodes(v, 0) {
			flat := flattenLD(node)
			if !looksLikeListing(flat) && !residenceTypes[strings.ToLower(ldType(node))] {
				continue
			}
			if c, ok := mapListing(flat, sc); ok {
				out = append(out, c)
			}
		}
	}
	return out
}

// ldNodes expands arrays, @graph and ItemList containers into candidate nodes.
func ldNodes(v any, depth int) []map[string]any {
	if depth > 4 {
		return nil
	}
	switch t := v.(type) {
	case []any:
		var out []map[string]any
		for _, x := range t {
			out = append(out, ldNodes(x, depth+1)...)
		}
		return out
	case map[string]any:
		if g, ok := t["@graph"]; ok {
			return ldNodes(g, depth+1)
		}
		if items, ok := t["itemListElement"].([]any); ok {
			var out []map[string]any
			for _, it := range items {
				if m, ok := it.(map[string]any); ok {
					if inner, ok := m["item"]; ok {
						out = append(out, ldNodes(inner, depth+1)...)
						continue
					}
					out = append(out, ldNodes(m, depth+1)...)
				}
			}
			return out
		}
		return []map[string]any{t}
	}
	return nil
}

func ldType(n map[string]any) string {
	switch t := n["@type"].(type) {
	case string:
		return t
	case []any:
		if len(t) > 0 {
			if s, ok := t[0].(string); ok {
				return s
			}
		}
	}
	return ""
}

// flattenLD lifts the schema.org shapes the listing aliases do not cover.
func flattenLD(n map[string]any) map[string]any {
	m := make(map[string]any, len(n)+4)
	for k, v := range n {
		m[k] = v
	}
	if item, ok := n["itemOffered"].(map[string]any); ok {
		for k, v := range item {
			if _, exists := m[k]; !exists || k == "@type" {
				m[k] = v
			}
		}
	}

	offers := n["offers"]
	if arr, ok := offers.([]any); ok && len(arr) > 0 {
		offers = arr[0]
	}
	if o, ok := offers.(map[string]any); ok {
		if p := lookupAny(o, "price"); p != nil {
			m["price"] = p
		} else if p := lookupAny(o, "priceSpecification.price"); p != nil {
			m["price"] = p
		}
		if _, ok := m["url"]; !ok {
			if u, ok := o["url"]; ok {
				m["url"] = u
			}
		}
	}
	if ps, ok := n["priceSpecification"].(map[string]any); ok {
		if _, has := m["price"]; !has {
			m["price"] = ps["price"]
		}
	}

	for _, k := range []string{"numberOfRooms", "numberOfBedrooms", "numberOfBathroomsTotal"} {
		if q, ok := m[k].(map[string]any); ok {
			m[k] = q["value"]
		}
	}

	if fs, ok := m["floorSize"].(map[string]any); ok {
		unit := strings.ToUpper(lookupStr(fs, "unitCode") + lookupStr(fs, "unitText"))
		if strings.Contains(unit, "FTK") || strings.Contains(unit, "FT") {
			m["floorSizeSqft"] = fs["value"]
			delete(m, "floorSize")
		}
	}
	return m
}
