// Package numbeo reads published one-bedroom rent benchmarks from Numbeo cost-of-living pages.
package numbeo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"

	"rentcomps/internal/domain"
	"rentcomps/internal/extract"
)

const (
	rowCentre  = "apartment (1 bedroom) in city centre"
	rowOutside = "apartment (1 bedroom) outside of centre"
	cacheTTL   = 7 * 24 * 3600
	label      = "Numbeo estimate"
)

var ErrNoBenchmarks = errors.New("numbeo: no rent benchmarks on page")

type getter interface {
	Get(ctx context.Context, service string, req domain.FetchRequest) ([]byte, error)
}

type Client struct {
	http  getter
	base  string
	cache domain.Cache // optional
}

func New(g getter, base string, cache domain.Cache) *Client {
	if base == "" {
		base = "https://www.numbeo.com"
	}
	return &Client{http: g, base: strings.TrimRight(base, "/"), cache: cache}
}

func (c *Client) Benchmarks(ctx context.Context, city, country string) (domain.Benchmarks, error) {
	if strings.TrimSpace(city) == "" {
		return domain.Benchmarks{}, ErrNoBenchmarks
	}
	key := fmt.Sprintf("numbeo:%s:%s", domain.Slug(city), domain.CountryCode(country))
	if c.cache != nil {
		var b domain.Benchmarks
		if ok, err := c.cache.Get(ctx, key, &b); err == nil && ok {
			return b, nil
		}
	}

	var lastErr error = ErrNoBenchmarks
	for _, u := range c.candidates(city, country) {
		body, err := c.http.Get(ctx, "numbeo", domain.FetchRequest{URL: u, Headers: map[string]string{"Accept-Language": "en"}})
		if err != nil {
			if ctx.Err() != nil {
				return domain.Benchmarks{}, ctx.Err()
			}
			lastErr = err
			continue
		}
		b, ok := Parse(body)
		if !ok {
			continue // numbeo answers unknown cities with a 200 search page
		}
		if c.cache != nil {
			if err := c.cache.Set(ctx, key, b, cacheTTL); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("benchmark cache set failed")
			}
		}
		return b, nil
	}
	return domain.Benchmarks{}, lastErr
}

func (c *Client) candidates(city, country string) []string {
	name := titleHyphen(city)
	out := []string{c.base + "/cost-of-living/in/" + name}
	if country != "" && len(strings.TrimSpace(country)) > 2 {
		out = append(out, c.base+"/cost-of-living/in/"+name+"-"+titleHyphen(country))
	}
	return out
}

// Parse finds the two one-bedroom rent rows on a cost-of-living page.
func Parse(page []byte) (domain.Benchmarks, bool) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return domain.Benchmarks{}, false
	}
	b := domain.Benchmarks{Source: label}
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			cells := cellTexts(n)
			if len(cells) >= 2 {
				head := strings.ToLower(strings.Join(strings.Fields(cells[0]), " "))
				if v, ok := extract.ParseAmount(cells[1]); ok && domain.ValidRent(v) {
					switch {
					case strings.HasPrefix(head, rowCentre):
						b.CityCentre = &v
					case strings.HasPrefix(head, rowOutside):
						b.Outside = &v
					}
				}
			}
			return
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			visit(ch)
		}
	}
	visit(doc)
	return b, b.CityCentre != nil || b.Outside != nil
}

func cellTexts(tr *html.Node) []string {
	var out []string
	for td := tr.FirstChild; td != nil; td = td.NextSibling {
		if td.Type == html.ElementNode && (td.Data == "td" || td.Data == "th") {
			out = append(out, strings.TrimSpace(text(td)))
		}
	}
	return out
}

func text(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		sb.WriteString(text(ch))
	}
	return sb.String()
}

// titleHyphen renders "new york" as "New-York", the page naming numbeo uses.
func titleHyphen(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, "-")
}
