package extract

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

type script struct {
	typ  string
	id   string
	text string
}

func parseHTML(payload []byte) *html.Node {
	doc, err := html.Parse(bytes.NewReader(payload))
	if err != nil {
		return nil
	}
	return doc
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func walkNodes(n *html.Node, fn func(*html.Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkNodes(c, fn)
	}
}

func scripts(doc *html.Node) []script {
	var out []script
	walkNodes(doc, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "script" {
			var b strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					b.WriteString(c.Data)
				}
			}
			out = append(out, script{
				typ:  strings.ToLower(strings.TrimSpace(attr(n, "type"))),
				id:   attr(n, "id"),
				text: b.String(),
			})
			return false
		}
		return true
	})
	return out
}

// textContent joins the visible text under n with single spaces.
func textContent(n *html.Node) string {
	var parts []string
	walkNodes(n, func(x *html.Node) bool {
		if x.Type == html.ElementNode && (x.Data == "script" || x.Data == "style") {
			return false
		}
		if x.Type == html.TextNode {
			if t := strings.TrimSpace(x.Data); t != "" {
				parts = append(parts, t)
			}
		}
		return true
	})
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}
