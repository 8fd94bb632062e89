package report

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// el builds an element node. attrs are key/value pairs.
func el(tag atom.Atom, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: tag, Data: tag.String()}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// with appends children to n and returns n.
func with(n *html.Node, children ...*html.Node) *html.Node {
	for _, c := range children {
		if c != nil {
			n.AppendChild(c)
		}
	}
	return n
}

// lines appends children to n, each followed by a newline.
func lines(n *html.Node, children ...*html.Node) *html.Node {
	for _, c := range children {
		if c == nil {
			continue
		}
		n.AppendChild(c)
		n.AppendChild(text("\n"))
	}
	return n
}

func textEl(tag atom.Atom, s string, attrs ...string) *html.Node {
	return with(el(tag, attrs...), text(s))
}

// safeHref keeps http(s) and relative links; anything else becomes "#".
func safeHref(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "#"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "#"
	}
	switch strings.ToLower(u.Scheme) {
	case "", "http", "https":
		return raw
	default:
		return "#"
	}
}
