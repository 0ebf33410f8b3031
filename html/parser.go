// Package html loads pages using golang.org/x/net/html as the underlying
// parser and extracts what the script layer needs: canvas elements and
// scripts, in document order.
package html

import (
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Element is an element of interest found in a page.
type Element struct {
	Tag      string
	DataAtom atom.Atom
	Attrs    map[string]string
}

// Attr returns the value of the named attribute.
func (e *Element) Attr(name string) (string, bool) {
	v, ok := e.Attrs[name]
	return v, ok
}

// ID returns the id attribute, or "".
func (e *Element) ID() string {
	return e.Attrs["id"]
}

// IntAttr parses a non-negative integer attribute the way canvas width and
// height are parsed, returning def when absent or invalid.
func (e *Element) IntAttr(name string, def int) int {
	v, ok := e.Attrs[name]
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return def
	}
	return n
}

// Script is a <script> element.
type Script struct {
	Element
	Source string // inline text
}

// Src returns the src attribute, or "" for inline scripts.
func (s *Script) Src() string {
	return s.Attrs["src"]
}

// IsClassic returns true if the script type denotes a classic JavaScript script.
func (s *Script) IsClassic() bool {
	t, ok := s.Attrs["type"]
	if !ok {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "", "text/javascript", "application/javascript", "text/ecmascript", "application/ecmascript":
		return true
	}
	return false
}

// Page is a parsed document.
type Page struct {
	Title    string
	Canvases []*Element
	Scripts  []*Script

	byID map[string]*Element
}

// ElementByID returns the first collected element with the given id.
func (p *Page) ElementByID(id string) *Element {
	return p.byID[id]
}

// Parse parses HTML from a string.
func Parse(htmlContent string) (*Page, error) {
	return ParseReader(strings.NewReader(htmlContent))
}

// ParseReader parses HTML from an io.Reader.
func ParseReader(r io.Reader) (*Page, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	p := &Page{byID: make(map[string]*Element)}
	p.collect(root)
	return p, nil
}

// collect walks the tree in document order.
func (p *Page) collect(n *html.Node) {
	if n.Type == html.ElementNode && n.Namespace == "" {
		switch n.DataAtom {
		case atom.Canvas:
			el := newElement(n)
			p.Canvases = append(p.Canvases, el)
			p.index(el)
		case atom.Script:
			s := &Script{Element: *newElement(n), Source: textContent(n)}
			p.Scripts = append(p.Scripts, s)
			p.index(&s.Element)
		case atom.Title:
			if p.Title == "" {
				p.Title = strings.TrimSpace(textContent(n))
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.collect(c)
	}
}

func (p *Page) index(el *Element) {
	if id := el.ID(); id != "" {
		if _, exists := p.byID[id]; !exists {
			p.byID[id] = el
		}
	}
}

func newElement(n *html.Node) *Element {
	el := &Element{
		Tag:      n.Data,
		DataAtom: n.DataAtom,
		Attrs:    make(map[string]string, len(n.Attr)),
	}
	for _, a := range n.Attr {
		if _, dup := el.Attrs[a.Key]; !dup {
			el.Attrs[a.Key] = a.Val
		}
	}
	return el
}

// textContent returns the concatenated text of n's descendants.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
