// Package markup is a thin tree/query layer over the golang.org/x/net/html
// tokenizer for presentation fragments. The tree only indexes the source:
// Render copies every byte of it verbatim and re-serializes just the start
// tags whose attributes were changed.
package markup

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// AnyTag matches every element in FindAll
const AnyTag = "*"

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "keygen": true, "link": true,
	"meta": true, "param": true, "source": true, "track": true, "wbr": true,
}

// Document is a parsed presentation fragment
type Document struct {
	src   string
	roots []*node
	nodes []*node // document order
}

// Parse indexes the elements of src. Nesting follows end tags as written:
// an element stays open until its own end tag, an enclosing end tag or the
// end of the input, and nothing is reordered.
func Parse(src string) (*Document, error) {
	d := &Document{src: src}
	z := html.NewTokenizer(strings.NewReader(src))

	var stack []*node
	closeFrom := func(i, at int) {
		for j := len(stack) - 1; j >= i; j-- {
			stack[j].innerEnd = at
		}
		stack = stack[:i]
	}

	offset := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); err != io.EOF {
				return nil, fmt.Errorf("tokenize fragment: %w", err)
			}
			break
		}
		begin := offset
		offset += len(z.Raw())

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			n := newNode(src[begin:offset], begin, offset)
			n.selfClosing = tt == html.SelfClosingTagToken
			if len(stack) == 0 {
				d.roots = append(d.roots, n)
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			}
			d.nodes = append(d.nodes, n)

			if tt == html.StartTagToken && !voidElements[n.tag] {
				stack = append(stack, n)
			} else {
				n.innerEnd = offset
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			for i := len(stack) - 1; i >= 0; i-- {
				if stack[i].tag == string(name) {
					closeFrom(i, begin)
					break
				}
			}
		}
	}
	closeFrom(0, len(src))
	return d, nil
}

// Render serializes the fragment. Untouched bytes are copied as they were.
func (d *Document) Render() (string, error) {
	return d.renderRange(0, len(d.src)), nil
}

func (d *Document) renderRange(from, to int) string {
	var b strings.Builder
	cursor := from
	for _, n := range d.nodes {
		if !n.dirty || n.start < from || n.end > to {
			continue
		}
		b.WriteString(d.src[cursor:n.start])
		b.WriteString(n.startTag())
		cursor = n.end
	}
	b.WriteString(d.src[cursor:to])
	return b.String()
}

// FindAll returns every element named tag in document order
func (d *Document) FindAll(tag string) []Element {
	var out []Element
	for _, n := range d.roots {
		out = d.appendMatches(out, n, tag, true)
	}
	return out
}

// Query returns the elements named tag whose attr equals value
func (d *Document) Query(tag, attr, value string) []Element {
	var out []Element
	for _, el := range d.FindAll(tag) {
		if v, ok := el.Attr(attr); ok && v == value {
			out = append(out, el)
		}
	}
	return out
}

// Apply applies attribute patches in order
func (d *Document) Apply(patches ...AttrPatch) {
	for _, p := range patches {
		p.apply()
	}
}

func (d *Document) appendMatches(out []Element, n *node, tag string, includeSelf bool) []Element {
	if includeSelf && (tag == AnyTag || n.tag == tag) {
		out = append(out, Element{n: n, d: d})
	}
	for _, c := range n.children {
		out = d.appendMatches(out, c, tag, true)
	}
	return out
}
