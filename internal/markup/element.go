package markup

import (
	"strings"

	"golang.org/x/net/html"
)

// Attr is a single markup attribute
type Attr struct {
	Key string
	Val string
}

type attr struct {
	key string // as written
	val string // unescaped
	raw string // source text, empty once changed
}

func (a attr) is(key string) bool {
	return strings.EqualFold(a.key, key)
}

type node struct {
	tag         string // lower-cased
	name        string // as written
	start, end  int    // start tag span in the source
	innerEnd    int
	selfClosing bool
	attrs       []attr
	children    []*node
	dirty       bool
}

func newNode(raw string, start, end int) *node {
	name, attrs := scanStartTag(raw)
	return &node{
		tag:   strings.ToLower(name),
		name:  name,
		start: start,
		end:   end,
		attrs: attrs,
	}
}

// startTag re-serializes the start tag. Unchanged attributes keep their
// source text.
func (n *node) startTag() string {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(n.name)
	for _, a := range n.attrs {
		b.WriteByte(' ')
		if a.raw != "" {
			b.WriteString(a.raw)
			continue
		}
		b.WriteString(a.key)
		b.WriteString(`="`)
		b.WriteString(html.EscapeString(a.val))
		b.WriteByte('"')
	}
	if n.selfClosing {
		b.WriteString("/>")
	} else {
		b.WriteByte('>')
	}
	return b.String()
}

// Element is a view over an element of a Document
type Element struct {
	n *node
	d *Document
}

// Valid reports whether the element points at a node
func (e Element) Valid() bool { return e.n != nil }

// Tag returns the lower-cased element name
func (e Element) Tag() string { return e.n.tag }

// Attr returns the value of key and whether it is present
func (e Element) Attr(key string) (string, bool) {
	for _, a := range e.n.attrs {
		if a.is(key) {
			return a.val, true
		}
	}
	return "", false
}

// Attrs returns the attributes in document order, keys lower-cased
func (e Element) Attrs() []Attr {
	out := make([]Attr, 0, len(e.n.attrs))
	for _, a := range e.n.attrs {
		out = append(out, Attr{Key: strings.ToLower(a.key), Val: a.val})
	}
	return out
}

// AttrMap returns the attributes keyed by lower-cased name. The first
// occurrence of a repeated attribute wins.
func (e Element) AttrMap() map[string]string {
	out := make(map[string]string, len(e.n.attrs))
	for _, a := range e.Attrs() {
		if _, ok := out[a.Key]; !ok {
			out[a.Key] = a.Val
		}
	}
	return out
}

// SetAttr sets key in place, appending it when absent. Setting the current
// value is not a change.
func (e Element) SetAttr(key, val string) {
	for i := range e.n.attrs {
		if !e.n.attrs[i].is(key) {
			continue
		}
		if e.n.attrs[i].val == val {
			return
		}
		e.n.attrs[i].val = val
		e.n.attrs[i].raw = ""
		e.n.dirty = true
		return
	}
	e.n.attrs = append(e.n.attrs, attr{key: key, val: val})
	e.n.dirty = true
}

// RemoveAttr deletes key if present
func (e Element) RemoveAttr(key string) {
	kept := e.n.attrs[:0]
	for _, a := range e.n.attrs {
		if a.is(key) {
			e.n.dirty = true
			continue
		}
		kept = append(kept, a)
	}
	e.n.attrs = kept
}

// FindAll returns the descendants named tag in document order
func (e Element) FindAll(tag string) []Element {
	return e.d.appendMatches(nil, e.n, tag, false)
}

// First returns the first descendant named tag
func (e Element) First(tag string) (Element, bool) {
	found := e.FindAll(tag)
	if len(found) == 0 {
		return Element{}, false
	}
	return found[0], true
}

// InnerHTML returns the content between the element's start and end tags
func (e Element) InnerHTML() (string, error) {
	return e.d.renderRange(e.n.end, e.n.innerEnd), nil
}

// AttrPatch is a deferred attribute rewrite of one element
type AttrPatch struct {
	Target Element
	Set    []Attr
	Remove []string
}

// Empty reports whether the patch changes nothing
func (p AttrPatch) Empty() bool {
	return len(p.Set) == 0 && len(p.Remove) == 0
}

func (p AttrPatch) apply() {
	if !p.Target.Valid() {
		return
	}
	for _, key := range p.Remove {
		p.Target.RemoveAttr(key)
	}
	for _, a := range p.Set {
		p.Target.SetAttr(a.Key, a.Val)
	}
}
