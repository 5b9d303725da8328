// Package richtext models the editor's document tree and derives the
// plain-text projection used for titles and search.
package richtext

import (
	"strings"
)

// Node types the projection knows about. Any other type is treated as an
// inline container and its text is concatenated.
const (
	TypeDoc        = "doc"
	TypeParagraph  = "paragraph"
	TypeHeading    = "heading"
	TypeText       = "text"
	TypeHardBreak  = "hardBreak"
	TypeCodeBlock  = "codeBlock"
	TypeListItem   = "listItem"
	TypeBlockquote = "blockquote"
)

var blockTypes = map[string]bool{
	TypeParagraph:  true,
	TypeHeading:    true,
	TypeCodeBlock:  true,
	TypeListItem:   true,
	TypeBlockquote: true,
	"bulletList":   true,
	"orderedList":  true,
	"taskList":     true,
	"taskListItem": true,
}

// Mark is an inline annotation on a text node (bold, link, ...).
type Mark struct {
	Type  string         `json:"type" yaml:"type" bson:"type"`
	Attrs map[string]any `json:"attrs,omitempty" yaml:"attrs,omitempty" bson:"attrs,omitempty"`
}

// Node is one element of a rich-text document tree.
type Node struct {
	Type    string         `json:"type" yaml:"type" bson:"type"`
	Text    string         `json:"text,omitempty" yaml:"text,omitempty" bson:"text,omitempty"`
	Attrs   map[string]any `json:"attrs,omitempty" yaml:"attrs,omitempty" bson:"attrs,omitempty"`
	Marks   []Mark         `json:"marks,omitempty" yaml:"marks,omitempty" bson:"marks,omitempty"`
	Content []Node         `json:"content,omitempty" yaml:"content,omitempty" bson:"content,omitempty"`
}

// Empty returns a document holding a single empty paragraph.
func Empty() *Node {
	return &Node{Type: TypeDoc, Content: []Node{{Type: TypeParagraph}}}
}

// FromText builds a document with one paragraph per line of s.
func FromText(s string) *Node {
	doc := &Node{Type: TypeDoc}
	for _, line := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		p := Node{Type: TypeParagraph}
		if line != "" {
			p.Content = []Node{{Type: TypeText, Text: line}}
		}
		doc.Content = append(doc.Content, p)
	}
	return doc
}

// PlainText flattens the tree: text runs are concatenated, block nodes and
// hard breaks are separated by a newline.
func (n *Node) PlainText() string {
	if n == nil {
		return ""
	}
	var lines []string
	var cur strings.Builder
	flush := func() {
		lines = append(lines, cur.String())
		cur.Reset()
	}
	var walk func(node *Node)
	walk = func(node *Node) {
		switch {
		case node.Type == TypeText:
			cur.WriteString(node.Text)
		case node.Type == TypeHardBreak:
			flush()
		case blockTypes[node.Type]:
			if cur.Len() > 0 {
				flush()
			}
			for i := range node.Content {
				walk(&node.Content[i])
			}
			if !hasBlockChild(node) {
				flush()
			}
		default:
			for i := range node.Content {
				walk(&node.Content[i])
			}
		}
	}
	walk(n)
	if cur.Len() > 0 {
		flush()
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

func hasBlockChild(n *Node) bool {
	for i := range n.Content {
		if blockTypes[n.Content[i].Type] {
			return true
		}
	}
	return false
}

// IsBlank reports whether the projection has no visible characters.
func (n *Node) IsBlank() bool {
	return strings.TrimSpace(n.PlainText()) == ""
}

// Clone returns a deep copy of the tree.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := n.clone()
	return &c
}

func (n *Node) clone() Node {
	c := Node{Type: n.Type, Text: n.Text, Attrs: cloneAttrs(n.Attrs)}
	if n.Marks != nil {
		c.Marks = make([]Mark, len(n.Marks))
		for i, m := range n.Marks {
			c.Marks[i] = Mark{Type: m.Type, Attrs: cloneAttrs(m.Attrs)}
		}
	}
	if n.Content != nil {
		c.Content = make([]Node, len(n.Content))
		for i := range n.Content {
			c.Content[i] = n.Content[i].clone()
		}
	}
	return c
}

func cloneAttrs(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneAttrs(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	default:
		return v
	}
}

// Title derives a note title from its plain-text projection: the first
// line that has any visible characters, trimmed.
func Title(plain string) string {
	for _, line := range strings.Split(plain, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			return s
		}
	}
	return ""
}
