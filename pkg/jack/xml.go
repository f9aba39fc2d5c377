package jack

import (
	"fmt"
	"io"
	"strings"
)

// ----------------------------------------------------------------------------
// Parse-tree XML dump

// xmlNode is either an interior grammar-rule node (Tag set, Children populated)
// or a leaf token node (Tag set to the token's element name, Text its payload).
type xmlNode struct {
	Tag      string
	Text     string
	Children []*xmlNode
}

// xmlBuilder accumulates the parse tree the CompilationEngine walks, so the
// optional '-t' flag can dump it as nested XML alongside ordinary
// VM emission. The engine drives both from the same recursive descent.
type xmlBuilder struct {
	root  *xmlNode
	stack []*xmlNode
}

func newXMLBuilder(rootTag string) *xmlBuilder {
	root := &xmlNode{Tag: rootTag}
	return &xmlBuilder{root: root, stack: []*xmlNode{root}}
}

func (b *xmlBuilder) top() *xmlNode { return b.stack[len(b.stack)-1] }

// open starts a new interior node and pushes it as the current insertion point.
func (b *xmlBuilder) open(tag string) {
	if b.top() == b.root && len(b.root.Children) == 0 && tag == b.root.Tag {
		return // CompileClass's own "class" open is the pre-seeded root.
	}
	n := &xmlNode{Tag: tag}
	b.top().Children = append(b.top().Children, n)
	b.stack = append(b.stack, n)
}

// close pops the current interior node back to its parent.
func (b *xmlBuilder) close() {
	if len(b.stack) > 1 {
		b.stack = b.stack[:len(b.stack)-1]
	}
}

// leaf appends a terminal token node under the current insertion point.
func (b *xmlBuilder) leaf(tok Token) {
	tag := elementName(tok.Type)
	b.top().Children = append(b.top().Children, &xmlNode{Tag: tag, Text: tok.Literal})
}

func elementName(t TokenType) string {
	switch t {
	case KeywordTok:
		return "keyword"
	case SymbolTok:
		return "symbol"
	case IdentifierTok:
		return "identifier"
	case IntConstTok:
		return "integerConstant"
	case StringConstTok:
		return "stringConstant"
	default:
		return "unknown"
	}
}

// WriteTo renders the accumulated tree as indented XML, escaping '<', '>' and
// '&' in every leaf payload.
func (b *xmlBuilder) WriteTo(w io.Writer) error {
	return writeNode(w, b.root, 0)
}

func writeNode(w io.Writer, n *xmlNode, depth int) error {
	indent := strings.Repeat("  ", depth)
	if len(n.Children) == 0 {
		_, err := fmt.Fprintf(w, "%s<%s> %s </%s>\n", indent, n.Tag, escapeXML(n.Text), n.Tag)
		return err
	}

	if _, err := fmt.Fprintf(w, "%s<%s>\n", indent, n.Tag); err != nil {
		return err
	}
	for _, child := range n.Children {
		if err := writeNode(w, child, depth+1); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%s</%s>\n", indent, n.Tag)
	return err
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
