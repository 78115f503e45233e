package xml

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// ErrCycle is returned by Marshal when a node is reachable from itself.
var ErrCycle = errors.New("content tree contains a cycle")

// Document is a parsed XML part: the nodes before the root element (declaration, comments),
// the root element itself, and anything trailing it.
type Document struct {
	Prolog []*Node
	Root   *Node
	Epilog []*Node
}

// ParseBytes parses an XML part held in memory.
func ParseBytes(data []byte) (*Document, error) {
	return Parse(bytes.NewReader(data))
}

// Parse reads an XML part into an order-preserving tree.
//
// Prefixes are kept as written and resolved against in-scope namespace declarations.
// Whitespace-only text that sits between elements is dropped unless xml:space="preserve" is
// in effect; text inside leaf elements is always kept.
func Parse(r io.Reader) (*Document, error) {
	d := xml.NewDecoder(r)
	doc := &Document{}

	type frame struct {
		node     *Node
		ns       map[string]string
		preserve bool
	}
	root := map[string]string{"xml": NamespaceXML, "xmlns": NamespaceXMLNS}
	stack := []frame{{ns: root}}

	lookup := func(prefix string) (string, bool) {
		for i := len(stack) - 1; i >= 0; i-- {
			if uri, ok := stack[i].ns[prefix]; ok {
				return uri, true
			}
		}
		return "", false
	}

	appendNode := func(n *Node) {
		top := stack[len(stack)-1].node
		if top == nil {
			if doc.Root == nil {
				doc.Prolog = append(doc.Prolog, n)
			} else {
				doc.Epilog = append(doc.Epilog, n)
			}
			return
		}
		n.Parent = top
		top.Children = append(top.Children, n)
	}

	for {
		tok, err := d.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse document: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if len(stack) == 1 && doc.Root != nil {
				return nil, fmt.Errorf("failed to parse document: multiple root elements")
			}
			scope := make(map[string]string)
			preserve := stack[len(stack)-1].preserve
			for _, a := range t.Attr {
				switch {
				case a.Name.Space == "" && a.Name.Local == "xmlns":
					scope[""] = a.Value
				case a.Name.Space == "xmlns":
					scope[a.Name.Local] = a.Value
				case a.Name.Space == "xml" && a.Name.Local == "space":
					preserve = a.Value == "preserve"
				}
			}
			stack = append(stack, frame{ns: scope, preserve: preserve})

			n := &Node{Kind: ElementNode, Name: Name{Prefix: t.Name.Space, Local: t.Name.Local}}
			uri, ok := lookup(t.Name.Space)
			if !ok && t.Name.Space != "" {
				return nil, fmt.Errorf("failed to parse document: undeclared prefix %q on <%s>", t.Name.Space, n.Name)
			}
			n.Space = uri
			if len(t.Attr) > 0 {
				n.Attrs = make([]Attr, len(t.Attr))
				for i, a := range t.Attr {
					attr := Attr{Name: Name{Prefix: a.Name.Space, Local: a.Name.Local}, Value: a.Value}
					if a.Name.Space != "" && a.Name.Space != "xmlns" {
						space, ok := lookup(a.Name.Space)
						if !ok {
							return nil, fmt.Errorf("failed to parse document: undeclared prefix %q on attribute %s", a.Name.Space, attr.Name)
						}
						attr.Space = space
					}
					n.Attrs[i] = attr
				}
			}

			stack[len(stack)-1].node = n
			// attach to the parent frame
			parent := stack[len(stack)-2].node
			if parent == nil {
				doc.Root = n
			} else {
				n.Parent = parent
				parent.Children = append(parent.Children, n)
			}

		case xml.EndElement:
			if len(stack) == 1 {
				return nil, fmt.Errorf("failed to parse document: unexpected </%s>", Name{Prefix: t.Name.Space, Local: t.Name.Local})
			}
			top := stack[len(stack)-1]
			if top.node.Name.Prefix != t.Name.Space || top.node.Name.Local != t.Name.Local {
				return nil, fmt.Errorf("failed to parse document: element <%s> closed by </%s>", top.node.Name, Name{Prefix: t.Name.Space, Local: t.Name.Local})
			}
			if !top.preserve {
				trimInterElementWhitespace(top.node)
			}
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if stack[len(stack)-1].node == nil {
				if isWhitespace(string(t)) {
					continue
				}
				return nil, fmt.Errorf("failed to parse document: text outside the root element")
			}
			appendNode(&Node{Kind: TextNode, Data: string(t)})

		case xml.Comment:
			appendNode(&Node{Kind: CommentNode, Data: string(t)})

		case xml.ProcInst:
			appendNode(&Node{Kind: ProcInstNode, Name: Name{Local: t.Target}, Data: string(t.Inst)})

		case xml.Directive:
			appendNode(&Node{Kind: DirectiveNode, Data: string(t)})
		}
	}

	if len(stack) != 1 {
		return nil, fmt.Errorf("failed to parse document: unexpected EOF inside <%s>", stack[len(stack)-1].node.Name)
	}
	if doc.Root == nil {
		return nil, fmt.Errorf("failed to parse document: no root element")
	}
	return doc, nil
}

// trimInterElementWhitespace drops whitespace-only text children of elements that also have
// element children. Leaf elements keep their text untouched.
func trimInterElementWhitespace(n *Node) {
	hasElement := false
	for _, c := range n.Children {
		if c.Kind == ElementNode {
			hasElement = true
			break
		}
	}
	if !hasElement {
		return
	}
	kept := n.Children[:0]
	for _, c := range n.Children {
		if c.Kind == TextNode && isWhitespace(c.Data) {
			continue
		}
		kept = append(kept, c)
	}
	for i := len(kept); i < len(n.Children); i++ {
		n.Children[i] = nil
	}
	n.Children = kept
}

// Body returns the w:body element of a WordprocessingML document, or nil.
func (doc *Document) Body() *Node {
	if doc == nil || doc.Root == nil {
		return nil
	}
	return doc.Root.Child(NamespaceW, "body")
}

// Clone returns a deep copy of the document.
func (doc *Document) Clone() *Document {
	cloned := &Document{Root: doc.Root.Clone()}
	for _, n := range doc.Prolog {
		cloned.Prolog = append(cloned.Prolog, n.Clone())
	}
	for _, n := range doc.Epilog {
		cloned.Epilog = append(cloned.Epilog, n.Clone())
	}
	return cloned
}

// ExtractNamespaces returns the namespace declarations on the root element (prefix -> URI).
// The default namespace is returned under the empty prefix.
func (doc *Document) ExtractNamespaces() map[string]string {
	namespaces := make(map[string]string)
	if doc == nil || doc.Root == nil {
		return namespaces
	}
	for _, a := range doc.Root.Attrs {
		switch {
		case a.Name.Prefix == "xmlns":
			namespaces[a.Name.Local] = a.Value
		case a.Name.Prefix == "" && a.Name.Local == "xmlns":
			namespaces[""] = a.Value
		}
	}
	return namespaces
}

// MergeNamespaces declares on the root element every prefix of namespaces that is not
// declared yet. Prefixes already bound to a different URI are left untouched and returned,
// sorted, as conflicts.
func (doc *Document) MergeNamespaces(namespaces map[string]string) []string {
	existing := doc.ExtractNamespaces()

	prefixes := make([]string, 0, len(namespaces))
	for prefix := range namespaces {
		prefixes = append(prefixes, prefix)
	}
	sort.Strings(prefixes)

	var conflicts []string
	for _, prefix := range prefixes {
		uri := namespaces[prefix]
		if current, ok := existing[prefix]; ok {
			if current != uri {
				conflicts = append(conflicts, prefix)
			}
			continue
		}
		if prefix == "" {
			// A default namespace changes the meaning of every unprefixed name.
			conflicts = append(conflicts, prefix)
			continue
		}
		doc.Root.Attrs = append(doc.Root.Attrs, Attr{
			Name:  Name{Prefix: "xmlns", Local: prefix},
			Value: uri,
		})
		existing[prefix] = uri
	}
	return conflicts
}

// Ignorable returns the prefixes listed in the root's mc:Ignorable attribute.
func (doc *Document) Ignorable() []string {
	if v, ok := doc.Root.Attr(NamespaceMC, "Ignorable"); ok {
		return strings.Fields(v)
	}
	return nil
}

// MergeIgnorable appends prefixes to the root's mc:Ignorable list. Only prefixes declared on
// the root are added, and only when the root already carries an mc:Ignorable attribute.
func (doc *Document) MergeIgnorable(prefixes []string) {
	current, ok := doc.Root.Attr(NamespaceMC, "Ignorable")
	if !ok {
		return
	}
	declared := doc.ExtractNamespaces()
	seen := make(map[string]bool)
	list := strings.Fields(current)
	for _, p := range list {
		seen[p] = true
	}
	for _, p := range prefixes {
		if seen[p] {
			continue
		}
		if _, ok := declared[p]; !ok {
			continue
		}
		seen[p] = true
		list = append(list, p)
	}
	doc.Root.SetAttr(NamespaceMC, "Ignorable", strings.Join(list, " "))
}

// Bytes serializes the document.
func (doc *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := doc.Marshal(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Marshal writes the document to w. Prefixes, attribute order and text are written exactly as
// held in the tree.
func (doc *Document) Marshal(w io.Writer) error {
	if doc == nil || doc.Root == nil {
		return errors.New("cannot marshal document without root element")
	}
	bw := bufio.NewWriter(w)
	onPath := make(map[*Node]bool)

	for _, n := range doc.Prolog {
		if err := writeNode(bw, n, onPath); err != nil {
			return err
		}
		if n.Kind == ProcInstNode && n.Name.Local == "xml" {
			bw.WriteString("\r\n")
		}
	}
	if err := writeNode(bw, doc.Root, onPath); err != nil {
		return err
	}
	for _, n := range doc.Epilog {
		if err := writeNode(bw, n, onPath); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeNode(w *bufio.Writer, n *Node, onPath map[*Node]bool) error {
	if onPath[n] {
		return fmt.Errorf("%w at <%s>", ErrCycle, n.Name)
	}

	switch n.Kind {
	case TextNode:
		escapeText(w, n.Data)
	case CommentNode:
		w.WriteString("<!--")
		w.WriteString(n.Data)
		w.WriteString("-->")
	case ProcInstNode:
		w.WriteString("<?")
		w.WriteString(n.Name.Local)
		if n.Data != "" {
			w.WriteByte(' ')
			w.WriteString(n.Data)
		}
		w.WriteString("?>")
	case DirectiveNode:
		w.WriteString("<!")
		w.WriteString(n.Data)
		w.WriteString(">")
	case ElementNode:
		if n.Name.Local == "" {
			return errors.New("cannot marshal element without a name")
		}
		onPath[n] = true
		w.WriteByte('<')
		w.WriteString(n.Name.String())
		for _, a := range n.Attrs {
			w.WriteByte(' ')
			w.WriteString(a.Name.String())
			w.WriteString(`="`)
			escapeAttr(w, a.Value)
			w.WriteByte('"')
		}
		if len(n.Children) == 0 {
			w.WriteString("/>")
		} else {
			w.WriteByte('>')
			for _, c := range n.Children {
				if err := writeNode(w, c, onPath); err != nil {
					return err
				}
			}
			w.WriteString("</")
			w.WriteString(n.Name.String())
			w.WriteByte('>')
		}
		delete(onPath, n)
	default:
		return fmt.Errorf("cannot marshal node of kind %s", n.Kind)
	}
	return nil
}

func escapeText(w *bufio.Writer, s string) {
	for _, r := range s {
		switch r {
		case '&':
			w.WriteString("&amp;")
		case '<':
			w.WriteString("&lt;")
		case '>':
			w.WriteString("&gt;")
		case '\r':
			w.WriteString("&#xD;")
		default:
			w.WriteRune(r)
		}
	}
}

func escapeAttr(w *bufio.Writer, s string) {
	for _, r := range s {
		switch r {
		case '&':
			w.WriteString("&amp;")
		case '<':
			w.WriteString("&lt;")
		case '"':
			w.WriteString("&quot;")
		case '\n':
			w.WriteString("&#xA;")
		case '\r':
			w.WriteString("&#xD;")
		case '\t':
			w.WriteString("&#x9;")
		default:
			w.WriteRune(r)
		}
	}
}
