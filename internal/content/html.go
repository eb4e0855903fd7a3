package content

import (
	"bytes"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// RenderHTML renders the HTML mirror of a document. Unknown node types
// render their children without a wrapper.
func RenderHTML(doc *Node) (string, error) {
	if doc == nil {
		return "", nil
	}
	var buf bytes.Buffer
	for _, n := range renderNodes(doc.Content) {
		if err := html.Render(&buf, n); err != nil {
			return "", fmt.Errorf("render html: %w", err)
		}
	}
	return buf.String(), nil
}

func renderNodes(nodes []Node) []*html.Node {
	out := make([]*html.Node, 0, len(nodes))
	for i := range nodes {
		out = append(out, renderNode(&nodes[i])...)
	}
	return out
}

func renderNode(n *Node) []*html.Node {
	switch n.Type {
	case "text":
		if n.Text == "" {
			return nil
		}
		return []*html.Node{renderText(n)}
	case "hardBreak":
		return []*html.Node{element(atom.Br)}
	case "horizontalRule":
		return []*html.Node{element(atom.Hr)}
	case "image":
		img := element(atom.Img)
		setAttr(img, "src", safeURL(n.attrString("src")))
		setAttr(img, "alt", n.attrString("alt"))
		setAttr(img, "title", n.attrString("title"))
		return []*html.Node{img}
	case "paragraph":
		return []*html.Node{wrap(element(atom.P), n.Content)}
	case "heading":
		return []*html.Node{wrap(element(headingAtom(n.attrInt("level", 1))), n.Content)}
	case "bulletList":
		return []*html.Node{wrap(element(atom.Ul), n.Content)}
	case "orderedList":
		ol := element(atom.Ol)
		if start := n.attrInt("start", 1); start != 1 {
			setAttr(ol, "start", strconv.Itoa(start))
		}
		return []*html.Node{wrap(ol, n.Content)}
	case "listItem":
		return []*html.Node{wrap(element(atom.Li), n.Content)}
	case "blockquote":
		return []*html.Node{wrap(element(atom.Blockquote), n.Content)}
	case "codeBlock":
		code := element(atom.Code)
		if lang := n.attrString("language"); lang != "" {
			setAttr(code, "class", "language-"+lang)
		}
		code.AppendChild(&html.Node{Type: html.TextNode, Data: rawText(n.Content)})
		pre := element(atom.Pre)
		pre.AppendChild(code)
		return []*html.Node{pre}
	default:
		return renderNodes(n.Content)
	}
}

// renderText wraps the text in its marks, first mark outermost.
func renderText(n *Node) *html.Node {
	cur := &html.Node{Type: html.TextNode, Data: n.Text}
	for i := len(n.Marks) - 1; i >= 0; i-- {
		m := n.Marks[i]
		var el *html.Node
		switch m.Type {
		case "bold":
			el = element(atom.Strong)
		case "italic":
			el = element(atom.Em)
		case "underline":
			el = element(atom.U)
		case "strike":
			el = element(atom.S)
		case "code":
			el = element(atom.Code)
		case "link":
			el = element(atom.A)
			setAttr(el, "href", safeURL(m.attrString("href")))
			setAttr(el, "target", m.attrString("target"))
			setAttr(el, "rel", m.attrString("rel"))
		default:
			continue
		}
		el.AppendChild(cur)
		cur = el
	}
	return cur
}

func element(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
}

func wrap(parent *html.Node, children []Node) *html.Node {
	for _, c := range renderNodes(children) {
		parent.AppendChild(c)
	}
	return parent
}

func setAttr(n *html.Node, key, val string) {
	if val == "" {
		return
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// safeURL keeps relative references and http, https or mailto URLs.
// Anything else renders as no attribute.
func safeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	switch strings.ToLower(u.Scheme) {
	case "", "http", "https", "mailto":
	default:
		return ""
	}
	return raw
}

func headingAtom(level int) atom.Atom {
	switch level {
	case 2:
		return atom.H2
	case 3:
		return atom.H3
	case 4:
		return atom.H4
	case 5:
		return atom.H5
	case 6:
		return atom.H6
	default:
		return atom.H1
	}
}

func rawText(nodes []Node) string {
	var b strings.Builder
	for i := range nodes {
		if nodes[i].Type == "hardBreak" {
			b.WriteByte('\n')
			continue
		}
		b.WriteString(nodes[i].Text)
	}
	return b.String()
}

var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Li: true, atom.Tr: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Blockquote: true, atom.Pre: true, atom.Ul: true, atom.Ol: true, atom.Hr: true,
	atom.Section: true, atom.Article: true, atom.Table: true,
}

// PlainTextFromHTML extracts readable text from an HTML fragment, one line
// per block element. Script and style contents are dropped.
func PlainTextFromHTML(fragment string) (string, error) {
	root, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style) {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(collapseSpace(n.Data))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.DataAtom] {
			endLine(&b)
		}
	}
	walk(root)

	lines := strings.Split(b.String(), "\n")
	kept := lines[:0]
	for _, l := range lines {
		if l = strings.Join(strings.Fields(l), " "); l != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n"), nil
}

// collapseSpace folds whitespace runs to one space, keeping a single
// leading or trailing space so adjacent inline text stays separated.
func collapseSpace(s string) string {
	words := strings.Fields(s)
	if len(words) == 0 {
		if s != "" {
			return " "
		}
		return ""
	}
	out := strings.Join(words, " ")
	if isSpace(s[0]) {
		out = " " + out
	}
	if isSpace(s[len(s)-1]) {
		out += " "
	}
	return out
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}
