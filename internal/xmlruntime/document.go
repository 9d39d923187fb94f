package xmlruntime

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"regexp"
	"strings"
)

// Element is a node of a parsed, namespace-resolved document.
//
// Only elements and their character data are kept: comments, processing
// instructions and the document type declaration are dropped, and entity
// references are already replaced by their text.
type Element struct {
	// Name holds the namespace URI (not the prefix) and local name.
	Name xml.Name

	// Attrs includes namespace declarations; Attr filters them out.
	Attrs []xml.Attr

	// Children are the direct child elements in document order.
	Children []*Element

	// Text is the character data before the first child element, or all
	// character data of an element without children.
	Text string

	// Tail is the character data after the element's end tag, up to the
	// next sibling or the parent's end tag.
	Tail string

	// SystemID, Line and Column locate the '<' of the start tag.
	SystemID string
	Line     int
	Column   int
}

// Attr returns the value of the unqualified attribute local.
func (e *Element) Attr(local string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name.Space == "" && a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

// Child returns the first direct child with the given local name, or nil.
// It is safe to call on a nil Element.
func (e *Element) Child(local string) *Element {
	if e == nil {
		return nil
	}
	for _, c := range e.Children {
		if c.Name.Local == local {
			return c
		}
	}
	return nil
}

// ChildrenNamed returns the direct children with the given local name.
// It is safe to call on a nil Element.
func (e *Element) ChildrenNamed(local string) []*Element {
	if e == nil {
		return nil
	}
	var out []*Element
	for _, c := range e.Children {
		if c.Name.Local == local {
			out = append(out, c)
		}
	}
	return out
}

// Content returns all character data directly inside the element in
// document order.
func (e *Element) Content() string {
	if len(e.Children) == 0 {
		return e.Text
	}
	var b strings.Builder
	b.WriteString(e.Text)
	for _, c := range e.Children {
		b.WriteString(c.Tail)
	}
	return b.String()
}

// HasText reports whether the element holds non-whitespace character data.
func (e *Element) HasText() bool {
	if strings.TrimSpace(e.Text) != "" {
		return true
	}
	for _, c := range e.Children {
		if strings.TrimSpace(c.Tail) != "" {
			return true
		}
	}
	return false
}

// dropWhitespace clears the whitespace-only character data around the
// children of an element-only content model.
func (e *Element) dropWhitespace() {
	if e.HasText() {
		return
	}
	e.Text = ""
	for _, c := range e.Children {
		c.Tail = ""
	}
}

// appendText adds s at the end of the element's content.
func (e *Element) appendText(s string) {
	if n := len(e.Children); n > 0 {
		e.Children[n-1].Tail += s
		return
	}
	e.Text += s
}

// isNamespaceDecl reports whether a is an xmlns or xmlns:prefix attribute.
func isNamespaceDecl(a xml.Attr) bool {
	return a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns")
}

var (
	// internalEntityDecl matches <!ENTITY name "value"> and <!ENTITY name 'value'>.
	internalEntityDecl = regexp.MustCompile(`<!ENTITY\s+([A-Za-z_:][\w.:-]*)\s+(?:"([^"]*)"|'([^']*)')\s*>`)

	// externalEntityDecl matches <!ENTITY name SYSTEM ...> and PUBLIC ids.
	externalEntityDecl = regexp.MustCompile(`<!ENTITY\s+([A-Za-z_:][\w.:-]*)\s+(?:SYSTEM|PUBLIC)\b`)
)

// parseDocument reads data into an element tree, recording every problem in
// diags. It returns nil when the document is not well-formed.
//
// entities supplies replacement text for references beyond the predefined
// XML entities; declarations in the internal DTD subset are added to it.
func parseDocument(data []byte, systemID string, entities map[string]string, diags *Diagnostics) *Element {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true
	dec.Entity = make(map[string]string, len(entities))
	for k, v := range entities {
		dec.Entity[k] = v
	}

	fatal := func(msg string, line int) {
		_, col := dec.InputPos()
		if line == 0 {
			line, _ = dec.InputPos()
		}
		diags.Record(Diagnostic{
			Severity: SeverityFatal,
			SystemID: systemID,
			Line:     line,
			Column:   col,
			Message:  msg,
		})
	}

	var root *Element
	var stack []*Element

	for {
		// The offset before Token is the '<' of a start tag, since
		// preceding character data is a token of its own.
		line, col := dec.InputPos()
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var syn *xml.SyntaxError
			if errors.As(err, &syn) {
				fatal(syn.Msg, syn.Line)
			} else {
				fatal(err.Error(), 0)
			}
			return nil
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{
				Name:     t.Name,
				Attrs:    append([]xml.Attr(nil), t.Attr...),
				SystemID: systemID,
				Line:     line,
				Column:   col,
			}
			if len(stack) == 0 {
				if root != nil {
					fatal("document has more than one root element", line)
					return nil
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			}
			stack = append(stack, el)

		case xml.EndElement:
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) == 0 {
				if len(bytes.TrimSpace(t)) > 0 {
					fatal("character data outside the root element", 0)
					return nil
				}
				continue
			}
			stack[len(stack)-1].appendText(string(t))

		case xml.Directive:
			declareEntities(t, dec.Entity, systemID, dec, diags)
		}
	}

	if root == nil {
		fatal("document has no root element", 0)
		return nil
	}
	return root
}

// declareEntities adds the internal entity declarations of a DOCTYPE
// directive to the decoder's entity map. External entities are not fetched.
func declareEntities(dir xml.Directive, entities map[string]string, systemID string, dec *xml.Decoder, diags *Diagnostics) {
	if !bytes.HasPrefix(dir, []byte("DOCTYPE")) {
		return
	}
	for _, m := range internalEntityDecl.FindAllSubmatch(dir, -1) {
		name := string(m[1])
		if _, exists := entities[name]; exists {
			// First declaration wins.
			continue
		}
		value := string(m[2])
		if m[3] != nil {
			value = string(m[3])
		}
		entities[name] = value
	}
	for _, m := range externalEntityDecl.FindAllSubmatch(dir, -1) {
		line, col := dec.InputPos()
		diags.Record(Diagnostic{
			Severity: SeverityWarning,
			SystemID: systemID,
			Line:     line,
			Column:   col,
			Message:  "external entity " + string(m[1]) + " is not resolved",
		})
	}
}
