package xmlruntime

import (
	"path/filepath"
	"slices"
)

// XInclude vocabulary.
const (
	XIncludeNamespace = "http://www.w3.org/2001/XInclude"

	xiInclude  = "include"
	xiFallback = "fallback"

	parseXML  = "xml"
	parseText = "text"
)

// includer expands xi:include elements in place before validation.
type includer struct {
	fs       FileSystem
	entities map[string]string
	maxDepth int
	maxSize  int64
	diags    *Diagnostics
}

// expand replaces every xi:include below el. stack holds the system IDs of
// the documents currently being included, outermost first.
//
// Replacement text takes the place of the include element and the include's
// tail follows it, so surrounding character data keeps its order.
func (inc *includer) expand(el *Element, stack []string) {
	children := el.Children
	el.Children = nil
	for _, child := range children {
		if !isXInclude(child, xiInclude) {
			inc.expand(child, stack)
			el.Children = append(el.Children, child)
			continue
		}
		nodes, text := inc.resolve(child, stack)
		el.appendText(text)
		el.Children = append(el.Children, nodes...)
		el.appendText(child.Tail)
	}
}

// resolve returns the replacement for a single xi:include element.
func (inc *includer) resolve(include *Element, stack []string) ([]*Element, string) {
	href, ok := include.Attr("href")
	if !ok || href == "" {
		inc.diags.Errorf(include, "xi:include without href is not supported")
		return nil, ""
	}
	if _, ok := include.Attr("xpointer"); ok {
		inc.diags.Errorf(include, "xi:include xpointer is not supported")
		return nil, ""
	}

	mode, ok := include.Attr("parse")
	if !ok {
		mode = parseXML
	}
	if mode != parseXML && mode != parseText {
		inc.diags.Errorf(include, "xi:include parse=%q must be %q or %q", mode, parseXML, parseText)
		return nil, ""
	}

	target := href
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(include.SystemID), href)
	}

	if slices.Contains(stack, target) {
		inc.diags.Errorf(include, "inclusion loop: %s includes itself", target)
		return nil, ""
	}
	if inc.maxDepth > 0 && len(stack) > inc.maxDepth {
		inc.diags.Errorf(include, "inclusion depth exceeds %d at %s", inc.maxDepth, target)
		return nil, ""
	}

	data, err := inc.fs.ReadFile(target)
	if err == nil && inc.maxSize > 0 && int64(len(data)) > inc.maxSize {
		inc.diags.Errorf(include, "included document %s exceeds %d bytes", target, inc.maxSize)
		return nil, ""
	}
	if err != nil {
		if fb := xiFallbackOf(include); fb != nil {
			inc.expand(fb, stack)
			return fb.Children, fb.Text
		}
		inc.diags.Errorf(include, "reading included document: %v", err)
		return nil, ""
	}

	if mode == parseText {
		return nil, string(data)
	}

	root := parseDocument(data, target, inc.entities, inc.diags)
	if root == nil {
		return nil, ""
	}
	if isXInclude(root, xiInclude) {
		inc.diags.Errorf(root, "xi:include cannot be the root of an included document")
		return nil, ""
	}
	inc.expand(root, append(slices.Clone(stack), target))
	return []*Element{root}, ""
}

func isXInclude(el *Element, local string) bool {
	return el != nil && el.Name.Space == XIncludeNamespace && el.Name.Local == local
}

func xiFallbackOf(include *Element) *Element {
	for _, c := range include.Children {
		if isXInclude(c, xiFallback) {
			return c
		}
	}
	return nil
}
