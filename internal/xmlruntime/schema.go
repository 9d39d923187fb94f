package xmlruntime

import (
	"bytes"
	_ "embed"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultSchema is the schema description compiled by the default platform.
//
//go:embed schema/runtime.yaml
var DefaultSchema []byte

// xmlNamespace is the namespace bound to the reserved "xml" prefix.
const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

// Attribute value types.
const (
	typeString = "string"
	typeToken  = "token"
	typeURI    = "uri"

	unbounded = -1
)

// schemaFile is the YAML form of a schema description.
type schemaFile struct {
	Namespace string                 `yaml:"namespace"`
	Root      string                 `yaml:"root"`
	Elements  map[string]elementDecl `yaml:"elements"`
}

type elementDecl struct {
	Sequence   bool                     `yaml:"sequence"`
	Text       bool                     `yaml:"text"`
	Attributes map[string]attributeDecl `yaml:"attributes"`
	Children   []childDecl              `yaml:"children"`
}

type attributeDecl struct {
	Required bool   `yaml:"required"`
	Type     string `yaml:"type"`
}

type childDecl struct {
	Element string `yaml:"element"`
	Min     int    `yaml:"min"`
	Max     string `yaml:"max"`
}

// Schema is a compiled document schema. It is read-only after compilation
// and shared by every loader using the same Platform.
type Schema struct {
	namespace string
	root      string
	elements  map[string]*elementType
}

type elementType struct {
	name      string
	sequence  bool
	text      bool
	attrs     map[string]attributeDecl
	attrNames []string
	children  []childRule
	index     map[string]int
}

type childRule struct {
	element  string
	min, max int
}

// Namespace returns the namespace URI every element must belong to.
func (s *Schema) Namespace() string { return s.namespace }

// Root returns the local name of the required root element.
func (s *Schema) Root() string { return s.root }

// CompileSchema parses and checks a YAML schema description.
func CompileSchema(data []byte) (*Schema, error) {
	var file schemaFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: parsing: %w", ErrInvalidSchema, err)
	}

	if file.Root == "" {
		return nil, fmt.Errorf("%w: root element not set", ErrInvalidSchema)
	}
	if _, ok := file.Elements[file.Root]; !ok {
		return nil, fmt.Errorf("%w: root element %q not declared", ErrInvalidSchema, file.Root)
	}

	s := &Schema{
		namespace: file.Namespace,
		root:      file.Root,
		elements:  make(map[string]*elementType, len(file.Elements)),
	}

	for name, decl := range file.Elements {
		typ, err := compileElement(name, decl, file.Elements)
		if err != nil {
			return nil, err
		}
		s.elements[name] = typ
	}
	return s, nil
}

func compileElement(name string, decl elementDecl, all map[string]elementDecl) (*elementType, error) {
	typ := &elementType{
		name:     name,
		sequence: decl.Sequence,
		text:     decl.Text,
		attrs:    make(map[string]attributeDecl, len(decl.Attributes)),
		index:    make(map[string]int, len(decl.Children)),
	}

	if decl.Text && len(decl.Children) > 0 {
		return nil, fmt.Errorf("%w: %s: text elements cannot declare children", ErrInvalidSchema, name)
	}

	for attr, a := range decl.Attributes {
		if a.Type == "" {
			a.Type = typeString
		}
		switch a.Type {
		case typeString, typeToken, typeURI:
		default:
			return nil, fmt.Errorf("%w: %s@%s: unknown type %q", ErrInvalidSchema, name, attr, a.Type)
		}
		typ.attrs[attr] = a
		typ.attrNames = append(typ.attrNames, attr)
	}
	sort.Strings(typ.attrNames)

	for i, c := range decl.Children {
		if _, ok := all[c.Element]; !ok {
			return nil, fmt.Errorf("%w: %s: child %q not declared", ErrInvalidSchema, name, c.Element)
		}
		if _, dup := typ.index[c.Element]; dup {
			return nil, fmt.Errorf("%w: %s: child %q listed twice", ErrInvalidSchema, name, c.Element)
		}
		maxOccurs, err := parseMaxOccurs(c.Max)
		if err != nil {
			return nil, fmt.Errorf("%w: %s/%s: %w", ErrInvalidSchema, name, c.Element, err)
		}
		if c.Min < 0 || (maxOccurs != unbounded && maxOccurs < c.Min) {
			return nil, fmt.Errorf("%w: %s/%s: invalid occurrence range", ErrInvalidSchema, name, c.Element)
		}
		typ.index[c.Element] = i
		typ.children = append(typ.children, childRule{element: c.Element, min: c.Min, max: maxOccurs})
	}

	return typ, nil
}

func parseMaxOccurs(s string) (int, error) {
	switch s {
	case "":
		return 1, nil
	case "unbounded":
		return unbounded, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("max %q must be a positive integer or \"unbounded\"", s)
	}
	return n, nil
}

// Validate checks the tree rooted at root and records every violation.
// Children are matched against their parent's content model only; the
// walk never searches deeper than one level for a declared child.
// Whitespace between the children of element-only content is dropped.
func (s *Schema) Validate(root *Element, diags *Diagnostics) {
	if root.Name.Space != s.namespace || root.Name.Local != s.root {
		diags.Errorf(root, "root element %s, want %s", qualified(root.Name.Space, root.Name.Local), qualified(s.namespace, s.root))
		return
	}
	s.validateElement(root, s.elements[s.root], diags)
}

func (s *Schema) validateElement(el *Element, typ *elementType, diags *Diagnostics) {
	s.validateAttributes(el, typ, diags)

	if typ.text {
		if len(el.Children) > 0 {
			diags.Errorf(el, "<%s> must not contain elements", typ.name)
		}
		return
	}
	if el.HasText() {
		diags.Errorf(el, "character content is not allowed in <%s>", typ.name)
	} else {
		el.dropWhitespace()
	}

	counts := make([]int, len(typ.children))
	last := -1
	for _, child := range el.Children {
		if child.Name.Space != s.namespace {
			diags.Errorf(child, "element %s is not allowed in <%s>", qualified(child.Name.Space, child.Name.Local), typ.name)
			continue
		}
		idx, ok := typ.index[child.Name.Local]
		if !ok {
			diags.Errorf(child, "element <%s> is not allowed in <%s>", child.Name.Local, typ.name)
			continue
		}
		rule := typ.children[idx]
		if typ.sequence && idx < last {
			diags.Errorf(child, "element <%s> is out of order in <%s>", child.Name.Local, typ.name)
		}
		if idx > last {
			last = idx
		}
		counts[idx]++
		if rule.max != unbounded && counts[idx] == rule.max+1 {
			diags.Errorf(child, "too many <%s> elements in <%s> (at most %d)", rule.element, typ.name, rule.max)
		}
		s.validateElement(child, s.elements[rule.element], diags)
	}

	for i, rule := range typ.children {
		if counts[i] < rule.min {
			diags.Errorf(el, "<%s> requires at least %d <%s> element(s)", typ.name, rule.min, rule.element)
		}
	}
}

func (s *Schema) validateAttributes(el *Element, typ *elementType, diags *Diagnostics) {
	for _, a := range el.Attrs {
		switch {
		case isNamespaceDecl(a), a.Name.Space == xmlNamespace:
			continue
		case a.Name.Space != "":
			diags.Warnf(el, "attribute %s on <%s> is in a foreign namespace and ignored", qualified(a.Name.Space, a.Name.Local), typ.name)
			continue
		}

		decl, ok := typ.attrs[a.Name.Local]
		if !ok {
			diags.Errorf(el, "attribute %q is not allowed on <%s>", a.Name.Local, typ.name)
			continue
		}
		if msg := checkAttributeValue(decl.Type, a.Value); msg != "" {
			diags.Errorf(el, "attribute %q on <%s>: %s", a.Name.Local, typ.name, msg)
		}
	}

	for _, name := range typ.attrNames {
		if !typ.attrs[name].Required {
			continue
		}
		if _, ok := el.Attr(name); !ok {
			diags.Errorf(el, "<%s> is missing required attribute %q", typ.name, name)
		}
	}
}

// checkAttributeValue returns a description of what is wrong with v, or "".
func checkAttributeValue(typ, v string) string {
	switch typ {
	case typeToken:
		if v == "" {
			return "must not be empty"
		}
		if strings.TrimSpace(v) != v {
			return "must not start or end with whitespace"
		}
	case typeURI:
		u, err := url.Parse(v)
		if err != nil {
			return fmt.Sprintf("invalid URI: %v", err)
		}
		if u.Scheme == "" {
			return fmt.Sprintf("URI %q has no scheme", v)
		}
	}
	return ""
}

func qualified(space, local string) string {
	if space == "" {
		return "<" + local + ">"
	}
	return "<{" + space + "}" + local + ">"
}
