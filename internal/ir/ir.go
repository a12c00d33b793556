// Package ir defines the in-memory schema for the IDL intermediate
// representation consumed by the idlc generators, and loads it from the
// JSON document produced by the upstream IDL frontend.
package ir

import (
	"encoding/json"
	"fmt"
	"os"
)

// Category identifies which declaration collection a DeclarationsOrder
// entry belongs to.
type Category string

const (
	CategoryEnum      Category = "enum"
	CategoryStruct    Category = "struct"
	CategoryUnion     Category = "union"
	CategoryInterface Category = "interface"
)

// DeclarationOrderItem is one entry of the module's declarations_order list,
// the sole authority for emission order (§3 of SPEC_FULL.md).
type DeclarationOrderItem struct {
	Category Category `json:"category"`
	Name     string   `json:"name"`
}

// TypeRef is the dual-shaped type reference from the IR: either a bare
// token sequence (primitive spelling, e.g. ["unsigned", "long"]) or a
// structured node carrying a nested type_name and an optional
// sequence_size. At most one of Tokens or TypeName is populated after
// unmarshaling; an object without a type_name key leaves both unset.
type TypeRef struct {
	Tokens       []string
	TypeName     *TypeRef
	SequenceSize *int
}

type typeRefNode struct {
	TypeName     *TypeRef `json:"type_name"`
	SequenceSize *int     `json:"sequence_size"`
}

// UnmarshalJSON dispatches on the leading byte of the raw value: '[' means
// a token-sequence primitive reference, '{' means a structured node.
func (t *TypeRef) UnmarshalJSON(data []byte) error {
	trimmed := trimLeadingSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("ir: empty type reference")
	}
	switch trimmed[0] {
	case '[':
		var tokens []string
		if err := json.Unmarshal(data, &tokens); err != nil {
			return fmt.Errorf("ir: decoding token type reference: %w", err)
		}
		t.Tokens = tokens
		return nil
	case '{':
		var node typeRefNode
		if err := json.Unmarshal(data, &node); err != nil {
			return fmt.Errorf("ir: decoding structured type reference: %w", err)
		}
		t.TypeName = node.TypeName
		t.SequenceSize = node.SequenceSize
		return nil
	default:
		return fmt.Errorf("ir: type reference is neither a token list nor an object")
	}
}

// IsTokens reports whether this TypeRef is the bare-primitive form.
func (t TypeRef) IsTokens() bool { return t.TypeName == nil && t.Tokens != nil }

func trimLeadingSpace(b []byte) []byte {
	i := 0
	for i < len(b) {
		switch b[i] {
		case ' ', '\t', '\n', '\r':
			i++
			continue
		}
		break
	}
	return b[i:]
}

// EnumMember is one value of an enum declaration.
type EnumMember struct {
	Name  string `json:"name"`
	Value *int64 `json:"value,omitempty"`
}

// EnumDecl is a module-level enum declaration.
type EnumDecl struct {
	Name    string       `json:"name"`
	Members []EnumMember `json:"members"`
}

// StructMember is one field of a struct declaration.
type StructMember struct {
	Name string  `json:"name"`
	Type TypeRef `json:"type"`
}

// StructDecl is a module-level struct declaration.
type StructDecl struct {
	Name    string         `json:"name"`
	Members []StructMember `json:"members"`
}

// UnionMember is one arm of a tagged union. CaseValue is carried through
// from the wire format but ignored by the emitters, which synthesize
// positional tags TYPE_1..TYPE_N instead (Open Question 1, see SPEC_FULL.md §9).
type UnionMember struct {
	Name      string  `json:"name"`
	Type      TypeRef `json:"type"`
	CaseValue int     `json:"case_value"`
}

// UnionDecl is a module-level tagged-union declaration.
type UnionDecl struct {
	Name    string        `json:"name"`
	Members []UnionMember `json:"members"`
}

// Argument is a named, typed value: a method parameter, a method return
// value, or an event member. Name may be empty, in which case the
// consuming emitter synthesizes a positional name.
type Argument struct {
	Name string  `json:"name,omitempty"`
	Type TypeRef `json:"type"`
}

// Method is one operation of a service interface.
type Method struct {
	Name       string     `json:"method_name"`
	Parameters []Argument `json:"method_parameter,omitempty"`
	Returns    []Argument `json:"method_return,omitempty"`
}

// Event is one asynchronous notification of a service interface.
type Event struct {
	Name    string     `json:"event_name"`
	Members []Argument `json:"members,omitempty"`
}

// InterfaceDecl is a module-level service interface: a set of methods and
// events bound together under a shared dispatch table.
type InterfaceDecl struct {
	Name    string  `json:"name"`
	Methods []Method `json:"method_list,omitempty"`
	Events  []Event  `json:"event_list,omitempty"`
}

// Document is the fully decoded IR, ready for consumption by the
// emitters. Unlike the wire format (which carries each declaration
// collection as a flat array), Document indexes each collection by name
// so emitters can resolve a DeclarationsOrder reference in O(1); iteration
// order is still dictated solely by DeclarationsOrder.
type Document struct {
	ModulePath        []string
	DeclarationsOrder []DeclarationOrderItem
	Enums             map[string]*EnumDecl
	Structs           map[string]*StructDecl
	Unions            map[string]*UnionDecl
	Interfaces        map[string]*InterfaceDecl
}

type wireDocument struct {
	ModulePath            []string               `json:"module_name"`
	DeclarationsOrder     []DeclarationOrderItem `json:"declarations_order"`
	EnumDeclarations      []EnumDecl             `json:"enum_declarations"`
	StructDeclarations    []StructDecl           `json:"struct_declarations"`
	UnionDeclarations     []UnionDecl            `json:"union_declarations"`
	InterfaceDeclarations []InterfaceDecl        `json:"interface_declarations"`
}

// UnmarshalJSON converts the wire format's flat per-category arrays into
// Document's name-indexed maps, rejecting duplicate names within a
// collection the way a reimplementation should (the original parser never
// checked; a stricter loader does).
func (d *Document) UnmarshalJSON(data []byte) error {
	var wire wireDocument
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("ir: decoding document: %w", err)
	}

	d.ModulePath = wire.ModulePath
	d.DeclarationsOrder = wire.DeclarationsOrder

	d.Enums = make(map[string]*EnumDecl, len(wire.EnumDeclarations))
	for i := range wire.EnumDeclarations {
		e := wire.EnumDeclarations[i]
		if _, exists := d.Enums[e.Name]; exists {
			return fmt.Errorf("ir: duplicate enum declaration %q", e.Name)
		}
		d.Enums[e.Name] = &e
	}

	d.Structs = make(map[string]*StructDecl, len(wire.StructDeclarations))
	for i := range wire.StructDeclarations {
		s := wire.StructDeclarations[i]
		if _, exists := d.Structs[s.Name]; exists {
			return fmt.Errorf("ir: duplicate struct declaration %q", s.Name)
		}
		d.Structs[s.Name] = &s
	}

	d.Unions = make(map[string]*UnionDecl, len(wire.UnionDeclarations))
	for i := range wire.UnionDeclarations {
		u := wire.UnionDeclarations[i]
		if _, exists := d.Unions[u.Name]; exists {
			return fmt.Errorf("ir: duplicate union declaration %q", u.Name)
		}
		d.Unions[u.Name] = &u
	}

	d.Interfaces = make(map[string]*InterfaceDecl, len(wire.InterfaceDeclarations))
	for i := range wire.InterfaceDeclarations {
		in := wire.InterfaceDeclarations[i]
		if _, exists := d.Interfaces[in.Name]; exists {
			return fmt.Errorf("ir: duplicate interface declaration %q", in.Name)
		}
		d.Interfaces[in.Name] = &in
	}

	return nil
}

// Load reads and decodes an IR document from the given path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ir: reading %s: %w", path, err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("ir: parsing %s: %w", path, err)
	}
	return &doc, nil
}

// ErrUnresolvedDeclaration is returned by any lookup helper below when a
// DeclarationsOrder entry names a declaration absent from the
// corresponding collection. spec.md §9 Open Question 3 leaves the
// behavior unspecified; this loader resolves it to failing loudly rather
// than silently skipping, matching the spec's own suggestion that "a
// stricter implementation should fail".
type ErrUnresolvedDeclaration struct {
	Category Category
	Name     string
}

func (e *ErrUnresolvedDeclaration) Error() string {
	return fmt.Sprintf("ir: declarations_order references unknown %s %q", e.Category, e.Name)
}

// Resolve looks up the declaration named by a single DeclarationsOrder
// entry, returning exactly one of the four decl pointers (the others
// nil) or ErrUnresolvedDeclaration if the category/name pair cannot be
// found in the document.
func (d *Document) Resolve(item DeclarationOrderItem) (enum *EnumDecl, strct *StructDecl, union *UnionDecl, iface *InterfaceDecl, err error) {
	switch item.Category {
	case CategoryEnum:
		if e, ok := d.Enums[item.Name]; ok {
			return e, nil, nil, nil, nil
		}
	case CategoryStruct:
		if s, ok := d.Structs[item.Name]; ok {
			return nil, s, nil, nil, nil
		}
	case CategoryUnion:
		if u, ok := d.Unions[item.Name]; ok {
			return nil, nil, u, nil, nil
		}
	case CategoryInterface:
		if in, ok := d.Interfaces[item.Name]; ok {
			return nil, nil, nil, in, nil
		}
	default:
		return nil, nil, nil, nil, fmt.Errorf("ir: declarations_order entry has unknown category %q", item.Category)
	}
	return nil, nil, nil, nil, &ErrUnresolvedDeclaration{Category: item.Category, Name: item.Name}
}
