package ir_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/WuGaoyin/idlc/internal/ir"
)

const sampleDoc = `{
  "module_name": ["acme", "widgets"],
  "declarations_order": [
    {"category": "enum", "name": "Color"},
    {"category": "struct", "name": "Point"},
    {"category": "union", "name": "Shape"},
    {"category": "interface", "name": "Widgets"}
  ],
  "enum_declarations": [
    {"name": "Color", "members": [{"name": "RED"}, {"name": "GREEN", "value": 5}]}
  ],
  "struct_declarations": [
    {"name": "Point", "members": [
      {"name": "x", "type": ["long"]},
      {"name": "y", "type": ["long"]}
    ]}
  ],
  "union_declarations": [
    {"name": "Shape", "members": [
      {"name": "circle", "type": ["float"], "case_value": 9},
      {"name": "label", "type": ["string"], "case_value": 2}
    ]}
  ],
  "interface_declarations": [
    {"name": "Widgets", "method_list": [
      {"method_name": "Add", "method_parameter": [{"name": "p", "type": ["long"]}], "method_return": [{"type": ["boolean"]}]}
    ], "event_list": [
      {"event_name": "Changed", "members": [{"name": "p", "type": {"type_name": {"type_name": ["long"]}, "sequence_size": -1}}]}
    ]}
  ]
}`

func TestLoadDecodesAllCollections(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleDoc), 0o644))

	doc, err := ir.Load(path)
	require.NoError(t, err)

	require.Equal(t, []string{"acme", "widgets"}, doc.ModulePath)
	require.Len(t, doc.DeclarationsOrder, 4)

	require.Contains(t, doc.Enums, "Color")
	require.Equal(t, "RED", doc.Enums["Color"].Members[0].Name)

	require.Contains(t, doc.Structs, "Point")
	require.Len(t, doc.Structs["Point"].Members, 2)

	require.Contains(t, doc.Unions, "Shape")
	require.Equal(t, 9, doc.Unions["Shape"].Members[0].CaseValue)

	require.Contains(t, doc.Interfaces, "Widgets")
	iface := doc.Interfaces["Widgets"]
	require.Len(t, iface.Methods, 1)
	require.Len(t, iface.Events, 1)
	require.True(t, iface.Events[0].Members[0].Type.TypeName != nil)
}

func TestResolveReturnsUnresolvedDeclarationError(t *testing.T) {
	doc := &ir.Document{
		Enums: map[string]*ir.EnumDecl{},
	}
	_, _, _, _, err := doc.Resolve(ir.DeclarationOrderItem{Category: ir.CategoryEnum, Name: "Missing"})
	require.Error(t, err)
	var unresolved *ir.ErrUnresolvedDeclaration
	require.ErrorAs(t, err, &unresolved)
	require.Equal(t, "Missing", unresolved.Name)
}

func TestTypeRefUnmarshalDualShape(t *testing.T) {
	var tokenForm ir.TypeRef
	require.NoError(t, jsonUnmarshal(`["unsigned", "long"]`, &tokenForm))
	require.True(t, tokenForm.IsTokens())
	require.Equal(t, []string{"unsigned", "long"}, tokenForm.Tokens)

	var nodeForm ir.TypeRef
	require.NoError(t, jsonUnmarshal(`{"type_name": ["long"], "sequence_size": 4}`, &nodeForm))
	require.False(t, nodeForm.IsTokens())
	require.NotNil(t, nodeForm.TypeName)
	require.Equal(t, 4, *nodeForm.SequenceSize)
}

func jsonUnmarshal(s string, v *ir.TypeRef) error {
	return v.UnmarshalJSON([]byte(s))
}
