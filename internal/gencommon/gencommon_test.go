package gencommon_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/WuGaoyin/idlc/internal/cppgen"
	"github.com/WuGaoyin/idlc/internal/gencommon"
	"github.com/WuGaoyin/idlc/internal/ir"
)

func sampleDoc() *ir.Document {
	return &ir.Document{
		ModulePath: []string{"acme", "widgets"},
		DeclarationsOrder: []ir.DeclarationOrderItem{
			{Category: ir.CategoryEnum, Name: "Color"},
			{Category: ir.CategoryStruct, Name: "Point"},
			{Category: ir.CategoryUnion, Name: "Shape"},
			{Category: ir.CategoryInterface, Name: "Widgets"},
		},
		Enums: map[string]*ir.EnumDecl{
			"Color": {Name: "Color", Members: []ir.EnumMember{{Name: "RED"}, {Name: "GREEN"}}},
		},
		Structs: map[string]*ir.StructDecl{
			"Point": {Name: "Point", Members: []ir.StructMember{
				{Name: "x", Type: ir.TypeRef{Tokens: []string{"long"}}},
				{Name: "y", Type: ir.TypeRef{Tokens: []string{"long"}}},
			}},
		},
		Unions: map[string]*ir.UnionDecl{
			"Shape": {Name: "Shape", Members: []ir.UnionMember{
				{Name: "circle", Type: ir.TypeRef{Tokens: []string{"float"}}},
				{Name: "label", Type: ir.TypeRef{Tokens: []string{"string"}}},
			}},
		},
		Interfaces: map[string]*ir.InterfaceDecl{
			"Widgets": {
				Name: "Widgets",
				Methods: []ir.Method{
					{Name: "Add", Parameters: []ir.Argument{{Name: "p", Type: ir.TypeRef{Tokens: []string{"long"}}}},
						Returns: []ir.Argument{{Type: ir.TypeRef{Tokens: []string{"boolean"}}}}},
				},
				Events: []ir.Event{
					{Name: "Changed", Members: []ir.Argument{{Name: "p", Type: ir.TypeRef{Tokens: []string{"long"}}}}},
				},
			},
		},
	}
}

func TestGenerateHeaderContainsEveryDeclaration(t *testing.T) {
	ctx := cppgen.NewContext(sampleDoc(), "Widgets")
	e := gencommon.New(ctx)

	out, err := e.GenerateHeader()
	require.NoError(t, err)
	text := string(out)

	require.Contains(t, text, "#ifndef ACME_WIDGETS_COMMON_H_")
	require.Contains(t, text, "namespace acme {")
	require.Contains(t, text, "namespace widgets {")
	require.Contains(t, text, "enum class Color : int32_t {")
	require.Contains(t, text, "struct Point {")
	require.Contains(t, text, "int32_t x;")
	require.Contains(t, text, "class Shape {")
	require.Contains(t, text, "TYPE_1 = 1,")
	require.Contains(t, text, "TYPE_2 = 2,")
	require.Contains(t, text, "TYPE_RESERVED = 3,")
	require.Contains(t, text, "explicit Shape(const float& value) : tag_(Tag::TYPE_1), circle(value) {}")
	require.Contains(t, text, "Tag GetTag() const { return tag_; }")
	require.Contains(t, text, "struct AddReq {")
	require.Contains(t, text, "struct AddResp {")
	require.Contains(t, text, "struct ChangedNotify {")
}

func TestGenerateImplSerializesInDeclaredOrder(t *testing.T) {
	ctx := cppgen.NewContext(sampleDoc(), "Widgets")
	e := gencommon.New(ctx)

	out, err := e.GenerateImpl()
	require.NoError(t, err)
	text := string(out)

	require.Contains(t, text, `#include "WidgetsCommon.h"`)
	require.Contains(t, text, "void Point::Serialize(PolarisWritableMessage* message) const {")
	require.Contains(t, text, "bool Point::Deserialize(PolarisReadableMessage* message) {")
	require.Contains(t, text, "void Shape::Serialize(PolarisWritableMessage* message) const {")
	require.Contains(t, text, "case Tag::TYPE_1:")
	require.Contains(t, text, "*value = result > 0;")
	require.Contains(t, text, "message_->write_uint8(message_, value ? 1 : 0);")
}

func TestDataWrapperVoidSuppression(t *testing.T) {
	doc := sampleDoc()
	doc.Interfaces["Widgets"].Methods[0].Returns = nil
	ctx := cppgen.NewContext(doc, "Widgets")
	e := gencommon.New(ctx)

	out, err := e.GenerateHeader()
	require.NoError(t, err)
	require.NotContains(t, string(out), "struct AddResp {")
}
