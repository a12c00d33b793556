package driver_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/WuGaoyin/idlc/internal/driver"
	"github.com/WuGaoyin/idlc/internal/ir"
)

func sampleDoc() *ir.Document {
	return &ir.Document{
		ModulePath: []string{"acme"},
		DeclarationsOrder: []ir.DeclarationOrderItem{
			{Category: ir.CategoryStruct, Name: "Point"},
			{Category: ir.CategoryInterface, Name: "Widgets"},
		},
		Structs: map[string]*ir.StructDecl{
			"Point": {Name: "Point", Members: []ir.StructMember{
				{Name: "x", Type: ir.TypeRef{Tokens: []string{"long"}}},
			}},
		},
		Interfaces: map[string]*ir.InterfaceDecl{
			"Widgets": {Name: "Widgets", Methods: []ir.Method{{Name: "Ping"}}},
		},
	}
}

func TestGenerateFromDocumentProducesAllSixArtifactsInOrder(t *testing.T) {
	artifacts, err := driver.GenerateFromDocument(sampleDoc(), "Widgets")
	require.NoError(t, err)

	want := []string{
		"WidgetsCommon.h", "WidgetsCommon.cpp",
		"WidgetsService.h", "WidgetsService.cpp",
		"WidgetsProxy.h", "WidgetsProxy.cpp",
	}
	require.Len(t, artifacts, len(want))
	for i, a := range artifacts {
		require.Equal(t, want[i], a.Filename)
		require.NotEmpty(t, a.Content)
	}
}

func TestWriteCreatesDirAndFiles(t *testing.T) {
	artifacts, err := driver.GenerateFromDocument(sampleDoc(), "Widgets")
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "nested", "out")
	require.NoError(t, driver.Write(dir, artifacts))

	for _, a := range artifacts {
		data, err := os.ReadFile(filepath.Join(dir, a.Filename))
		require.NoError(t, err)
		require.Equal(t, a.Content, data)
	}
}

func TestGenerateFailsOnUnresolvedDeclaration(t *testing.T) {
	doc := sampleDoc()
	doc.DeclarationsOrder = append(doc.DeclarationsOrder, ir.DeclarationOrderItem{
		Category: ir.CategoryStruct, Name: "Missing",
	})
	_, err := driver.GenerateFromDocument(doc, "Widgets")
	require.Error(t, err)
	var unresolved *ir.ErrUnresolvedDeclaration
	require.ErrorAs(t, err, &unresolved)
}
