package typeres_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/WuGaoyin/idlc/internal/ir"
	"github.com/WuGaoyin/idlc/internal/typeres"
)

func tok(tokens ...string) ir.TypeRef { return ir.TypeRef{Tokens: tokens} }

func TestResolvePrimitives(t *testing.T) {
	cases := map[string]string{
		"void":               "void",
		"boolean":            "bool",
		"int8":               "int8_t",
		"uint8":              "uint8_t",
		"short":              "int16_t",
		"long":               "int32_t",
		"long long":          "int64_t",
		"unsigned short":     "uint16_t",
		"unsigned long":      "uint32_t",
		"unsigned long long": "uint64_t",
		"float":              "float",
		"double":             "double",
		"string":             "std::string",
	}
	for spelling, want := range cases {
		tokens := []string{}
		for _, w := range splitWords(spelling) {
			tokens = append(tokens, w)
		}
		got, err := typeres.Resolve(tok(tokens...))
		require.NoError(t, err)
		require.Equal(t, want, got, spelling)
	}
}

func TestResolveEmptyTokensIsVoid(t *testing.T) {
	got, err := typeres.Resolve(ir.TypeRef{Tokens: []string{}})
	require.NoError(t, err)
	require.Equal(t, "void", got)
	require.True(t, typeres.IsVoid(got))
}

func TestResolveUserDefinedPassthrough(t *testing.T) {
	got, err := typeres.Resolve(tok("Color"))
	require.NoError(t, err)
	require.Equal(t, "Color", got)
}

func TestResolveFixedArray(t *testing.T) {
	size := 8
	ref := ir.TypeRef{TypeName: &ir.TypeRef{Tokens: []string{"uint8"}}, SequenceSize: &size}
	got, err := typeres.Resolve(ref)
	require.NoError(t, err)
	require.Equal(t, "std::array<uint8_t, 8>", got)
}

func TestResolveVariableSequence(t *testing.T) {
	size := -1
	ref := ir.TypeRef{TypeName: &ir.TypeRef{Tokens: []string{"string"}}, SequenceSize: &size}
	got, err := typeres.Resolve(ref)
	require.NoError(t, err)
	require.Equal(t, "std::vector<std::string>", got)
}

func TestResolveStructuredScalarPassesThrough(t *testing.T) {
	ref := ir.TypeRef{TypeName: &ir.TypeRef{Tokens: []string{"long"}}}
	got, err := typeres.Resolve(ref)
	require.NoError(t, err)
	require.Equal(t, "int32_t", got)
}

func TestResolveMalformedStructuredNode(t *testing.T) {
	_, err := typeres.Resolve(ir.TypeRef{})
	require.Error(t, err)
}

func splitWords(s string) []string {
	var out []string
	word := ""
	for _, r := range s {
		if r == ' ' {
			if word != "" {
				out = append(out, word)
				word = ""
			}
			continue
		}
		word += string(r)
	}
	if word != "" {
		out = append(out, word)
	}
	return out
}
