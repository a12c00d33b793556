package cppgen_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/WuGaoyin/idlc/internal/cppgen"
	"github.com/WuGaoyin/idlc/internal/ir"
)

func TestArgListStrSynthesizesAnonymousNames(t *testing.T) {
	args := []ir.Argument{
		{Type: ir.TypeRef{Tokens: []string{"long"}}},
		{Name: "flag", Type: ir.TypeRef{Tokens: []string{"boolean"}}},
	}
	got, err := cppgen.ArgListStr("param", args, "(", ", ", ")")
	require.NoError(t, err)
	require.Equal(t, "(const int32_t& param_arg_0, const bool& flag)", got)
}

func TestArgListStrVoidCollapses(t *testing.T) {
	args := []ir.Argument{{Type: ir.TypeRef{Tokens: []string{"void"}}}}
	got, err := cppgen.ArgListStr("return", args, "(", ", ", ")")
	require.NoError(t, err)
	require.Equal(t, "", got)
}

func TestNoTypeArgListStr(t *testing.T) {
	args := []ir.Argument{{Name: "a"}, {}}
	got, err := cppgen.NoTypeArgListStr("param", args, "(", ")")
	require.NoError(t, err)
	require.Equal(t, "(a, param_arg_1)", got)
}

func TestMemberNameUsesFunctionPrefixOneBased(t *testing.T) {
	require.Equal(t, "named", cppgen.MemberName("Add", 0, ir.Argument{Name: "named"}))
	require.Equal(t, "Add_arg_1", cppgen.MemberName("Add", 0, ir.Argument{}))
	require.Equal(t, "Add_arg_2", cppgen.MemberName("Add", 1, ir.Argument{}))
}

func TestMethodEventNamesStrOrdersMethodsThenEvents(t *testing.T) {
	iface := &ir.InterfaceDecl{
		Methods: []ir.Method{{Name: "Add"}},
		Events:  []ir.Event{{Name: "Changed"}},
	}
	require.Equal(t, `"Add", "Changed"`, cppgen.MethodEventNamesStr(iface))
}

func TestHeaderGuardAndNamespace(t *testing.T) {
	c := cppgen.NewContext(&ir.Document{ModulePath: []string{"acme", "widgets"}}, "Widgets")
	require.Equal(t, "ACME_WIDGETS", c.IncludeGuardPrefix())
}
