package symtab_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/WuGaoyin/idlc/internal/ir"
	"github.com/WuGaoyin/idlc/internal/symtab"
)

func TestPlanOrdersMethodsThenEvents(t *testing.T) {
	iface := &ir.InterfaceDecl{
		Name: "Widgets",
		Methods: []ir.Method{
			{Name: "Add"},
			{Name: "Remove"},
		},
		Events: []ir.Event{
			{Name: "Changed"},
		},
	}

	table := symtab.Plan(iface)

	require.Equal(t, []string{"Add", "Remove", "Changed"}, table.Names)
	require.Equal(t, 0, table.MethodIDs["Add"])
	require.Equal(t, 1, table.MethodIDs["Remove"])
	require.Equal(t, 2, table.EventIDs["Changed"])
	require.False(t, table.IsEvent(1))
	require.True(t, table.IsEvent(2))

	name, ok := table.NameByID(2)
	require.True(t, ok)
	require.Equal(t, "Changed", name)
}

func TestPlanIsSharedAcrossServiceAndProxy(t *testing.T) {
	iface := &ir.InterfaceDecl{
		Methods: []ir.Method{{Name: "M"}},
		Events:  []ir.Event{{Name: "E"}},
	}

	serviceView := symtab.Plan(iface)
	proxyView := symtab.Plan(iface)

	require.Equal(t, serviceView.Names, proxyView.Names)
	require.Equal(t, serviceView.MethodIDs, proxyView.MethodIDs)
	require.Equal(t, serviceView.EventIDs, proxyView.EventIDs)
}
