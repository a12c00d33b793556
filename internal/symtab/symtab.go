// Package symtab builds the method/event name-to-id symbol table shared
// by both the service and proxy emitters, matching the original
// generator's NameIdMapper: methods are numbered first, in declared
// order, followed by events, also in declared order.
package symtab

import "github.com/WuGaoyin/idlc/internal/ir"

// Table is the ordered, bidirectional name/id mapping for one interface.
// It uses the same methods-then-events ordering that
// cppgen.MethodEventNamesStr renders into the generated initNameIdMapping
// bodies; internal/genservice and internal/genproxy call that function
// and do not consult Table.
type Table struct {
	Names      []string
	MethodIDs  map[string]int
	EventIDs   map[string]int
	idToName   map[int]string
	methodCount int
}

// Plan builds the Table for iface: method names occupy ids
// [0, len(Methods)), event names occupy [len(Methods), len(Methods)+len(Events)).
func Plan(iface *ir.InterfaceDecl) *Table {
	t := &Table{
		MethodIDs: make(map[string]int, len(iface.Methods)),
		EventIDs:  make(map[string]int, len(iface.Events)),
		idToName:  make(map[int]string, len(iface.Methods)+len(iface.Events)),
	}

	id := 0
	for _, m := range iface.Methods {
		t.Names = append(t.Names, m.Name)
		t.MethodIDs[m.Name] = id
		t.idToName[id] = m.Name
		id++
	}
	t.methodCount = id
	for _, e := range iface.Events {
		t.Names = append(t.Names, e.Name)
		t.EventIDs[e.Name] = id
		t.idToName[id] = e.Name
		id++
	}
	return t
}

// NameByID returns the method or event name assigned to id, and whether
// it was found.
func (t *Table) NameByID(id int) (string, bool) {
	name, ok := t.idToName[id]
	return name, ok
}

// IsEvent reports whether id refers to an event rather than a method.
func (t *Table) IsEvent(id int) bool { return id >= t.methodCount }

// Len returns the total number of names (methods plus events).
func (t *Table) Len() int { return len(t.Names) }
