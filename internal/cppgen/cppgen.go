// Package cppgen collects the formatting helpers shared by
// internal/gencommon, internal/genservice, and internal/genproxy: include
// guards, namespace wrapping, and the argument-list string-building rules
// that recur across every emitted artifact. It is the Go generalization
// of the original generator's CppGeneratorProtocol base class
// (cpp_gen_protocol.py), shared the way the teacher shares
// protogen.GeneratedFile across its own emitters.
package cppgen

import (
	"fmt"
	"strings"

	"github.com/WuGaoyin/idlc/internal/codegen"
	"github.com/WuGaoyin/idlc/internal/ir"
	"github.com/WuGaoyin/idlc/internal/typeres"
)

// Context carries the per-run state every emitter needs: the decoded
// document, the base name used to derive file/class names, and the
// module path used for namespaces and include guards.
type Context struct {
	Doc        *ir.Document
	BaseName   string
	ModulePath []string
}

// NewContext builds a Context from a loaded document and a base name
// (the "Base" of "<Base>Common.h" etc.).
func NewContext(doc *ir.Document, baseName string) *Context {
	return &Context{Doc: doc, BaseName: baseName, ModulePath: doc.ModulePath}
}

// FullNamespace returns the module path joined with dots, e.g.
// ["acme", "widgets"] -> "acme.widgets", matching the original
// generator's CppGeneratorProtocol._full_name_space used to build a
// service's full PolarisServiceIdentifier.service_name.
func (c *Context) FullNamespace() string {
	return strings.Join(c.ModulePath, ".")
}

// IncludeGuardPrefix returns the module path joined with underscores and
// upper-cased, e.g. ["acme", "widgets"] -> "ACME_WIDGETS".
func (c *Context) IncludeGuardPrefix() string {
	return strings.ToUpper(strings.Join(c.ModulePath, "_"))
}

// HeaderGuardStart emits the #ifndef/#define pair for the given file
// suffix (e.g. "COMMON_H", "SERVICE_H").
func (c *Context) HeaderGuardStart(b *codegen.Builder, suffix string) {
	guard := fmt.Sprintf("%s_%s_", c.IncludeGuardPrefix(), suffix)
	b.P("#ifndef %s", guard)
	b.P("#define %s", guard)
}

// HeaderGuardEnd emits the matching #endif, repeating the guard name in a
// trailing comment the way the original generator's header files do.
func (c *Context) HeaderGuardEnd(b *codegen.Builder, suffix string) {
	guard := fmt.Sprintf("%s_%s_", c.IncludeGuardPrefix(), suffix)
	b.P("#endif  // %s", guard)
}

// NamespaceStart opens one nested `namespace X {` block per module path
// segment, in order.
func (c *Context) NamespaceStart(b *codegen.Builder) {
	for _, seg := range c.ModulePath {
		b.P("namespace %s {", seg)
	}
	b.P("")
}

// NamespaceEnd closes the namespace blocks opened by NamespaceStart, in
// reverse order, each annotated with the namespace it closes.
func (c *Context) NamespaceEnd(b *codegen.Builder) {
	b.P("")
	for i := len(c.ModulePath) - 1; i >= 0; i-- {
		b.P("}  // namespace %s", c.ModulePath[i])
	}
}

// ResolveType is typeres.Resolve, re-exported so emitters only need to
// import cppgen.
func ResolveType(t ir.TypeRef) (string, error) { return typeres.Resolve(t) }

// IsArgEmpty reports whether arg's resolved type is void.
func IsArgEmpty(arg ir.Argument) (bool, error) {
	cppType, err := typeres.Resolve(arg.Type)
	if err != nil {
		return false, err
	}
	return typeres.IsVoid(cppType), nil
}

// IsArgsListEmpty reports whether args is empty, or contains exactly one
// void argument (the IR's convention for "no parameters"/"no return
// value").
func IsArgsListEmpty(args []ir.Argument) (bool, error) {
	if len(args) == 0 {
		return true, nil
	}
	if len(args) == 1 {
		return IsArgEmpty(args[0])
	}
	return false, nil
}

// ArgListStr renders a typed, comma-separated argument list:
// "<begin>T0 name0<middle>T1 name1<middle>...<end>". An argument with no
// name is assigned "<direction>_arg_<i>" (0-based), matching the original
// generator's anonymous-parameter convention. Returns "" (no begin/end)
// when the list is the IR's void-singleton convention.
func ArgListStr(direction string, args []ir.Argument, begin, middle, end string) (string, error) {
	empty, err := IsArgsListEmpty(args)
	if err != nil {
		return "", err
	}
	if empty {
		return "", nil
	}

	var parts []string
	for i, arg := range args {
		cppType, err := typeres.Resolve(arg.Type)
		if err != nil {
			return "", err
		}
		name := arg.Name
		if name == "" {
			name = fmt.Sprintf("%s_arg_%d", direction, i)
		}
		parts = append(parts, fmt.Sprintf("const %s& %s", cppType, name))
	}
	return begin + strings.Join(parts, middle) + end, nil
}

// NoTypeArgListStr renders a comma-separated list of argument names only
// (no types), using the same anonymous-naming convention as ArgListStr.
// Used to forward an already-declared parameter list to a call site.
func NoTypeArgListStr(direction string, args []ir.Argument, begin, end string) (string, error) {
	empty, err := IsArgsListEmpty(args)
	if err != nil {
		return "", err
	}
	if empty {
		return "", nil
	}

	var parts []string
	for i, arg := range args {
		name := arg.Name
		if name == "" {
			name = fmt.Sprintf("%s_arg_%d", direction, i)
		}
		parts = append(parts, name)
	}
	return begin + strings.Join(parts, ", ") + end, nil
}

// MemberName returns the name a data-wrapper aggregate member should use
// for the i'th (0-based) argument of functionName: the argument's own
// name if set, otherwise "<functionName>_arg_<i+1>" (1-based), matching
// __genDataWrapperStructItem's anonymous-member convention.
func MemberName(functionName string, i int, arg ir.Argument) string {
	if arg.Name != "" {
		return arg.Name
	}
	return fmt.Sprintf("%s_arg_%d", functionName, i+1)
}

// MethodEventNamesStr renders the quoted, comma-separated name list
// passed to NameIdMapper's constructor: every method name, in order,
// followed by every event name, in order.
func MethodEventNamesStr(iface *ir.InterfaceDecl) string {
	var parts []string
	for _, m := range iface.Methods {
		parts = append(parts, fmt.Sprintf("%q", m.Name))
	}
	for _, e := range iface.Events {
		parts = append(parts, fmt.Sprintf("%q", e.Name))
	}
	return strings.Join(parts, ", ")
}
