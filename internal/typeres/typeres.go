// Package typeres resolves an IR TypeRef into the C++ spelling the
// emitters embed in declarations, argument lists, and aggregate structs.
package typeres

import (
	"fmt"
	"strings"

	"github.com/WuGaoyin/idlc/internal/ir"
)

// primitives maps the IR's token-sequence primitive spellings to their C++
// equivalents, grounded on cpp_gen_protocol.py's type_mapping table.
var primitives = map[string]string{
	"void":                "void",
	"boolean":             "bool",
	"int8":                "int8_t",
	"uint8":               "uint8_t",
	"short":               "int16_t",
	"long":                "int32_t",
	"long long":           "int64_t",
	"unsigned short":      "uint16_t",
	"unsigned long":       "uint32_t",
	"unsigned long long":  "uint64_t",
	"float":               "float",
	"double":               "double",
	"string":              "std::string",
}

// Resolve converts t into its C++ type spelling. Fixed-size sequences
// (sequence_size >= 1) become std::array<T, N>; variable sequences
// (sequence_size == -1) become std::vector<T>; a structured node with no
// sequence_size (or 0) passes its inner type through unchanged. An empty
// token list resolves to "void"; a TypeRef carrying neither tokens nor a
// type_name is malformed and returns an error. A token sequence not found in
// the primitive table is assumed to already be a valid C++ spelling
// (a user-defined enum/struct/union name) and passed through verbatim.
func Resolve(t ir.TypeRef) (string, error) {
	if t.IsTokens() {
		spelling := strings.Join(t.Tokens, " ")
		if spelling == "" {
			return "void", nil
		}
		if cpp, ok := primitives[spelling]; ok {
			return cpp, nil
		}
		return spelling, nil
	}

	if t.TypeName == nil {
		return "", fmt.Errorf("typeres: malformed type reference: missing type_name")
	}

	inner, err := Resolve(*t.TypeName)
	if err != nil {
		return "", err
	}

	switch {
	case t.SequenceSize != nil && *t.SequenceSize >= 1:
		return fmt.Sprintf("std::array<%s, %d>", inner, *t.SequenceSize), nil
	case t.SequenceSize != nil && *t.SequenceSize == -1:
		return fmt.Sprintf("std::vector<%s>", inner), nil
	default:
		return inner, nil
	}
}

// IsVoid reports whether a resolved C++ spelling denotes "no value" —
// used throughout the emitters to suppress aggregate members and
// collapse empty argument lists.
func IsVoid(cppType string) bool { return cppType == "void" }
