package codegen_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/WuGaoyin/idlc/internal/codegen"
)

func TestPWritesIndentedLines(t *testing.T) {
	b := codegen.New()
	b.P("namespace acme {")
	b.Block(func() {
		b.P("struct Point {")
		b.Block(func() {
			b.P("int32_t x;")
		})
		b.P("};")
	})
	b.P("}  // namespace acme")

	want := "namespace acme {\n" +
		"    struct Point {\n" +
		"        int32_t x;\n" +
		"    };\n" +
		"}  // namespace acme\n"
	require.Equal(t, want, b.String())
}

func TestRawAppendsVerbatim(t *testing.T) {
	b := codegen.New()
	b.Raw("line one\nline two\n")
	require.Equal(t, "line one\nline two\n", b.String())
}
