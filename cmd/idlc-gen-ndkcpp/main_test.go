package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleIR = `{
  "module_name": ["acme"],
  "declarations_order": [{"category": "interface", "name": "Widgets"}],
  "interface_declarations": [
    {"name": "Widgets", "method_list": [{"method_name": "Ping"}]}
  ]
}`

func TestRunMissingTargetIsFatal(t *testing.T) {
	require.Equal(t, 1, run([]string{"-b", "Widgets"}))
}

func TestRunMissingBaseIsFatal(t *testing.T) {
	require.Equal(t, 1, run([]string{"-t", "ndk_cpp"}))
}

func TestRunHelpExitsZero(t *testing.T) {
	require.Equal(t, 0, run([]string{"--help"}))
}

func TestRunNonDispatchableTargetExitsZero(t *testing.T) {
	require.Equal(t, 0, run([]string{"-t", "java", "-b", "Widgets"}))
}

func TestRunGeneratesFiles(t *testing.T) {
	dir := t.TempDir()
	irPath := filepath.Join(dir, "doc.json")
	require.NoError(t, os.WriteFile(irPath, []byte(sampleIR), 0o644))
	outDir := filepath.Join(dir, "out")

	code := run([]string{"-i", irPath, "-p", outDir, "-b", "Widgets", "-t", "ndk_cpp"})
	require.Equal(t, 0, code)

	_, err := os.Stat(filepath.Join(outDir, "WidgetsCommon.h"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(outDir, "WidgetsProxy.cpp"))
	require.NoError(t, err)
}

func TestRunBadIRPathIsFatal(t *testing.T) {
	dir := t.TempDir()
	code := run([]string{"-i", filepath.Join(dir, "missing.json"), "-b", "Widgets", "-t", "ndk_cpp"})
	require.Equal(t, 1, code)
}
