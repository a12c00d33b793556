// Command idlc-gen-ndkcpp reads an IDL intermediate-representation
// document and emits the six C++ source files binding it to the Polaris
// native RPC runtime, grounded on backend/codegen.py and
// backend/common/utils.py's parserCommand/helpinfo CLI surface.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	flag "github.com/spf13/pflag"

	"github.com/WuGaoyin/idlc/internal/driver"
	"github.com/WuGaoyin/idlc/internal/ir"
)

var targetKinds = map[string]bool{
	"cpp":     true,
	"java":    true,
	"ndk_cpp": true,
}

type logger struct {
	level string
}

var levelOrder = map[string]int{"d": 0, "i": 1, "w": 2, "e": 3}

func (l *logger) logf(level, format string, args ...interface{}) {
	if levelOrder[level] < levelOrder[l.level] {
		return
	}
	msg := fmt.Sprintf(format, args...)
	switch level {
	case "d":
		color.New(color.FgCyan).Fprintln(os.Stderr, "[DEBUG] "+msg)
	case "i":
		color.New(color.FgGreen).Fprintln(os.Stderr, "[INFO] "+msg)
	case "w":
		color.New(color.FgYellow).Fprintln(os.Stderr, "[WARN] "+msg)
	case "e":
		color.New(color.FgRed).Fprintln(os.Stderr, "[ERROR] "+msg)
	}
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("idlc-gen-ndkcpp", flag.ContinueOnError)
	fs.Usage = func() { printHelp() }

	irPath := fs.StringP("ir", "i", ".", "path to the IR JSON document")
	destDir := fs.StringP("path", "p", ".", "destination directory for generated files")
	baseName := fs.StringP("base", "b", "", "base name for the six generated artifacts")
	logLevel := fs.StringP("log", "l", "e", "log level: d, i, w, or e")
	var targets []string
	fs.StringArrayVarP(&targets, "target", "t", nil, "generation target (repeatable); only ndk_cpp is dispatched")
	help := fs.BoolP("help", "h", false, "show usage and exit")

	if err := fs.Parse(args); err != nil {
		printHelp()
		return 1
	}
	if *help {
		printHelp()
		return 0
	}

	log := &logger{level: normalizeLogLevel(*logLevel)}

	if len(targets) == 0 {
		log.logf("e", "missing required flag -t/--target")
		return 1
	}
	if *baseName == "" {
		log.logf("e", "missing required flag -b/--base")
		return 1
	}

	dispatch := false
	for _, t := range targets {
		if !targetKinds[t] {
			log.logf("w", "ignoring unknown target %q", t)
			continue
		}
		if t == "ndk_cpp" {
			dispatch = true
		}
	}
	if !dispatch {
		log.logf("i", "no dispatchable target in %v; nothing to do", targets)
		return 0
	}

	doc, err := ir.Load(*irPath)
	if err != nil {
		log.logf("e", "%v", err)
		return 1
	}

	artifacts, err := driver.GenerateFromDocument(doc, *baseName)
	if err != nil {
		log.logf("e", "%v", err)
		return 1
	}

	if err := driver.Write(*destDir, artifacts); err != nil {
		log.logf("e", "%v", err)
		return 1
	}

	log.logf("i", "generated %d files into %s", len(artifacts), *destDir)
	return 0
}

func normalizeLogLevel(raw string) string {
	if _, ok := levelOrder[raw]; ok {
		return raw
	}
	return "e"
}

func printHelp() {
	fmt.Fprintln(os.Stderr, `idlc-gen-ndkcpp: generate Polaris NDK C++ RPC bindings from an IDL IR document

Usage:
  idlc-gen-ndkcpp -i <ir.json> -p <dest-dir> -b <base-name> -t ndk_cpp [-l <level>]

Flags:
  -i, --ir     path to the IR JSON document (default ".")
  -p, --path   destination directory for generated files (default ".")
  -b, --base   base name for the six generated artifacts (required)
  -t, --target generation target, repeatable; only ndk_cpp is dispatched (required)
  -l, --log    log level: d, i, w, or e (default "e")
  -h, --help   show this message`)
}
