// Package driver composes the six emitters into the fixed generation
// order spec.md §4 prescribes — Common.h, Common.cpp, Service.h,
// Service.cpp, Proxy.h, Proxy.cpp — and writes each to disk, grounded on
// cpp_gen.py's CppGenerator.gen and the teacher's protoc-gen-go/main.go
// composition idiom (gen.NewGeneratedFile per artifact, written in a
// fixed loop).
package driver

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/WuGaoyin/idlc/internal/cppgen"
	"github.com/WuGaoyin/idlc/internal/gencommon"
	"github.com/WuGaoyin/idlc/internal/genproxy"
	"github.com/WuGaoyin/idlc/internal/genservice"
	"github.com/WuGaoyin/idlc/internal/ir"
)

// Artifact is one of the six generated files, paired with its content.
type Artifact struct {
	Filename string
	Content  []byte
}

// Generate loads the IR document at irPath and produces, in order, the
// six Polaris artifacts for baseName.
func Generate(irPath, baseName string) ([]Artifact, error) {
	doc, err := ir.Load(irPath)
	if err != nil {
		return nil, err
	}
	return GenerateFromDocument(doc, baseName)
}

// GenerateFromDocument produces the six artifacts from an already-loaded
// document, split out from Generate so callers (and tests) that already
// hold a *ir.Document don't need to round-trip it through a file.
func GenerateFromDocument(doc *ir.Document, baseName string) ([]Artifact, error) {
	ctx := cppgen.NewContext(doc, baseName)

	common := gencommon.New(ctx)
	service := genservice.New(ctx)
	proxy := genproxy.New(ctx)

	var artifacts []Artifact

	commonHeader, err := common.GenerateHeader()
	if err != nil {
		return nil, fmt.Errorf("driver: generating %sCommon.h: %w", baseName, err)
	}
	artifacts = append(artifacts, Artifact{Filename: baseName + "Common.h", Content: commonHeader})

	commonImpl, err := common.GenerateImpl()
	if err != nil {
		return nil, fmt.Errorf("driver: generating %sCommon.cpp: %w", baseName, err)
	}
	artifacts = append(artifacts, Artifact{Filename: baseName + "Common.cpp", Content: commonImpl})

	serviceHeader, err := service.GenerateHeader()
	if err != nil {
		return nil, fmt.Errorf("driver: generating %sService.h: %w", baseName, err)
	}
	artifacts = append(artifacts, Artifact{Filename: baseName + "Service.h", Content: serviceHeader})

	serviceImpl, err := service.GenerateImpl()
	if err != nil {
		return nil, fmt.Errorf("driver: generating %sService.cpp: %w", baseName, err)
	}
	artifacts = append(artifacts, Artifact{Filename: baseName + "Service.cpp", Content: serviceImpl})

	proxyHeader, err := proxy.GenerateHeader()
	if err != nil {
		return nil, fmt.Errorf("driver: generating %sProxy.h: %w", baseName, err)
	}
	artifacts = append(artifacts, Artifact{Filename: baseName + "Proxy.h", Content: proxyHeader})

	proxyImpl, err := proxy.GenerateImpl()
	if err != nil {
		return nil, fmt.Errorf("driver: generating %sProxy.cpp: %w", baseName, err)
	}
	artifacts = append(artifacts, Artifact{Filename: baseName + "Proxy.cpp", Content: proxyImpl})

	return artifacts, nil
}

// Write creates destDir if needed and writes each artifact, truncating
// any existing file of the same name — matching Utils.createGenFile's
// mkdir-if-missing-then-truncate discipline from the original generator.
func Write(destDir string, artifacts []Artifact) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("driver: creating output directory %s: %w", destDir, err)
	}
	for _, a := range artifacts {
		path := filepath.Join(destDir, a.Filename)
		if err := os.WriteFile(path, a.Content, 0o644); err != nil {
			return fmt.Errorf("driver: writing %s: %w", path, err)
		}
	}
	return nil
}
