package analysis

import (
	"context"
	"fmt"
	"go/parser"
	"go/token"
	"path/filepath"
	"strconv"

	"github.com/gardenerhq/gardener/internal/workset"
)

const parseSourceFileErrorTemplateConstant = "parse source file %s: %w"

// InventoryAnalyzer is the reference analyzer. It records every source file's
// package and import declarations and aggregates import usage counts per
// repository and across the whole run. It is not safe for concurrent use; the
// analysis service feeds it from a single goroutine.
type InventoryAnalyzer struct {
	fileSet           *token.FileSet
	inventories       map[string]*workset.RepositoryInventory
	importUsageCounts map[string]int
	analyzedPaths     map[string]struct{}
	analyzedFileCount int
}

// NewInventoryAnalyzer builds an empty inventory analyzer.
func NewInventoryAnalyzer() *InventoryAnalyzer {
	return &InventoryAnalyzer{
		fileSet:           token.NewFileSet(),
		inventories:       map[string]*workset.RepositoryInventory{},
		importUsageCounts: map[string]int{},
		analyzedPaths:     map[string]struct{}{},
	}
}

// HasResult reports whether the file was already fed to the analyzer.
func (analyzer *InventoryAnalyzer) HasResult(filePath string) bool {
	_, analyzed := analyzer.analyzedPaths[filePath]
	return analyzed
}

// AddSourceFile parses the file's package clause and import declarations and
// records them in the repository's inventory.
func (analyzer *InventoryAnalyzer) AddSourceFile(executionContext context.Context, repositoryDirectory string, filePath string) error {
	if contextError := executionContext.Err(); contextError != nil {
		return contextError
	}

	parsedFile, parseError := parser.ParseFile(analyzer.fileSet, filePath, nil, parser.ImportsOnly)
	if parseError != nil {
		return fmt.Errorf(parseSourceFileErrorTemplateConstant, filePath, parseError)
	}

	relativePath, relativeError := filepath.Rel(repositoryDirectory, filePath)
	if relativeError != nil {
		relativePath = filePath
	}

	importPaths := make([]string, 0, len(parsedFile.Imports))
	for _, importSpecification := range parsedFile.Imports {
		importPath, unquoteError := strconv.Unquote(importSpecification.Path.Value)
		if unquoteError != nil {
			continue
		}
		importPaths = append(importPaths, importPath)
	}

	repositoryInventory, inventoryExists := analyzer.inventories[repositoryDirectory]
	if !inventoryExists {
		repositoryInventory = &workset.RepositoryInventory{
			RepositoryDirectory: repositoryDirectory,
			ImportUsageCounts:   map[string]int{},
		}
		analyzer.inventories[repositoryDirectory] = repositoryInventory
	}
	repositoryInventory.SourceFiles = append(repositoryInventory.SourceFiles, workset.SourceFileRecord{
		RelativePath: relativePath,
		PackageName:  parsedFile.Name.Name,
		ImportPaths:  importPaths,
	})
	for _, importPath := range importPaths {
		repositoryInventory.ImportUsageCounts[importPath]++
		analyzer.importUsageCounts[importPath]++
	}

	analyzer.analyzedPaths[filePath] = struct{}{}
	analyzer.analyzedFileCount++
	return nil
}

// Finalize returns the metadata snapshot accumulated so far.
func (analyzer *InventoryAnalyzer) Finalize(executionContext context.Context) (*workset.AnalysisMetadata, error) {
	if contextError := executionContext.Err(); contextError != nil {
		return nil, contextError
	}
	return &workset.AnalysisMetadata{
		AnalyzedFileCount: analyzer.analyzedFileCount,
		Inventories:       analyzer.inventories,
		ImportUsageCounts: analyzer.importUsageCounts,
	}, nil
}
