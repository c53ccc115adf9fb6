package passes

import (
	"bytes"
	"context"
	"fmt"
	"go/format"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"

	"golang.org/x/tools/go/ast/astutil"

	"github.com/gardenerhq/gardener/internal/transform"
)

const (
	rewriteImportsPassNameConstant       = "rewrite-imports"
	rewriteImportsCommitMessageConstant  = "Automated cleanup: rewrite import paths"
	parseForRewriteErrorTemplateConstant = "parse %s: %w"
	formatRewrittenErrorTemplateConstant = "format %s: %w"
	writeRewrittenErrorTemplateConstant  = "write %s: %w"
)

// ImportRewriteRule maps an old import path to its replacement.
type ImportRewriteRule struct {
	FromPath string `mapstructure:"from"`
	ToPath   string `mapstructure:"to"`
}

// RewriteImportsPass rewrites configured import paths across a repository's
// source files. It reads candidates from the shared analysis inventory, so
// repositories and files that never import a rewritten path are skipped
// without parsing. Rewrites always request review.
type RewriteImportsPass struct {
	rules []ImportRewriteRule
}

// NewRewriteImportsPass builds the pass; without rules it changes nothing.
func NewRewriteImportsPass(rules []ImportRewriteRule) *RewriteImportsPass {
	return &RewriteImportsPass{rules: rules}
}

// Name identifies the pass in pipeline configuration.
func (pass *RewriteImportsPass) Name() string {
	return rewriteImportsPassNameConstant
}

// Apply rewrites matching imports in place and marks the result for review.
func (pass *RewriteImportsPass) Apply(executionContext context.Context, target transform.PassTarget) (transform.PassResult, error) {
	repository := target.Repository
	if len(pass.rules) == 0 || repository.Metadata == nil {
		return transform.PassResult{}, nil
	}
	repositoryInventory, inventoryFound := repository.Metadata.InventoryFor(repository.Directory)
	if !inventoryFound || !pass.repositoryUsesRewrittenPaths(repositoryInventory.ImportUsageCounts) {
		return transform.PassResult{}, nil
	}

	fileSet := token.NewFileSet()
	var changedFiles []string
	for _, sourceFile := range repositoryInventory.SourceFiles {
		if contextError := executionContext.Err(); contextError != nil {
			return transform.PassResult{}, contextError
		}
		if !pass.fileUsesRewrittenPaths(sourceFile.ImportPaths) {
			continue
		}

		sourceFilePath := filepath.Join(repository.Directory, sourceFile.RelativePath)
		parsedFile, parseError := parser.ParseFile(fileSet, sourceFilePath, nil, parser.ParseComments)
		if parseError != nil {
			return transform.PassResult{}, fmt.Errorf(parseForRewriteErrorTemplateConstant, sourceFilePath, parseError)
		}

		rewritten := false
		for _, rewriteRule := range pass.rules {
			if astutil.RewriteImport(fileSet, parsedFile, rewriteRule.FromPath, rewriteRule.ToPath) {
				rewritten = true
			}
		}
		if !rewritten {
			continue
		}

		var formattedSource bytes.Buffer
		formatError := format.Node(&formattedSource, fileSet, parsedFile)
		if formatError != nil {
			return transform.PassResult{}, fmt.Errorf(formatRewrittenErrorTemplateConstant, sourceFilePath, formatError)
		}
		writeError := os.WriteFile(sourceFilePath, formattedSource.Bytes(), 0o644)
		if writeError != nil {
			return transform.PassResult{}, fmt.Errorf(writeRewrittenErrorTemplateConstant, sourceFilePath, writeError)
		}
		changedFiles = append(changedFiles, sourceFile.RelativePath)
	}

	return transform.PassResult{
		Changed:       len(changedFiles) > 0,
		ChangedFiles:  changedFiles,
		NeedsReview:   len(changedFiles) > 0,
		CommitMessage: rewriteImportsCommitMessageConstant,
	}, nil
}

func (pass *RewriteImportsPass) repositoryUsesRewrittenPaths(importUsageCounts map[string]int) bool {
	for _, rewriteRule := range pass.rules {
		if importUsageCounts[rewriteRule.FromPath] > 0 {
			return true
		}
	}
	return false
}

func (pass *RewriteImportsPass) fileUsesRewrittenPaths(importPaths []string) bool {
	for _, importPath := range importPaths {
		for _, rewriteRule := range pass.rules {
			if importPath == rewriteRule.FromPath {
				return true
			}
		}
	}
	return false
}
