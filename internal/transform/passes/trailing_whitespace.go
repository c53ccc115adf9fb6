package passes

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gardenerhq/gardener/internal/transform"
)

const (
	trailingWhitespacePassNameConstant          = "trailing-whitespace"
	trailingWhitespaceCommitMessageConstant     = "Automated cleanup: strip trailing whitespace"
	trailingWhitespaceWalkErrorTemplateConstant = "scan repository %s: %w"
	rewriteFileErrorTemplateConstant            = "rewrite file %s: %w"
	gitMetadataDirectoryNameConstant            = ".git"
	trailingWhitespaceCutsetConstant            = " \t"
	lineSeparatorConstant                       = "\n"
)

var defaultTrailingWhitespaceSuffixes = []string{".go", ".md"}

// TrailingWhitespacePass strips trailing spaces and tabs from every line of
// files whose names carry one of the configured suffixes.
type TrailingWhitespacePass struct {
	fileSuffixes []string
}

// NewTrailingWhitespacePass builds the pass; empty suffixes fall back to the
// defaults (.go and .md).
func NewTrailingWhitespacePass(fileSuffixes []string) *TrailingWhitespacePass {
	if len(fileSuffixes) == 0 {
		fileSuffixes = defaultTrailingWhitespaceSuffixes
	}
	return &TrailingWhitespacePass{fileSuffixes: fileSuffixes}
}

// Name identifies the pass in pipeline configuration.
func (pass *TrailingWhitespacePass) Name() string {
	return trailingWhitespacePassNameConstant
}

// Apply rewrites matching files in place and reports the changed paths
// relative to the repository directory.
func (pass *TrailingWhitespacePass) Apply(executionContext context.Context, target transform.PassTarget) (transform.PassResult, error) {
	repositoryDirectory := target.Repository.Directory
	var changedFiles []string

	walkError := filepath.WalkDir(repositoryDirectory, func(currentPath string, directoryEntry fs.DirEntry, entryError error) error {
		if entryError != nil {
			return entryError
		}
		if contextError := executionContext.Err(); contextError != nil {
			return contextError
		}
		if directoryEntry.IsDir() {
			if directoryEntry.Name() == gitMetadataDirectoryNameConstant {
				return filepath.SkipDir
			}
			return nil
		}
		if !pass.matchesSuffix(directoryEntry.Name()) {
			return nil
		}

		fileChanged, rewriteError := stripTrailingWhitespace(currentPath)
		if rewriteError != nil {
			return fmt.Errorf(rewriteFileErrorTemplateConstant, currentPath, rewriteError)
		}
		if fileChanged {
			relativePath, relativeError := filepath.Rel(repositoryDirectory, currentPath)
			if relativeError != nil {
				relativePath = currentPath
			}
			changedFiles = append(changedFiles, relativePath)
		}
		return nil
	})
	if walkError != nil {
		return transform.PassResult{}, fmt.Errorf(trailingWhitespaceWalkErrorTemplateConstant, repositoryDirectory, walkError)
	}

	return transform.PassResult{
		Changed:       len(changedFiles) > 0,
		ChangedFiles:  changedFiles,
		CommitMessage: trailingWhitespaceCommitMessageConstant,
	}, nil
}

func (pass *TrailingWhitespacePass) matchesSuffix(fileName string) bool {
	for _, fileSuffix := range pass.fileSuffixes {
		if strings.HasSuffix(fileName, fileSuffix) {
			return true
		}
	}
	return false
}

func stripTrailingWhitespace(filePath string) (bool, error) {
	fileInfo, statError := os.Stat(filePath)
	if statError != nil {
		return false, statError
	}
	fileContents, readError := os.ReadFile(filePath)
	if readError != nil {
		return false, readError
	}

	fileLines := strings.Split(string(fileContents), lineSeparatorConstant)
	for lineIndex, fileLine := range fileLines {
		fileLines[lineIndex] = strings.TrimRight(fileLine, trailingWhitespaceCutsetConstant)
	}
	rewrittenContents := strings.Join(fileLines, lineSeparatorConstant)
	if rewrittenContents == string(fileContents) {
		return false, nil
	}

	writeError := os.WriteFile(filePath, []byte(rewrittenContents), fileInfo.Mode().Perm())
	if writeError != nil {
		return false, writeError
	}
	return true, nil
}
