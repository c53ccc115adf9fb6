package passes

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gardenerhq/gardener/internal/transform"
)

const (
	managedGitignorePassNameConstant      = "managed-gitignore"
	managedGitignoreCommitMessageConstant = "Automated cleanup: manage .gitignore entries"
	gitignoreFileNameConstant             = ".gitignore"
	readGitignoreErrorTemplateConstant    = "read %s: %w"
	writeGitignoreErrorTemplateConstant   = "write %s: %w"
)

var defaultGitignoreEntries = []string{".DS_Store"}

// ManagedGitignorePass guarantees that the repository's .gitignore contains
// every configured entry, creating the file when absent.
type ManagedGitignorePass struct {
	requiredEntries []string
}

// NewManagedGitignorePass builds the pass; empty entries fall back to the
// default (.DS_Store).
func NewManagedGitignorePass(requiredEntries []string) *ManagedGitignorePass {
	if len(requiredEntries) == 0 {
		requiredEntries = defaultGitignoreEntries
	}
	return &ManagedGitignorePass{requiredEntries: requiredEntries}
}

// Name identifies the pass in pipeline configuration.
func (pass *ManagedGitignorePass) Name() string {
	return managedGitignorePassNameConstant
}

// Apply appends the missing entries to the repository's .gitignore.
func (pass *ManagedGitignorePass) Apply(executionContext context.Context, target transform.PassTarget) (transform.PassResult, error) {
	if contextError := executionContext.Err(); contextError != nil {
		return transform.PassResult{}, contextError
	}

	gitignorePath := filepath.Join(target.Repository.Directory, gitignoreFileNameConstant)
	existingContents, readError := os.ReadFile(gitignorePath)
	if readError != nil && !errors.Is(readError, fs.ErrNotExist) {
		return transform.PassResult{}, fmt.Errorf(readGitignoreErrorTemplateConstant, gitignorePath, readError)
	}

	presentEntries := map[string]struct{}{}
	for _, existingLine := range strings.Split(string(existingContents), lineSeparatorConstant) {
		presentEntries[strings.TrimSpace(existingLine)] = struct{}{}
	}

	var missingEntries []string
	for _, requiredEntry := range pass.requiredEntries {
		if _, present := presentEntries[requiredEntry]; !present {
			missingEntries = append(missingEntries, requiredEntry)
		}
	}
	if len(missingEntries) == 0 {
		return transform.PassResult{}, nil
	}

	rewrittenContents := string(existingContents)
	if len(rewrittenContents) > 0 && !strings.HasSuffix(rewrittenContents, lineSeparatorConstant) {
		rewrittenContents += lineSeparatorConstant
	}
	rewrittenContents += strings.Join(missingEntries, lineSeparatorConstant) + lineSeparatorConstant

	writeError := os.WriteFile(gitignorePath, []byte(rewrittenContents), 0o644)
	if writeError != nil {
		return transform.PassResult{}, fmt.Errorf(writeGitignoreErrorTemplateConstant, gitignorePath, writeError)
	}

	return transform.PassResult{
		Changed:       true,
		ChangedFiles:  []string{gitignoreFileNameConstant},
		CommitMessage: managedGitignoreCommitMessageConstant,
	}, nil
}
