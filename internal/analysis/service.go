package analysis

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/gardenerhq/gardener/internal/workset"
)

const (
	analyzerNotConfiguredMessageConstant    = "analysis service requires an analyzer"
	walkRepositoryErrorTemplateConstant     = "walk repository %s: %w"
	analyzeSourceFileErrorTemplateConstant  = "analyze source file %s: %w"
	finalizeAnalysisErrorTemplateConstant   = "finalize analysis: %w"
	sourceFileQueuedDebugMessageConstant    = "Queued source file for analysis"
	sourceFileSkippedDebugMessageConstant   = "Skipped already analyzed source file"
	analysisCompletedInfoMessageConstant    = "Analysis completed"
	repositoryDirectoryLogFieldNameConstant = "repository_directory"
	sourceFilePathLogFieldNameConstant      = "source_file"
	analyzedFileCountLogFieldNameConstant   = "analyzed_files"
	defaultSourceFileSuffixConstant         = ".go"
	defaultDocumentationFileNameConstant    = "doc.go"
	defaultModuleManifestFileNameConstant   = "go.mod"
	defaultModuleChecksumFileNameConstant   = "go.sum"
	defaultExamplePrefixPatternConstant     = "example_*.go"
	defaultExampleSuffixPatternConstant     = "*_example.go"
	defaultGitMetadataDirectoryNameConstant = ".git"
	defaultVendorDirectoryNameConstant      = "vendor"
	defaultTestdataDirectoryNameConstant    = "testdata"
	defaultExamplesDirectoryNameConstant    = "examples"
)

// ErrAnalyzerNotConfigured reports service construction without an analyzer.
var ErrAnalyzerNotConfigured = errors.New(analyzerNotConfiguredMessageConstant)

// Analyzer accumulates knowledge about source files across repositories and
// emits one metadata snapshot when every eligible file has been fed to it.
type Analyzer interface {
	HasResult(filePath string) bool
	AddSourceFile(executionContext context.Context, repositoryDirectory string, filePath string) error
	Finalize(executionContext context.Context) (*workset.AnalysisMetadata, error)
}

// FilterConfiguration selects which files inside a repository tree are fed to
// the analyzer. Empty slices fall back to the Go-native defaults.
type FilterConfiguration struct {
	SourceFileSuffixes     []string `mapstructure:"source_file_suffixes"`
	ExcludedFileNames      []string `mapstructure:"excluded_file_names"`
	ExcludedFilePatterns   []string `mapstructure:"excluded_file_patterns"`
	ExcludedDirectoryNames []string `mapstructure:"excluded_directory_names"`
}

func (configuration FilterConfiguration) normalized() FilterConfiguration {
	normalizedConfiguration := configuration
	if len(normalizedConfiguration.SourceFileSuffixes) == 0 {
		normalizedConfiguration.SourceFileSuffixes = []string{defaultSourceFileSuffixConstant}
	}
	if len(normalizedConfiguration.ExcludedFileNames) == 0 {
		normalizedConfiguration.ExcludedFileNames = []string{
			defaultDocumentationFileNameConstant,
			defaultModuleManifestFileNameConstant,
			defaultModuleChecksumFileNameConstant,
		}
	}
	if len(normalizedConfiguration.ExcludedFilePatterns) == 0 {
		normalizedConfiguration.ExcludedFilePatterns = []string{
			defaultExamplePrefixPatternConstant,
			defaultExampleSuffixPatternConstant,
		}
	}
	if len(normalizedConfiguration.ExcludedDirectoryNames) == 0 {
		normalizedConfiguration.ExcludedDirectoryNames = []string{
			defaultGitMetadataDirectoryNameConstant,
			defaultVendorDirectoryNameConstant,
			defaultTestdataDirectoryNameConstant,
			defaultExamplesDirectoryNameConstant,
		}
	}
	return normalizedConfiguration
}

func (configuration FilterConfiguration) allowsFile(fileName string) bool {
	suffixMatched := false
	for _, sourceFileSuffix := range configuration.SourceFileSuffixes {
		if strings.HasSuffix(fileName, sourceFileSuffix) {
			suffixMatched = true
			break
		}
	}
	if !suffixMatched {
		return false
	}
	for _, excludedFileName := range configuration.ExcludedFileNames {
		if fileName == excludedFileName {
			return false
		}
	}
	for _, excludedFilePattern := range configuration.ExcludedFilePatterns {
		patternMatched, matchError := filepath.Match(excludedFilePattern, fileName)
		if matchError == nil && patternMatched {
			return false
		}
	}
	return true
}

func (configuration FilterConfiguration) excludesDirectory(directoryName string) bool {
	for _, excludedDirectoryName := range configuration.ExcludedDirectoryNames {
		if directoryName == excludedDirectoryName {
			return true
		}
	}
	return false
}

// Dependencies enumerates the collaborators required by the analysis service.
type Dependencies struct {
	Analyzer Analyzer
	Logger   *zap.Logger
}

// Options configures a single analysis run.
type Options struct {
	Filter FilterConfiguration
}

// Service walks repository trees and feeds eligible files to the analyzer.
type Service struct {
	analyzer Analyzer
	logger   *zap.Logger
}

// NewService validates the dependencies and builds an analysis service.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.Analyzer == nil {
		return nil, ErrAnalyzerNotConfigured
	}
	return &Service{analyzer: dependencies.Analyzer, logger: resolveLogger(dependencies.Logger)}, nil
}

// AnalyzeRepositories walks the supplied repository directories in order,
// feeds every eligible file the analyzer has no result for, and returns the
// finalized metadata snapshot shared by all repositories.
func (service *Service) AnalyzeRepositories(executionContext context.Context, repositoryDirectories []string, options Options) (*workset.AnalysisMetadata, error) {
	filterConfiguration := options.Filter.normalized()
	for _, repositoryDirectory := range repositoryDirectories {
		walkError := service.walkRepository(executionContext, repositoryDirectory, filterConfiguration)
		if walkError != nil {
			return nil, walkError
		}
	}

	analysisMetadata, finalizeError := service.analyzer.Finalize(executionContext)
	if finalizeError != nil {
		return nil, fmt.Errorf(finalizeAnalysisErrorTemplateConstant, finalizeError)
	}

	analyzedFileCount := 0
	if analysisMetadata != nil {
		analyzedFileCount = analysisMetadata.AnalyzedFileCount
	}
	service.logger.Info(analysisCompletedInfoMessageConstant,
		zap.Int(analyzedFileCountLogFieldNameConstant, analyzedFileCount))
	return analysisMetadata, nil
}

func (service *Service) walkRepository(executionContext context.Context, repositoryDirectory string, filterConfiguration FilterConfiguration) error {
	walkError := filepath.WalkDir(repositoryDirectory, func(currentPath string, directoryEntry fs.DirEntry, entryError error) error {
		if entryError != nil {
			return entryError
		}
		if contextError := executionContext.Err(); contextError != nil {
			return contextError
		}
		if directoryEntry.IsDir() {
			if currentPath != repositoryDirectory && filterConfiguration.excludesDirectory(directoryEntry.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !filterConfiguration.allowsFile(directoryEntry.Name()) {
			return nil
		}
		if service.analyzer.HasResult(currentPath) {
			service.logger.Debug(sourceFileSkippedDebugMessageConstant,
				zap.String(sourceFilePathLogFieldNameConstant, currentPath))
			return nil
		}
		service.logger.Debug(sourceFileQueuedDebugMessageConstant,
			zap.String(repositoryDirectoryLogFieldNameConstant, repositoryDirectory),
			zap.String(sourceFilePathLogFieldNameConstant, currentPath))
		addError := service.analyzer.AddSourceFile(executionContext, repositoryDirectory, currentPath)
		if addError != nil {
			return fmt.Errorf(analyzeSourceFileErrorTemplateConstant, currentPath, addError)
		}
		return nil
	})
	if walkError != nil {
		return fmt.Errorf(walkRepositoryErrorTemplateConstant, repositoryDirectory, walkError)
	}
	return nil
}

func resolveLogger(candidateLogger *zap.Logger) *zap.Logger {
	if candidateLogger != nil {
		return candidateLogger
	}
	return zap.NewNop()
}
