package workset

// SourceFileRecord captures one analyzed source file inside a working copy.
type SourceFileRecord struct {
	RelativePath string
	PackageName  string
	ImportPaths  []string
}

// RepositoryInventory aggregates the analyzed files of one working copy.
type RepositoryInventory struct {
	RepositoryDirectory string
	SourceFiles         []SourceFileRecord
	ImportUsageCounts   map[string]int
}

// AnalysisMetadata is the single analysis result shared by every working
// repository in a run. Cleanup passes consult it read-only.
type AnalysisMetadata struct {
	AnalyzedFileCount int
	Inventories       map[string]*RepositoryInventory
	ImportUsageCounts map[string]int
}

// InventoryFor returns the inventory recorded for a repository directory.
func (metadata *AnalysisMetadata) InventoryFor(repositoryDirectory string) (*RepositoryInventory, bool) {
	if metadata == nil {
		return nil, false
	}
	inventory, found := metadata.Inventories[repositoryDirectory]
	return inventory, found
}

// ImportCount returns how often an import path occurs across all inventories.
func (metadata *AnalysisMetadata) ImportCount(importPath string) int {
	if metadata == nil {
		return 0
	}
	return metadata.ImportUsageCounts[importPath]
}
