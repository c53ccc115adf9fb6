package githubauth_test

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gardenerhq/gardener/internal/githubauth"
)

func TestReadTokenFileTrimsSurroundingWhitespace(testInstance *testing.T) {
	tokenFilePath := filepath.Join(testInstance.TempDir(), githubauth.DefaultTokenFileName)
	require.NoError(testInstance, os.WriteFile(tokenFilePath, []byte("  ghp_example_value\n"), 0o600))

	tokenValue, readError := githubauth.ReadTokenFile(tokenFilePath)
	require.NoError(testInstance, readError)
	require.Equal(testInstance, "ghp_example_value", tokenValue)
}

func TestReadTokenFileMissingFileCarriesRemediation(testInstance *testing.T) {
	missingPath := filepath.Join(testInstance.TempDir(), githubauth.DefaultTokenFileName)

	_, readError := githubauth.ReadTokenFile(missingPath)
	require.Error(testInstance, readError)

	var tokenFileError *githubauth.TokenFileError
	require.ErrorAs(testInstance, readError, &tokenFileError)
	require.Equal(testInstance, missingPath, tokenFileError.TokenFilePath)
	require.ErrorIs(testInstance, readError, fs.ErrNotExist)
	require.Contains(testInstance, readError.Error(), "personal access token")
	require.Contains(testInstance, readError.Error(), missingPath)
}

func TestReadTokenFileRejectsEmptyContents(testInstance *testing.T) {
	tokenFilePath := filepath.Join(testInstance.TempDir(), githubauth.DefaultTokenFileName)
	require.NoError(testInstance, os.WriteFile(tokenFilePath, []byte("   \n\t"), 0o600))

	_, readError := githubauth.ReadTokenFile(tokenFilePath)
	require.ErrorIs(testInstance, readError, githubauth.ErrTokenFileEmpty)
}

func TestReadTokenFileRejectsBlankPath(testInstance *testing.T) {
	_, readError := githubauth.ReadTokenFile("   ")
	require.ErrorIs(testInstance, readError, githubauth.ErrTokenFilePathMissing)

	var tokenFileError *githubauth.TokenFileError
	require.True(testInstance, errors.As(readError, &tokenFileError))
}
