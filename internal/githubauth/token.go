package githubauth

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

const (
	// DefaultTokenFileName is the file the batch reads its token from when
	// no explicit path is configured.
	DefaultTokenFileName = "token"

	tokenFileEmptyMessageConstant       = "token file is empty"
	tokenFilePathMissingMessageConstant = "token file path not configured"
	tokenFileErrorTemplateConstant      = "authentication token unavailable at %s: %v; create a GitHub personal access token with repo scope and store it in that file"
)

// ErrTokenFileEmpty reports a token file that exists but holds no token.
var ErrTokenFileEmpty = errors.New(tokenFileEmptyMessageConstant)

// ErrTokenFilePathMissing reports a blank token file path.
var ErrTokenFilePathMissing = errors.New(tokenFilePathMissingMessageConstant)

// TokenFileError describes a token file that could not be used and carries
// remediation instructions in its message.
type TokenFileError struct {
	TokenFilePath string
	Cause         error
}

// Error renders the failure with instructions for creating the token file.
func (tokenError *TokenFileError) Error() string {
	return fmt.Sprintf(tokenFileErrorTemplateConstant, tokenError.TokenFilePath, tokenError.Cause)
}

// Unwrap exposes the underlying failure.
func (tokenError *TokenFileError) Unwrap() error {
	return tokenError.Cause
}

// ReadTokenFile loads and trims the hosting-service token stored at the
// provided path. Every failure mode is wrapped in a TokenFileError so the
// startup message tells the operator how to recover.
func ReadTokenFile(tokenFilePath string) (string, error) {
	trimmedPath := strings.TrimSpace(tokenFilePath)
	if len(trimmedPath) == 0 {
		return "", &TokenFileError{TokenFilePath: tokenFilePath, Cause: ErrTokenFilePathMissing}
	}

	fileContents, readError := os.ReadFile(trimmedPath)
	if readError != nil {
		return "", &TokenFileError{TokenFilePath: trimmedPath, Cause: readError}
	}

	tokenValue := strings.TrimSpace(string(fileContents))
	if len(tokenValue) == 0 {
		return "", &TokenFileError{TokenFilePath: trimmedPath, Cause: ErrTokenFileEmpty}
	}

	return tokenValue, nil
}
