package hosting

import (
	"errors"
	"fmt"
)

const (
	operationErrorTemplateConstant         = "github %s for %s failed: %v"
	bearerTokenMissingMessageConstant      = "bearer token not configured"
	authenticatedLoginEmptyMessageConstant = "authenticated user login is empty"
)

// ErrBearerTokenMissing reports a client constructed without credentials.
var ErrBearerTokenMissing = errors.New(bearerTokenMissingMessageConstant)

// ErrAuthenticatedLoginEmpty reports a user lookup that produced no login.
var ErrAuthenticatedLoginEmpty = errors.New(authenticatedLoginEmptyMessageConstant)

// OperationError describes a failed hosting-service call.
type OperationError struct {
	Operation string
	Target    string
	Cause     error
}

// Error renders the failed operation with its target and cause.
func (operationError *OperationError) Error() string {
	return fmt.Sprintf(operationErrorTemplateConstant, operationError.Operation, operationError.Target, operationError.Cause)
}

// Unwrap exposes the underlying failure.
func (operationError *OperationError) Unwrap() error {
	return operationError.Cause
}
