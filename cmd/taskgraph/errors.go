package main

import (
	"fmt"

	"github.com/mattsondev/taskgraph/pkg/taskerrors"
)

// exitCodeFor maps a returned error to the process exit code: 0
// success, 2 bad CLI usage, 3 validation failure, 4 runtime task
// failure.
func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	switch err.(type) {
	case *usageError:
		return 2
	case *taskerrors.TaskFailure, *taskerrors.Internal:
		return 4
	case *taskerrors.DuplicateName, *taskerrors.Unknown, *taskerrors.MissingInput,
		*taskerrors.Circular, *taskerrors.TypeMismatch, *taskerrors.NodeInUse,
		*taskerrors.MappingInUse, *taskerrors.BadType, *taskerrors.BadInputs,
		*taskerrors.UnsupportedVersion, *taskerrors.MalformedDocument, *taskerrors.UnsafeTypeToken:
		return 3
	default:
		return 4
	}
}

// usageError marks a command-line usage mistake (exit code 2),
// distinct from the engine's own taxonomy (grounded on
// cmd/streamy/add.go's commandError wrapping pattern).
type usageError struct {
	operation string
	cause     error
}

func newUsageError(operation string, cause error) error {
	return &usageError{operation: operation, cause: cause}
}

func (e *usageError) Error() string {
	return fmt.Sprintf("usage error in %s: %v", e.operation, e.cause)
}

func (e *usageError) Unwrap() error { return e.cause }
