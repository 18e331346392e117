package taskerrors_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mattsondev/taskgraph/pkg/taskerrors"
)

func TestTaskFailure_UnwrapsToInner(t *testing.T) {
	inner := errors.New("boom")
	err := &taskerrors.TaskFailure{NodeID: "n1", Inner: inner}

	assert.Contains(t, err.Error(), "n1")
	assert.Contains(t, err.Error(), "boom")
	assert.Same(t, inner, errors.Unwrap(err))
	assert.ErrorIs(t, err, inner)
}

func TestTypeMismatch_ErrorIncludesContextWhenPresent(t *testing.T) {
	withCtx := &taskerrors.TypeMismatch{Expected: "int", Actual: "string", Context: "node n1.a"}
	assert.Contains(t, withCtx.Error(), "node n1.a")

	withoutCtx := &taskerrors.TypeMismatch{Expected: "int", Actual: "string"}
	assert.NotContains(t, withoutCtx.Error(), "in ")
}

func TestUnsupportedVersion_ReportsGotAndMax(t *testing.T) {
	err := &taskerrors.UnsupportedVersion{Got: 3, Max: 2}
	assert.Contains(t, err.Error(), "3")
	assert.Contains(t, err.Error(), "2")
}

func TestBadType_DistinctFromUnsafeTypeToken(t *testing.T) {
	badType := &taskerrors.BadType{Value: "weird"}
	assert.Contains(t, badType.Error(), "weird")

	var asUnsafe *taskerrors.UnsafeTypeToken
	assert.False(t, errors.As(error(badType), &asUnsafe))
}
