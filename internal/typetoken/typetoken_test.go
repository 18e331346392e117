package typetoken_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mattsondev/taskgraph/internal/typetoken"
	"github.com/mattsondev/taskgraph/pkg/taskerrors"
)

func TestValid(t *testing.T) {
	cases := map[string]bool{
		"int":        true,
		"my.Type123": true,
		"":           false,
		"bad type":   false,
		"bad;type":   false,
		"bad/type":   false,
	}
	for input, want := range cases {
		assert.Equal(t, want, typetoken.Valid(input), "input %q", input)
	}
}

func TestCheck(t *testing.T) {
	assert.NoError(t, typetoken.Check("int"))

	err := typetoken.Check("not valid")
	var unsafe *taskerrors.UnsafeTypeToken
	assert.ErrorAs(t, err, &unsafe)
}

type tagged struct {
	Type string `validate:"typetoken"`
}

func TestValidateStruct(t *testing.T) {
	assert.NoError(t, typetoken.ValidateStruct(tagged{Type: "int"}))

	err := typetoken.ValidateStruct(tagged{Type: "not valid"})
	var unsafe *taskerrors.UnsafeTypeToken
	assert.ErrorAs(t, err, &unsafe)
}

func TestValidateDeclared(t *testing.T) {
	assert.NoError(t, typetoken.ValidateDeclared(tagged{Type: "int"}))

	err := typetoken.ValidateDeclared(tagged{Type: "not valid"})
	var badType *taskerrors.BadType
	assert.ErrorAs(t, err, &badType)
}
