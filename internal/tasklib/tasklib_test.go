package tasklib_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsondev/taskgraph/internal/tasklib"
	"github.com/mattsondev/taskgraph/pkg/taskerrors"
)

func TestFunctions_Get5(t *testing.T) {
	fn := tasklib.Functions()[tasklib.RefGet5]
	require.NotNil(t, fn)
	out, err := fn(nil)
	require.NoError(t, err)
	assert.Equal(t, 5, out)
}

func TestFunctions_Add15(t *testing.T) {
	fn := tasklib.Functions()[tasklib.RefAdd15]
	out, err := fn(map[string]interface{}{"a": 10})
	require.NoError(t, err)
	assert.Equal(t, 25, out)

	out, err = fn(map[string]interface{}{"a": 10.0})
	require.NoError(t, err)
	assert.Equal(t, 25, out)

	_, err = fn(map[string]interface{}{"a": "not a number"})
	var mismatch *taskerrors.TypeMismatch
	assert.ErrorAs(t, err, &mismatch)

	_, err = fn(map[string]interface{}{})
	var missing *taskerrors.MissingInput
	assert.ErrorAs(t, err, &missing)
}

func TestFunctions_MinusAndSum2(t *testing.T) {
	minus := tasklib.Functions()[tasklib.RefMinus]
	out, err := minus(map[string]interface{}{"a": 10, "b": 3})
	require.NoError(t, err)
	assert.Equal(t, 7, out)

	sum2 := tasklib.Functions()[tasklib.RefSum2]
	out, err = sum2(map[string]interface{}{"a": 10, "b": 3})
	require.NoError(t, err)
	assert.Equal(t, 13, out)
}

func TestNewAtomic(t *testing.T) {
	at, err := tasklib.NewAtomic("add15", "mem://add15", tasklib.RefAdd15, map[string]string{"a": "int"}, "int")
	require.NoError(t, err)
	out, err := at.Run(map[string]interface{}{"a": 5})
	require.NoError(t, err)
	assert.Equal(t, 20, out[""])
}

func TestNewAtomic_UnknownRef(t *testing.T) {
	_, err := tasklib.NewAtomic("x", "mem://x", "tasklib.doesNotExist", nil, "int")
	var unknown *taskerrors.Unknown
	assert.ErrorAs(t, err, &unknown)
}
