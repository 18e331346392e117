package logging_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mattsondev/taskgraph/internal/logging"
)

func TestLogger_With_MergesFieldsWithoutMutatingParent(t *testing.T) {
	var buf bytes.Buffer
	h := logging.NewHook(&buf, 8)
	defer h.Close()

	base := logging.NewLogger(h, "engine").With(map[string]interface{}{"run": 1})
	derived := base.With(map[string]interface{}{"node": "addOne"})

	derived.Info("dispatch", nil)
	base.Info("base-only", nil)

	h.Close()
	out := buf.String()
	assert.Contains(t, out, "dispatch")
	assert.Contains(t, out, "node")
	assert.Contains(t, out, "base-only")
}

func TestLogger_NewLogger_NilHookUsesDefault(t *testing.T) {
	l := logging.NewLogger(nil, "demo")
	assert.NotPanics(t, func() {
		l.Debug("noop", nil)
	})
}

func TestLogger_NilReceiverIsNoop(t *testing.T) {
	var l *logging.Logger
	assert.NotPanics(t, func() {
		l.Info("noop", nil)
	})
	assert.Nil(t, l.With(map[string]interface{}{"a": 1}))
}
