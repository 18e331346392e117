package graphmodel

import (
	"fmt"
	"sync/atomic"
)

// tick is the process-wide monotonic counter node ids are minted from.
// A wall-clock suffix could collide under concurrent AddNode calls; a
// monotonic counter cannot.
var tick uint64

// NextNodeID allocates a globally unique node id of the form
// "<taskName>.<monotonicTick>".
func NextNodeID(taskName string) string {
	n := atomic.AddUint64(&tick, 1)
	return fmt.Sprintf("%s.%d", taskName, n)
}
