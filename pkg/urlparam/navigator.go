package urlparam

import "github.com/vango-dev/tableview/pkg/protocol"

// URLMode determines how URL updates are handled.
type URLMode int

const (
	// ModePush adds a new history entry (default behavior).
	ModePush URLMode = iota

	// ModeReplace replaces the current history entry (no back button spam).
	ModeReplace
)

// String returns the mode name.
func (m URLMode) String() string {
	if m == ModeReplace {
		return "replace"
	}
	return "push"
}

// ParseMode maps "push" and "replace" to a URLMode. Anything else is push.
func ParseMode(s string) URLMode {
	if s == "replace" {
		return ModeReplace
	}
	return ModePush
}

// Navigator turns URL updates into patches for the client.
// It queues URL patches that are sent to the client along with HTML patches.
type Navigator struct {
	queuePatch func(protocol.Patch)
}

// NewNavigator creates a navigator that queues patches via the provided function.
// The session passes in a closure that appends to its pending patch buffer.
func NewNavigator(queuePatch func(protocol.Patch)) *Navigator {
	return &Navigator{queuePatch: queuePatch}
}

// Navigate queues a URL update patch.
func (n *Navigator) Navigate(path, rawQuery string, mode URLMode) {
	if n == nil || n.queuePatch == nil {
		return
	}
	var patch protocol.Patch
	if mode == ModeReplace {
		patch = protocol.NewURLReplacePatch(path, rawQuery)
	} else {
		patch = protocol.NewURLPushPatch(path, rawQuery)
	}
	n.queuePatch(patch)
}
