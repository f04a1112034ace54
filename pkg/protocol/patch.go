package protocol

// PatchOp is the type of patch operation.
type PatchOp string

const (
	PatchURLPush    PatchOp = "url_push"    // New history entry with the given query
	PatchURLReplace PatchOp = "url_replace" // Replace current history entry
	PatchHTML       PatchOp = "html"        // Replace inner HTML of a target region
)

// String returns the string representation of the patch operation.
func (op PatchOp) String() string {
	switch op {
	case PatchURLPush:
		return "URLPush"
	case PatchURLReplace:
		return "URLReplace"
	case PatchHTML:
		return "HTML"
	default:
		return "Unknown"
	}
}

// IsURL reports whether the patch updates the address bar.
func (op PatchOp) IsURL() bool {
	return op == PatchURLPush || op == PatchURLReplace
}

// Patch represents a single client-side operation.
type Patch struct {
	Op     PatchOp `json:"op"`
	Path   string  `json:"path,omitempty"`   // URL patches: path, empty keeps the current one
	Query  string  `json:"query,omitempty"`  // URL patches: raw query without '?'
	Target string  `json:"target,omitempty"` // HTML patches: region id
	HTML   string  `json:"html,omitempty"`   // HTML patches: markup
}

// PatchesFrame represents a batch of patches with sequence number.
type PatchesFrame struct {
	Seq     uint64  `json:"seq"`
	Patches []Patch `json:"patches"`
}

// NewURLPushPatch creates a patch that pushes a new history entry.
func NewURLPushPatch(path, query string) Patch {
	return Patch{Op: PatchURLPush, Path: path, Query: query}
}

// NewURLReplacePatch creates a patch that replaces the current history entry.
func NewURLReplacePatch(path, query string) Patch {
	return Patch{Op: PatchURLReplace, Path: path, Query: query}
}

// NewHTMLPatch creates a patch that replaces the inner HTML of target.
func NewHTMLPatch(target, html string) Patch {
	return Patch{Op: PatchHTML, Target: target, HTML: html}
}
