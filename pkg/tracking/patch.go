package tracking

// PatchOp is a single JSON-Patch operation against a work item. The update
// API accepts an array of these; Plank only ever sends single-operation
// patches targeting /fields/{referenceName}.
type PatchOp struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
}

// AddField builds an upsert patch for the given field reference name. The
// "add" op both creates and replaces a field value on work items.
func AddField(ref string, value any) PatchOp {
	return PatchOp{
		Op:    "add",
		Path:  "/fields/" + ref,
		Value: value,
	}
}

// RemoveField builds a patch that clears the given field entirely, which is
// how a work item leaves a board swimlane (an empty-string row is not the
// same as no row).
func RemoveField(ref string) PatchOp {
	return PatchOp{
		Op:   "remove",
		Path: "/fields/" + ref,
	}
}
