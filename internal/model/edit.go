package model

// ProposedEdit is the validated output of one successful generation call.
type ProposedEdit struct {
	File                Path   `json:"file"`
	NewCode             string `json:"newCode"`
	StartLine           int    `json:"startLine"`
	EndLine             int    `json:"endLine"`
	AccessibilityBefore string `json:"accessibilityBefore"`
	AccessibilityAfter  string `json:"accessibilityAfter"`
	Rationale           string `json:"rationale"`
	// RangeKnown is false for degraded edits recovered from an inline code
	// span, whose StartLine and EndLine are both zero.
	RangeKnown bool `json:"rangeKnown"`
}

// ApplyResult reports the outcome of a single apply.
type ApplyResult struct {
	OK         bool      `json:"ok"`
	BackupPath Path      `json:"backupPath,omitempty"`
	Error      string    `json:"error,omitempty"`
	Kind       ErrorKind `json:"errorKind,omitempty"`
}
