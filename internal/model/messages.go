package model

// ProposalRequest asks the engine to generate a proposal for one issue.
type ProposalRequest struct {
	Issue Issue `json:"issue" yaml:"issue"`
	// ActiveFile is the file the user is presently editing, if known.
	ActiveFile Path `json:"activeFile,omitempty" yaml:"activeFile,omitempty"`
	// Language overrides extension-based language detection.
	Language string `json:"language,omitempty" yaml:"language,omitempty"`
}

// Proposal is the dashboard-facing projection of a ProposedEdit.
type Proposal struct {
	ProposedEdit
	Language     string `json:"language"`
	OriginalCode string `json:"originalCode,omitempty"`
}

// ProposalResponse is emitted for every ProposalRequest, tagged by issue id.
type ProposalResponse struct {
	RequestID string        `json:"requestId"`
	IssueID   string        `json:"issueId"`
	OK        bool          `json:"ok"`
	State     PipelineState `json:"state"`
	Proposal  *Proposal     `json:"proposal,omitempty"`
	// Rationale carries the error text on failure.
	Rationale string    `json:"rationale,omitempty"`
	Kind      ErrorKind `json:"errorKind,omitempty"`
	// FallbackAvailable is set when no AI suggestion could be produced and
	// the caller may offer HeuristicSuggestion instead.
	FallbackAvailable   bool                 `json:"fallbackAvailable,omitempty"`
	HeuristicSuggestion *HeuristicSuggestion `json:"heuristicSuggestion,omitempty"`
}

// HeuristicSuggestion is a rule-based, non-AI fix hint.
type HeuristicSuggestion struct {
	AltText  string `json:"altText"`
	Priority string `json:"priority"`
	Reason   string `json:"reason"`
}

// ApplyRequest asks the engine to apply an edit, typically one previously proposed.
type ApplyRequest struct {
	IssueID   string `json:"issueId" yaml:"issueId"`
	File      Path   `json:"file" yaml:"file"`
	StartLine int    `json:"startLine" yaml:"startLine"`
	EndLine   int    `json:"endLine" yaml:"endLine"`
	NewCode   string `json:"newCode" yaml:"newCode"`
}

// ApplyResponse is emitted for every ApplyRequest.
type ApplyResponse struct {
	RequestID  string        `json:"requestId"`
	IssueID    string        `json:"issueId"`
	OK         bool          `json:"ok"`
	State      PipelineState `json:"state"`
	BackupPath Path          `json:"backupPath,omitempty"`
	Error      string        `json:"error,omitempty"`
	Kind       ErrorKind     `json:"errorKind,omitempty"`
}
