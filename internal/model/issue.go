// Package model defines the data structures exchanged by the patch proposal engine.
package model

// Severity is the scanner-assigned importance of an issue.
type Severity string

const (
	// SeverityError marks a WCAG failure.
	SeverityError Severity = "error"
	// SeverityWarning marks a likely defect.
	SeverityWarning Severity = "warning"
	// SeverityInfo marks an advisory finding.
	SeverityInfo Severity = "info"
)

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool {
	switch s {
	case SeverityError, SeverityWarning, SeverityInfo:
		return true
	}

	return false
}

// HintSource tags where a location hint came from.
type HintSource string

const (
	// HintVisualMatch is a precise visual-to-source correlation; treated as ground truth.
	HintVisualMatch HintSource = "visual-match"
	// HintSourceMap is a generic source hint, e.g. the rule scanner's best guess.
	HintSourceMap HintSource = "source-hint"
	// HintActiveFile is the low-confidence "file currently open in the editor" fallback.
	HintActiveFile HintSource = "active-file"
)

// LocationHint is a candidate, not-yet-authoritative source location.
type LocationHint struct {
	Source HintSource `json:"source" yaml:"source"`
	File   Path       `json:"file" yaml:"file"`
	Line   int        `json:"line,omitempty" yaml:"line,omitempty"`
	Column int        `json:"column,omitempty" yaml:"column,omitempty"`
}

// Rect is a normalized on-screen bounding box (0..1 on each axis).
type Rect struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Issue is an accessibility finding produced by an external scanner.
// The engine never mutates it.
type Issue struct {
	ID            string         `json:"id" yaml:"id"`
	Severity      Severity       `json:"severity" yaml:"severity"`
	Label         string         `json:"label,omitempty" yaml:"label,omitempty"`
	Description   string         `json:"description,omitempty" yaml:"description,omitempty"`
	ElementType   string         `json:"elementType,omitempty" yaml:"elementType,omitempty"`
	Rect          *Rect          `json:"rect,omitempty" yaml:"rect,omitempty"`
	LocationHints []LocationHint `json:"locationHints,omitempty" yaml:"locationHints,omitempty"`
}
