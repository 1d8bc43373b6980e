package controller

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/pmezard/go-difflib/difflib"

	m "a11yfix.dev/pkg/a11yfix/internal/model"
)

var (
	addedColor   = color.New(color.FgGreen)
	removedColor = color.New(color.FgRed)
	hunkColor    = color.New(color.FgCyan)
	headerColor  = color.New(color.Bold)
)

// UnifiedDiff renders the proposal's replaced range against its new code.
// Line numbers in hunk headers are relative to the edited range.
func UnifiedDiff(p *m.Proposal) (string, error) {
	if p == nil {
		return "", nil
	}

	from := fmt.Sprintf("%s (lines %d-%d)", p.File, p.StartLine, p.EndLine)
	if !p.RangeKnown {
		from = fmt.Sprintf("%s (range unknown)", p.File)
	}

	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(withTrailingNewline(p.OriginalCode)),
		B:        difflib.SplitLines(withTrailingNewline(p.NewCode)),
		FromFile: from,
		ToFile:   "proposed",
		Context:  3,
	}

	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("failed to render diff: %w", err)
	}

	return text, nil
}

func withTrailingNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}

	return s + "\n"
}

// colorizeDiff paints added, removed and hunk lines. fatih/color disables
// itself when output is not a terminal.
func colorizeDiff(diff string) string {
	var b strings.Builder

	for _, line := range strings.SplitAfter(diff, "\n") {
		trimmed := strings.TrimSuffix(line, "\n")
		if trimmed == "" {
			b.WriteString(line)
			continue
		}

		var painted string

		switch {
		case strings.HasPrefix(trimmed, "+++"), strings.HasPrefix(trimmed, "---"):
			painted = headerColor.Sprint(trimmed)
		case strings.HasPrefix(trimmed, "@@"):
			painted = hunkColor.Sprint(trimmed)
		case strings.HasPrefix(trimmed, "+"):
			painted = addedColor.Sprint(trimmed)
		case strings.HasPrefix(trimmed, "-"):
			painted = removedColor.Sprint(trimmed)
		default:
			painted = trimmed
		}

		b.WriteString(painted)

		if strings.HasSuffix(line, "\n") {
			b.WriteString("\n")
		}
	}

	return b.String()
}
