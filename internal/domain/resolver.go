package domain

import (
	"log/slog"
	"strings"

	m "a11yfix.dev/pkg/a11yfix/internal/model"
)

// LocationResolver picks one authoritative source location for an issue.
type LocationResolver interface {
	// Resolve returns the winning location, or false when nothing is usable.
	// activeFile is the file the user is presently editing, if known.
	Resolve(issue m.Issue, activeFile m.Path) (m.ResolvedLocation, bool)
}

type locationResolver struct{}

// NewLocationResolver constructs the strict-precedence resolver:
// visual match, then source hint, then the active file at 1:1.
func NewLocationResolver() LocationResolver {
	return &locationResolver{}
}

func (r *locationResolver) Resolve(issue m.Issue, activeFile m.Path) (m.ResolvedLocation, bool) {
	for _, source := range []m.HintSource{m.HintVisualMatch, m.HintSourceMap} {
		if loc, ok := firstUsableHint(issue.LocationHints, source); ok {
			slog.Debug("location resolved", "issue", issue.ID, "source", source, "file", loc.File, "line", loc.Line)
			return loc, true
		}
	}

	if file, ok := activeFileFallback(issue.LocationHints, activeFile); ok {
		slog.Debug("location fell back to active file", "issue", issue.ID, "file", file)
		return m.ResolvedLocation{File: file, Line: 1, Column: 1, Source: m.HintActiveFile}, true
	}

	return m.ResolvedLocation{}, false
}

func firstUsableHint(hints []m.LocationHint, source m.HintSource) (m.ResolvedLocation, bool) {
	for _, hint := range hints {
		if hint.Source != source || strings.TrimSpace(string(hint.File)) == "" || hint.Line < 1 {
			continue
		}

		column := hint.Column
		if column < 1 {
			column = 1
		}

		return m.ResolvedLocation{File: hint.File, Line: hint.Line, Column: column, Source: source}, true
	}

	return m.ResolvedLocation{}, false
}

func activeFileFallback(hints []m.LocationHint, activeFile m.Path) (m.Path, bool) {
	if strings.TrimSpace(string(activeFile)) != "" {
		return activeFile, true
	}

	for _, hint := range hints {
		if hint.Source == m.HintActiveFile && strings.TrimSpace(string(hint.File)) != "" {
			return hint.File, true
		}
	}

	return "", false
}
