package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	m "a11yfix.dev/pkg/a11yfix/internal/model"
)

func TestLocationResolver_Precedence(t *testing.T) {
	issue := m.Issue{
		ID: "issue-1",
		LocationHints: []m.LocationHint{
			{Source: m.HintActiveFile, File: "open.dart"},
			{Source: m.HintSourceMap, File: "scanner.dart", Line: 7, Column: 2},
			{Source: m.HintVisualMatch, File: "home.dart", Line: 42, Column: 4},
		},
	}

	loc, ok := NewLocationResolver().Resolve(issue, "editor.dart")

	assert.True(t, ok)
	assert.Equal(t, m.ResolvedLocation{File: "home.dart", Line: 42, Column: 4, Source: m.HintVisualMatch}, loc)
}

func TestLocationResolver_SourceHintBeatsActiveFile(t *testing.T) {
	issue := m.Issue{LocationHints: []m.LocationHint{
		{Source: m.HintVisualMatch, File: "", Line: 3},
		{Source: m.HintSourceMap, File: "a.dart", Line: 9},
	}}

	loc, ok := NewLocationResolver().Resolve(issue, "editor.dart")

	assert.True(t, ok)
	assert.Equal(t, m.Path("a.dart"), loc.File)
	assert.Equal(t, 9, loc.Line)
	assert.Equal(t, 1, loc.Column, "missing column defaults to 1")
	assert.Equal(t, m.HintSourceMap, loc.Source)
}

func TestLocationResolver_ActiveFileFallback(t *testing.T) {
	resolver := NewLocationResolver()

	t.Run("caller active file", func(t *testing.T) {
		loc, ok := resolver.Resolve(m.Issue{}, "editor.dart")

		assert.True(t, ok)
		assert.Equal(t, m.ResolvedLocation{File: "editor.dart", Line: 1, Column: 1, Source: m.HintActiveFile}, loc)
	})

	t.Run("active file hint", func(t *testing.T) {
		issue := m.Issue{LocationHints: []m.LocationHint{
			{Source: m.HintSourceMap, File: "broken.dart", Line: 0},
			{Source: m.HintActiveFile, File: "hinted.dart", Line: 30},
		}}

		loc, ok := resolver.Resolve(issue, "")

		assert.True(t, ok)
		assert.Equal(t, m.ResolvedLocation{File: "hinted.dart", Line: 1, Column: 1, Source: m.HintActiveFile}, loc)
	})
}

func TestLocationResolver_NoHints(t *testing.T) {
	loc, ok := NewLocationResolver().Resolve(m.Issue{ID: "lonely"}, "")

	assert.False(t, ok)
	assert.Equal(t, m.ResolvedLocation{}, loc)
}
