package domain

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"a11yfix.dev/pkg/a11yfix/internal/adapter"
	m "a11yfix.dev/pkg/a11yfix/internal/model"
)

// writeNumberedFile writes n lines "line 1".."line n" and returns the path.
func writeNumberedFile(t *testing.T, n int) m.Path {
	t.Helper()

	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d", i+1)
	}

	path := filepath.Join(t.TempDir(), "screen.dart")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600))

	return m.Path(path)
}

func TestScopeExtractor_Window(t *testing.T) {
	file := writeNumberedFile(t, 100)
	extractor := NewScopeExtractor(adapter.NewLocalSourceFSAdapter(0), 10)

	tests := []struct {
		name       string
		line       int
		start, end int
	}{
		{name: "middle", line: 50, start: 40, end: 60},
		{name: "clamped at start", line: 3, start: 1, end: 13},
		{name: "clamped at end", line: 97, start: 87, end: 100},
		{name: "first line", line: 1, start: 1, end: 11},
		{name: "last line", line: 100, start: 90, end: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scope, err := extractor.ExtractScope(context.Background(), file, tt.line, 5)
			require.NoError(t, err)

			assert.Equal(t, tt.start, scope.StartLine)
			assert.Equal(t, tt.end, scope.EndLine)
			assert.Equal(t, tt.line, scope.TargetLine)
			assert.Equal(t, 5, scope.TargetColumn)
			assert.Len(t, scope.Lines, tt.end-tt.start+1)
			assert.Equal(t, fmt.Sprintf("line %d", tt.start), scope.Lines[0])
			assert.Equal(t, fmt.Sprintf("line %d", tt.end), scope.Lines[len(scope.Lines)-1])
		})
	}
}

func TestScopeExtractor_RadiusLargerThanFile(t *testing.T) {
	file := writeNumberedFile(t, 5)

	scope, err := NewScopeExtractor(adapter.NewLocalSourceFSAdapter(0), 15).ExtractScope(context.Background(), file, 3, 0)
	require.NoError(t, err)

	assert.Equal(t, 1, scope.StartLine)
	assert.Equal(t, 5, scope.EndLine)
	assert.Equal(t, 1, scope.TargetColumn)
}

func TestScopeExtractor_Errors(t *testing.T) {
	fsAdapter := adapter.NewLocalSourceFSAdapter(0)
	extractor := NewScopeExtractor(fsAdapter, -1)

	t.Run("missing file", func(t *testing.T) {
		_, err := extractor.ExtractScope(context.Background(), m.Path(filepath.Join(t.TempDir(), "nope.dart")), 1, 1)

		require.Error(t, err)
		assert.ErrorIs(t, err, m.ErrFileNotFound)
	})

	t.Run("line past end", func(t *testing.T) {
		file := writeNumberedFile(t, 4)
		_, err := extractor.ExtractScope(context.Background(), file, 5, 1)

		assert.ErrorIs(t, err, m.ErrOutOfRange)
	})

	t.Run("line zero", func(t *testing.T) {
		file := writeNumberedFile(t, 4)
		_, err := extractor.ExtractScope(context.Background(), file, 0, 1)

		assert.Equal(t, m.KindOutOfRange, m.KindOf(err))
	})

	t.Run("cancelled", func(t *testing.T) {
		file := writeNumberedFile(t, 4)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := extractor.ExtractScope(ctx, file, 1, 1)

		assert.ErrorIs(t, err, m.ErrCancelled)
	})
}
