package domain

import (
	"context"
	"fmt"
	"log/slog"

	"a11yfix.dev/pkg/a11yfix/internal/adapter"
	m "a11yfix.dev/pkg/a11yfix/internal/model"
)

// DefaultScopeRadius is the number of lines kept above and below the target.
const DefaultScopeRadius = 10

// ScopeExtractor carves a bounded window of source text around a location.
type ScopeExtractor interface {
	ExtractScope(ctx context.Context, file m.Path, line, column int) (m.CodeScope, error)
}

type scopeExtractor struct {
	fsAdapter adapter.SourceFSAdapter
	radius    int
}

// NewScopeExtractor returns an extractor using a fixed symmetric window of
// radius lines, clamped to the file. A negative radius selects the default.
// The window is not a syntactic block; the generator reports the exact
// sub-range it edits.
func NewScopeExtractor(fsAdapter adapter.SourceFSAdapter, radius int) ScopeExtractor {
	if radius < 0 {
		radius = DefaultScopeRadius
	}

	return &scopeExtractor{fsAdapter: fsAdapter, radius: radius}
}

func (e *scopeExtractor) ExtractScope(ctx context.Context, file m.Path, line, column int) (m.CodeScope, error) {
	const op = "extract scope"

	content, err := e.fsAdapter.ReadFile(ctx, file)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return m.CodeScope{}, m.NewError(m.KindCancelled, op, ctxErr)
		}

		slog.Error("Failed to read source file", "file", file, "error", err)

		return m.CodeScope{}, m.NewError(m.KindFileNotFound, op, fmt.Errorf("cannot read %s: %w", file, err))
	}

	src := splitSource(content)
	total := len(src.lines)

	if line < 1 || line > total {
		return m.CodeScope{}, m.Errorf(m.KindOutOfRange, op, "%s:%d is outside the file (1-%d)", file, line, total)
	}

	start := max(1, line-e.radius)
	end := min(total, line+e.radius)

	lines := make([]string, end-start+1)
	copy(lines, src.lines[start-1:end])

	if column < 1 {
		column = 1
	}

	slog.Debug("scope extracted", "file", file, "line", line, "start", start, "end", end)

	return m.CodeScope{
		File:         file,
		StartLine:    start,
		EndLine:      end,
		TargetLine:   line,
		TargetColumn: column,
		Lines:        lines,
	}, nil
}
