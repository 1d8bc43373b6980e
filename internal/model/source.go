package model

// Path represents a file system path.
type Path string

// ResolvedLocation is the single authoritative source position chosen for an issue.
type ResolvedLocation struct {
	File   Path
	Line   int
	Column int
	Source HintSource
}

// CodeScope is a read-only snapshot of a contiguous, 1-indexed inclusive line
// range of a file, captured at resolution time.
type CodeScope struct {
	File         Path
	StartLine    int
	EndLine      int
	TargetLine   int
	TargetColumn int
	Lines        []string
}

// Contains reports whether the 1-indexed line falls inside the scope.
func (s CodeScope) Contains(line int) bool {
	return line >= s.StartLine && line <= s.EndLine
}

// Slice returns the scope lines for the inclusive range [start, end].
// Out-of-scope bounds yield nil.
func (s CodeScope) Slice(start, end int) []string {
	if start > end || !s.Contains(start) || !s.Contains(end) {
		return nil
	}

	return s.Lines[start-s.StartLine : end-s.StartLine+1]
}
