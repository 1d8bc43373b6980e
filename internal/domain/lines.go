package domain

import "strings"

// sourceText is a file split into lines. Each line keeps its own terminator
// so a patched file can be written back without disturbing untouched lines.
type sourceText struct {
	lines []string
	// eols[i] terminates lines[i]; the last entry is empty when the file has
	// no trailing line break.
	eols []string
}

func splitSource(content []byte) sourceText {
	text := string(content)

	var src sourceText

	for text != "" {
		line, rest, found := strings.Cut(text, "\n")

		eol := ""
		if found {
			eol = "\n"

			if strings.HasSuffix(line, "\r") {
				line = strings.TrimSuffix(line, "\r")
				eol = "\r\n"
			}
		}

		src.lines = append(src.lines, line)
		src.eols = append(src.eols, eol)
		text = rest
	}

	return src
}

func (s sourceText) join() []byte {
	var b strings.Builder

	for i, line := range s.lines {
		b.WriteString(line)
		b.WriteString(s.eols[i])
	}

	return []byte(b.String())
}

// dominantEOL is the most common line terminator, "\n" on a tie or when the
// file has none.
func (s sourceText) dominantEOL() string {
	crlf, lf := 0, 0

	for _, eol := range s.eols {
		switch eol {
		case "\r\n":
			crlf++
		case "\n":
			lf++
		}
	}

	if crlf > lf {
		return "\r\n"
	}

	return "\n"
}

// replaceRange returns a copy with the inclusive 1-indexed range replaced.
// New lines take the terminator of the first replaced line, and the last one
// inherits the terminator of the last replaced line.
func (s sourceText) replaceRange(start, end int, replacement []string) sourceText {
	inner := s.eols[start-1]
	if inner == "" {
		inner = s.dominantEOL()
	}

	last := s.eols[end-1]

	n := len(s.lines) - (end - start + 1) + len(replacement)
	out := sourceText{lines: make([]string, 0, n), eols: make([]string, 0, n)}

	out.lines = append(out.lines, s.lines[:start-1]...)
	out.eols = append(out.eols, s.eols[:start-1]...)

	for i, line := range replacement {
		out.lines = append(out.lines, line)

		if i == len(replacement)-1 {
			out.eols = append(out.eols, last)
		} else {
			out.eols = append(out.eols, inner)
		}
	}

	out.lines = append(out.lines, s.lines[end:]...)
	out.eols = append(out.eols, s.eols[end:]...)

	// Deleting the final lines moves the end of the file up.
	if len(replacement) == 0 && end == len(s.lines) && len(out.eols) > 0 {
		out.eols[len(out.eols)-1] = last
	}

	return out
}

// splitCode splits replacement code on line breaks. A single trailing line
// break is ignored and empty code yields no lines.
func splitCode(code string) []string {
	code = strings.ReplaceAll(code, "\r\n", "\n")
	code = strings.TrimSuffix(code, "\n")

	if code == "" {
		return nil
	}

	return strings.Split(code, "\n")
}
