package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	m "a11yfix.dev/pkg/a11yfix/internal/model"
)

// Placeholders used when the oracle omits descriptive fields.
const (
	PlaceholderBefore    = "(not described)"
	PlaceholderAfter     = "(not described)"
	PlaceholderRationale = "Accessibility fix proposed for the flagged element."
)

var (
	errNoStructuredBlock = errors.New("reply has no structured block")
	errNoCodeSpan        = errors.New("reply has neither a structured block nor a code span")

	fencePattern      = regexp.MustCompile("(?s)```([A-Za-z0-9_+-]*)[ \t]*\r?\n(.*?)```")
	inlineCodePattern = regexp.MustCompile("`([^`\r\n]+)`")
)

var fieldAliases = map[string]string{
	"newcode":             "newcode",
	"code":                "newcode",
	"fixedcode":           "newcode",
	"replacement":         "newcode",
	"startline":           "startline",
	"start":               "startline",
	"fromline":            "startline",
	"endline":             "endline",
	"end":                 "endline",
	"toline":              "endline",
	"accessibilitybefore": "before",
	"before":              "before",
	"accessibilityafter":  "after",
	"after":               "after",
	"rationale":           "rationale",
	"reason":              "rationale",
	"explanation":         "rationale",
}

// ParseReply extracts a ProposedEdit from raw oracle text. It tries fenced
// JSON blocks, then the outermost brace span. A JSON object that decodes but
// lacks required fields is rejected outright. Only when no JSON decodes at
// all does it degrade to a code fence or inline code span, yielding an edit
// with an unknown range.
func ParseReply(reply string) (m.ProposedEdit, error) {
	const op = "parse reply"

	var decodeErr error

	for _, candidate := range structuredCandidates(reply) {
		fields, err := decodeFields(candidate)
		if err != nil {
			decodeErr = err
			continue
		}

		edit, err := editFromFields(fields)
		if err != nil {
			return m.ProposedEdit{}, m.NewError(m.KindGenerationFailed, op, err)
		}

		return edit, nil
	}

	if code, ok := degradedCode(reply); ok {
		return m.ProposedEdit{
			NewCode:             code,
			AccessibilityBefore: PlaceholderBefore,
			AccessibilityAfter:  PlaceholderAfter,
			Rationale:           PlaceholderRationale,
		}, nil
	}

	if decodeErr != nil {
		return m.ProposedEdit{}, m.NewError(m.KindGenerationFailed, op, fmt.Errorf("malformed structured block: %w", decodeErr))
	}

	return m.ProposedEdit{}, m.NewError(m.KindGenerationFailed, op, errNoCodeSpan)
}

// structuredCandidates lists JSON-looking blocks, strongest signal first.
func structuredCandidates(reply string) []string {
	var tagged, untagged []string

	for _, match := range fencePattern.FindAllStringSubmatch(reply, -1) {
		tag := strings.ToLower(match[1])
		body := strings.TrimSpace(match[2])

		switch {
		case tag == "json":
			tagged = append(tagged, body)
		case strings.HasPrefix(body, "{"):
			untagged = append(untagged, body)
		}
	}

	candidates := append(tagged, untagged...)

	if open, end := strings.Index(reply, "{"), strings.LastIndex(reply, "}"); open >= 0 && end > open {
		candidates = append(candidates, reply[open:end+1])
	}

	return candidates
}

func decodeFields(block string) (map[string]json.RawMessage, error) {
	raw := map[string]json.RawMessage{}

	dec := json.NewDecoder(strings.NewReader(block))
	dec.UseNumber()

	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}

	fields := make(map[string]json.RawMessage, len(raw))

	for key, value := range raw {
		canonical, ok := fieldAliases[normalizeKey(key)]
		if !ok {
			continue
		}

		if _, seen := fields[canonical]; !seen {
			fields[canonical] = value
		}
	}

	return fields, nil
}

func normalizeKey(key string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '_', '-', ' ':
			return -1
		}

		return r
	}, strings.ToLower(key))
}

func editFromFields(fields map[string]json.RawMessage) (m.ProposedEdit, error) {
	var edit m.ProposedEdit

	raw, ok := fields["newcode"]
	if !ok {
		return edit, errors.New("reply is missing newCode")
	}

	if err := json.Unmarshal(raw, &edit.NewCode); err != nil {
		return edit, fmt.Errorf("newCode is not a string: %w", err)
	}

	if strings.TrimSpace(edit.NewCode) == "" {
		return edit, errors.New("newCode is empty")
	}

	var err error

	if edit.StartLine, err = lineField(fields, "startline"); err != nil {
		return edit, err
	}

	if edit.EndLine, err = lineField(fields, "endline"); err != nil {
		return edit, err
	}

	edit.RangeKnown = true
	edit.AccessibilityBefore = textField(fields, "before", PlaceholderBefore)
	edit.AccessibilityAfter = textField(fields, "after", PlaceholderAfter)
	edit.Rationale = textField(fields, "rationale", PlaceholderRationale)

	return edit, nil
}

// lineField accepts a JSON number, a numeric string or an integral float.
func lineField(fields map[string]json.RawMessage, key string) (int, error) {
	raw, ok := fields[key]
	if !ok {
		return 0, fmt.Errorf("reply is missing %s", key)
	}

	text := string(bytes.TrimSpace(raw))
	if unquoted, err := strconv.Unquote(text); err == nil {
		text = strings.TrimSpace(unquoted)
	}

	if n, err := strconv.Atoi(text); err == nil {
		return n, nil
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("%s is not an integer: %s", key, raw)
	}

	return int(f), nil
}

func textField(fields map[string]json.RawMessage, key, fallback string) string {
	raw, ok := fields[key]
	if !ok {
		return fallback
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil || strings.TrimSpace(s) == "" {
		return fallback
	}

	return strings.TrimSpace(s)
}

// degradedCode recovers code from a reply with no decodable JSON: the first
// non-JSON fenced block, else the first inline code span.
func degradedCode(reply string) (string, bool) {
	for _, match := range fencePattern.FindAllStringSubmatch(reply, -1) {
		if strings.EqualFold(match[1], "json") || strings.HasPrefix(strings.TrimSpace(match[2]), "{") {
			continue
		}

		if body := strings.TrimRight(match[2], " \t\r\n"); strings.TrimSpace(body) != "" {
			return body, true
		}
	}

	if match := inlineCodePattern.FindStringSubmatch(reply); match != nil && strings.TrimSpace(match[1]) != "" {
		return match[1], true
	}

	return "", false
}

// validateEdit checks a known-range edit against the scope that produced it.
// Out-of-scope ranges are rejected, never clamped.
func validateEdit(edit m.ProposedEdit, scope m.CodeScope) error {
	const op = "validate edit"

	if strings.TrimSpace(edit.NewCode) == "" {
		return m.Errorf(m.KindGenerationFailed, op, "newCode is empty")
	}

	if !edit.RangeKnown {
		return nil
	}

	if edit.StartLine < 1 || edit.EndLine < 1 {
		return m.Errorf(m.KindGenerationFailed, op, "line numbers must be positive, got %d-%d", edit.StartLine, edit.EndLine)
	}

	if edit.StartLine > edit.EndLine {
		return m.Errorf(m.KindGenerationFailed, op, "startLine %d is after endLine %d", edit.StartLine, edit.EndLine)
	}

	if !scope.Contains(edit.StartLine) || !scope.Contains(edit.EndLine) {
		return m.Errorf(m.KindGenerationFailed, op, "edited range %d-%d is outside the scope %d-%d",
			edit.StartLine, edit.EndLine, scope.StartLine, scope.EndLine)
	}

	return nil
}
