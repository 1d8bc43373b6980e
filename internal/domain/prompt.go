package domain

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"a11yfix.dev/pkg/a11yfix/internal/adapter"
	m "a11yfix.dev/pkg/a11yfix/internal/model"
)

// Generation defaults. Output is machine-parsed, so sampling stays low.
const (
	DefaultTemperature     float32 = 0.1
	DefaultMaxOutputTokens         = 2048
)

const systemRole = "You are an accessibility engineer who fixes mobile UI source code. " +
	"You make the smallest edit that gives the flagged element a correct accessible name, " +
	"role, or state, and you answer only with the requested JSON object."

// SynthesisInput is everything a single generation request is built from.
type SynthesisInput struct {
	Language Language
	File     m.Path
	Scope    m.CodeScope
	Issue    m.Issue
	Metadata Metadata
}

// PromptOptions tunes sampling for a generation request.
type PromptOptions struct {
	Temperature     float32
	MaxOutputTokens int
}

type issueFacts struct {
	ID          string     `yaml:"id"`
	Severity    m.Severity `yaml:"severity,omitempty"`
	Description string     `yaml:"description,omitempty"`
	Metadata    Metadata   `yaml:"metadata,omitempty"`
}

// BuildRequest renders the oracle request for in. The output depends only on
// its inputs, so identical inputs yield byte-identical prompts.
func BuildRequest(in SynthesisInput, opts PromptOptions) (adapter.OracleRequest, error) {
	if len(in.Scope.Lines) == 0 {
		return adapter.OracleRequest{}, errors.New("empty code scope")
	}

	facts, err := yaml.Marshal(issueFacts{
		ID:          in.Issue.ID,
		Severity:    in.Issue.Severity,
		Description: strings.TrimSpace(in.Issue.Description),
		Metadata:    in.Metadata,
	})
	if err != nil {
		return adapter.OracleRequest{}, fmt.Errorf("failed to serialize issue facts: %w", err)
	}

	var b strings.Builder

	fmt.Fprintf(&b, "Fix one accessibility issue in this %s file.\n\n", in.Language.Name)
	fmt.Fprintf(&b, "File: %s\n", in.File)
	fmt.Fprintf(&b, "Target: line %d, column %d\n", in.Scope.TargetLine, in.Scope.TargetColumn)
	fmt.Fprintf(&b, "Editable lines: %d-%d\n\n", in.Scope.StartLine, in.Scope.EndLine)

	b.WriteString("Issue:\n")
	b.Write(facts)
	b.WriteString("\n")

	b.WriteString("Code (each line is prefixed with its line number and \" | \"; the prefix is not part of the code):\n")
	fmt.Fprintf(&b, "```%s\n", in.Language.Fence)
	writeNumberedScope(&b, in.Scope)
	b.WriteString("```\n\n")

	b.WriteString("Rules:\n")
	fmt.Fprintf(&b, "1. Only modify the UI construct that contains line %d, column %d.\n", in.Scope.TargetLine, in.Scope.TargetColumn)
	b.WriteString("2. Preserve indentation and leave every unrelated line untouched.\n")
	fmt.Fprintf(&b, "3. startLine and endLine are 1-indexed, inclusive, and must lie within %d-%d.\n", in.Scope.StartLine, in.Scope.EndLine)
	b.WriteString("4. newCode replaces lines startLine..endLine completely; do not include line-number prefixes.\n")
	b.WriteString("5. accessibilityBefore and accessibilityAfter describe what a screen reader announces for the element.\n")
	b.WriteString("6. Reply with exactly one JSON object and nothing else.\n\n")

	b.WriteString("Reply shape:\n")
	b.WriteString(`{"newCode": "...", "startLine": 0, "endLine": 0, "accessibilityBefore": "...", "accessibilityAfter": "...", "rationale": "..."}`)
	b.WriteString("\n")

	temperature := opts.Temperature
	if temperature < 0 {
		temperature = DefaultTemperature
	}

	maxTokens := opts.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxOutputTokens
	}

	return adapter.OracleRequest{
		SystemRole:      systemRole,
		UserPrompt:      b.String(),
		Temperature:     temperature,
		MaxOutputTokens: maxTokens,
		JSONMode:        true,
	}, nil
}

func writeNumberedScope(b *strings.Builder, scope m.CodeScope) {
	width := len(fmt.Sprint(scope.EndLine))

	for i, line := range scope.Lines {
		fmt.Fprintf(b, "%*d | %s\n", width, scope.StartLine+i, line)
	}
}
