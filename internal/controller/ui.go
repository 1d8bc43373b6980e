// Package controller renders proposals and apply outcomes and asks the user
// to confirm edits before they touch the source tree.
package controller

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	m "a11yfix.dev/pkg/a11yfix/internal/model"
)

// UI defines how the CLI presents engine results.
// Implementations can use different output methods (simple text, TUI, etc).
type UI interface {
	DisplayProposal(ctx context.Context, resp m.ProposalResponse) error
	DisplayApplyResult(ctx context.Context, resp m.ApplyResponse) error
	DisplayRestore(ctx context.Context, target, backup m.Path) error
	// Confirm asks whether the proposal should be applied.
	Confirm(ctx context.Context, resp m.ProposalResponse) (bool, error)
}

// NewUI returns the interactive TUI when requested and both ends of the
// command are attached to a terminal, and the plain-text UI otherwise.
func NewUI(cmd *cobra.Command, interactive bool) UI {
	simple := NewSimpleUI(cmd)

	if interactive && isTerminal(cmd.OutOrStdout()) && isTerminal(cmd.InOrStdin()) {
		return NewTUI(cmd.InOrStdin(), cmd.OutOrStdout(), simple)
	}

	return simple
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}

	return term.IsTerminal(int(f.Fd()))
}
