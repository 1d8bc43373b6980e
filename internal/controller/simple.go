package controller

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "a11yfix.dev/pkg/a11yfix/internal/model"
)

// SimpleUI implements UI using the cobra command's output and input streams.
type SimpleUI struct {
	cmd *cobra.Command
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// DisplayProposal prints a summary table and the diff, or the failure and
// any heuristic fallback.
func (s *SimpleUI) DisplayProposal(ctx context.Context, resp m.ProposalResponse) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if !resp.OK || resp.Proposal == nil {
		s.printf("No proposal for issue %s (%s): %s\n", resp.IssueID, resp.Kind, resp.Rationale)

		if resp.FallbackAvailable && resp.HeuristicSuggestion != nil {
			s.printf("\nHeuristic suggestion:\n%s", renderSuggestionTable(resp.HeuristicSuggestion))
		}

		return nil
	}

	s.printf("\n%s\n", renderProposalTable(resp))

	diff, err := UnifiedDiff(resp.Proposal)
	if err != nil {
		return err
	}

	if diff != "" {
		s.printf("%s\n", colorizeDiff(diff))
	}

	if !resp.Proposal.RangeKnown {
		s.printf("The edited range could not be determined; review the code above and apply it manually.\n")
	}

	return nil
}

func renderProposalTable(resp m.ProposalResponse) string {
	p := resp.Proposal

	lines := fmt.Sprintf("%d-%d", p.StartLine, p.EndLine)
	if !p.RangeKnown {
		lines = "unknown"
	}

	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT})

	table.AppendBulk([][]string{
		{"Issue", resp.IssueID},
		{"File", string(p.File)},
		{"Lines", lines},
		{"Language", p.Language},
		{"Before", p.AccessibilityBefore},
		{"After", p.AccessibilityAfter},
		{"Rationale", p.Rationale},
	})

	table.Render()

	return tableBuffer.String()
}

func renderSuggestionTable(suggestion *m.HeuristicSuggestion) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Alt text", "Priority", "Reason"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.Append([]string{suggestion.AltText, suggestion.Priority, suggestion.Reason})
	table.Render()

	return tableBuffer.String()
}

// DisplayApplyResult prints the outcome of an apply.
func (s *SimpleUI) DisplayApplyResult(ctx context.Context, resp m.ApplyResponse) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if !resp.OK {
		s.printf("Apply failed (%s): %s\n", resp.Kind, resp.Error)

		if resp.BackupPath != "" {
			s.printf("Original content is preserved in %s\n", resp.BackupPath)
		}

		return nil
	}

	s.printf("Applied. Backup written to %s\n", resp.BackupPath)

	return nil
}

// DisplayRestore reports a restored file.
func (s *SimpleUI) DisplayRestore(ctx context.Context, target, backup m.Path) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("Restored %s from %s\n", target, backup)

	return nil
}

// Confirm asks a y/N question on the command's input. Anything but an
// explicit yes declines.
func (s *SimpleUI) Confirm(ctx context.Context, resp m.ProposalResponse) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if !resp.OK || resp.Proposal == nil {
		return false, nil
	}

	s.printf("Apply this edit to %s? [y/N] ", resp.Proposal.File)

	answer, err := bufio.NewReader(s.cmd.InOrStdin()).ReadString('\n')
	if err != nil && answer == "" {
		s.printf("\n")
		return false, nil
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}
