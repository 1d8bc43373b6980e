package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"a11yfix.dev/pkg/a11yfix/internal/controller"
	"a11yfix.dev/pkg/a11yfix/internal/domain"
	m "a11yfix.dev/pkg/a11yfix/internal/model"
)

// errProposalFailed marks a run whose outcome has already been reported.
var errProposalFailed = errors.New("no applicable proposal")

type proposeOptions struct {
	issueFile   string
	activeFile  string
	language    string
	apply       bool
	yes         bool
	interactive bool
}

// wantsTUI reports whether the interactive view should be used. The view
// renders a proposal only while confirming it.
func (o *proposeOptions) wantsTUI() bool {
	return o.interactive && o.apply && !o.yes
}

func newProposeCmd() *cobra.Command {
	opts := &proposeOptions{}

	cmd := &cobra.Command{
		Use:   "propose",
		Short: "Generate a fix proposal for one accessibility issue",
		Long: `Resolve the issue's source location, extract the surrounding code, ask the
configured oracle for a fix and show it as a diff. With --apply the edit is
written after confirmation; the original file is kept as a timestamped backup.

The issue file is YAML or JSON; "-" reads it from standard input.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPropose(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.issueFile, "issue", "i", "", "issue document (YAML or JSON)")
	cmd.Flags().StringVar(&opts.activeFile, "active-file", "", "file open in the editor, used when the issue has no usable hint")
	cmd.Flags().StringVar(&opts.language, "language", "", "override language detection")
	cmd.Flags().BoolVar(&opts.apply, "apply", false, "apply the proposal after confirmation")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "apply without asking")
	cmd.Flags().BoolVar(&opts.interactive, "tui", true, "use the interactive view when attached to a terminal")
	_ = cmd.MarkFlagRequired("issue")

	return cmd
}

func runPropose(cmd *cobra.Command, opts *proposeOptions) error {
	ctx := cmd.Context()

	issue, err := loadIssue(cmd.InOrStdin(), opts.issueFile)
	if err != nil {
		return err
	}

	eng, err := newEngine(ctx, viper.GetViper(), nil)
	if err != nil {
		return err
	}

	ui := controller.NewUI(cmd, opts.wantsTUI())

	resp := eng.orchestrator.GenerateProposal(ctx, m.ProposalRequest{
		Issue:      issue,
		ActiveFile: m.Path(opts.activeFile),
		Language:   opts.language,
	})

	if err := ui.DisplayProposal(ctx, resp); err != nil {
		return err
	}

	if !resp.OK {
		return fmt.Errorf("%w: %s", errProposalFailed, resp.Kind)
	}

	if !opts.apply {
		return nil
	}

	req, err := domain.ApplyRequestFromProposal(resp)
	if err != nil {
		return err
	}

	confirmed := opts.yes
	if !confirmed {
		if confirmed, err = ui.Confirm(ctx, resp); err != nil {
			return err
		}
	}

	if !confirmed {
		cmd.Println("Skipped.")
		return nil
	}

	applied := eng.orchestrator.ApplyProposal(ctx, req)
	if err := ui.DisplayApplyResult(ctx, applied); err != nil {
		return err
	}

	if !applied.OK {
		return fmt.Errorf("apply failed: %s", applied.Kind)
	}

	return nil
}

// loadIssue reads an issue document. JSON is accepted as a YAML subset.
func loadIssue(stdin io.Reader, path string) (m.Issue, error) {
	var (
		data []byte
		err  error
	)

	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		// #nosec G304 - the issue file is named by the user
		data, err = os.ReadFile(path)
	}

	if err != nil {
		return m.Issue{}, fmt.Errorf("failed to read issue: %w", err)
	}

	var issue m.Issue
	if err := yaml.Unmarshal(data, &issue); err != nil {
		return m.Issue{}, fmt.Errorf("failed to parse issue %s: %w", path, err)
	}

	if strings.TrimSpace(issue.ID) == "" {
		return m.Issue{}, fmt.Errorf("issue %s has no id", path)
	}

	if issue.Severity != "" && !issue.Severity.Valid() {
		return m.Issue{}, fmt.Errorf("issue %s has unknown severity %q", path, issue.Severity)
	}

	return issue, nil
}

func init() {
	rootCmd.AddCommand(newProposeCmd())
}
