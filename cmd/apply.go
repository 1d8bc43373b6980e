package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"a11yfix.dev/pkg/a11yfix/internal/controller"
	m "a11yfix.dev/pkg/a11yfix/internal/model"
)

var errCodeSourceConflict = errors.New("--code and --code-file are mutually exclusive")

type applyOptions struct {
	file     string
	start    int
	end      int
	code     string
	codeFile string
	issueID  string
}

func newApplyCmd() *cobra.Command {
	opts := &applyOptions{}

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Replace a line range of a file, keeping a backup",
		Long: `Replace lines --start through --end (1-based, inclusive) of --file with new code.
The original is copied to a timestamped backup next to the file before the
replacement is written atomically. Empty code deletes the range.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runApply(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "file to edit")
	cmd.Flags().IntVar(&opts.start, "start", 0, "first line to replace")
	cmd.Flags().IntVar(&opts.end, "end", 0, "last line to replace")
	cmd.Flags().StringVar(&opts.code, "code", "", "replacement code")
	cmd.Flags().StringVar(&opts.codeFile, "code-file", "", `file holding the replacement code ("-" for stdin)`)
	cmd.Flags().StringVar(&opts.issueID, "issue-id", "", "issue the edit belongs to")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}

func runApply(cmd *cobra.Command, opts *applyOptions) error {
	ctx := cmd.Context()

	code, err := replacementCode(cmd, opts)
	if err != nil {
		return err
	}

	eng, err := newEngine(ctx, viper.GetViper(), nil)
	if err != nil {
		return err
	}

	resp := eng.orchestrator.ApplyProposal(ctx, m.ApplyRequest{
		IssueID:   opts.issueID,
		File:      m.Path(opts.file),
		StartLine: opts.start,
		EndLine:   opts.end,
		NewCode:   code,
	})

	if err := controller.NewSimpleUI(cmd).DisplayApplyResult(ctx, resp); err != nil {
		return err
	}

	if !resp.OK {
		return fmt.Errorf("apply failed: %s", resp.Kind)
	}

	return nil
}

func replacementCode(cmd *cobra.Command, opts *applyOptions) (string, error) {
	if opts.codeFile == "" {
		return opts.code, nil
	}

	if cmd.Flags().Changed("code") {
		return "", errCodeSourceConflict
	}

	var (
		data []byte
		err  error
	)

	if opts.codeFile == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		// #nosec G304 - the code file is named by the user
		data, err = os.ReadFile(opts.codeFile)
	}

	if err != nil {
		return "", fmt.Errorf("failed to read replacement code: %w", err)
	}

	return string(data), nil
}

func init() {
	rootCmd.AddCommand(newApplyCmd())
}
