package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"a11yfix.dev/pkg/a11yfix/internal/controller"
	m "a11yfix.dev/pkg/a11yfix/internal/model"
)

func newRestoreCmd() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "restore <backup>",
		Short: "Copy a backup back over the file it was taken from",
		Long: `Restore a file from a backup written by apply. The target is derived from the
backup name unless --file is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			eng, err := newEngine(ctx, viper.GetViper(), nil)
			if err != nil {
				return err
			}

			backup := m.Path(args[0])

			restored, err := eng.applier.Restore(ctx, backup, m.Path(target))
			if err != nil {
				return err
			}

			return controller.NewSimpleUI(cmd).DisplayRestore(ctx, restored, backup)
		},
	}

	cmd.Flags().StringVarP(&target, "file", "f", "", "file to overwrite (default: derived from the backup name)")

	return cmd
}

func init() {
	rootCmd.AddCommand(newRestoreCmd())
}
