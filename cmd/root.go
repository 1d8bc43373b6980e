// Package cmd provides the root command and CLI setup for a11yfix.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"a11yfix.dev/pkg/a11yfix/internal/adapter"
	"a11yfix.dev/pkg/a11yfix/internal/domain"
)

// engine bundles what the subcommands drive.
type engine struct {
	orchestrator domain.Orchestrator
	applier      domain.Applier
}

// newEngine builds the engine from configuration. Tests replace it.
var newEngine = buildEngine

var logFileFlag string
var verboseFlag bool

const (
	logFileFlagName = "log-file"
	verboseFlagName = "verbose"
)

const rootLongDescription = `a11yfix turns accessibility findings from a UI scanner into minimal,
reviewable source edits. It resolves the issue's source location, asks a
language model for a fix of the surrounding code, validates the reply, and
applies it behind a timestamped backup.`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "a11yfix",
		Short:         "Accessibility patch proposal engine",
		Long:          rootLongDescription,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger(logFileFlag, verboseFlag)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	configureRootFlags(cmd)

	return cmd
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&logFileFlag, logFileFlagName, viper.GetString(logFilenameKey), "path of the rotating log file")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(logFileFlagName), logFilenameKey)

	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", viper.GetBool(logVerboseKey), "log at debug level")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(verboseFlagName), logVerboseKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

func buildEngine(ctx context.Context, v *viper.Viper, observer domain.StateObserver) (*engine, error) {
	fsAdapter := adapter.NewLocalSourceFSAdapter(v.GetInt(engineCacheSizeKey))

	pool, err := adapter.BuildOraclePool(ctx, oracleConfig(v))
	if err != nil {
		return nil, fmt.Errorf("failed to configure oracle: %w", err)
	}

	deps := domain.NewDependencies(fsAdapter, pool, v.GetInt(engineScopeRadiusKey), synthesizerOptions(v))

	opts := orchestratorOptions(v)
	opts.Observer = observer

	return &engine{
		orchestrator: domain.NewOrchestrator(deps, opts),
		applier:      deps.Applier,
	}, nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		os.Exit(1)
	}
}
