// corpctl resolve tên công ty, làm mới registry DART và tra cứu bảng từ dòng lệnh.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/corp-resolver/internal/bootstrap"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// rootFlags flag dùng chung cho mọi subcommand
type rootFlags struct {
	configPath string
	verbose    bool
	timeout    time.Duration
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "corpctl",
		Short: "Resolve Korean/English company names to DART corp codes",
		Long: `corpctl resolves free-form company names against the DART corporate registry.

Available subcommands:
  resolve - Resolve one or more names (JSON output)
  refresh - Force a registry refetch from DART and rewrite the snapshot
  search  - Show the top fuzzy candidates for a query`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", os.Getenv("CONFIG_PATH"), "Config file (default: config/app.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().DurationVar(&flags.timeout, "timeout", 2*time.Minute, "Operation timeout")

	rootCmd.AddCommand(newResolveCmd(flags))
	rootCmd.AddCommand(newRefreshCmd(flags))
	rootCmd.AddCommand(newSearchCmd(flags))
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// setup đọc config và wire các thành phần cần cho CLI (không cache, không MongoDB)
func setup(cmd *cobra.Command, flags *rootFlags) (context.Context, *bootstrap.App, func(), error) {
	cfg, err := bootstrap.LoadConfig(flags.configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	logger := zap.NewNop()
	if flags.verbose {
		if logger, err = bootstrap.InitLogger(cfg.App.Env); err != nil {
			return nil, nil, nil, err
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), flags.timeout)
	app, err := bootstrap.Build(ctx, cfg, logger, bootstrap.Options{SkipPreload: true})
	if err != nil {
		cancel()
		return nil, nil, nil, fmt.Errorf("khởi tạo thất bại: %w", err)
	}

	cleanup := func() {
		app.Close()
		_ = logger.Sync()
		cancel()
	}
	return ctx, app, cleanup, nil
}
