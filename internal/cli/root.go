// Package cli implements the contentgen command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ContentGenerator/internal/app"
	"ContentGenerator/internal/config"
	"ContentGenerator/internal/logging"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

// Execute loads .env files and runs the root command.
func Execute(ctx context.Context) error {
	for _, file := range []string{".env.local", ".env"} {
		if err := godotenv.Load(file); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return NewRootCommand().ExecuteContext(ctx)
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "contentgen",
		Short:         "Generate landing pages from location and industry seeds",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default $CONTENTGEN_CONFIG)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override logging.level")

	root.AddCommand(
		newRunCommand(opts),
		newScheduleCommand(opts),
		newPopulateCommand(opts),
		newRequeueCommand(opts),
		newSeedCommand(opts),
		newMigrateCommand(opts),
	)
	return root
}

// load reads configuration and builds the logger.
func (o *rootOptions) load() (config.Config, *slog.Logger, func() error, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	logger, closeLog, err := logging.New(cfg.Logging)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	return cfg, logger, closeLog, nil
}

// withApp builds the application, calls fn and tears everything down.
func (o *rootOptions) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.Application, cfg config.Config) error) error {
	cfg, logger, closeLog, err := o.load()
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	ctx := cmd.Context()
	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := application.Close(); cerr != nil {
			logger.Warn("close application", "error", cerr)
		}
	}()
	return fn(ctx, application, cfg)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
