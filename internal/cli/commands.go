package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ContentGenerator/internal/app"
	"ContentGenerator/internal/config"
	"ContentGenerator/internal/domain"
	"ContentGenerator/internal/infrastructure/storage/postgres"
	"ContentGenerator/internal/usecase"
)

func newRunCommand(opts *rootOptions) *cobra.Command {
	var (
		batchSize  int
		noPopulate bool
		types      []string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once and print the summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.Application, _ config.Config) error {
				runOpts := a.RunOptions()
				if batchSize > 0 {
					runOpts.BatchSize = batchSize
				}
				if noPopulate {
					runOpts.AutoPopulate = false
				}
				if len(types) > 0 {
					parsed, err := domain.ParseContentTypes(types)
					if err != nil {
						return err
					}
					runOpts.ContentTypes = parsed
				}

				summary, err := a.RunOnce(ctx, runOpts)
				if printErr := printJSON(cmd, summary); printErr != nil {
					return printErr
				}
				if err != nil {
					return err
				}
				if summary.Skipped {
					return errors.New("another run is in progress")
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "items to process (default pipeline.batchSize)")
	cmd.Flags().BoolVar(&noPopulate, "no-populate", false, "skip the populate step")
	cmd.Flags().StringSliceVar(&types, "types", nil, "content types to populate (location, industry, combo)")
	return cmd
}

func newScheduleCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run on the cron schedule and serve the operator API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			cmd.SetContext(ctx)

			return opts.withApp(cmd, func(ctx context.Context, a *app.Application, _ config.Config) error {
				return a.Serve(ctx)
			})
		},
	}
}

func newPopulateCommand(opts *rootOptions) *cobra.Command {
	var (
		types       []string
		maxPriority int
	)

	cmd := &cobra.Command{
		Use:   "populate",
		Short: "Enqueue every eligible target that is neither queued nor published",
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsed, err := domain.ParseContentTypes(types)
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app.Application, cfg config.Config) error {
				priority := maxPriority
				if priority == 0 {
					priority = cfg.Pipeline.PopulateMaxPriority
				}
				result, err := a.Populate(ctx, usecase.PopulateRequest{ContentTypes: parsed, MaxPriority: priority})
				if err != nil {
					return err
				}
				return printJSON(cmd, result)
			})
		},
	}
	cmd.Flags().StringSliceVar(&types, "types", nil, "content types (default all)")
	cmd.Flags().IntVar(&maxPriority, "max-priority", 0, "highest seed priority to include (default pipeline.populateMaxPriority)")
	return cmd
}

func newRequeueCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "requeue [ids...]",
		Short: "Give failed items a fresh queued item (all failed items when no ids are given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.Application, _ config.Config) error {
				result, err := a.Requeue(ctx, args)
				if err != nil {
					return err
				}
				return printJSON(cmd, result)
			})
		},
	}
}

func newSeedCommand(opts *rootOptions) *cobra.Command {
	seed := &cobra.Command{
		Use:   "seed",
		Short: "Manage location and industry seeds",
	}
	seed.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Upsert seeds from a YAML or JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := app.LoadSeedFile(args[0])
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app.Application, _ config.Config) error {
				n, err := a.ImportSeeds(ctx, items)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d seeds\n", n)
				return nil
			})
		},
	})
	return seed
}

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:       "migrate <up|down>",
		Short:     "Apply or roll back the Postgres schema",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{postgres.MigrateUp, postgres.MigrateDown},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, closeLog, err := opts.load()
			if err != nil {
				return err
			}
			defer func() { _ = closeLog() }()

			if cfg.Database.InMemory() {
				return errors.New("migrate needs a postgres database.dsn")
			}
			if err := postgres.Migrate(cfg.Database.DSN, args[0], steps, logger); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migration %s completed\n", args[0])
			return nil
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 1, "migrations to roll back with down")
	return cmd
}
