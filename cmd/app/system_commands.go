package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/scanvault/scanvault/cmd/app/commands"
	"github.com/scanvault/scanvault/internal/app"
	"github.com/scanvault/scanvault/internal/config"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "init",
			Usage: "Initialize the vault and generate the master key",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "passcode",
					Aliases: []string{"p"},
					Value:   "",
					Usage:   "Optional passcode protecting the vault",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				store, err := container.DocumentStore()
				if err != nil {
					return err
				}

				keyVault, err := container.KeyVault()
				if err != nil {
					return err
				}

				return commands.RunInit(
					ctx,
					store,
					keyVault,
					container.Logger(),
					commands.DefaultIO().Writer,
					cfg.DataDir,
					cmd.String("passcode"),
				)
			},
		},
		{
			Name:  "migrate",
			Usage: "Convert a legacy plaintext store and apply schema migrations",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				migrator, err := container.Migrator()
				if err != nil {
					return err
				}

				if err := commands.RunMigrateStore(
					ctx,
					migrator,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("format"),
				); err != nil {
					return err
				}

				// Opening the connection applies any pending schema migrations.
				_, err = container.DB()
				return err
			},
		},
		{
			Name:  "info",
			Usage: "Show document counts, disk usage, and cache statistics",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				store, err := openStore(ctx, container)
				if err != nil {
					return err
				}

				return commands.RunStorageInfo(
					ctx,
					store,
					commands.DefaultIO().Writer,
					cmd.String("format"),
				)
			},
		},
		{
			Name:      "erase",
			Usage:     "Securely overwrite and delete files",
			ArgsUsage: "PATH...",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunEraseFiles(
					ctx,
					container.Eraser(),
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.Args().Slice(),
				)
			},
		},
		{
			Name:  "metrics",
			Usage: "Start the metrics HTTP server",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunMetricsServer(ctx, version)
			},
		},
	}
}
