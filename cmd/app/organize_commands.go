package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/scanvault/scanvault/cmd/app/commands"
	"github.com/scanvault/scanvault/internal/app"
	"github.com/scanvault/scanvault/internal/config"
)

func getOrganizeCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "folders",
			Usage: "Manage folders",
			Commands: []*cli.Command{
				{
					Name:  "list",
					Usage: "List folders",
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

						return commands.RunListFolders(
							ctx,
							store,
							commands.DefaultIO().Writer,
							cmd.String("format"),
						)
					},
				},
				{
					Name:  "create",
					Usage: "Create a folder",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:     "name",
							Aliases:  []string{"n"},
							Required: true,
							Usage:    "Folder name",
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

						return commands.RunCreateFolder(
							ctx,
							store,
							commands.DefaultIO().Writer,
							cmd.String("name"),
						)
					},
				},
				{
					Name:  "rename",
					Usage: "Rename a folder",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:     "id",
							Aliases:  []string{"i"},
							Required: true,
							Usage:    "Folder ID",
						},
						&cli.StringFlag{
							Name:     "name",
							Aliases:  []string{"n"},
							Required: true,
							Usage:    "New folder name",
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

						return commands.RunRenameFolder(
							ctx,
							store,
							commands.DefaultIO().Writer,
							cmd.String("id"),
							cmd.String("name"),
						)
					},
				},
				{
					Name:  "delete",
					Usage: "Delete a folder, keeping its documents",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:     "id",
							Aliases:  []string{"i"},
							Required: true,
							Usage:    "Folder ID",
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

						return commands.RunDeleteFolder(
							ctx,
							store,
							commands.DefaultIO().Writer,
							cmd.String("id"),
						)
					},
				},
			},
		},
		{
			Name:  "tags",
			Usage: "Manage tags",
			Commands: []*cli.Command{
				{
					Name:  "list",
					Usage: "List tags",
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

						return commands.RunListTags(
							ctx,
							store,
							commands.DefaultIO().Writer,
							cmd.String("format"),
						)
					},
				},
				{
					Name:  "create",
					Usage: "Create a tag",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:     "name",
							Aliases:  []string{"n"},
							Required: true,
							Usage:    "Tag name",
						},
						&cli.StringFlag{
							Name:  "color",
							Value: "",
							Usage: "Hex color code (e.g., #FF8800)",
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

						return commands.RunCreateTag(
							ctx,
							store,
							commands.DefaultIO().Writer,
							cmd.String("name"),
							cmd.String("color"),
						)
					},
				},
				{
					Name:  "delete",
					Usage: "Delete a tag, detaching it from all documents",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:     "id",
							Aliases:  []string{"i"},
							Required: true,
							Usage:    "Tag ID",
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

						return commands.RunDeleteTag(
							ctx,
							store,
							commands.DefaultIO().Writer,
							cmd.String("id"),
						)
					},
				},
				{
					Name:  "attach",
					Usage: "Attach a tag to a document",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:     "document",
							Aliases:  []string{"d"},
							Required: true,
							Usage:    "Document ID",
						},
						&cli.StringFlag{
							Name:     "tag",
							Aliases:  []string{"t"},
							Required: true,
							Usage:    "Tag ID",
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

						return commands.RunTagDocument(
							ctx,
							store,
							commands.DefaultIO().Writer,
							cmd.String("document"),
							cmd.String("tag"),
						)
					},
				},
				{
					Name:  "detach",
					Usage: "Remove a tag from a document",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:     "document",
							Aliases:  []string{"d"},
							Required: true,
							Usage:    "Document ID",
						},
						&cli.StringFlag{
							Name:     "tag",
							Aliases:  []string{"t"},
							Required: true,
							Usage:    "Tag ID",
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

						return commands.RunUntagDocument(
							ctx,
							store,
							commands.DefaultIO().Writer,
							cmd.String("document"),
							cmd.String("tag"),
						)
					},
				},
			},
		},
	}
}
