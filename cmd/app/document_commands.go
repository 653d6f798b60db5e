package main

import (
	"context"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/scanvault/scanvault/cmd/app/commands"
	"github.com/scanvault/scanvault/internal/app"
	"github.com/scanvault/scanvault/internal/config"
)

func getDocumentCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:      "import",
			Usage:     "Import scanned pages as an encrypted document",
			ArgsUsage: "PAGE...",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "title",
					Aliases:  []string{"t"},
					Required: true,
					Usage:    "Document title",
				},
				&cli.StringFlag{
					Name:    "description",
					Aliases: []string{"d"},
					Value:   "",
					Usage:   "Document description",
				},
				&cli.StringFlag{
					Name:  "mime-type",
					Value: "image/jpeg",
					Usage: "MIME type of the page files",
				},
				&cli.StringFlag{
					Name:  "folder",
					Value: "",
					Usage: "Folder ID to file the document under",
				},
				&cli.StringSliceFlag{
					Name:  "tag",
					Usage: "Tag ID to attach (repeatable)",
				},
				&cli.StringFlag{
					Name:  "thumbnail",
					Value: "",
					Usage: "Path to a thumbnail image",
				},
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

				return commands.RunImportDocument(
					ctx,
					store,
					container.Logger(),
					commands.DefaultIO().Writer,
					commands.ImportOptions{
						Title:         cmd.String("title"),
						Description:   cmd.String("description"),
						MimeType:      cmd.String("mime-type"),
						FolderID:      cmd.String("folder"),
						TagIDs:        cmd.StringSlice("tag"),
						ThumbnailPath: cmd.String("thumbnail"),
						PagePaths:     cmd.Args().Slice(),
						Format:        cmd.String("format"),
					},
				)
			},
		},
		{
			Name:  "list",
			Usage: "List documents",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "folder",
					Value: "",
					Usage: "Only documents in this folder ID",
				},
				&cli.StringFlag{
					Name:  "tag",
					Value: "",
					Usage: "Only documents carrying this tag ID",
				},
				&cli.BoolFlag{
					Name:  "favorites",
					Value: false,
					Usage: "Only favorite documents",
				},
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

				return commands.RunListDocuments(
					ctx,
					store,
					commands.DefaultIO().Writer,
					commands.ListOptions{
						FolderID:      cmd.String("folder"),
						TagID:         cmd.String("tag"),
						FavoritesOnly: cmd.Bool("favorites"),
						Format:        cmd.String("format"),
					},
				)
			},
		},
		{
			Name:  "show",
			Usage: "Show a document's details",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "id",
					Aliases:  []string{"i"},
					Required: true,
					Usage:    "Document ID",
				},
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

				return commands.RunShowDocument(
					ctx,
					store,
					commands.DefaultIO().Writer,
					cmd.String("id"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:      "search",
			Usage:     "Search documents by title and recognized text",
			ArgsUsage: "QUERY...",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "history",
					Value: false,
					Usage: "Show recent searches instead of searching",
				},
				&cli.IntFlag{
					Name:    "limit",
					Aliases: []string{"l"},
					Value:   10,
					Usage:   "Maximum history entries to show",
				},
				&cli.BoolFlag{
					Name:  "clear-history",
					Value: false,
					Usage: "Forget all remembered searches",
				},
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

				if cmd.Bool("history") || cmd.Bool("clear-history") {
					return commands.RunSearchHistory(
						ctx,
						store,
						commands.DefaultIO().Writer,
						int(cmd.Int("limit")),
						cmd.Bool("clear-history"),
					)
				}

				return commands.RunSearchDocuments(
					ctx,
					store,
					container.Logger(),
					commands.DefaultIO().Writer,
					strings.Join(cmd.Args().Slice(), " "),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "export",
			Usage: "Decrypt a document's pages into a directory",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "id",
					Aliases:  []string{"i"},
					Required: true,
					Usage:    "Document ID",
				},
				&cli.StringFlag{
					Name:    "out",
					Aliases: []string{"o"},
					Value:   ".",
					Usage:   "Directory receiving the decrypted pages",
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

				return commands.RunExportDocument(
					ctx,
					store,
					container.Eraser(),
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("id"),
					cmd.String("out"),
				)
			},
		},
		{
			Name:  "delete",
			Usage: "Delete documents and securely erase their files",
			Flags: []cli.Flag{
				&cli.StringSliceFlag{
					Name:     "id",
					Aliases:  []string{"i"},
					Required: true,
					Usage:    "Document ID (repeatable)",
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

				return commands.RunDeleteDocuments(
					ctx,
					store,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.StringSlice("id"),
				)
			},
		},
		{
			Name:  "favorite",
			Usage: "Toggle a document's favorite flag",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "id",
					Aliases:  []string{"i"},
					Required: true,
					Usage:    "Document ID",
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

				return commands.RunToggleFavorite(
					ctx,
					store,
					commands.DefaultIO().Writer,
					cmd.String("id"),
				)
			},
		},
		{
			Name:  "move",
			Usage: "Move a document into or out of a folder",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "id",
					Aliases:  []string{"i"},
					Required: true,
					Usage:    "Document ID",
				},
				&cli.StringFlag{
					Name:  "folder",
					Value: "",
					Usage: "Target folder ID; empty moves the document out of its folder",
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

				return commands.RunMoveDocument(
					ctx,
					store,
					commands.DefaultIO().Writer,
					cmd.String("id"),
					cmd.String("folder"),
				)
			},
		},
	}
}
