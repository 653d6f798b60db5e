package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/scanvault/scanvault/internal/app"
	documentUsecase "github.com/scanvault/scanvault/internal/document/usecase"
)

func getCommands(version string) []*cli.Command {
	cmds := []*cli.Command{}
	cmds = append(cmds, getSystemCommands(version)...)
	cmds = append(cmds, getDocumentCommands()...)
	cmds = append(cmds, getOrganizeCommands()...)
	return cmds
}

// openStore resolves the document store and brings the vault to a usable
// state: storage directories exist, the master key is present, and a dirty
// search index has been rebuilt.
func openStore(ctx context.Context, container *app.Container) (documentUsecase.DocumentStore, error) {
	store, err := container.DocumentStore()
	if err != nil {
		return nil, err
	}
	if err := store.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize vault: %w", err)
	}
	return store, nil
}
