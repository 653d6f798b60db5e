package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	documentUsecase "github.com/scanvault/scanvault/internal/document/usecase"
	"github.com/scanvault/scanvault/internal/keyvault"
)

// RunInit prepares the vault for first use: data directories, the master key,
// and store markers. Running it again on an existing vault is harmless. When
// passcode is non-empty it is set as the vault passcode, replacing any
// previous one.
func RunInit(
	ctx context.Context,
	store documentUsecase.DocumentStore,
	keyVault *keyvault.KeyVault,
	logger *slog.Logger,
	writer io.Writer,
	dataDir string,
	passcode string,
) error {
	logger.Info("initializing vault", slog.String("data_dir", dataDir))

	if err := store.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize vault: %w", err)
	}

	if passcode != "" {
		if err := keyVault.SetPasscode(passcode); err != nil {
			return fmt.Errorf("failed to set passcode: %w", err)
		}
		logger.Info("passcode set")
	}

	hasPasscode, err := keyVault.HasPasscode()
	if err != nil {
		return fmt.Errorf("failed to check passcode: %w", err)
	}

	fmt.Fprintf(writer, "vault ready at %s\n", dataDir)
	if hasPasscode {
		fmt.Fprintln(writer, "passcode: set")
	} else {
		fmt.Fprintln(writer, "passcode: not set")
	}

	logger.Info("vault initialized")
	return nil
}
