package cli

import (
	"path/filepath"

	"grocery-cli/internal/logging"
	"grocery-cli/internal/store"
	"grocery-cli/internal/tui"

	"github.com/spf13/cobra"
)

// runTUI starts the interactive shell. Logs go to <config>/grocery.log because the terminal
// belongs to the UI.
func runTUI(cmd *cobra.Command, app *App) error {
	cfgDir, err := store.ConfigDir()
	if err != nil {
		return writeErr(cmd, err)
	}
	logger, closeLog, err := logging.OpenFile(filepath.Join(cfgDir, "grocery.log"), logging.ParseLevel(app.LogLevel))
	if err != nil {
		return writeErr(cmd, err)
	}
	defer func() { _ = closeLog() }()

	s, err := openLiveSession(cmd, app, logger)
	if err != nil {
		return writeErr(cmd, err)
	}
	return tui.Run(ctxOf(cmd), s, tui.Options{})
}
