package cli

import (
	"strings"

	"grocery-cli/internal/store"

	"github.com/spf13/cobra"
)

func newListsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lists",
		Short: "Manage named grocery lists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListsShow(cmd, app)
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show known lists and the current one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListsShow(cmd, app)
		},
	})
	cmd.AddCommand(newListsUseCmd(app))
	return cmd
}

func runListsShow(cmd *cobra.Command, app *App) error {
	names, err := store.ListNames()
	if err != nil {
		return writeErr(cmd, err)
	}
	cfg, err := store.LoadConfig()
	if err != nil {
		return writeErr(cmd, err)
	}
	current := strings.TrimSpace(cfg.CurrentList)
	if current == "" {
		current = store.DefaultListName
	}
	return writeOut(cmd, app, map[string]any{"current": current, "lists": names})
}

func newListsUseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "use <name>",
		Short: "Switch the current list (created on first use)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := store.NormalizeListName(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			dir, err := store.ListDir(name)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := (store.Store{Dir: dir}).Ensure(); err != nil {
				return writeErr(cmd, err)
			}
			cfg, err := store.LoadConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			cfg.CurrentList = name
			if err := store.SaveConfig(cfg); err != nil {
				return writeErr(cmd, err)
			}
			app.List = name
			app.Dir = dir
			return writeOut(cmd, app, map[string]any{"current": name, "dir": dir}, "grocery list")
		},
	}
}
