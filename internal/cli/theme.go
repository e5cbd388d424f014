package cli

import (
	"fmt"
	"strings"

	"grocery-cli/internal/store"

	"github.com/spf13/cobra"
)

func newThemeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:       "theme [light|dark|toggle]",
		Short:     "Show or change the color theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"light", "dark", "toggle"},
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			ctx := ctxOf(cmd)
			cur := s.Theme(ctx)
			if len(args) == 0 {
				return writeOut(cmd, app, map[string]any{"theme": cur})
			}

			var next store.Theme
			switch strings.ToLower(strings.TrimSpace(args[0])) {
			case "light":
				next = store.ThemeLight
			case "dark":
				next = store.ThemeDark
			case "toggle":
				next = cur.Toggle()
			default:
				return writeErr(cmd, fmt.Errorf("unknown theme %q (want light|dark|toggle)", args[0]))
			}
			if err := s.SetTheme(ctx, next); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"theme": next})
		},
	}
}
