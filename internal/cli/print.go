package cli

import (
	"fmt"
	"strings"

	"grocery-cli/internal/publish"
	"grocery-cli/internal/store"

	"github.com/spf13/cobra"
)

func newPrintCmd(app *App) *cobra.Command {
	var filter string
	var byCategory bool
	var raw bool
	var out string
	var overwrite bool
	var width int

	cmd := &cobra.Command{
		Use:   "print",
		Short: "Render the list as a printable Markdown checklist",
		Example: strings.TrimSpace(`
# Render for the terminal
grocery print --filter active --by-category

# Write Markdown for sharing
grocery print --out list.md
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := s.Engine.SetFilter(filter); err != nil {
				return writeErr(cmd, err)
			}
			items := s.Engine.Visible()
			opt := publish.RenderOptions{ByCategory: byCategory}

			if out = strings.TrimSpace(out); out != "" {
				res, err := publish.WriteChecklist(items, out, publish.WriteOptions{RenderOptions: opt, Overwrite: overwrite})
				if err != nil {
					return writeErr(cmd, err)
				}
				return writeOut(cmd, app, res)
			}

			md := publish.RenderChecklist(items, opt)
			if raw {
				_, err := fmt.Fprint(cmd.OutOrStdout(), md)
				return err
			}
			dark := s.Theme(ctxOf(cmd)) == store.ThemeDark
			_, err = fmt.Fprintln(cmd.OutOrStdout(), publish.RenderTerminal(md, width, dark))
			return err
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "all", "Filter (all|active|completed)")
	cmd.Flags().BoolVar(&byCategory, "by-category", false, "Group items under category headings")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print Markdown source instead of rendering it")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write Markdown to this file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite --out if it exists")
	cmd.Flags().IntVar(&width, "width", 80, "Wrap width for terminal rendering")
	return cmd
}
