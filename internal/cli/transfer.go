package cli

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"grocery-cli/internal/grocery"
	"grocery-cli/internal/store"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
)

func newExportCmd(app *App) *cobra.Command {
	var out string
	var toClipboard bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the whole list as a JSON file",
		Long: strings.TrimSpace(`
Export every item (regardless of the current filter) as a pretty-printed JSON array.

Use --out - to write the raw JSON to stdout instead of a file.
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			b, err := s.Engine.Export()
			if err != nil {
				return writeErr(cmd, err)
			}

			out = strings.TrimSpace(out)
			if out == "-" {
				_, err := cmd.OutOrStdout().Write(b)
				return err
			}
			if out == "" {
				out = grocery.ExportFileName
			}
			abs, err := filepath.Abs(out)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := store.WriteFile(abs, b); err != nil {
				return writeErr(cmd, err)
			}

			copied := false
			if toClipboard {
				if err := clipboard.WriteAll(string(b)); err != nil {
					s.Logger().Warn("clipboard unavailable", "err", err)
				} else {
					copied = true
				}
			}
			return writeOut(cmd, app, map[string]any{
				"path":      abs,
				"items":     len(s.Engine.Items()),
				"clipboard": copied,
			}, "grocery import "+abs)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", grocery.ExportFileName, "Output file (use - for stdout)")
	cmd.Flags().BoolVar(&toClipboard, "clipboard", false, "Also copy the JSON to the clipboard")
	return cmd
}

func newImportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Import items from an exported JSON file",
		Long: strings.TrimSpace(`
Import items from a JSON array. Items whose id already exists are skipped; new items are
appended after the current ones.
`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			src := strings.TrimSpace(args[0])
			var raw []byte
			if src == "-" {
				raw, err = io.ReadAll(cmd.InOrStdin())
			} else {
				raw, err = os.ReadFile(src)
			}
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return writeErr(cmd, errNotFound("file", src))
				}
				return writeErr(cmd, err)
			}
			n, err := s.Engine.Import(ctxOf(cmd), raw)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"imported": n, "total": len(s.Engine.Items())})
		},
	}
	return cmd
}
