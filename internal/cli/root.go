package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"grocery-cli/internal/format"
	"grocery-cli/internal/logging"
	"grocery-cli/internal/session"
	"grocery-cli/internal/status"
	"grocery-cli/internal/store"

	"github.com/spf13/cobra"
)

type App struct {
	Dir        string
	List       string
	PrettyJSON bool
	Format     string
	Offline    bool
	LogLevel   string

	sess     *session.Session
	messages *status.Recorder
	sync     *deferredSync
}

// deferredSync collects sync requests made by the engine during one command. The CLI runs
// the sync once, after the command, instead of in a goroutine the process would not wait for.
type deferredSync struct {
	requested bool
}

func (d *deferredSync) Trigger() { d.requested = true }

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "grocery",
		Short:        "Local-first grocery list (CLI + TUI + web)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  grocery

  # Scriptable commands
  grocery add Milk --qty 2 --category dairy
  grocery list --filter active

  # Quick add (shortcut for: grocery add Eggs)
  grocery +Eggs
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		// Mutating commands push the list once they are done. Failures are reported but
		// never fail the command: the local write already succeeded.
		if app.sess == nil || app.sync == nil || !app.sync.requested {
			return nil
		}
		app.sync.requested = false
		sy := app.sess.Syncer()
		if sy.Ready() != nil {
			return nil
		}
		if _, err := sy.SyncNow(cmd.Context()); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "sync: %v\n", err)
		}
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", envOr("GROCERY_DIR", ""), "Path to the list directory (overrides --list)")
	cmd.PersistentFlags().StringVar(&app.List, "list", envOr("GROCERY_LIST", ""), "List name (default: current list from config, else 'default')")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("GROCERY_FORMAT", "json"), "Output format (json|edn)")
	cmd.PersistentFlags().BoolVar(&app.Offline, "offline", false, "Do not contact the remote endpoint")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log", envOr("GROCERY_LOG", "warn"), "Log level (debug|info|warn|error)")

	cmd.AddCommand(newAddCmd(app))
	cmd.AddCommand(newListCmd(app))
	cmd.AddCommand(newToggleCmd(app))
	cmd.AddCommand(newEditCmd(app))
	cmd.AddCommand(newQtyCmd(app))
	cmd.AddCommand(newCategoryCmd(app))
	cmd.AddCommand(newDeleteCmd(app))
	cmd.AddCommand(newClearCompletedCmd(app))
	cmd.AddCommand(newClearCmd(app))
	cmd.AddCommand(newStatsCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newImportCmd(app))
	cmd.AddCommand(newEventsCmd(app))
	cmd.AddCommand(newRemoteCmd(app))
	cmd.AddCommand(newSyncCmd(app))
	cmd.AddCommand(newPullCmd(app))
	cmd.AddCommand(newThemeCmd(app))
	cmd.AddCommand(newPrintCmd(app))
	cmd.AddCommand(newListsCmd(app))
	cmd.AddCommand(newWebCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

// resolveDir picks the list directory:
// 1) --dir / GROCERY_DIR
// 2) --list / GROCERY_LIST
// 3) currentList from ~/.grocery/config.json
// 4) the "default" list
func resolveDir(app *App) (string, error) {
	if strings.TrimSpace(app.Dir) != "" {
		return strings.TrimSpace(app.Dir), nil
	}
	name := strings.TrimSpace(app.List)
	if name == "" {
		if cfg, err := store.LoadConfig(); err == nil && cfg.CurrentList != "" {
			name = cfg.CurrentList
		} else {
			name = store.DefaultListName
		}
	}
	dir, err := store.ListDir(name)
	if err != nil {
		return "", err
	}
	app.List = name
	app.Dir = dir
	return dir, nil
}

// openSession opens the list for a one-shot command. Status messages are collected and
// returned with the command output; sync requests wait for PersistentPostRunE.
func openSession(cmd *cobra.Command, app *App) (*session.Session, error) {
	if app.sess != nil {
		return app.sess, nil
	}
	app.messages = &status.Recorder{}
	s, err := openListSession(cmd, app, app.messages.Func(), logging.New(cmd.ErrOrStderr(), logging.ParseLevel(app.LogLevel)))
	if err != nil {
		return nil, err
	}
	app.sync = &deferredSync{}
	s.Engine.AttachSyncer(app.sync)
	app.sess = s
	return s, nil
}

// openLiveSession opens the list for a long-running shell (TUI, web). The session keeps its
// background syncer; the shell installs its own status sink.
func openLiveSession(cmd *cobra.Command, app *App, logger *slog.Logger) (*session.Session, error) {
	return openListSession(cmd, app, nil, logger)
}

func openListSession(cmd *cobra.Command, app *App, notify status.Func, logger *slog.Logger) (*session.Session, error) {
	dir, err := resolveDir(app)
	if err != nil {
		return nil, err
	}
	cfg, err := store.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return session.Open(ctxOf(cmd), session.Options{
		Dir:     dir,
		Config:  cfg,
		Notify:  notify,
		Logger:  logger,
		Offline: app.Offline,
	})
}

func ctxOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

// writeOut writes the {"data": ...} envelope, attaching any status messages as meta.
func writeOut(cmd *cobra.Command, app *App, data any, hints ...string) error {
	return writeEnvelope(cmd, app, format.Envelope{Data: data, Hints: hints})
}

func writeEnvelope(cmd *cobra.Command, app *App, env format.Envelope) error {
	if app.messages != nil && len(app.messages.Messages) > 0 {
		if env.Meta == nil {
			env.Meta = map[string]any{}
		}
		env.Meta["messages"] = app.messages.Messages
	}
	return format.Write(cmd.OutOrStdout(), env, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
