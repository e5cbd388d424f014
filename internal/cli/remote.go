package cli

import (
	"errors"
	"strings"

	"grocery-cli/internal/store"

	"github.com/spf13/cobra"
)

func newRemoteCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Configure the remote sync endpoint for the current list",
	}
	cmd.AddCommand(newRemoteConnectCmd(app))
	cmd.AddCommand(newRemoteShowCmd(app))
	cmd.AddCommand(newRemoteDisconnectCmd(app))
	return cmd
}

func newRemoteConnectCmd(app *App) *cobra.Command {
	var backend string
	cmd := &cobra.Command{
		Use:   "connect [endpoint]",
		Short: "Test an endpoint and save it when it answers",
		Long: strings.TrimSpace(`
Test the endpoint with a read request and save it for the current list.

For the script backend the endpoint is the deployment id. For the records backend it is the
server base URL; when omitted, remote.recordsURL from the config file is used.
`),
		Example: strings.TrimSpace(`
grocery remote connect AKfycbx...
grocery remote connect http://127.0.0.1:8090 --backend records
`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := store.ParseBackend(backend)
			if err != nil {
				return writeErr(cmd, err)
			}
			s, err := openSession(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			endpoint := ""
			if len(args) == 1 {
				endpoint = strings.TrimSpace(args[0])
			}
			if endpoint == "" && b == store.BackendRecords {
				if cfg, err := store.LoadConfig(); err == nil {
					endpoint = strings.TrimSpace(cfg.Remote.RecordsURL)
				}
			}
			if app.Offline {
				return writeErr(cmd, errors.New("cannot test the endpoint with --offline"))
			}
			if err := s.Connect(ctxOf(cmd), endpoint, b); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, s.RemoteInfo(), "grocery sync")
		},
	}
	cmd.Flags().StringVar(&backend, "backend", string(store.BackendScript), "Remote backend (script|records)")
	return cmd
}

func newRemoteShowCmd(app *App) *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the configured endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if check && !app.Offline {
				s.CheckOnline(ctxOf(cmd))
			}
			info := s.RemoteInfo()
			var hints []string
			if !info.Connected {
				hints = append(hints, "grocery remote connect <endpoint>")
			}
			return writeOut(cmd, app, info, hints...)
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "Probe the remote host before reporting online state")
	return cmd
}

func newRemoteDisconnectCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Forget the endpoint (the list keeps working locally)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := s.Disconnect(ctxOf(cmd)); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, s.RemoteInfo())
		},
	}
}
