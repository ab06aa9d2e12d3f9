package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/decomptree/internal/server"
	"github.com/matzehuels/decomptree/pkg/session"
)

// serveCommand creates the HTTP server command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		configPath  string
		hierarchy   string
		addr        string
		sessionsDir string
		noCache     bool
	)

	cmd := &cobra.Command{
		Use:   "serve [file.csv]",
		Short: "Serve the decomposition tree over HTTP",
		Long: `Serve starts an HTTP server for one CSV table. Stateless endpoints expose
the complete tree and its exports; session endpoints give each viewer an
independent expansion, sort, and reorder state.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("hierarchy") {
				cfg.Aggregation.Hierarchy = parseList(hierarchy)
			}

			runner, err := c.newRunner(cmd.Context(), cfg.Cache, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			var sessions session.Store = session.NewMemoryStore()
			if sessionsDir != "" {
				sessions, err = session.NewFileStore(sessionsDir)
				if err != nil {
					return err
				}
			}
			defer sessions.Close()

			srv := server.New(cfg, args[0], runner, sessions, c.Logger)
			httpSrv := &http.Server{
				Addr:              addr,
				Handler:           srv.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				c.Logger.Info("serving decomposition tree", "addr", addr, "csv", args[0])
				errCh <- httpSrv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				return err
			case <-cmd.Context().Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := httpSrv.Shutdown(shutdownCtx); err != nil {
					return err
				}
				if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return cmd.Context().Err()
			}
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "TOML config file")
	cmd.Flags().StringVar(&hierarchy, "hierarchy", "", "comma-separated hierarchy columns")
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&sessionsDir, "sessions-dir", "", "persist sessions to this directory (default in-memory)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the pipeline cache")
	return cmd
}
