package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"projectdesk/internal/config"
	"projectdesk/internal/db"
	"projectdesk/internal/engine"
	"projectdesk/internal/logging"
	"projectdesk/internal/migrate"
	"projectdesk/internal/server"
)

func serveCmd() *cobra.Command {
	var addr, dbFile string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the development REST backend backed by SQLite",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws := viper.GetString("workspace")
			cfg, err := config.LoadOptional(ws)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if lvl := viper.GetString("log-level"); lvl != "" {
				cfg.Log.Level = lvl
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			log, err := logging.New(cfg.Log, "server")
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			conn, err := db.Open(db.Config{Workspace: ws, File: dbFile})
			if err != nil {
				return err
			}
			defer conn.Close()
			version, err := migrate.Migrate(ctx, conn)
			if err != nil {
				return err
			}

			handler, err := server.New(server.Config{
				Engine:   engine.New(conn, log),
				BasePath: cfg.Server.BasePath,
				Log:      log,
			})
			if err != nil {
				return err
			}
			srv := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           handler,
				ReadHeaderTimeout: 5 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()
			log.WithFields(logrus.Fields{
				"addr":      cfg.Server.Addr,
				"base_path": cfg.Server.BasePath,
				"db":        db.Path(db.Config{Workspace: ws, File: dbFile}),
				"schema":    version,
			}).Info("backend listening")

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}
			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().StringVar(&dbFile, "db", "", "SQLite file (default <workspace>/.projectdesk/backend.db)")
	return cmd
}
