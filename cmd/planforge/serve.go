// CLAUDE:SUMMARY serve subcommand: assemble and run the HTTP intake service from env configuration.
package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/electrovision/planforge/analyze"
	"github.com/electrovision/planforge/dbopen"
	"github.com/electrovision/planforge/observability"
	"github.com/electrovision/planforge/router"
	"github.com/electrovision/planforge/server"
)

func serveCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP plan intake and analysis service",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Local .env is optional; real deployments set the environment
			// directly.
			_ = godotenv.Load()

			if listen == "" {
				listen = env("PLANFORGE_LISTEN", ":5000")
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			rt := router.New(router.Config{
				BaseDir: env("PLANFORGE_SOURCE_DIR", "source_files"),
			})
			an := analyze.New(analyze.Config{
				Interpreter: env("PLANFORGE_PYTHON", "python3"),
				ScriptDir:   env("PLANFORGE_SCRIPT_DIR", "python"),
				Timeout:     30 * time.Second,
			})

			var opts []server.Option
			if dbPath := env("PLANFORGE_DB", ""); dbPath != "" {
				db, err := dbopen.Open(dbPath, dbopen.WithMkdirAll(), dbopen.WithSchema(observability.Schema))
				if err != nil {
					slog.Warn("run history unavailable", "db", dbPath, "error", err)
				} else {
					defer db.Close()
					opts = append(opts, server.WithRecorder(observability.NewRecorder(db)))
				}
			}

			srv := server.New(server.Config{
				Listen:    listen,
				UploadDir: env("PLANFORGE_UPLOAD_DIR", "uploads"),
			}, rt, an, opts...)

			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default: PLANFORGE_LISTEN or :5000)")
	return cmd
}
