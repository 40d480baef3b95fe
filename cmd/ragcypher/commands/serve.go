package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/54b3r/ragcypher-go/internal/logging"
	"github.com/54b3r/ragcypher-go/internal/server"
	"github.com/54b3r/ragcypher-go/internal/tracing"
)

// NewServeCmd constructs the `ragcypher serve` command, which starts the
// HTTP API.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the ragcypher HTTP API",
		Long: `Start the ragcypher HTTP API on localhost.

Endpoints:
  POST /api/translate   {"query": "🤖, ..."} -> {"result": "...", "translated": true}
  GET  /api/health      liveness
  GET  /api/ready       readiness of the search backend and chat service
  GET  /metrics         Prometheus metrics

Set RAGCYPHER_API_KEY to require a Bearer token on /api/translate.

Examples:
  ragcypher serve
  ragcypher serve --port 9090
  SEARCH_BACKEND=qdrant MODEL_PROVIDER=ollama ragcypher serve`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			log.Info("serve starting", slog.String("provider", os.Getenv("MODEL_PROVIDER")))

			// Langfuse tracing is opt-in and a no-op if keys are absent.
			flush, ok := tracing.Install()
			defer flush()
			if ok {
				log.Info("langfuse tracing enabled")
			} else {
				log.Info("langfuse tracing disabled", slog.String("reason", "LANGFUSE_PUBLIC_KEY not set"))
			}

			tr, cfg, pingers, err := buildTranslator(ctx, log, "")
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			be, err := buildBackends(ctx, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer be.close()
			pingers = append([]server.Pinger{be.pinger}, pingers...)

			history, closeHistory := openHistory(log)
			defer closeHistory()

			srv, err := server.New(tr, be.searcher, &server.Config{
				Host:      host,
				Port:      port,
				Logger:    logging.Component(log, "server"),
				Pingers:   pingers,
				APIKey:    os.Getenv("RAGCYPHER_API_KEY"),
				History:   history,
				IndexName: cfg.IndexName,
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Host address to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "TCP port to listen on")

	return cmd
}
