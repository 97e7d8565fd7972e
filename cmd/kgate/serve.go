package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dennisklein/kgate/internal/config"
	mcptools "github.com/dennisklein/kgate/internal/mcp"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start a Model Context Protocol server exposing kubectl and argo as tools.

Available tools:
  - switch_context          Switch the active kubeconfig context
  - switch_namespace        Switch the default namespace of the active context
  - list_contexts           List kubeconfig contexts
  - list_namespaces         List namespaces of the active cluster
  - run_kubectl_command     Run any kubectl command
  - run_kubectl_command_ro  Run a read-only kubectl command
  - run_argo_command        Run an argo command in the active namespace

Examples:
  kgate serve                                # HTTP on ` + config.DefaultAddr + `
  kgate serve --stdio                        # stdio transport
  kgate serve --context kind-kind --metrics-addr :9090`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().String("http", config.DefaultAddr, "Address of the HTTP transport")
	cmd.Flags().Bool("stdio", false, "Serve over stdin/stdout instead of HTTP")
	cmd.Flags().String("metrics-addr", "", "Address of the Prometheus /metrics endpoint (disabled when empty)")
	addSessionFlags(cmd)

	return cmd
}

// addSessionFlags adds the flags shared by every command that talks to a cluster.
func addSessionFlags(cmd *cobra.Command) {
	cmd.Flags().String("context", "", "Context to switch to at startup")
	cmd.Flags().String("namespace", "", "Namespace to switch to at startup")
	cmd.Flags().String("kubeconfig", "", "Path to the kubeconfig (default $KUBECONFIG or ~/.kube/config)")
	cmd.Flags().Bool("auto-install", false, "Download kubectl and argo when they are neither on PATH nor cached")
	cmd.Flags().Duration("timeout", 0, "Kill forwarded commands after this duration (0 disables)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	a.applySession(ctx)

	if addr := a.cfg.Metrics.Addr; addr != "" {
		go serveMetrics(ctx, a.log, addr, a.registry)
	}

	srv := mcp.NewServer(mcp.ServerInfo{
		Name:    "kgate",
		Version: buildVersion(),
	})

	mcptools.RegisterAll(srv, a.gateway, a.session)

	state := a.session.State()

	if a.cfg.Server.Stdio {
		a.log.Info().Str("transport", "stdio").Str("context", state.Context).Str("namespace", state.Namespace).Msg("serving")

		return mcp.ServeStdio(ctx, srv)
	}

	a.log.Info().Str("transport", "http").Str("addr", a.cfg.Server.Addr).
		Str("context", state.Context).Str("namespace", state.Namespace).Msg("serving")

	return mcp.ServeHTTP(ctx, srv, a.cfg.Server.Addr)
}

func serveMetrics(ctx context.Context, log zerolog.Logger, addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("metrics server shutdown")
		}
	}()

	log.Info().Str("addr", addr).Msg("serving metrics")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(fmt.Errorf("metrics server: %w", err)).Send()
	}
}
