package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/dennisklein/kgate/internal/config"
	"github.com/dennisklein/kgate/internal/gateway"
	"github.com/dennisklein/kgate/internal/logging"
	"github.com/dennisklein/kgate/internal/metrics"
	"github.com/dennisklein/kgate/internal/runner"
	"github.com/dennisklein/kgate/internal/session"
	"github.com/dennisklein/kgate/internal/tool"
)

// app is the wired gateway shared by the serve, run and check commands.
//
//nolint:govet // fieldalignment: readability preferred over optimization
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	registry *prometheus.Registry
	runner   runner.Runner
	session  *session.Manager
	gateway  *gateway.Gateway
}

// newRegistry is replaced in tests to keep the tool cache off the real disk.
var newRegistry = tool.NewRegistry

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := ""
	if f := cmd.Flags().Lookup("config"); f != nil {
		path = f.Value.String()
	}

	return config.Load(afero.NewOsFs(), path, cmd.Flags())
}

// newApp loads the configuration and wires the components. Tool progress and
// logs go to stderr because stdout may carry the stdio transport.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	log, err := logging.New(logging.Config{
		Level:      cfg.Log.Level,
		JSON:       cfg.Log.JSON,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Console:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, err
	}

	// kubectl, argo and client-go must agree on the kubeconfig
	if cfg.Session.Kubeconfig != "" {
		if err := os.Setenv("KUBECONFIG", cfg.Session.Kubeconfig); err != nil {
			return nil, fmt.Errorf("failed to set KUBECONFIG: %w", err)
		}
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	exec := &runner.Exec{
		Resolver: &tool.Resolver{
			Registry:    newRegistry(cmd.ErrOrStderr()),
			AutoInstall: cfg.Tools.AutoInstall,
		},
		Log:     log,
		Timeout: cfg.Exec.Timeout,
	}

	sess := session.NewManager(session.Config{
		Runner:     exec,
		Clients:    session.NewClientFactory(cfg.Session.Kubeconfig),
		Kubeconfig: session.NewKubeconfigLoader(cfg.Session.Kubeconfig),
		Log:        log,
		Metrics:    m,
	})

	gw := gateway.New(gateway.Config{
		Session: sess,
		Runner:  exec,
		Rules:   cfg.KubectlRules(),
		Log:     log,
		Metrics: m,
	})

	return &app{
		cfg:      cfg,
		log:      log,
		registry: reg,
		runner:   exec,
		session:  sess,
		gateway:  gw,
	}, nil
}

// applySession switches to the configured context and namespace. Failures
// are logged; the gateway stays usable without them.
func (a *app) applySession(ctx context.Context) {
	if name := a.cfg.Session.Context; name != "" {
		if _, err := a.session.SwitchContext(ctx, name); err != nil {
			a.log.Warn().Err(err).Str("context", name).Msg("failed to apply initial context")
		}
	}

	if name := a.cfg.Session.Namespace; name != "" {
		if _, err := a.session.SwitchNamespace(ctx, name); err != nil {
			a.log.Warn().Err(err).Str("namespace", name).Msg("failed to apply initial namespace")
		}
	}
}
