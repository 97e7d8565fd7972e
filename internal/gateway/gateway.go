// Package gateway authorizes free-text kubectl and argo commands and forwards
// the permitted ones to the runner.
//
// The read-only policy is an advisory filter over the tokenized command. It
// keeps an assistant from mutating a cluster by accident; it is not a sandbox
// and does not replace RBAC on the credentials kgate runs with.
package gateway

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dennisklein/kgate/internal/failure"
	"github.com/dennisklein/kgate/internal/metrics"
	"github.com/dennisklein/kgate/internal/policy"
	"github.com/dennisklein/kgate/internal/runner"
	"github.com/dennisklein/kgate/internal/session"
	"github.com/dennisklein/kgate/internal/shell"
	"github.com/dennisklein/kgate/internal/util"
)

// Trusted tool tokens.
const (
	Kubectl = "kubectl"
	Argo    = "argo"
)

// Modes label the three entry points in logs and metrics.
const (
	ModePrivileged   = "privileged"
	ModeReadOnly     = "read_only"
	ModeOrchestrator = "orchestrator"
)

// ReadOnlyMessage is returned for every read-only policy rejection, whichever rule failed.
const ReadOnlyMessage = "Only read-only kubectl commands are allowed (get, describe, etc.)"

const logFieldMax = 256

// StateSource provides the session snapshot used for flag injection.
type StateSource interface {
	State() session.State
}

// Config holds the collaborators of a Gateway.
//
//nolint:govet // fieldalignment: readability preferred over optimization
type Config struct {
	Session StateSource
	Runner  runner.Runner
	// Rules is the kubectl read-only policy. Zero value means policy.DefaultKubectl.
	Rules   policy.Rules
	Log     zerolog.Logger
	Metrics *metrics.Metrics
}

// Gateway checks and forwards commands.
type Gateway struct {
	session StateSource
	runner  runner.Runner
	metrics *metrics.Metrics
	rules   policy.Rules
	log     zerolog.Logger
}

// New creates a Gateway.
func New(cfg Config) *Gateway {
	rules := cfg.Rules
	if len(rules.ReadVerbs) == 0 {
		rules = policy.DefaultKubectl()
	}

	return &Gateway{
		session: cfg.Session,
		runner:  cfg.Runner,
		rules:   rules,
		log:     cfg.Log.With().Str("component", "gateway").Logger(),
		metrics: cfg.Metrics,
	}
}

// Rules returns the read-only policy in effect.
func (g *Gateway) Rules() policy.Rules {
	return g.rules
}

// ExecutePrivileged runs any kubectl command against the active context.
func (g *Gateway) ExecutePrivileged(ctx context.Context, command string) (string, error) {
	return g.execute(ctx, ModePrivileged, Kubectl, command, func(argv []string, _ session.State) ([]string, error) {
		return argv, nil
	})
}

// ExecuteReadOnly runs a kubectl command only if the read-only policy allows it.
func (g *Gateway) ExecuteReadOnly(ctx context.Context, command string) (string, error) {
	return g.execute(ctx, ModeReadOnly, Kubectl, command, func(argv []string, _ session.State) ([]string, error) {
		if err := g.rules.CheckReadOnly(argv[1:]); err != nil {
			return nil, failure.Wrap(failure.KindPolicy, err, ReadOnlyMessage)
		}

		return argv, nil
	})
}

// ExecuteOrchestrator runs an argo command against the active context and namespace.
func (g *Gateway) ExecuteOrchestrator(ctx context.Context, command string) (string, error) {
	return g.execute(ctx, ModeOrchestrator, Argo, command, func(argv []string, state session.State) ([]string, error) {
		argv = withContext(argv, state)

		if state.Namespace != "" && !HasNamespace(argv) {
			argv = policy.InjectFlag(argv, "--namespace", state.Namespace)
		}

		return argv, nil
	})
}

// Authorize returns the argv ExecuteReadOnly would run for command, without running it.
func (g *Gateway) Authorize(command string) ([]string, error) {
	argv, err := tokenize(Kubectl, command)
	if err != nil {
		return nil, readOnlyFailure(err)
	}

	if err := g.rules.CheckReadOnly(argv[1:]); err != nil {
		return nil, failure.Wrap(failure.KindPolicy, err, ReadOnlyMessage)
	}

	return withContext(argv, g.state()), nil
}

// HasNamespace reports whether argv already selects namespaces, in any form.
func HasNamespace(argv []string) bool {
	return policy.HasFlag(argv, "--namespace", "-n", "--all-namespaces", "-A")
}

type authorizeFunc func(argv []string, state session.State) ([]string, error)

func (g *Gateway) execute(ctx context.Context, mode, tool, command string, authorize authorizeFunc) (string, error) {
	log := g.log.With().Str("mode", mode).Logger()

	argv, err := tokenize(tool, command)
	if err != nil {
		if mode == ModeReadOnly {
			err = readOnlyFailure(err)
		}

		return g.reject(log, tool, mode, command, err)
	}

	state := g.state()

	argv, err = authorize(argv, state)
	if err != nil {
		return g.reject(log, tool, mode, command, err)
	}

	// after authorize, so the read-only check never sees the injected context name
	argv = withContext(argv, state)

	start := time.Now()
	out, err := g.runner.Run(ctx, argv[0], argv[1:]...)
	elapsed := time.Since(start)

	if err != nil {
		ferr := execFailure(err)
		g.metrics.ObserveCommand(tool, mode, ferr.Kind.String(), elapsed)

		return "", ferr
	}

	g.metrics.ObserveCommand(tool, mode, "ok", elapsed)

	return out, nil
}

func (g *Gateway) reject(log zerolog.Logger, tool, mode, command string, err error) (string, error) {
	kind := failure.KindOf(err)

	log.Warn().Str("kind", kind.String()).Str("command", util.Truncate(command, logFieldMax)).Err(errors.Unwrap(err)).Msg("command rejected")
	g.metrics.ObserveCommand(tool, mode, kind.String(), 0)

	return "", err
}

func (g *Gateway) state() session.State {
	if g.session == nil {
		return session.State{}
	}

	return g.session.State()
}

func tokenize(tool, command string) ([]string, error) {
	if !strings.HasPrefix(command, tool+" ") {
		return nil, failure.New(failure.KindPrefix, "Command must start with '%s'", tool)
	}

	argv, err := shell.Argv(command)
	if err != nil {
		return nil, failure.Wrap(failure.KindPolicy, err, "Command rejected: %v", err)
	}

	return argv, nil
}

// readOnlyFailure hides which grammar rule rejected a read-only command
// behind ReadOnlyMessage. The parser error stays the cause for the log line.
func readOnlyFailure(err error) error {
	var ferr *failure.Error
	if !errors.As(err, &ferr) || ferr.Kind != failure.KindPolicy {
		return err
	}

	return failure.Wrap(failure.KindPolicy, ferr.Err, ReadOnlyMessage)
}

func withContext(argv []string, state session.State) []string {
	if state.Context == "" || policy.HasFlag(argv, "--context") {
		return argv
	}

	return policy.InjectFlag(argv, "--context", state.Context)
}

func execFailure(err error) *failure.Error {
	var exitErr *runner.ExitError
	if errors.As(err, &exitErr) {
		return failure.Wrap(failure.KindExec, err, "%s", exitErr.Stderr)
	}

	return failure.Wrap(failure.KindExec, err, "%v", err)
}
