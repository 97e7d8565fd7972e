// Package session tracks the cluster context and namespace the gateway targets.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/rs/zerolog"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/dennisklein/kgate/internal/failure"
	"github.com/dennisklein/kgate/internal/metrics"
	"github.com/dennisklein/kgate/internal/runner"
)

// State is the context and namespace selected by the last successful switches.
// Empty fields mean nothing was selected.
type State struct {
	Context   string `json:"context"`
	Namespace string `json:"namespace"`
}

// Config holds the collaborators of a Manager.
//
//nolint:govet // fieldalignment: readability preferred over optimization
type Config struct {
	// Runner executes kubectl. Required.
	Runner runner.Runner

	// Clients builds API handles. Nil uses the default kubeconfig locations.
	Clients ClientFactory

	// Kubeconfig loads the merged kubeconfig. Nil uses the default kubeconfig locations.
	Kubeconfig KubeconfigLoader

	Log     zerolog.Logger
	Metrics *metrics.Metrics

	// Kubectl is the tool name passed to Runner. Empty means "kubectl".
	Kubectl string
}

// Manager owns the session state. Switches are serialized; readers get a
// consistent snapshot.
type Manager struct {
	clients    ClientFactory
	kubeconfig KubeconfigLoader
	runner     runner.Runner
	metrics    *metrics.Metrics
	clientset  kubernetes.Interface
	kubectl    string
	state      State
	log        zerolog.Logger
	mu         sync.RWMutex
}

// NewManager creates a Manager with empty state.
func NewManager(cfg Config) *Manager {
	m := &Manager{
		runner:     cfg.Runner,
		clients:    cfg.Clients,
		kubeconfig: cfg.Kubeconfig,
		log:        cfg.Log.With().Str("component", "session").Logger(),
		metrics:    cfg.Metrics,
		kubectl:    cfg.Kubectl,
	}

	if m.clients == nil {
		m.clients = NewClientFactory("")
	}

	if m.kubeconfig == nil {
		m.kubeconfig = NewKubeconfigLoader("")
	}

	if m.kubectl == "" {
		m.kubectl = "kubectl"
	}

	return m
}

// State returns a snapshot of the current state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.state
}

// SwitchContext selects the kubeconfig context name and rebinds the API handles to it.
// On any failure the state is left unchanged.
func (m *Manager) SwitchContext(ctx context.Context, name string) (string, error) {
	if err := validateName("context", name); err != nil {
		m.metrics.ObserveSwitch("context", failure.KindOf(err).String())
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.runner.Run(ctx, m.kubectl, "config", "use-context", name); err != nil {
		ferr := execFailure("context", err)
		m.log.Warn().Err(err).Str("context", name).Msg("context switch failed")
		m.metrics.ObserveSwitch("context", ferr.Kind.String())

		return "", ferr
	}

	clientset, err := m.clients(name)
	if err != nil {
		m.log.Error().Err(err).Str("context", name).Msg("failed to rebuild clients")
		m.metrics.ObserveSwitch("context", failure.KindInternal.String())

		return "", failure.Wrap(failure.KindInternal, err, "failed to create clients for context %s: %v", name, err)
	}

	m.clientset = clientset
	m.state.Context = name

	m.log.Info().Str("context", name).Msg("switched context")
	m.metrics.ObserveSwitch("context", "ok")

	return "Switched to context: " + name, nil
}

// SwitchNamespace sets the namespace of the active context, or of the
// kubeconfig's current context when none is active.
func (m *Manager) SwitchNamespace(ctx context.Context, name string) (string, error) {
	if err := validateName("namespace", name); err != nil {
		m.metrics.ObserveSwitch("namespace", failure.KindOf(err).String())
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	target := "--current"
	if m.state.Context != "" {
		target = m.state.Context
	}

	if _, err := m.runner.Run(ctx, m.kubectl, "config", "set-context", target, "--namespace", name); err != nil {
		ferr := execFailure("namespace", err)
		m.log.Warn().Err(err).Str("namespace", name).Msg("namespace switch failed")
		m.metrics.ObserveSwitch("namespace", ferr.Kind.String())

		return "", ferr
	}

	m.state.Namespace = name

	m.log.Info().Str("context", m.state.Context).Str("namespace", name).Msg("switched namespace")
	m.metrics.ObserveSwitch("namespace", "ok")

	return "Switched to namespace: " + name, nil
}

// Clients returns the API handles for the active context, building them on first use.
func (m *Manager) Clients(_ context.Context) (kubernetes.Interface, error) {
	m.mu.RLock()
	clientset := m.clientset
	m.mu.RUnlock()

	if clientset != nil {
		return clientset, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.clientset != nil {
		return m.clientset, nil
	}

	clientset, err := m.clients(m.state.Context)
	if err != nil {
		return nil, failure.Wrap(failure.KindInternal, err, "failed to create clients: %v", err)
	}

	m.clientset = clientset

	return clientset, nil
}

// Contexts lists the kubeconfig contexts sorted by name.
func (m *Manager) Contexts() ([]ContextInfo, error) {
	cfg, err := m.kubeconfig()
	if err != nil {
		return nil, failure.Wrap(failure.KindInternal, err, "%v", err)
	}

	return listContexts(cfg, m.State().Context), nil
}

// Namespaces lists the namespace names of the active context's cluster.
func (m *Manager) Namespaces(ctx context.Context) ([]string, error) {
	clientset, err := m.Clients(ctx)
	if err != nil {
		return nil, err
	}

	list, err := clientset.CoreV1().Namespaces().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, failure.Wrap(failure.KindExec, err, "failed to list namespaces: %v", err)
	}

	names := make([]string, 0, len(list.Items))
	for i := range list.Items {
		names = append(names, list.Items[i].Name)
	}

	sort.Strings(names)

	return names, nil
}

func validateName(kind, name string) error {
	switch {
	case name == "":
		return failure.New(failure.KindInvalid, "%s name must not be empty", kind)
	case strings.HasPrefix(name, "-"):
		return failure.New(failure.KindInvalid, "%s name must not start with '-': %s", kind, name)
	case strings.IndexFunc(name, unicode.IsSpace) >= 0:
		return failure.New(failure.KindInvalid, "%s name must not contain whitespace: %q", kind, name)
	}

	return nil
}

func execFailure(kind string, err error) *failure.Error {
	var exitErr *runner.ExitError
	if errors.As(err, &exitErr) {
		return failure.Wrap(failure.KindExec, err, "kubectl %s switch failed: %s", kind, strings.TrimSpace(exitErr.Stderr))
	}

	return failure.Wrap(failure.KindExec, err, "kubectl %s switch failed: %v", kind, err)
}

// String implements fmt.Stringer.
func (s State) String() string {
	return fmt.Sprintf("context=%q namespace=%q", s.Context, s.Namespace)
}
