package session

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/fake"
	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"

	"github.com/dennisklein/kgate/internal/failure"
	"github.com/dennisklein/kgate/internal/metrics"
	"github.com/dennisklein/kgate/internal/runner"
	"github.com/dennisklein/kgate/internal/testutil"
)

type factorySpy struct {
	err      error
	contexts []string
	mu       sync.Mutex
}

func (f *factorySpy) build(contextName string) (kubernetes.Interface, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.contexts = append(f.contexts, contextName)

	if f.err != nil {
		return nil, f.err
	}

	return fake.NewSimpleClientset(
		&corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: "kube-system"}},
		&corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: "default"}},
		&corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: "argo"}},
	), nil
}

func newTestManager(spy *testutil.SpyRunner, factory *factorySpy) *Manager {
	if factory == nil {
		factory = &factorySpy{}
	}

	return NewManager(Config{
		Runner:  spy,
		Clients: factory.build,
		Log:     zerolog.Nop(),
	})
}

func failWith(stderr string) func(string, []string) error {
	return func(name string, _ []string) error {
		return &runner.ExitError{Name: name, Code: 1, Stderr: stderr}
	}
}

func TestSwitchContext(t *testing.T) {
	t.Run("updates state and rebuilds clients", func(t *testing.T) {
		spy := &testutil.SpyRunner{}
		factory := &factorySpy{}
		m := newTestManager(spy, factory)

		msg, err := m.SwitchContext(context.Background(), "k3d-dev")
		require.NoError(t, err)

		assert.Equal(t, "Switched to context: k3d-dev", msg)
		assert.Equal(t, State{Context: "k3d-dev"}, m.State())
		assert.Equal(t, []testutil.Call{{Name: "kubectl", Args: []string{"config", "use-context", "k3d-dev"}}}, spy.Calls())
		assert.Equal(t, []string{"k3d-dev"}, factory.contexts)
	})

	t.Run("failed command leaves state unchanged", func(t *testing.T) {
		spy := &testutil.SpyRunner{}
		m := newTestManager(spy, nil)

		_, err := m.SwitchContext(context.Background(), "prod")
		require.NoError(t, err)

		before := m.State()

		spy.Err = failWith("error: no context exists with the name: \"nope\"\n")

		_, err = m.SwitchContext(context.Background(), "nope")
		require.Error(t, err)

		assert.True(t, failure.Is(err, failure.KindExec))
		assert.Equal(t, `kubectl context switch failed: error: no context exists with the name: "nope"`, err.Error())
		assert.Equal(t, before, m.State())
	})

	t.Run("client rebuild failure leaves state unchanged", func(t *testing.T) {
		spy := &testutil.SpyRunner{}
		factory := &factorySpy{err: errors.New("no such cluster")}
		m := newTestManager(spy, factory)

		_, err := m.SwitchContext(context.Background(), "broken")
		require.Error(t, err)

		assert.True(t, failure.Is(err, failure.KindInternal))
		assert.Equal(t, State{}, m.State())
	})

	t.Run("rejects invalid names without running kubectl", func(t *testing.T) {
		for _, name := range []string{"", "--kubeconfig=/tmp/x", "a b", "dev\n"} {
			spy := &testutil.SpyRunner{}
			m := newTestManager(spy, nil)

			_, err := m.SwitchContext(context.Background(), name)
			require.Error(t, err, name)
			assert.True(t, failure.Is(err, failure.KindInvalid), name)
			assert.Empty(t, spy.Calls(), name)
		}
	})

	t.Run("records metrics", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		mt := metrics.New(reg)
		spy := &testutil.SpyRunner{}
		m := NewManager(Config{Runner: spy, Clients: (&factorySpy{}).build, Log: zerolog.Nop(), Metrics: mt})

		_, err := m.SwitchContext(context.Background(), "dev")
		require.NoError(t, err)

		spy.Err = failWith("boom")
		_, err = m.SwitchContext(context.Background(), "bad")
		require.Error(t, err)

		count, err := promtest.GatherAndCount(reg, "kgate_session_switches_total")
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})
}

func TestSwitchNamespace(t *testing.T) {
	t.Run("targets current context when none is active", func(t *testing.T) {
		spy := &testutil.SpyRunner{}
		m := newTestManager(spy, nil)

		msg, err := m.SwitchNamespace(context.Background(), "argo")
		require.NoError(t, err)

		assert.Equal(t, "Switched to namespace: argo", msg)
		assert.Equal(t, State{Namespace: "argo"}, m.State())
		assert.Equal(t, []string{"config", "set-context", "--current", "--namespace", "argo"}, spy.Calls()[0].Args)
	})

	t.Run("targets the active context", func(t *testing.T) {
		spy := &testutil.SpyRunner{}
		m := newTestManager(spy, nil)

		_, err := m.SwitchContext(context.Background(), "dev")
		require.NoError(t, err)

		_, err = m.SwitchNamespace(context.Background(), "tools")
		require.NoError(t, err)

		calls := spy.Calls()
		require.Len(t, calls, 2)
		assert.Equal(t, []string{"config", "set-context", "dev", "--namespace", "tools"}, calls[1].Args)
		assert.Equal(t, State{Context: "dev", Namespace: "tools"}, m.State())
	})

	t.Run("failure leaves state unchanged", func(t *testing.T) {
		spy := &testutil.SpyRunner{}
		m := newTestManager(spy, nil)

		_, err := m.SwitchNamespace(context.Background(), "default")
		require.NoError(t, err)

		spy.Err = failWith("error: current-context is not set")

		_, err = m.SwitchNamespace(context.Background(), "other")
		require.Error(t, err)

		assert.True(t, failure.Is(err, failure.KindExec))
		assert.Contains(t, err.Error(), "current-context is not set")
		assert.Equal(t, State{Namespace: "default"}, m.State())
	})

	t.Run("non exit errors are exec failures", func(t *testing.T) {
		spy := &testutil.SpyRunner{Err: func(string, []string) error { return errors.New("executable file not found") }}
		m := newTestManager(spy, nil)

		_, err := m.SwitchNamespace(context.Background(), "default")
		require.Error(t, err)
		assert.True(t, failure.Is(err, failure.KindExec))
		assert.Contains(t, err.Error(), "executable file not found")
	})
}

func TestConcurrentSwitches(t *testing.T) {
	spy := &testutil.SpyRunner{}
	m := newTestManager(spy, nil)

	names := []string{"a", "b", "c", "d", "e", "f", "g", "h"}

	var wg sync.WaitGroup

	for _, name := range names {
		wg.Add(2)

		go func() {
			defer wg.Done()

			_, _ = m.SwitchContext(context.Background(), name)
		}()

		go func() {
			defer wg.Done()

			_ = m.State()
		}()
	}

	wg.Wait()

	assert.Len(t, spy.Calls(), len(names))
	assert.Contains(t, names, m.State().Context)
}

func TestClients(t *testing.T) {
	factory := &factorySpy{}
	m := newTestManager(&testutil.SpyRunner{}, factory)

	first, err := m.Clients(context.Background())
	require.NoError(t, err)

	second, err := m.Clients(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, []string{""}, factory.contexts)
}

func TestNamespaces(t *testing.T) {
	m := newTestManager(&testutil.SpyRunner{}, nil)

	names, err := m.Namespaces(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"argo", "default", "kube-system"}, names)
}

func TestContexts(t *testing.T) {
	kubeconfig := clientcmdapi.NewConfig()
	kubeconfig.CurrentContext = "kind-kind"
	kubeconfig.Contexts["kind-kind"] = &clientcmdapi.Context{Cluster: "kind", AuthInfo: "kind-admin"}
	kubeconfig.Contexts["prod"] = &clientcmdapi.Context{Cluster: "prod", AuthInfo: "ops", Namespace: "apps"}
	kubeconfig.Contexts["dev"] = &clientcmdapi.Context{Cluster: "dev", AuthInfo: "me"}

	path := filepath.Join(t.TempDir(), "config")
	require.NoError(t, clientcmd.WriteToFile(*kubeconfig, path))

	spy := &testutil.SpyRunner{}
	m := NewManager(Config{
		Runner:     spy,
		Clients:    (&factorySpy{}).build,
		Kubeconfig: NewKubeconfigLoader(path),
		Log:        zerolog.Nop(),
	})

	_, err := m.SwitchContext(context.Background(), "prod")
	require.NoError(t, err)

	contexts, err := m.Contexts()
	require.NoError(t, err)

	assert.Equal(t, []ContextInfo{
		{Name: "dev", Cluster: "dev", User: "me"},
		{Name: "kind-kind", Cluster: "kind", User: "kind-admin", Current: true},
		{Name: "prod", Cluster: "prod", User: "ops", Namespace: "apps", Active: true},
	}, contexts)
}

func TestContextsLoadError(t *testing.T) {
	m := NewManager(Config{
		Runner:     &testutil.SpyRunner{},
		Kubeconfig: func() (*clientcmdapi.Config, error) { return nil, errors.New("bad kubeconfig") },
		Log:        zerolog.Nop(),
	})

	_, err := m.Contexts()
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.KindInternal))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, `context="dev" namespace=""`, State{Context: "dev"}.String())
}
