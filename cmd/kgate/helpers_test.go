package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/dennisklein/kgate/internal/tool"
)

const dataHome = "/data"

// isolate points config, kubeconfig and tool lookups away from the host.
func isolate(t *testing.T) {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("KUBECONFIG", filepath.Join(dir, "kubeconfig"))

	for _, key := range []string{"KGATE_SESSION_CONTEXT", "KGATE_SESSION_NAMESPACE", "KGATE_POLICY_READ_VERBS"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

// memTools swaps the tool registry for one caching on an in-memory filesystem
// and makes PATH lookups fail.
func memTools(t *testing.T) afero.Fs {
	t.Helper()

	fs := afero.NewMemMapFs()
	t.Setenv("XDG_DATA_HOME", dataHome)

	origRegistry, origLookPath := newRegistry, lookPath

	newRegistry = func(progress io.Writer) *tool.Registry {
		return tool.NewRegistryWithFs(progress, fs)
	}
	lookPath = func(string) (string, error) {
		return "", errors.New("not found")
	}

	t.Cleanup(func() {
		newRegistry, lookPath = origRegistry, origLookPath
	})

	return fs
}

// seedCache writes fake binaries for versions of name into fs.
func seedCache(t *testing.T, fs afero.Fs, name string, versions ...string) {
	t.Helper()

	for _, v := range versions {
		binPath := filepath.Join(dataHome, "kgate", name, v, name)
		require.NoError(t, fs.MkdirAll(filepath.Dir(binPath), 0o755))
		require.NoError(t, afero.WriteFile(fs, binPath, []byte("fake binary "+v), 0o755))
	}
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	cmd := newRootCmd()

	var stdout, stderr bytes.Buffer

	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return stdout.String(), stderr.String(), err
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "kgate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}
