package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	path string
	err  error
	got  []string
}

func (s *stubResolver) Resolve(_ context.Context, name string) (string, error) {
	s.got = append(s.got, name)
	return s.path, s.err
}

func TestExecRun(t *testing.T) {
	t.Run("returns stdout on success", func(t *testing.T) {
		r := &Exec{Log: zerolog.Nop()}

		out, err := r.Run(context.Background(), "sh", "-c", "printf 'NAME  READY\\nweb   1/1\\n'")
		require.NoError(t, err)
		assert.Equal(t, "NAME  READY\nweb   1/1\n", out)
	})

	t.Run("passes arguments without a shell", func(t *testing.T) {
		r := &Exec{Log: zerolog.Nop()}

		out, err := r.Run(context.Background(), "echo", "a b", "$HOME", ";")
		require.NoError(t, err)
		assert.Equal(t, "a b $HOME ;\n", out)
	})

	t.Run("returns exit error with stderr on failure", func(t *testing.T) {
		r := &Exec{Log: zerolog.Nop()}

		_, err := r.Run(context.Background(), "sh", "-c", "echo 'error: context not found' >&2; exit 3")
		require.Error(t, err)

		var exitErr *ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 3, exitErr.Code)
		assert.Equal(t, "error: context not found\n", exitErr.Stderr)
		assert.Equal(t, "sh", exitErr.Name)
		assert.Contains(t, exitErr.Error(), "exited with code 3")
	})

	t.Run("reports missing binary", func(t *testing.T) {
		r := &Exec{Log: zerolog.Nop()}

		_, err := r.Run(context.Background(), "kgate-definitely-not-installed")
		require.Error(t, err)

		var exitErr *ExitError
		assert.False(t, errors.As(err, &exitErr))
		assert.Contains(t, err.Error(), "failed to run")
	})

	t.Run("uses resolver", func(t *testing.T) {
		res := &stubResolver{path: "echo"}
		r := &Exec{Log: zerolog.Nop(), Resolver: res}

		out, err := r.Run(context.Background(), "kubectl", "version")
		require.NoError(t, err)
		assert.Equal(t, "version\n", out)
		assert.Equal(t, []string{"kubectl"}, res.got)
	})

	t.Run("propagates resolver failure", func(t *testing.T) {
		r := &Exec{Log: zerolog.Nop(), Resolver: &stubResolver{err: errors.New("not cached")}}

		_, err := r.Run(context.Background(), "argo", "list")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to resolve argo")
	})

	t.Run("enforces timeout", func(t *testing.T) {
		r := &Exec{Log: zerolog.Nop(), Timeout: 50 * time.Millisecond}

		start := time.Now()
		_, err := r.Run(context.Background(), "sleep", "5")
		require.Error(t, err)
		assert.Less(t, time.Since(start), 4*time.Second)
	})
}
