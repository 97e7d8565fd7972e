package tool

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// ErrUntrusted is returned for binaries that are not in the registry.
var ErrUntrusted = errors.New("not a trusted tool")

// Resolver finds the binary for a trusted tool. It prefers PATH, then the
// newest cached download, and downloads the latest release when AutoInstall
// is set.
//
//nolint:govet // fieldalignment: readability preferred over optimization
type Resolver struct {
	Registry    *Registry
	AutoInstall bool
	// LookPath searches PATH. Nil means exec.LookPath.
	LookPath func(file string) (string, error)
}

// Resolve implements runner.Resolver.
func (r *Resolver) Resolve(ctx context.Context, name string) (string, error) {
	t := r.Registry.Get(name)
	if t == nil {
		return "", fmt.Errorf("%s: %w", name, ErrUntrusted)
	}

	lookPath := r.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	if path, err := lookPath(name); err == nil {
		return path, nil
	}

	cached, err := t.Newest()
	if err != nil {
		return "", err
	}

	if cached != "" {
		return cached, nil
	}

	if !r.AutoInstall {
		return "", fmt.Errorf("%s not found in PATH and not cached (enable tools.auto_install or run 'kgate tools update %s')", name, name)
	}

	return t.Ensure(ctx)
}
