// Package runner starts external tool processes and captures their output.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog"

	"github.com/dennisklein/kgate/internal/util"
)

// Runner runs a tool to completion and returns its standard output.
// A non-zero exit is reported as an *ExitError.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// Resolver maps a tool name to the binary that should be executed.
type Resolver interface {
	Resolve(ctx context.Context, name string) (string, error)
}

// ExitError is returned when a process exits with a non-zero code.
type ExitError struct {
	Name   string
	Stderr string
	Code   int
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with code %d: %s", e.Name, e.Code, strings.TrimSpace(e.Stderr))
}

// Exec runs processes directly, without a shell.
//
//nolint:govet // fieldalignment: readability preferred over optimization
type Exec struct {
	Resolver Resolver
	Log      zerolog.Logger
	// Timeout bounds every process. Zero means no limit beyond the caller's context.
	Timeout time.Duration
}

// Run implements Runner.
func (e *Exec) Run(ctx context.Context, name string, args ...string) (string, error) {
	log := e.Log.With().Str("req", uuid.NewString()).Str("tool", name).Logger()

	bin := name

	if e.Resolver != nil {
		resolved, err := e.Resolver.Resolve(ctx, name)
		if err != nil {
			return "", fmt.Errorf("failed to resolve %s: %w", name, err)
		}

		bin = resolved
	}

	if e.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Info().Str("cmd", shellquote.Join(append([]string{name}, args...)...)).Msg("running")

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			log.Warn().Int("exitCode", exitErr.ExitCode()).Dur("elapsed", elapsed).Str("stderr", util.Truncate(stderr.String(), 512)).Msg("command failed")

			return stdout.String(), &ExitError{Name: name, Code: exitErr.ExitCode(), Stderr: stderr.String()}
		}

		log.Error().Err(err).Dur("elapsed", elapsed).Msg("command did not run")

		return "", fmt.Errorf("failed to run %s: %w", name, err)
	}

	log.Debug().Dur("elapsed", elapsed).Str("stdout", util.FormatBytes(int64(stdout.Len()))).Msg("command succeeded")

	return stdout.String(), nil
}
