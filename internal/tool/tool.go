package tool

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"
)

// Tool is a trusted CLI the gateway may run. When it is not on PATH it can be
// downloaded into the kgate cache.
//
//nolint:govet // fieldalignment: readability preferred over 8-byte optimization
type Tool struct {
	Name           string
	ProgressWriter io.Writer
	VersionFunc    func(context.Context) (string, error)
	DownloadURL    func(version, goos, goarch string) string
	ChecksumURL    func(version, goos, goarch string) string
	// AssetName selects the line of a multi-file checksum manifest. Nil means
	// the checksum file covers only the download.
	AssetName func(goos, goarch string) string
	Fs        afero.Fs // Filesystem abstraction for testing (defaults to OsFs)
}

// Ensure returns the path of the latest version of the tool, downloading it
// into the cache first when it is missing.
func (t *Tool) Ensure(ctx context.Context) (string, error) {
	version, err := t.VersionFunc(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get version: %w", err)
	}

	binPath, err := t.binPath(version)
	if err != nil {
		return "", err
	}

	if exists(t.getFs(), binPath) {
		return binPath, nil
	}

	if err := t.install(ctx, binPath, version); err != nil {
		return "", err
	}

	return binPath, nil
}

func (t *Tool) install(ctx context.Context, binPath, version string) error {
	if err := t.writeProgress("Downloading %s %s...\n", t.Name, version); err != nil {
		return fmt.Errorf("failed to write progress: %w", err)
	}

	if err := t.download(ctx, binPath, version); err != nil {
		return fmt.Errorf("failed to download: %w", err)
	}

	if err := t.getFs().Chmod(binPath, 0o755); err != nil {
		return fmt.Errorf("failed to make executable: %w", err)
	}

	if err := t.writeProgress("%s %s downloaded successfully\n", t.Name, version); err != nil {
		return fmt.Errorf("failed to write progress: %w", err)
	}

	return nil
}

// toolDir returns <data>/kgate/<tool>.
func (t *Tool) toolDir() (string, error) {
	return cacheRoot(t.getFs(), t.Name)
}

func (t *Tool) binPath(version string) (string, error) {
	dir, err := t.toolDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, version, t.Name), nil
}

func (t *Tool) writeProgress(format string, args ...any) error {
	return NewProgressWriter(t.ProgressWriter).WriteMessage(format, args...)
}

// getFs returns the filesystem to use, defaulting to OsFs if not set.
func (t *Tool) getFs() afero.Fs {
	if t.Fs == nil {
		return afero.NewOsFs()
	}

	return t.Fs
}
