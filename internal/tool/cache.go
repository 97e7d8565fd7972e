package tool

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/afero"
)

// CachedVersion represents a cached version of a tool.
type CachedVersion struct {
	Version string
	Path    string
	Size    int64
}

// CachedVersions returns all cached versions of this tool, newest first.
func (t *Tool) CachedVersions() ([]CachedVersion, error) {
	fs := t.getFs()

	toolDir, err := t.toolDir()
	if err != nil {
		return nil, err
	}

	if !isDir(fs, toolDir) {
		return nil, nil
	}

	entries, err := afero.ReadDir(fs, toolDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read tool directory: %w", err)
	}

	versions := make([]CachedVersion, 0, len(entries))

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		binPath := filepath.Join(toolDir, entry.Name(), t.Name)

		info, err := fs.Stat(binPath)
		if err != nil || info.IsDir() {
			continue
		}

		versions = append(versions, CachedVersion{
			Version: entry.Name(),
			Path:    binPath,
			Size:    info.Size(),
		})
	}

	sort.Slice(versions, func(i, j int) bool {
		return compareVersions(versions[i].Version, versions[j].Version) > 0
	})

	return versions, nil
}

// compareVersions compares two semantic versions and returns >0, 0 or <0.
// Either side failing to parse falls back to string comparison.
func compareVersions(v1, v2 string) int {
	sv1, err1 := semver.NewVersion(v1)
	sv2, err2 := semver.NewVersion(v2)

	if err1 != nil || err2 != nil {
		return strings.Compare(v1, v2)
	}

	return sv1.Compare(sv2)
}

// Newest returns the path of the newest cached version, or "" when nothing is cached.
func (t *Tool) Newest() (string, error) {
	versions, err := t.CachedVersions()
	if err != nil || len(versions) == 0 {
		return "", err
	}

	return versions[0].Path, nil
}

// LatestVersion returns the latest available version from the upstream source.
func (t *Tool) LatestVersion(ctx context.Context) (string, error) {
	return t.VersionFunc(ctx)
}

// CleanVersion removes a specific cached version.
func (t *Tool) CleanVersion(version string) error {
	toolDir, err := t.toolDir()
	if err != nil {
		return err
	}

	return removeDir(t.getFs(), filepath.Join(toolDir, version))
}

// CleanAll removes all cached versions of this tool.
func (t *Tool) CleanAll() error {
	toolDir, err := t.toolDir()
	if err != nil {
		return err
	}

	return removeDir(t.getFs(), toolDir)
}

func removeDir(fs afero.Fs, dir string) error {
	if !isDir(fs, dir) {
		return nil
	}

	if err := fs.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove %s: %w", dir, err)
	}

	return nil
}

// Download fetches the latest version into the cache if it is not there yet.
func (t *Tool) Download(ctx context.Context) error {
	_, err := t.Ensure(ctx)
	return err
}
