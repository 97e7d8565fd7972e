package tool

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// DataDir returns the appropriate data directory following XDG Base Directory spec.
// Priority: XDG_DATA_HOME > ~/.local/share (if exists) > ~/.kgate (fallback).
func DataDir(fs afero.Fs) (string, error) {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return xdgData, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	xdgDefault := filepath.Join(homeDir, ".local", "share")
	if isDir(fs, xdgDefault) {
		return xdgDefault, nil
	}

	return filepath.Join(homeDir, ".kgate"), nil
}

// cacheRoot returns <data>/kgate/<name>, holding one directory per cached version.
func cacheRoot(fs afero.Fs, name string) (string, error) {
	dataDir, err := DataDir(fs)
	if err != nil {
		return "", fmt.Errorf("failed to determine data directory: %w", err)
	}

	return filepath.Join(dataDir, "kgate", name), nil
}

func exists(fs afero.Fs, path string) bool {
	info, err := fs.Stat(path)
	return err == nil && !info.IsDir()
}

func isDir(fs afero.Fs, path string) bool {
	info, err := fs.Stat(path)
	return err == nil && info.IsDir()
}
