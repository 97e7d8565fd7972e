package tool

import (
	"context"
	"io"

	"github.com/spf13/afero"
)

// Config describes where a trusted tool's releases come from.
//
//nolint:govet // fieldalignment: readability preferred over optimization
type Config struct {
	Name        string
	VersionFunc func(context.Context) (string, error)
	DownloadURL func(version, goos, goarch string) string
	ChecksumURL func(version, goos, goarch string) string
	// AssetName is the file name listed in a checksum manifest. Nil when the
	// checksum URL serves a single hash.
	AssetName func(goos, goarch string) string
}

// trusted lists every tool the gateway may execute.
func trusted() []Config {
	return []Config{kubectlConfig(), argoConfig()}
}

func newTool(cfg Config, progress io.Writer, fs afero.Fs) *Tool {
	return &Tool{
		Name:           cfg.Name,
		ProgressWriter: progress,
		VersionFunc:    cfg.VersionFunc,
		DownloadURL:    cfg.DownloadURL,
		ChecksumURL:    cfg.ChecksumURL,
		AssetName:      cfg.AssetName,
		Fs:             fs,
	}
}

func kubectlConfig() Config {
	return Config{
		Name:        "kubectl",
		VersionFunc: kubectlVersion,
		DownloadURL: kubectlDownloadURL,
		ChecksumURL: kubectlChecksumURL,
	}
}

func argoConfig() Config {
	return Config{
		Name:        "argo",
		VersionFunc: argoVersion,
		DownloadURL: argoDownloadURL,
		ChecksumURL: argoChecksumURL,
		AssetName:   argoAssetName,
	}
}
