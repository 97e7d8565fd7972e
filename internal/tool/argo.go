package tool

import (
	"context"
	"fmt"
	"io"

	"github.com/google/go-github/v58/github"
)

const (
	argoOwner = "argoproj"
	argoRepo  = "argo-workflows"
)

// NewArgo creates a Tool configured for the Argo Workflows CLI.
func NewArgo(progress io.Writer) *Tool {
	return newTool(argoConfig(), progress, nil)
}

func argoVersion(ctx context.Context) (string, error) {
	return argoVersionWithClient(ctx, github.NewClient(getRetryableClient().StandardClient()))
}

func argoVersionWithClient(ctx context.Context, client *github.Client) (string, error) {
	release, _, err := client.Repositories.GetLatestRelease(ctx, argoOwner, argoRepo)
	if err != nil {
		return "", fmt.Errorf("failed to get latest argo release: %w", err)
	}

	return release.GetTagName(), nil
}

func argoAssetName(goos, goarch string) string {
	return fmt.Sprintf("argo-%s-%s.gz", goos, goarch)
}

func argoDownloadURL(version, goos, goarch string) string {
	return fmt.Sprintf("https://github.com/%s/%s/releases/download/%s/%s",
		argoOwner, argoRepo, version, argoAssetName(goos, goarch))
}

// argoChecksumURL points at the release's sha256 manifest covering all CLI assets.
func argoChecksumURL(version, _, _ string) string {
	return fmt.Sprintf("https://github.com/%s/%s/releases/download/%s/argo-workflows-cli-checksums.txt",
		argoOwner, argoRepo, version)
}
