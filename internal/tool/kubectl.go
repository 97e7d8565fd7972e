package tool

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const kubectlStableURL = "https://dl.k8s.io/release/stable.txt"

// NewKubectl creates a Tool configured for kubectl.
func NewKubectl(progress io.Writer) *Tool {
	return newTool(kubectlConfig(), progress, nil)
}

func kubectlVersion(ctx context.Context) (string, error) {
	return kubectlVersionWithClient(ctx, getRetryableClient().StandardClient(), kubectlStableURL)
}

// kubectlVersionWithClient fetches the stable kubectl version from url.
func kubectlVersionWithClient(ctx context.Context, client *http.Client, url string) (string, error) {
	data, err := fetchHTTPContent(ctx, client, url)
	if err != nil {
		return "", fmt.Errorf("failed to get stable kubectl version: %w", err)
	}

	return strings.TrimSpace(string(data)), nil
}

func kubectlDownloadURL(version, goos, goarch string) string {
	return fmt.Sprintf("https://dl.k8s.io/release/%s/bin/%s/%s/kubectl",
		version, goos, goarch)
}

func kubectlChecksumURL(version, goos, goarch string) string {
	return kubectlDownloadURL(version, goos, goarch) + ".sha256"
}
