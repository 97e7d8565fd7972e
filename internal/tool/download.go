package tool

import (
	"compress/gzip"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/afero"
)

func (t *Tool) download(ctx context.Context, destPath, version string) (err error) {
	fs := t.getFs()

	url := t.DownloadURL(version, runtime.GOOS, runtime.GOARCH)
	checksumURL := t.ChecksumURL(version, runtime.GOOS, runtime.GOARCH)

	asset := ""
	if t.AssetName != nil {
		asset = t.AssetName(runtime.GOOS, runtime.GOARCH)
	}

	if err := fs.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	expectedChecksum, err := fetchChecksum(ctx, checksumURL, asset)
	if err != nil {
		return fmt.Errorf("failed to fetch checksum: %w", err)
	}

	client := getRetryableClient()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := client.StandardClient().Do(req)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	tmpFile := destPath + ".tmp"

	out, err := fs.Create(tmpFile)
	if err != nil {
		return err
	}

	defer func() {
		if removeErr := fs.Remove(tmpFile); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) && err == nil {
			err = removeErr
		}
	}()

	hasher := sha256.New()

	var reader io.Reader = resp.Body

	var progReader *ProgressReader

	if t.ProgressWriter != nil && resp.ContentLength > 0 {
		progReader = NewProgressReader(resp.Body, resp.ContentLength, t.ProgressWriter, t.Name)
		reader = progReader
	}

	if _, err := io.Copy(io.MultiWriter(out, hasher), reader); err != nil {
		_ = out.Close() //nolint:errcheck // close on error path

		return err
	}

	if progReader != nil {
		progReader.Finish()
	}

	if err := out.Close(); err != nil {
		return err
	}

	actualChecksum := fmt.Sprintf("%x", hasher.Sum(nil))
	if actualChecksum != expectedChecksum {
		return fmt.Errorf("checksum mismatch: expected %s, got %s", expectedChecksum, actualChecksum)
	}

	// the checksum covers the compressed asset
	if strings.HasSuffix(url, ".gz") {
		if err := gunzipFile(fs, tmpFile, destPath); err != nil {
			return fmt.Errorf("failed to decompress: %w", err)
		}

		return nil
	}

	return fs.Rename(tmpFile, destPath)
}

// fetchChecksum returns the sha256 from url. The file is either a bare hash,
// sha256sum output for a single file, or a manifest in which the line for
// asset is picked.
func fetchChecksum(ctx context.Context, url, asset string) (string, error) {
	client := getRetryableClient()

	data, err := fetchHTTPContent(ctx, client.StandardClient(), url)
	if err != nil {
		return "", err
	}

	return parseChecksum(string(data), asset)
}

func parseChecksum(content, asset string) (string, error) {
	lines := strings.Split(strings.TrimSpace(content), "\n")

	if asset == "" || len(lines) == 1 {
		if parts := strings.Fields(lines[0]); len(parts) > 0 {
			return parts[0], nil
		}

		return "", errors.New("empty checksum file")
	}

	for _, line := range lines {
		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}

		// sha256sum marks binary mode with a leading '*'
		name := strings.TrimPrefix(parts[len(parts)-1], "*")
		if filepath.Base(name) == asset {
			return parts[0], nil
		}
	}

	return "", fmt.Errorf("no checksum for %s", asset)
}

// gunzipFile decompresses archivePath into destPath and removes the archive.
// Output goes to a .part file first, so an interrupted stream never leaves a
// truncated binary where the cache looks for one.
func gunzipFile(fs afero.Fs, archivePath, destPath string) error {
	archiveFile, err := fs.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer archiveFile.Close() //nolint:errcheck // close on read-only file

	gzr, err := gzip.NewReader(archiveFile)
	if err != nil {
		return fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzr.Close() //nolint:errcheck // close on reader

	partPath := destPath + ".part"

	out, err := fs.Create(partPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if _, err := io.Copy(out, gzr); err != nil { //nolint:gosec // size bounded by the verified download
		_ = out.Close()         //nolint:errcheck // close on error path
		_ = fs.Remove(partPath) //nolint:errcheck // best effort cleanup

		return fmt.Errorf("failed to extract binary: %w", err)
	}

	if err := out.Close(); err != nil {
		_ = fs.Remove(partPath) //nolint:errcheck // best effort cleanup

		return err
	}

	if err := fs.Rename(partPath, destPath); err != nil {
		return fmt.Errorf("failed to move binary into place: %w", err)
	}

	return fs.Remove(archivePath)
}
