//nolint:testpackage // internal functions require same package
package tool

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const (
	testHome    = "/home/testuser"
	testVersion = "v1.0.0"
)

// cacheDir is the kgate cache of tool under testHome without ~/.local/share.
func cacheDir(tool string) string {
	return filepath.Join(testHome, ".kgate", "kgate", tool)
}

// seedCache writes fake binaries for versions of tool into fs.
func seedCache(t *testing.T, fs afero.Fs, tool string, versions ...string) {
	t.Helper()

	for _, v := range versions {
		binPath := filepath.Join(cacheDir(tool), v, tool)
		require.NoError(t, fs.MkdirAll(filepath.Dir(binPath), 0o755))
		require.NoError(t, afero.WriteFile(fs, binPath, []byte("fake binary "+v), 0o755))
	}
}

// serveBytes starts a server answering every GET with body.
func serveBytes(t *testing.T, body []byte) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body) //nolint:errcheck // test helper
	}))
	t.Cleanup(server.Close)

	return server
}

func sha256Hex(data []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(data))
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()

	var buf bytes.Buffer

	gzw := gzip.NewWriter(&buf)
	_, err := gzw.Write(data)
	require.NoError(t, err)
	require.NoError(t, gzw.Close())

	return buf.Bytes()
}

// testTool returns a tool downloading content from a local server.
func testTool(t *testing.T, fs afero.Fs, name string, content []byte) *Tool {
	t.Helper()

	binary := serveBytes(t, content)
	checksum := serveBytes(t, []byte(sha256Hex(content)+"  "+name+"\n"))

	return &Tool{
		Name: name,
		Fs:   fs,
		VersionFunc: func(context.Context) (string, error) {
			return testVersion, nil
		},
		DownloadURL: func(_, _, _ string) string {
			return binary.URL
		},
		ChecksumURL: func(_, _, _ string) string {
			return checksum.URL
		},
	}
}

// errorFs is a test filesystem that can return errors for specific operations.
//
//nolint:govet // fieldalignment not critical for test helper
type errorFs struct {
	afero.Fs
	removeAllErr error
	chmodErr     error
	readDirErr   error
	mkdirAllErr  error
	createErr    error
	renameErr    error
}

func (e *errorFs) RemoveAll(path string) error {
	if e.removeAllErr != nil {
		return e.removeAllErr
	}

	return e.Fs.RemoveAll(path)
}

func (e *errorFs) Chmod(name string, mode os.FileMode) error {
	if e.chmodErr != nil {
		return e.chmodErr
	}

	return e.Fs.Chmod(name, mode)
}

func (e *errorFs) Open(name string) (afero.File, error) {
	f, err := e.Fs.Open(name)
	if err != nil {
		return nil, err
	}

	return &errorFile{File: f, readDirErr: e.readDirErr}, nil
}

func (e *errorFs) MkdirAll(path string, perm os.FileMode) error {
	if e.mkdirAllErr != nil {
		return e.mkdirAllErr
	}

	return e.Fs.MkdirAll(path, perm)
}

func (e *errorFs) Create(name string) (afero.File, error) {
	if e.createErr != nil {
		return nil, e.createErr
	}

	return e.Fs.Create(name)
}

func (e *errorFs) Rename(oldname, newname string) error {
	if e.renameErr != nil {
		return e.renameErr
	}

	return e.Fs.Rename(oldname, newname)
}

// errorFile wraps afero.File to return errors for Readdir.
type errorFile struct {
	afero.File
	readDirErr error
}

func (e *errorFile) Readdir(count int) ([]os.FileInfo, error) {
	if e.readDirErr != nil {
		return nil, e.readDirErr
	}

	return e.File.Readdir(count)
}

// setHome points HOME at testHome and clears XDG_DATA_HOME.
func setHome(t *testing.T) {
	t.Helper()

	t.Setenv("HOME", testHome)
	t.Setenv("XDG_DATA_HOME", "")
}
