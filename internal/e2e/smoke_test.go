package e2e

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmokeFlow(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)
	server := startFakeService(t)

	stdout, stderr, err := runFcast(t, binaryPath, home, server.URL, "version")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "dev")

	stdout, stderr, err = runFcast(t, binaryPath, home, server.URL,
		"login", "--name", "pat", "--password", "hunter2")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "Signed in as pat")

	stdout, stderr, err = runFcast(t, binaryPath, home, server.URL, "whoami")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "Signed in as pat")

	credPath := filepath.Join(home, ".fcast", "credentials.toml")
	_, err = os.Stat(credPath)
	require.NoError(t, err)

	stdout, stderr, err = runFcast(t, binaryPath, home, server.URL, "logout")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "Signed out.")

	_, err = os.Stat(credPath)
	assert.True(t, os.IsNotExist(err))

	_, _, err = runFcast(t, binaryPath, home, server.URL, "whoami")
	assert.Error(t, err)
}

func buildBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "fcast-e2e")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/fcast")
	cmd.Dir = repoRoot(t)

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "build fcast binary: %s", string(output))
	return binaryPath
}

func runFcast(t *testing.T, binaryPath, home, baseURL string, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(),
		"HOME="+home,
		"FCAST_API_BASE_URL="+baseURL,
	)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func repoRoot(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}

func startFakeService(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":{"tokens":{"access_token":"acc-1","refresh_token":"ref-1"},"user":{"id":"u-1","display_name":"pat","chips":1500}}}`))
	})
	mux.HandleFunc("GET /users/u-1", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer acc-1" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"success":false,"error":"invalid token"}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{"user":{"id":"u-1","display_name":"pat","chips":1500}}}`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}
