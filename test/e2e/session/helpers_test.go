//go:build e2e

package session_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/Rostanic20/Musify-Frontend/pkg/musifysdk"
	"github.com/Rostanic20/Musify-Frontend/pkg/slogx"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Common constants and helper functions for the session end-to-end tests.
 * The mock API runs from the musify image; tests drive it with the SDK.
 */

const (
	testImageName = "musify-mock-api-test:latest"

	seedUsername = "listener"
	seedPassword = "correct-horse"
	seedEmail    = seedUsername + "@musify.test"

	// accessTTL is short enough that tests can wait out a real expiry
	accessTTL = 2 * time.Second
)

// TestMain builds the Docker image once before all tests and cleans it up
// after all tests complete.
func TestMain(m *testing.M) {
	fmt.Fprintf(os.Stdout, "Building Musify Docker image...")

	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up Musify Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

func buildDockerImage() error {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/musify/Dockerfile",
		"../../../")
	cmd.Dir = "."
	cmd.Stdout = os.Stdout
	cmd.Stderr = nil

	return cmd.Run()
}

func cleanupDockerImage() {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "rmi", "-f", testImageName)
	_ = cmd.Run() // Ignore errors - image might not exist
}

// setupMockAPI starts the mock API with relaxed rate limits and returns its
// base URL. extraEnv overrides the defaults.
func setupMockAPI(t *testing.T, extraEnv map[string]string) string {
	t.Helper()
	ctx := context.Background()

	env := map[string]string{
		"MOCK_SEED_USER":      seedUsername + ":" + seedPassword,
		"MOCK_ACCESS_TTL":     accessTTL.String(),
		"MOCK_ROTATE_REFRESH": "true",
		"ENV":                 "test",
		"LOG_LEVEL":           "info",
		"LOG_FORMAT":          "json",
		// Tests make many rapid requests from one address
		"RATELIMIT_LOGIN_REQUESTS":   "1000",
		"RATELIMIT_LOGIN_BURST":      "1000",
		"RATELIMIT_DEFAULT_REQUESTS": "1000",
		"RATELIMIT_DEFAULT_BURST":    "1000",
	}
	for k, v := range extraEnv {
		env[k] = v
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        testImageName,
			ExposedPorts: []string{"8080/tcp"},
			Env:          env,
			WaitingFor: wait.ForHTTP("/health").
				WithPort("8080/tcp").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	mappedPort, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)
	host, err := container.Host(ctx)
	require.NoError(t, err)

	return fmt.Sprintf("http://%s:%s", host, mappedPort.Port())
}

// setupRedis starts a throwaway Redis and returns its address.
func setupRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	return endpoint
}

func newClient(baseURL string, store musifysdk.CredentialStore, opts ...musifysdk.Option) *musifysdk.SDKClient {
	opts = append([]musifysdk.Option{musifysdk.WithLogger(slogx.Discard())}, opts...)
	return musifysdk.NewSDKClient(baseURL, store, opts...)
}

// performLogin logs the seed user in and returns the stored session.
func performLogin(t *testing.T, client *musifysdk.SDKClient) musifysdk.Session {
	t.Helper()

	res, err := client.Login(t.Context(), musifysdk.LoginRequest{
		Identifier: seedUsername,
		Password:   seedPassword,
	})
	require.NoError(t, err, "Login should succeed")
	require.False(t, res.Requires2FA)
	require.NotEmpty(t, res.Session.AccessToken)
	require.NotEmpty(t, res.Session.RefreshToken)

	return res.Session
}

// scrape returns the mock API's Prometheus exposition.
func scrape(t *testing.T, baseURL string) string {
	t.Helper()

	resp, err := http.Get(baseURL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}
