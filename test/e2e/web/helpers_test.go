package web_test

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/aussiebroadwan/launchpad/pkg/authsdk"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Container setup and shared assertions for the web service end-to-end
 * tests. The image is built once per run from cmd/web/Dockerfile.
 */

const (
	testImageName = "launchpad-web-test:latest"
	testJWTSecret = "e2e-test-secret-0123456789abcdef0123456789"
	testPassword  = "correct-horse-battery"
)

// TestMain builds the Docker image once before all tests and removes it
// afterwards. Nothing runs under -short.
func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		fmt.Fprintln(os.Stdout, "skipping web e2e tests in short mode")
		os.Exit(0)
	}

	fmt.Fprintf(os.Stdout, "Building Web Service Docker image...")
	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up Web Service Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

func buildDockerImage() error {
	cmd := exec.CommandContext(context.Background(), "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/web/Dockerfile",
		"../../../")
	cmd.Stdout = os.Stdout
	cmd.Stderr = nil

	return cmd.Run()
}

func cleanupDockerImage() {
	cmd := exec.CommandContext(context.Background(), "docker", "rmi", "-f", testImageName)
	_ = cmd.Run() // image might not exist
}

func baseEnv() map[string]string {
	return map[string]string{
		"JWT_SECRET": testJWTSecret,
		"ENV":        "test",
		"LOG_LEVEL":  "info",
		"LOG_FORMAT": "json",
		"APP_URL":    "http://localhost:3000",
	}
}

// setupWebContainer starts the service with relaxed rate limits, since
// tests make many rapid requests from one address.
func setupWebContainer(t *testing.T) string {
	t.Helper()

	env := baseEnv()
	env["RATELIMIT_STRICT_REQUESTS"] = "1000"
	env["RATELIMIT_STRICT_WINDOW_SEC"] = "60"
	env["RATELIMIT_STRICT_BURST"] = "1000"
	env["RATELIMIT_MODERATE_REQUESTS"] = "1000"
	env["RATELIMIT_MODERATE_BURST"] = "1000"

	return startContainer(t, env)
}

// setupWebContainerWithDefaultRateLimits keeps production limits, for the
// tests that check limiting itself.
func setupWebContainerWithDefaultRateLimits(t *testing.T) string {
	t.Helper()
	return startContainer(t, baseEnv())
}

func startContainer(t *testing.T, env map[string]string) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        testImageName,
		ExposedPorts: []string{"3000/tcp"},
		Env:          env,
		WaitingFor: wait.ForHTTP("/livez").
			WithPort("3000/tcp").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	mappedPort, err := container.MappedPort(ctx, "3000")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	return fmt.Sprintf("http://%s:%s", host, mappedPort.Port())
}

// signUp registers email and returns a client holding its session.
func signUp(t *testing.T, baseURL, email string) (*authsdk.SDKClient, *authsdk.User) {
	t.Helper()

	client := authsdk.NewSDKClient(baseURL)
	user, err := client.SignUp(t.Context(), authsdk.SignUpRequest{Email: email, Password: testPassword})
	require.NoError(t, err, "sign up should succeed")
	require.NotEmpty(t, client.SessionToken(), "sign up should set the session cookie")

	return client, user
}

func assertHealthy(t *testing.T, health *authsdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
}
