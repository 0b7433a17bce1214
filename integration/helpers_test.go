//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/meigma/texcache"
	"github.com/meigma/texcache/cache/disk"
	"github.com/meigma/texcache/mirror"
)

// --- Registry Container Setup ---

var (
	registryOnce sync.Once
	registryAddr string
	registryErr  error
)

// getRegistry returns the shared registry address, starting the container if needed.
// The container is shared across all tests for performance.
func getRegistry(tb testing.TB) string {
	tb.Helper()

	if os.Getenv("SKIP_DOCKER_TESTS") == "1" {
		tb.Skip("SKIP_DOCKER_TESTS is set")
	}

	registryOnce.Do(func() {
		ctx := context.Background()
		registryAddr, registryErr = startRegistryContainer(ctx)
	})

	if registryErr != nil {
		tb.Fatalf("start registry container: %v", registryErr)
	}

	return registryAddr
}

// startRegistryContainer starts a registry:2 container and returns the host:port address.
func startRegistryContainer(ctx context.Context) (string, error) {
	req := testcontainers.ContainerRequest{
		Image:        "registry:2",
		ExposedPorts: []string{"5000/tcp"},
		WaitingFor:   wait.ForHTTP("/v2/").WithPort("5000/tcp").WithStatusCodeMatcher(isOKStatus),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", fmt.Errorf("start registry container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve registry host: %w", err)
	}

	port, err := container.MappedPort(ctx, "5000/tcp")
	if err != nil {
		return "", fmt.Errorf("resolve registry port: %w", err)
	}

	return fmt.Sprintf("%s:%s", host, port.Port()), nil
}

func isOKStatus(status int) bool {
	return status >= 200 && status < 300
}

// --- Test Factories ---

// testRepo generates a unique repository for a test to avoid collisions.
func testRepo(registryAddr, testName string) string {
	return fmt.Sprintf("%s/test/%s", registryAddr, strings.ToLower(testName))
}

// newTestMirror creates a mirror on the local test registry.
func newTestMirror(tb testing.TB, repo string) *mirror.Mirror {
	tb.Helper()

	m, err := mirror.NewRemote(repo, mirror.WithPlainHTTP(true))
	require.NoError(tb, err, "create test mirror")
	return m
}

// newTestCache creates a cache with its own content cache directory and the
// given mirror.
func newTestCache(tb testing.TB, m *mirror.Mirror) *texcache.Cache {
	tb.Helper()

	dc, err := disk.New(tb.TempDir())
	require.NoError(tb, err, "create disk cache")

	c, err := texcache.New(
		texcache.WithContentCache(dc),
		texcache.WithMirror(m),
		texcache.WithWorkers(2),
	)
	require.NoError(tb, err, "create test cache")
	tb.Cleanup(func() { _ = c.Close() })
	return c
}
