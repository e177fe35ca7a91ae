//go:build integration

// Package integration holds container-backed tests of the fixture pipeline:
// preprocessing, bucket publication, the redis document cache and the
// dashboard server in front of them.
package integration

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/turtacn/bref-insight/internal/config"
	"github.com/turtacn/bref-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/bref-insight/internal/infrastructure/storage/minio"
	"github.com/turtacn/bref-insight/internal/interfaces/cli"
)

// ---------------------------------------------------------------------------
// Environment detection
// ---------------------------------------------------------------------------

const (
	// EnvMinIOEndpoint points the tests at an existing MinIO instead of a
	// container.
	EnvMinIOEndpoint = "BREF_TEST_MINIO_ENDPOINT"

	// EnvRedisAddr points the tests at an existing Redis instead of a
	// container.
	EnvRedisAddr = "BREF_TEST_REDIS_ADDR"

	minioUser     = "bref-test"
	minioPassword = "bref-test-secret"
	testBucket    = "bref-fixtures"
)

// ---------------------------------------------------------------------------
// Containers
// ---------------------------------------------------------------------------

// startContainer runs req and returns host:port for port.
func startContainer(t *testing.T, req testcontainers.ContainerRequest, port nat.Port) string {
	t.Helper()
	ctx := context.Background()
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(ctx) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	mapped, err := c.MappedPort(ctx, port)
	require.NoError(t, err)
	return net.JoinHostPort(host, mapped.Port())
}

// minioEndpoint returns a MinIO endpoint, starting a container unless one
// is configured.
func minioEndpoint(t *testing.T) string {
	t.Helper()
	if ep := os.Getenv(EnvMinIOEndpoint); ep != "" {
		return ep
	}
	return startContainer(t, testcontainers.ContainerRequest{
		Image:        "minio/minio:latest",
		ExposedPorts: []string{"9000/tcp"},
		Cmd:          []string{"server", "/data"},
		Env: map[string]string{
			"MINIO_ROOT_USER":     minioUser,
			"MINIO_ROOT_PASSWORD": minioPassword,
		},
		WaitingFor: wait.ForHTTP("/minio/health/live").WithPort("9000/tcp").WithStartupTimeout(90 * time.Second),
	}, "9000/tcp")
}

// redisAddr returns a Redis address, starting a container unless one is
// configured.
func redisAddr(t *testing.T) string {
	t.Helper()
	if addr := os.Getenv(EnvRedisAddr); addr != "" {
		return addr
	}
	return startContainer(t, testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(60 * time.Second),
	}, "6379/tcp")
}

// ---------------------------------------------------------------------------
// Stack
// ---------------------------------------------------------------------------

// stackConfig returns a server config over the minio source and redis cache.
func stackConfig(t *testing.T, prefix string) *config.Config {
	t.Helper()
	cfg := config.NewDefault()
	cfg.Data.Source = config.SourceMinIO
	cfg.Data.ObjectPrefix = prefix
	cfg.Cache.Backend = config.CacheRedis
	cfg.Cache.KeyPrefix = "it:" + prefix + ":"
	cfg.MinIO.Endpoint = minioEndpoint(t)
	cfg.MinIO.AccessKey = minioUser
	cfg.MinIO.SecretKey = minioPassword
	cfg.MinIO.Bucket = testBucket
	cfg.Redis.Addr = redisAddr(t)
	require.NoError(t, cfg.Validate())
	return cfg
}

// newBucket connects to the configured bucket, creating it when absent.
func newBucket(t *testing.T, cfg *config.Config) minio.FixtureRepository {
	t.Helper()
	logger := logging.NewNopLogger()
	mc, err := minio.NewMinIOClient(&minio.MinIOConfig{
		Endpoint:        cfg.MinIO.Endpoint,
		AccessKeyID:     cfg.MinIO.AccessKey,
		SecretAccessKey: cfg.MinIO.SecretKey,
		UseSSL:          cfg.MinIO.UseSSL,
		Region:          cfg.MinIO.Region,
		Bucket:          cfg.MinIO.Bucket,
		Prefix:          cfg.Data.ObjectPrefix,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mc.Close() })
	require.NoError(t, mc.EnsureBucket(context.Background()))
	return minio.NewFixtureRepository(mc, logger)
}

// startServer runs the dashboard server on a loopback port until the test
// ends and returns its base URL.
func startServer(t *testing.T, cfg *config.Config) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- cli.Serve(ctx, cfg, logging.NewNopLogger(), ln) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("server stopped with error: %v", err)
			}
		case <-time.After(15 * time.Second):
			t.Error("server did not stop")
		}
	})
	return "http://" + ln.Addr().String()
}

// writeFiles materializes files under a fresh temp dir.
func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, body := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
	return root
}

// uniquePrefix isolates one test's objects and cache keys.
func uniquePrefix(t *testing.T) string {
	return fmt.Sprintf("%s-%d", strings.ToLower(t.Name()), time.Now().UnixNano())
}

//Personal.AI order the ending
