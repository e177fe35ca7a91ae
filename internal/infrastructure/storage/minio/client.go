package minio

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/turtacn/bref-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/bref-insight/pkg/errors"
)

// MinIOAPI is the subset of the SDK the fixture bucket needs.  GetObject
// yields a plain io.ReadCloser so tests can serve bodies without a server.
type MinIOAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error)
}

// sdkAPI adapts *minio.Client to MinIOAPI.
type sdkAPI struct {
	*minio.Client
}

func (a sdkAPI) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	return a.Client.GetObject(ctx, bucketName, objectName, opts)
}

type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	// Prefix is prepended to every fixture path inside the bucket.
	Prefix string `mapstructure:"prefix"`
}

type MinIOClient struct {
	client MinIOAPI
	config *MinIOConfig
	logger logging.Logger
	mu     sync.RWMutex
	closed bool
}

var ErrMinIOClientClosed = errors.New(errors.ErrCodeInternal, "minio client is closed")

func NewMinIOClient(cfg *MinIOConfig, log logging.Logger) (*MinIOClient, error) {
	applyDefaults(cfg)

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSourceMisconfig, "failed to create minio client")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Verify connection
	if _, err := client.BucketExists(ctx, cfg.Bucket); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeServiceUnavailable, "failed to connect to minio")
	}

	log.Info("MinIO client connected",
		logging.String("endpoint", cfg.Endpoint),
		logging.String("bucket", cfg.Bucket),
		logging.Bool("ssl", cfg.UseSSL))
	return NewMinIOClientWithAPI(sdkAPI{client}, cfg, log), nil
}

// NewMinIOClientWithAPI wraps an existing API implementation.
func NewMinIOClientWithAPI(api MinIOAPI, cfg *MinIOConfig, log logging.Logger) *MinIOClient {
	applyDefaults(cfg)
	return &MinIOClient{client: api, config: cfg, logger: log}
}

func applyDefaults(cfg *MinIOConfig) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.Bucket == "" {
		cfg.Bucket = "bref-fixtures"
	}
}

// EnsureBucket creates the fixture bucket when it is missing.
func (c *MinIOClient) EnsureBucket(ctx context.Context) error {
	if c.isClosed() {
		return ErrMinIOClientClosed
	}
	exists, err := c.client.BucketExists(ctx, c.config.Bucket)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to check bucket existence")
	}
	if exists {
		return nil
	}
	if err := c.client.MakeBucket(ctx, c.config.Bucket, minio.MakeBucketOptions{Region: c.config.Region}); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to create bucket "+c.config.Bucket)
	}
	c.logger.Info("Created bucket", logging.String("bucket", c.config.Bucket))
	return nil
}

func (c *MinIOClient) GetClient() MinIOAPI {
	return c.client
}

func (c *MinIOClient) BucketName() string {
	return c.config.Bucket
}

func (c *MinIOClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *MinIOClient) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

type HealthStatus struct {
	Healthy bool
	Latency time.Duration
	Error   string
}

// HealthCheck reports whether the fixture bucket is reachable and present.
func (c *MinIOClient) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	start := time.Now()
	exists, err := c.client.BucketExists(ctx, c.config.Bucket)
	status := &HealthStatus{Healthy: err == nil && exists, Latency: time.Since(start)}
	if err != nil {
		status.Error = err.Error()
		return status, err
	}
	if !exists {
		status.Error = "bucket " + c.config.Bucket + " missing"
		return status, ErrBucketNotFound
	}
	return status, nil
}

var ErrBucketNotFound = errors.New(errors.ErrCodeNotFound, "bucket not found")

//Personal.AI order the ending
