package minio

import (
	"bytes"
	"context"
	"io"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/bref-insight/internal/infrastructure/docstore"
	"github.com/turtacn/bref-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/bref-insight/pkg/errors"
)

var (
	ErrObjectNotFound = errors.New(errors.ErrCodeResourceNotFound, "object not found")
	ErrUploadFailed   = errors.New(errors.ErrCodeInternal, "upload failed")
	ErrDownloadFailed = errors.New(errors.ErrCodeFetchFailed, "download failed")
)

// FixtureRepository reads and publishes dashboard fixtures in the bucket.
// Its Fetch makes it a docstore.Source.
type FixtureRepository interface {
	docstore.Source
	Upload(ctx context.Context, p string, data []byte) (*UploadResult, error)
	List(ctx context.Context, prefix string) ([]*ObjectMetadata, error)
}

type UploadResult struct {
	ObjectKey  string
	ETag       string
	Size       int64
	UploadedAt time.Time
}

type ObjectMetadata struct {
	ObjectKey    string
	Size         int64
	ETag         string
	LastModified time.Time
}

type minioRepository struct {
	client *MinIOClient
	logger logging.Logger
}

func NewFixtureRepository(client *MinIOClient, log logging.Logger) FixtureRepository {
	return &minioRepository{client: client, logger: log}
}

// objectKey maps a fixture path to its key in the bucket.
func (r *minioRepository) objectKey(p string) (string, error) {
	rel, err := docstore.CleanPath(p)
	if err != nil {
		return "", err
	}
	if r.client.config.Prefix == "" {
		return rel, nil
	}
	return path.Join(r.client.config.Prefix, rel), nil
}

func contentTypeFor(p string) string {
	switch strings.ToLower(path.Ext(p)) {
	case ".json":
		return "application/json"
	case ".csv":
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}

func isNoSuchKey(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NoSuchBucket"
}

func (r *minioRepository) Fetch(ctx context.Context, p string) ([]byte, error) {
	if r.client.isClosed() {
		return nil, ErrMinIOClientClosed
	}
	key, err := r.objectKey(p)
	if err != nil {
		return nil, err
	}

	obj, err := r.client.client.GetObject(ctx, r.client.config.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, ErrObjectNotFound.WithDetail(key)
		}
		return nil, ErrDownloadFailed.WithCause(err).WithDetail(key)
	}
	defer obj.Close()

	// The SDK defers the request to the first read, so missing keys surface here.
	data, err := io.ReadAll(obj)
	if err != nil {
		if isNoSuchKey(err) {
			return nil, ErrObjectNotFound.WithDetail(key)
		}
		if ctx.Err() != nil {
			return nil, errors.Wrap(err, errors.ErrCodeFetchTimeout, "object read interrupted").WithDetail(key)
		}
		return nil, ErrDownloadFailed.WithCause(err).WithDetail(key)
	}
	return data, nil
}

func (r *minioRepository) Upload(ctx context.Context, p string, data []byte) (*UploadResult, error) {
	if r.client.isClosed() {
		return nil, ErrMinIOClientClosed
	}
	key, err := r.objectKey(p)
	if err != nil {
		return nil, err
	}
	info, err := r.client.client.PutObject(ctx, r.client.config.Bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentTypeFor(key)})
	if err != nil {
		r.logger.Error("Upload failed", logging.String("key", key), logging.Err(err))
		return nil, ErrUploadFailed.WithCause(err).WithDetail(key)
	}
	r.logger.Debug("Uploaded fixture", logging.String("key", key), logging.Int64("size", info.Size))
	return &UploadResult{ObjectKey: key, ETag: info.ETag, Size: info.Size, UploadedAt: time.Now()}, nil
}

func (r *minioRepository) List(ctx context.Context, prefix string) ([]*ObjectMetadata, error) {
	if r.client.isClosed() {
		return nil, ErrMinIOClientClosed
	}
	full := prefix
	if r.client.config.Prefix != "" {
		full = path.Join(r.client.config.Prefix, prefix)
	}
	var out []*ObjectMetadata
	for obj := range r.client.client.ListObjects(ctx, r.client.config.Bucket, minio.ListObjectsOptions{Prefix: full, Recursive: true}) {
		if obj.Err != nil {
			return nil, errors.Wrap(obj.Err, errors.ErrCodeFetchFailed, "list objects")
		}
		out = append(out, &ObjectMetadata{
			ObjectKey:    obj.Key,
			Size:         obj.Size,
			ETag:         obj.ETag,
			LastModified: obj.LastModified,
		})
	}
	return out, nil
}

//Personal.AI order the ending
