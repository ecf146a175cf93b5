package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/nambasaf/Azure-a2a-demo/config"
	"github.com/nambasaf/Azure-a2a-demo/model"
)

// MinioStore is the MinIO-backed artifact store. Each pipeline
// container maps to a bucket.
type MinioStore struct {
	client *minio.Client
}

func NewMinioStore(cfg *config.MinioConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinioStore{client: client}, nil
}

// EnsureContainers creates any missing buckets
func (s *MinioStore) EnsureContainers(ctx context.Context, names ...string) error {
	for _, name := range names {
		exists, err := s.client.BucketExists(ctx, name)
		if err != nil {
			return model.ErrStoreUnavailable("failed to check container "+name, err)
		}
		if exists {
			continue
		}
		if err := s.client.MakeBucket(ctx, name, minio.MakeBucketOptions{}); err != nil {
			return model.ErrStoreUnavailable("failed to create container "+name, err)
		}
	}
	return nil
}

func (s *MinioStore) PutText(ctx context.Context, container, key, text string) (string, error) {
	reader := strings.NewReader(text)
	_, err := s.client.PutObject(ctx, container, key, reader, int64(reader.Len()), minio.PutObjectOptions{
		ContentType: "text/plain; charset=utf-8",
	})
	if err != nil {
		return "", model.ErrStoreUnavailable("failed to write artifact "+model.FormatRef(container, key), err)
	}

	return model.FormatRef(container, key), nil
}

func (s *MinioStore) GetText(ctx context.Context, container, key string) (string, error) {
	obj, err := s.client.GetObject(ctx, container, key, minio.GetObjectOptions{})
	if err != nil {
		return "", mapMinioError(container, key, err)
	}
	defer obj.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, obj); err != nil {
		// GetObject is lazy; missing keys surface on first read
		return "", mapMinioError(container, key, err)
	}

	return buf.String(), nil
}

func mapMinioError(container, key string, err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
		return model.ErrNotFound("artifact " + model.FormatRef(container, key) + " does not exist")
	}
	return model.ErrStoreUnavailable("failed to read artifact "+model.FormatRef(container, key), err)
}
