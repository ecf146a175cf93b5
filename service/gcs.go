package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"

	"github.com/nambasaf/Azure-a2a-demo/model"
)

// GCSStore is the Google Cloud Storage-backed artifact store. Each
// pipeline container maps to a bucket; buckets are expected to be
// provisioned out of band (bucket creation needs a project-level API
// the service account may not hold).
type GCSStore struct {
	client *storage.Client
}

func NewGCSStore(ctx context.Context) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &GCSStore{client: client}, nil
}

// EnsureContainers verifies the buckets are reachable
func (s *GCSStore) EnsureContainers(ctx context.Context, names ...string) error {
	for _, name := range names {
		if _, err := s.client.Bucket(name).Attrs(ctx); err != nil {
			return model.ErrStoreUnavailable("failed to check container "+name, err)
		}
	}
	return nil
}

func (s *GCSStore) PutText(ctx context.Context, container, key, text string) (string, error) {
	writer := s.client.Bucket(container).Object(key).NewWriter(ctx)

	if _, err := io.Copy(writer, strings.NewReader(text)); err != nil {
		_ = writer.Close()
		return "", model.ErrStoreUnavailable("failed to write artifact "+model.FormatRef(container, key), err)
	}
	if err := writer.Close(); err != nil {
		return "", model.ErrStoreUnavailable("failed to finalize artifact "+model.FormatRef(container, key), err)
	}

	return model.FormatRef(container, key), nil
}

func (s *GCSStore) GetText(ctx context.Context, container, key string) (string, error) {
	reader, err := s.client.Bucket(container).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
			return "", model.ErrNotFound("artifact " + model.FormatRef(container, key) + " does not exist")
		}
		return "", model.ErrStoreUnavailable("failed to read artifact "+model.FormatRef(container, key), err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", model.ErrStoreUnavailable("failed to read artifact "+model.FormatRef(container, key), err)
	}

	return string(data), nil
}
