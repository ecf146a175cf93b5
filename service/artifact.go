package service

import (
	"context"
)

// ArtifactStore is the adapter over a durable content store exposing
// named containers. Writes overwrite by key; references returned and
// accepted everywhere are "container/key" strings.
type ArtifactStore interface {
	// PutText writes text under key in container and returns its
	// reference. Existing content at the key is replaced.
	PutText(ctx context.Context, container, key, text string) (string, error)

	// GetText reads the full content at key. Returns a not_found error
	// if the key does not exist, store_unavailable on backend failure.
	GetText(ctx context.Context, container, key string) (string, error)

	// EnsureContainers creates the named containers if absent.
	EnsureContainers(ctx context.Context, names ...string) error
}

// GetByRef parses ref, checks it points into wantContainer, and reads
// the content. Every stage input reference goes through this check so
// a misrouted reference never dereferences outside the stage's
// contract.
func GetByRef(ctx context.Context, store ArtifactStore, ref, wantContainer, field string) (string, error) {
	key, err := checkRef(ref, wantContainer, field)
	if err != nil {
		return "", err
	}
	return store.GetText(ctx, wantContainer, key)
}
