package service

import (
	"context"

	"github.com/nambasaf/Azure-a2a-demo/model"
)

// Ledger is the request ledger: one record per pipeline run, keyed by
// a fixed partition plus the request id. MergeUpsert is the only write
// path — stages append fields, they never replace records.
type Ledger interface {
	// MergeUpsert creates the record if absent, otherwise merges the
	// given fields into it, overwriting only the keys present in
	// fields and always refreshing the updatedAt field. The merge is
	// atomic per field on the backing store; callers never
	// read-modify-write whole records. Returns a store_unavailable
	// error on backend failure — callers must treat that as fatal and
	// not trigger the next stage.
	MergeUpsert(ctx context.Context, requestID string, fields map[string]any) error

	// Get returns the latest record state, or a not_found error.
	Get(ctx context.Context, requestID string) (*model.RequestRecord, error)
}
