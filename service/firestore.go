package service

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/nambasaf/Azure-a2a-demo/config"
	"github.com/nambasaf/Azure-a2a-demo/model"
)

// FirestoreLedger stores request records as documents in a single
// collection. Document IDs combine the fixed partition with the
// request id; the merge upsert maps to Firestore's native partial-
// document Set with MergeAll, so concurrent stage writes never clobber
// each other's fields.
type FirestoreLedger struct {
	client    *firestore.Client
	table     string
	partition string
}

func NewFirestoreLedger(ctx context.Context, cfg *config.LedgerConfig) (*FirestoreLedger, error) {
	if cfg.Firestore.ProjectID == "" {
		return nil, fmt.Errorf("firestore ledger requires a project id")
	}

	client, err := firestore.NewClient(ctx, cfg.Firestore.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return &FirestoreLedger{
		client:    client,
		table:     cfg.Table,
		partition: cfg.Partition,
	}, nil
}

func (l *FirestoreLedger) doc(requestID string) *firestore.DocumentRef {
	return l.client.Collection(l.table).Doc(l.partition + "-" + requestID)
}

func (l *FirestoreLedger) MergeUpsert(ctx context.Context, requestID string, fields map[string]any) error {
	merged := make(map[string]any, len(fields)+3)
	for k, v := range fields {
		merged[k] = v
	}
	merged["partitionKey"] = l.partition
	merged["requestId"] = requestID
	merged[model.FieldUpdatedAt] = time.Now().UTC()

	if _, err := l.doc(requestID).Set(ctx, merged, firestore.MergeAll); err != nil {
		return model.ErrStoreUnavailable("failed to upsert ledger record "+requestID, err)
	}
	return nil
}

func (l *FirestoreLedger) Get(ctx context.Context, requestID string) (*model.RequestRecord, error) {
	snap, err := l.doc(requestID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, model.ErrNotFound("no ledger record for request " + requestID)
		}
		return nil, model.ErrStoreUnavailable("failed to read ledger record "+requestID, err)
	}

	var record model.RequestRecord
	if err := snap.DataTo(&record); err != nil {
		return nil, model.ErrStoreUnavailable("failed to decode ledger record "+requestID, err)
	}
	record.RequestID = requestID
	return &record, nil
}

// Close releases the underlying client.
func (l *FirestoreLedger) Close() error {
	return l.client.Close()
}
