package service

import (
	"context"
	"sync"
	"time"

	"github.com/nambasaf/Azure-a2a-demo/model"
)

// MemoryLedger is an in-memory request ledger. It backs local
// development and tests; in production this is replaced with
// Firestore or SQLite.
type MemoryLedger struct {
	mu      sync.RWMutex
	records map[string]map[string]any
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		records: make(map[string]map[string]any),
	}
}

func (l *MemoryLedger) MergeUpsert(_ context.Context, requestID string, fields map[string]any) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	record, ok := l.records[requestID]
	if !ok {
		record = make(map[string]any)
		l.records[requestID] = record
	}

	for k, v := range fields {
		record[k] = v
	}
	record[model.FieldUpdatedAt] = time.Now().UTC()

	return nil
}

func (l *MemoryLedger) Get(_ context.Context, requestID string) (*model.RequestRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	fields, ok := l.records[requestID]
	if !ok {
		return nil, model.ErrNotFound("no ledger record for request " + requestID)
	}

	record := &model.RequestRecord{RequestID: requestID}
	if v, ok := fields[model.FieldStatus].(string); ok {
		record.Status = v
	}
	if v, ok := fields[model.FieldSourceBlob].(string); ok {
		record.SourceBlob = v
	}
	if v, ok := fields[model.FieldTextBlob].(string); ok {
		record.TextBlob = v
	}
	if v, ok := fields[model.FieldSummaryBlob].(string); ok {
		record.SummaryBlob = v
	}
	if v, ok := fields[model.FieldStructureBlob].(string); ok {
		record.StructureBlob = v
	}
	if v, ok := fields[model.FieldReportBlob].(string); ok {
		record.ReportBlob = v
	}
	if v, ok := fields[model.FieldUpdatedAt].(time.Time); ok {
		record.UpdatedAt = v
	}

	return record, nil
}

// Count returns the number of records in the ledger.
func (l *MemoryLedger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// MemoryStore is an in-memory artifact store for local development and
// tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string]string),
	}
}

func (s *MemoryStore) EnsureContainers(_ context.Context, _ ...string) error {
	return nil
}

func (s *MemoryStore) PutText(_ context.Context, container, key, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref := model.FormatRef(container, key)
	s.objects[ref] = text
	return ref, nil
}

func (s *MemoryStore) GetText(_ context.Context, container, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ref := model.FormatRef(container, key)
	text, ok := s.objects[ref]
	if !ok {
		return "", model.ErrNotFound("artifact " + ref + " does not exist")
	}
	return text, nil
}

// Count returns the number of stored artifacts.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
