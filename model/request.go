package model

import (
	"time"
)

// RequestRecord is the ledger entry for one pipeline run. Stages never
// replace the whole record; each stage merges its own status and the
// references it produced.
type RequestRecord struct {
	RequestID     string    `json:"request_id" firestore:"requestId,omitempty"`
	Status        string    `json:"status" firestore:"status,omitempty"`
	SourceBlob    string    `json:"source_blob,omitempty" firestore:"sourceBlob,omitempty"`
	TextBlob      string    `json:"text_blob,omitempty" firestore:"textBlob,omitempty"`
	SummaryBlob   string    `json:"summary_blob,omitempty" firestore:"summaryBlob,omitempty"`
	StructureBlob string    `json:"structure_blob,omitempty" firestore:"structureBlob,omitempty"`
	ReportBlob    string    `json:"report_blob,omitempty" firestore:"reportBlob,omitempty"`
	UpdatedAt     time.Time `json:"updated_at" firestore:"updatedAt,omitempty"`
}

// Pipeline status constants, in advancement order
const (
	StatusExtracted   = "extracted"
	StatusTransformed = "transformed"
	StatusReviewed    = "reviewed"
)

// Response status constants returned by the stage endpoints
const (
	StatusTransformTriggered = "transform_triggered"
	StatusReviewTriggered    = "review_triggered"
)

// Ledger field names. These match the persisted column/attribute names,
// shared by every ledger backend.
const (
	FieldStatus        = "status"
	FieldSourceBlob    = "sourceBlob"
	FieldTextBlob      = "textBlob"
	FieldSummaryBlob   = "summaryBlob"
	FieldStructureBlob = "structureBlob"
	FieldReportBlob    = "reportBlob"
	FieldUpdatedAt     = "updatedAt"
)

// StatusRank orders pipeline statuses so callers can compare progress.
// Unknown statuses rank lowest.
func StatusRank(status string) int {
	switch status {
	case StatusExtracted:
		return 1
	case StatusTransformed:
		return 2
	case StatusReviewed:
		return 3
	default:
		return 0
	}
}
