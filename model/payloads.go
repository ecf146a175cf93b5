package model

// These structs define the JSON payloads exchanged between the stage
// endpoints. Artifacts are always passed by reference (container/key),
// never inlined.

// TransformRequest is the input for the transform stage.
type TransformRequest struct {
	RequestID string `json:"request_id"`
	TextRef   string `json:"text_ref"`
}

// ReviewRequest is the input for the review stage.
type ReviewRequest struct {
	RequestID    string `json:"request_id"`
	SummaryRef   string `json:"summary_ref"`
	StructureRef string `json:"structure_ref"`
}

// IngestResponse is returned by the ingest endpoint once the transform
// stage has been triggered.
type IngestResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}

// TransformResponse is returned by the transform endpoint once the
// review stage has been triggered.
type TransformResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}

// ReviewResponse is returned by the terminal review stage.
type ReviewResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
	ReportRef string `json:"report_ref"`
}

// StructureRecord is the structure artifact produced by the transform
// stage, persisted as indented JSON.
type StructureRecord struct {
	RequestID   string `json:"request_id"`
	LengthChars int    `json:"length_chars"`
	Preview     string `json:"preview"`
}
