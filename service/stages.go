package service

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nambasaf/Azure-a2a-demo/config"
	"github.com/nambasaf/Azure-a2a-demo/model"
	"github.com/nambasaf/Azure-a2a-demo/pkg/logger"
)

const (
	// PlaceholderText is stored as the extracted text when the upload
	// does not decode as UTF-8.
	PlaceholderText = "[binary file uploaded — add PDF/text extraction here]"

	// FlagShortSummary is raised when the trimmed summary is shorter
	// than shortSummaryLimit characters.
	FlagShortSummary = "Summary is very short"

	// FlagContainsTODO is raised when the summary contains the literal
	// marker substring.
	FlagContainsTODO = "Summary contains TODO"

	summaryLimit       = 800
	previewLimit       = 300
	reportExcerptLimit = 1200
	shortSummaryLimit  = 50
	truncationMarker   = "..."
	defaultFilename    = "upload.bin"
)

// Pipeline implements the three stage handlers. Each stage reads its
// inputs from the artifact store, computes its outputs, persists them,
// records progress in the ledger, and (for non-terminal stages)
// triggers the next stage. The ledger write always precedes the
// trigger: progress must be recorded before it is handed off.
type Pipeline struct {
	artifacts ArtifactStore
	ledger    Ledger
	stages    *StageClient
	blob      *config.BlobConfig
}

func NewPipeline(artifacts ArtifactStore, ledger Ledger, stages *StageClient, blob *config.BlobConfig) *Pipeline {
	return &Pipeline{
		artifacts: artifacts,
		ledger:    ledger,
		stages:    stages,
		blob:      blob,
	}
}

// Ingest stores the uploaded bytes, extracts text (or the placeholder
// for non-UTF-8 content), records the extracted status, and triggers
// the transform stage.
func (p *Pipeline) Ingest(ctx context.Context, filename string, raw []byte) (*model.IngestResponse, error) {
	requestID := uuid.New().String()
	ctx = context.WithValue(ctx, logger.RequestIDKey, requestID)
	ctx = context.WithValue(ctx, logger.StageKey, "ingest")

	filename = path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if filename == "" || filename == "." || filename == "/" {
		filename = defaultFilename
	}

	sourceRef, err := p.artifacts.PutText(ctx, p.blob.UploadsContainer, requestID+"/"+filename, string(raw))
	if err != nil {
		return nil, err
	}

	extracted := PlaceholderText
	if utf8.Valid(raw) {
		extracted = string(raw)
	}

	textRef, err := p.artifacts.PutText(ctx, p.blob.ProcessedContainer, requestID+"/extracted.txt", extracted)
	if err != nil {
		return nil, err
	}

	err = p.ledger.MergeUpsert(ctx, requestID, map[string]any{
		model.FieldStatus:     model.StatusExtracted,
		model.FieldSourceBlob: sourceRef,
		model.FieldTextBlob:   textRef,
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "ingest complete, triggering transform",
		"source_ref", sourceRef,
		"text_ref", textRef,
	)

	err = p.stages.TriggerTransform(ctx, &model.TransformRequest{
		RequestID: requestID,
		TextRef:   textRef,
	})
	if err != nil {
		return nil, err
	}

	return &model.IngestResponse{
		RequestID: requestID,
		Status:    model.StatusTransformTriggered,
	}, nil
}

// Transform reads the extracted text, produces the summary and
// structure artifacts, records the transformed status, and triggers
// the review stage.
func (p *Pipeline) Transform(ctx context.Context, req *model.TransformRequest) (*model.TransformResponse, error) {
	if req.RequestID == "" || req.TextRef == "" {
		return nil, model.ErrBadRequest("request_id and text_ref are required")
	}
	ctx = context.WithValue(ctx, logger.RequestIDKey, req.RequestID)
	ctx = context.WithValue(ctx, logger.StageKey, "transform")

	text, err := GetByRef(ctx, p.artifacts, req.TextRef, p.blob.ProcessedContainer, "text_ref")
	if err != nil {
		return nil, err
	}

	summary := Summarize(text)
	structure := model.StructureRecord{
		RequestID:   req.RequestID,
		LengthChars: utf8.RuneCountInString(text),
		Preview:     firstRunes(text, previewLimit),
	}

	structureJSON, err := json.MarshalIndent(structure, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal structure: %w", err)
	}

	summaryRef, err := p.artifacts.PutText(ctx, p.blob.OutputsContainer, req.RequestID+"/summary.txt", summary)
	if err != nil {
		return nil, err
	}

	structureRef, err := p.artifacts.PutText(ctx, p.blob.OutputsContainer, req.RequestID+"/structure.json", string(structureJSON))
	if err != nil {
		return nil, err
	}

	err = p.ledger.MergeUpsert(ctx, req.RequestID, map[string]any{
		model.FieldStatus:        model.StatusTransformed,
		model.FieldSummaryBlob:   summaryRef,
		model.FieldStructureBlob: structureRef,
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "transform complete, triggering review",
		"summary_ref", summaryRef,
		"structure_ref", structureRef,
		"length_chars", structure.LengthChars,
	)

	err = p.stages.TriggerReview(ctx, &model.ReviewRequest{
		RequestID:    req.RequestID,
		SummaryRef:   summaryRef,
		StructureRef: structureRef,
	})
	if err != nil {
		return nil, err
	}

	return &model.TransformResponse{
		RequestID: req.RequestID,
		Status:    model.StatusReviewTriggered,
	}, nil
}

// Review reads the summary and structure artifacts, computes review
// flags, renders the final report, and records the terminal reviewed
// status. It triggers nothing further.
func (p *Pipeline) Review(ctx context.Context, req *model.ReviewRequest) (*model.ReviewResponse, error) {
	if req.RequestID == "" || req.SummaryRef == "" || req.StructureRef == "" {
		return nil, model.ErrBadRequest("request_id, summary_ref and structure_ref are required")
	}
	ctx = context.WithValue(ctx, logger.RequestIDKey, req.RequestID)
	ctx = context.WithValue(ctx, logger.StageKey, "review")

	// Both references are validated before either is dereferenced, so
	// a mismatched container rejects the request with no reads behind
	// it.
	summaryKey, err := checkRef(req.SummaryRef, p.blob.OutputsContainer, "summary_ref")
	if err != nil {
		return nil, err
	}
	structureKey, err := checkRef(req.StructureRef, p.blob.OutputsContainer, "structure_ref")
	if err != nil {
		return nil, err
	}

	var summary, structure string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		summary, err = p.artifacts.GetText(gctx, p.blob.OutputsContainer, summaryKey)
		return err
	})
	g.Go(func() error {
		var err error
		structure, err = p.artifacts.GetText(gctx, p.blob.OutputsContainer, structureKey)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	flags := ReviewFlags(summary)
	report := RenderReport(req.RequestID, flags, structure, summary)

	reportRef, err := p.artifacts.PutText(ctx, p.blob.OutputsContainer, req.RequestID+"/final_report.txt", report)
	if err != nil {
		return nil, err
	}

	err = p.ledger.MergeUpsert(ctx, req.RequestID, map[string]any{
		model.FieldStatus:     model.StatusReviewed,
		model.FieldReportBlob: reportRef,
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "review complete",
		"report_ref", reportRef,
		"flags", flags,
	)

	return &model.ReviewResponse{
		RequestID: req.RequestID,
		Status:    model.StatusReviewed,
		ReportRef: reportRef,
	}, nil
}

// checkRef parses ref and verifies it points into wantContainer,
// returning the key.
func checkRef(ref, wantContainer, field string) (string, error) {
	container, key, err := model.ParseRef(ref)
	if err != nil {
		return "", err
	}
	if container != wantContainer {
		return "", model.ErrBadRequest(field + " must point to the " + wantContainer + " container")
	}
	return key, nil
}

// Summarize returns the text verbatim when it fits the summary limit,
// otherwise its first 800 characters plus a truncation marker.
func Summarize(text string) string {
	if utf8.RuneCountInString(text) <= summaryLimit {
		return text
	}
	return firstRunes(text, summaryLimit) + truncationMarker
}

// ReviewFlags computes the review flags for a summary.
func ReviewFlags(summary string) []string {
	var flags []string
	if utf8.RuneCountInString(strings.TrimSpace(summary)) < shortSummaryLimit {
		flags = append(flags, FlagShortSummary)
	}
	if strings.Contains(summary, "TODO") {
		flags = append(flags, FlagContainsTODO)
	}
	return flags
}

// RenderReport builds the fixed-layout review report.
func RenderReport(requestID string, flags []string, structure, summary string) string {
	flagLines := "- None"
	if len(flags) > 0 {
		flagLines = "- " + strings.Join(flags, "\n- ")
	}

	return strings.Join([]string{
		"DEMO REVIEW REPORT",
		"request_id: " + requestID,
		"",
		"Flags:",
		flagLines,
		"",
		"Structure (raw):",
		firstRunes(structure, reportExcerptLimit),
		"",
		"Summary (raw):",
		firstRunes(summary, reportExcerptLimit),
	}, "\n")
}

// firstRunes returns the first n characters of s. Truncation counts
// characters, not bytes, so multi-byte text is never split mid-rune.
func firstRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
