package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/nambasaf/Azure-a2a-demo/config"
	"github.com/nambasaf/Azure-a2a-demo/model"
	"github.com/nambasaf/Azure-a2a-demo/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setupPipelineRouter wires the three stage endpoints against memory
// backends, with the stage client pointed back at the router itself so
// each stage's trigger reaches the next stage, like the deployed
// chain.
func setupPipelineRouter(t *testing.T) (*gin.Engine, *service.MemoryStore, *service.MemoryLedger) {
	t.Helper()

	store := service.NewMemoryStore()
	ledger := service.NewMemoryLedger()

	router := gin.New()
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	client := service.NewStageClient(&config.PipelineConfig{
		BaseURL:               srv.URL + "/api",
		TriggerTimeoutSeconds: 5,
	}, "")

	blob := &config.BlobConfig{
		UploadsContainer:   "demo-uploads",
		ProcessedContainer: "demo-processed",
		OutputsContainer:   "demo-outputs",
	}

	pipeline := service.NewPipeline(store, ledger, client, blob)
	h := NewPipelineHandler(pipeline, ledger)

	api := router.Group("/api")
	api.POST("/demo/ingest", h.Ingest)
	api.POST("/demo/transform", h.Transform)
	api.POST("/demo/review", h.Review)
	api.GET("/demo/requests/:id", h.GetRequest)

	return router, store, ledger
}

func multipartFile(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("Failed to write form file: %v", err)
	}
	writer.Close()

	return &buf, writer.FormDataContentType()
}

func TestIngestEndToEnd(t *testing.T) {
	router, store, ledger := setupPipelineRouter(t)

	body, contentType := multipartFile(t, "hello.txt", []byte("hello world"))
	req := httptest.NewRequest("POST", "/api/demo/ingest", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp model.IngestResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Status != model.StatusTransformTriggered {
		t.Errorf("Expected status transform_triggered, got %s", resp.Status)
	}

	// The chain ran synchronously: the ledger must have reached the
	// terminal status with all five references populated.
	record, err := ledger.Get(context.Background(), resp.RequestID)
	if err != nil {
		t.Fatalf("Failed to read ledger: %v", err)
	}
	if record.Status != model.StatusReviewed {
		t.Errorf("Expected terminal status reviewed, got %s", record.Status)
	}
	for name, ref := range map[string]string{
		"source_blob":    record.SourceBlob,
		"text_blob":      record.TextBlob,
		"summary_blob":   record.SummaryBlob,
		"structure_blob": record.StructureBlob,
		"report_blob":    record.ReportBlob,
	} {
		if ref == "" {
			t.Errorf("Expected %s to be populated", name)
		}
	}

	// Summary of an 11 character text is flagged as very short
	container, key, err := model.ParseRef(record.ReportBlob)
	if err != nil {
		t.Fatalf("Bad report reference: %v", err)
	}
	report, err := store.GetText(context.Background(), container, key)
	if err != nil {
		t.Fatalf("Failed to read report: %v", err)
	}
	if !strings.Contains(report, "request_id: "+resp.RequestID) {
		t.Errorf("Expected request id in report:\n%s", report)
	}
	if !strings.Contains(report, service.FlagShortSummary) {
		t.Errorf("Expected short summary flag in report:\n%s", report)
	}
	if !strings.Contains(report, "hello world") {
		t.Errorf("Expected summary text in report:\n%s", report)
	}
}

func TestIngestMissingFile(t *testing.T) {
	router, _, _ := setupPipelineRouter(t)

	req := httptest.NewRequest("POST", "/api/demo/ingest", strings.NewReader("no file"))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestTransformEndpoint(t *testing.T) {
	router, store, _ := setupPipelineRouter(t)

	textRef, err := store.PutText(context.Background(), "demo-processed", "req-1/extracted.txt", "stage input text")
	if err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	tests := []struct {
		name           string
		body           string
		expectedStatus int
	}{
		{
			name:           "valid request",
			body:           `{"request_id":"req-1","text_ref":"` + textRef + `"}`,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid json",
			body:           `{not json`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing text_ref",
			body:           `{"request_id":"req-1"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "wrong container",
			body:           `{"request_id":"req-1","text_ref":"demo-uploads/req-1/extracted.txt"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "malformed reference",
			body:           `{"request_id":"req-1","text_ref":"noseparator"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing artifact",
			body:           `{"request_id":"req-1","text_ref":"demo-processed/req-1/absent.txt"}`,
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/demo/transform", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestReviewEndpoint(t *testing.T) {
	router, store, ledger := setupPipelineRouter(t)

	ctx := context.Background()
	summaryRef, _ := store.PutText(ctx, "demo-outputs", "req-2/summary.txt", strings.Repeat("a", 60))
	structureRef, _ := store.PutText(ctx, "demo-outputs", "req-2/structure.json", `{"length_chars": 60}`)

	payload := `{"request_id":"req-2","summary_ref":"` + summaryRef + `","structure_ref":"` + structureRef + `"}`
	req := httptest.NewRequest("POST", "/api/demo/review", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp model.ReviewResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Status != model.StatusReviewed {
		t.Errorf("Expected status reviewed, got %s", resp.Status)
	}
	if resp.ReportRef != "demo-outputs/req-2/final_report.txt" {
		t.Errorf("Unexpected report reference: %s", resp.ReportRef)
	}

	// 60 non-blank characters and no TODO: the report carries no flags
	report, err := store.GetText(ctx, "demo-outputs", "req-2/final_report.txt")
	if err != nil {
		t.Fatalf("Failed to read report: %v", err)
	}
	if !strings.Contains(report, "- None") {
		t.Errorf("Expected '- None' flags in report:\n%s", report)
	}

	record, _ := ledger.Get(ctx, "req-2")
	if record.Status != model.StatusReviewed {
		t.Errorf("Expected ledger status reviewed, got %s", record.Status)
	}
}

func TestGetRequest(t *testing.T) {
	router, _, ledger := setupPipelineRouter(t)

	_ = ledger.MergeUpsert(context.Background(), "req-3", map[string]any{
		model.FieldStatus:   model.StatusExtracted,
		model.FieldTextBlob: "demo-processed/req-3/extracted.txt",
	})

	tests := []struct {
		name           string
		id             string
		expectedStatus int
	}{
		{
			name:           "existing record",
			id:             "req-3",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing record",
			id:             "req-404",
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/demo/requests/"+tt.id, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}

			if tt.expectedStatus == http.StatusOK {
				var record model.RequestRecord
				if err := json.Unmarshal(w.Body.Bytes(), &record); err != nil {
					t.Fatalf("Failed to parse response: %v", err)
				}
				if record.RequestID != tt.id {
					t.Errorf("Expected request id %s, got %s", tt.id, record.RequestID)
				}
				if record.Status != model.StatusExtracted {
					t.Errorf("Expected status extracted, got %s", record.Status)
				}
			}
		})
	}
}
