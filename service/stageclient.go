package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nambasaf/Azure-a2a-demo/config"
	"github.com/nambasaf/Azure-a2a-demo/model"
)

// StageClient triggers the next pipeline stage over HTTP. The route
// table is fixed: ingest calls transform, transform calls review.
// Calls are synchronous with a bounded timeout; there is no automatic
// retry — a failed trigger is reported to the caller and the pipeline
// stays resumable at the last recorded status.
type StageClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewStageClient(cfg *config.PipelineConfig, apiKey string) *StageClient {
	return &StageClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TriggerTimeoutSeconds) * time.Second,
		},
	}
}

// TriggerTransform invokes the transform stage for a freshly ingested
// request.
func (s *StageClient) TriggerTransform(ctx context.Context, payload *model.TransformRequest) error {
	return s.post(ctx, "/demo/transform", payload)
}

// TriggerReview invokes the review stage for a transformed request.
func (s *StageClient) TriggerReview(ctx context.Context, payload *model.ReviewRequest) error {
	return s.post(ctx, "/demo/review", payload)
}

func (s *StageClient) post(ctx context.Context, path string, payload any) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("X-Api-Key", s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return model.ErrUpstreamStage("failed to call "+path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return model.ErrUpstreamStage(
			fmt.Sprintf("stage %s returned status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body))),
			nil,
		)
	}

	return nil
}
