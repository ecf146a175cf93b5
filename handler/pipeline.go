package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nambasaf/Azure-a2a-demo/model"
	"github.com/nambasaf/Azure-a2a-demo/pkg/logger"
	"github.com/nambasaf/Azure-a2a-demo/service"
)

// PipelineHandler exposes the three stage endpoints plus a ledger
// read-back. All validation failures answer 4xx before any artifact
// write or ledger mutation happens.
type PipelineHandler struct {
	pipeline *service.Pipeline
	ledger   service.Ledger
}

func NewPipelineHandler(pipeline *service.Pipeline, ledger service.Ledger) *PipelineHandler {
	return &PipelineHandler{
		pipeline: pipeline,
		ledger:   ledger,
	}
}

// Ingest handles the multipart upload that starts a pipeline run
func (h *PipelineHandler) Ingest(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file. Use multipart form key 'file'."})
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file"})
		return
	}

	resp, err := h.pipeline.Ingest(c.Request.Context(), header.Filename, raw)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Transform handles the second stage, triggered by ingest
func (h *PipelineHandler) Transform(c *gin.Context) {
	var req model.TransformRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}

	resp, err := h.pipeline.Transform(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Review handles the terminal stage, triggered by transform
func (h *PipelineHandler) Review(c *gin.Context) {
	var req model.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}

	resp, err := h.pipeline.Review(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetRequest returns the ledger record for a pipeline run
func (h *PipelineHandler) GetRequest(c *gin.Context) {
	record, err := h.ledger.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// respondError converts a pipeline error into the HTTP response at the
// stage boundary. Validation failures carry their own message; server
// side failures are logged in full and answered with a short
// diagnostic.
func respondError(c *gin.Context, err error) {
	status := model.HTTPStatusFor(err)

	message := "Internal server error"
	var pe *model.Error
	if errors.As(err, &pe) {
		message = pe.Message
	}

	if status >= http.StatusInternalServerError {
		logger.Error(c.Request.Context(), "stage failed",
			"error", err,
			"path", c.Request.URL.Path,
		)
	}

	c.JSON(status, gin.H{"error": message})
}
