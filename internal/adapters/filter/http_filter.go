package filter

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikey/llm-call-filter/internal/core"
	"go.uber.org/zap"
)

// HTTPFilter exposes the detector service as a JSON API.
type HTTPFilter struct {
	service    *core.DetectorService
	logger     *zap.Logger
	listenAddr string
	modelID    string
	server     *http.Server
}

type detectRequest struct {
	Transcript string `json:"transcript"`
}

type detectBatchRequest struct {
	Transcripts []string `json:"transcripts"`
}

type detectBatchResponse struct {
	Results []*core.DetectionResult `json:"results"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPFilter creates a new HTTP filter
func NewHTTPFilter(service *core.DetectorService, logger *zap.Logger, listenAddr string, modelID string) (*HTTPFilter, error) {
	return &HTTPFilter{
		service:    service,
		logger:     logger,
		listenAddr: listenAddr,
		modelID:    modelID,
	}, nil
}

// ProcessTranscript classifies a single transcript
func (f *HTTPFilter) ProcessTranscript(ctx context.Context, transcript string) (*core.DetectionResult, error) {
	return f.service.Detect(ctx, transcript)
}

// Router builds the gin engine with all routes registered.
func (f *HTTPFilter) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.POST("/detect", f.handleDetect)
	router.POST("/detect/batch", f.handleDetectBatch)
	router.GET("/health", f.handleHealth)

	return router
}

func (f *HTTPFilter) handleDetect(c *gin.Context) {
	var req detectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	// An empty transcript is a caller input error, not something to classify.
	if strings.TrimSpace(req.Transcript) == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "transcript must not be empty"})
		return
	}

	result, err := f.service.Detect(c.Request.Context(), req.Transcript)
	if err != nil {
		f.logger.Error("Detection failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "detection failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (f *HTTPFilter) handleDetectBatch(c *gin.Context) {
	var req detectBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if len(req.Transcripts) == 0 {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "transcripts must not be empty"})
		return
	}

	results := f.service.DetectBatch(c.Request.Context(), req.Transcripts)
	c.JSON(http.StatusOK, detectBatchResponse{Results: results})
}

func (f *HTTPFilter) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"model":  f.modelID,
	})
}

// Start starts the HTTP server
func (f *HTTPFilter) Start() error {
	f.server = &http.Server{
		Addr:         f.listenAddr,
		Handler:      f.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	go func() {
		f.logger.Info("Starting HTTP filter", zap.String("address", f.listenAddr))
		if err := f.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			f.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP server
func (f *HTTPFilter) Stop() error {
	if f.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return f.server.Shutdown(ctx)
}
