// Package backend is a small reference implementation of the import API used
// for local trials and integration tests.
package backend

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"importctl/internal/model"
	"importctl/internal/util"
)

// maxUploadBytes caps a single upload.
const maxUploadBytes = 512 << 20

// Options configures the reference backend.
type Options struct {
	ProcessingTime time.Duration
	Logger         *zap.Logger
}

// Server wires the HTTP routes to a Store.
type Server struct {
	store  *Store
	logger *zap.Logger
}

// NewServer creates a Server with its own Store.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		store:  NewStore(opts.ProcessingTime, logger),
		logger: logger,
	}
}

// Store exposes the job store (used by tests).
func (s *Server) Store() *Store {
	return s.store
}

// Router builds the gin engine serving the import API.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		imports := v1.Group("/imports")
		imports.POST("", s.uploadHandler)
		imports.GET("/pending", s.pendingHandler)
		imports.GET("/progress", s.progressHandler)
	}
	return r
}

func (s *Server) uploadHandler(c *gin.Context) {
	raw := strings.TrimSpace(c.Query("filename"))
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing filename parameter"})
		return
	}
	name := util.SanitizeFilename(raw)

	data, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read upload"})
		return
	}

	job, err := s.store.Create(name, data)
	if errors.Is(err, ErrJobActive) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create job"})
		return
	}

	c.JSON(http.StatusAccepted, model.UploadReceipt{JobID: job.ID})
}

func (s *Server) pendingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, model.PendingResult{HasActiveJob: s.store.HasActive()})
}

func (s *Server) progressHandler(c *gin.Context) {
	job, ok := s.store.Current()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": ErrNoJob.Error()})
		return
	}
	c.JSON(http.StatusOK, job.PollResult())
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
