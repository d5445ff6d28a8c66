// Package server exposes the question-answering pipeline, corpus
// explorer, and visibility toolkit over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tomenglish23/healthcare-certs-rag/config"
	ragerrors "github.com/tomenglish23/healthcare-certs-rag/errors"
	"github.com/tomenglish23/healthcare-certs-rag/pkg/logging"
	"github.com/tomenglish23/healthcare-certs-rag/provider"
	"github.com/tomenglish23/healthcare-certs-rag/rag/agentic"
	"github.com/tomenglish23/healthcare-certs-rag/rag/catalog"
	"github.com/tomenglish23/healthcare-certs-rag/rag/evidence"
	"github.com/tomenglish23/healthcare-certs-rag/rag/visibility"
)

// Server holds the HTTP surface. It can start serving before the corpus
// is indexed; every data endpoint answers 503 until Ready is called.
type Server struct {
	cfg    *config.Config
	logger *slog.Logger
	engine *gin.Engine

	mu       sync.RWMutex
	pipeline *agentic.Pipeline
	explorer *visibility.Explorer
	catalog  *catalog.Catalog
	chunks   []evidence.Chunk
	llm      provider.Completer

	studyMu    sync.Mutex
	studyNotes []map[string]any
}

// New builds the router. The server starts not ready.
func New(cfg *config.Config) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		cfg:    cfg,
		logger: logging.WithComponent("server"),
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestLogger())

	engine.GET("/", s.handleRoot)

	api := engine.Group("/api")
	{
		api.GET("/config", s.handleConfig)
		api.GET("/taxonomies", s.handleTaxonomies)
		api.POST("/query", s.handleQuery)
		api.GET("/sections", s.handleSections)
		api.POST("/section-content", s.handleSectionContent)
		api.POST("/section-metadata", s.handleSectionMetadata)
		api.POST("/section-chunks", s.handleSectionChunks)
		api.POST("/section-suggestions", s.handleSectionSuggestions)
		api.POST("/study/save", s.handleStudySave)
		api.GET("/study/list", s.handleStudyList)

		vis := api.Group("/visibility")
		{
			vis.GET("/summary", s.handleVisibilitySummary)
			vis.POST("/profile", s.handleVisibilityProfile)
			vis.POST("/fields", s.handleVisibilityFields)
			vis.POST("/workflow", s.handleVisibilityWorkflow)
			vis.POST("/questions", s.handleVisibilityQuestions)
		}
	}

	s.engine = engine
	return s
}

// Ready installs the initialized components. Until it is called, data
// endpoints answer 503.
func (s *Server) Ready(pipe *agentic.Pipeline, explorer *visibility.Explorer, cat *catalog.Catalog, chunks []evidence.Chunk, llm provider.Completer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pipeline = pipe
	s.explorer = explorer
	s.catalog = cat
	s.chunks = chunks
	s.llm = llm
	s.logger.Info("server ready", "chunks", len(chunks))
}

// Handler exposes the router for tests and custom listeners.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("http server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func (s *Server) ready() (*agentic.Pipeline, *visibility.Explorer, *catalog.Catalog, []evidence.Chunk, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pipeline, s.explorer, s.catalog, s.chunks, s.pipeline != nil
}

func (s *Server) completer() (provider.Completer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.llm, s.llm != nil
}

func notInitialized(c *gin.Context) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": ragerrors.ErrNotReady.Error()})
}

func (s *Server) visibilityError(c *gin.Context, err error) {
	s.logger.Error("visibility request failed", "error", err)
	if errors.Is(err, ragerrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
