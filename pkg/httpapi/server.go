// Package httpapi exposes the generation pipeline and the event stream over
// HTTP: REST operations under /api/v1 and an SSE endpoint for live events.
package httpapi

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ravi-parthasarathy/webforge/pkg/generate"
	"github.com/ravi-parthasarathy/webforge/pkg/stream"
)

// Server wires the pipeline and broadcaster into a gin engine.
type Server struct {
	engine      *gin.Engine
	pipeline    *generate.Pipeline
	broadcaster *stream.Broadcaster
	keepalive   time.Duration
}

// New builds the HTTP surface. keepalive is the SSE comment interval; zero
// falls back to 30 seconds.
func New(p *generate.Pipeline, b *stream.Broadcaster, keepalive time.Duration) *Server {
	if keepalive <= 0 {
		keepalive = 30 * time.Second
	}

	s := &Server{
		engine:      gin.New(),
		pipeline:    p,
		broadcaster: b,
		keepalive:   keepalive,
	}

	s.engine.Use(gin.Recovery(), requestLogger())

	api := s.engine.Group("/api/v1")
	api.GET("/health", s.health)
	api.GET("/events", s.listEvents)
	api.GET("/events/stream", s.streamEvents)
	api.POST("/project/generate", s.generateProject)
	api.POST("/project/modify", s.modifyProject)
	api.POST("/execute", s.execute)

	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return s
}

// Handler returns the engine as an http.Handler for the outer http.Server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			slog.Info("http request",
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"status", c.Writer.Status(),
				"elapsed", time.Since(start))
		}
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// filterFromQuery builds the subscription filter from project_id,
// conversation_id and model query parameters.
func filterFromQuery(c *gin.Context) stream.Filter {
	return stream.Filter{
		ProjectID:      c.Query("project_id"),
		ConversationID: c.Query("conversation_id"),
		ModelName:      c.Query("model"),
	}
}

func (s *Server) listEvents(c *gin.Context) {
	evs := s.broadcaster.HistoricalEvents(filterFromQuery(c))
	c.JSON(http.StatusOK, gin.H{"events": evs, "count": len(evs)})
}

func (s *Server) generateProject(c *gin.Context) {
	var req generate.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.UserQuery) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_query is required"})
		return
	}

	result, err := s.pipeline.Generate(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) modifyProject(c *gin.Context) {
	var req generate.ModifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Instruction) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "instruction is required"})
		return
	}
	if req.Project == nil && req.ProjectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "either project_json or project_id must be provided"})
		return
	}

	result, err := s.pipeline.Modify(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
