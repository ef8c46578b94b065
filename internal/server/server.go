package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/inkfell/cairn/internal/core"
	"github.com/inkfell/cairn/internal/core/model"
	"github.com/inkfell/cairn/internal/llm"
	"github.com/inkfell/cairn/internal/store"
)

type Server struct {
	Organizer *core.Organizer
	Store     store.EventStore
	Embedder  llm.EmbedderClient
	Logger    *zap.Logger
}

func New(organizer *core.Organizer, st store.EventStore, embedder llm.EmbedderClient, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{Organizer: organizer, Store: st, Embedder: embedder, Logger: logger}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	r.POST("/events", s.AddEvent)
	r.POST("/organize", s.Organize)
	r.POST("/clusters/sweep", s.SweepClusters)
	r.GET("/clusters", s.GetClusters)
	r.GET("/clusters/:id/members", s.GetClusterMembers)
	r.GET("/events/unclustered", s.GetUnclusteredEvents)
	r.GET("/runs", s.GetRuns)

	return r
}

type AddEventRequest struct {
	Name      string     `json:"name" binding:"required"`
	EventType string     `json:"event_type"`
	Content   string     `json:"content"`
	StartTime *time.Time `json:"start_time"`
	Embedding []float32  `json:"embedding"`
}

func (s *Server) AddEvent(c *gin.Context) {
	var req AddEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	now := time.Now().UTC()
	event := model.EventNode{
		UUID:      uuid.NewString(),
		Name:      req.Name,
		EventType: req.EventType,
		Content:   req.Content,
		Embedding: req.Embedding,
		StartTime: req.StartTime,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if len(event.Embedding) == 0 && s.Embedder != nil {
		text := event.Content
		if text == "" {
			text = event.Name
		}
		vec, err := s.Embedder.Embed(c.Request.Context(), text)
		if err != nil {
			// Stored without an embedding the event just stays out of
			// clustering until one is attached.
			s.Logger.Warn("failed to embed event", zap.String("uuid", event.UUID), zap.Error(err))
		} else {
			event.Embedding = vec
		}
	}

	if err := s.Store.SaveEvent(c.Request.Context(), event); err != nil {
		s.Logger.Error("failed to save event", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save event"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"uuid": event.UUID, "embedded": event.HasEmbedding()})
}

type OrganizeRequest struct {
	Force bool `json:"force"`
}

func (s *Server) Organize(c *gin.Context) {
	var req OrganizeRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	result := s.Organizer.OrganizeGraph(c.Request.Context(), req.Force, nil)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusInternalServerError
	}
	c.JSON(status, result)
}

func (s *Server) SweepClusters(c *gin.Context) {
	deleted, err := s.Organizer.SweepSupersededClusters(c.Request.Context())
	if err != nil {
		s.Logger.Error("failed to sweep clusters", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sweep clusters"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

func (s *Server) GetClusters(c *gin.Context) {
	clusters, err := s.Organizer.AllClusters(c.Request.Context())
	if err != nil {
		s.Logger.Error("failed to list clusters", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list clusters"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"clusters": clusters})
}

func (s *Server) GetClusterMembers(c *gin.Context) {
	members, err := s.Organizer.ClusterMembers(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.Logger.Error("failed to list cluster members", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list cluster members"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

func (s *Server) GetUnclusteredEvents(c *gin.Context) {
	events, err := s.Organizer.UnclusteredEvents(c.Request.Context())
	if err != nil {
		s.Logger.Error("failed to list unclustered events", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list unclustered events"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (s *Server) GetRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	runs, err := s.Organizer.RunHistory(c.Request.Context(), limit)
	if err != nil {
		s.Logger.Error("failed to list runs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list runs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}
