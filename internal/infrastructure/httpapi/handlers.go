package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"ContentGenerator/internal/domain"
	"ContentGenerator/internal/usecase"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

type runRequest struct {
	BatchSize           *int     `json:"batch_size"`
	AutoPopulate        *bool    `json:"auto_populate"`
	PopulateMaxPriority *int     `json:"populate_max_priority"`
	ContentTypes        []string `json:"content_types"`
}

type populateRequest struct {
	ContentTypes []string `json:"content_types"`
	MaxPriority  int      `json:"max_priority"`
}

type requeueRequest struct {
	IDs []string `json:"ids"`
}

type queueItemResponse struct {
	ID           string    `json:"id"`
	ContentType  string    `json:"content_type"`
	LocationSlug string    `json:"location_slug,omitempty"`
	IndustrySlug string    `json:"industry_slug,omitempty"`
	Slug         string    `json:"slug"`
	Status       string    `json:"status"`
	Priority     int       `json:"priority"`
	PublishedRef string    `json:"published_ref,omitempty"`
	LastError    string    `json:"last_error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type logEntryResponse struct {
	ID             string    `json:"id"`
	QueueRef       string    `json:"queue_ref,omitempty"`
	ContentType    string    `json:"content_type"`
	TargetSlug     string    `json:"target_slug"`
	PromptLength   int       `json:"prompt_length"`
	ResponseLength int       `json:"response_length"`
	DurationMS     int64     `json:"duration_ms"`
	Status         string    `json:"status"`
	ErrorDetail    string    `json:"error_detail,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func (s *Server) health(c *gin.Context) {
	running := false
	if s.deps.Runner != nil {
		running = s.deps.Runner.Running()
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "running": running})
}

// triggerRun handles POST /api/runs. Body fields override the configured
// run options; an empty body runs with the defaults.
func (s *Server) triggerRun(c *gin.Context) {
	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opts := s.deps.Defaults
	if req.BatchSize != nil {
		opts.BatchSize = *req.BatchSize
	}
	if req.AutoPopulate != nil {
		opts.AutoPopulate = *req.AutoPopulate
	}
	if req.PopulateMaxPriority != nil {
		opts.PopulateMaxPriority = *req.PopulateMaxPriority
	}
	if len(req.ContentTypes) > 0 {
		types, err := domain.ParseContentTypes(req.ContentTypes)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		opts.ContentTypes = types
	}

	summary, err := s.deps.Runner.RunOnce(c.Request.Context(), opts)
	switch {
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "summary": summary})
	case summary.Skipped:
		c.JSON(http.StatusConflict, gin.H{"error": "a run is already in progress", "summary": summary})
	default:
		c.JSON(http.StatusOK, gin.H{"summary": summary})
	}
}

func (s *Server) populate(c *gin.Context) {
	var req populateRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	types, err := domain.ParseContentTypes(req.ContentTypes)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.deps.Populator.Populate(c.Request.Context(), usecase.PopulateRequest{
		ContentTypes: types,
		MaxPriority:  req.MaxPriority,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"populate": result})
}

func (s *Server) listQueue(c *gin.Context) {
	filter := domain.QueueFilter{
		Status:      domain.Status(c.Query("status")),
		ContentType: domain.ContentType(c.Query("content_type")),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status " + strconv.Quote(string(filter.Status))})
		return
	}
	if filter.ContentType != "" && !filter.ContentType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown content type " + strconv.Quote(string(filter.ContentType))})
		return
	}
	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	filter.Limit = limit

	items, err := s.deps.Queue.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	out := make([]queueItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, queueItemResponse{
			ID:           item.ID,
			ContentType:  string(item.ContentType),
			LocationSlug: item.LocationSlug,
			IndustrySlug: item.IndustrySlug,
			Slug:         item.Target().Slug(),
			Status:       string(item.Status),
			Priority:     item.Priority,
			PublishedRef: item.PublishedRef,
			LastError:    item.LastError,
			CreatedAt:    item.CreatedAt,
			UpdatedAt:    item.UpdatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": out, "count": len(out)})
}

func (s *Server) queueStats(c *gin.Context) {
	counts, err := s.deps.Queue.StatusCounts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	stats := make(map[string]int, len(domain.AllStatuses))
	total := 0
	for _, status := range domain.AllStatuses {
		stats[string(status)] = counts[status]
		total += counts[status]
	}
	c.JSON(http.StatusOK, gin.H{"statuses": stats, "total": total})
}

func (s *Server) requeue(c *gin.Context) {
	var req requeueRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.deps.Requeuer.RequeueFailed(c.Request.Context(), req.IDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"requeue": result})
}

func (s *Server) generationLog(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}

	entries, err := s.deps.Log.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	out := make([]logEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, logEntryResponse{
			ID:             e.ID,
			QueueRef:       e.QueueRef,
			ContentType:    string(e.ContentType),
			TargetSlug:     e.TargetSlug,
			PromptLength:   e.PromptLength,
			ResponseLength: e.ResponseLength,
			DurationMS:     e.DurationMS,
			Status:         string(e.Status),
			ErrorDetail:    e.ErrorDetail,
			CreatedAt:      e.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"entries": out, "count": len(out)})
}

// parseLimit reads ?limit=, writing a 400 when it is not a positive integer.
func parseLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return defaultListLimit, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return 0, false
	}
	return min(limit, maxListLimit), true
}
