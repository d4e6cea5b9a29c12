package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/naijahub/newshub/app/cfg"
	"github.com/naijahub/newshub/app/database"
	"github.com/naijahub/newshub/app/ingest"
)

const defaultArticleLimit = 15

func NewHandler(repo database.ArticleRepository, ingestor *ingest.Ingestor) *Handler {
	return &Handler{
		repo:     repo,
		ingestor: ingestor,
	}
}

func (h *Handler) GetArticles(c *gin.Context) {
	limit := defaultArticleLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	mode := database.ModeLatest
	switch c.DefaultQuery("mode", "latest") {
	case "latest":
	case "sample":
		mode = database.ModeSample
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be 'latest' or 'sample'"})
		return
	}

	articles, err := h.repo.Recent(limit, mode)
	if err != nil {
		slog.Error("Database error", "operation", "recent", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	out := make([]articleResponse, 0, len(articles))
	for _, article := range articles {
		out = append(out, articleResponse{
			ID:             article.ID,
			Title:          article.Title,
			Description:    article.Description,
			URL:            article.URL,
			PublishedDate:  article.PublishedDate,
			Source:         article.Source,
			Category:       article.Category,
			Image:          article.LocalImagePath,
			PostedToSocial: article.PostedToSocial,
		})
	}

	c.JSON(http.StatusOK, gin.H{"articles": out, "count": len(out)})
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.repo.GetStats()
	if err != nil {
		slog.Error("Database error", "operation", "stats", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	response := gin.H{
		"total_articles":   stats.TotalArticles,
		"posted_to_social": stats.PostedToSocial,
		"sources_count":    stats.SourcesCount,
		"is_running":       h.ingestor.IsRunning(),
	}
	if last := h.ingestor.LastSuccess(); last != nil {
		response["last_success"] = last.Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, response)
}

func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"version":   cfg.GetVersion(),
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// Refresh starts an ingestion cycle unless one is already in flight. The
// caller decides when to refresh; reads never trigger one as a side effect.
func (h *Handler) Refresh(c *gin.Context) {
	if h.ingestor.TryStart() {
		c.JSON(http.StatusAccepted, gin.H{"status": "started"})
		return
	}
	c.JSON(http.StatusConflict, gin.H{"status": "already_running"})
}
