package api

import (
	"github.com/naijahub/newshub/app/database"
	"github.com/naijahub/newshub/app/ingest"
)

// Handler serves the read paths and the refresh trigger consumed by the
// presentation layer.
type Handler struct {
	repo     database.ArticleRepository
	ingestor *ingest.Ingestor
}

// articleResponse is the JSON shape served for a stored article.
type articleResponse struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	URL            string `json:"url"`
	PublishedDate  string `json:"published_date"`
	Source         string `json:"source"`
	Category       string `json:"category"`
	Image          string `json:"image"`
	PostedToSocial bool   `json:"posted_to_social"`
}
