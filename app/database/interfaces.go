package database

// ArticleRepository is the persistence contract exposed to the ingestion
// pipeline and the HTTP layer.
type ArticleRepository interface {
	InsertIfAbsent(article Article) (bool, error)
	Recent(limit int, mode RecentMode) ([]Article, error)
	GetStats() (Stats, error)
	MarkPosted(id int64) error
}
