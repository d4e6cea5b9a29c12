package database

import (
	"fmt"
	"log/slog"

	sqlbuilder "github.com/huandu/go-sqlbuilder"
)

var _ ArticleRepository = (*SQLiteArticleRepository)(nil)

// SQLiteArticleRepository handles database operations for articles.
type SQLiteArticleRepository struct {
	db *DB
}

func NewArticleRepository(db *DB) *SQLiteArticleRepository {
	return &SQLiteArticleRepository{db: db}
}

// InsertIfAbsent inserts an article keyed on its canonical URL. A duplicate
// URL is silently ignored and reported as (false, nil); re-ingesting an
// article is never an update.
func (r *SQLiteArticleRepository) InsertIfAbsent(article Article) (bool, error) {
	if article.URL == "" {
		slog.Debug("Rejecting article draft without canonical URL", "title", article.Title)
		return false, nil
	}

	result, err := r.db.Exec(`
		INSERT OR IGNORE INTO articles
			(title, description, url, published_date, source, category, image_url, local_image_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, article.Title, article.Description, article.URL, article.PublishedDate,
		article.Source, article.Category, article.ImageURL, article.LocalImagePath)

	if err != nil {
		return false, fmt.Errorf("failed to insert article: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}

	return affected > 0, nil
}

// Recent returns up to limit articles. ModeLatest orders by ingestion time
// descending; ModeSample draws a uniform random sample over the full stored
// set (no recency window).
func (r *SQLiteArticleRepository) Recent(limit int, mode RecentMode) ([]Article, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("id", "title", "COALESCE(description, '')", "url",
		"COALESCE(published_date, '')", "COALESCE(source, '')",
		"COALESCE(category, '')", "COALESCE(image_url, '')",
		"COALESCE(local_image_path, '')", "posted_to_social", "created_at").
		From("articles").
		Limit(limit)

	if mode == ModeSample {
		sb.OrderBy("RANDOM()")
	} else {
		sb.OrderBy("created_at DESC", "id DESC")
	}

	query, args := sb.Build()

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent articles: %w", err)
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		var article Article
		err := rows.Scan(
			&article.ID, &article.Title, &article.Description, &article.URL,
			&article.PublishedDate, &article.Source, &article.Category,
			&article.ImageURL, &article.LocalImagePath, &article.PostedToSocial,
			&article.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article row: %w", err)
		}
		articles = append(articles, article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating article rows: %w", err)
	}

	return articles, nil
}

// GetStats computes aggregate counters from the current store state.
func (r *SQLiteArticleRepository) GetStats() (Stats, error) {
	var stats Stats

	if err := r.db.QueryRow("SELECT COUNT(*) FROM articles").Scan(&stats.TotalArticles); err != nil {
		return Stats{}, fmt.Errorf("failed to count articles: %w", err)
	}

	if err := r.db.QueryRow("SELECT COUNT(*) FROM articles WHERE posted_to_social = 1").Scan(&stats.PostedToSocial); err != nil {
		return Stats{}, fmt.Errorf("failed to count posted articles: %w", err)
	}

	if err := r.db.QueryRow("SELECT COUNT(DISTINCT source) FROM articles").Scan(&stats.SourcesCount); err != nil {
		return Stats{}, fmt.Errorf("failed to count distinct sources: %w", err)
	}

	return stats, nil
}

// MarkPosted sets the social-post flag. This is the only permitted mutation
// of a stored article; it exists for the posting collaborator.
func (r *SQLiteArticleRepository) MarkPosted(id int64) error {
	result, err := r.db.Exec("UPDATE articles SET posted_to_social = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to mark article as posted: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("article %d not found", id)
	}

	return nil
}
