// feed_repository.go implements the personalized update feed query: all
// versions of the packages a user follows, newest first.
package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/package-registry/package-registry/internal/db/models"
)

// FeedRepository reads the version history of followed packages.
type FeedRepository struct {
	db *sqlx.DB
}

// NewFeedRepository creates a new FeedRepository.
func NewFeedRepository(db *sqlx.DB) *FeedRepository {
	return &FeedRepository{db: db}
}

// Page returns one page of the user's update feed, ordered by publish time
// descending, plus a flag indicating whether a subsequent page would be
// non-empty. The query fetches limit+1 rows and trims the probe row rather
// than issuing a second COUNT query.
func (r *FeedRepository) Page(ctx context.Context, userID string, limit, offset int) ([]models.FeedEntry, bool, error) {
	query := `
		SELECT v.id, v.package_id, v.num, v.published_by, v.created_at,
		       p.name AS package_name,
		       u.login AS published_by_login
		FROM versions v
		INNER JOIN packages p ON p.id = v.package_id
		LEFT JOIN users u ON u.id = v.published_by
		WHERE v.package_id IN (SELECT package_id FROM follows WHERE user_id = $1)
		ORDER BY v.created_at DESC
		LIMIT $2 OFFSET $3
	`

	entries := make([]models.FeedEntry, 0, limit+1)
	if err := r.db.SelectContext(ctx, &entries, query, userID, limit+1, offset); err != nil {
		return nil, false, err
	}

	more := len(entries) > limit
	if more {
		entries = entries[:limit]
	}

	return entries, more, nil
}
