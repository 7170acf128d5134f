package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/circleapp/go-circle/service/persist"
)

// HashtagRepository is the postgres implementation of persist.HashtagRepository.
// Hashtags aren't a table of their own; usage is aggregated from the tag
// arrays on public posts at query time.
type HashtagRepository struct {
	pool *pgxpool.Pool
}

const hashtagFrom = `(
	SELECT tag AS name, count(*) AS usage_count
	FROM posts p, unnest(p.hashtags) AS tag
	WHERE p.deleted = false AND p.visibility = 'PUBLIC'
	GROUP BY tag
) h`

func (r *HashtagRepository) SearchHashtags(ctx context.Context, params persist.SearchHashtagsParams) ([]persist.Hashtag, error) {
	query := fmt.Sprintf(`SELECT h.name, h.usage_count FROM %s
		WHERE h.name %s $1
		ORDER BY h.usage_count DESC, h.name ASC LIMIT %d OFFSET %d`,
		hashtagFrom, likeOp(params.CaseSensitive), params.Limit, params.Offset)

	rows, err := r.pool.Query(ctx, query, containsPattern(params.Term))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanHashtags(rows)
}

func (r *HashtagRepository) CountSearchHashtags(ctx context.Context, params persist.SearchHashtagsParams) (int, error) {
	query := fmt.Sprintf(`SELECT count(*) FROM %s WHERE h.name %s $1`,
		hashtagFrom, likeOp(params.CaseSensitive))

	var count int
	err := r.pool.QueryRow(ctx, query, containsPattern(params.Term)).Scan(&count)
	return count, err
}

func (r *HashtagRepository) TrendingHashtags(ctx context.Context, limit int32) ([]persist.Hashtag, error) {
	query := fmt.Sprintf(`SELECT h.name, h.usage_count FROM %s
		ORDER BY h.usage_count DESC, h.name ASC LIMIT $1`, hashtagFrom)

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanHashtags(rows)
}

func scanHashtags(rows pgx.Rows) ([]persist.Hashtag, error) {
	hashtags := []persist.Hashtag{}
	for rows.Next() {
		var h persist.Hashtag
		if err := rows.Scan(&h.Name, &h.UsageCount); err != nil {
			return nil, err
		}
		hashtags = append(hashtags, h)
	}
	return hashtags, rows.Err()
}
