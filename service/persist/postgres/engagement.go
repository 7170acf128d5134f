package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/circleapp/go-circle/service/persist"
)

// EngagementRepository is the postgres implementation of persist.EngagementRepository
type EngagementRepository struct {
	pool *pgxpool.Pool
}

func (r *EngagementRepository) RecentLikedAuthorIDs(ctx context.Context, userID persist.DBID, limit int32) (persist.DBIDList, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT t.author_id FROM (
			SELECT DISTINCT ON (p.author_id) p.author_id, l.created_at
			FROM post_likes l JOIN posts p ON p.id = l.post_id
			WHERE l.user_id = $1
			ORDER BY p.author_id, l.created_at DESC
		) t ORDER BY t.created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanDBIDs(rows)
}

func (r *EngagementRepository) SavedPostIDs(ctx context.Context, userID persist.DBID, postIDs persist.DBIDList) (persist.DBIDList, error) {
	if len(postIDs) == 0 {
		return persist.DBIDList{}, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT post_id FROM saved_posts WHERE user_id = $1 AND post_id = ANY($2)`,
		userID, dbidStrings(postIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanDBIDs(rows)
}

func (r *EngagementRepository) ReactionsToPosts(ctx context.Context, userID persist.DBID, postIDs persist.DBIDList) (map[persist.DBID]persist.Reaction, error) {
	reactions := map[persist.DBID]persist.Reaction{}
	if len(postIDs) == 0 {
		return reactions, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT post_id, reaction FROM post_reactions WHERE user_id = $1 AND post_id = ANY($2)`,
		userID, dbidStrings(postIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var postID persist.DBID
		var reaction persist.Reaction
		if err := rows.Scan(&postID, &reaction); err != nil {
			return nil, err
		}
		reactions[postID] = reaction
	}
	return reactions, rows.Err()
}

func scanDBIDs(rows pgx.Rows) (persist.DBIDList, error) {
	ids := persist.DBIDList{}
	for rows.Next() {
		var id persist.DBID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
