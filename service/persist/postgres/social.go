package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/circleapp/go-circle/service/persist"
)

// SocialEdgeRepository is the postgres implementation of persist.SocialEdgeRepository
type SocialEdgeRepository struct {
	pool *pgxpool.Pool
}

const edgeColumns = `sender_id, receiver_id, status, created_at`

func (r *SocialEdgeRepository) EdgesTouching(ctx context.Context, userID persist.DBID) ([]persist.SocialEdge, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+edgeColumns+` FROM social_edges WHERE sender_id = $1 OR receiver_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEdges(rows)
}

// EdgesTouchingMany fetches edges for a batch of users in one query. Callers
// that need per-user views partition the result themselves; an edge between
// two users in the batch appears once.
func (r *SocialEdgeRepository) EdgesTouchingMany(ctx context.Context, userIDs persist.DBIDList) ([]persist.SocialEdge, error) {
	if len(userIDs) == 0 {
		return []persist.SocialEdge{}, nil
	}

	ids := dbidStrings(userIDs)
	rows, err := r.pool.Query(ctx,
		`SELECT `+edgeColumns+` FROM social_edges WHERE sender_id = ANY($1) OR receiver_id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEdges(rows)
}

func scanEdges(rows pgx.Rows) ([]persist.SocialEdge, error) {
	edges := []persist.SocialEdge{}
	for rows.Next() {
		var e persist.SocialEdge
		if err := rows.Scan(&e.SenderID, &e.ReceiverID, &e.Status, &e.CreatedAt); err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}
