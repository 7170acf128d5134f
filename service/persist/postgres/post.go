package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/circleapp/go-circle/service/persist"
)

// PostRepository is the postgres implementation of persist.PostRepository
type PostRepository struct {
	pool *pgxpool.Pool
}

const postColumns = `p.id, p.author_id, u.name, p.created_at, p.visibility, p.kind, p.title, p.content,
	p.likes, p.comments, p.shares, p.views, p.avg_completion_ratio, p.image_url, p.image_urls,
	p.video_url, p.hashtags, p.group_id, p.specific_viewer_ids, p.poll_options`

const postFrom = `posts p JOIN users u ON u.id = p.author_id AND u.deleted = false AND u.is_banned = false`

func (r *PostRepository) GetByID(ctx context.Context, id persist.DBID) (persist.Post, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT %s FROM %s WHERE p.id = $1 AND p.deleted = false`, postColumns, postFrom), id)

	post, err := scanPost(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return persist.Post{}, persist.ErrPostNotFound{PostID: id}
	}
	return post, err
}

// searchPostsWhere matches the term against content, title, any comment,
// any tagged friend's name, or the author's name, then intersects with the
// eligibility rule: requester is the author, the post is PUBLIC, FRIENDS
// with a friend author, or SPECIFIC_FRIENDS with the requester allowed.
// Args: $1 term pattern, $2 requester id, $3 friend ids.
func searchPostsWhere(op string) string {
	return fmt.Sprintf(`p.deleted = false AND (
		p.content %[1]s $1 OR p.title %[1]s $1 OR u.name %[1]s $1
		OR EXISTS (SELECT 1 FROM post_comments pc WHERE pc.post_id = p.id AND pc.content %[1]s $1)
		OR EXISTS (
			SELECT 1 FROM post_tags pt JOIN users tu ON tu.id = pt.user_id
			WHERE pt.post_id = p.id AND tu.name %[1]s $1
		)
	) AND (
		p.author_id = $2
		OR p.visibility = 'PUBLIC'
		OR (p.visibility = 'FRIENDS' AND p.author_id = ANY($3))
		OR (p.visibility = 'SPECIFIC_FRIENDS' AND $2 = ANY(p.specific_viewer_ids))
	)`, op)
}

func (r *PostRepository) SearchPosts(ctx context.Context, params persist.SearchPostsParams) ([]persist.Post, error) {
	where, args := r.searchFilter(params)

	var orderBy string
	switch params.Sort {
	case persist.PostSortPopular:
		orderBy = "p.likes DESC, p.comments DESC, p.id DESC"
	case persist.PostSortRelevance:
		orderBy = "p.likes DESC, p.created_at DESC, p.id DESC"
	default:
		orderBy = "p.created_at DESC, p.id DESC"
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s ORDER BY %s LIMIT %d OFFSET %d`,
		postColumns, postFrom, where, orderBy, params.Limit, params.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPosts(rows)
}

func (r *PostRepository) CountSearchPosts(ctx context.Context, params persist.SearchPostsParams) (int, error) {
	where, args := r.searchFilter(params)

	var count int
	err := r.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT count(*) FROM %s WHERE %s`, postFrom, where), args...).Scan(&count)
	return count, err
}

// searchFilter builds the WHERE clause and args shared by the page fetch and
// the count query, so both paths always see the same filter
func (r *PostRepository) searchFilter(params persist.SearchPostsParams) (string, []any) {
	where := searchPostsWhere(likeOp(params.CaseSensitive))
	args := []any{containsPattern(params.Term), params.VisibleToID, dbidStrings(params.FriendIDs)}

	if !params.CreatedWithin.From.IsZero() {
		args = append(args, params.CreatedWithin.From)
		where += fmt.Sprintf(" AND p.created_at >= $%d", len(args))
	}
	if !params.CreatedWithin.To.IsZero() {
		args = append(args, params.CreatedWithin.To)
		where += fmt.Sprintf(" AND p.created_at <= $%d", len(args))
	}

	if params.Kind != nil {
		switch *params.Kind {
		case persist.PostKindPoll:
			// A poll is a post with at least one poll option.
			where += " AND cardinality(p.poll_options) > 0"
		default:
			args = append(args, string(*params.Kind))
			where += fmt.Sprintf(" AND p.kind = $%d", len(args))
		}
	}

	if params.HasMedia != nil {
		if *params.HasMedia {
			where += " AND (p.image_url <> '' OR p.video_url <> '' OR cardinality(p.image_urls) > 0)"
		} else {
			where += " AND p.image_url = '' AND p.video_url = '' AND cardinality(p.image_urls) = 0"
		}
	}

	return where, args
}

func (r *PostRepository) GetDiscoveryReels(ctx context.Context, params persist.DiscoveryReelsParams) ([]persist.Post, error) {
	args := []any{time.Now().Add(-params.MaxAge), params.Limit}
	exclude := ""
	if params.ExcludeAuthorID != "" {
		args = append(args, params.ExcludeAuthorID)
		exclude = " AND p.author_id <> $3"
	}

	query := fmt.Sprintf(`SELECT %s FROM %s
		WHERE p.deleted = false AND p.kind = 'reel' AND p.video_url <> ''
			AND p.visibility = 'PUBLIC' AND p.group_id = '' AND p.created_at >= $1%s
		ORDER BY p.created_at DESC, p.id DESC LIMIT $2`, postColumns, postFrom, exclude)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPosts(rows)
}

func (r *PostRepository) GetFollowingReels(ctx context.Context, params persist.FollowingReelsParams) ([]persist.Post, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s
		WHERE p.deleted = false AND p.kind = 'reel' AND p.video_url <> ''
			AND p.author_id = ANY($1)
		ORDER BY p.created_at DESC, p.id DESC LIMIT $2 OFFSET $3`, postColumns, postFrom)

	rows, err := r.pool.Query(ctx, query, dbidStrings(params.AuthorIDs), params.Take, params.Skip)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPosts(rows)
}

func (r *PostRepository) GetHashtagReels(ctx context.Context, params persist.HashtagReelsParams) ([]persist.Post, error) {
	// Forward paging walks newest to oldest; the opposite ORDER BY for
	// backward paging is reversed by the paginator.
	order := "DESC"
	if !params.PagingForward {
		order = "ASC"
	}

	query := fmt.Sprintf(`SELECT %s FROM %s
		WHERE p.deleted = false AND p.kind = 'reel' AND p.video_url <> ''
			AND $1 = ANY(p.hashtags)
			AND (p.visibility = 'PUBLIC' OR p.author_id = $2)
			AND (p.created_at, p.id) < ($3, $4)
			AND (p.created_at, p.id) > ($5, $6)
		ORDER BY p.created_at %[3]s, p.id %[3]s LIMIT $7`, postColumns, postFrom, order)

	rows, err := r.pool.Query(ctx, query, params.Tag, params.VisibleToID,
		params.CurBeforeTime, params.CurBeforeID, params.CurAfterTime, params.CurAfterID, params.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPosts(rows)
}

func scanPost(row rowScanner) (persist.Post, error) {
	var p persist.Post
	var completion pgtype.Float8

	err := row.Scan(&p.ID, &p.AuthorID, &p.AuthorName, &p.CreatedAt, &p.Visibility, &p.Kind,
		&p.Title, &p.Content, &p.Likes, &p.Comments, &p.Shares, &p.Views, &completion,
		&p.ImageURL, &p.ImageURLs, &p.VideoURL, &p.Hashtags, &p.GroupID, &p.SpecificViewerIDs, &p.PollOptions)
	if err != nil {
		return persist.Post{}, err
	}

	if completion.Status == pgtype.Present {
		ratio := completion.Float
		p.AvgCompletionRatio = &ratio
	}

	return p, nil
}

func scanPosts(rows pgx.Rows) ([]persist.Post, error) {
	posts := []persist.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}
