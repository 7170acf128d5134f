package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/circleapp/go-circle/service/persist"
)

// UserRepository is the postgres implementation of persist.UserRepository
type UserRepository struct {
	pool *pgxpool.Pool
}

const userColumns = `u.id, u.created_at, u.name, u.email, u.headline, u.bio, u.location, u.avatar_url, u.skills, u.is_banned`

// userSearchWhere matches the term against every searchable profile field,
// including skill names and experience titles/companies. Banned and deleted
// users never match.
func userSearchWhere(op string) string {
	return fmt.Sprintf(`u.deleted = false AND u.is_banned = false AND (
		u.name %[1]s $1 OR u.email %[1]s $1 OR u.headline %[1]s $1
		OR u.bio %[1]s $1 OR u.location %[1]s $1
		OR EXISTS (SELECT 1 FROM unnest(u.skills) AS skill WHERE skill %[1]s $1)
		OR EXISTS (
			SELECT 1 FROM experiences e
			WHERE e.user_id = u.id AND (e.title %[1]s $1 OR e.company %[1]s $1)
		)
	)`, op)
}

func (r *UserRepository) GetByID(ctx context.Context, id persist.DBID) (persist.User, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT %s FROM users u WHERE u.id = $1 AND u.deleted = false`, userColumns), id)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return persist.User{}, persist.ErrUserNotFound{UserID: id}
	}
	return user, err
}

func (r *UserRepository) GetByIDs(ctx context.Context, ids []persist.DBID) ([]persist.User, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM users u WHERE u.id = ANY($1) AND u.deleted = false`, userColumns), dbidStrings(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanUsers(rows)
}

func (r *UserRepository) SearchUsers(ctx context.Context, params persist.SearchUsersParams) ([]persist.User, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM users u WHERE %s ORDER BY u.created_at DESC, u.id DESC LIMIT $2 OFFSET $3`,
		userColumns, userSearchWhere(likeOp(params.CaseSensitive)))

	rows, err := r.pool.Query(ctx, query, containsPattern(params.Term), params.Limit, params.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanUsers(rows)
}

func (r *UserRepository) CountSearchUsers(ctx context.Context, params persist.SearchUsersParams) (int, error) {
	query := fmt.Sprintf(`SELECT count(*) FROM users u WHERE %s`, userSearchWhere(likeOp(params.CaseSensitive)))

	var count int
	err := r.pool.QueryRow(ctx, query, containsPattern(params.Term)).Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (persist.User, error) {
	var u persist.User
	err := row.Scan(&u.ID, &u.CreatedAt, &u.Name, &u.Email, &u.Headline, &u.Bio, &u.Location, &u.AvatarURL, &u.Skills, &u.IsBanned)
	return u, err
}

func scanUsers(rows pgx.Rows) ([]persist.User, error) {
	users := []persist.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func dbidStrings(ids []persist.DBID) []string {
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	return strs
}
