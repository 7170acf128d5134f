package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/circleapp/go-circle/service/persist"
)

// GroupRepository is the postgres implementation of persist.GroupRepository
type GroupRepository struct {
	pool *pgxpool.Pool
}

const groupColumns = `g.id, g.name, g.description, g.privacy, g.created_at,
	(SELECT count(*) FROM group_members gm WHERE gm.group_id = g.id) AS member_count`

func (r *GroupRepository) GetByID(ctx context.Context, id persist.DBID) (persist.Group, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT %s FROM groups g WHERE g.id = $1 AND g.deleted = false`, groupColumns), id)

	group, err := scanGroup(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return persist.Group{}, persist.ErrGroupNotFound{GroupID: id}
	}
	return group, err
}

func (r *GroupRepository) GetByIDs(ctx context.Context, ids []persist.DBID) ([]persist.Group, error) {
	if len(ids) == 0 {
		return []persist.Group{}, nil
	}

	rows, err := r.pool.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM groups g WHERE g.id = ANY($1) AND g.deleted = false`, groupColumns), dbidStrings(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanGroups(rows)
}

// groupSearchWhere matches the term against name and description and hides
// private groups the requester doesn't belong to.
// Args: $1 term pattern, $2 member group ids.
func groupSearchWhere(op string) string {
	return fmt.Sprintf(`g.deleted = false
		AND (g.name %[1]s $1 OR g.description %[1]s $1)
		AND (g.privacy = 'PUBLIC' OR g.id = ANY($2))`, op)
}

func (r *GroupRepository) SearchGroups(ctx context.Context, params persist.SearchGroupsParams) ([]persist.Group, error) {
	where, args := r.searchFilter(params)

	query := fmt.Sprintf(`SELECT %s FROM groups g WHERE %s
		ORDER BY member_count DESC, g.id DESC LIMIT %d OFFSET %d`,
		groupColumns, where, params.Limit, params.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanGroups(rows)
}

func (r *GroupRepository) CountSearchGroups(ctx context.Context, params persist.SearchGroupsParams) (int, error) {
	where, args := r.searchFilter(params)

	var count int
	err := r.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT count(*) FROM groups g WHERE %s`, where), args...).Scan(&count)
	return count, err
}

func (r *GroupRepository) searchFilter(params persist.SearchGroupsParams) (string, []any) {
	where := groupSearchWhere(likeOp(params.CaseSensitive))
	args := []any{containsPattern(params.Term), dbidStrings(params.MemberGroupIDs)}

	if params.Privacy != nil {
		args = append(args, string(*params.Privacy))
		where += fmt.Sprintf(" AND g.privacy = $%d", len(args))
	}

	return where, args
}

func (r *GroupRepository) MembershipsForUser(ctx context.Context, userID persist.DBID) ([]persist.GroupMembership, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT gm.user_id, gm.group_id, gm.role FROM group_members gm
		JOIN groups g ON g.id = gm.group_id AND g.deleted = false
		WHERE gm.user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	memberships := []persist.GroupMembership{}
	for rows.Next() {
		var m persist.GroupMembership
		if err := rows.Scan(&m.UserID, &m.GroupID, &m.Role); err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}

func (r *GroupRepository) PendingJoinRequestsForUser(ctx context.Context, userID persist.DBID) (persist.DBIDList, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT group_id FROM group_join_requests WHERE user_id = $1 AND status = 'PENDING'`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanDBIDs(rows)
}

func scanGroup(row rowScanner) (persist.Group, error) {
	var g persist.Group
	err := row.Scan(&g.ID, &g.Name, &g.Description, &g.Privacy, &g.CreatedAt, &g.MemberCount)
	return g, err
}

func scanGroups(rows pgx.Rows) ([]persist.Group, error) {
	groups := []persist.Group{}
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}
