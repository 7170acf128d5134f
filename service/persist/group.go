package persist

import (
	"context"
	"fmt"
	"time"
)

// GroupPrivacy controls who may see a group and its content
type GroupPrivacy string

const (
	GroupPrivacyPublic  GroupPrivacy = "PUBLIC"
	GroupPrivacyPrivate GroupPrivacy = "PRIVATE"
)

// GroupRole is a member's role inside a group
type GroupRole string

const (
	GroupRoleAdmin     GroupRole = "ADMIN"
	GroupRoleModerator GroupRole = "MODERATOR"
	GroupRoleMember    GroupRole = "MEMBER"
)

// Group represents a community of users
type Group struct {
	ID          DBID         `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Privacy     GroupPrivacy `json:"privacy"`
	CreatedAt   time.Time    `json:"created_at"`
	MemberCount int          `json:"member_count"`
}

// GroupMembership ties a user to a group with a role
type GroupMembership struct {
	UserID  DBID      `json:"user_id"`
	GroupID DBID      `json:"group_id"`
	Role    GroupRole `json:"role"`
}

// SearchGroupsParams filter groups whose name or description contain the
// term. VisibleToID restricts private groups to ones the requester belongs to.
type SearchGroupsParams struct {
	Term           string
	CaseSensitive  bool
	VisibleToID    DBID
	MemberGroupIDs DBIDList
	Privacy        *GroupPrivacy
	Limit          int32
	Offset         int32
}

// GroupRepository represents the interface for interacting with the persisted state of groups
type GroupRepository interface {
	GetByID(context.Context, DBID) (Group, error)
	GetByIDs(context.Context, []DBID) ([]Group, error)
	SearchGroups(context.Context, SearchGroupsParams) ([]Group, error)
	CountSearchGroups(context.Context, SearchGroupsParams) (int, error)
	MembershipsForUser(context.Context, DBID) ([]GroupMembership, error)
	PendingJoinRequestsForUser(context.Context, DBID) (DBIDList, error)
}

// ErrGroupNotFound is returned when a group is not found
type ErrGroupNotFound struct {
	GroupID DBID
}

func (e ErrGroupNotFound) Error() string {
	return fmt.Sprintf("group not found: ID: %s", e.GroupID)
}
