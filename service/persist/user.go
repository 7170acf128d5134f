package persist

import (
	"context"
	"fmt"
	"time"
)

// User represents a member of the platform
type User struct {
	ID          DBID         `json:"id"`
	CreatedAt   time.Time    `json:"created_at"`
	Name        string       `json:"name"`
	Email       string       `json:"email"`
	Headline    string       `json:"headline"`
	Bio         string       `json:"bio"`
	Location    string       `json:"location"`
	AvatarURL   string       `json:"avatar_url"`
	Skills      []string     `json:"skills"`
	Experiences []Experience `json:"experiences"`
	IsBanned    bool         `json:"-"`
	Deleted     bool         `json:"-"`
}

// Experience is a single entry of a user's work history
type Experience struct {
	Title   string `json:"title"`
	Company string `json:"company"`
}

// SearchUsersParams filter users whose profile fields contain the term.
// Banned and deleted users are always excluded by the store.
type SearchUsersParams struct {
	Term          string
	CaseSensitive bool
	Limit         int32
	Offset        int32
}

// UserRepository represents the interface for interacting with the persisted state of users
type UserRepository interface {
	GetByID(context.Context, DBID) (User, error)
	GetByIDs(context.Context, []DBID) ([]User, error)
	SearchUsers(context.Context, SearchUsersParams) ([]User, error)
	CountSearchUsers(context.Context, SearchUsersParams) (int, error)
}

// ErrUserNotFound is returned when a user is not found
type ErrUserNotFound struct {
	UserID DBID
}

func (e ErrUserNotFound) Error() string {
	return fmt.Sprintf("user not found: ID: %s", e.UserID)
}
