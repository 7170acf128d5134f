// Package postgres implements the store gateway contracts on postgres. Only
// the filter/sort/count primitives the core consumes are implemented here;
// schema ownership and migrations belong to the surrounding platform.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/circleapp/go-circle/env"
	"github.com/circleapp/go-circle/service/logger"
	"github.com/circleapp/go-circle/service/persist"
)

// NewPgxClient creates a connection pool from the configured connection params
func NewPgxClient() *pgxpool.Pool {
	ctx := context.Background()

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s",
		env.GetString("POSTGRES_HOST"),
		env.GetInt("POSTGRES_PORT"),
		env.GetString("POSTGRES_USER"),
		env.GetString("POSTGRES_PASSWORD"),
		env.GetString("POSTGRES_DB"),
	)

	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		logger.For(ctx).WithError(err).Fatal("could not parse pgx connection string")
	}

	pool, err := pgxpool.ConnectConfig(ctx, config)
	if err != nil {
		logger.For(ctx).WithError(err).Fatal("could not connect to postgres")
	}

	return pool
}

// NewRepositories wires every gateway implementation onto one pool
func NewRepositories(pool *pgxpool.Pool) (*persist.Repositories, persist.StoreCapabilities) {
	return &persist.Repositories{
		UserRepository:       &UserRepository{pool: pool},
		PostRepository:       &PostRepository{pool: pool},
		SocialRepository:     &SocialEdgeRepository{pool: pool},
		GroupRepository:      &GroupRepository{pool: pool},
		HashtagRepository:    &HashtagRepository{pool: pool},
		EngagementRepository: &EngagementRepository{pool: pool},
	}, Capabilities()
}

// Capabilities reports what this store supports. Postgres has ILIKE, so
// case-insensitive contains is always available.
func Capabilities() persist.StoreCapabilities {
	return persist.StoreCapabilities{SupportsCaseInsensitiveContains: true}
}

// containsPattern wraps a term for a LIKE/ILIKE contains match
func containsPattern(term string) string {
	return "%" + term + "%"
}

// likeOp picks the operator matching the requested case sensitivity
func likeOp(caseSensitive bool) string {
	if caseSensitive {
		return "LIKE"
	}
	return "ILIKE"
}
