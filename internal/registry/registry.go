// Package registry is the persisted store of enrolled identities and their
// reference embeddings. Recognition only ever reads a point-in-time snapshot
// of it; enrollment writes exactly one identity at a time.
package registry

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/turmalabs/presenca/internal/domain"
)

// Store defines identity registry access.
type Store interface {
	// ListAllEmbeddings returns every enrolled identity with its embedding.
	// The returned slice is a snapshot: callers must not observe writes that
	// happen after the call returns.
	ListAllEmbeddings(ctx context.Context) ([]domain.Identity, error)

	// Create enrolls a new identity.
	Create(ctx context.Context, identity *domain.Identity) error

	// Delete removes an enrolled identity by its external id.
	Delete(ctx context.Context, externalID string) error
}

// PgxPool abstracts *pgxpool.Pool so the store can be exercised against
// pgxmock in tests.
type PgxPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}
