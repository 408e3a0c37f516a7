package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/turmalabs/presenca/internal/domain"
)

// PostgresStore persists identities in Postgres with a pgvector embedding
// column.
type PostgresStore struct {
	pool PgxPool
}

func NewPostgresStore(pool PgxPool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) ListAllEmbeddings(ctx context.Context) ([]domain.Identity, error) {
	query := `
		SELECT id, external_id, embedding, created_at, updated_at
		FROM identities
		WHERE embedding IS NOT NULL
		ORDER BY created_at, id
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, domain.ErrRegistryUnavailable.WithError(fmt.Errorf("list embeddings: %w", err))
	}
	defer rows.Close()

	var identities []domain.Identity
	for rows.Next() {
		var identity domain.Identity
		var embedding pgvector.Vector

		if err := rows.Scan(
			&identity.ID,
			&identity.ExternalID,
			&embedding,
			&identity.CreatedAt,
			&identity.UpdatedAt,
		); err != nil {
			return nil, domain.ErrRegistryUnavailable.WithError(fmt.Errorf("scan identity: %w", err))
		}

		identity.Embedding = toFloat64(embedding.Slice())
		identities = append(identities, identity)
	}

	if err := rows.Err(); err != nil {
		return nil, domain.ErrRegistryUnavailable.WithError(fmt.Errorf("iterate identities: %w", err))
	}

	return identities, nil
}

func (s *PostgresStore) Create(ctx context.Context, identity *domain.Identity) error {
	query := `
		INSERT INTO identities (id, external_id, embedding, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	if identity.ID == uuid.Nil {
		identity.ID = uuid.New()
	}

	var embedding *pgvector.Vector
	if len(identity.Embedding) > 0 {
		vec := pgvector.NewVector(toFloat32(identity.Embedding))
		embedding = &vec
	}

	err := s.pool.QueryRow(ctx, query,
		identity.ID,
		identity.ExternalID,
		embedding,
	).Scan(&identity.CreatedAt, &identity.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrIdentityExists
		}
		return fmt.Errorf("create identity: %w", err)
	}

	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, externalID string) error {
	query := `
		DELETE FROM identities
		WHERE external_id = $1
	`

	result, err := s.pool.Exec(ctx, query, externalID)
	if err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrIdentityNotFound
	}

	return nil
}

// GetByExternalID fetches a single identity, mainly for enrollment checks.
func (s *PostgresStore) GetByExternalID(ctx context.Context, externalID string) (*domain.Identity, error) {
	query := `
		SELECT id, external_id, embedding, created_at, updated_at
		FROM identities
		WHERE external_id = $1
	`

	var identity domain.Identity
	var embedding *pgvector.Vector

	err := s.pool.QueryRow(ctx, query, externalID).Scan(
		&identity.ID,
		&identity.ExternalID,
		&embedding,
		&identity.CreatedAt,
		&identity.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrIdentityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get identity by external_id: %w", err)
	}

	if embedding != nil && embedding.Slice() != nil {
		identity.Embedding = toFloat64(embedding.Slice())
	}

	return &identity, nil
}

func toFloat32(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}

func toFloat64(in []float32) []float64 {
	if in == nil {
		return nil
	}
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}

// isUniqueViolation checks if the error is a unique constraint violation
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "23505") ||
		strings.Contains(errMsg, "unique") ||
		strings.Contains(errMsg, "duplicate key")
}

var _ Store = (*PostgresStore)(nil)
