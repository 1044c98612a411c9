package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dimitrije/trainerhub/internal/database"
	"github.com/dimitrije/trainerhub/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const providerTokenColumns = `id, user_id, provider, provider_id, provider_token, created_at`

// ProviderTokenService records which external identities belong to which
// user. Links are never updated in place; conflicts surface as ErrAlreadyLinked.
type ProviderTokenService struct {
	db *database.DB
}

func NewProviderTokenService(db *database.DB) *ProviderTokenService {
	return &ProviderTokenService{db: db}
}

func (s *ProviderTokenService) Link(ctx context.Context, userID uuid.UUID, provider, providerID, token string) (*models.ProviderToken, error) {
	link, err := scanProviderToken(s.db.Pool.QueryRow(ctx, `
		INSERT INTO users_providers_tokens (user_id, provider, provider_id, provider_token)
		VALUES ($1, $2, $3, $4)
		RETURNING `+providerTokenColumns,
		userID, provider, providerID, token,
	))
	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return nil, ErrAlreadyLinked
		}
		return nil, fmt.Errorf("failed to link provider: %w", err)
	}
	return link, nil
}

// Unlink reports whether a link was actually removed.
func (s *ProviderTokenService) Unlink(ctx context.Context, userID uuid.UUID, provider string) (bool, error) {
	tag, err := s.db.Pool.Exec(ctx, `
		DELETE FROM users_providers_tokens WHERE user_id = $1 AND provider = $2
	`, userID, provider)
	if err != nil {
		return false, fmt.Errorf("failed to unlink provider: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *ProviderTokenService) Get(ctx context.Context, userID uuid.UUID, provider string) (*models.ProviderToken, error) {
	link, err := scanProviderToken(s.db.Pool.QueryRow(ctx, `
		SELECT `+providerTokenColumns+` FROM users_providers_tokens
		WHERE user_id = $1 AND provider = $2
	`, userID, provider))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get provider link: %w", err)
	}
	return link, nil
}

func (s *ProviderTokenService) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.ProviderToken, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+providerTokenColumns+` FROM users_providers_tokens
		WHERE user_id = $1
		ORDER BY provider
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list provider links: %w", err)
	}
	defer rows.Close()

	links := []*models.ProviderToken{}
	for rows.Next() {
		link, err := scanProviderToken(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan provider link: %w", err)
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

func scanProviderToken(row pgx.Row) (*models.ProviderToken, error) {
	var p models.ProviderToken
	if err := row.Scan(&p.ID, &p.UserID, &p.Provider, &p.ProviderID, &p.ProviderToken, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
