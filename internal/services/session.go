package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dimitrije/trainerhub/internal/database"
	"github.com/dimitrije/trainerhub/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type userLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// SessionService issues token pairs and keeps the refresh tokens it handed
// out, so they can be rotated and revoked.
type SessionService struct {
	db    *database.DB
	jwt   *JWTService
	users userLookup
}

func NewSessionService(db *database.DB, jwt *JWTService, users userLookup) *SessionService {
	return &SessionService{db: db, jwt: jwt, users: users}
}

func (s *SessionService) Issue(ctx context.Context, user *models.User) (*TokenPair, error) {
	pair, err := s.jwt.GenerateTokenPair(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().Add(s.jwt.RefreshExpiry())
	if _, err := s.db.Pool.Exec(ctx, `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
	`, user.ID, HashToken(pair.RefreshToken), expiresAt); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return pair, nil
}

// Rotate exchanges a refresh token for a new pair. The old token is consumed
// by the same statement that checks it, so a token rotates at most once.
func (s *SessionService) Rotate(ctx context.Context, refreshToken string) (*TokenPair, *models.User, error) {
	if _, err := s.jwt.ValidateRefreshToken(refreshToken); err != nil {
		return nil, nil, ErrInvalidRefreshToken
	}

	var userID uuid.UUID
	err := s.db.Pool.QueryRow(ctx, `
		DELETE FROM refresh_tokens
		WHERE token_hash = $1 AND expires_at > NOW()
		RETURNING user_id
	`, HashToken(refreshToken)).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrInvalidRefreshToken
		}
		return nil, nil, fmt.Errorf("failed to consume refresh token: %w", err)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, ErrInvalidRefreshToken
		}
		return nil, nil, err
	}

	pair, err := s.Issue(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

func (s *SessionService) Revoke(ctx context.Context, refreshToken string) error {
	if _, err := s.db.Pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE token_hash = $1`, HashToken(refreshToken)); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

func (s *SessionService) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.db.Pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}
	return nil
}

func (s *SessionService) CleanupExpired(ctx context.Context) error {
	_, err := s.db.Pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at < NOW()`)
	return err
}
