package media

import (
	"context"
	"errors"
	"fmt"

	"github.com/dimitrije/trainerhub/internal/database"
	"github.com/dimitrije/trainerhub/internal/models"
	"github.com/dimitrije/trainerhub/internal/services"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const mediaColumns = `id, profile_id, collection, name, file_name, mime_type, size, storage_key, created_at`

// ErrUnavailable is returned when a user has no QR code to show: the account
// is deleted or the profile carries no friend code.
var ErrUnavailable = errors.New("media unavailable")

type ProfileLookup interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
}

type Service struct {
	db        *database.DB
	profiles  ProfileLookup
	storage   Storage
	generator Generator
	log       *zap.Logger
}

func NewService(db *database.DB, profiles ProfileLookup, storage Storage, generator Generator, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{db: db, profiles: profiles, storage: storage, generator: generator, log: log}
}

// TrainerQR returns the QR code for the user's friend code, generating and
// storing it on first request. Later requests return the stored asset until
// the friend code changes.
func (s *Service) TrainerQR(ctx context.Context, user *models.User) (*models.ProfileMedia, error) {
	if user == nil || user.IsDeleted() {
		return nil, ErrUnavailable
	}

	profile, err := s.profiles.GetProfile(ctx, user.ID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return nil, ErrUnavailable
		}
		return nil, err
	}
	code := profile.FriendCode
	if code == "" {
		return nil, ErrUnavailable
	}

	existing, err := s.find(ctx, profile.ID, models.MediaCollectionTrainer)
	switch {
	case err == nil && existing.Name == code:
		return existing, nil
	case err == nil:
		if err := s.discard(ctx, existing); err != nil {
			return nil, err
		}
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, fmt.Errorf("failed to get media: %w", err)
	}

	png, err := s.generator.Generate(code)
	if err != nil {
		return nil, err
	}

	fileName := code + ".png"
	key := fmt.Sprintf("profiles/%s/%s/%s", profile.ID, models.MediaCollectionTrainer, fileName)
	if err := s.storage.Put(ctx, key, "image/png", png); err != nil {
		return nil, err
	}

	media, err := scanMedia(s.db.Pool.QueryRow(ctx, `
		INSERT INTO profiles_media (profile_id, collection, name, file_name, mime_type, size, storage_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (profile_id, collection) DO NOTHING
		RETURNING `+mediaColumns,
		profile.ID, models.MediaCollectionTrainer, code, fileName, "image/png", int64(len(png)), key,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		// A concurrent request stored it first.
		media, err = s.find(ctx, profile.ID, models.MediaCollectionTrainer)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to store media: %w", err)
	}

	s.log.Info("trainer qr generated",
		zap.String("user", user.UniqID),
		zap.String("key", media.StorageKey),
		zap.Int64("size", media.Size),
	)
	return media, nil
}

func (s *Service) URL(ctx context.Context, media *models.ProfileMedia) (string, error) {
	return s.storage.URL(ctx, media.StorageKey)
}

func (s *Service) find(ctx context.Context, profileID uuid.UUID, collection string) (*models.ProfileMedia, error) {
	return scanMedia(s.db.Pool.QueryRow(ctx, `
		SELECT `+mediaColumns+` FROM profiles_media
		WHERE profile_id = $1 AND collection = $2
	`, profileID, collection))
}

func (s *Service) discard(ctx context.Context, media *models.ProfileMedia) error {
	if _, err := s.db.Pool.Exec(ctx, `DELETE FROM profiles_media WHERE id = $1`, media.ID); err != nil {
		return fmt.Errorf("failed to delete stale media: %w", err)
	}
	if err := s.storage.Delete(ctx, media.StorageKey); err != nil {
		s.log.Warn("failed to delete stale media object", zap.String("key", media.StorageKey), zap.Error(err))
	}
	return nil
}

func scanMedia(row pgx.Row) (*models.ProfileMedia, error) {
	var m models.ProfileMedia
	err := row.Scan(&m.ID, &m.ProfileID, &m.Collection, &m.Name, &m.FileName, &m.MimeType, &m.Size, &m.StorageKey, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
