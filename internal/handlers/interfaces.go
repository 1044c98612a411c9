package handlers

import (
	"context"

	"github.com/dimitrije/trainerhub/internal/models"
	"github.com/dimitrije/trainerhub/internal/oauth"
	"github.com/dimitrije/trainerhub/internal/services"
	"github.com/google/uuid"
)

// AccountServiceInterface defines the methods used by handlers from AccountService
type AccountServiceInterface interface {
	RegisterUser(ctx context.Context, in services.RegisterInput) (*models.User, *services.TokenPair, error)
	CreateUserByAdministrator(ctx context.Context, actor *models.User, in services.AdminCreateInput) (*models.User, error)
	DeleteUser(ctx context.Context, actor *models.User, uniqid string) (*models.User, error)
	UpdateUser(ctx context.Context, actor *models.User, uniqid string, in services.UpdateInput) (*models.User, error)
	UpdatePassword(ctx context.Context, actor *models.User, uniqid string, in services.PasswordInput) (*services.TokenPair, error)
	SetupPassword(ctx context.Context, in services.SetupPasswordInput) (*models.User, *services.TokenPair, error)
	Login(ctx context.Context, email, password string) (*models.User, *services.TokenPair, error)
	LinkProviderAccount(ctx context.Context, user *models.User, provider, externalID, externalToken string) (*models.ProviderToken, error)
	UnlinkProviderAccount(ctx context.Context, actor *models.User, uniqid, provider string) error
	Options() services.Options
}

// UserServiceInterface defines the methods used by handlers from UserService
type UserServiceInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByUniqueID(ctx context.Context, uniqid string) (*models.User, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	ListPaginated(ctx context.Context, opts services.ListOptions) ([]*models.User, *services.Pagination, error)
}

// ProviderTokenServiceInterface defines the methods used by handlers from ProviderTokenService
type ProviderTokenServiceInterface interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.ProviderToken, error)
}

// SessionServiceInterface defines the methods used by handlers from SessionService
type SessionServiceInterface interface {
	Rotate(ctx context.Context, refreshToken string) (*services.TokenPair, *models.User, error)
	Revoke(ctx context.Context, refreshToken string) error
	RevokeAll(ctx context.Context, userID uuid.UUID) error
}

// MediaServiceInterface defines the methods used by handlers from media.Service
type MediaServiceInterface interface {
	TrainerQR(ctx context.Context, user *models.User) (*models.ProfileMedia, error)
	URL(ctx context.Context, media *models.ProfileMedia) (string, error)
}

// LeadServiceInterface defines the methods used by handlers from LeadService
type LeadServiceInterface interface {
	Submit(ctx context.Context, in services.LeadInput) (*models.Lead, error)
}

// ProviderRegistry resolves configured OAuth providers by name
type ProviderRegistry interface {
	Get(name string) (oauth.Provider, bool)
	Names() []string
}
