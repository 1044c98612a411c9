package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dimitrije/trainerhub/internal/database"
	"github.com/dimitrije/trainerhub/internal/models"
	"github.com/segmentio/ksuid"
)

// Fixtures provides factory methods for creating test data
type Fixtures struct {
	db      *database.DB
	counter int
}

// NewFixtures creates a new fixtures factory
func NewFixtures(db *database.DB) *Fixtures {
	return &Fixtures{db: db}
}

// CreateUser inserts an active customer with an empty profile
func (f *Fixtures) CreateUser(t *testing.T, opts ...UserOption) *models.User {
	t.Helper()
	f.counter++

	user := &models.User{
		UniqID:    ksuid.New().String(),
		Civility:  models.CivilityMr,
		FirstName: "Trainer",
		LastName:  fmt.Sprintf("Number%d", f.counter),
		Email:     fmt.Sprintf("trainer%d@example.com", f.counter),
		Role:      models.RoleCustomer,
		Locale:    models.LocaleEN,
		Timezone:  "UTC",
		Profile:   &models.Profile{},
	}

	for _, opt := range opts {
		opt(user)
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO users (uniqid, civility, first_name, last_name, email, password, role, locale, timezone, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`, user.UniqID, user.Civility, user.FirstName, user.LastName, user.Email, user.Password,
		user.Role, user.Locale, user.Timezone, user.DeletedAt,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	p := user.Profile
	err = f.db.Pool.QueryRow(ctx, `
		INSERT INTO users_profiles (user_id, friend_code, team_color)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, created_at, updated_at
	`, user.ID, p.FriendCode, p.TeamColor).Scan(&p.ID, &p.UserID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}

	return user
}

// UserOption configures a test user
type UserOption func(*models.User)

func WithEmail(email string) UserOption {
	return func(u *models.User) { u.Email = email }
}

func WithName(first, last string) UserOption {
	return func(u *models.User) {
		u.FirstName = first
		u.LastName = last
	}
}

func WithRole(role string) UserOption {
	return func(u *models.User) { u.Role = role }
}

// WithPasswordHash stores hash as-is; callers hash with services.HashPassword.
func WithPasswordHash(hash string) UserOption {
	return func(u *models.User) { u.Password = &hash }
}

func WithFriendCode(code string) UserOption {
	return func(u *models.User) { u.Profile.FriendCode = code }
}

func Deleted() UserOption {
	return func(u *models.User) {
		now := time.Now()
		u.DeletedAt = &now
	}
}

// CreateProviderLink inserts a provider token row directly
func (f *Fixtures) CreateProviderLink(t *testing.T, user *models.User, provider, providerID string) *models.ProviderToken {
	t.Helper()

	link := &models.ProviderToken{UserID: user.ID, Provider: provider, ProviderID: providerID, ProviderToken: "token-" + providerID}
	err := f.db.Pool.QueryRow(context.Background(), `
		INSERT INTO users_providers_tokens (user_id, provider, provider_id, provider_token)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, link.UserID, link.Provider, link.ProviderID, link.ProviderToken).Scan(&link.ID, &link.CreatedAt)
	if err != nil {
		t.Fatalf("failed to create provider link: %v", err)
	}

	return link
}
