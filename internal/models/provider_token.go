package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

const (
	ProviderTwitter = "twitter"
	ProviderGitHub  = "github"
	ProviderGitLab  = "gitlab"
	ProviderGoogle  = "google"
)

var Providers = []string{ProviderTwitter, ProviderGitHub, ProviderGitLab, ProviderGoogle}

var providerNames = map[string]string{
	ProviderTwitter: "Twitter",
	ProviderGitHub:  "GitHub",
	ProviderGitLab:  "GitLab",
	ProviderGoogle:  "Google",
}

func IsProvider(name string) bool {
	return slices.Contains(Providers, name)
}

// ProviderName is the display name used in user-facing messages.
func ProviderName(provider string) string {
	if name, ok := providerNames[provider]; ok {
		return name
	}
	return provider
}

// ProviderToken links a user to an identity at an external OAuth provider.
type ProviderToken struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	Provider      string    `json:"provider"`
	ProviderID    string    `json:"provider_id"`
	ProviderToken string    `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
}
