package oauth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dimitrije/trainerhub/internal/config"
	"github.com/dimitrije/trainerhub/internal/models"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

type GitHubProvider struct {
	config *oauth2.Config
	apiURL string
}

func NewGitHubProvider(cfg config.OAuthConfig) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"user:email", "read:user"},
			Endpoint:     github.Endpoint,
		},
		apiURL: "https://api.github.com",
	}
}

func (p *GitHubProvider) Name() string {
	return models.ProviderGitHub
}

func (p *GitHubProvider) GetConsentURL(state, verifier string) string {
	return consentURL(p.config, state, verifier)
}

func (p *GitHubProvider) ExchangeCode(ctx context.Context, code, verifier string) (*UserInfo, error) {
	token, client, err := exchange(ctx, p.config, code, verifier)
	if err != nil {
		return nil, err
	}

	var ghUser struct {
		ID        int    `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := getJSON(client, p.apiURL+"/user", p.Name(), &ghUser); err != nil {
		return nil, err
	}

	email := ghUser.Email
	if email == "" {
		email, err = p.getPrimaryEmail(client)
		if err != nil {
			return nil, err
		}
	}

	name := ghUser.Name
	if name == "" {
		name = ghUser.Login
	}

	return &UserInfo{
		ID:          fmt.Sprintf("%d", ghUser.ID),
		Provider:    p.Name(),
		Email:       email,
		Name:        name,
		AvatarURL:   ghUser.AvatarURL,
		AccessToken: token.AccessToken,
	}, nil
}

func (p *GitHubProvider) getPrimaryEmail(client *http.Client) (string, error) {
	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := getJSON(client, p.apiURL+"/user/emails", p.Name(), &emails); err != nil {
		return "", fmt.Errorf("failed to get user emails: %w", err)
	}

	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email, nil
		}
	}
	for _, e := range emails {
		if e.Verified {
			return e.Email, nil
		}
	}
	if len(emails) > 0 {
		return emails[0].Email, nil
	}

	return "", fmt.Errorf("no email found")
}
