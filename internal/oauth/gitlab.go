package oauth

import (
	"context"
	"fmt"

	"github.com/dimitrije/trainerhub/internal/config"
	"github.com/dimitrije/trainerhub/internal/models"
	"golang.org/x/oauth2"
)

var gitlabEndpoint = oauth2.Endpoint{
	AuthURL:  "https://gitlab.com/oauth/authorize",
	TokenURL: "https://gitlab.com/oauth/token",
}

type GitLabProvider struct {
	config *oauth2.Config
	apiURL string
}

func NewGitLabProvider(cfg config.OAuthConfig) *GitLabProvider {
	return &GitLabProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"read_user"},
			Endpoint:     gitlabEndpoint,
		},
		apiURL: "https://gitlab.com",
	}
}

func (p *GitLabProvider) Name() string {
	return models.ProviderGitLab
}

func (p *GitLabProvider) GetConsentURL(state, verifier string) string {
	return consentURL(p.config, state, verifier)
}

func (p *GitLabProvider) ExchangeCode(ctx context.Context, code, verifier string) (*UserInfo, error) {
	token, client, err := exchange(ctx, p.config, code, verifier)
	if err != nil {
		return nil, err
	}

	var glUser struct {
		ID        int    `json:"id"`
		Username  string `json:"username"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := getJSON(client, p.apiURL+"/api/v4/user", p.Name(), &glUser); err != nil {
		return nil, err
	}

	name := glUser.Name
	if name == "" {
		name = glUser.Username
	}

	return &UserInfo{
		ID:          fmt.Sprintf("%d", glUser.ID),
		Provider:    p.Name(),
		Email:       glUser.Email,
		Name:        name,
		AvatarURL:   glUser.AvatarURL,
		AccessToken: token.AccessToken,
	}, nil
}
