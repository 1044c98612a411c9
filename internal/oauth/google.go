package oauth

import (
	"context"

	"github.com/dimitrije/trainerhub/internal/config"
	"github.com/dimitrije/trainerhub/internal/models"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

type GoogleProvider struct {
	config *oauth2.Config
	apiURL string
}

func NewGoogleProvider(cfg config.OAuthConfig) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		apiURL: "https://www.googleapis.com",
	}
}

func (p *GoogleProvider) Name() string {
	return models.ProviderGoogle
}

func (p *GoogleProvider) GetConsentURL(state, verifier string) string {
	return consentURL(p.config, state, verifier)
}

func (p *GoogleProvider) ExchangeCode(ctx context.Context, code, verifier string) (*UserInfo, error) {
	token, client, err := exchange(ctx, p.config, code, verifier)
	if err != nil {
		return nil, err
	}

	var gUser struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := getJSON(client, p.apiURL+"/oauth2/v2/userinfo", p.Name(), &gUser); err != nil {
		return nil, err
	}

	return &UserInfo{
		ID:          gUser.ID,
		Provider:    p.Name(),
		Email:       gUser.Email,
		Name:        gUser.Name,
		AvatarURL:   gUser.Picture,
		AccessToken: token.AccessToken,
	}, nil
}
