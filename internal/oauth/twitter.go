package oauth

import (
	"context"
	"fmt"

	"github.com/dimitrije/trainerhub/internal/config"
	"github.com/dimitrije/trainerhub/internal/models"
	"golang.org/x/oauth2"
)

var twitterEndpoint = oauth2.Endpoint{
	AuthURL:   "https://twitter.com/i/oauth2/authorize",
	TokenURL:  "https://api.twitter.com/2/oauth2/token",
	AuthStyle: oauth2.AuthStyleInHeader,
}

type TwitterProvider struct {
	config *oauth2.Config
	apiURL string
}

func NewTwitterProvider(cfg config.OAuthConfig) *TwitterProvider {
	return &TwitterProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"users.read", "tweet.read"},
			Endpoint:     twitterEndpoint,
		},
		apiURL: "https://api.twitter.com",
	}
}

func (p *TwitterProvider) Name() string {
	return models.ProviderTwitter
}

func (p *TwitterProvider) GetConsentURL(state, verifier string) string {
	return consentURL(p.config, state, verifier)
}

// ExchangeCode resolves the Twitter account. Twitter does not expose the
// account email through this scope set.
func (p *TwitterProvider) ExchangeCode(ctx context.Context, code, verifier string) (*UserInfo, error) {
	token, client, err := exchange(ctx, p.config, code, verifier)
	if err != nil {
		return nil, err
	}

	var body struct {
		Data struct {
			ID              string `json:"id"`
			Name            string `json:"name"`
			Username        string `json:"username"`
			ProfileImageURL string `json:"profile_image_url"`
		} `json:"data"`
	}
	if err := getJSON(client, p.apiURL+"/2/users/me?user.fields=profile_image_url", p.Name(), &body); err != nil {
		return nil, err
	}
	if body.Data.ID == "" {
		return nil, fmt.Errorf("twitter api returned no user id")
	}

	name := body.Data.Name
	if name == "" {
		name = body.Data.Username
	}

	return &UserInfo{
		ID:          body.Data.ID,
		Provider:    p.Name(),
		Name:        name,
		AvatarURL:   body.Data.ProfileImageURL,
		AccessToken: token.AccessToken,
	}, nil
}
