package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/dimitrije/trainerhub/internal/config"
	"golang.org/x/oauth2"
)

// UserInfo is the external identity returned by a provider after the code
// exchange. AccessToken is stored alongside the link.
type UserInfo struct {
	ID          string
	Provider    string
	Email       string
	Name        string
	AvatarURL   string
	AccessToken string
}

type Provider interface {
	Name() string
	GetConsentURL(state, verifier string) string
	ExchangeCode(ctx context.Context, code, verifier string) (*UserInfo, error)
}

type Registry map[string]Provider

// NewRegistry returns the providers that have a client id configured.
func NewRegistry(cfg *config.Config) Registry {
	r := Registry{}
	add := func(c config.OAuthConfig, build func(config.OAuthConfig) Provider) {
		if c.ClientID == "" {
			return
		}
		p := build(c)
		r[p.Name()] = p
	}

	add(cfg.Twitter, func(c config.OAuthConfig) Provider { return NewTwitterProvider(c) })
	add(cfg.GitHub, func(c config.OAuthConfig) Provider { return NewGitHubProvider(c) })
	add(cfg.GitLab, func(c config.OAuthConfig) Provider { return NewGitLabProvider(c) })
	add(cfg.Google, func(c config.OAuthConfig) Provider { return NewGoogleProvider(c) })
	return r
}

func (r Registry) Get(name string) (Provider, bool) {
	p, ok := r[name]
	return p, ok
}

func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// GenerateVerifier returns a PKCE code verifier.
func GenerateVerifier() string {
	return oauth2.GenerateVerifier()
}

func exchange(ctx context.Context, cfg *oauth2.Config, code, verifier string) (*oauth2.Token, *http.Client, error) {
	token, err := cfg.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	return token, cfg.Client(ctx, token), nil
}

func consentURL(cfg *oauth2.Config, state, verifier string) string {
	return cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))
}

func getJSON(client *http.Client, url, provider string, dst any) error {
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("failed to get user info: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s api returned status %d", provider, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("failed to decode user info: %w", err)
	}
	return nil
}
