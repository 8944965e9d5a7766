// Package google implements the Google OAuth2 sign-in flow.
package google

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/core"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	oauth2v2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// ErrUnverifiedEmail rejects accounts whose email Google has not verified.
var ErrUnverifiedEmail = errors.New("google account email is not verified")

// Provider runs the authorization-code flow and fetches the user's identity.
type Provider struct {
	cfg *oauth2.Config
}

func NewProvider(clientID, clientSecret, redirectURL string) *Provider {
	return &Provider{cfg: &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     google.Endpoint,
		Scopes: []string{
			"openid",
			oauth2v2.UserinfoEmailScope,
			oauth2v2.UserinfoProfileScope,
		},
	}}
}

// AuthCodeURL is the consent page URL carrying state.
func (p *Provider) AuthCodeURL(state string) string {
	return p.cfg.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

// Exchange trades an authorization code for the verified Google identity.
func (p *Provider) Exchange(ctx context.Context, code string) (core.GoogleIdentity, error) {
	tok, err := p.cfg.Exchange(ctx, code)
	if err != nil {
		return core.GoogleIdentity{}, fmt.Errorf("token exchange: %w", err)
	}

	svc, err := oauth2v2.NewService(ctx, option.WithTokenSource(p.cfg.TokenSource(ctx, tok)))
	if err != nil {
		return core.GoogleIdentity{}, fmt.Errorf("create oauth2 service: %w", err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return core.GoogleIdentity{}, fmt.Errorf("fetch user info: %w", err)
	}
	return identityFromUserinfo(info)
}

func identityFromUserinfo(info *oauth2v2.Userinfo) (core.GoogleIdentity, error) {
	if info == nil || info.Id == "" || info.Email == "" {
		return core.GoogleIdentity{}, errors.New("google user info is incomplete")
	}
	if info.VerifiedEmail == nil || !*info.VerifiedEmail {
		return core.GoogleIdentity{}, ErrUnverifiedEmail
	}
	return core.GoogleIdentity{
		ID:      info.Id,
		Email:   info.Email,
		Name:    info.Name,
		Picture: info.Picture,
	}, nil
}
