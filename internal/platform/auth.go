package platform

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Auth modes accepted by the platform client.
const (
	AuthNone  = "none"
	AuthToken = "token"
	AuthOAuth = "oauth"
)

// Credentials configures how requests to the platform are authorized.
type Credentials struct {
	Mode string

	// token mode
	Token string

	// oauth mode (client credentials grant)
	ClientID     string
	ClientSecret string
	TokenURL     string
	Scopes       []string
}

// authorizer adds an Authorization header to outgoing requests.
type authorizer interface {
	authorize(req *http.Request) error
}

type noAuth struct{}

func (noAuth) authorize(*http.Request) error { return nil }

type bearerAuth struct {
	token string
}

func (b bearerAuth) authorize(req *http.Request) error {
	req.Header.Set("Authorization", "Bearer "+b.token)
	return nil
}

type oauthAuth struct {
	source oauth2.TokenSource
}

func (o oauthAuth) authorize(req *http.Request) error {
	tok, err := o.source.Token()
	if err != nil {
		return fmt.Errorf("fetch oauth token: %w", err)
	}
	tok.SetAuthHeader(req)
	return nil
}

func newAuthorizer(ctx context.Context, creds Credentials) (authorizer, error) {
	switch creds.Mode {
	case "", AuthNone:
		return noAuth{}, nil

	case AuthToken:
		if creds.Token == "" {
			return nil, fmt.Errorf("token auth requires a token")
		}
		return bearerAuth{token: creds.Token}, nil

	case AuthOAuth:
		if creds.ClientID == "" || creds.TokenURL == "" {
			return nil, fmt.Errorf("oauth auth requires client_id and token_url")
		}
		cc := clientcredentials.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			TokenURL:     creds.TokenURL,
			Scopes:       creds.Scopes,
		}
		return oauthAuth{source: cc.TokenSource(ctx)}, nil

	default:
		return nil, fmt.Errorf("unknown auth mode %q", creds.Mode)
	}
}
