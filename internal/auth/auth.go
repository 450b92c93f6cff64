package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/url"
	"time"

	"github.com/nhaumann/boardsync/internal/logging"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/spotify"
)

const (
	DefaultRedirectURI = "http://127.0.0.1:15298/callback"
	DefaultTimeout     = 3 * time.Minute
)

var DefaultScopes = []string{"user-read-currently-playing"}

type Options struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
	Timeout      time.Duration
}

func (o *Options) applyDefaults() {
	if o.RedirectURI == "" {
		o.RedirectURI = DefaultRedirectURI
	}
	if len(o.Scopes) == 0 {
		o.Scopes = DefaultScopes
	}
	if o.Timeout == 0 {
		o.Timeout = DefaultTimeout
	}
}

// Authorize runs the Spotify authorization-code flow: local callback server on
// the registered redirect URI, browser hand-off, code-for-token exchange. The
// returned token carries the refresh token written into the device config.
func Authorize(ctx context.Context, opts Options) (*oauth2.Token, error) {
	opts.applyDefaults()

	redirect, err := url.Parse(opts.RedirectURI)
	if err != nil || redirect.Hostname() == "" || redirect.Port() == "" {
		return nil, fmt.Errorf("redirect URI must include host and port, got '%s'", opts.RedirectURI)
	}

	state, err := randomState()
	if err != nil {
		return nil, fmt.Errorf("could not generate state parameter: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	codeCh, err := startCallbackServer(ctx, redirect, state)
	if err != nil {
		return nil, fmt.Errorf("could not start OAuth callback server: %w", err)
	}

	config := &oauth2.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		RedirectURL:  opts.RedirectURI,
		Scopes:       opts.Scopes,
		Endpoint:     spotify.Endpoint,
	}
	authURL := config.AuthCodeURL(state)

	logging.Infof("Trying to open your browser to authorize with Spotify: %s", authURL)
	openBrowser(authURL)

	code, err := waitForAuthCode(ctx, codeCh)
	if err != nil {
		return nil, fmt.Errorf("could not complete OAuth flow: %w", err)
	}

	tok, err := config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("could not exchange auth code: %w", err)
	}
	if tok.RefreshToken == "" {
		return nil, fmt.Errorf("no refresh token returned, revoke the app and authorize again")
	}

	logging.Info("Spotify authorization successful!")
	return tok, nil
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
