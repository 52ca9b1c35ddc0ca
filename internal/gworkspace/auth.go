// SPDX-License-Identifier: Apache-2.0

// Package gworkspace wraps the Google Workspace APIs (Docs, Drive, Gmail)
// used to hand out documents and credentials to students. Authentication
// supports both service accounts (server-to-server, no sign-in step) and
// installed-app OAuth clients with a cached token.
package gworkspace

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/gmail/v1"

	"edutools/internal/config"
)

// DocsScopes cover document creation and sharing of app-created files.
var DocsScopes = []string{docs.DocumentsScope, drive.DriveFileScope}

// GmailScopes cover sending mail only.
var GmailScopes = []string{gmail.GmailSendScope}

// Authenticator resolves Google credentials from the configured JSON file.
type Authenticator struct {
	credentials string
	tokensDir   string
}

func NewAuthenticator(cfg config.GoogleConfig) (*Authenticator, error) {
	if cfg.Credentials == "" {
		return nil, fmt.Errorf("google credentials not configured: set google.credentials in the config file or GOOGLE_CREDENTIALS")
	}

	credentials, err := config.ResolvePath(cfg.Credentials)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(credentials); err != nil {
		return nil, fmt.Errorf("google credentials file not readable: %w", err)
	}

	tokensDir := cfg.TokensDir
	if tokensDir == "" {
		dir, err := config.ConfigDir()
		if err != nil {
			return nil, err
		}
		tokensDir = dir
	}

	return &Authenticator{credentials: credentials, tokensDir: tokensDir}, nil
}

// tokenPath returns the token cache file for a scope set. Gmail tokens are
// cached separately to avoid scope conflicts with the Docs/Drive token.
func (a *Authenticator) tokenPath(scopes []string) string {
	for _, scope := range scopes {
		if strings.Contains(scope, "gmail") {
			return filepath.Join(a.tokensDir, "google_token_gmail.json")
		}
	}
	return filepath.Join(a.tokensDir, "google_token.json")
}

// Client returns an authenticated HTTP client for the given scopes.
//
// Service account JSON files are used directly (JWT flow). Installed-app
// OAuth client files require a previously cached token; the caller is told
// to run the authorise flow when none exists.
func (a *Authenticator) Client(ctx context.Context, scopes []string) (*http.Client, error) {
	b, err := os.ReadFile(a.credentials)
	if err != nil {
		return nil, fmt.Errorf("failed to read google credentials: %w", err)
	}

	if jwtConfig, err := google.JWTConfigFromJSON(b, scopes...); err == nil {
		return jwtConfig.Client(ctx), nil
	}

	oauthConfig, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, fmt.Errorf("unrecognized google credentials file %s: %w", a.credentials, err)
	}

	token, err := tokenFromFile(a.tokenPath(scopes))
	if err != nil {
		return nil, fmt.Errorf("no cached google token: run 'edutools authorise' first (%w)", err)
	}

	return oauthConfig.Client(ctx, token), nil
}

// OAuthConfig returns the installed-app OAuth config, or an error when the
// credentials file is a service account (which needs no authorise step).
func (a *Authenticator) OAuthConfig(scopes []string) (*oauth2.Config, error) {
	b, err := os.ReadFile(a.credentials)
	if err != nil {
		return nil, fmt.Errorf("failed to read google credentials: %w", err)
	}

	if _, err := google.JWTConfigFromJSON(b, scopes...); err == nil {
		return nil, fmt.Errorf("credentials file is a service account; no authorisation step is needed")
	}

	oauthConfig, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, fmt.Errorf("unrecognized google credentials file %s: %w", a.credentials, err)
	}
	return oauthConfig, nil
}

// SaveToken caches an OAuth token for the given scopes.
func (a *Authenticator) SaveToken(scopes []string, token *oauth2.Token) error {
	path := a.tokenPath(scopes)
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create tokens directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache oauth token: %w", err)
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(token)
}

// tokenFromFile retrieves a cached token.
func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	token := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(token)
	return token, err
}
