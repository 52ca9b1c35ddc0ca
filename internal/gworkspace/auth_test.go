package gworkspace

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestSaveTokenPermissionsAndRoundTrip(t *testing.T) {
	a := &Authenticator{tokensDir: t.TempDir()}

	token := &oauth2.Token{
		AccessToken:  "ya29.test-access",
		RefreshToken: "1//test-refresh",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour).Round(time.Second),
	}
	if err := a.SaveToken(DocsScopes, token); err != nil {
		t.Fatalf("Unexpected error (%v)", err)
	}

	path := a.tokenPath(DocsScopes)
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Token file not written (%v)", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("Expected token file mode 0600, got %o", perm)
	}

	loaded, err := tokenFromFile(path)
	if err != nil {
		t.Fatalf("Unexpected error (%v)", err)
	}
	if loaded.AccessToken != token.AccessToken {
		t.Errorf("Access token did not round-trip, got %q", loaded.AccessToken)
	}
	if loaded.RefreshToken != token.RefreshToken {
		t.Errorf("Refresh token did not round-trip, got %q", loaded.RefreshToken)
	}
}

func TestSaveTokenCreatesTokensDir(t *testing.T) {
	a := &Authenticator{tokensDir: filepath.Join(t.TempDir(), "nested", "tokens")}

	if err := a.SaveToken(DocsScopes, &oauth2.Token{AccessToken: "x"}); err != nil {
		t.Fatalf("Unexpected error (%v)", err)
	}
	if _, err := os.Stat(a.tokenPath(DocsScopes)); err != nil {
		t.Errorf("Token file not written (%v)", err)
	}
}

func TestTokenPathSeparatesGmail(t *testing.T) {
	a := &Authenticator{tokensDir: "/tmp/tokens"}

	docsPath := a.tokenPath(DocsScopes)
	gmailPath := a.tokenPath(GmailScopes)
	if docsPath == gmailPath {
		t.Fatalf("Gmail token must be cached separately, both at %q", docsPath)
	}
	if filepath.Base(gmailPath) != "google_token_gmail.json" {
		t.Errorf("Unexpected gmail token filename %q", gmailPath)
	}
}
