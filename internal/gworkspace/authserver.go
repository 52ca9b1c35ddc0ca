// SPDX-License-Identifier: Apache-2.0

package gworkspace

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"os/exec"
	"runtime"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/oauth2"

	"edutools/internal/logger"
)

const oauthState = "edutools-oauth"

var landingPage = template.Must(template.New("landing").Parse(`<!DOCTYPE html>
<html>
<head><title>edutools authorisation</title></head>
<body>
<h1>edutools</h1>
<p><a href="{{.AuthURL}}">Authorise edutools to access your Google account</a></p>
</body>
</html>
`))

var donePage = `<!DOCTYPE html>
<html>
<head><title>edutools authorisation</title></head>
<body>
<h1>Authorised</h1>
<p>You can close this tab and return to the terminal.</p>
</body>
</html>
`

// Authorise runs the installed-app OAuth flow: it serves a landing page on
// addr (e.g. "localhost:8780"), opens the browser, waits for Google to
// redirect back with an authorisation code, exchanges the code and caches
// the token for the given scopes.
func (a *Authenticator) Authorise(ctx context.Context, scopes []string, addr string) error {
	oauthConfig, err := a.OAuthConfig(scopes)
	if err != nil {
		return err
	}
	oauthConfig.RedirectURL = fmt.Sprintf("http://%s/callback", addr)

	authURL := oauthConfig.AuthCodeURL(oauthState, oauth2.AccessTypeOffline)
	authorised := make(chan string, 1)

	router := mux.NewRouter()
	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if err := landingPage.Execute(w, map[string]string{"AuthURL": authURL}); err != nil {
			http.Error(w, "Internal error formatting page", http.StatusInternalServerError)
		}
	})
	router.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		state := r.FormValue("state")
		code := r.FormValue("code")

		if state != oauthState || code == "" {
			http.Error(w, "Invalid authorisation response", http.StatusBadRequest)
			return
		}

		fmt.Fprint(w, donePage)
		authorised <- code
	})

	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("OAuth callback server failed: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warnf("OAuth callback server shutdown: %v", err)
		}
	}()

	fmt.Printf("Open the following link in your browser to authorise edutools:\n\n  %s\n\n", authURL)
	openBrowser(fmt.Sprintf("http://%s/", addr))

	select {
	case <-ctx.Done():
		return ctx.Err()

	case code := <-authorised:
		token, err := oauthConfig.Exchange(ctx, code)
		if err != nil {
			return fmt.Errorf("unable to exchange authorisation code: %w", err)
		}
		if err := a.SaveToken(scopes, token); err != nil {
			return err
		}
	}

	return nil
}

// openBrowser makes a best-effort attempt to open a URL in the default
// browser. Failure is not an error; the URL is printed either way.
func openBrowser(url string) {
	var command *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		command = exec.Command("open", url)
	case "windows":
		command = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		command = exec.Command("xdg-open", url)
	}

	if err := command.Start(); err != nil {
		logger.Debugf("Could not open browser: %v", err)
	}
}
