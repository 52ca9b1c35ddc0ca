// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"github.com/spf13/cobra"

	"edutools/internal/gworkspace"
)

var (
	authoriseGmail bool
	authoriseAddr  string
)

func init() {
	authoriseCmd.Flags().BoolVar(&authoriseGmail, "gmail", false, "authorise the Gmail send scope instead of Docs/Drive")
	authoriseCmd.Flags().StringVar(&authoriseAddr, "listen", "localhost:8780", "address for the OAuth callback server")
}

var authoriseCmd = &cobra.Command{
	Use:     "authorise",
	Aliases: []string{"authorize"},
	Short:   "Run the Google OAuth flow and cache the token",
	Long: `Runs the installed-app OAuth flow for the configured Google credentials:
starts a local callback server, opens the browser, and caches the token.

Docs/Drive and Gmail use separate tokens; run once without flags and once
with --gmail if you use both. Service account credentials need no
authorisation step.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		auth, err := gworkspace.NewAuthenticator(cfg.Google)
		if err != nil {
			fail("%v", err)
		}

		scopes := gworkspace.DocsScopes
		if authoriseGmail {
			scopes = gworkspace.GmailScopes
		}

		if err := auth.Authorise(cmd.Context(), scopes, authoriseAddr); err != nil {
			fail("Authorisation failed: %v", err)
		}
		successColor.Println("Token cached. You're good to go.")
	},
}
