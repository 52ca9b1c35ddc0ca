// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"edutools/internal/canvas"
	"edutools/internal/config"
	"edutools/internal/gworkspace"
	"edutools/internal/logger"
)

var (
	cfg config.Config

	statusColor     = color.New(color.FgCyan)
	errorColor      = color.New(color.FgRed)
	successColor    = color.New(color.FgGreen)
	warnColor       = color.New(color.FgYellow)
	identifierColor = color.New(color.FgBlue)
)

var rootCmd = &cobra.Command{
	Use:   "edutools",
	Short: "Course tooling CLI",
	Long: `Command-line tools for teaching a course: Canvas queries and grade
imports, Google Docs/Drive/Gmail helpers, and AWS student environment
provisioning (IAM console accounts and EC2 lab instances).

Run with no arguments to open the interactive course browser.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.InitLogger(false)
		if err := config.EnsureConfigDir(); err != nil {
			return fmt.Errorf("failed to ensure config directory: %w", err)
		}

		loaded, err := config.LoadConfig()
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

func RunCLI() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(coursesCmd)
	rootCmd.AddCommand(assignmentsCmd)
	rootCmd.AddCommand(studentsCmd)
	rootCmd.AddCommand(submissionsCmd)
	rootCmd.AddCommand(gradesCmd)
	rootCmd.AddCommand(docCmd)
	rootCmd.AddCommand(folderCmd)
	rootCmd.AddCommand(driveCmd)
	rootCmd.AddCommand(shareCmd)
	rootCmd.AddCommand(authoriseCmd)
	rootCmd.AddCommand(iamCmd)
	rootCmd.AddCommand(vmCmd)
	rootCmd.AddCommand(configCmd)
}

// fail prints an error and exits. Used at the end of command runs so that
// deferred cleanup in helpers has already happened.
func fail(format string, v ...interface{}) {
	errorColor.Fprintf(os.Stderr, format+"\n", v...)
	os.Exit(1)
}

// canvasClient builds a Canvas client from the loaded configuration.
func canvasClient() *canvas.Client {
	client, err := canvas.NewClient(cfg.Canvas)
	if err != nil {
		fail("%v", err)
	}
	return client
}

// workspace builds the Google Workspace client from the loaded configuration.
func workspace() *gworkspace.Workspace {
	w, err := gworkspace.New(cfg.Google)
	if err != nil {
		fail("%v", err)
	}
	return w
}
