// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"edutools/internal/config"
)

// dimColor is used for less important/secondary text in the CLI output
var dimColor = color.New(color.Faint)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage edutools configuration",
	Long: `Shows or edits the edutools configuration file
(~/.config/edutools/config.yaml). Environment variables (CANVAS_TOKEN,
CANVAS_ENDPOINT, GOOGLE_CREDENTIALS, AWS_REGION) override file values.`,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

// redact shortens a secret for display.
func redact(secret string) string {
	if secret == "" {
		return dimColor.Sprint("(not set)")
	}
	if len(secret) <= 8 {
		return "********"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}

func showValue(value string) string {
	if value == "" {
		return dimColor.Sprint("(not set)")
	}
	return value
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration (tokens redacted)",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		path, err := config.DefaultConfigPath()
		if err == nil {
			dimColor.Printf("# %s\n", path)
		}

		fmt.Println("canvas:")
		fmt.Printf("  token:        %s\n", redact(cfg.Canvas.Token))
		fmt.Printf("  endpoint:     %s\n", showValue(cfg.Canvas.Endpoint))
		fmt.Println("google:")
		fmt.Printf("  credentials:  %s\n", showValue(cfg.Google.Credentials))
		fmt.Printf("  tokens_dir:   %s\n", showValue(cfg.Google.TokensDir))
		fmt.Printf("  sender_name:  %s\n", showValue(cfg.Google.SenderName))
		fmt.Println("aws:")
		fmt.Printf("  region:           %s\n", showValue(cfg.AWS.Region))
		fmt.Printf("  launch_template:  %s\n", showValue(cfg.AWS.LaunchTemplate))
		fmt.Printf("  instructor_key:   %s\n", showValue(cfg.AWS.InstructorKey))
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Sets one configuration value and writes the file. Keys use dotted
section.field form:

  canvas.token, canvas.endpoint
  google.credentials, google.tokens_dir, google.sender_name
  aws.region, aws.launch_template, aws.instructor_key`,
	Example: "  edutools config set aws.launch_template cs453-lab",
	Args:    cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		key, value := strings.ToLower(args[0]), args[1]

		// Edit the file as written, not the env-overridden view, so a set
		// doesn't bake the current environment into the file.
		fileCfg, err := config.LoadFile()
		if err != nil {
			fail("Error loading configuration: %v", err)
		}

		switch key {
		case "canvas.token":
			fileCfg.Canvas.Token = value
		case "canvas.endpoint":
			fileCfg.Canvas.Endpoint = strings.TrimRight(value, "/")
		case "google.credentials":
			fileCfg.Google.Credentials = value
		case "google.tokens_dir":
			fileCfg.Google.TokensDir = value
		case "google.sender_name":
			fileCfg.Google.SenderName = value
		case "aws.region":
			fileCfg.AWS.Region = value
		case "aws.launch_template":
			fileCfg.AWS.LaunchTemplate = value
		case "aws.instructor_key":
			fileCfg.AWS.InstructorKey = value
		default:
			fail("Unknown configuration key %q", key)
		}

		if err := config.SaveConfig(fileCfg); err != nil {
			fail("Error saving configuration: %v", err)
		}
		successColor.Printf("%s set.\n", key)
	},
}
