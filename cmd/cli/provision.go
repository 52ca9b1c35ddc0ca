// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"edutools/internal/awsprov"
	"edutools/internal/canvas"
	"edutools/internal/provision"
)

var (
	iamEmail bool
	iamYes   bool
)

func init() {
	iamCmd.AddCommand(iamProvisionCmd)
	iamCmd.AddCommand(iamResetCmd)
	iamCmd.AddCommand(iamUpdatePoliciesCmd)
	iamCmd.AddCommand(iamDeprovisionCmd)

	iamProvisionCmd.Flags().BoolVar(&iamEmail, "email", false, "email credentials to newly created accounts via Gmail")
	iamResetCmd.Flags().BoolVar(&iamEmail, "email", false, "email the new credentials via Gmail")
	iamDeprovisionCmd.Flags().BoolVar(&iamYes, "yes", false, "skip the confirmation prompt")
}

var iamCmd = &cobra.Command{
	Use:   "iam",
	Short: "Manage student AWS console accounts",
}

// loadActiveStudents fetches the active roster for a course.
func loadActiveStudents(ctx context.Context, courseID string) []canvas.User {
	client := canvasClient()

	s := newSpinner("Loading roster...")
	s.Start()
	students, err := client.ActiveStudents(ctx, courseID)
	s.Stop()
	if err != nil {
		fail("Error loading roster for course %s: %v", courseID, err)
	}
	if len(students) == 0 {
		fail("Course %s has no active students", courseID)
	}

	statusColor.Printf("%d active students in course %s\n", len(students), courseID)
	return students
}

// iamService builds the IAM provisioner for the configured region.
func iamService(ctx context.Context) *awsprov.IAM {
	iam, err := awsprov.NewIAM(ctx, cfg.AWS.Region)
	if err != nil {
		fail("%v", err)
	}
	return iam
}

// stderrProgress renders provisioning progress one line per student.
func stderrProgress(current, total int, message string) {
	fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", current, total, message)
}

// renderAccountResults prints per-student outcomes and exits non-zero when
// any operation failed. Passwords are shown only when not emailed.
func renderAccountResults(results []provision.AccountResult, showPasswords bool) {
	failures := 0
	for _, result := range results {
		name := result.Username
		if name == "" {
			name = result.Student.Name
		}

		switch result.Status {
		case awsprov.StatusError:
			failures++
			errorColor.Printf("%-20s error: %v\n", name, result.Err)
		case awsprov.StatusSkipped:
			warnColor.Printf("%-20s skipped: %v\n", name, result.Err)
		default:
			if showPasswords && result.Password != "" {
				successColor.Printf("%-20s %s  %s\n", name, result.Status, result.Password)
			} else {
				successColor.Printf("%-20s %s\n", name, result.Status)
			}
		}
	}

	if failures > 0 {
		fail("%d of %d operations failed", failures, len(results))
	}
}

var iamProvisionCmd = &cobra.Command{
	Use:     "provision <course-id>",
	Short:   "Create console accounts with EC2-only access for a course",
	Example: "  edutools iam provision 4242 --email",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		students := loadActiveStudents(ctx, args[0])
		iam := iamService(ctx)

		if iamEmail {
			results, err := provision.ProvisionAndEmail(ctx, iam, workspace(), cfg.Google.SenderName, students, stderrProgress)
			if err != nil {
				fail("%v", err)
			}
			renderAccountResults(results, false)
			return
		}

		results := provision.Provision(ctx, iam, students, stderrProgress)
		renderAccountResults(results, true)
	},
}

var iamResetCmd = &cobra.Command{
	Use:     "reset <course-id>",
	Short:   "Reset console passwords for a course",
	Example: "  edutools iam reset 4242 --email",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		students := loadActiveStudents(ctx, args[0])
		iam := iamService(ctx)

		var mailer provision.Mailer
		if iamEmail {
			mailer = workspace()
		}

		results, err := provision.ResetPasswords(ctx, iam, mailer, cfg.Google.SenderName, students, iamEmail, stderrProgress)
		if err != nil {
			fail("%v", err)
		}
		renderAccountResults(results, !iamEmail)
	},
}

var iamUpdatePoliciesCmd = &cobra.Command{
	Use:   "update-policies <course-id>",
	Short: "Re-attach the current EC2 policy on every student account",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		students := loadActiveStudents(ctx, args[0])
		iam := iamService(ctx)

		results := provision.UpdatePolicies(ctx, iam, students, stderrProgress)
		renderAccountResults(results, false)
	},
}

var iamDeprovisionCmd = &cobra.Command{
	Use:   "deprovision <course-id>",
	Short: "Delete every student's console account for a course",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		students := loadActiveStudents(ctx, args[0])

		if !iamYes {
			warnColor.Printf("This deletes %d IAM accounts. Continue? [y/N] ", len(students))
			var answer string
			fmt.Scanln(&answer)
			if answer != "y" && answer != "Y" {
				fmt.Println("Aborted.")
				return
			}
		}

		iam := iamService(ctx)
		results := provision.Deprovision(ctx, iam, students, stderrProgress)
		renderAccountResults(results, false)
	},
}
