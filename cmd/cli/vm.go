// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"edutools/internal/awsprov"
	"edutools/internal/gworkspace"
	"edutools/internal/provision"
	"edutools/internal/sshsetup"
)

var (
	vmSkipDrive bool
	vmYes       bool
)

func init() {
	vmCmd.AddCommand(vmLaunchCmd)
	vmCmd.AddCommand(vmTerminateCmd)
	vmCmd.AddCommand(vmCheckCmd)
	vmCmd.AddCommand(vmCleanupCmd)

	vmLaunchCmd.Flags().BoolVar(&vmSkipDrive, "skip-drive", false, "do not publish connection files to Drive")
	vmTerminateCmd.Flags().BoolVar(&vmYes, "yes", false, "skip the confirmation prompt")
}

var vmCmd = &cobra.Command{
	Use:   "vm",
	Short: "Manage student EC2 lab instances",
}

// ec2Service builds the EC2 client for the configured region.
func ec2Service(ctx context.Context) *awsprov.EC2 {
	ec2, err := awsprov.NewEC2(ctx, cfg.AWS.Region)
	if err != nil {
		fail("%v", err)
	}
	return ec2
}

// keyInstaller loads the instructor key configured for bootstrap SSH access.
func keyInstaller() *sshsetup.Installer {
	keyPath, err := sshsetup.InstructorKeyPath(cfg.AWS.InstructorKey, "edutools")
	if err != nil {
		fail("%v", err)
	}

	installer, err := sshsetup.NewInstaller(keyPath)
	if err != nil {
		fail("%v", err)
	}
	return installer
}

// launchTemplate returns the configured launch template or exits.
func launchTemplate() string {
	if cfg.AWS.LaunchTemplate == "" {
		fail("No launch template configured: set aws.launch_template in the config file")
	}
	return cfg.AWS.LaunchTemplate
}

var vmLaunchCmd = &cobra.Command{
	Use:     "launch <course-id>",
	Short:   "Launch one lab instance per student and hand out SSH access",
	Example: "  edutools vm launch 4242",
	Long: `Launches one EC2 instance per active student from the configured launch
template, installs a fresh SSH key pair on each, and publishes a per-student
Drive folder with the connection document, a self-contained SSH script and
the private key, shared with the student's email.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		courseID := args[0]
		ctx := cmd.Context()

		students := loadActiveStudents(ctx, courseID)
		template := launchTemplate()
		installer := keyInstaller()
		ec2 := ec2Service(ctx)

		var w *gworkspace.Workspace
		if !vmSkipDrive {
			w = workspace()
		}

		results := provision.LaunchVMs(ctx, ec2, installer, template, courseID, students, stderrProgress)

		failures := 0
		for _, result := range results {
			switch result.Status {
			case provision.VMSkipped:
				warnColor.Printf("%-20s skipped: %v\n", result.Student.Name, result.Err)
				continue
			case provision.VMFailed:
				failures++
				errorColor.Printf("%-20s failed: %v\n", result.Username, result.Err)
				continue
			}

			successColor.Printf("%-20s %s %s\n", result.Username, result.InstanceID, result.PublicIP)
			if vmSkipDrive {
				continue
			}
			if err := publishConnectionFolder(ctx, w, courseID, result); err != nil {
				failures++
				errorColor.Printf("%-20s drive publish failed: %v\n", result.Username, err)
			}
		}

		if failures > 0 {
			fail("%d of %d launches had problems", failures, len(results))
		}
		successColor.Println("All instances launched.")
	},
}

// publishConnectionFolder creates the student's Drive folder with the
// connection doc, SSH script and private key, and shares it with them.
func publishConnectionFolder(ctx context.Context, w *gworkspace.Workspace, courseID string, result provision.VMResult) error {
	user := sshsetup.InstanceUser(result.PublicIP)

	script, err := sshsetup.BuildSSHScript(result.PublicIP, user, result.KeyPair.PrivatePEM)
	if err != nil {
		return err
	}

	folderID, err := w.CreateFolder(ctx, fmt.Sprintf("%s-%s", courseID, result.Username), "")
	if err != nil {
		return err
	}

	doc := sshsetup.BuildConnectionDoc(result.Username, result.PublicIP, user)
	if _, err := w.CreateDocWithContent(ctx, "How to connect", doc, folderID); err != nil {
		return err
	}
	if _, err := w.UploadTextFile(ctx, sshsetup.SSHScriptFilename, script, folderID); err != nil {
		return err
	}
	if _, err := w.UploadTextFile(ctx, sshsetup.PrivateKeyFilename, string(result.KeyPair.PrivatePEM), folderID); err != nil {
		return err
	}

	if _, err := w.Share(ctx, folderID, result.Student.Email, "reader"); err != nil {
		return err
	}
	return nil
}

var vmTerminateCmd = &cobra.Command{
	Use:   "terminate <course-id>",
	Short: "Terminate every lab instance for a course",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		courseID := args[0]
		ctx := cmd.Context()
		ec2 := ec2Service(ctx)

		if !vmYes {
			warnColor.Printf("This terminates all instances tagged for course %s. Continue? [y/N] ", courseID)
			var answer string
			fmt.Scanln(&answer)
			if answer != "y" && answer != "Y" {
				fmt.Println("Aborted.")
				return
			}
		}

		terminated, err := provision.TerminateVMs(ctx, ec2, courseID, stderrProgress)
		if err != nil {
			fail("Error terminating instances: %v", err)
		}
		if len(terminated) == 0 {
			fmt.Printf("No live instances found for course %s.\n", courseID)
			return
		}
		successColor.Printf("Terminated %d instances.\n", len(terminated))
	},
}

var vmCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Launch a throwaway instance and verify the full SSH setup path",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		template := launchTemplate()
		installer := keyInstaller()
		ec2 := ec2Service(ctx)

		check, err := provision.CheckLaunch(ctx, ec2, installer, template, stderrProgress)
		if err != nil {
			if check.InstanceID != "" {
				warnColor.Printf("Check instance %s left running; run 'edutools vm cleanup'.\n", check.InstanceID)
			}
			fail("Launch check failed: %v", err)
		}

		successColor.Printf("Launch check passed: %s (%s)\n", check.InstanceID, check.PublicIP)
		fmt.Println("Run 'edutools vm cleanup' to terminate the check instance.")
	},
}

var vmCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Terminate instances left behind by launch checks",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		ec2 := ec2Service(ctx)

		count, err := provision.CleanupCheckInstances(ctx, ec2, stderrProgress)
		if err != nil {
			fail("Error cleaning up: %v", err)
		}
		if count == 0 {
			fmt.Println("No check instances found.")
			return
		}
		successColor.Printf("Terminated %d check instances.\n", count)
	},
}
