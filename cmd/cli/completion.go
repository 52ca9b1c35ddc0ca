// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"edutools/internal/canvas"
	"edutools/internal/config"
)

// completionTimeout keeps shell completion snappy; a slow Canvas response
// just means no suggestions.
const completionTimeout = 5 * time.Second

// courseCompletionFunc suggests course IDs (annotated with course names) for
// the first positional argument. Errors are swallowed; completion should
// never print diagnostics into the shell.
func courseCompletionFunc(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	client, err := canvas.NewClient(cfg.Canvas)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	ctx, cancel := context.WithTimeout(context.Background(), completionTimeout)
	defer cancel()

	courses, err := client.Courses(ctx, false)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var suggestions []string
	for _, course := range courses {
		id := fmt.Sprintf("%d", course.ID)
		if strings.HasPrefix(id, toComplete) {
			suggestions = append(suggestions, fmt.Sprintf("%s\t%s", id, course.Name))
		}
	}
	return suggestions, cobra.ShellCompDirectiveNoFileComp
}

func init() {
	for _, cmd := range []*cobra.Command{
		assignmentsCmd,
		studentsCmd,
		submissionsCmd,
		gradesImportCmd,
		gradesSetCmd,
		iamProvisionCmd,
		iamResetCmd,
		iamUpdatePoliciesCmd,
		iamDeprovisionCmd,
		vmLaunchCmd,
		vmTerminateCmd,
	} {
		cmd.ValidArgsFunction = courseCompletionFunc
	}
}
