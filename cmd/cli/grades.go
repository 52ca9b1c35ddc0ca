// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"edutools/internal/roster"
	"edutools/internal/zybooks"
)

var (
	gradesDryRun  bool
	gradesComment string
)

func init() {
	gradesCmd.AddCommand(gradesImportCmd)
	gradesCmd.AddCommand(gradesSetCmd)

	gradesImportCmd.Flags().BoolVar(&gradesDryRun, "dry-run", false, "show what would be posted without posting")
	gradesSetCmd.Flags().StringVar(&gradesComment, "comment", "", "submission comment to post with the grade")
}

var gradesCmd = &cobra.Command{
	Use:   "grades",
	Short: "Import or set assignment grades",
}

var gradesImportCmd = &cobra.Command{
	Use:     "import <course-id> <assignment-id> <zybooks-export.csv>",
	Short:   "Import zyBooks percentage scores as assignment grades",
	Example: "  edutools grades import 4242 31337 lab3_report.csv --dry-run",
	Args:    cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		courseID, assignmentID, csvPath := args[0], args[1], args[2]
		ctx := cmd.Context()
		client := canvasClient()

		scores, err := zybooks.ParseFile(csvPath)
		if err != nil {
			fail("Error parsing %s: %v", csvPath, err)
		}
		statusColor.Printf("Parsed %d scores from %s\n", len(scores), csvPath)

		s := newSpinner("Loading assignment and roster...")
		s.Start()
		assignment, err := client.Assignment(ctx, courseID, assignmentID)
		if err != nil {
			s.Stop()
			fail("Error loading assignment: %v", err)
		}
		students, err := client.ActiveStudents(ctx, courseID)
		if err != nil {
			s.Stop()
			fail("Error loading students: %v", err)
		}
		submissions, err := client.Submissions(ctx, courseID, assignmentID)
		s.Stop()
		if err != nil {
			fail("Error loading submissions: %v", err)
		}

		r := roster.Build(students, submissions)
		ungradable := roster.ApplyScores(r, scores, assignment.PointsPossible)
		for _, username := range ungradable {
			warnColor.Printf("No submission record for %s; skipping\n", username)
		}

		dirty := r.Dirty()
		sort.Slice(dirty, func(i, j int) bool {
			return roster.Username(dirty[i].User) < roster.Username(dirty[j].User)
		})

		statusColor.Printf("Posting %g-point grades for %q:\n", assignment.PointsPossible, assignment.Name)
		failures := 0
		for i, entry := range dirty {
			grade, _ := entry.Grade()
			username := roster.Username(entry.User)
			fmt.Printf("[%d/%d] %-16s %s\n", i+1, len(dirty), username, grade)

			if gradesDryRun {
				continue
			}
			if err := client.GradeSubmission(ctx, courseID, assignmentID, entry.User.ID, grade, ""); err != nil {
				errorColor.Printf("  failed: %v\n", err)
				failures++
			}
		}

		if gradesDryRun {
			warnColor.Println("Dry run: nothing was posted.")
			return
		}
		if failures > 0 {
			fail("%d of %d grades failed to post", failures, len(dirty))
		}
		successColor.Printf("Posted %d grades.\n", len(dirty))
	},
}

var gradesSetCmd = &cobra.Command{
	Use:     "set <course-id> <assignment-id> <user-id> <grade>",
	Short:   "Set one student's grade for an assignment",
	Example: "  edutools grades set 4242 31337 100123 \"38.5\" --comment \"late penalty applied\"",
	Args:    cobra.ExactArgs(4),
	Run: func(cmd *cobra.Command, args []string) {
		courseID, assignmentID, grade := args[0], args[1], args[3]

		userID, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			fail("Invalid user id %q: %v", args[2], err)
		}

		client := canvasClient()
		if err := client.GradeSubmission(cmd.Context(), courseID, assignmentID, userID, grade, gradesComment); err != nil {
			fail("Error posting grade: %v", err)
		}
		successColor.Printf("Posted grade %s for user %d.\n", grade, userID)
	},
}
