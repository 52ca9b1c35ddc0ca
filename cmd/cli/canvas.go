// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
)

var coursesAll bool

func init() {
	coursesCmd.Flags().BoolVar(&coursesAll, "all", false, "include concluded and past-term courses")
}

// newSpinner returns the shared progress spinner for long-running fetches.
func newSpinner(suffix string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Color("cyan")
	s.Suffix = " " + suffix
	return s
}

var coursesCmd = &cobra.Command{
	Use:   "courses",
	Short: "List courses where you are the teacher",
	Run: func(cmd *cobra.Command, args []string) {
		client := canvasClient()

		s := newSpinner("Loading courses...")
		s.Start()
		courses, err := client.Courses(cmd.Context(), coursesAll)
		s.Stop()
		if err != nil {
			fail("Error loading courses: %v", err)
		}

		if len(courses) == 0 {
			fmt.Println("No active courses found. Use --all to include past courses.")
			return
		}

		for _, course := range courses {
			term := ""
			if course.Term != nil && course.Term.Name != "" {
				term = fmt.Sprintf(" [%s]", course.Term.Name)
			}
			fmt.Printf("%-10d %s%s\n", course.ID, course.Name, identifierColor.Sprint(term))
		}
	},
}

var assignmentsCmd = &cobra.Command{
	Use:     "assignments <course-id>",
	Short:   "List assignments for a course",
	Example: "  edutools assignments 4242",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := canvasClient()

		s := newSpinner("Loading assignments...")
		s.Start()
		assignments, err := client.Assignments(cmd.Context(), args[0])
		s.Stop()
		if err != nil {
			fail("Error loading assignments: %v", err)
		}

		for _, assignment := range assignments {
			fmt.Printf("%-10d %s (%g pts)\n", assignment.ID, assignment.Name, assignment.PointsPossible)
		}
	},
}

var studentsCmd = &cobra.Command{
	Use:     "students <course-id>",
	Short:   "List students enrolled in a course",
	Example: "  edutools students 4242",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := canvasClient()

		s := newSpinner("Loading students...")
		s.Start()
		students, err := client.Students(cmd.Context(), args[0])
		s.Stop()
		if err != nil {
			fail("Error loading students: %v", err)
		}

		for _, student := range students {
			email := student.Email
			if email == "" {
				email = warnColor.Sprint("(no email)")
			}
			fmt.Printf("%-10d %-24s %-16s %s\n", student.ID, student.Name, student.LoginID, email)
		}
		statusColor.Printf("\n%d students\n", len(students))
	},
}

var submissionsCmd = &cobra.Command{
	Use:     "submissions <course-id> <assignment-id>",
	Short:   "List submissions for an assignment",
	Example: "  edutools submissions 4242 31337",
	Args:    cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		client := canvasClient()

		s := newSpinner("Loading submissions...")
		s.Start()
		submissions, err := client.Submissions(cmd.Context(), args[0], args[1])
		s.Stop()
		if err != nil {
			fail("Error loading submissions: %v", err)
		}

		for _, submission := range submissions {
			score := "-"
			if submission.Score != nil {
				score = fmt.Sprintf("%g", *submission.Score)
			}
			fmt.Printf("%-10d user=%-10d %-12s score=%s\n",
				submission.ID, submission.UserID, submission.WorkflowState, score)
		}
	},
}
