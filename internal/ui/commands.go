// SPDX-License-Identifier: Apache-2.0

package ui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"edutools/internal/canvas"
)

// loadTimeout bounds each Canvas fetch kicked off by the TUI.
const loadTimeout = 60 * time.Second

func loadCoursesCmd(client *canvas.Client, includeAll bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		courses, err := client.Courses(ctx, includeAll)
		if err != nil {
			return errorMsg{fmt.Errorf("failed to load courses: %w", err)}
		}
		return coursesLoadedMsg{courses}
	}
}

func loadAssignmentsCmd(client *canvas.Client, course canvas.Course) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		assignments, err := client.Assignments(ctx, fmt.Sprintf("%d", course.ID))
		if err != nil {
			return errorMsg{fmt.Errorf("failed to load assignments for %s: %w", course.Name, err)}
		}
		return assignmentsLoadedMsg{course: course, assignments: assignments}
	}
}

func loadRosterCmd(client *canvas.Client, course canvas.Course) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		students, err := client.ActiveStudents(ctx, fmt.Sprintf("%d", course.ID))
		if err != nil {
			return errorMsg{fmt.Errorf("failed to load roster for %s: %w", course.Name, err)}
		}
		return rosterLoadedMsg{course: course, students: students}
	}
}
