// SPDX-License-Identifier: Apache-2.0

// Message types for the Bubble Tea Model-View-Update loop.

package ui

import "edutools/internal/canvas"

type coursesLoadedMsg struct{ courses []canvas.Course }

type assignmentsLoadedMsg struct {
	course      canvas.Course
	assignments []canvas.Assignment
}

type rosterLoadedMsg struct {
	course   canvas.Course
	students []canvas.User
}

type errorMsg struct{ err error }
