// SPDX-License-Identifier: Apache-2.0

// Package ui implements the interactive course browser: a Bubble Tea
// application over the Canvas client with course, assignment and roster
// views.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"edutools/internal/canvas"
)

type state int

const (
	stateLoadingCourses state = iota
	stateCourseList
	stateLoadingAssignments
	stateAssignmentList
	stateLoadingRoster
	stateRosterView
	stateError
)

type Model struct {
	client *canvas.Client
	keys   KeyMap

	currentState state
	spinner      spinner.Model
	err          error

	courses    []canvas.Course
	includeAll bool
	cursor     int

	course      canvas.Course
	assignments []canvas.Assignment
	students    []canvas.User

	width  int
	height int
}

func InitialModel(client *canvas.Client) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = statusStyle

	return Model{
		client:       client,
		keys:         DefaultKeyMap,
		currentState: stateLoadingCourses,
		spinner:      s,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, loadCoursesCmd(m.client, m.includeAll))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case coursesLoadedMsg:
		m.courses = msg.courses
		m.cursor = 0
		m.currentState = stateCourseList
		if len(m.courses) == 0 {
			m.err = fmt.Errorf("no active courses found (press t to include past courses)")
			m.currentState = stateError
		}
		return m, nil

	case assignmentsLoadedMsg:
		m.course = msg.course
		m.assignments = msg.assignments
		m.currentState = stateAssignmentList
		return m, nil

	case rosterLoadedMsg:
		m.course = msg.course
		m.students = msg.students
		m.currentState = stateRosterView
		return m, nil

	case errorMsg:
		m.err = msg.err
		m.currentState = stateError
		return m, nil
	}

	return m, nil
}

func (m Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	switch m.currentState {
	case stateCourseList:
		return m.handleCourseListKeys(msg)

	case stateAssignmentList, stateRosterView:
		if key.Matches(msg, m.keys.Back) {
			m.currentState = stateCourseList
		}
		return m, nil

	case stateError:
		if key.Matches(msg, m.keys.Back) || key.Matches(msg, m.keys.Enter) {
			m.err = nil
			m.currentState = stateLoadingCourses
			return m, tea.Batch(m.spinner.Tick, loadCoursesCmd(m.client, m.includeAll))
		}
		if key.Matches(msg, m.keys.ToggleAll) {
			m.err = nil
			m.includeAll = !m.includeAll
			m.currentState = stateLoadingCourses
			return m, tea.Batch(m.spinner.Tick, loadCoursesCmd(m.client, m.includeAll))
		}
		return m, nil
	}

	// Loading states only react to quit, handled above.
	return m, nil
}

func (m Model) handleCourseListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.courses)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Home):
		m.cursor = 0

	case key.Matches(msg, m.keys.End):
		if len(m.courses) > 0 {
			m.cursor = len(m.courses) - 1
		}

	case key.Matches(msg, m.keys.ToggleAll):
		m.includeAll = !m.includeAll
		m.currentState = stateLoadingCourses
		return m, tea.Batch(m.spinner.Tick, loadCoursesCmd(m.client, m.includeAll))

	case key.Matches(msg, m.keys.Assignments):
		if len(m.courses) > 0 {
			m.currentState = stateLoadingAssignments
			return m, tea.Batch(m.spinner.Tick, loadAssignmentsCmd(m.client, m.courses[m.cursor]))
		}

	case key.Matches(msg, m.keys.Roster):
		if len(m.courses) > 0 {
			m.currentState = stateLoadingRoster
			return m, tea.Batch(m.spinner.Tick, loadRosterCmd(m.client, m.courses[m.cursor]))
		}
	}

	return m, nil
}

func (m Model) View() string {
	var s strings.Builder

	switch m.currentState {
	case stateLoadingCourses:
		s.WriteString(fmt.Sprintf("%s Loading courses...\n", m.spinner.View()))

	case stateLoadingAssignments:
		s.WriteString(fmt.Sprintf("%s Loading assignments...\n", m.spinner.View()))

	case stateLoadingRoster:
		s.WriteString(fmt.Sprintf("%s Loading roster...\n", m.spinner.View()))

	case stateCourseList:
		m.viewCourseList(&s)

	case stateAssignmentList:
		m.viewAssignmentList(&s)

	case stateRosterView:
		m.viewRoster(&s)

	case stateError:
		s.WriteString(errorStyle.Render("Error") + "\n\n")
		s.WriteString(fmt.Sprintf("%v\n", m.err))
		s.WriteString("\n" + m.footer(m.keys.Back, m.keys.ToggleAll, m.keys.Quit))
	}

	return s.String()
}

func (m Model) viewCourseList(s *strings.Builder) {
	title := "Courses"
	if m.includeAll {
		title = "Courses (including past)"
	}
	s.WriteString(titleStyle.Render(title) + "\n\n")

	for i, course := range m.courses {
		cursor := " "
		if m.cursor == i {
			cursor = cursorStyle.Render(">")
		}

		term := ""
		if course.Term != nil && course.Term.Name != "" {
			term = dimStyle.Render(" " + course.Term.Name)
		}
		s.WriteString(fmt.Sprintf("%s %s%s\n", cursor, course.Name, term))
	}

	s.WriteString("\n" + m.footer(m.keys.Up, m.keys.Down, m.keys.Assignments, m.keys.Roster, m.keys.ToggleAll, m.keys.Quit))
}

func (m Model) viewAssignmentList(s *strings.Builder) {
	s.WriteString(titleStyle.Render("Assignments: "+m.course.Name) + "\n\n")

	if len(m.assignments) == 0 {
		s.WriteString(dimStyle.Render("No assignments.") + "\n")
	}
	for _, assignment := range m.assignments {
		s.WriteString(fmt.Sprintf("  %-10d %s %s\n",
			assignment.ID,
			assignment.Name,
			dimStyle.Render(fmt.Sprintf("(%g pts)", assignment.PointsPossible))))
	}

	s.WriteString("\n" + m.footer(m.keys.Back, m.keys.Quit))
}

func (m Model) viewRoster(s *strings.Builder) {
	s.WriteString(titleStyle.Render("Roster: "+m.course.Name) + "\n\n")

	if len(m.students) == 0 {
		s.WriteString(dimStyle.Render("No active students.") + "\n")
	}
	for _, student := range m.students {
		email := student.Email
		if email == "" {
			email = missingStyle.Render("(no email)")
		}
		s.WriteString(fmt.Sprintf("  %-24s %-16s %s\n", student.Name, student.LoginID, email))
	}

	s.WriteString(fmt.Sprintf("\n%s\n", dimStyle.Render(fmt.Sprintf("%d students", len(m.students)))))
	s.WriteString("\n" + m.footer(m.keys.Back, m.keys.Quit))
}

// footer renders the key help line for the current view.
func (m Model) footer(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		help := binding.Help()
		parts = append(parts, footerKeyStyle.Render(help.Key)+footerStyle.Render(" "+help.Desc))
	}
	return strings.Join(parts, footerSeparatorStyle.Render(" | ")) + "\n"
}
