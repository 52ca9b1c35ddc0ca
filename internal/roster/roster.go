// SPDX-License-Identifier: Apache-2.0

// Package roster joins a course's active students with their submissions for
// a single assignment and tracks pending grade changes.
package roster

import (
	"strings"

	"edutools/internal/canvas"
)

// Entry pairs a student with their submission for the assignment under
// consideration. Submission is nil when the student has not submitted.
type Entry struct {
	User       canvas.User
	Submission *canvas.Submission

	grade string
	dirty bool
}

// Username returns the normalized campus username for the student. Canvas's
// synthetic "Test Student" has no login_id and gets a fixed name.
func Username(u canvas.User) string {
	if u.Name == "Test Student" {
		return "test_student"
	}
	return strings.ToLower(u.LoginID)
}

// SetGrade records a pending grade for the entry. Entries without a
// submission are left untouched; the caller decides whether that is an error.
func (e *Entry) SetGrade(grade string) bool {
	if e.Submission == nil {
		return false
	}
	e.grade = grade
	e.dirty = true
	return true
}

// Grade returns the pending grade and whether one has been set.
func (e *Entry) Grade() (string, bool) {
	return e.grade, e.dirty
}

// Roster maps campus usernames to entries.
type Roster map[string]*Entry

// Build indexes students by user ID, attaches the matching submissions, and
// re-keys the result on username. Submissions whose user_id has no active
// student (test users, dropped enrollments) are ignored.
func Build(students []canvas.User, submissions []canvas.Submission) Roster {
	byID := make(map[int64]*Entry, len(students))
	for _, s := range students {
		byID[s.ID] = &Entry{User: s}
	}

	for i := range submissions {
		if entry, ok := byID[submissions[i].UserID]; ok {
			entry.Submission = &submissions[i]
		}
	}

	roster := make(Roster, len(byID))
	for _, entry := range byID {
		roster[Username(entry.User)] = entry
	}
	return roster
}

// Dirty returns the entries with a pending grade change.
func (r Roster) Dirty() []*Entry {
	var out []*Entry
	for _, entry := range r {
		if entry.dirty {
			out = append(out, entry)
		}
	}
	return out
}
