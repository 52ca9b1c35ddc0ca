// SPDX-License-Identifier: Apache-2.0

// Package provision orchestrates the roster-driven flows that set up and
// tear down student AWS environments: IAM console accounts, credential
// emails, and per-student EC2 lab instances with SSH access.
package provision

import (
	"strings"

	"edutools/internal/canvas"
)

// Progress reports per-student progress to the front end. current counts
// from 1 to total. A nil Progress is safe to call through report.
type Progress func(current, total int, message string)

func report(p Progress, current, total int, message string) {
	if p != nil {
		p(current, total, message)
	}
}

// Username derives the IAM/instance username for a student: the local part
// of their email, lowercased. Returns "" when the student has no email.
func Username(u canvas.User) string {
	local, _, found := strings.Cut(u.Email, "@")
	if !found || local == "" {
		return ""
	}
	return strings.ToLower(local)
}
