// SPDX-License-Identifier: Apache-2.0

package provision

import (
	"context"
	"errors"
	"fmt"

	"edutools/internal/awsprov"
	"edutools/internal/canvas"
	"edutools/internal/gworkspace"
	"edutools/internal/logger"
)

// IAMService is the slice of awsprov.IAM these flows need.
type IAMService interface {
	CreateUser(ctx context.Context, username string) awsprov.UserResult
	AttachEC2Policy(ctx context.Context, username string) error
	ResetPassword(ctx context.Context, username string) awsprov.UserResult
	DeleteUser(ctx context.Context, username string) awsprov.UserResult
	SignInURL(ctx context.Context) (string, error)
}

// Mailer sends credential emails. Satisfied by gworkspace.Workspace.
type Mailer interface {
	Send(ctx context.Context, m gworkspace.Message) (string, error)
}

// AccountResult is the outcome of one student's IAM operation.
type AccountResult struct {
	Student  canvas.User
	Username string
	Password string
	Status   awsprov.Status
	Err      error
}

// Failed reports whether the operation ended in error (skips don't count).
func (r AccountResult) Failed() bool {
	return r.Status == awsprov.StatusError
}

// skipNoEmail builds the result for a student who cannot be provisioned
// because Canvas has no email on record.
func skipNoEmail(student canvas.User) AccountResult {
	return AccountResult{
		Student: student,
		Status:  awsprov.StatusSkipped,
		Err:     errors.New("no email on record"),
	}
}

// Provision creates an IAM console user with the restricted EC2 policy for
// every student on the roster.
func Provision(ctx context.Context, iam IAMService, students []canvas.User, progress Progress) []AccountResult {
	results := make([]AccountResult, 0, len(students))

	for i, student := range students {
		username := Username(student)
		if username == "" {
			report(progress, i+1, len(students), fmt.Sprintf("%s: skipped (no email)", student.Name))
			results = append(results, skipNoEmail(student))
			continue
		}
		report(progress, i+1, len(students), fmt.Sprintf("creating %s", username))

		created := iam.CreateUser(ctx, username)
		result := AccountResult{
			Student:  student,
			Username: username,
			Password: created.Password,
			Status:   created.Status,
			Err:      created.Err,
		}

		if created.Status == awsprov.StatusCreated || created.Status == awsprov.StatusSkipped {
			if err := iam.AttachEC2Policy(ctx, username); err != nil {
				result.Status = awsprov.StatusError
				result.Err = err
			}
		}

		results = append(results, result)
	}

	return results
}

// ProvisionAndEmail provisions every student and emails credentials to the
// newly created accounts. Existing accounts are skipped without mail.
func ProvisionAndEmail(ctx context.Context, iam IAMService, mailer Mailer, senderName string, students []canvas.User, progress Progress) ([]AccountResult, error) {
	signInURL, err := iam.SignInURL(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve sign-in URL: %w", err)
	}

	results := Provision(ctx, iam, students, progress)

	for i := range results {
		result := &results[i]
		if result.Status != awsprov.StatusCreated {
			continue
		}

		message := credentialsMail(result.Student, result.Username, result.Password, signInURL, senderName)
		if _, err := mailer.Send(ctx, message); err != nil {
			logger.Errorf("Failed to email credentials to %s: %v", result.Student.Email, err)
			result.Status = awsprov.StatusError
			result.Err = fmt.Errorf("account created but email failed: %w", err)
		}
	}

	return results, nil
}

// ResetPasswords sets a fresh one-time password for every student account
// and optionally emails the new credentials.
func ResetPasswords(ctx context.Context, iam IAMService, mailer Mailer, senderName string, students []canvas.User, email bool, progress Progress) ([]AccountResult, error) {
	var signInURL string
	if email {
		url, err := iam.SignInURL(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve sign-in URL: %w", err)
		}
		signInURL = url
	}

	results := make([]AccountResult, 0, len(students))
	for i, student := range students {
		username := Username(student)
		if username == "" {
			report(progress, i+1, len(students), fmt.Sprintf("%s: skipped (no email)", student.Name))
			results = append(results, skipNoEmail(student))
			continue
		}
		report(progress, i+1, len(students), fmt.Sprintf("resetting %s", username))

		reset := iam.ResetPassword(ctx, username)
		result := AccountResult{
			Student:  student,
			Username: username,
			Password: reset.Password,
			Status:   reset.Status,
			Err:      reset.Err,
		}

		if email && reset.Status == awsprov.StatusReset {
			message := credentialsMail(student, username, reset.Password, signInURL, senderName)
			if _, err := mailer.Send(ctx, message); err != nil {
				logger.Errorf("Failed to email credentials to %s: %v", student.Email, err)
				result.Status = awsprov.StatusError
				result.Err = fmt.Errorf("password reset but email failed: %w", err)
			}
		}

		results = append(results, result)
	}

	return results, nil
}

// UpdatePolicies re-attaches the current EC2 policy on every student
// account, picking up policy document changes.
func UpdatePolicies(ctx context.Context, iam IAMService, students []canvas.User, progress Progress) []AccountResult {
	results := make([]AccountResult, 0, len(students))

	for i, student := range students {
		username := Username(student)
		if username == "" {
			report(progress, i+1, len(students), fmt.Sprintf("%s: skipped (no email)", student.Name))
			results = append(results, skipNoEmail(student))
			continue
		}
		report(progress, i+1, len(students), fmt.Sprintf("updating policy for %s", username))

		result := AccountResult{Student: student, Username: username, Status: awsprov.StatusUpdated}
		if err := iam.AttachEC2Policy(ctx, username); err != nil {
			result.Status = awsprov.StatusError
			result.Err = err
		}
		results = append(results, result)
	}

	return results
}

// Deprovision deletes every student's IAM account.
func Deprovision(ctx context.Context, iam IAMService, students []canvas.User, progress Progress) []AccountResult {
	results := make([]AccountResult, 0, len(students))

	for i, student := range students {
		username := Username(student)
		if username == "" {
			report(progress, i+1, len(students), fmt.Sprintf("%s: skipped (no email)", student.Name))
			results = append(results, skipNoEmail(student))
			continue
		}
		report(progress, i+1, len(students), fmt.Sprintf("deleting %s", username))

		deleted := iam.DeleteUser(ctx, username)
		results = append(results, AccountResult{
			Student:  student,
			Username: username,
			Status:   deleted.Status,
			Err:      deleted.Err,
		})
	}

	return results
}
