package provision

import (
	"context"
	"errors"
	"strings"
	"testing"

	"edutools/internal/awsprov"
	"edutools/internal/canvas"
	"edutools/internal/gworkspace"
)

type fakeIAM struct {
	created   []string
	policies  []string
	reset     []string
	deleted   []string
	failUser  string
	existing  map[string]bool
	signInURL string
}

func (f *fakeIAM) CreateUser(ctx context.Context, username string) awsprov.UserResult {
	if username == f.failUser {
		return awsprov.UserResult{Username: username, Status: awsprov.StatusError, Err: errors.New("boom")}
	}
	if f.existing[username] {
		return awsprov.UserResult{Username: username, Status: awsprov.StatusSkipped, Err: errors.New("already exists")}
	}
	f.created = append(f.created, username)
	return awsprov.UserResult{Username: username, Password: "Secret-1234", Status: awsprov.StatusCreated}
}

func (f *fakeIAM) AttachEC2Policy(ctx context.Context, username string) error {
	f.policies = append(f.policies, username)
	return nil
}

func (f *fakeIAM) ResetPassword(ctx context.Context, username string) awsprov.UserResult {
	f.reset = append(f.reset, username)
	return awsprov.UserResult{Username: username, Password: "Fresh-5678", Status: awsprov.StatusReset}
}

func (f *fakeIAM) DeleteUser(ctx context.Context, username string) awsprov.UserResult {
	f.deleted = append(f.deleted, username)
	return awsprov.UserResult{Username: username, Status: awsprov.StatusDeleted}
}

func (f *fakeIAM) SignInURL(ctx context.Context) (string, error) {
	return f.signInURL, nil
}

type fakeMailer struct {
	sent []gworkspace.Message
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, m gworkspace.Message) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, m)
	return "msg-1", nil
}

var testStudents = []canvas.User{
	{ID: 1, Name: "Ada Lovelace", Email: "alovelace@u.boisestate.edu", LoginID: "alovelace"},
	{ID: 2, Name: "No Email", Email: "", LoginID: "noemail"},
	{ID: 3, Name: "Grace Hopper", Email: "GHopper@u.boisestate.edu", LoginID: "ghopper"},
}

func TestUsername(t *testing.T) {
	tests := []struct {
		email    string
		expected string
	}{
		{"alovelace@u.boisestate.edu", "alovelace"},
		{"GHopper@u.boisestate.edu", "ghopper"},
		{"", ""},
		{"@u.boisestate.edu", ""},
	}

	for _, test := range tests {
		if got := Username(canvas.User{Email: test.email}); got != test.expected {
			t.Errorf("Username(%q): expected %q, got %q", test.email, test.expected, got)
		}
	}
}

func TestProvisionCreatesUsersAndPolicies(t *testing.T) {
	iam := &fakeIAM{}

	results := Provision(context.Background(), iam, testStudents, nil)

	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}

	if len(iam.created) != 2 || iam.created[0] != "alovelace" || iam.created[1] != "ghopper" {
		t.Errorf("Expected users [alovelace ghopper], got %v", iam.created)
	}
	if len(iam.policies) != 2 {
		t.Errorf("Expected 2 policy attachments, got %v", iam.policies)
	}

	if results[1].Status != awsprov.StatusSkipped {
		t.Errorf("Student without email should be skipped, got %v", results[1].Status)
	}
	if results[0].Password == "" {
		t.Errorf("Created account should carry its password")
	}
}

func TestProvisionAttachesPolicyToExistingUsers(t *testing.T) {
	iam := &fakeIAM{existing: map[string]bool{"alovelace": true}}

	results := Provision(context.Background(), iam, testStudents[:1], nil)

	if results[0].Status != awsprov.StatusSkipped {
		t.Fatalf("Expected skipped, got %v (%v)", results[0].Status, results[0].Err)
	}
	if len(iam.policies) != 1 {
		t.Errorf("Existing user should still get the policy refresh, got %v", iam.policies)
	}
}

func TestProvisionAndEmailSendsToNewAccountsOnly(t *testing.T) {
	iam := &fakeIAM{
		existing:  map[string]bool{"ghopper": true},
		signInURL: "https://classroom.signin.aws.amazon.com/console",
	}
	mailer := &fakeMailer{}

	results, err := ProvisionAndEmail(context.Background(), iam, mailer, "Dr. Teach", testStudents, nil)
	if err != nil {
		t.Fatalf("Unexpected error (%v)", err)
	}

	if len(mailer.sent) != 1 {
		t.Fatalf("Expected 1 email, got %d", len(mailer.sent))
	}

	mail := mailer.sent[0]
	if mail.To != "alovelace@u.boisestate.edu" {
		t.Errorf("Email sent to %q", mail.To)
	}
	for _, want := range []string{"alovelace", "Secret-1234", iam.signInURL, "Dr. Teach"} {
		if !strings.Contains(mail.Text, want) {
			t.Errorf("Email text missing %q", want)
		}
	}
	if mail.HTML == "" {
		t.Errorf("Credentials email should carry an HTML alternative")
	}

	if results[0].Status != awsprov.StatusCreated {
		t.Errorf("Expected created, got %v", results[0].Status)
	}
}

func TestProvisionAndEmailRecordsMailFailure(t *testing.T) {
	iam := &fakeIAM{signInURL: "https://123456789012.signin.aws.amazon.com/console"}
	mailer := &fakeMailer{err: errors.New("smtp down")}

	results, err := ProvisionAndEmail(context.Background(), iam, mailer, "", testStudents[:1], nil)
	if err != nil {
		t.Fatalf("Unexpected error (%v)", err)
	}

	if results[0].Status != awsprov.StatusError {
		t.Errorf("Mail failure should mark the result failed, got %v", results[0].Status)
	}
	if results[0].Err == nil || !strings.Contains(results[0].Err.Error(), "email failed") {
		t.Errorf("Expected email failure error, got %v", results[0].Err)
	}
}

func TestResetPasswordsWithEmail(t *testing.T) {
	iam := &fakeIAM{signInURL: "https://classroom.signin.aws.amazon.com/console"}
	mailer := &fakeMailer{}

	results, err := ResetPasswords(context.Background(), iam, mailer, "", testStudents, true, nil)
	if err != nil {
		t.Fatalf("Unexpected error (%v)", err)
	}

	if len(iam.reset) != 2 {
		t.Errorf("Expected 2 resets, got %v", iam.reset)
	}
	if len(mailer.sent) != 2 {
		t.Errorf("Expected 2 emails, got %d", len(mailer.sent))
	}
	if results[1].Status != awsprov.StatusSkipped {
		t.Errorf("Student without email should be skipped, got %v", results[1].Status)
	}
}

func TestUpdatePolicies(t *testing.T) {
	iam := &fakeIAM{}

	results := UpdatePolicies(context.Background(), iam, testStudents, nil)

	if len(iam.policies) != 2 {
		t.Errorf("Expected 2 policy attachments, got %v", iam.policies)
	}
	if results[0].Status != awsprov.StatusUpdated {
		t.Errorf("Policy refresh should report updated, got %v", results[0].Status)
	}
	if results[1].Status != awsprov.StatusSkipped {
		t.Errorf("Student without email should be skipped, got %v", results[1].Status)
	}
	if results[0].Password != "" {
		t.Errorf("Policy refresh must not generate a password")
	}
}

func TestDeprovision(t *testing.T) {
	iam := &fakeIAM{}

	results := Deprovision(context.Background(), iam, testStudents, nil)

	if len(iam.deleted) != 2 {
		t.Errorf("Expected 2 deletions, got %v", iam.deleted)
	}
	if results[0].Status != awsprov.StatusDeleted {
		t.Errorf("Expected deleted, got %v", results[0].Status)
	}
}

func TestProgressCallback(t *testing.T) {
	iam := &fakeIAM{}
	var messages []string

	Provision(context.Background(), iam, testStudents, func(current, total int, message string) {
		messages = append(messages, message)
		if total != 3 {
			t.Errorf("Expected total 3, got %d", total)
		}
	})

	if len(messages) != 3 {
		t.Errorf("Expected 3 progress reports, got %d", len(messages))
	}
}
