package awsprov

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// fakeIAMAPI records call order and returns the configured error (if any)
// per operation.
type fakeIAMAPI struct {
	calls []string
	errs  map[string]error

	inlinePolicies []string
	attachedARNs   []string
	aliases        []string
}

func (f *fakeIAMAPI) call(name string) error {
	f.calls = append(f.calls, name)
	return f.errs[name]
}

func (f *fakeIAMAPI) CreateUser(ctx context.Context, input *iam.CreateUserInput, optFns ...func(*iam.Options)) (*iam.CreateUserOutput, error) {
	if err := f.call("CreateUser"); err != nil {
		return nil, err
	}
	return &iam.CreateUserOutput{}, nil
}

func (f *fakeIAMAPI) CreateLoginProfile(ctx context.Context, input *iam.CreateLoginProfileInput, optFns ...func(*iam.Options)) (*iam.CreateLoginProfileOutput, error) {
	if err := f.call("CreateLoginProfile"); err != nil {
		return nil, err
	}
	return &iam.CreateLoginProfileOutput{}, nil
}

func (f *fakeIAMAPI) UpdateLoginProfile(ctx context.Context, input *iam.UpdateLoginProfileInput, optFns ...func(*iam.Options)) (*iam.UpdateLoginProfileOutput, error) {
	if err := f.call("UpdateLoginProfile"); err != nil {
		return nil, err
	}
	return &iam.UpdateLoginProfileOutput{}, nil
}

func (f *fakeIAMAPI) DeleteLoginProfile(ctx context.Context, input *iam.DeleteLoginProfileInput, optFns ...func(*iam.Options)) (*iam.DeleteLoginProfileOutput, error) {
	if err := f.call("DeleteLoginProfile"); err != nil {
		return nil, err
	}
	return &iam.DeleteLoginProfileOutput{}, nil
}

func (f *fakeIAMAPI) PutUserPolicy(ctx context.Context, input *iam.PutUserPolicyInput, optFns ...func(*iam.Options)) (*iam.PutUserPolicyOutput, error) {
	if err := f.call("PutUserPolicy"); err != nil {
		return nil, err
	}
	return &iam.PutUserPolicyOutput{}, nil
}

func (f *fakeIAMAPI) ListUserPolicies(ctx context.Context, input *iam.ListUserPoliciesInput, optFns ...func(*iam.Options)) (*iam.ListUserPoliciesOutput, error) {
	if err := f.call("ListUserPolicies"); err != nil {
		return nil, err
	}
	return &iam.ListUserPoliciesOutput{PolicyNames: f.inlinePolicies}, nil
}

func (f *fakeIAMAPI) DeleteUserPolicy(ctx context.Context, input *iam.DeleteUserPolicyInput, optFns ...func(*iam.Options)) (*iam.DeleteUserPolicyOutput, error) {
	if err := f.call("DeleteUserPolicy"); err != nil {
		return nil, err
	}
	return &iam.DeleteUserPolicyOutput{}, nil
}

func (f *fakeIAMAPI) ListAttachedUserPolicies(ctx context.Context, input *iam.ListAttachedUserPoliciesInput, optFns ...func(*iam.Options)) (*iam.ListAttachedUserPoliciesOutput, error) {
	if err := f.call("ListAttachedUserPolicies"); err != nil {
		return nil, err
	}
	attached := make([]iamtypes.AttachedPolicy, 0, len(f.attachedARNs))
	for _, arn := range f.attachedARNs {
		attached = append(attached, iamtypes.AttachedPolicy{PolicyArn: aws.String(arn)})
	}
	return &iam.ListAttachedUserPoliciesOutput{AttachedPolicies: attached}, nil
}

func (f *fakeIAMAPI) DetachUserPolicy(ctx context.Context, input *iam.DetachUserPolicyInput, optFns ...func(*iam.Options)) (*iam.DetachUserPolicyOutput, error) {
	if err := f.call("DetachUserPolicy"); err != nil {
		return nil, err
	}
	return &iam.DetachUserPolicyOutput{}, nil
}

func (f *fakeIAMAPI) DeleteUser(ctx context.Context, input *iam.DeleteUserInput, optFns ...func(*iam.Options)) (*iam.DeleteUserOutput, error) {
	if err := f.call("DeleteUser"); err != nil {
		return nil, err
	}
	return &iam.DeleteUserOutput{}, nil
}

func (f *fakeIAMAPI) ListAccountAliases(ctx context.Context, input *iam.ListAccountAliasesInput, optFns ...func(*iam.Options)) (*iam.ListAccountAliasesOutput, error) {
	if err := f.call("ListAccountAliases"); err != nil {
		return nil, err
	}
	return &iam.ListAccountAliasesOutput{AccountAliases: f.aliases}, nil
}

type fakeSTS struct {
	accountID string
}

func (f *fakeSTS) GetCallerIdentity(ctx context.Context, input *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	return &sts.GetCallerIdentityOutput{Account: aws.String(f.accountID)}, nil
}

func noSuchEntity() error {
	return &iamtypes.NoSuchEntityException{Message: aws.String("not found")}
}

func TestDeleteUserOrder(t *testing.T) {
	fake := &fakeIAMAPI{
		inlinePolicies: []string{EC2PolicyName},
		attachedARNs:   []string{"arn:aws:iam::aws:policy/ReadOnlyAccess"},
	}
	p := &IAM{region: "us-west-2", client: fake}

	result := p.DeleteUser(context.Background(), "alovelace")
	if result.Status != StatusDeleted {
		t.Fatalf("Expected deleted, got %v (%v)", result.Status, result.Err)
	}

	expected := []string{
		"DeleteLoginProfile",
		"ListUserPolicies",
		"DeleteUserPolicy",
		"ListAttachedUserPolicies",
		"DetachUserPolicy",
		"DeleteUser",
	}
	if !slices.Equal(fake.calls, expected) {
		t.Errorf("Wrong deletion order:\nexpected %v\ngot      %v", expected, fake.calls)
	}
}

func TestDeleteUserToleratesMissingLoginProfile(t *testing.T) {
	fake := &fakeIAMAPI{errs: map[string]error{"DeleteLoginProfile": noSuchEntity()}}
	p := &IAM{region: "us-west-2", client: fake}

	result := p.DeleteUser(context.Background(), "alovelace")
	if result.Status != StatusDeleted {
		t.Errorf("Missing login profile should not abort deletion, got %v (%v)", result.Status, result.Err)
	}
	if !slices.Contains(fake.calls, "DeleteUser") {
		t.Errorf("Deletion should proceed to DeleteUser, got %v", fake.calls)
	}
}

func TestDeleteUserMissingUserSkipped(t *testing.T) {
	fake := &fakeIAMAPI{errs: map[string]error{
		"DeleteLoginProfile": noSuchEntity(),
		"ListUserPolicies":   noSuchEntity(),
		"DeleteUser":         noSuchEntity(),
	}}
	p := &IAM{region: "us-west-2", client: fake}

	result := p.DeleteUser(context.Background(), "ghost")
	if result.Status != StatusSkipped {
		t.Errorf("Deleting a nonexistent user should skip, got %v (%v)", result.Status, result.Err)
	}
}

func TestDeleteUserStopsOnUnexpectedError(t *testing.T) {
	fake := &fakeIAMAPI{errs: map[string]error{"DeleteLoginProfile": errors.New("throttled")}}
	p := &IAM{region: "us-west-2", client: fake}

	result := p.DeleteUser(context.Background(), "alovelace")
	if result.Status != StatusError {
		t.Errorf("Unexpected error should fail the deletion, got %v", result.Status)
	}
	if slices.Contains(fake.calls, "DeleteUser") {
		t.Errorf("DeleteUser must not run after a failed prerequisite, got %v", fake.calls)
	}
}

func TestCreateUserExistingSkipped(t *testing.T) {
	fake := &fakeIAMAPI{errs: map[string]error{
		"CreateUser": &iamtypes.EntityAlreadyExistsException{Message: aws.String("exists")},
	}}
	p := &IAM{region: "us-west-2", client: fake}

	result := p.CreateUser(context.Background(), "alovelace")
	if result.Status != StatusSkipped {
		t.Errorf("Existing user should be skipped, got %v (%v)", result.Status, result.Err)
	}
	if result.Password != "" {
		t.Errorf("Skipped user should carry no password")
	}
}

func TestResetPasswordCreatesMissingProfile(t *testing.T) {
	fake := &fakeIAMAPI{errs: map[string]error{"UpdateLoginProfile": noSuchEntity()}}
	p := &IAM{region: "us-west-2", client: fake}

	result := p.ResetPassword(context.Background(), "alovelace")
	if result.Status != StatusReset {
		t.Fatalf("Expected reset via profile creation, got %v (%v)", result.Status, result.Err)
	}
	if result.Password == "" {
		t.Errorf("Reset should carry the new password")
	}
	if !slices.Contains(fake.calls, "CreateLoginProfile") {
		t.Errorf("Missing profile should be created, got %v", fake.calls)
	}
}

func TestResetPasswordUserNotFound(t *testing.T) {
	fake := &fakeIAMAPI{errs: map[string]error{
		"UpdateLoginProfile": noSuchEntity(),
		"CreateLoginProfile": noSuchEntity(),
	}}
	p := &IAM{region: "us-west-2", client: fake}

	result := p.ResetPassword(context.Background(), "ghost")
	if result.Status != StatusSkipped {
		t.Errorf("Resetting a nonexistent user should skip, got %v (%v)", result.Status, result.Err)
	}
}

func TestSignInURLPrefersAlias(t *testing.T) {
	fake := &fakeIAMAPI{aliases: []string{"classroom"}}
	p := &IAM{region: "us-west-2", client: fake, sts: &fakeSTS{accountID: "123456789012"}}

	url, err := p.SignInURL(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error (%v)", err)
	}
	if url != "https://classroom.signin.aws.amazon.com/console" {
		t.Errorf("Expected alias URL, got %q", url)
	}
}

func TestSignInURLFallsBackToAccountID(t *testing.T) {
	fake := &fakeIAMAPI{}
	p := &IAM{region: "us-west-2", client: fake, sts: &fakeSTS{accountID: "123456789012"}}

	url, err := p.SignInURL(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error (%v)", err)
	}
	if url != "https://123456789012.signin.aws.amazon.com/console" {
		t.Errorf("Expected account ID URL, got %q", url)
	}
}
