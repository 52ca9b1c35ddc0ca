// SPDX-License-Identifier: Apache-2.0

package awsprov

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"edutools/internal/logger"
)

// Status describes the outcome of an IAM operation on one user.
type Status string

const (
	StatusCreated Status = "created"
	StatusReset   Status = "reset"
	StatusUpdated Status = "updated"
	StatusDeleted Status = "deleted"
	StatusSkipped Status = "skipped"
	StatusError   Status = "error"
)

// UserResult reports the outcome of a single-user IAM operation.
type UserResult struct {
	Username string
	Password string
	Status   Status
	Err      error
}

// iamAPI is the slice of the IAM SDK the provisioner calls. Satisfied by
// *iam.Client.
type iamAPI interface {
	CreateUser(ctx context.Context, input *iam.CreateUserInput, optFns ...func(*iam.Options)) (*iam.CreateUserOutput, error)
	CreateLoginProfile(ctx context.Context, input *iam.CreateLoginProfileInput, optFns ...func(*iam.Options)) (*iam.CreateLoginProfileOutput, error)
	UpdateLoginProfile(ctx context.Context, input *iam.UpdateLoginProfileInput, optFns ...func(*iam.Options)) (*iam.UpdateLoginProfileOutput, error)
	DeleteLoginProfile(ctx context.Context, input *iam.DeleteLoginProfileInput, optFns ...func(*iam.Options)) (*iam.DeleteLoginProfileOutput, error)
	PutUserPolicy(ctx context.Context, input *iam.PutUserPolicyInput, optFns ...func(*iam.Options)) (*iam.PutUserPolicyOutput, error)
	ListUserPolicies(ctx context.Context, input *iam.ListUserPoliciesInput, optFns ...func(*iam.Options)) (*iam.ListUserPoliciesOutput, error)
	DeleteUserPolicy(ctx context.Context, input *iam.DeleteUserPolicyInput, optFns ...func(*iam.Options)) (*iam.DeleteUserPolicyOutput, error)
	ListAttachedUserPolicies(ctx context.Context, input *iam.ListAttachedUserPoliciesInput, optFns ...func(*iam.Options)) (*iam.ListAttachedUserPoliciesOutput, error)
	DetachUserPolicy(ctx context.Context, input *iam.DetachUserPolicyInput, optFns ...func(*iam.Options)) (*iam.DetachUserPolicyOutput, error)
	DeleteUser(ctx context.Context, input *iam.DeleteUserInput, optFns ...func(*iam.Options)) (*iam.DeleteUserOutput, error)
	ListAccountAliases(ctx context.Context, input *iam.ListAccountAliasesInput, optFns ...func(*iam.Options)) (*iam.ListAccountAliasesOutput, error)
}

// stsAPI is the slice of the STS SDK used to resolve the account ID.
type stsAPI interface {
	GetCallerIdentity(ctx context.Context, input *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// IAM provisions console users with restricted permissions.
type IAM struct {
	region string
	client iamAPI
	sts    stsAPI

	accountID string
	signInURL string
}

// NewIAM loads the default AWS credential chain for the region.
func NewIAM(ctx context.Context, region string) (*IAM, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return &IAM{
		region: region,
		client: iam.NewFromConfig(cfg),
		sts:    sts.NewFromConfig(cfg),
	}, nil
}

// AccountID returns the AWS account ID, cached after the first call.
func (p *IAM) AccountID(ctx context.Context) (string, error) {
	if p.accountID != "" {
		return p.accountID, nil
	}

	identity, err := p.sts.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("failed to resolve AWS account: %w", err)
	}

	p.accountID = aws.ToString(identity.Account)
	return p.accountID, nil
}

// SignInURL returns the console sign-in URL for IAM users, preferring the
// account alias over the raw account ID.
func (p *IAM) SignInURL(ctx context.Context) (string, error) {
	if p.signInURL != "" {
		return p.signInURL, nil
	}

	aliases, err := p.client.ListAccountAliases(ctx, &iam.ListAccountAliasesInput{})
	if err == nil && len(aliases.AccountAliases) > 0 {
		p.signInURL = fmt.Sprintf("https://%s.signin.aws.amazon.com/console", aliases.AccountAliases[0])
		return p.signInURL, nil
	}
	if err != nil {
		logger.Debugf("Could not list account aliases: %v", err)
	}

	accountID, err := p.AccountID(ctx)
	if err != nil {
		return "", err
	}
	p.signInURL = fmt.Sprintf("https://%s.signin.aws.amazon.com/console", accountID)
	return p.signInURL, nil
}

// CreateUser creates an IAM user with console access and a generated
// one-time password. An existing user is reported as skipped, not an error.
func (p *IAM) CreateUser(ctx context.Context, username string) UserResult {
	result := UserResult{Username: username, Status: StatusError}

	_, err := p.client.CreateUser(ctx, &iam.CreateUserInput{
		UserName: aws.String(username),
	})
	if err != nil {
		var exists *iamtypes.EntityAlreadyExistsException
		if errors.As(err, &exists) {
			result.Status = StatusSkipped
			result.Err = errors.New("already exists")
			return result
		}
		result.Err = err
		return result
	}

	password, err := GeneratePassword(16)
	if err != nil {
		result.Err = err
		return result
	}

	_, err = p.client.CreateLoginProfile(ctx, &iam.CreateLoginProfileInput{
		UserName:              aws.String(username),
		Password:              aws.String(password),
		PasswordResetRequired: true,
	})
	if err != nil {
		result.Err = err
		return result
	}

	result.Password = password
	result.Status = StatusCreated
	return result
}

// AttachEC2Policy attaches (or replaces) the region-restricted EC2 inline
// policy on a user.
func (p *IAM) AttachEC2Policy(ctx context.Context, username string) error {
	document, err := EC2OnlyPolicy(p.region)
	if err != nil {
		return err
	}

	_, err = p.client.PutUserPolicy(ctx, &iam.PutUserPolicyInput{
		UserName:       aws.String(username),
		PolicyName:     aws.String(EC2PolicyName),
		PolicyDocument: aws.String(document),
	})
	if err != nil {
		return fmt.Errorf("failed to attach policy to %s: %w", username, err)
	}
	return nil
}

// ResetPassword sets a fresh one-time password on an existing user,
// creating the login profile when it's missing.
func (p *IAM) ResetPassword(ctx context.Context, username string) UserResult {
	result := UserResult{Username: username, Status: StatusError}

	password, err := GeneratePassword(16)
	if err != nil {
		result.Err = err
		return result
	}

	_, err = p.client.UpdateLoginProfile(ctx, &iam.UpdateLoginProfileInput{
		UserName:              aws.String(username),
		Password:              aws.String(password),
		PasswordResetRequired: aws.Bool(true),
	})
	if err != nil {
		var missing *iamtypes.NoSuchEntityException
		if !errors.As(err, &missing) {
			result.Err = err
			return result
		}

		// No login profile yet; the user may exist without console access.
		_, err = p.client.CreateLoginProfile(ctx, &iam.CreateLoginProfileInput{
			UserName:              aws.String(username),
			Password:              aws.String(password),
			PasswordResetRequired: true,
		})
		if err != nil {
			if errors.As(err, &missing) {
				result.Status = StatusSkipped
				result.Err = errors.New("user not found")
				return result
			}
			result.Err = err
			return result
		}
	}

	result.Password = password
	result.Status = StatusReset
	return result
}

// DeleteUser removes a user and everything hanging off it. Order matters:
// login profile, inline policies, detached managed policies, then the user.
func (p *IAM) DeleteUser(ctx context.Context, username string) UserResult {
	result := UserResult{Username: username, Status: StatusError}
	var missing *iamtypes.NoSuchEntityException

	_, err := p.client.DeleteLoginProfile(ctx, &iam.DeleteLoginProfileInput{
		UserName: aws.String(username),
	})
	if err != nil && !errors.As(err, &missing) {
		result.Err = err
		return result
	}

	policies, err := p.client.ListUserPolicies(ctx, &iam.ListUserPoliciesInput{
		UserName: aws.String(username),
	})
	if err == nil {
		for _, name := range policies.PolicyNames {
			_, err := p.client.DeleteUserPolicy(ctx, &iam.DeleteUserPolicyInput{
				UserName:   aws.String(username),
				PolicyName: aws.String(name),
			})
			if err != nil {
				logger.Warnf("Failed to delete inline policy %s for %s: %v", name, username, err)
			}
		}
	}

	attached, err := p.client.ListAttachedUserPolicies(ctx, &iam.ListAttachedUserPoliciesInput{
		UserName: aws.String(username),
	})
	if err == nil {
		for _, policy := range attached.AttachedPolicies {
			_, err := p.client.DetachUserPolicy(ctx, &iam.DetachUserPolicyInput{
				UserName:  aws.String(username),
				PolicyArn: policy.PolicyArn,
			})
			if err != nil {
				logger.Warnf("Failed to detach policy %s from %s: %v", aws.ToString(policy.PolicyArn), username, err)
			}
		}
	}

	_, err = p.client.DeleteUser(ctx, &iam.DeleteUserInput{
		UserName: aws.String(username),
	})
	if err != nil {
		if errors.As(err, &missing) {
			result.Status = StatusSkipped
			result.Err = errors.New("user not found")
			return result
		}
		result.Err = err
		return result
	}

	result.Status = StatusDeleted
	return result
}
