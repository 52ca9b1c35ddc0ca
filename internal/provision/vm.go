// SPDX-License-Identifier: Apache-2.0

package provision

import (
	"context"
	"errors"
	"fmt"
	"time"

	"edutools/internal/awsprov"
	"edutools/internal/canvas"
	"edutools/internal/logger"
	"edutools/internal/sshsetup"
)

// Instance boot and SSH budgets. Launch waits cover the whole batch;
// the SSH deadline is per instance.
const (
	bootTimeout      = 10 * time.Minute
	terminateTimeout = 10 * time.Minute
	sshDeadline      = 5 * time.Minute
)

// EC2Service is the slice of awsprov.EC2 these flows need.
type EC2Service interface {
	LaunchInstance(ctx context.Context, spec awsprov.LaunchSpec) (string, error)
	WaitRunning(ctx context.Context, instanceIDs []string, timeout time.Duration) (map[string]string, error)
	FindCourseInstances(ctx context.Context, courseID string) ([]awsprov.Instance, error)
	FindCheckInstances(ctx context.Context) ([]awsprov.Instance, error)
	Terminate(ctx context.Context, instanceIDs []string, timeout time.Duration) error
}

// KeyInstaller installs and verifies SSH keys on instances. Satisfied by
// sshsetup.Installer.
type KeyInstaller interface {
	AuthorizeKey(ctx context.Context, ip, authorizedKey string) error
	VerifyLogin(ctx context.Context, ip string) error
}

// VMStatus describes the outcome of one student's VM launch.
type VMStatus string

const (
	VMLaunched VMStatus = "launched"
	VMSkipped  VMStatus = "skipped"
	VMFailed   VMStatus = "failed"
)

// VMResult is the outcome of one student's VM operation. KeyPair is set for
// successful launches so the caller can publish connection artifacts.
type VMResult struct {
	Student    canvas.User
	Username   string
	InstanceID string
	PublicIP   string
	KeyPair    *sshsetup.KeyPair
	Status     VMStatus
	Err        error
}

// LaunchVMs launches one instance per student from the launch template,
// waits for the batch to boot, and installs a fresh key pair on each. A
// failure for one student is recorded and does not stop the rest.
func LaunchVMs(ctx context.Context, ec2 EC2Service, installer KeyInstaller, template, courseID string, students []canvas.User, progress Progress) []VMResult {
	results := make([]VMResult, 0, len(students))
	launched := make(map[string]int)

	for i, student := range students {
		username := Username(student)
		if username == "" {
			report(progress, i+1, len(students), fmt.Sprintf("%s: skipped (no email)", student.Name))
			results = append(results, VMResult{
				Student: student,
				Status:  VMSkipped,
				Err:     errors.New("no email on record"),
			})
			continue
		}
		report(progress, i+1, len(students), fmt.Sprintf("launching instance for %s", username))

		result := VMResult{Student: student, Username: username, Status: VMFailed}

		pair, err := sshsetup.GenerateKeyPair()
		if err != nil {
			result.Err = err
			results = append(results, result)
			continue
		}
		result.KeyPair = pair

		instanceID, err := ec2.LaunchInstance(ctx, awsprov.LaunchSpec{
			Template: template,
			NameTag:  fmt.Sprintf("%s-%s", courseID, username),
			ExtraTags: map[string]string{
				awsprov.TagCourse:  courseID,
				awsprov.TagStudent: username,
			},
		})
		if err != nil {
			result.Err = err
			results = append(results, result)
			continue
		}
		result.InstanceID = instanceID

		results = append(results, result)
		launched[instanceID] = len(results) - 1
	}

	if len(launched) == 0 {
		return results
	}

	instanceIDs := make([]string, 0, len(launched))
	for id := range launched {
		instanceIDs = append(instanceIDs, id)
	}

	report(progress, len(students), len(students), fmt.Sprintf("waiting for %d instances to boot", len(instanceIDs)))
	ips, err := ec2.WaitRunning(ctx, instanceIDs, bootTimeout)
	if err != nil {
		for _, idx := range launched {
			results[idx].Err = err
		}
		return results
	}

	current := 0
	for instanceID, idx := range launched {
		current++
		result := &results[idx]

		ip, ok := ips[instanceID]
		if !ok {
			result.Err = fmt.Errorf("instance %s has no public IP", instanceID)
			continue
		}
		result.PublicIP = ip

		report(progress, current, len(launched), fmt.Sprintf("installing key for %s (%s)", result.Username, ip))
		if err := authorizeWithDeadline(ctx, installer, ip, result.KeyPair.AuthorizedKey); err != nil {
			result.Err = err
			continue
		}
		result.Status = VMLaunched
	}

	return results
}

func authorizeWithDeadline(ctx context.Context, installer KeyInstaller, ip, authorizedKey string) error {
	ctx, cancel := context.WithTimeout(ctx, sshDeadline)
	defer cancel()
	return installer.AuthorizeKey(ctx, ip, authorizedKey)
}

// TerminateVMs terminates every live instance tagged for the course and
// returns the instances it terminated.
func TerminateVMs(ctx context.Context, ec2 EC2Service, courseID string, progress Progress) ([]awsprov.Instance, error) {
	instances, err := ec2.FindCourseInstances(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if len(instances) == 0 {
		return nil, nil
	}

	instanceIDs := make([]string, 0, len(instances))
	for i, instance := range instances {
		report(progress, i+1, len(instances), fmt.Sprintf("terminating %s (%s)", instance.ID, instance.Student))
		instanceIDs = append(instanceIDs, instance.ID)
	}

	if err := ec2.Terminate(ctx, instanceIDs, terminateTimeout); err != nil {
		return instances, err
	}
	return instances, nil
}

// CheckResult describes the instance used for an end-to-end launch check.
type CheckResult struct {
	InstanceID string
	PublicIP   string
}

// CheckLaunch exercises the full launch path with one throwaway instance:
// boot from the template, install a generated key over SSH, then log in
// with that key. The instance is left running, tagged for cleanup.
func CheckLaunch(ctx context.Context, ec2 EC2Service, installer KeyInstaller, template string, progress Progress) (CheckResult, error) {
	var check CheckResult

	pair, err := sshsetup.GenerateKeyPair()
	if err != nil {
		return check, err
	}

	report(progress, 1, 4, "launching check instance")
	instanceID, err := ec2.LaunchInstance(ctx, awsprov.LaunchSpec{
		Template:  template,
		NameTag:   "edutools-check",
		ExtraTags: map[string]string{awsprov.TagCheck: "true"},
	})
	if err != nil {
		return check, err
	}
	check.InstanceID = instanceID

	report(progress, 2, 4, "waiting for boot")
	ips, err := ec2.WaitRunning(ctx, []string{instanceID}, bootTimeout)
	if err != nil {
		return check, err
	}
	ip, ok := ips[instanceID]
	if !ok {
		return check, fmt.Errorf("check instance %s has no public IP", instanceID)
	}
	check.PublicIP = ip

	report(progress, 3, 4, "installing generated key")
	if err := authorizeWithDeadline(ctx, installer, ip, pair.AuthorizedKey); err != nil {
		return check, err
	}

	report(progress, 4, 4, "verifying login with generated key")
	verifyCtx, cancel := context.WithTimeout(ctx, sshDeadline)
	defer cancel()
	if err := sshsetup.VerifyKey(verifyCtx, ip, pair.PrivatePEM); err != nil {
		return check, fmt.Errorf("login with generated key failed: %w", err)
	}

	logger.Infof("Launch check passed on %s (%s)", instanceID, ip)
	return check, nil
}

// CleanupCheckInstances terminates every instance left behind by launch
// checks and returns how many it removed.
func CleanupCheckInstances(ctx context.Context, ec2 EC2Service, progress Progress) (int, error) {
	instances, err := ec2.FindCheckInstances(ctx)
	if err != nil {
		return 0, err
	}
	if len(instances) == 0 {
		return 0, nil
	}

	instanceIDs := make([]string, 0, len(instances))
	for i, instance := range instances {
		report(progress, i+1, len(instances), fmt.Sprintf("terminating %s", instance.ID))
		instanceIDs = append(instanceIDs, instance.ID)
	}

	if err := ec2.Terminate(ctx, instanceIDs, terminateTimeout); err != nil {
		return 0, err
	}
	return len(instanceIDs), nil
}
