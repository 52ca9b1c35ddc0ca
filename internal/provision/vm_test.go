package provision

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"edutools/internal/awsprov"
)

type fakeEC2 struct {
	launched   []awsprov.LaunchSpec
	terminated []string
	instances  []awsprov.Instance
	checks     []awsprov.Instance
	launchErr  error
	noIP       bool
	nextID     int
}

func (f *fakeEC2) LaunchInstance(ctx context.Context, spec awsprov.LaunchSpec) (string, error) {
	if f.launchErr != nil {
		return "", f.launchErr
	}
	f.nextID++
	f.launched = append(f.launched, spec)
	return fmt.Sprintf("i-%04d", f.nextID), nil
}

func (f *fakeEC2) WaitRunning(ctx context.Context, instanceIDs []string, timeout time.Duration) (map[string]string, error) {
	ips := make(map[string]string)
	if f.noIP {
		return ips, nil
	}
	for i, id := range instanceIDs {
		ips[id] = fmt.Sprintf("198.51.100.%d", i+1)
	}
	return ips, nil
}

func (f *fakeEC2) FindCourseInstances(ctx context.Context, courseID string) ([]awsprov.Instance, error) {
	return f.instances, nil
}

func (f *fakeEC2) FindCheckInstances(ctx context.Context) ([]awsprov.Instance, error) {
	return f.checks, nil
}

func (f *fakeEC2) Terminate(ctx context.Context, instanceIDs []string, timeout time.Duration) error {
	f.terminated = append(f.terminated, instanceIDs...)
	return nil
}

type fakeInstaller struct {
	authorized map[string]string
	failIP     string
}

func (f *fakeInstaller) AuthorizeKey(ctx context.Context, ip, authorizedKey string) error {
	if ip == f.failIP {
		return errors.New("connection refused")
	}
	if f.authorized == nil {
		f.authorized = make(map[string]string)
	}
	f.authorized[ip] = authorizedKey
	return nil
}

func (f *fakeInstaller) VerifyLogin(ctx context.Context, ip string) error {
	return nil
}

func TestLaunchVMsTagsAndKeys(t *testing.T) {
	ec2 := &fakeEC2{}
	installer := &fakeInstaller{}

	results := LaunchVMs(context.Background(), ec2, installer, "course-lab", "4242", testStudents, nil)

	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	if len(ec2.launched) != 2 {
		t.Fatalf("Expected 2 launches, got %d", len(ec2.launched))
	}

	spec := ec2.launched[0]
	if spec.Template != "course-lab" {
		t.Errorf("Expected template course-lab, got %q", spec.Template)
	}
	if spec.ExtraTags[awsprov.TagCourse] != "4242" {
		t.Errorf("Expected course tag 4242, got %q", spec.ExtraTags[awsprov.TagCourse])
	}
	if spec.ExtraTags[awsprov.TagStudent] != "alovelace" {
		t.Errorf("Expected student tag alovelace, got %q", spec.ExtraTags[awsprov.TagStudent])
	}

	if results[1].Status != VMSkipped {
		t.Errorf("Student without email should be skipped, got %v", results[1].Status)
	}

	for _, idx := range []int{0, 2} {
		result := results[idx]
		if result.Status != VMLaunched {
			t.Errorf("%s: expected launched, got %v (%v)", result.Username, result.Status, result.Err)
		}
		if result.PublicIP == "" || result.KeyPair == nil {
			t.Errorf("%s: missing connection data", result.Username)
		}
		if installer.authorized[result.PublicIP] != result.KeyPair.AuthorizedKey {
			t.Errorf("%s: wrong key installed on %s", result.Username, result.PublicIP)
		}
	}
}

func TestLaunchVMsRecordsPerStudentFailures(t *testing.T) {
	ec2 := &fakeEC2{}
	installer := &fakeInstaller{failIP: "198.51.100.1"}

	results := LaunchVMs(context.Background(), ec2, installer, "course-lab", "4242", testStudents[:1], nil)

	if results[0].Status != VMFailed {
		t.Errorf("SSH failure should mark the launch failed, got %v", results[0].Status)
	}
	if results[0].Err == nil {
		t.Errorf("Expected an error on the failed result")
	}
}

func TestLaunchVMsReportsMissingPublicIP(t *testing.T) {
	ec2 := &fakeEC2{noIP: true}
	installer := &fakeInstaller{}

	results := LaunchVMs(context.Background(), ec2, installer, "course-lab", "4242", testStudents[:1], nil)

	if results[0].Status != VMFailed || results[0].Err == nil {
		t.Errorf("Expected failure for instance without public IP, got %v (%v)", results[0].Status, results[0].Err)
	}
}

func TestTerminateVMs(t *testing.T) {
	ec2 := &fakeEC2{
		instances: []awsprov.Instance{
			{ID: "i-0001", Student: "alovelace", State: "running"},
			{ID: "i-0002", Student: "ghopper", State: "stopped"},
		},
	}

	terminated, err := TerminateVMs(context.Background(), ec2, "4242", nil)
	if err != nil {
		t.Fatalf("Unexpected error (%v)", err)
	}

	if len(terminated) != 2 || len(ec2.terminated) != 2 {
		t.Errorf("Expected 2 terminations, got %v", ec2.terminated)
	}
}

func TestTerminateVMsNoInstances(t *testing.T) {
	ec2 := &fakeEC2{}

	terminated, err := TerminateVMs(context.Background(), ec2, "4242", nil)
	if err != nil {
		t.Fatalf("Unexpected error (%v)", err)
	}
	if terminated != nil {
		t.Errorf("Expected no terminations, got %v", terminated)
	}
}

func TestCleanupCheckInstances(t *testing.T) {
	ec2 := &fakeEC2{
		checks: []awsprov.Instance{{ID: "i-0009", State: "running"}},
	}

	count, err := CleanupCheckInstances(context.Background(), ec2, nil)
	if err != nil {
		t.Fatalf("Unexpected error (%v)", err)
	}
	if count != 1 || len(ec2.terminated) != 1 {
		t.Errorf("Expected 1 cleanup, got %d (%v)", count, ec2.terminated)
	}
}
