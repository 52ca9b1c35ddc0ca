// SPDX-License-Identifier: Apache-2.0

package awsprov

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"
)

// Tag keys applied to instances launched by edutools.
const (
	TagCourse  = "edutools-course"
	TagStudent = "edutools-student"
	TagCheck   = "edutools-check"
)

// nonTerminatedStates are the instance states considered "live" when
// looking up course instances.
var nonTerminatedStates = []string{"pending", "running", "stopping", "stopped"}

// Instance is the slice of instance metadata the provisioning flows need.
type Instance struct {
	ID       string
	Student  string
	State    string
	PublicIP string
}

// EC2 manages lab instances launched from a Launch Template.
type EC2 struct {
	client *ec2.Client
}

func NewEC2(ctx context.Context, region string) (*EC2, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return &EC2{client: ec2.NewFromConfig(cfg)}, nil
}

// LaunchSpec describes one instance launch. The Launch Template defines the
// AMI, instance type, key pair and security group; LaunchSpec layers tags
// and optional first-boot user data on top.
type LaunchSpec struct {
	// Template is a Launch Template name, or an ID when prefixed "lt-"
	Template string

	// NameTag is the value for the instance Name tag
	NameTag string

	// ExtraTags are additional tags to apply
	ExtraTags map[string]string

	// UserData is an optional cloud-init script for first boot
	UserData string
}

// LaunchInstance launches a single instance and returns its ID.
func (e *EC2) LaunchInstance(ctx context.Context, spec LaunchSpec) (string, error) {
	tags := []ec2types.Tag{{Key: aws.String("Name"), Value: aws.String(spec.NameTag)}}
	for k, v := range spec.ExtraTags {
		tags = append(tags, ec2types.Tag{Key: aws.String(k), Value: aws.String(v)})
	}

	template := &ec2types.LaunchTemplateSpecification{}
	if strings.HasPrefix(spec.Template, "lt-") {
		template.LaunchTemplateId = aws.String(spec.Template)
	} else {
		template.LaunchTemplateName = aws.String(spec.Template)
	}

	input := &ec2.RunInstancesInput{
		LaunchTemplate: template,
		MinCount:       aws.Int32(1),
		MaxCount:       aws.Int32(1),
		TagSpecifications: []ec2types.TagSpecification{
			{
				ResourceType: ec2types.ResourceTypeInstance,
				Tags:         tags,
			},
		},
	}
	if spec.UserData != "" {
		input.UserData = aws.String(base64.StdEncoding.EncodeToString([]byte(spec.UserData)))
	}

	resp, err := e.client.RunInstances(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to launch instance from template %s: %w", spec.Template, err)
	}
	if len(resp.Instances) == 0 {
		return "", fmt.Errorf("no instance returned for launch from template %s", spec.Template)
	}

	return aws.ToString(resp.Instances[0].InstanceId), nil
}

// WaitRunning blocks until the instances reach the running state, then
// returns a map of instance ID to public IP. Instances without a public IP
// are absent from the map.
func (e *EC2) WaitRunning(ctx context.Context, instanceIDs []string, timeout time.Duration) (map[string]string, error) {
	waiter := ec2.NewInstanceRunningWaiter(e.client)
	input := &ec2.DescribeInstancesInput{InstanceIds: instanceIDs}

	if err := waiter.Wait(ctx, input, timeout); err != nil {
		return nil, fmt.Errorf("instances did not reach running state: %w", err)
	}

	desc, err := e.client.DescribeInstances(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to describe instances: %w", err)
	}

	ips := make(map[string]string)
	for _, reservation := range desc.Reservations {
		for _, inst := range reservation.Instances {
			if ip := aws.ToString(inst.PublicIpAddress); ip != "" {
				ips[aws.ToString(inst.InstanceId)] = ip
			}
		}
	}
	return ips, nil
}

// FindCourseInstances lists live instances tagged with a course ID.
func (e *EC2) FindCourseInstances(ctx context.Context, courseID string) ([]Instance, error) {
	return e.findByTag(ctx, TagCourse, courseID)
}

// FindCheckInstances lists live instances created by the end-to-end launch check.
func (e *EC2) FindCheckInstances(ctx context.Context) ([]Instance, error) {
	return e.findByTag(ctx, TagCheck, "true")
}

func (e *EC2) findByTag(ctx context.Context, key, value string) ([]Instance, error) {
	resp, err := e.client.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
		Filters: []ec2types.Filter{
			{Name: aws.String("tag:" + key), Values: []string{value}},
			{Name: aws.String("instance-state-name"), Values: nonTerminatedStates},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find instances by tag %s: %w", key, err)
	}

	var instances []Instance
	for _, reservation := range resp.Reservations {
		for _, inst := range reservation.Instances {
			student := ""
			for _, tag := range inst.Tags {
				if aws.ToString(tag.Key) == TagStudent {
					student = aws.ToString(tag.Value)
				}
			}
			instances = append(instances, Instance{
				ID:       aws.ToString(inst.InstanceId),
				Student:  student,
				State:    string(inst.State.Name),
				PublicIP: aws.ToString(inst.PublicIpAddress),
			})
		}
	}
	return instances, nil
}

// Terminate terminates instances and waits for them to reach the
// terminated state. Instances that no longer exist are treated as already
// terminated.
func (e *EC2) Terminate(ctx context.Context, instanceIDs []string, timeout time.Duration) error {
	_, err := e.client.TerminateInstances(ctx, &ec2.TerminateInstancesInput{
		InstanceIds: instanceIDs,
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "InvalidInstanceID.NotFound" {
			return nil
		}
		return fmt.Errorf("failed to terminate instances: %w", err)
	}

	waiter := ec2.NewInstanceTerminatedWaiter(e.client)
	input := &ec2.DescribeInstancesInput{InstanceIds: instanceIDs}
	if err := waiter.Wait(ctx, input, timeout); err != nil {
		return fmt.Errorf("instances did not reach terminated state: %w", err)
	}
	return nil
}
