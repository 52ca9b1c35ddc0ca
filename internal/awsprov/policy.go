// SPDX-License-Identifier: Apache-2.0

// Package awsprov provisions AWS resources for student lab environments:
// IAM users with restricted EC2 permissions and EC2 instances launched from
// a Launch Template.
package awsprov

import (
	"encoding/json"
	"fmt"
)

// policyStatement is one statement of an IAM policy document.
type policyStatement struct {
	Sid       string                       `json:"Sid"`
	Effect    string                       `json:"Effect"`
	Action    []string                     `json:"Action"`
	Resource  string                       `json:"Resource"`
	Condition map[string]map[string]string `json:"Condition,omitempty"`
}

type policyDocument struct {
	Version   string            `json:"Version"`
	Statement []policyStatement `json:"Statement"`
}

// EC2PolicyName is the inline policy attached to every student user.
const EC2PolicyName = "EC2OnlyAccess"

// EC2OnlyPolicy builds the student policy document: describe and basic
// lifecycle actions on EC2, restricted to a single region.
func EC2OnlyPolicy(region string) (string, error) {
	regionCondition := map[string]map[string]string{
		"StringEquals": {"ec2:Region": region},
	}

	doc := policyDocument{
		Version: "2012-10-17",
		Statement: []policyStatement{
			{
				Sid:    "AllowDescribeActions",
				Effect: "Allow",
				Action: []string{
					"ec2:DescribeInstances",
					"ec2:DescribeImages",
					"ec2:DescribeKeyPairs",
					"ec2:DescribeSecurityGroups",
					"ec2:DescribeSubnets",
					"ec2:DescribeVpcs",
					"ec2:DescribeAvailabilityZones",
				},
				Resource:  "*",
				Condition: regionCondition,
			},
			{
				Sid:    "AllowEC2Lifecycle",
				Effect: "Allow",
				Action: []string{
					"ec2:RunInstances",
					"ec2:StartInstances",
					"ec2:StopInstances",
					"ec2:TerminateInstances",
					"ec2:CreateKeyPair",
					"ec2:CreateSecurityGroup",
					"ec2:AuthorizeSecurityGroupIngress",
					"ec2:AuthorizeSecurityGroupEgress",
					"ec2:CreateTags",
				},
				Resource:  "*",
				Condition: regionCondition,
			},
		},
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal policy document: %w", err)
	}
	return string(data), nil
}
