// SPDX-License-Identifier: Apache-2.0

package sshsetup

import (
	"fmt"
	"strings"
	"text/template"
)

// SSHScriptFilename is the name of the connection script uploaded to each
// student's Drive folder.
const SSHScriptFilename = "ec2-ssh.sh"

// PrivateKeyFilename is the name of the raw private key file uploaded
// alongside the script for students using their own SSH client.
const PrivateKeyFilename = "ec2-key.pem"

var scriptTemplate = template.Must(template.New("ssh-script").Parse(`#!/usr/bin/env bash
#
# Connect to your course EC2 instance. Download this file, then run:
#
#   bash {{.Filename}}
#
set -euo pipefail

HOST="{{.IP}}"
USER="{{.User}}"

# Clean up key files left behind by interrupted runs.
rm -f /tmp/ec2-key.*.pem 2>/dev/null || true

KEYFILE="$(mktemp /tmp/ec2-key.XXXXXX.pem)"
trap 'rm -f "$KEYFILE"' EXIT

cat > "$KEYFILE" <<'EOF'
{{.PrivateKey}}
EOF
chmod 600 "$KEYFILE"

exec ssh -i "$KEYFILE" -o StrictHostKeyChecking=accept-new "$USER@$HOST"
`))

type scriptData struct {
	Filename   string
	IP         string
	User       string
	PrivateKey string
}

// BuildSSHScript renders the self-contained connection script for one
// instance. The private key is embedded so students need a single file.
func BuildSSHScript(ip, user string, privatePEM []byte) (string, error) {
	var b strings.Builder
	data := scriptData{
		Filename:   SSHScriptFilename,
		IP:         ip,
		User:       user,
		PrivateKey: strings.TrimSpace(string(privatePEM)),
	}
	if err := scriptTemplate.Execute(&b, data); err != nil {
		return "", fmt.Errorf("failed to render SSH script: %w", err)
	}
	return b.String(), nil
}

// BuildConnectionDoc renders the plain-text instructions placed next to the
// script in the student's Drive folder.
func BuildConnectionDoc(student, ip, user string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "EC2 instance for %s\n\n", student)
	fmt.Fprintf(&b, "Public IP: %s\n", ip)
	fmt.Fprintf(&b, "Login user: %s\n\n", user)
	b.WriteString("To connect from Linux, macOS or WSL:\n\n")
	fmt.Fprintf(&b, "  1. Download %s from this folder.\n", SSHScriptFilename)
	fmt.Fprintf(&b, "  2. Run: bash %s\n\n", SSHScriptFilename)
	b.WriteString("To use your own SSH client instead:\n\n")
	fmt.Fprintf(&b, "  1. Download %s and run: chmod 600 %s\n", PrivateKeyFilename, PrivateKeyFilename)
	fmt.Fprintf(&b, "  2. Run: ssh -i %s %s@%s\n\n", PrivateKeyFilename, user, ip)
	b.WriteString("The instance is stopped between lab sessions; the IP above may change\n")
	b.WriteString("after a restart. Check this folder for an updated copy if you cannot\n")
	b.WriteString("connect.\n")

	return b.String()
}
