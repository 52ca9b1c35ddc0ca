// SPDX-License-Identifier: Apache-2.0

package sshsetup

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	sshconfig "github.com/kevinburke/ssh_config"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"edutools/internal/config"
	"edutools/internal/logger"
	"edutools/internal/util"
)

// DefaultUser is the login user on instances built from the stock Ubuntu AMI.
const DefaultUser = "ubuntu"

// dialRetryInterval paces connection attempts while an instance boots.
const dialRetryInterval = 15 * time.Second

// InstanceUser returns the login user for a host, consulting the local
// ~/.ssh/config before falling back to the Ubuntu default.
func InstanceUser(host string) string {
	if user := sshconfig.Get(host, "User"); user != "" {
		return user
	}
	return DefaultUser
}

// InstructorKeyPath resolves the instructor's private key: the configured
// path if set, otherwise the IdentityFile from ~/.ssh/config for the host.
func InstructorKeyPath(configured, host string) (string, error) {
	if configured != "" {
		return config.ResolvePath(configured)
	}

	identity := sshconfig.Get(host, "IdentityFile")
	if identity == "" || identity == "~/.ssh/identity" {
		return "", fmt.Errorf("no instructor key configured and no IdentityFile in ~/.ssh/config for %s", host)
	}
	return config.ResolvePath(identity)
}

// Installer installs student public keys on lab instances by connecting
// with the instructor's key from the Launch Template.
type Installer struct {
	user   string
	signer ssh.Signer
}

// NewInstaller loads the instructor's private key from keyPath.
func NewInstaller(keyPath string) (*Installer, error) {
	key, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read instructor key %s: %w", keyPath, err)
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to parse instructor key %s: %w", keyPath, err)
	}

	return &Installer{user: DefaultUser, signer: signer}, nil
}

// AuthorizeKey appends an authorized_keys line on the instance at ip,
// retrying until the instance accepts connections or the context expires.
// Freshly launched instances take a minute or two to start sshd.
func (i *Installer) AuthorizeKey(ctx context.Context, ip, authorizedKey string) error {
	command := fmt.Sprintf(
		"mkdir -p ~/.ssh && chmod 700 ~/.ssh && echo %s >> ~/.ssh/authorized_keys && chmod 600 ~/.ssh/authorized_keys",
		util.QuoteArgForShell(authorizedKey),
	)
	return i.run(ctx, ip, command)
}

// VerifyLogin confirms that an instance accepts the instructor's key.
func (i *Installer) VerifyLogin(ctx context.Context, ip string) error {
	return i.run(ctx, ip, "true")
}

// VerifyKey confirms that an instance accepts a generated private key.
// Used by the end-to-end launch check after AuthorizeKey.
func VerifyKey(ctx context.Context, ip string, privatePEM []byte) error {
	signer, err := ssh.ParsePrivateKey(privatePEM)
	if err != nil {
		return fmt.Errorf("failed to parse generated key: %w", err)
	}
	probe := &Installer{user: DefaultUser, signer: signer}
	return probe.VerifyLogin(ctx, ip)
}

func (i *Installer) run(ctx context.Context, ip, command string) error {
	client, err := i.dial(ctx, net.JoinHostPort(ip, "22"))
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Errorf("Error closing SSH client for %s: %v", ip, err)
		}
	}()

	session, err := client.NewSession()
	if err != nil {
		return fmt.Errorf("failed to open SSH session on %s: %w", ip, err)
	}
	defer session.Close()

	if output, err := session.CombinedOutput(command); err != nil {
		return fmt.Errorf("remote command failed on %s: %w (%s)", ip, err, string(output))
	}
	return nil
}

// dial keeps retrying the connection until it succeeds or ctx is done.
func (i *Installer) dial(ctx context.Context, addr string) (*ssh.Client, error) {
	sshConfig := &ssh.ClientConfig{
		User:    i.user,
		Auth:    []ssh.AuthMethod{ssh.PublicKeys(i.signer)},
		Timeout: 10 * time.Second,
	}

	sshConfig.HostKeyCallback = createHostKeyCallback()

	var lastErr error
	for {
		client, err := ssh.Dial("tcp", addr, sshConfig)
		if err == nil {
			return client, nil
		}
		lastErr = err
		logger.Debugf("SSH dial to %s failed, will retry: %v", addr, err)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("failed to dial %s before deadline: %w (last error: %v)", addr, ctx.Err(), lastErr)
		case <-time.After(dialRetryInterval):
		}
	}
}

// createHostKeyCallback consults ~/.ssh/known_hosts when possible. Freshly
// launched instances always have unknown host keys, so unknown hosts are
// accepted rather than failing the provisioning run; a known host with a
// mismatched key is still logged.
func createHostKeyCallback() ssh.HostKeyCallback {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		logger.Warnf("Could not determine home directory for known_hosts: %v. Host keys will not be verified.", err)
		return ssh.InsecureIgnoreHostKey()
	}
	knownHostsPath := filepath.Join(homeDir, ".ssh", "known_hosts")

	known, err := knownhosts.New(knownHostsPath)
	if err != nil {
		logger.Warnf("Could not load known_hosts file %s: %v. Host keys will not be verified.", knownHostsPath, err)
		return ssh.InsecureIgnoreHostKey()
	}

	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		if err := known(hostname, remote, key); err != nil {
			logger.Debugf("Host key for %s not in known_hosts, accepting: %v", hostname, err)
		}
		return nil
	}
}
