// SPDX-License-Identifier: Apache-2.0

// Package sshsetup prepares SSH access to freshly launched lab instances:
// it generates per-student key pairs, installs the public keys on the
// instances using the instructor's key, and renders the connection
// artifacts handed to students.
package sshsetup

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"strings"

	"golang.org/x/crypto/ssh"
)

// KeyPair holds a generated SSH key pair: the private key in PEM form and
// the public key as a single authorized_keys line.
type KeyPair struct {
	PrivatePEM    []byte
	AuthorizedKey string
}

// GenerateKeyPair creates a new RSA-4096 key pair for a student instance.
func GenerateKeyPair() (*KeyPair, error) {
	key, err := rsa.GenerateKey(rand.Reader, 4096)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA key: %w", err)
	}

	privatePEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})

	publicKey, err := ssh.NewPublicKey(&key.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to derive public key: %w", err)
	}

	return &KeyPair{
		PrivatePEM:    privatePEM,
		AuthorizedKey: strings.TrimSpace(string(ssh.MarshalAuthorizedKey(publicKey))),
	}, nil
}
