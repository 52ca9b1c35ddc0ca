// SPDX-License-Identifier: Apache-2.0

package gworkspace

import (
	"context"
	"fmt"

	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"edutools/internal/config"
)

// Workspace provides the Docs, Drive and Gmail operations. Services are
// created on first use and reused for the life of the process.
type Workspace struct {
	auth *Authenticator

	docs  *docs.Service
	drive *drive.Service
	gmail *gmail.Service
}

func New(cfg config.GoogleConfig) (*Workspace, error) {
	auth, err := NewAuthenticator(cfg)
	if err != nil {
		return nil, err
	}
	return &Workspace{auth: auth}, nil
}

func (w *Workspace) docsService(ctx context.Context) (*docs.Service, error) {
	if w.docs != nil {
		return w.docs, nil
	}

	client, err := w.auth.Client(ctx, DocsScopes)
	if err != nil {
		return nil, err
	}
	service, err := docs.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Docs client: %w", err)
	}
	w.docs = service
	return service, nil
}

func (w *Workspace) driveService(ctx context.Context) (*drive.Service, error) {
	if w.drive != nil {
		return w.drive, nil
	}

	client, err := w.auth.Client(ctx, DocsScopes)
	if err != nil {
		return nil, err
	}
	service, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Drive client: %w", err)
	}
	w.drive = service
	return service, nil
}

func (w *Workspace) gmailService(ctx context.Context) (*gmail.Service, error) {
	if w.gmail != nil {
		return w.gmail, nil
	}

	client, err := w.auth.Client(ctx, GmailScopes)
	if err != nil {
		return nil, err
	}
	service, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail client: %w", err)
	}
	w.gmail = service
	return service, nil
}
