// SPDX-License-Identifier: Apache-2.0

package gworkspace

import (
	"context"
	"fmt"

	"google.golang.org/api/docs/v1"
)

// CreateDoc creates an empty Google Doc and optionally moves it into a
// Drive folder. Returns the document ID.
func (w *Workspace) CreateDoc(ctx context.Context, title, folderID string) (string, error) {
	service, err := w.docsService(ctx)
	if err != nil {
		return "", err
	}

	doc, err := service.Documents.Create(&docs.Document{Title: title}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to create document %q: %w", title, err)
	}

	if folderID != "" {
		drive, err := w.driveService(ctx)
		if err != nil {
			return "", err
		}
		_, err = drive.Files.Update(doc.DocumentId, nil).
			AddParents(folderID).
			Fields("id, parents").
			Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("unable to move document into folder %s: %w", folderID, err)
		}
	}

	return doc.DocumentId, nil
}

// InsertText inserts text at a character index. Index 1 is right after the
// start of the document body.
func (w *Workspace) InsertText(ctx context.Context, documentID, text string, index int64) error {
	service, err := w.docsService(ctx)
	if err != nil {
		return err
	}

	rq := &docs.BatchUpdateDocumentRequest{
		Requests: []*docs.Request{
			{
				InsertText: &docs.InsertTextRequest{
					Location: &docs.Location{Index: index},
					Text:     text,
				},
			},
		},
	}

	if _, err := service.Documents.BatchUpdate(documentID, rq).Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to insert text into document %s: %w", documentID, err)
	}
	return nil
}

// ReplaceAllText replaces every occurrence of old with new in the document.
func (w *Workspace) ReplaceAllText(ctx context.Context, documentID, old, new string, matchCase bool) error {
	service, err := w.docsService(ctx)
	if err != nil {
		return err
	}

	rq := &docs.BatchUpdateDocumentRequest{
		Requests: []*docs.Request{
			{
				ReplaceAllText: &docs.ReplaceAllTextRequest{
					ContainsText: &docs.SubstringMatchCriteria{Text: old, MatchCase: matchCase},
					ReplaceText:  new,
				},
			},
		},
	}

	if _, err := service.Documents.BatchUpdate(documentID, rq).Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to replace text in document %s: %w", documentID, err)
	}
	return nil
}
