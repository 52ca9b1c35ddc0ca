// SPDX-License-Identifier: Apache-2.0

package gworkspace

import (
	"context"
	"fmt"
	"io"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
)

// FolderMIMEType identifies Drive folders in search filters and metadata.
const FolderMIMEType = "application/vnd.google-apps.folder"

// DriveFile is the subset of file metadata the CLI prints.
type DriveFile struct {
	ID       string
	Name     string
	MimeType string
}

// CreateFolder creates a Drive folder, in the caller's Drive root when
// parentID is empty. Returns the folder ID.
func (w *Workspace) CreateFolder(ctx context.Context, name, parentID string) (string, error) {
	service, err := w.driveService(ctx)
	if err != nil {
		return "", err
	}

	metadata := &drive.File{
		Name:     name,
		MimeType: FolderMIMEType,
	}
	if parentID != "" {
		metadata.Parents = []string{parentID}
	}

	folder, err := service.Files.Create(metadata).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to create folder %q: %w", name, err)
	}
	return folder.Id, nil
}

// CreateDocWithContent creates a Google Doc pre-populated with plain text.
//
// Uses a Drive upload with MIME conversion so the document is ready the
// moment it opens; creating an empty doc and batch-inserting text afterwards
// leaves a propagation window where students see a blank page.
func (w *Workspace) CreateDocWithContent(ctx context.Context, title, content, folderID string) (string, error) {
	service, err := w.driveService(ctx)
	if err != nil {
		return "", err
	}

	metadata := &drive.File{
		Name:     title,
		MimeType: "application/vnd.google-apps.document",
	}
	if folderID != "" {
		metadata.Parents = []string{folderID}
	}

	result, err := service.Files.Create(metadata).
		Media(strings.NewReader(content), googleapi.ContentType("text/plain")).
		Fields("id").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to create document %q: %w", title, err)
	}
	return result.Id, nil
}

// UploadTextFile uploads a plain-text file as a binary blob (no conversion)
// so students can download the original content, e.g. an SSH key script.
func (w *Workspace) UploadTextFile(ctx context.Context, name, content, folderID string) (string, error) {
	service, err := w.driveService(ctx)
	if err != nil {
		return "", err
	}

	metadata := &drive.File{
		Name:    name,
		Parents: []string{folderID},
	}

	result, err := service.Files.Create(metadata).
		Media(strings.NewReader(content), googleapi.ContentType("text/plain")).
		Fields("id").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to upload file %q: %w", name, err)
	}
	return result.Id, nil
}

// Share grants role ("reader", "writer", "commenter") on a file or folder to
// a user. Google sends its standard notification email to the recipient.
// Returns the permission ID.
func (w *Workspace) Share(ctx context.Context, fileID, email, role string) (string, error) {
	service, err := w.driveService(ctx)
	if err != nil {
		return "", err
	}

	permission := &drive.Permission{
		Type:         "user",
		Role:         role,
		EmailAddress: email,
	}

	result, err := service.Permissions.Create(fileID, permission).
		Fields("id").
		SendNotificationEmail(true).
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to share %s with %s: %w", fileID, email, err)
	}
	return result.Id, nil
}

// escapeQuery escapes single quotes for Drive search query literals.
func escapeQuery(s string) string {
	return strings.ReplaceAll(s, `'`, `\'`)
}

// FindByName finds files whose name exactly matches name. mimeType narrows
// the search when non-empty (e.g. the folder MIME type).
func (w *Workspace) FindByName(ctx context.Context, name, mimeType string) ([]DriveFile, error) {
	q := fmt.Sprintf("name = '%s' and trashed = false", escapeQuery(name))
	if mimeType != "" {
		q += fmt.Sprintf(" and mimeType = '%s'", mimeType)
	}
	return w.search(ctx, q, "")
}

// FindByPrefix finds files whose name starts with prefix. Drive only
// supports a 'contains' operator, so results are filtered client-side down
// to true prefix matches.
func (w *Workspace) FindByPrefix(ctx context.Context, prefix, mimeType string) ([]DriveFile, error) {
	q := fmt.Sprintf("name contains '%s' and trashed = false", escapeQuery(prefix))
	if mimeType != "" {
		q += fmt.Sprintf(" and mimeType = '%s'", mimeType)
	}

	files, err := w.search(ctx, q, "")
	if err != nil {
		return nil, err
	}

	matches := files[:0]
	for _, f := range files {
		if strings.HasPrefix(f.Name, prefix) {
			matches = append(matches, f)
		}
	}
	return matches, nil
}

// ListFolder lists the immediate contents of a Drive folder.
func (w *Workspace) ListFolder(ctx context.Context, folderID string) ([]DriveFile, error) {
	q := fmt.Sprintf("'%s' in parents and trashed = false", escapeQuery(folderID))
	return w.search(ctx, q, "files(id, name, mimeType)")
}

func (w *Workspace) search(ctx context.Context, query, fields string) ([]DriveFile, error) {
	service, err := w.driveService(ctx)
	if err != nil {
		return nil, err
	}

	if fields == "" {
		fields = "files(id, name)"
	}

	resp, err := service.Files.List().Q(query).Fields(googleapi.Field(fields)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("drive search failed: %w", err)
	}

	files := make([]DriveFile, 0, len(resp.Files))
	for _, f := range resp.Files {
		files = append(files, DriveFile{ID: f.Id, Name: f.Name, MimeType: f.MimeType})
	}
	return files, nil
}

// DownloadText downloads the raw content of a non-Google-Docs file. The
// drive.file scope suffices because the app created these files.
func (w *Workspace) DownloadText(ctx context.Context, fileID string) (string, error) {
	service, err := w.driveService(ctx)
	if err != nil {
		return "", err
	}

	resp, err := service.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return "", fmt.Errorf("unable to download file %s: %w", fileID, err)
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read file %s: %w", fileID, err)
	}
	return string(content), nil
}

// Delete removes a file or folder. Deleting a folder removes its contents.
func (w *Workspace) Delete(ctx context.Context, fileID string) error {
	service, err := w.driveService(ctx)
	if err != nil {
		return err
	}

	if err := service.Files.Delete(fileID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to delete %s: %w", fileID, err)
	}
	return nil
}
