package gworkspace

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// driveWorkspace builds a Workspace whose Drive service talks to a local
// test server instead of Google.
func driveWorkspace(t *testing.T, handler http.HandlerFunc) *Workspace {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	service, err := drive.NewService(context.Background(),
		option.WithHTTPClient(srv.Client()),
		option.WithEndpoint(srv.URL))
	if err != nil {
		t.Fatalf("Unexpected error (%v)", err)
	}
	return &Workspace{drive: service}
}

func TestFindByName(t *testing.T) {
	var query string

	w := driveWorkspace(t, func(rw http.ResponseWriter, r *http.Request) {
		query = r.URL.Query().Get("q")
		fmt.Fprintln(rw, `{"files": [{"id": "f-1", "name": "How to connect", "mimeType": "application/vnd.google-apps.document"}]}`)
	})

	files, err := w.FindByName(context.Background(), "How to connect", "")
	if err != nil {
		t.Fatalf("Unexpected error (%v)", err)
	}

	if query != "name = 'How to connect' and trashed = false" {
		t.Errorf("Unexpected search query %q", query)
	}
	if len(files) != 1 || files[0].ID != "f-1" || files[0].Name != "How to connect" {
		t.Errorf("Unexpected results %+v", files)
	}
}

func TestFindByNameFiltersMIMEType(t *testing.T) {
	var query string

	w := driveWorkspace(t, func(rw http.ResponseWriter, r *http.Request) {
		query = r.URL.Query().Get("q")
		fmt.Fprintln(rw, `{"files": []}`)
	})

	if _, err := w.FindByName(context.Background(), "cs453-alovelace", FolderMIMEType); err != nil {
		t.Fatalf("Unexpected error (%v)", err)
	}

	if !strings.Contains(query, fmt.Sprintf("mimeType = '%s'", FolderMIMEType)) {
		t.Errorf("Query should filter on the folder MIME type, got %q", query)
	}
}

func TestFindByNameEscapesQuotes(t *testing.T) {
	var query string

	w := driveWorkspace(t, func(rw http.ResponseWriter, r *http.Request) {
		query = r.URL.Query().Get("q")
		fmt.Fprintln(rw, `{"files": []}`)
	})

	if _, err := w.FindByName(context.Background(), "Ada's folder", ""); err != nil {
		t.Fatalf("Unexpected error (%v)", err)
	}

	if !strings.Contains(query, `Ada\'s folder`) {
		t.Errorf("Single quote not escaped in query %q", query)
	}
}
