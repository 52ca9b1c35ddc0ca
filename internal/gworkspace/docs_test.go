package gworkspace

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/api/docs/v1"
	"google.golang.org/api/option"
)

// docsWorkspace builds a Workspace whose Docs service talks to a local test
// server instead of Google.
func docsWorkspace(t *testing.T, handler http.HandlerFunc) *Workspace {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	service, err := docs.NewService(context.Background(),
		option.WithHTTPClient(srv.Client()),
		option.WithEndpoint(srv.URL))
	if err != nil {
		t.Fatalf("Unexpected error (%v)", err)
	}
	return &Workspace{docs: service}
}

func decodeBatchUpdate(t *testing.T, r *http.Request) *docs.BatchUpdateDocumentRequest {
	t.Helper()
	rq := &docs.BatchUpdateDocumentRequest{}
	if err := json.NewDecoder(r.Body).Decode(rq); err != nil {
		t.Errorf("Unexpected error (%v)", err)
	}
	return rq
}

func TestInsertText(t *testing.T) {
	var path string
	var rq *docs.BatchUpdateDocumentRequest

	w := docsWorkspace(t, func(rw http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		rq = decodeBatchUpdate(t, r)
		fmt.Fprintln(rw, "{}")
	})

	if err := w.InsertText(context.Background(), "doc-123", "Hello, class!", 1); err != nil {
		t.Fatalf("Unexpected error (%v)", err)
	}

	if path != "/v1/documents/doc-123:batchUpdate" {
		t.Errorf("Unexpected request path %q", path)
	}
	if len(rq.Requests) != 1 || rq.Requests[0].InsertText == nil {
		t.Fatalf("Expected a single InsertText request, got %+v", rq.Requests)
	}
	insert := rq.Requests[0].InsertText
	if insert.Text != "Hello, class!" {
		t.Errorf("Unexpected text %q", insert.Text)
	}
	if insert.Location == nil || insert.Location.Index != 1 {
		t.Errorf("Unexpected location %+v", insert.Location)
	}
}

func TestReplaceAllText(t *testing.T) {
	var rq *docs.BatchUpdateDocumentRequest

	w := docsWorkspace(t, func(rw http.ResponseWriter, r *http.Request) {
		rq = decodeBatchUpdate(t, r)
		fmt.Fprintln(rw, "{}")
	})

	if err := w.ReplaceAllText(context.Background(), "doc-123", "{{NAME}}", "Ada Lovelace", true); err != nil {
		t.Fatalf("Unexpected error (%v)", err)
	}

	if len(rq.Requests) != 1 || rq.Requests[0].ReplaceAllText == nil {
		t.Fatalf("Expected a single ReplaceAllText request, got %+v", rq.Requests)
	}
	replace := rq.Requests[0].ReplaceAllText
	if replace.ContainsText == nil || replace.ContainsText.Text != "{{NAME}}" {
		t.Errorf("Unexpected match criteria %+v", replace.ContainsText)
	}
	if !replace.ContainsText.MatchCase {
		t.Errorf("Expected a case-sensitive match")
	}
	if replace.ReplaceText != "Ada Lovelace" {
		t.Errorf("Unexpected replacement %q", replace.ReplaceText)
	}
}

func TestInsertTextAPIError(t *testing.T) {
	w := docsWorkspace(t, func(rw http.ResponseWriter, r *http.Request) {
		http.Error(rw, `{"error": {"code": 404, "message": "not found"}}`, http.StatusNotFound)
	})

	if err := w.InsertText(context.Background(), "gone", "x", 1); err == nil {
		t.Errorf("Expected an error for a missing document")
	}
}
