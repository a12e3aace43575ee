package main

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/stellarlink/repochat/internal/repo"
)

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content type %T", res.Content[0])
	}
	return text.Text
}

func TestHandleReadFile(t *testing.T) {
	mock := &repo.MockAccessor{
		GetFileFunc: func(ctx context.Context, path, branch string) (*repo.FileRecord, error) {
			return &repo.FileRecord{Path: path, Content: "export {}\n", RevisionID: "rev"}, nil
		},
	}
	h := NewToolHandler(mock, "main")

	res, _, err := h.HandleReadFile(context.Background(), nil, ReadFileParams{Path: "src/app.ts"})
	if err != nil {
		t.Fatalf("HandleReadFile() error = %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, res))
	}
	if resultText(t, res) != "export {}\n" {
		t.Errorf("result = %q", resultText(t, res))
	}
}

func TestHandleReadFile_MissingPath(t *testing.T) {
	h := NewToolHandler(&repo.MockAccessor{}, "main")

	_, _, err := h.HandleReadFile(context.Background(), nil, ReadFileParams{})
	if err == nil {
		t.Error("expected error for empty path")
	}
}

func TestHandleReadFile_NotFound(t *testing.T) {
	h := NewToolHandler(&repo.MockAccessor{}, "main")

	res, _, err := h.HandleReadFile(context.Background(), nil, ReadFileParams{Path: "src/gone.ts"})
	if err != nil {
		t.Fatalf("HandleReadFile() error = %v, remote failures are tool results", err)
	}
	if !res.IsError {
		t.Error("expected IsError result for missing file")
	}
}

func TestHandleStrReplace(t *testing.T) {
	mock := &repo.MockAccessor{
		GetFileFunc: func(ctx context.Context, path, branch string) (*repo.FileRecord, error) {
			return &repo.FileRecord{Path: path, Content: "x = 1\n", RevisionID: "rev-1"}, nil
		},
	}
	h := NewToolHandler(mock, "main")

	res, _, err := h.HandleStrReplace(context.Background(), nil, StrReplaceParams{
		Path: "src/app.ts", OldStr: "x = 1", NewStr: "x = 2",
	})
	if err != nil {
		t.Fatalf("HandleStrReplace() error = %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, res))
	}
	if len(mock.WriteCalls) != 1 || mock.WriteCalls[0].ExpectedRevision != "rev-1" {
		t.Errorf("writes = %+v", mock.WriteCalls)
	}
}

func TestHandleStrReplace_MissingParams(t *testing.T) {
	h := NewToolHandler(&repo.MockAccessor{}, "main")

	_, _, err := h.HandleStrReplace(context.Background(), nil, StrReplaceParams{Path: "src/app.ts"})
	if err == nil {
		t.Error("expected error for empty old_str")
	}
}

func TestHandleCreateFile(t *testing.T) {
	mock := &repo.MockAccessor{}
	h := NewToolHandler(mock, "main")

	res, _, err := h.HandleCreateFile(context.Background(), nil, CreateFileParams{
		Path: "src/new.ts", Content: "export {}\n",
	})
	if err != nil {
		t.Fatalf("HandleCreateFile() error = %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, res))
	}
	if len(mock.WriteCalls) != 1 || mock.WriteCalls[0].ExpectedRevision != "" {
		t.Errorf("writes = %+v", mock.WriteCalls)
	}
}

func TestHandleSearchFiles(t *testing.T) {
	mock := &repo.MockAccessor{
		SearchFunc: func(ctx context.Context, term string) ([]string, error) {
			return []string{"src/a.ts", "src/b.ts"}, nil
		},
	}
	h := NewToolHandler(mock, "main")

	res, _, err := h.HandleSearchFiles(context.Background(), nil, SearchFilesParams{Query: "Checkout"})
	if err != nil {
		t.Fatalf("HandleSearchFiles() error = %v", err)
	}
	if resultText(t, res) != "src/a.ts\nsrc/b.ts" {
		t.Errorf("result = %q", resultText(t, res))
	}
}

func TestHandleSearchFiles_NoMatches(t *testing.T) {
	h := NewToolHandler(&repo.MockAccessor{}, "main")

	res, _, err := h.HandleSearchFiles(context.Background(), nil, SearchFilesParams{Query: "Nothing"})
	if err != nil {
		t.Fatalf("HandleSearchFiles() error = %v", err)
	}
	if resultText(t, res) != "no matches" {
		t.Errorf("result = %q", resultText(t, res))
	}
}

func TestHandleSearchFiles_SearchFailure(t *testing.T) {
	mock := &repo.MockAccessor{
		SearchFunc: func(ctx context.Context, term string) ([]string, error) {
			return nil, errors.New("search unavailable")
		},
	}
	h := NewToolHandler(mock, "main")

	res, _, err := h.HandleSearchFiles(context.Background(), nil, SearchFilesParams{Query: "Checkout"})
	if err != nil {
		t.Fatalf("HandleSearchFiles() error = %v", err)
	}
	if !res.IsError {
		t.Error("expected IsError result for failed search")
	}
}
