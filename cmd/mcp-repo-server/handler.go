package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/stellarlink/repochat/internal/engine"
	"github.com/stellarlink/repochat/internal/repo"
)

// ReadFileParams defines the input parameters for read_file
type ReadFileParams struct {
	Path string `json:"path" jsonschema:"Repository-relative path of the file to read"`
}

// StrReplaceParams defines the input parameters for str_replace
type StrReplaceParams struct {
	Path   string `json:"path" jsonschema:"Repository-relative path of the file to edit"`
	OldStr string `json:"old_str" jsonschema:"Exact string to replace, occurring exactly once"`
	NewStr string `json:"new_str" jsonschema:"Replacement string"`
}

// CreateFileParams defines the input parameters for create_file
type CreateFileParams struct {
	Path    string `json:"path" jsonschema:"Repository-relative path of the new file"`
	Content string `json:"content" jsonschema:"Full content of the new file"`
}

// SearchFilesParams defines the input parameters for search_files
type SearchFilesParams struct {
	Query string `json:"query" jsonschema:"Search term"`
}

// ToolHandler dispatches MCP tool calls to the repository accessor.
type ToolHandler struct {
	accessor repo.Accessor
	editor   *engine.Editor
	branch   string
}

// NewToolHandler creates a handler writing to the given branch.
func NewToolHandler(accessor repo.Accessor, branch string) *ToolHandler {
	return &ToolHandler{
		accessor: accessor,
		editor:   engine.NewEditor(accessor, branch),
		branch:   branch,
	}
}

// HandleReadFile handles the read_file tool call
func (h *ToolHandler) HandleReadFile(ctx context.Context, req *mcp.CallToolRequest, params ReadFileParams) (*mcp.CallToolResult, any, error) {
	if params.Path == "" {
		return nil, nil, fmt.Errorf("path parameter is required")
	}

	rec, err := h.accessor.GetFile(ctx, params.Path, h.branch)
	if err != nil {
		return errorResult("read %s: %v", params.Path, err), nil, nil
	}

	return textResult(rec.Content), nil, nil
}

// HandleStrReplace handles the str_replace tool call
func (h *ToolHandler) HandleStrReplace(ctx context.Context, req *mcp.CallToolRequest, params StrReplaceParams) (*mcp.CallToolResult, any, error) {
	if params.Path == "" || params.OldStr == "" {
		return nil, nil, fmt.Errorf("path and old_str parameters are required")
	}

	if err := h.editor.Apply(ctx, params.Path, params.OldStr, params.NewStr); err != nil {
		return errorResult("edit %s: %v", params.Path, err), nil, nil
	}

	log.Printf("[MCP Repo Server] Edited %s", params.Path)
	return textResult("edited " + params.Path), nil, nil
}

// HandleCreateFile handles the create_file tool call
func (h *ToolHandler) HandleCreateFile(ctx context.Context, req *mcp.CallToolRequest, params CreateFileParams) (*mcp.CallToolResult, any, error) {
	if params.Path == "" {
		return nil, nil, fmt.Errorf("path parameter is required")
	}

	message := fmt.Sprintf("repochat: create %s", params.Path)
	if err := h.accessor.WriteFile(ctx, params.Path, params.Content, message, h.branch, ""); err != nil {
		return errorResult("create %s: %v", params.Path, err), nil, nil
	}

	log.Printf("[MCP Repo Server] Created %s", params.Path)
	return textResult("created " + params.Path), nil, nil
}

// HandleSearchFiles handles the search_files tool call
func (h *ToolHandler) HandleSearchFiles(ctx context.Context, req *mcp.CallToolRequest, params SearchFilesParams) (*mcp.CallToolResult, any, error) {
	if params.Query == "" {
		return nil, nil, fmt.Errorf("query parameter is required")
	}

	paths, err := h.accessor.Search(ctx, params.Query)
	if err != nil {
		return errorResult("search %q: %v", params.Query, err), nil, nil
	}

	if len(paths) == 0 {
		return textResult("no matches"), nil, nil
	}
	return textResult(strings.Join(paths, "\n")), nil, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

func errorResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("Error: "+format, args...)},
		},
		IsError: true,
	}
}
