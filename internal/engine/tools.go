package engine

import "github.com/stellarlink/repochat/internal/provider"

// Tool names the model may call during a turn.
const (
	ToolReadFile    = "read_file"
	ToolStrReplace  = "str_replace"
	ToolCreateFile  = "create_file"
	ToolSearchFiles = "search_files"
)

// ReadFileInput defines the input parameters for read_file
type ReadFileInput struct {
	Path string `json:"path"`
}

// StrReplaceInput defines the input parameters for str_replace
type StrReplaceInput struct {
	Path   string `json:"path"`
	OldStr string `json:"old_str"`
	NewStr string `json:"new_str"`
}

// CreateFileInput defines the input parameters for create_file
type CreateFileInput struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// SearchFilesInput defines the input parameters for search_files
type SearchFilesInput struct {
	Query string `json:"query"`
}

// ToolResult is the outcome of one dispatched tool call, positionally
// correlated with the call list.
type ToolResult struct {
	Success bool   `json:"success"`
	Result  string `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

// FileChange is the externally visible record of a mutation. Only successful
// create_file and str_replace calls produce one.
type FileChange struct {
	Path   string `json:"path"`
	Action string `json:"action"` // "create" or "edit"
	Diff   string `json:"diff,omitempty"`
}

// ToolDefinitions returns the tool schema offered to the model.
func ToolDefinitions() []provider.ToolDefinition {
	return []provider.ToolDefinition{
		{
			Name:        ToolReadFile,
			Description: "Read the content of a file in the repository",
			Schema: objectSchema(map[string]any{
				"path": stringProp("Repository-relative path of the file to read"),
			}, "path"),
		},
		{
			Name: ToolStrReplace,
			Description: "Replace a unique string in a file. The old string must occur " +
				"exactly once in the file; include enough surrounding context to make it unique.",
			Schema: objectSchema(map[string]any{
				"path":    stringProp("Repository-relative path of the file to edit"),
				"old_str": stringProp("Exact string to replace, occurring exactly once"),
				"new_str": stringProp("Replacement string"),
			}, "path", "old_str", "new_str"),
		},
		{
			Name:        ToolCreateFile,
			Description: "Create a new file with the given content",
			Schema: objectSchema(map[string]any{
				"path":    stringProp("Repository-relative path of the new file"),
				"content": stringProp("Full content of the new file"),
			}, "path", "content"),
		},
		{
			Name:        ToolSearchFiles,
			Description: "Full-text search across the repository, returns matching file paths",
			Schema: objectSchema(map[string]any{
				"query": stringProp("Search term"),
			}, "query"),
		},
	}
}

func objectSchema(props map[string]any, required ...string) map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

func stringProp(description string) map[string]any {
	return map[string]any{
		"type":        "string",
		"description": description,
	}
}
