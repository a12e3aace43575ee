package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/stellarlink/repochat/internal/repo"
)

func main() {
	// 1. Validate required environment variables
	requiredEnv := []string{"GITHUB_TOKEN", "REPO_OWNER", "REPO_NAME"}
	for _, env := range requiredEnv {
		if os.Getenv(env) == "" {
			log.Fatalf("[MCP Repo Server] Missing required environment variable: %s", env)
		}
	}

	owner := os.Getenv("REPO_OWNER")
	name := os.Getenv("REPO_NAME")
	branch := os.Getenv("REPO_BRANCH")
	if branch == "" {
		branch = "main"
	}

	log.Println("[MCP Repo Server] Starting repository MCP server v1.0.0")
	log.Printf("[MCP Repo Server] Repository: %s/%s@%s", owner, name, branch)

	accessor := repo.NewGitHubAccessor(os.Getenv("GITHUB_TOKEN"), owner, name)
	h := NewToolHandler(accessor, branch)

	// 2. Create MCP server
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "repochat-repo-server",
		Version: "v1.0.0",
	}, nil)

	// 3. Register the repository tools
	mcp.AddTool(server, &mcp.Tool{
		Name:        "read_file",
		Description: "Read the content of a file in the repository",
	}, h.HandleReadFile)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "str_replace",
		Description: "Replace a unique string in a file; the old string must occur exactly once",
	}, h.HandleStrReplace)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_file",
		Description: "Create a new file with the given content",
	}, h.HandleCreateFile)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_files",
		Description: "Full-text search across the repository, returns matching file paths",
	}, h.HandleSearchFiles)

	log.Println("[MCP Repo Server] Registered tools: read_file, str_replace, create_file, search_files")

	// 4. Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("[MCP Repo Server] Received shutdown signal")
		cancel()
	}()

	// 5. Start server with stdio transport
	log.Println("[MCP Repo Server] Starting on stdio transport...")
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		log.Fatalf("[MCP Repo Server] Server error: %v", err)
	}
	log.Println("[MCP Repo Server] Server stopped gracefully")
}
