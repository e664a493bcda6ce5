package mcptools

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewImportMCPServer creates an MCP server with the import graph tools registered.
func NewImportMCPServer(svc *ImportService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "pyimports",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "build_import_graph",
		Description: "Scan the project's Python files and build the import graph. Returns summary statistics, orphaned files and entry points.",
	}, svc.BuildImportGraph)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_file_imports",
		Description: "List the project files a Python file imports, plus the external modules it references.",
	}, svc.GetFileImports)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_file_importers",
		Description: "List the project files that import a Python file.",
	}, svc.GetFileImporters)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_circular_dependencies",
		Description: "Return every import cycle in the project with its severity.",
	}, svc.GetCircularDependencies)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_move_impact",
		Description: "Predict which files and imports break if a file is moved, with a risk level and recommendations. Nothing is modified.",
	}, svc.AnalyzeMoveImpact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_rename_impact",
		Description: "Predict the impact of renaming a file within its directory. Nothing is modified.",
	}, svc.AnalyzeRenameImpact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_delete_impact",
		Description: "Predict which files break if a file is deleted. Nothing is modified.",
	}, svc.AnalyzeDeleteImpact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_import_distance",
		Description: "Shortest number of import hops from one file to another, or -1 when unreachable.",
	}, svc.GetImportDistance)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_imports",
		Description: "Rewrite import statements in every file importing oldPath so they refer to newPath. Writes a backup of each modified file unless dryRun is set.",
	}, svc.UpdateImports)

	return server
}

// RunMCPServer starts an HTTP server exposing the import graph MCP tools.
func RunMCPServer(ctx context.Context, svc *ImportService, addr string) error {
	server := NewImportMCPServer(svc)

	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// RunMCPServerStdio serves the tools on stdio, blocking until stdin is closed
// or the context is cancelled.
func RunMCPServerStdio(ctx context.Context, svc *ImportService) error {
	return NewImportMCPServer(svc).Run(ctx, &mcp.StdioTransport{})
}
