// Command piercedocs-mcp exposes the piercedocs job API as MCP tools over stdio.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	_ = godotenv.Load()

	apiURL := strings.TrimRight(os.Getenv("PIERCE_API_URL"), "/")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:5000"
	}

	s := server.NewMCPServer(
		"piercedocs",
		"1.0.0",
		server.WithToolCapabilities(false),
	)
	registerTools(s, newAPIClient(apiURL, os.Getenv("PIERCE_API_KEY")))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}
