package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/docsearch/searchindex-mcp/internal/config"
	"github.com/docsearch/searchindex-mcp/tools"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

const (
	serverName  = "searchindex-mcp"
	description = "MCP server for Documenter.jl documentation search"
)

var version = "0.1.0"

var (
	configFile string
	outputFlag string
)

var rootCmd = &cobra.Command{
	Use:          serverName,
	Short:        description,
	Version:      version,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	Run:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server over stdio (default)",
	Args:  cobra.NoArgs,
	Run:   runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ./config.toml or $XDG_CONFIG_HOME/searchindex-mcp/config.toml)")
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", outputText, "output format for read commands: text, json or yaml")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(pagesCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) {
	// MCP uses stdout for protocol
	log.SetOutput(os.Stderr)
	log.Printf("%s v%s starting...", serverName, version)

	cfg, err := config.Load(configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	tools.Configure(cfg)
	if cfg.HasSource() {
		log.Printf("✓ Documentation source: %s", sourceName(cfg))
	} else {
		log.Printf("No documentation source configured, serving the bundled search index")
	}

	server := createMCPServer()

	if err := registerTools(server); err != nil {
		log.Fatalf("Failed to register tools: %v", err)
	}

	log.Printf("✓ Server ready and waiting for connections")

	defer func() {
		if err := tools.CloseDocSearch(); err != nil {
			log.Printf("Error closing doc search: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("Server error: %v", err)
	}
}

func sourceName(cfg *config.Config) string {
	if cfg.Source.URL != "" {
		return cfg.Source.URL
	}
	return cfg.Source.File
}

// createMCPServer initializes the MCP server
func createMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    serverName,
			Version: version,
		},
		nil,
	)

	log.Printf("Server initialized: %s v%s", serverName, version)
	return server
}

// registerTools registers all MCP tools
func registerTools(server *mcp.Server) error {
	toolCount := 0

	if err := tools.RegisterValidationTools(server); err != nil {
		return fmt.Errorf("failed to register validation tools: %w", err)
	}
	toolCount++

	// Search stays registered without an index; it retries on first use
	if err := tools.RegisterDocSearchTools(server); err != nil {
		log.Printf("Warning: Failed to register doc search tools: %v", err)
		log.Printf("Documentation search will be unavailable")
	} else {
		toolCount += 2
	}

	tools.RegisterPageTools(server)
	toolCount += 3

	tools.RegisterExportTools(server)
	toolCount++

	log.Printf("✓ All tools registered: %d tools (validation + doc search + pages + export)", toolCount)
	return nil
}
