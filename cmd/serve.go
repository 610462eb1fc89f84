package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	mcpserver "brandpatrol/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start MCP stdio server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	deps, err := buildMCPDeps()
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.ErrOrStderr(), "Starting BrandPatrol MCP server on stdio...")

	if err := mcpserver.Serve(deps); err != nil {
		log.Fatalf("MCP server error: %v", err)
	}
	return nil
}

// buildMCPDeps opens the stores MCP tools operate on.
func buildMCPDeps() (mcpserver.Deps, error) {
	logger, err := buildLogger()
	if err != nil {
		return mcpserver.Deps{}, err
	}
	cat, err := openCatalog()
	if err != nil {
		return mcpserver.Deps{}, err
	}
	store, err := openLedger()
	if err != nil {
		return mcpserver.Deps{}, err
	}
	return mcpserver.Deps{
		Catalog:  cat,
		Reports:  store,
		Detector: buildDetector(cat, logger),
	}, nil
}
