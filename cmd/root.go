package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the caldav-mcp application
var rootCmd = &cobra.Command{
	Use:   "caldav-mcp",
	Short: "MCP server for CalDAV calendars",
	Long: `caldav-mcp is a Model Context Protocol (MCP) server that connects AI
assistants to a CalDAV calendar server.

It exposes tools to discover calendar collections and to list, create and
delete events over standard CalDAV (RFC 4791).`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "caldav-mcp version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
}
