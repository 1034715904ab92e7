package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the fastmail-mcp application
var rootCmd = &cobra.Command{
	Use:   "fastmail-mcp",
	Short: "MCP server bridging AI assistants to a Fastmail account",
	Long: `fastmail-mcp exposes a Fastmail account to AI assistants over the
Model Context Protocol (MCP).

Mail and contacts are served via JMAP, calendars via CalDAV. Credentials
are read from the environment:

  FASTMAIL_API_TOKEN    JMAP API token (mail and contacts)
  FASTMAIL_USERNAME     Account email address (calendar)
  FASTMAIL_APP_PASSWORD App password with calendar access (calendar)`,
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
	rootCmd.SetVersionTemplate(`{{printf "fastmail-mcp version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("fastmail-mcp version %s\n", version)
		},
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
}
