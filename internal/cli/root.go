// Package cli provides the Cobra command structure for gomdview.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/yaklabco/gomdview/internal/logging"
)

// BuildInfo holds build-time version information.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// NewRootCommand creates the root gomdview command. The root command is the
// viewer itself: it reads a file argument or stdin and streams rendered HTML
// to the configured outputs.
func NewRootCommand(info BuildInfo) *cobra.Command {
	var debug bool
	var configPath string
	var color string

	flags := &viewFlags{}

	rootCmd := &cobra.Command{
		Use:   "gomdview [file]",
		Short: "A streaming Markdown previewer",
		Long: `gomdview renders Markdown to styled HTML as it arrives.

Pipe a growing document into it, or give it a file, and it re-renders the
full preview at every safe boundary: never mid code fence, mid table, or
mid raw HTML block. Diagrams, math blocks, syntax highlighting, and GitHub
Flavored Markdown are supported out of the box.

Examples:
  mdgen | gomdview --serve :8080      # Live browser preview of a stream
  gomdview README.md --output out.html
  gomdview --mode source < notes.md   # Highlighted raw source instead`,
		Args: cobra.MaximumNArgs(1),
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if debug {
				logging.SetLevel("debug")
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(cmd, args, flags, color)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags.
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&color, "color", "auto",
		"colorize output: auto, always, never")

	addViewFlags(rootCmd, flags)

	rootCmd.AddCommand(newVersionCommand(info))

	// Apply styled help formatting.
	helpFormatter := NewHelpFormatter(color, os.Stdout)
	helpFormatter.ApplyToCommand(rootCmd)

	return rootCmd
}
