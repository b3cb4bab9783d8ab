package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/crewviz/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "crewviz lays out AI-agent workflow graphs",
		Long: `crewviz positions the nodes of an AI-agent workflow (inputs, tasks, agents
and tools) in fixed row bands and renders the result as JSON, SVG, DOT, PNG or PDF.

Documents are read from a file, an http(s) URL, or "demo" for the built-in example.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: ./crewviz.toml or ~/.config/crewviz/crewviz.toml)")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.workflowsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}
