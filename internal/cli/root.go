package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/olsclient/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "ols browses the EBI Ontology Lookup Service",
		Long: `ols is a command-line client for the EBI Ontology Lookup Service (OLS).

It lists ontologies and terms, resolves terms by IRI, walks term
hierarchies, runs full-text searches and renders term graphs. Listings are
fetched page by page, only as far as the output needs.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/ols/config.toml)")
	root.PersistentFlags().StringVar(&c.site, "site", "", "API root URL (overrides config and $OLS_SITE)")

	root.AddCommand(c.ontologiesCommand())
	root.AddCommand(c.ontologyCommand())
	root.AddCommand(c.termsCommand())
	root.AddCommand(c.termCommand())
	root.AddCommand(c.relativesCommand())
	root.AddCommand(c.searchCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.versionCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// versionCommand prints the build information.
func (c *CLI) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(c.Out, buildinfo.String())
		},
	}
}
