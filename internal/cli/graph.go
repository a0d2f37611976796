package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/olsclient/pkg/ols"
)

// Graph output formats.
const (
	formatJSON = "json"
	formatDOT  = "dot"
	formatSVG  = "svg"
)

// graphCommand creates the graph command for rendering a term's
// neighbourhood.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		format string
		output string
		tree   bool
	)

	cmd := &cobra.Command{
		Use:   "graph <ontology> <iri>",
		Short: "Render the neighbourhood graph of a term",
		Long: `Render a term with its parents and children.

The graph is written as JSON, Graphviz DOT or SVG. Use --tree to print the
paths from the ontology roots down to the term instead.`,
		Example: `  ols graph go http://purl.obolibrary.org/obo/GO_0008150 -f svg -o go.svg`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if tree {
				return c.runTree(cmd.Context(), args[0], args[1])
			}
			switch format {
			case formatJSON, formatDOT, formatSVG:
			default:
				return fmt.Errorf("unknown format %q (want json, dot or svg)", format)
			}
			return c.runGraph(cmd.Context(), args[0], args[1], format, output)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatJSON, "output format: json, dot, svg")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&tree, "tree", false, "print the tree of paths from the roots")

	return cmd
}

func (c *CLI) runGraph(ctx context.Context, ontology, iri, format, output string) error {
	var data []byte
	err := c.withProgress(ctx, "Fetching graph", func(ctx context.Context) error {
		client, err := c.newClient(ctx)
		if err != nil {
			return err
		}
		term, err := client.OntologyTerm(ctx, ontology, iri)
		if err != nil {
			return err
		}
		g, err := term.Graph(ctx)
		if err != nil {
			return err
		}
		c.Logger.Debug("graph fetched", "nodes", len(g.Nodes), "edges", len(g.Edges))

		switch format {
		case formatDOT:
			data = []byte(g.DOT())
		case formatSVG:
			data, err = ols.RenderSVG(ctx, g.DOT())
		default:
			data, err = g.MarshalIndent()
		}
		return err
	})
	if err != nil {
		return err
	}

	if output == "" {
		_, err := c.Out.Write(data)
		if err == nil && format == formatJSON {
			fmt.Fprintln(c.Out)
		}
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	printSuccess(c.Out, "Wrote %s graph", format)
	printFile(c.Out, output)
	return nil
}

func (c *CLI) runTree(ctx context.Context, ontology, iri string) error {
	var nodes []ols.JSTreeNode
	err := c.withProgress(ctx, "Fetching tree", func(ctx context.Context) error {
		client, err := c.newClient(ctx)
		if err != nil {
			return err
		}
		term, err := client.OntologyTerm(ctx, ontology, iri)
		if err != nil {
			return err
		}
		nodes, err = term.JSTree(ctx)
		return err
	})
	if err != nil {
		return err
	}

	children := make(map[string][]ols.JSTreeNode)
	for _, n := range nodes {
		children[n.Parent] = append(children[n.Parent], n)
	}
	var walk func(parent string, depth int)
	walk = func(parent string, depth int) {
		for _, n := range children[parent] {
			line := fmt.Sprintf("%*s%s", depth*2, "", n.Text)
			if n.IRI == iri {
				line = StyleTitle.Render(line)
			}
			fmt.Fprintln(c.Out, line)
			walk(n.ID, depth+1)
		}
	}
	walk("#", 0)
	return nil
}
