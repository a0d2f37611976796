package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/olsclient/pkg/ols"
)

// searchCommand creates the search command for full-text queries.
func (c *CLI) searchCommand() *cobra.Command {
	var (
		types    []string
		ontology []string
		exact    bool
		limit    int
		rows     int
		pick     bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search ontologies, terms, properties and individuals",
		Long: `Search the service with a full-text query.

Hits are fetched page by page (--rows per request) until --limit results
have been collected. With --pick an interactive list opens and the full
record of the chosen hit is shown.`,
		Example: `  ols search "bone marrow" --ontology efo --type class
  ols search diabetes --exact --pick`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filters := ols.Filters{}
			if len(types) > 0 {
				filters["type"] = strings.Join(types, ",")
			}
			if len(ontology) > 0 {
				filters["ontology"] = strings.Join(ontology, ",")
			}
			if exact {
				filters["exact"] = "true"
			}
			if rows > 0 {
				filters["rows"] = strconv.Itoa(rows)
			}
			query := strings.Join(args, " ")
			if pick {
				return c.runSearchPick(cmd.Context(), query, filters, limit)
			}
			return c.runSearch(cmd.Context(), query, filters, limit)
		},
	}

	cmd.Flags().StringSliceVar(&types, "type", nil, "restrict to record types: class, property, individual, ontology")
	cmd.Flags().StringSliceVar(&ontology, "ontology", nil, "restrict to ontologies")
	cmd.Flags().BoolVar(&exact, "exact", false, "match the query exactly")
	cmd.Flags().IntVarP(&limit, "limit", "n", defaultLimit, "maximum number of hits (0 for all)")
	cmd.Flags().IntVar(&rows, "rows", 0, "hits per request (default from config)")
	cmd.Flags().BoolVar(&pick, "pick", false, "pick a hit interactively and show its record")

	return cmd
}

func (c *CLI) search(ctx context.Context, label, query string, filters ols.Filters, limit int) (*ols.Client, []ols.Entity, int, error) {
	var (
		client *ols.Client
		hits   []ols.Entity
		total  int
	)
	err := c.withProgress(ctx, label, func(ctx context.Context) error {
		var err error
		client, err = c.newClient(ctx)
		if err != nil {
			return err
		}
		col, err := client.Search(ctx, query, filters)
		if err != nil {
			return err
		}
		total = col.Len()
		hits, err = take(ctx, col, limit)
		return err
	})
	return client, hits, total, err
}

func (c *CLI) runSearch(ctx context.Context, query string, filters ols.Filters, limit int) error {
	_, hits, total, err := c.search(ctx, "Searching", query, filters, limit)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		printWarning(c.Out, "no results for %q", query)
		return nil
	}

	rows := make([][]string, len(hits))
	for i, h := range hits {
		label, ontology := hitColumns(h)
		rows[i] = []string{hitAccession(h), truncate(label, 40), string(h.Kind()), ontology}
	}
	fmt.Fprintln(c.Out, renderTable([]string{"ID", "Label", "Kind", "Ontology"}, rows))
	printStats(c.Out, len(hits), total, 0, 0)
	printNextStep(c.Out, "Pick one interactively", fmt.Sprintf("ols search %q --pick", query))
	return nil
}

func (c *CLI) runSearchPick(ctx context.Context, query string, filters ols.Filters, limit int) error {
	client, hits, total, err := c.search(ctx, "Searching", query, filters, limit)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		printWarning(c.Out, "no results for %q", query)
		return nil
	}

	p := tea.NewProgram(NewSearchPickerModel(hits, total), tea.WithContext(ctx), tea.WithOutput(c.Err))
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("picker: %w", err)
	}
	chosen := final.(SearchPickerModel).Selected
	if chosen == nil {
		return nil
	}

	var record ols.Entity
	err = c.withProgress(ctx, "Fetching record", func(ctx context.Context) error {
		record, err = client.Detail(ctx, chosen)
		return err
	})
	if err != nil {
		return err
	}
	printEntity(c, record)
	return nil
}

// printEntity prints the detail view of any record.
func printEntity(c *CLI, e ols.Entity) {
	switch v := e.(type) {
	case *ols.Ontology:
		printOntology(c, v)
	case *ols.Term:
		printTerm(c, v)
	case *ols.Property:
		printResource(c, v.Label, v.IRI, v.OntologyName, v.IsDefiningOntology, v.Description)
	case *ols.Individual:
		printResource(c, v.Label, v.IRI, v.OntologyName, v.IsDefiningOntology, v.Description)
		if len(v.Types) > 0 {
			printKeyValue(c.Out, "Types", strings.Join(v.Types, ", "))
		}
	}
}

func printResource(c *CLI, label, iri, ontology string, defining bool, description []string) {
	w := c.Out
	fmt.Fprintln(w, StyleTitle.Render(label))
	printKeyValue(w, "IRI", StyleLink.Render(iri))
	printKeyValue(w, "Ontology", ontology)
	printKeyValue(w, "Source", definingBadge(defining))
	for _, d := range description {
		printDetail(w, "%s", d)
	}
}

// hitAccession returns the compact identifier shown for a hit.
func hitAccession(e ols.Entity) string {
	switch v := e.(type) {
	case *ols.Term:
		if acc := v.Accession(); acc != "" {
			return acc
		}
	case *ols.Property:
		if v.OboID != "" {
			return v.OboID
		}
	case *ols.Individual:
		if v.OboID != "" {
			return v.OboID
		}
	}
	return e.ID()
}
