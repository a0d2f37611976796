package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/olsclient/pkg/ols"
)

// ontologiesCommand creates the ontologies command for listing ontologies.
func (c *CLI) ontologiesCommand() *cobra.Command {
	var (
		limit    int
		pageSize int
		lang     string
	)

	cmd := &cobra.Command{
		Use:   "ontologies",
		Short: "List the loaded ontologies",
		Long: `List the ontologies loaded into the service.

Only the pages needed for --limit records are fetched. Use --limit 0 to
list every ontology.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runOntologies(cmd.Context(), limit, listFilters(pageSize, lang))
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", defaultLimit, "maximum number of ontologies to list (0 for all)")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "records per request (default from config)")
	cmd.Flags().StringVar(&lang, "lang", "", "language of labels and descriptions")

	return cmd
}

func (c *CLI) runOntologies(ctx context.Context, limit int, filters ols.Filters) error {
	var (
		onts []*ols.Ontology
		col  *ols.Collection[*ols.Ontology]
	)
	err := c.withProgress(ctx, "Listing ontologies", func(ctx context.Context) error {
		client, err := c.newClient(ctx)
		if err != nil {
			return err
		}
		col, err = client.Ontologies(ctx, filters)
		if err != nil {
			return err
		}
		onts, err = take(ctx, col, limit)
		return err
	})
	if err != nil {
		return err
	}

	rows := make([][]string, len(onts))
	for i, o := range onts {
		rows[i] = []string{o.OntologyID, truncate(o.Title(), 48), strconv.Itoa(o.NumberOfTerms), o.Status}
	}
	fmt.Fprintln(c.Out, renderTable([]string{"ID", "Title", "Terms", "Status"}, rows))
	printStats(c.Out, len(onts), col.Len(), col.Page(), col.Pages())
	if len(onts) > 0 {
		printNextStep(c.Out, "Show an ontology", "ols ontology "+onts[0].OntologyID)
	}
	return nil
}

// ontologyCommand creates the ontology command for showing one ontology.
func (c *CLI) ontologyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ontology <id>",
		Short: "Show an ontology",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runOntology(cmd.Context(), args[0])
		},
	}
}

func (c *CLI) runOntology(ctx context.Context, id string) error {
	var onto *ols.Ontology
	err := c.withProgress(ctx, "Fetching "+id, func(ctx context.Context) error {
		client, err := c.newClient(ctx)
		if err != nil {
			return err
		}
		onto, err = client.Ontology(ctx, id)
		return err
	})
	if err != nil {
		return err
	}

	printOntology(c, onto)
	printNextStep(c.Out, "List its terms", "ols terms "+onto.OntologyID)
	return nil
}

func printOntology(c *CLI, o *ols.Ontology) {
	w := c.Out
	fmt.Fprintln(w, StyleTitle.Render(o.Title()))
	printKeyValue(w, "ID", o.OntologyID)
	printKeyValue(w, "IRI", StyleLink.Render(o.Config.ID))
	printKeyValue(w, "Version", o.Config.Version)
	printKeyValue(w, "Status", o.Status)
	printKeyValue(w, "Loaded", o.Loaded)
	printKeyValue(w, "Prefix", o.Config.PreferredPrefix)
	printKeyValue(w, "Terms", StyleNumber.Render(strconv.Itoa(o.NumberOfTerms)))
	printKeyValue(w, "Properties", StyleNumber.Render(strconv.Itoa(o.NumberOfProperties)))
	printKeyValue(w, "Individuals", StyleNumber.Render(strconv.Itoa(o.NumberOfIndividuals)))
	printKeyValue(w, "Homepage", o.Config.Homepage)
	printKeyValue(w, "License", o.Config.Annotations.License)
	if o.Config.Description != "" {
		printDetail(w, "%s", o.Config.Description)
	}
	if o.Message != "" {
		printWarning(w, "%s", o.Message)
	}
}

// listFilters builds listing filters from common flags.
func listFilters(pageSize int, lang string) ols.Filters {
	f := ols.Filters{}
	if pageSize > 0 {
		f["size"] = strconv.Itoa(pageSize)
	}
	if lang != "" {
		f["lang"] = lang
	}
	return f
}
