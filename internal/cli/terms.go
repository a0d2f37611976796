package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/olsclient/pkg/ols"
)

// termsCommand creates the terms command for listing the terms of an
// ontology.
func (c *CLI) termsCommand() *cobra.Command {
	var (
		limit     int
		pageSize  int
		lang      string
		iri       string
		oboID     string
		shortForm string
	)

	cmd := &cobra.Command{
		Use:   "terms <ontology>",
		Short: "List the terms of an ontology",
		Long: `List the terms of an ontology.

At most one of --iri, --obo-id and --short-form may be given to look up a
single term by identifier.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filters := listFilters(pageSize, lang)
			for key, val := range map[string]string{"iri": iri, "obo_id": oboID, "short_form": shortForm} {
				if val != "" {
					filters[key] = val
				}
			}
			return c.runTerms(cmd.Context(), args[0], limit, filters)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", defaultLimit, "maximum number of terms to list (0 for all)")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "records per request (default from config)")
	cmd.Flags().StringVar(&lang, "lang", "", "language of labels and descriptions")
	cmd.Flags().StringVar(&iri, "iri", "", "only the term with this IRI")
	cmd.Flags().StringVar(&oboID, "obo-id", "", "only the term with this OBO id, e.g. GO:0008150")
	cmd.Flags().StringVar(&shortForm, "short-form", "", "only the term with this short form, e.g. GO_0008150")

	return cmd
}

func (c *CLI) runTerms(ctx context.Context, ontology string, limit int, filters ols.Filters) error {
	var (
		terms []*ols.Term
		col   *ols.Collection[*ols.Term]
	)
	err := c.withProgress(ctx, "Listing "+ontology+" terms", func(ctx context.Context) error {
		client, err := c.newClient(ctx)
		if err != nil {
			return err
		}
		onto, err := client.Ontology(ctx, ontology)
		if err != nil {
			return err
		}
		col, err = onto.Terms(ctx, filters)
		if err != nil {
			return err
		}
		terms, err = take(ctx, col, limit)
		return err
	})
	if err != nil {
		return err
	}

	printTermTable(c, terms)
	printStats(c.Out, len(terms), col.Len(), col.Page(), col.Pages())
	if len(terms) > 0 {
		printNextStep(c.Out, "Show a term", "ols term --ontology "+ontology+" "+terms[0].IRI)
	}
	return nil
}

// termCommand creates the term command for resolving one term.
func (c *CLI) termCommand() *cobra.Command {
	var ontology string

	cmd := &cobra.Command{
		Use:   "term <iri>",
		Short: "Show a term",
		Long: `Show a term by IRI.

Without --ontology the term is taken from the ontology that defines it;
when no ontology does, the first one serving it is used.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTerm(cmd.Context(), ontology, args[0])
		},
	}

	cmd.Flags().StringVar(&ontology, "ontology", "", "ontology serving the term")

	return cmd
}

func (c *CLI) runTerm(ctx context.Context, ontology, iri string) error {
	var term *ols.Term
	err := c.withProgress(ctx, "Resolving term", func(ctx context.Context) error {
		client, err := c.newClient(ctx)
		if err != nil {
			return err
		}
		if ontology != "" {
			term, err = client.OntologyTerm(ctx, ontology, iri)
		} else {
			term, err = client.Term(ctx, iri)
		}
		return err
	})
	if err != nil {
		return err
	}

	printTerm(c, term)
	printNextStep(c.Out, "Show its children", fmt.Sprintf("ols relatives %s %s children", term.OntologyName, term.IRI))
	return nil
}

// relativesCommand creates the relatives command for walking a term's
// hierarchy.
func (c *CLI) relativesCommand() *cobra.Command {
	var limit int

	names := make([]string, len(ols.Relations))
	for i, r := range ols.Relations {
		names[i] = string(r)
	}

	cmd := &cobra.Command{
		Use:   "relatives <ontology> <iri> <relation>",
		Short: "List terms related to a term",
		Long: `List the terms related to a term within one ontology.

Relations: ` + strings.Join(names, ", ") + `.`,
		Args: cobra.ExactArgs(3),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 2 {
				return names, cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			rel := ols.Relation(args[2])
			if !rel.Valid() {
				return fmt.Errorf("unknown relation %q (want one of %s)", args[2], strings.Join(names, ", "))
			}
			return c.runRelatives(cmd.Context(), args[0], args[1], rel, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", defaultLimit, "maximum number of terms to list (0 for all)")

	return cmd
}

func (c *CLI) runRelatives(ctx context.Context, ontology, iri string, rel ols.Relation, limit int) error {
	var (
		term  *ols.Term
		terms []*ols.Term
		col   *ols.Collection[*ols.Term]
	)
	err := c.withProgress(ctx, "Listing "+string(rel), func(ctx context.Context) error {
		client, err := c.newClient(ctx)
		if err != nil {
			return err
		}
		term, err = client.OntologyTerm(ctx, ontology, iri)
		if err != nil {
			return err
		}
		col, err = term.Relation(ctx, rel)
		if err != nil {
			return err
		}
		terms, err = take(ctx, col, limit)
		return err
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(c.Out, StyleTitle.Render(fmt.Sprintf("%s of %s", rel, termName(term))))
	if len(terms) == 0 {
		printInfo(c.Out, "no %s", rel)
		return nil
	}
	printTermTable(c, terms)
	printStats(c.Out, len(terms), col.Len(), col.Page(), col.Pages())
	return nil
}

func printTermTable(c *CLI, terms []*ols.Term) {
	rows := make([][]string, len(terms))
	for i, t := range terms {
		rows[i] = []string{t.Accession(), truncate(t.Label, 40), t.OntologyName, definingBadge(t.IsDefiningOntology)}
	}
	fmt.Fprintln(c.Out, renderTable([]string{"Accession", "Label", "Ontology", "Source"}, rows))
}

func printTerm(c *CLI, t *ols.Term) {
	w := c.Out
	fmt.Fprintln(w, StyleTitle.Render(termName(t)))
	printKeyValue(w, "IRI", StyleLink.Render(t.IRI))
	printKeyValue(w, "Ontology", t.OntologyName)
	printKeyValue(w, "Source", definingBadge(t.IsDefiningOntology))
	if len(t.Synonyms) > 0 {
		printKeyValue(w, "Synonyms", strings.Join(t.Synonyms, "; "))
	}
	if t.IsObsolete {
		printWarning(w, "obsolete, replaced by %s", t.TermReplacedBy)
	}
	for _, d := range t.Description {
		printDetail(w, "%s", d)
	}
}

// termName renders a term as "LABEL (ACCESSION)".
func termName(t *ols.Term) string {
	if acc := t.Accession(); acc != "" {
		return fmt.Sprintf("%s (%s)", t.Label, acc)
	}
	return t.Label
}
