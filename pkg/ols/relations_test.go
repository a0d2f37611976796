package ols

import (
	"context"
	"slices"
	"strings"
	"testing"

	olserrors "github.com/matzehuels/olsclient/pkg/errors"

	"github.com/matzehuels/olsclient/internal/olstest"
)

func termIRIs(t *testing.T, ctx context.Context, c *Collection[*Term]) []string {
	t.Helper()
	var out []string
	for term, err := range c.All(ctx) {
		if err != nil {
			t.Fatalf("iteration error: %v", err)
		}
		out = append(out, term.IRI)
	}
	return out
}

func TestTermRelations(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t, nil, WithPageSize(5))

	term, err := c.Term(ctx, olstest.DUOTermIRI(1))
	if err != nil {
		t.Fatalf("Term() error: %v", err)
	}

	tests := []struct {
		rel  Relation
		want []string
	}{
		{RelParents, []string{olstest.RootIRI}},
		{RelAncestors, []string{olstest.RootIRI}},
		{RelChildren, []string{olstest.DUOTermIRI(3), olstest.DUOTermIRI(4)}},
		{RelHierarchicalChildren, []string{olstest.DUOTermIRI(3), olstest.DUOTermIRI(4)}},
	}
	for _, tt := range tests {
		t.Run(string(tt.rel), func(t *testing.T) {
			related, err := term.Relation(ctx, tt.rel)
			if err != nil {
				t.Fatalf("Relation(%s) error: %v", tt.rel, err)
			}
			if got := termIRIs(t, ctx, related); !slices.Equal(got, tt.want) {
				t.Errorf("Relation(%s) = %v, want %v", tt.rel, got, tt.want)
			}
		})
	}

	if _, err := term.Relation(ctx, Relation("siblings")); !olserrors.Is(err, olserrors.ErrCodeBadParameter) {
		t.Errorf("Relation(siblings) error = %v, want BAD_PARAMETER", err)
	}
}

func TestDescendantsAcrossPages(t *testing.T) {
	ctx := context.Background()
	c, srv := newTestClient(t, nil, WithPageSize(5))

	root, err := c.OntologyTerm(ctx, "duo", olstest.RootIRI)
	if err != nil {
		t.Fatalf("OntologyTerm() error: %v", err)
	}
	if !root.IsRoot || !root.HasChildren {
		t.Errorf("IsRoot = %v, HasChildren = %v", root.IsRoot, root.HasChildren)
	}

	desc, err := root.Descendants(ctx)
	if err != nil {
		t.Fatalf("Descendants() error: %v", err)
	}
	want := olstest.DefaultOptions().Terms - 1
	if desc.Len() != want || desc.Pages() != 5 {
		t.Errorf("Len() = %d, Pages() = %d; want %d, 5", desc.Len(), desc.Pages(), want)
	}
	got := termIRIs(t, ctx, desc)
	if len(got) != want || slices.Contains(got, olstest.RootIRI) {
		t.Errorf("descendants = %d terms, root included: %v", len(got), slices.Contains(got, olstest.RootIRI))
	}

	ancestors, err := root.Ancestors(ctx)
	if err != nil {
		t.Fatalf("Ancestors() error: %v", err)
	}
	if ancestors.Len() != 0 {
		t.Errorf("root has %d ancestors", ancestors.Len())
	}

	leaf, err := c.OntologyTerm(ctx, "duo", olstest.DUOTermIRI(24))
	if err != nil {
		t.Fatalf("OntologyTerm() error: %v", err)
	}
	parents, err := leaf.Parents(ctx)
	if err != nil {
		t.Fatalf("Parents() error: %v", err)
	}
	if got := termIRIs(t, ctx, parents); !slices.Equal(got, []string{olstest.DUOTermIRI(11)}) {
		t.Errorf("Parents() = %v", got)
	}
	children, err := leaf.Children(ctx)
	if err != nil {
		t.Fatalf("Children() error: %v", err)
	}
	if children.Len() != 0 {
		t.Errorf("leaf has %d children", children.Len())
	}

	if srv.Total() == 0 {
		t.Error("no requests recorded")
	}
}

func TestRelationFromSearchHit(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t, nil)

	hits, err := c.Search(ctx, "duo term 2", Filters{"type": "class", "ontology": "duo", "exact": "true"})
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if hits.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", hits.Len())
	}
	e, err := hits.At(ctx, 0)
	if err != nil {
		t.Fatalf("At(0) error: %v", err)
	}
	term := e.(*Term)
	if len(term.Links) != 0 {
		t.Fatalf("search hit carries links: %v", term.Links)
	}

	// no links on a search hit: the path is built from ontology and IRI
	children, err := term.Children(ctx)
	if err != nil {
		t.Fatalf("Children() error: %v", err)
	}
	if got := termIRIs(t, ctx, children); !slices.Equal(got, []string{olstest.DUOTermIRI(5), olstest.DUOTermIRI(6)}) {
		t.Errorf("Children() = %v", got)
	}

	unbound := &Term{IRI: olstest.RootIRI, OntologyName: "duo"}
	if _, err := unbound.Children(ctx); !olserrors.Is(err, olserrors.ErrCodeBadParameter) {
		t.Errorf("unbound Children() error = %v, want BAD_PARAMETER", err)
	}
	orphan := &Term{IRI: olstest.RootIRI, client: c}
	if _, err := orphan.Children(ctx); !olserrors.Is(err, olserrors.ErrCodeBadParameter) {
		t.Errorf("ontology-less Children() error = %v, want BAD_PARAMETER", err)
	}
}

func TestTermGraph(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t, nil)

	term, err := c.OntologyTerm(ctx, "duo", olstest.DUOTermIRI(1))
	if err != nil {
		t.Fatalf("OntologyTerm() error: %v", err)
	}
	g, err := term.Graph(ctx)
	if err != nil {
		t.Fatalf("Graph() error: %v", err)
	}
	if len(g.Nodes) != 4 || len(g.Edges) != 3 {
		t.Fatalf("graph = %d nodes, %d edges; want 4, 3", len(g.Nodes), len(g.Edges))
	}
	if g.Edges[0].Source != olstest.DUOTermIRI(1) || g.Edges[0].Target != olstest.RootIRI || g.Edges[0].Label != "is a" {
		t.Errorf("first edge = %+v", g.Edges[0])
	}

	dot := g.DOT()
	for _, want := range []string{
		"digraph G {",
		"rankdir=BT;",
		`"` + olstest.DUOTermIRI(1) + `" [label="duo term 1"`,
		`"` + olstest.DUOTermIRI(1) + `" -> "` + olstest.RootIRI + `" [label="is a"];`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT() missing %q:\n%s", want, dot)
		}
	}

	data, err := g.MarshalIndent()
	if err != nil || !strings.Contains(string(data), `"nodes": [`) {
		t.Errorf("MarshalIndent() = %s, %v", data, err)
	}
}

func TestDOTQuoting(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"duo term 1", `"duo term 1"`},
		{`say "hi"`, `"say \"hi\""`},
		{`C:\path`, `"C:\\path"`},
		{"two\nlines", `"two\nlines"`},
		{"bell\x07 tab\t", `"bell tab "`},
		{"déjà vu", `"déjà vu"`},
	}
	for _, tt := range tests {
		if got := dotQuote(tt.in); got != tt.want {
			t.Errorf("dotQuote(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}

	g := &Graph{
		Nodes: []GraphNode{{IRI: "http://x/a", Label: "a \"b\"\nc\x01"}},
		Edges: []GraphEdge{{Source: "http://x/a", Target: "http://x/b", Label: "part\x00of"}},
	}
	dot := g.DOT()
	for _, want := range []string{
		`"http://x/a" [label="a \"b\"\nc", tooltip="http://x/a"];`,
		`"http://x/a" -> "http://x/b" [label="partof"];`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT() missing %s:\n%s", want, dot)
		}
	}
	if strings.ContainsAny(dot, "\x00\x01") || strings.Contains(dot, `\x01`) {
		t.Errorf("DOT() kept control characters:\n%s", dot)
	}
}

func TestTermJSTree(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t, nil)

	term, err := c.OntologyTerm(ctx, "duo", olstest.DUOTermIRI(4))
	if err != nil {
		t.Fatalf("OntologyTerm() error: %v", err)
	}
	nodes, err := term.JSTree(ctx)
	if err != nil {
		t.Fatalf("JSTree() error: %v", err)
	}
	want := []string{olstest.RootIRI, olstest.DUOTermIRI(1), olstest.DUOTermIRI(4)}
	if len(nodes) != len(want) {
		t.Fatalf("JSTree() = %d nodes, want %d", len(nodes), len(want))
	}
	for i, n := range nodes {
		if n.IRI != want[i] {
			t.Errorf("node %d = %s, want %s", i, n.IRI, want[i])
		}
	}
	if nodes[0].Parent != "#" || nodes[2].Parent != nodes[1].ID {
		t.Errorf("parents = %q, %q", nodes[0].Parent, nodes[2].Parent)
	}
	if !nodes[0].State.Opened || nodes[2].State.Opened {
		t.Errorf("opened = %v, %v", nodes[0].State.Opened, nodes[2].State.Opened)
	}
}

func TestRenderSVG(t *testing.T) {
	if testing.Short() {
		t.Skip("graphviz rendering in -short mode")
	}
	g := &Graph{
		Nodes: []GraphNode{{IRI: "a", Label: "child"}, {IRI: "b", Label: "parent"}},
		Edges: []GraphEdge{{Source: "a", Target: "b", Label: "is a"}},
	}
	svg, err := RenderSVG(context.Background(), g.DOT())
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Errorf("RenderSVG() output is not SVG: %.200s", svg)
	}
}
