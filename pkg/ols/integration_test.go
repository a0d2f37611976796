//go:build integration

package ols

import (
	"context"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

// These tests talk to the public OLS deployment (or $OLS_SITE). Run with:
//
//	go test -tags integration ./pkg/ols/

func newLiveClient(t *testing.T) *Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	t.Cleanup(cancel)

	c, err := NewClient(ctx, WithLogger(log.Default()), WithRetry(3, 2*time.Second), WithPageSize(20))
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	return c
}

func TestLiveOntologies(t *testing.T) {
	c := newLiveClient(t)
	ctx := context.Background()

	col, err := c.Ontologies(ctx, nil)
	if err != nil {
		t.Fatalf("Ontologies() error: %v", err)
	}
	if col.Len() == 0 || col.Pages() < 2 {
		t.Fatalf("Len() = %d, Pages() = %d", col.Len(), col.Pages())
	}
	// Crossing the first page boundary fetches page 1.
	items, err := col.Slice(ctx, 18, 22)
	if err != nil {
		t.Fatalf("Slice() error: %v", err)
	}
	if len(items) != 4 {
		t.Errorf("Slice(18, 22) returned %d items", len(items))
	}
}

func TestLiveTermResolution(t *testing.T) {
	c := newLiveClient(t)
	ctx := context.Background()

	term, err := c.Term(ctx, "http://purl.obolibrary.org/obo/GO_0008150")
	if err != nil {
		t.Fatalf("Term() error: %v", err)
	}
	if term.OntologyName != "go" || !term.IsDefiningOntology {
		t.Errorf("resolved to %s (defining=%v), want go", term.OntologyName, term.IsDefiningOntology)
	}
	if term.Accession() != "GO:0008150" {
		t.Errorf("Accession() = %q", term.Accession())
	}

	children, err := term.Children(ctx)
	if err != nil {
		t.Fatalf("Children() error: %v", err)
	}
	if children.Len() == 0 {
		t.Error("biological_process has no children")
	}
}

func TestLiveSearch(t *testing.T) {
	c := newLiveClient(t)
	ctx := context.Background()

	hits, err := c.Search(ctx, "bone marrow", Filters{"ontology": "efo", "type": "class", "rows": "5"})
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if hits.Len() == 0 {
		t.Fatal("no hits")
	}
	first, err := hits.At(ctx, 0)
	if err != nil {
		t.Fatalf("At(0) error: %v", err)
	}
	if _, ok := first.(*Term); !ok {
		t.Errorf("class hit decoded as %T", first)
	}
}
