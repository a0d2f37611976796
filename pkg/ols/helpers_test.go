package ols

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/olsclient/internal/olstest"
)

// newTestClient starts a fake server and returns a client bound to it with
// a millisecond retry backoff. Request counters start at zero.
func newTestClient(t *testing.T, opts *olstest.Options, extra ...Option) (*Client, *olstest.Server) {
	t.Helper()
	srv := olstest.New(opts)
	t.Cleanup(srv.Close)

	c := newSiteClient(t, srv.Site(), extra...)
	srv.ResetCounters()
	return c, srv
}

// newSiteClient returns a quiet client for site with a millisecond retry
// backoff.
func newSiteClient(t *testing.T, site string, extra ...Option) *Client {
	t.Helper()
	all := append([]Option{
		WithSite(site),
		WithLogger(log.New(io.Discard)),
		WithRetry(5, time.Millisecond),
	}, extra...)
	c, err := NewClient(context.Background(), all...)
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	return c
}

func ontologyIDs(t *testing.T, items []*Ontology) []string {
	t.Helper()
	ids := make([]string, len(items))
	for i, o := range items {
		ids[i] = o.OntologyID
	}
	return ids
}
