// Package ols is a client for the EBI Ontology Lookup Service REST API.
//
// # Overview
//
// The API serves ontologies, terms, properties and individuals as paged
// HAL listings, plus a full-text search endpoint. This package exposes each
// listing as a [Collection]: a lazily paged sequence that reports its
// length from page metadata, supports random access and slicing, and
// iterates forward across pages while buffering a single page at a time.
//
//	client, err := ols.NewClient(ctx)
//	if err != nil {
//	    return err
//	}
//	ontologies, err := client.Ontologies(ctx, nil)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(ontologies.Len(), "ontologies in", ontologies.Pages(), "pages")
//	for o, err := range ontologies.All(ctx) {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(o.OntologyID, o.Title())
//	}
//
// # Paging
//
// [Collection.Page] is the zero-based index of the buffered page and
// [Collection.Pages] the number of pages, for listings and searches alike.
// Search results are requested by offset and row count; the collection
// translates them so that a search with 250 hits at 100 rows has 3 pages
// and the window starting at 120 is page 1.
//
// # Failures
//
// Every remote call goes through a bounded retry policy (5 attempts, 5
// seconds apart by default; see [WithRetry]). Transient failures are
// retried and finally reported as OBJECT_NOT_RETRIEVED. Missing records
// (NOT_FOUND), invalid arguments (BAD_PARAMETER) and invalid filters
// (BAD_FILTERS) are returned at once. Filters are validated before any
// request; see [ValidateFilters].
//
// # Concurrency
//
// A [Client] may be shared. A [Collection] may not: it owns its buffered
// page and cursor. Independent collections and detail lookups can run in
// parallel; [Client.Details] does so with a bounded worker group.
package ols
