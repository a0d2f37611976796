// Package olstest provides an in-process fake of the OLS REST API for tests.
//
// The fake serves a small deterministic dataset through the same HAL
// listings, detail lookups, term relations and search endpoint as the real
// service, and can inject transient failures and malformed bodies on
// demand. Every request is counted so tests can assert how many pages a
// client fetched.
package olstest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Options configures the fake dataset and server behavior.
type Options struct {
	// Ontologies is the number of ontologies served. The first three are
	// always duo, efo and go.
	Ontologies int
	// Terms is the number of terms defined by duo.
	Terms int
	// MaxPageSize caps the page size the server honors. Zero means no cap.
	MaxPageSize int
	// MaxSearchRows caps the rows returned per search request. Zero means
	// no cap.
	MaxSearchRows int
}

// DefaultOptions returns the dataset used when New is given nil.
func DefaultOptions() Options {
	return Options{Ontologies: 12, Terms: 25}
}

// Server is a running fake OLS API. Its URL field is the httptest root; the
// API site is [Server.Site].
type Server struct {
	*httptest.Server

	opts Options
	data *dataset

	mu         sync.Mutex
	hits       map[string]int
	total      int
	failNext   int
	failStatus int
	malformed  int
	lastQuery  map[string]url.Values
}

// New starts a fake server. Call Close when done.
func New(opts *Options) *Server {
	o := DefaultOptions()
	if opts != nil {
		o = *opts
	}
	s := &Server{
		opts:      o,
		data:      newDataset(o),
		hits:      map[string]int{},
		lastQuery: map[string]url.Values{},
	}
	s.Server = httptest.NewServer(s.routes())
	return s
}

// Site returns the API root URL.
func (s *Server) Site() string { return s.URL + "/api" }

// FailNext makes the next n requests answer with status and an OLS error
// envelope.
func (s *Server) FailNext(n, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = n
	s.failStatus = status
}

// MalformNext makes the next n requests answer 200 with a truncated body.
func (s *Server) MalformNext(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.malformed = n
}

// Hits returns how many requests reached path, e.g. "/api/ontologies".
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// Total returns the number of requests served.
func (s *Server) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// LastQuery returns the query of the most recent request to path.
func (s *Server) LastQuery(path string) url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastQuery[path]
}

// ResetCounters clears the request counters.
func (s *Server) ResetCounters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits = map[string]int{}
	s.lastQuery = map[string]url.Values{}
	s.total = 0
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.count)
	r.Use(s.inject)

	r.Route("/api", func(r chi.Router) {
		r.Get("/", s.handleRoot)
		r.Get("/search", s.handleSearch)

		r.Get("/ontologies", s.handleOntologies)
		r.Get("/ontologies/{onto}", s.handleOntology)
		r.Get("/ontologies/{onto}/{kind}", s.handleOntologyListing)
		r.Get("/ontologies/{onto}/{kind}/{iri}", s.handleOntologyDetail)
		r.Get("/ontologies/{onto}/terms/{iri}/{rel}", s.handleTermRelation)

		r.Get("/{kind}", s.handleListing)
		r.Get("/{kind}/{iri}", s.handleDetail)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "Resource not found")
	})
	return r
}

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimSuffix(r.URL.Path, "/")
		s.mu.Lock()
		s.hits[path]++
		s.total++
		s.lastQuery[path] = r.URL.Query()
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		fail, status, malformed := s.failNext > 0, s.failStatus, s.malformed > 0
		if fail {
			s.failNext--
		} else if malformed {
			s.malformed--
		}
		s.mu.Unlock()

		switch {
		case fail:
			writeError(w, r, status, http.StatusText(status))
		case malformed:
			w.Header().Set("Content-Type", "application/hal+json")
			fmt.Fprint(w, `{"_embedded": {"terms": [{"iri": `)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

func (s *Server) base(r *http.Request) string {
	return "http://" + r.Host + "/api"
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	base := s.base(r)
	links := map[string]any{}
	for _, rel := range []string{"ontologies", "terms", "properties", "individuals"} {
		links[rel] = map[string]any{"href": base + "/" + rel}
	}
	links["search"] = map[string]any{"href": base + "/search{?q}", "templated": true}
	links["profile"] = map[string]any{"href": base + "/profile"}
	writeJSON(w, http.StatusOK, map[string]any{"_links": links})
}

func (s *Server) handleOntologies(w http.ResponseWriter, r *http.Request) {
	items := make([]map[string]any, 0, len(s.data.ontologies))
	for _, o := range s.data.ontologies {
		items = append(items, s.ontologyJSON(r, o))
	}
	s.writePage(w, r, "ontologies", items)
}

func (s *Server) handleOntology(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "onto")
	o, ok := s.data.ontology(id)
	if !ok {
		writeError(w, r, http.StatusNotFound, fmt.Sprintf("Ontology %s not found", id))
		return
	}
	writeJSON(w, http.StatusOK, s.ontologyJSON(r, o))
}

func (s *Server) handleListing(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	records, ok := s.data.byKind(kind)
	if !ok {
		writeError(w, r, http.StatusNotFound, "Resource not found")
		return
	}
	s.writeRecords(w, r, kind, filterRecords(records, r.URL.Query()))
}

func (s *Server) handleOntologyListing(w http.ResponseWriter, r *http.Request) {
	onto, kind := chi.URLParam(r, "onto"), chi.URLParam(r, "kind")
	if _, ok := s.data.ontology(onto); !ok {
		writeError(w, r, http.StatusNotFound, fmt.Sprintf("Ontology %s not found", onto))
		return
	}
	records, ok := s.data.byKind(kind)
	if !ok {
		writeError(w, r, http.StatusNotFound, "Resource not found")
		return
	}
	s.writeRecords(w, r, kind, filterRecords(inOntology(records, onto), r.URL.Query()))
}

// handleDetail mirrors the real service: a lookup outside any ontology
// always answers with the listing of every match.
func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	iri := decodeID(chi.URLParam(r, "iri"))
	records, ok := s.data.byKind(kind)
	if !ok {
		writeError(w, r, http.StatusNotFound, "Resource not found")
		return
	}
	matches := withIRI(records, iri)
	if len(matches) == 0 {
		writeError(w, r, http.StatusNotFound, fmt.Sprintf("Resource %s not found", iri))
		return
	}
	s.writeRecords(w, r, kind, matches)
}

func (s *Server) handleOntologyDetail(w http.ResponseWriter, r *http.Request) {
	onto, kind := chi.URLParam(r, "onto"), chi.URLParam(r, "kind")
	iri := decodeID(chi.URLParam(r, "iri"))
	records, ok := s.data.byKind(kind)
	if !ok {
		writeError(w, r, http.StatusNotFound, "Resource not found")
		return
	}
	matches := withIRI(inOntology(records, onto), iri)
	if len(matches) == 0 {
		writeError(w, r, http.StatusNotFound, fmt.Sprintf("Resource %s not found in %s", iri, onto))
		return
	}
	writeJSON(w, http.StatusOK, s.recordJSON(r, kind, matches[0]))
}

func (s *Server) handleTermRelation(w http.ResponseWriter, r *http.Request) {
	onto, rel := chi.URLParam(r, "onto"), chi.URLParam(r, "rel")
	iri := decodeID(chi.URLParam(r, "iri"))
	matches := withIRI(inOntology(s.data.terms, onto), iri)
	if len(matches) == 0 {
		writeError(w, r, http.StatusNotFound, fmt.Sprintf("Term %s not found in %s", iri, onto))
		return
	}
	t := matches[0]

	switch rel {
	case "graph":
		writeJSON(w, http.StatusOK, s.data.graph(t))
		return
	case "jstree":
		writeJSON(w, http.StatusOK, s.data.jstree(t))
		return
	}

	related, ok := s.data.related(t, rel)
	if !ok {
		writeError(w, r, http.StatusNotFound, "Resource not found")
		return
	}
	s.writeRecords(w, r, "terms", related)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")
	if query == "" {
		writeError(w, r, http.StatusBadRequest, "Required String parameter 'q' is not present")
		return
	}
	rows := intParam(q, "rows", 10)
	if s.opts.MaxSearchRows > 0 {
		rows = min(rows, s.opts.MaxSearchRows)
	}
	start := intParam(q, "start", 0)

	hits := s.data.search(query, q)
	docs := []map[string]any{}
	for i := start; i < len(hits) && i < start+rows; i++ {
		docs = append(docs, hits[i])
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"responseHeader": map[string]any{"status": 0, "QTime": 1},
		"response": map[string]any{
			"numFound": len(hits),
			"start":    start,
			"docs":     docs,
		},
	})
}

func (s *Server) writeRecords(w http.ResponseWriter, r *http.Request, kind string, records []*record) {
	items := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		items = append(items, s.recordJSON(r, kind, rec))
	}
	s.writePage(w, r, kind, items)
}

// writePage answers with one HAL page of items.
func (s *Server) writePage(w http.ResponseWriter, r *http.Request, field string, items []map[string]any) {
	q := r.URL.Query()
	size := intParam(q, "size", 20)
	if s.opts.MaxPageSize > 0 && size > s.opts.MaxPageSize {
		size = s.opts.MaxPageSize
	}
	number := intParam(q, "page", 0)
	total := len(items)
	pages := (total + size - 1) / size

	from := min(number*size, total)
	to := min(from+size, total)

	link := func(page int) map[string]any {
		v := r.URL.Query()
		v.Set("page", strconv.Itoa(page))
		v.Set("size", strconv.Itoa(size))
		return map[string]any{"href": "http://" + r.Host + r.URL.EscapedPath() + "?" + v.Encode()}
	}
	links := map[string]any{"self": link(number)}
	if pages > 0 {
		links["first"] = link(0)
		links["last"] = link(pages - 1)
	}
	if number > 0 && number <= pages {
		links["prev"] = link(number - 1)
	}
	if number < pages-1 {
		links["next"] = link(number + 1)
	}

	body := map[string]any{
		"_links": links,
		"page": map[string]any{
			"size":          size,
			"totalElements": total,
			"totalPages":    pages,
			"number":        number,
		},
	}
	if to > from {
		body["_embedded"] = map[string]any{field: items[from:to]}
	}
	writeJSON(w, http.StatusOK, body)
}

func intParam(q url.Values, key string, fallback int) int {
	if n, err := strconv.Atoi(q.Get(key)); err == nil && n >= 0 {
		if key == "size" || key == "rows" {
			return max(n, 1)
		}
		return n
	}
	return fallback
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/hal+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error":     http.StatusText(status),
		"message":   message,
		"status":    status,
		"path":      r.URL.Path,
		"timestamp": time.Now().UnixMilli(),
	})
}

// decodeID undoes the double escaping clients apply to identifiers. The
// router has already removed one layer.
func decodeID(seg string) string {
	for range 2 {
		if !strings.Contains(seg, "%") {
			break
		}
		v, err := url.QueryUnescape(seg)
		if err != nil {
			break
		}
		seg = v
	}
	return seg
}

// encodeID escapes an identifier the way clients do.
func encodeID(id string) string {
	return url.QueryEscape(url.QueryEscape(id))
}
