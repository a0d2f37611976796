package olstest

import (
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
)

// Well-known identifiers of the fake dataset.
const (
	// SharedIRI is a duo term also served, as an import, by efo. The efo
	// copy is listed first and is not defining.
	SharedIRI = "http://purl.obolibrary.org/obo/DUO_0000001"
	// OrphanIRI is served by efo and go and defined by neither.
	OrphanIRI = "http://example.org/orphan"
	// RootIRI is the root of the duo hierarchy.
	RootIRI = "http://purl.obolibrary.org/obo/DUO_0000000"
)

// DUOTermIRI returns the IRI of the i-th duo term.
func DUOTermIRI(i int) string {
	return fmt.Sprintf("http://purl.obolibrary.org/obo/DUO_%07d", i)
}

// EFOTermIRI returns the IRI of the i-th term defined by efo.
func EFOTermIRI(i int) string {
	return fmt.Sprintf("http://www.ebi.ac.uk/efo/EFO_%07d", i)
}

// OntologyID returns the id of the i-th ontology.
func OntologyID(i int) string {
	switch i {
	case 0:
		return "duo"
	case 1:
		return "efo"
	case 2:
		return "go"
	}
	return fmt.Sprintf("ont%03d", i)
}

type ontologyRec struct {
	id    string
	title string
}

type record struct {
	kind      string
	iri       string
	label     string
	ontology  string
	shortForm string
	oboID     string
	defining  bool
	parents   []string
}

type dataset struct {
	ontologies  []*ontologyRec
	terms       []*record
	properties  []*record
	individuals []*record
}

func newDataset(o Options) *dataset {
	d := &dataset{}
	for i := range o.Ontologies {
		id := OntologyID(i)
		d.ontologies = append(d.ontologies, &ontologyRec{id: id, title: strings.ToUpper(id) + " ontology"})
	}

	duoTerm := func(i int) *record {
		r := &record{
			kind:      "terms",
			iri:       DUOTermIRI(i),
			label:     fmt.Sprintf("duo term %d", i),
			ontology:  "duo",
			shortForm: fmt.Sprintf("DUO_%07d", i),
			oboID:     fmt.Sprintf("DUO:%07d", i),
			defining:  true,
		}
		if i > 0 {
			r.parents = []string{DUOTermIRI((i - 1) / 2)}
		}
		return r
	}

	// efo imports of duo terms come first so the defining copy is not the
	// first match of a cross-ontology lookup.
	for i := 1; i <= 3 && i < o.Terms; i++ {
		r := duoTerm(i)
		r.ontology = "efo"
		r.defining = false
		r.parents = nil
		d.terms = append(d.terms, r)
	}
	for i := range 5 {
		r := &record{
			kind:      "terms",
			iri:       EFOTermIRI(i),
			label:     fmt.Sprintf("efo term %d", i),
			ontology:  "efo",
			shortForm: fmt.Sprintf("EFO_%07d", i),
			defining:  true,
		}
		if i > 0 {
			r.parents = []string{EFOTermIRI(i - 1)}
		}
		d.terms = append(d.terms, r)
	}
	for i := range o.Terms {
		d.terms = append(d.terms, duoTerm(i))
	}
	for _, onto := range []string{"efo", "go"} {
		d.terms = append(d.terms, &record{
			kind:      "terms",
			iri:       OrphanIRI,
			label:     "orphan",
			ontology:  onto,
			shortForm: "orphan",
		})
	}

	for i := range 2 {
		d.properties = append(d.properties, &record{
			kind:      "properties",
			iri:       fmt.Sprintf("http://purl.obolibrary.org/obo/duo#property_%d", i),
			label:     fmt.Sprintf("duo property %d", i),
			ontology:  "duo",
			shortForm: fmt.Sprintf("property_%d", i),
			defining:  true,
		})
		d.individuals = append(d.individuals, &record{
			kind:      "individuals",
			iri:       fmt.Sprintf("http://purl.obolibrary.org/obo/duo#individual_%d", i),
			label:     fmt.Sprintf("duo individual %d", i),
			ontology:  "duo",
			shortForm: fmt.Sprintf("individual_%d", i),
			defining:  true,
		})
	}
	return d
}

func (d *dataset) ontology(id string) (*ontologyRec, bool) {
	for _, o := range d.ontologies {
		if o.id == id {
			return o, true
		}
	}
	return nil, false
}

func (d *dataset) byKind(kind string) ([]*record, bool) {
	switch kind {
	case "terms":
		return d.terms, true
	case "properties":
		return d.properties, true
	case "individuals":
		return d.individuals, true
	}
	return nil, false
}

func (d *dataset) count(kind, onto string) int {
	records, _ := d.byKind(kind)
	return len(inOntology(records, onto))
}

func inOntology(records []*record, onto string) []*record {
	var out []*record
	for _, r := range records {
		if r.ontology == onto {
			out = append(out, r)
		}
	}
	return out
}

func withIRI(records []*record, iri string) []*record {
	var out []*record
	for _, r := range records {
		if r.iri == iri {
			out = append(out, r)
		}
	}
	return out
}

func filterRecords(records []*record, q url.Values) []*record {
	match := func(r *record) bool {
		if v := q.Get("iri"); v != "" && r.iri != v {
			return false
		}
		if v := q.Get("obo_id"); v != "" && r.oboID != v {
			return false
		}
		if v := q.Get("short_form"); v != "" && r.shortForm != v {
			return false
		}
		return true
	}
	var out []*record
	for _, r := range records {
		if match(r) {
			out = append(out, r)
		}
	}
	return out
}

func (d *dataset) parentsOf(r *record) []*record {
	var out []*record
	for _, p := range r.parents {
		out = append(out, withIRI(inOntology(d.terms, r.ontology), p)...)
	}
	return out
}

func (d *dataset) childrenOf(r *record) []*record {
	var out []*record
	for _, t := range inOntology(d.terms, r.ontology) {
		if slices.Contains(t.parents, r.iri) {
			out = append(out, t)
		}
	}
	return out
}

func (d *dataset) closure(r *record, step func(*record) []*record) []*record {
	seen := map[string]bool{r.iri: true}
	var out []*record
	queue := step(r)
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if seen[next.iri] {
			continue
		}
		seen[next.iri] = true
		out = append(out, next)
		queue = append(queue, step(next)...)
	}
	return out
}

func (d *dataset) related(r *record, rel string) ([]*record, bool) {
	switch rel {
	case "parents", "hierarchicalParents":
		return d.parentsOf(r), true
	case "children", "hierarchicalChildren":
		return d.childrenOf(r), true
	case "ancestors", "hierarchicalAncestors":
		return d.closure(r, d.parentsOf), true
	case "descendants", "hierarchicalDescendants":
		return d.closure(r, d.childrenOf), true
	}
	return nil, false
}

func (d *dataset) graph(r *record) map[string]any {
	nodes := []map[string]any{{"iri": r.iri, "label": r.label}}
	edges := []map[string]any{}
	for _, p := range d.parentsOf(r) {
		nodes = append(nodes, map[string]any{"iri": p.iri, "label": p.label})
		edges = append(edges, map[string]any{"source": r.iri, "target": p.iri, "label": "is a", "uri": "http://www.w3.org/2000/01/rdf-schema#subClassOf"})
	}
	for _, c := range d.childrenOf(r) {
		nodes = append(nodes, map[string]any{"iri": c.iri, "label": c.label})
		edges = append(edges, map[string]any{"source": c.iri, "target": r.iri, "label": "is a", "uri": "http://www.w3.org/2000/01/rdf-schema#subClassOf"})
	}
	return map[string]any{"nodes": nodes, "edges": edges}
}

func (d *dataset) jstree(r *record) []map[string]any {
	path := append(d.closure(r, d.parentsOf), r)
	slices.Reverse(path[:len(path)-1])

	var out []map[string]any
	parent := "#"
	for i, n := range path {
		id := fmt.Sprintf("%d", i+1)
		out = append(out, map[string]any{
			"id":            id,
			"parent":        parent,
			"iri":           n.iri,
			"text":          n.label,
			"children":      len(d.childrenOf(n)) > 0,
			"state":         map[string]any{"opened": n != r},
			"ontology_name": n.ontology,
		})
		parent = id
	}
	return out
}

func (d *dataset) search(query string, q url.Values) []map[string]any {
	query = strings.ToLower(query)
	exact := q.Get("exact") == "true"
	matches := func(label, id string) bool {
		label = strings.ToLower(label)
		if exact {
			return label == query
		}
		return strings.Contains(label, query) || strings.Contains(strings.ToLower(id), query)
	}
	types := splitList(q.Get("type"))
	ontologies := splitList(q.Get("ontology"))
	wantType := func(t string) bool { return len(types) == 0 || slices.Contains(types, t) }
	wantOnto := func(o string) bool { return len(ontologies) == 0 || slices.Contains(ontologies, o) }

	var out []map[string]any
	if wantType("ontology") {
		for _, o := range d.ontologies {
			if wantOnto(o.id) && matches(o.title, o.id) {
				out = append(out, map[string]any{
					"id":              "ontology:" + o.id,
					"iri":             ontologyIRI(o.id),
					"label":           o.title,
					"ontology_name":   o.id,
					"ontology_prefix": strings.ToUpper(o.id),
					"type":            "ontology",
				})
			}
		}
	}
	for _, group := range []struct {
		typ     string
		records []*record
	}{{"class", d.terms}, {"property", d.properties}, {"individual", d.individuals}} {
		if !wantType(group.typ) {
			continue
		}
		for _, r := range group.records {
			if !wantOnto(r.ontology) || !matches(r.label, r.iri) {
				continue
			}
			doc := map[string]any{
				"id":                   r.ontology + ":" + group.typ + ":" + r.iri,
				"iri":                  r.iri,
				"short_form":           r.shortForm,
				"label":                r.label,
				"description":          []string{r.label + " description"},
				"ontology_name":        r.ontology,
				"ontology_prefix":      strings.ToUpper(r.ontology),
				"type":                 group.typ,
				"is_defining_ontology": r.defining,
			}
			if r.oboID != "" {
				doc["obo_id"] = r.oboID
			}
			out = append(out, doc)
		}
	}
	return out
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func ontologyIRI(id string) string {
	return "http://purl.obolibrary.org/obo/" + id + ".owl"
}

func (s *Server) ontologyJSON(r *http.Request, o *ontologyRec) map[string]any {
	base := s.base(r) + "/ontologies/" + o.id
	return map[string]any{
		"ontologyId":          o.id,
		"loaded":              "2024-01-01T00:00:00.000+0000",
		"updated":             "2024-01-02T00:00:00.000+0000",
		"status":              "LOADED",
		"message":             "",
		"version":             nil,
		"numberOfTerms":       s.data.count("terms", o.id),
		"numberOfProperties":  s.data.count("properties", o.id),
		"numberOfIndividuals": s.data.count("individuals", o.id),
		"fileHash":            "d41d8cd98f00b204e9800998ecf8427e",
		"config": map[string]any{
			"id":              ontologyIRI(o.id),
			"versionIri":      ontologyIRI(o.id) + "/2024-01-01",
			"title":           o.title,
			"namespace":       o.id,
			"preferredPrefix": strings.ToUpper(o.id),
			"description":     "The " + o.title,
			"homepage":        "http://example.org/" + o.id,
			"version":         "2024-01-01",
			"creators":        []string{"Tester"},
			"annotations": map[string]any{
				"license":           []string{"CC-BY 4.0"},
				"creator":           []string{"Tester"},
				"default-namespace": []string{o.id},
				"format-version":    "1.2",
			},
			"fileLocation":               ontologyIRI(o.id),
			"reasonerType":               "OWL2",
			"oboSlims":                   false,
			"labelProperty":              "http://www.w3.org/2000/01/rdf-schema#label",
			"definitionProperties":       []string{"http://purl.obolibrary.org/obo/IAO_0000115"},
			"synonymProperties":          []string{"http://www.geneontology.org/formats/oboInOwl#hasExactSynonym"},
			"hierarchicalProperties":     []string{},
			"baseUris":                   []string{"http://purl.obolibrary.org/obo/" + strings.ToUpper(o.id) + "_"},
			"hiddenProperties":           []string{},
			"internalMetadataProperties": []string{},
			"skos":                       false,
		},
		"_links": map[string]any{
			"self":        map[string]any{"href": base},
			"terms":       map[string]any{"href": base + "/terms"},
			"properties":  map[string]any{"href": base + "/properties"},
			"individuals": map[string]any{"href": base + "/individuals"},
		},
	}
}

func (s *Server) recordJSON(r *http.Request, kind string, rec *record) map[string]any {
	self := s.base(r) + "/ontologies/" + rec.ontology + "/" + kind + "/" + encodeID(rec.iri)
	links := map[string]any{"self": map[string]any{"href": self}}
	if kind == "terms" {
		for _, rel := range []string{
			"parents", "ancestors", "hierarchicalParents", "hierarchicalAncestors",
			"children", "descendants", "hierarchicalChildren", "hierarchicalDescendants",
			"jstree", "graph",
		} {
			links[rel] = map[string]any{"href": self + "/" + rel}
		}
	}

	out := map[string]any{
		"iri":                  rec.iri,
		"lang":                 "en",
		"label":                rec.label,
		"description":          []string{rec.label + " description"},
		"synonyms":             nil,
		"annotation":           map[string][]string{"has_obo_namespace": {rec.ontology}},
		"ontology_name":        rec.ontology,
		"ontology_prefix":      strings.ToUpper(rec.ontology),
		"ontology_iri":         ontologyIRI(rec.ontology),
		"is_obsolete":          false,
		"is_defining_ontology": rec.defining,
		"has_children":         len(s.data.childrenOf(rec)) > 0,
		"is_root":              len(rec.parents) == 0,
		"short_form":           rec.shortForm,
		"obo_id":               nil,
		"in_subset":            nil,
		"obo_definition_citation": []map[string]any{{
			"definition": rec.label + " definition",
			"oboXrefs":   []map[string]any{{"database": "PMID", "id": "123", "description": nil, "url": nil}},
		}},
		"obo_xref":         nil,
		"obo_synonym":      nil,
		"term_replaced_by": nil,
		"_links":           links,
	}
	if rec.oboID != "" {
		out["obo_id"] = rec.oboID
	}
	if kind != "terms" {
		delete(out, "has_children")
		delete(out, "in_subset")
		delete(out, "obo_definition_citation")
		delete(out, "term_replaced_by")
	}
	if kind == "individuals" {
		delete(out, "is_root")
	}
	return out
}
