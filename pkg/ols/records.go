package ols

import (
	"encoding/json"
	"reflect"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/olsclient/pkg/hal"
)

// Entity is any record the API can return: *Ontology, *Term, *Property or
// *Individual. Search results are sequences of Entity.
type Entity interface {
	// Kind is the resource kind the record belongs to.
	Kind() Kind
	// ID is the identifier used to fetch the record's detail: the ontology
	// id for ontologies, the IRI for everything else.
	ID() string

	entity()
}

// Ontology is one ontology loaded into the service.
type Ontology struct {
	OntologyID          string         `json:"ontologyId"`
	Loaded              string         `json:"loaded,omitempty"`
	Updated             string         `json:"updated,omitempty"`
	Status              string         `json:"status,omitempty"`
	Message             string         `json:"message,omitempty"`
	Version             string         `json:"version,omitempty"`
	NumberOfTerms       int            `json:"numberOfTerms"`
	NumberOfProperties  int            `json:"numberOfProperties"`
	NumberOfIndividuals int            `json:"numberOfIndividuals"`
	Config              OntologyConfig `json:"config"`

	Links map[string]hal.Link `json:"_links,omitempty"`

	client *Client
}

// OntologyConfig is the loader configuration published with an ontology.
type OntologyConfig struct {
	ID                         string              `json:"id"`
	VersionIRI                 string              `json:"versionIri,omitempty"`
	Title                      string              `json:"title,omitempty"`
	Namespace                  string              `json:"namespace,omitempty"`
	PreferredPrefix            string              `json:"preferredPrefix,omitempty"`
	Description                string              `json:"description,omitempty"`
	Homepage                   string              `json:"homepage,omitempty"`
	Version                    string              `json:"version,omitempty"`
	MailingList                string              `json:"mailingList,omitempty"`
	Tracker                    string              `json:"tracker,omitempty"`
	Creators                   []string            `json:"creators,omitempty"`
	Annotations                OntologyAnnotations `json:"annotations"`
	FileLocation               string              `json:"fileLocation,omitempty"`
	ReasonerType               string              `json:"reasonerType,omitempty"`
	OboSlims                   bool                `json:"oboSlims"`
	LabelProperty              string              `json:"labelProperty,omitempty"`
	DefinitionProperties       []string            `json:"definitionProperties,omitempty"`
	SynonymProperties          []string            `json:"synonymProperties,omitempty"`
	HierarchicalProperties     []string            `json:"hierarchicalProperties,omitempty"`
	BaseURIs                   []string            `json:"baseUris,omitempty"`
	HiddenProperties           []string            `json:"hiddenProperties,omitempty"`
	InternalMetadataProperties []string            `json:"internalMetadataProperties,omitempty"`
	Skos                       bool                `json:"skos"`
}

// OntologyAnnotations holds the well-known annotation properties of an
// ontology. Every annotation is multi-valued on the wire; the first value
// of each is kept. All holds the complete map.
type OntologyAnnotations struct {
	License          string
	Creator          string
	Rights           string
	FormatVersion    string
	Comment          string
	DefaultNamespace string
	All              map[string][]string
}

// UnmarshalJSON decodes the annotation map, tolerating scalar values.
func (a *OntologyAnnotations) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	a.All = make(map[string][]string, len(raw))
	for k, v := range raw {
		var vals []string
		if err := json.Unmarshal(v, &vals); err != nil {
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				continue
			}
			vals = []string{s}
		}
		a.All[strings.ReplaceAll(k, "-", "_")] = vals
	}

	first := func(key string) string {
		if vals := a.All[key]; len(vals) > 0 {
			return vals[0]
		}
		return ""
	}
	a.License = first("license")
	a.Creator = first("creator")
	a.Rights = first("rights")
	a.FormatVersion = first("format_version")
	a.Comment = first("comment")
	a.DefaultNamespace = first("default_namespace")
	return nil
}

// Kind implements Entity.
func (o *Ontology) Kind() Kind { return KindOntologies }

// ID implements Entity.
func (o *Ontology) ID() string { return o.OntologyID }

func (o *Ontology) entity() {}

// Title returns the configured title, falling back to the id.
func (o *Ontology) Title() string {
	if o.Config.Title != "" {
		return o.Config.Title
	}
	return o.OntologyID
}

// OboXref is a database cross reference attached to a term.
type OboXref struct {
	Database    string `json:"database"`
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
}

// OboCitation is a cited definition.
type OboCitation struct {
	Definition string    `json:"definition"`
	OboXrefs   []OboXref `json:"oboXrefs,omitempty"`
}

// OboSynonym is a scoped synonym.
type OboSynonym struct {
	Name  string    `json:"name"`
	Scope string    `json:"scope,omitempty"`
	Type  string    `json:"type,omitempty"`
	Xrefs []OboXref `json:"xrefs,omitempty"`
}

// Term is an ontology class.
type Term struct {
	IRI                   string              `json:"iri"`
	Label                 string              `json:"label"`
	Description           []string            `json:"description,omitempty"`
	Annotation            map[string][]string `json:"annotation,omitempty"`
	Synonyms              []string            `json:"synonyms,omitempty"`
	OntologyName          string              `json:"ontology_name"`
	OntologyPrefix        string              `json:"ontology_prefix,omitempty"`
	OntologyIRI           string              `json:"ontology_iri,omitempty"`
	IsObsolete            bool                `json:"is_obsolete"`
	TermReplacedBy        string              `json:"term_replaced_by,omitempty"`
	IsDefiningOntology    bool                `json:"is_defining_ontology"`
	HasChildren           bool                `json:"has_children"`
	IsRoot                bool                `json:"is_root"`
	ShortForm             string              `json:"short_form,omitempty"`
	OboID                 string              `json:"obo_id,omitempty"`
	InSubset              []string            `json:"in_subset,omitempty"`
	OboDefinitionCitation []OboCitation       `json:"obo_definition_citation,omitempty"`
	OboXref               []OboXref           `json:"obo_xref,omitempty"`
	OboSynonym            []OboSynonym        `json:"obo_synonym,omitempty"`
	Lang                  string              `json:"lang,omitempty"`

	Links map[string]hal.Link `json:"_links,omitempty"`

	accession string
	client    *Client
}

// Kind implements Entity.
func (t *Term) Kind() Kind { return KindTerms }

// ID implements Entity.
func (t *Term) ID() string { return t.IRI }

func (t *Term) entity() {}

// Accession returns the compact identifier of the term, such as
// "GO:0008150". It is the OBO id when published, otherwise the short form
// with its first underscore turned into a colon.
func (t *Term) Accession() string { return t.accession }

func accession(oboID, shortForm string) string {
	if oboID != "" {
		return oboID
	}
	return strings.Replace(shortForm, "_", ":", 1)
}

// Property is an ontology property.
type Property struct {
	IRI                string              `json:"iri"`
	Label              string              `json:"label"`
	Description        []string            `json:"description,omitempty"`
	Annotation         map[string][]string `json:"annotation,omitempty"`
	Synonyms           []string            `json:"synonyms,omitempty"`
	OntologyName       string              `json:"ontology_name"`
	OntologyPrefix     string              `json:"ontology_prefix,omitempty"`
	OntologyIRI        string              `json:"ontology_iri,omitempty"`
	IsObsolete         bool                `json:"is_obsolete"`
	IsDefiningOntology bool                `json:"is_defining_ontology"`
	HasChildren        bool                `json:"has_children"`
	IsRoot             bool                `json:"is_root"`
	ShortForm          string              `json:"short_form,omitempty"`
	OboID              string              `json:"obo_id,omitempty"`

	Links map[string]hal.Link `json:"_links,omitempty"`
}

// Kind implements Entity.
func (p *Property) Kind() Kind { return KindProperties }

// ID implements Entity.
func (p *Property) ID() string { return p.IRI }

func (p *Property) entity() {}

// Individual is a named instance declared in an ontology.
type Individual struct {
	IRI                string              `json:"iri"`
	Label              string              `json:"label"`
	Description        []string            `json:"description,omitempty"`
	Annotation         map[string][]string `json:"annotation,omitempty"`
	Synonyms           []string            `json:"synonyms,omitempty"`
	OntologyName       string              `json:"ontology_name"`
	OntologyPrefix     string              `json:"ontology_prefix,omitempty"`
	OntologyIRI        string              `json:"ontology_iri,omitempty"`
	IsObsolete         bool                `json:"is_obsolete"`
	IsDefiningOntology bool                `json:"is_defining_ontology"`
	ShortForm          string              `json:"short_form,omitempty"`
	OboID              string              `json:"obo_id,omitempty"`
	Types              []string            `json:"types,omitempty"`

	Links map[string]hal.Link `json:"_links,omitempty"`
}

// Kind implements Entity.
func (i *Individual) Kind() Kind { return KindIndividuals }

// ID implements Entity.
func (i *Individual) ID() string { return i.IRI }

func (i *Individual) entity() {}

// isDefining reports whether e is declared by the ontology it was served
// from. Ontologies always are.
func isDefining(e Entity) bool {
	switch v := e.(type) {
	case *Term:
		return v.IsDefiningOntology
	case *Property:
		return v.IsDefiningOntology
	case *Individual:
		return v.IsDefiningOntology
	}
	return true
}

// searchDoc carries the search-only fields needed to build an Ontology
// from a search hit and to pick the record variant.
type searchDoc struct {
	Type         string `json:"type"`
	IRI          string `json:"iri"`
	OntologyName string `json:"ontology_name"`
	Label        string `json:"label"`
}

// decodeRecord unmarshals raw into v and logs members that v has no field
// for. The record struct is the schema: nothing else is kept.
func decodeRecord(logger *log.Logger, raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return err
	}
	if logger.GetLevel() > log.DebugLevel {
		return nil
	}

	var members map[string]json.RawMessage
	if err := json.Unmarshal(raw, &members); err != nil {
		return nil
	}
	known := knownFields(reflect.TypeOf(v))
	for name := range members {
		if _, ok := known[name]; !ok {
			logger.Debug("ignoring unknown field", "type", reflect.TypeOf(v).Elem().Name(), "field", name)
		}
	}
	return nil
}

var fieldCache sync.Map // reflect.Type -> map[string]struct{}

// knownFields returns the JSON member names of the struct t points to.
func knownFields(t reflect.Type) map[string]struct{} {
	if cached, ok := fieldCache.Load(t); ok {
		return cached.(map[string]struct{})
	}

	st := t
	for st.Kind() == reflect.Pointer {
		st = st.Elem()
	}
	known := make(map[string]struct{}, st.NumField())
	for i := range st.NumField() {
		f := st.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		known[name] = struct{}{}
	}
	fieldCache.Store(t, known)
	return known
}
