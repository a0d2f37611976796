package ols

import (
	"encoding/json"

	olserrors "github.com/matzehuels/olsclient/pkg/errors"
)

// decoderFor returns the item decoder for record type T. Entity collections
// decode by kind, and search results by their type discriminator.
func decoderFor[T any](c *Client, kind Kind) (func(json.RawMessage) (T, error), error) {
	var fn any
	switch any((*T)(nil)).(type) {
	case **Ontology:
		fn = c.decodeOntology
	case **Term:
		fn = c.decodeTerm
	case **Property:
		fn = c.decodeProperty
	case **Individual:
		fn = c.decodeIndividual
	case *Entity:
		fn = func(raw json.RawMessage) (Entity, error) { return c.decodeEntity(kind, raw) }
	default:
		var zero T
		return nil, olserrors.New(olserrors.ErrCodeBadParameter, "unsupported record type %T", zero)
	}
	return fn.(func(json.RawMessage) (T, error)), nil
}

func (c *Client) decodeOntology(raw json.RawMessage) (*Ontology, error) {
	o := &Ontology{}
	if err := decodeRecord(c.logger, raw, o); err != nil {
		return nil, err
	}
	o.client = c
	return o, nil
}

func (c *Client) decodeTerm(raw json.RawMessage) (*Term, error) {
	t := &Term{}
	if err := decodeRecord(c.logger, raw, t); err != nil {
		return nil, err
	}
	t.accession = accession(t.OboID, t.ShortForm)
	t.client = c
	return t, nil
}

func (c *Client) decodeProperty(raw json.RawMessage) (*Property, error) {
	p := &Property{}
	if err := decodeRecord(c.logger, raw, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (c *Client) decodeIndividual(raw json.RawMessage) (*Individual, error) {
	i := &Individual{}
	if err := decodeRecord(c.logger, raw, i); err != nil {
		return nil, err
	}
	return i, nil
}

// decodeEntity decodes one item of a collection of the given kind.
func (c *Client) decodeEntity(kind Kind, raw json.RawMessage) (Entity, error) {
	switch kind {
	case KindOntologies:
		return asEntity(c.decodeOntology(raw))
	case KindProperties:
		return asEntity(c.decodeProperty(raw))
	case KindIndividuals:
		return asEntity(c.decodeIndividual(raw))
	case KindSearch:
		return c.decodeSearchHit(raw)
	default:
		return asEntity(c.decodeTerm(raw))
	}
}

// decodeSearchHit picks the record variant from the "type" discriminator:
// class, property, individual or ontology. Anything else is a term.
func (c *Client) decodeSearchHit(raw json.RawMessage) (Entity, error) {
	var hit searchDoc
	if err := json.Unmarshal(raw, &hit); err != nil {
		return nil, err
	}

	switch hit.Type {
	case "property":
		return asEntity(c.decodeProperty(raw))
	case "individual":
		return asEntity(c.decodeIndividual(raw))
	case "ontology":
		o, err := c.decodeOntology(raw)
		if err != nil {
			return nil, err
		}
		if o.OntologyID == "" {
			o.OntologyID = hit.OntologyName
		}
		if o.Config.ID == "" {
			o.Config.ID = hit.IRI
		}
		if o.Config.Title == "" {
			o.Config.Title = hit.Label
		}
		return o, nil
	default:
		return asEntity(c.decodeTerm(raw))
	}
}
