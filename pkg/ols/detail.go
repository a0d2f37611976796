package ols

import (
	"context"
	"errors"
	"net/url"

	"golang.org/x/sync/errgroup"

	olserrors "github.com/matzehuels/olsclient/pkg/errors"
)

// DefaultDetailsLimit caps the concurrent fetches of [Client.Details].
const DefaultDetailsLimit = 4

// Resolve fetches the record of the given kind identified by identifier
// under kindURI, a path relative to the site such as "terms" or
// "ontologies/efo/terms".
//
// Identifiers shared by several ontologies come back as a listing. Resolve
// then walks every page and returns the record whose ontology defines it.
// If none does, the first record is returned and a warning is logged.
func (c *Client) Resolve(ctx context.Context, kindURI string, kind Kind, identifier string) (Entity, error) {
	if err := olserrors.ValidateIdentifier(identifier); err != nil {
		return nil, err
	}
	if !kind.Valid() || kind == KindSearch {
		return nil, olserrors.New(olserrors.ErrCodeBadParameter, "cannot resolve records of kind %q", kind)
	}

	u := c.url(kindURI, EncodeIdentifier(identifier))
	doc, err := c.get(ctx, "detail "+kind.String(), u)
	if err != nil {
		return nil, err
	}

	if !doc.Has(kind.Field()) {
		return c.decodeEntity(kind, doc.Raw)
	}

	c.logger.Debug("identifier matches several records", "kind", kind, "identifier", identifier)
	p, err := newListingPager(u)
	if err != nil {
		return nil, err
	}
	matches, err := newCollection[Entity](ctx, c, kind, p, doc, c.pageSize)
	if err != nil {
		return nil, err
	}

	var first Entity
	for e, err := range matches.All(ctx) {
		if err != nil {
			return nil, err
		}
		if isDefining(e) {
			return e, nil
		}
		if first == nil {
			first = e
		}
	}
	if first == nil {
		return nil, olserrors.New(olserrors.ErrCodeNotFound, "no %s matches %q", kind, identifier).WithStatus(404).WithPath(kindURI)
	}
	c.logger.Warn("no defining record, using first match", "kind", kind, "identifier", identifier, "matches", matches.Len())
	return first, nil
}

// Ontology fetches an ontology by id.
func (c *Client) Ontology(ctx context.Context, id string) (*Ontology, error) {
	return resolveAs[*Ontology](ctx, c, KindOntologies.String(), KindOntologies, id)
}

// Term fetches a term by IRI, preferring its defining ontology.
func (c *Client) Term(ctx context.Context, iri string) (*Term, error) {
	return resolveAs[*Term](ctx, c, KindTerms.String(), KindTerms, iri)
}

// OntologyTerm fetches a term by IRI as served by one ontology.
func (c *Client) OntologyTerm(ctx context.Context, ontology, iri string) (*Term, error) {
	if err := olserrors.ValidateIdentifier(ontology); err != nil {
		return nil, err
	}
	return resolveAs[*Term](ctx, c, ontologyPath(ontology, KindTerms), KindTerms, iri)
}

// Property fetches a property by IRI.
func (c *Client) Property(ctx context.Context, iri string) (*Property, error) {
	return resolveAs[*Property](ctx, c, KindProperties.String(), KindProperties, iri)
}

// Individual fetches an individual by IRI.
func (c *Client) Individual(ctx context.Context, iri string) (*Individual, error) {
	return resolveAs[*Individual](ctx, c, KindIndividuals.String(), KindIndividuals, iri)
}

func ontologyPath(ontology string, kind Kind) string {
	return KindOntologies.String() + "/" + url.PathEscape(ontology) + "/" + kind.String()
}

func resolveAs[T Entity](ctx context.Context, c *Client, kindURI string, kind Kind, id string) (T, error) {
	var zero T
	e, err := c.Resolve(ctx, kindURI, kind, id)
	if err != nil {
		return zero, err
	}
	v, ok := e.(T)
	if !ok {
		return zero, olserrors.New(olserrors.ErrCodeOLS, "%s %q resolved to a %s", kind, id, e.Kind())
	}
	return v, nil
}

// Detail fetches the full record behind e, typically a search hit. Terms
// that name their ontology are fetched from it.
func (c *Client) Detail(ctx context.Context, e Entity) (Entity, error) {
	if e == nil {
		return nil, olserrors.New(olserrors.ErrCodeBadParameter, "nil entity")
	}

	switch v := e.(type) {
	case *Ontology:
		return asEntity(c.Ontology(ctx, v.OntologyID))
	case *Term:
		if v.OntologyName != "" {
			return asEntity(c.OntologyTerm(ctx, v.OntologyName, v.IRI))
		}
		return asEntity(c.Term(ctx, v.IRI))
	case *Property:
		if v.OntologyName != "" {
			return c.Resolve(ctx, ontologyPath(v.OntologyName, KindProperties), KindProperties, v.IRI)
		}
		return asEntity(c.Property(ctx, v.IRI))
	case *Individual:
		if v.OntologyName != "" {
			return c.Resolve(ctx, ontologyPath(v.OntologyName, KindIndividuals), KindIndividuals, v.IRI)
		}
		return asEntity(c.Individual(ctx, v.IRI))
	}
	return c.Resolve(ctx, e.Kind().String(), e.Kind(), e.ID())
}

// Details fetches the records behind entities concurrently, at most limit
// at a time, and returns them in input order. The first failure cancels
// the remaining fetches.
func (c *Client) Details(ctx context.Context, entities []Entity, limit int) ([]Entity, error) {
	if limit <= 0 {
		limit = DefaultDetailsLimit
	}

	out := make([]Entity, len(entities))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, e := range entities {
		g.Go(func() error {
			d, err := c.Detail(gctx, e)
			if err != nil {
				return err
			}
			out[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// asEntity keeps a failed typed lookup from producing a non-nil Entity
// holding a nil pointer.
func asEntity[T Entity](v T, err error) (Entity, error) {
	if err != nil {
		return nil, err
	}
	return v, nil
}

// IsNotFound reports whether err means the record does not exist.
func IsNotFound(err error) bool {
	return olserrors.Is(err, olserrors.ErrCodeNotFound)
}

// IsDone reports whether err marks the end of a collection.
func IsDone(err error) bool {
	return errors.Is(err, Done)
}
