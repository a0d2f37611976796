package ols

import (
	"context"
	"net/url"

	olserrors "github.com/matzehuels/olsclient/pkg/errors"
)

// Relation names a hierarchy traversal available on a term.
type Relation string

// Term relations.
const (
	RelParents                 Relation = "parents"
	RelAncestors               Relation = "ancestors"
	RelHierarchicalParents     Relation = "hierarchicalParents"
	RelHierarchicalAncestors   Relation = "hierarchicalAncestors"
	RelChildren                Relation = "children"
	RelDescendants             Relation = "descendants"
	RelHierarchicalChildren    Relation = "hierarchicalChildren"
	RelHierarchicalDescendants Relation = "hierarchicalDescendants"
)

// Relations lists every term relation.
var Relations = []Relation{
	RelParents, RelAncestors, RelHierarchicalParents, RelHierarchicalAncestors,
	RelChildren, RelDescendants, RelHierarchicalChildren, RelHierarchicalDescendants,
}

// Valid reports whether r is a known relation.
func (r Relation) Valid() bool {
	for _, v := range Relations {
		if r == v {
			return true
		}
	}
	return false
}

// Relation lists the terms related to t by rel. The term's own link is
// followed when present; otherwise the conventional path under its
// ontology is used.
func (t *Term) Relation(ctx context.Context, rel Relation) (*Collection[*Term], error) {
	if !rel.Valid() {
		return nil, olserrors.New(olserrors.ErrCodeBadParameter, "unknown term relation %q", rel)
	}
	u, err := t.subresource(string(rel))
	if err != nil {
		return nil, err
	}
	return NewCollection[*Term](ctx, t.client, u, KindTerms, nil, 0)
}

// Parents lists the direct parents of t.
func (t *Term) Parents(ctx context.Context) (*Collection[*Term], error) {
	return t.Relation(ctx, RelParents)
}

// Ancestors lists every ancestor of t.
func (t *Term) Ancestors(ctx context.Context) (*Collection[*Term], error) {
	return t.Relation(ctx, RelAncestors)
}

// Children lists the direct children of t.
func (t *Term) Children(ctx context.Context) (*Collection[*Term], error) {
	return t.Relation(ctx, RelChildren)
}

// Descendants lists every descendant of t.
func (t *Term) Descendants(ctx context.Context) (*Collection[*Term], error) {
	return t.Relation(ctx, RelDescendants)
}

func (t *Term) subresource(name string) (string, error) {
	if t.client == nil {
		return "", olserrors.New(olserrors.ErrCodeBadParameter, "term %q is not bound to a client", t.IRI)
	}
	if l, ok := t.Links[name]; ok && l.Href != "" {
		u, err := l.Expand(t.client.site, nil)
		if err == nil {
			return u, nil
		}
	}
	if t.OntologyName == "" || t.IRI == "" {
		return "", olserrors.New(olserrors.ErrCodeBadParameter, "term %q has no %s link and no ontology", t.IRI, name)
	}
	return t.client.url(KindOntologies.String(), url.PathEscape(t.OntologyName), KindTerms.String(), EncodeIdentifier(t.IRI), name), nil
}
