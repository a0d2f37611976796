package ols

import (
	"net/url"
	"strings"
)

// Kind names a resource kind exposed by the API. Its value is also the
// member name under which listing pages embed their items.
type Kind string

// Resource kinds.
const (
	KindOntologies  Kind = "ontologies"
	KindTerms       Kind = "terms"
	KindProperties  Kind = "properties"
	KindIndividuals Kind = "individuals"

	// KindSearch is the kind of search results; its items live in the
	// "response" member of the search payload.
	KindSearch Kind = "response"
)

// Kinds lists the listable resource kinds in root discovery order.
var Kinds = []Kind{KindOntologies, KindTerms, KindProperties, KindIndividuals}

// String returns the kind name.
func (k Kind) String() string { return string(k) }

// Field returns the member name holding a page's items.
func (k Kind) Field() string { return string(k) }

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindOntologies, KindTerms, KindProperties, KindIndividuals, KindSearch:
		return true
	}
	return false
}

// EncodeIdentifier escapes an identifier for use as a path segment.
// Identifiers are IRIs full of reserved characters and the API gateway
// decodes paths one more time than usual, so the value is query-escaped
// twice.
func EncodeIdentifier(id string) string {
	return url.QueryEscape(url.QueryEscape(id))
}

// DecodeIdentifier reverses [EncodeIdentifier]. Values that were escaped
// only once, or not at all, decode to themselves.
func DecodeIdentifier(seg string) string {
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
