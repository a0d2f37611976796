package ols

import (
	"maps"
	"net/url"
	"slices"
	"strconv"
	"strings"

	olserrors "github.com/matzehuels/olsclient/pkg/errors"
)

// Filters are query parameters narrowing a listing or a search. List-valued
// keys (type, fieldList, queryFields, ontology, slim) take comma-separated
// values.
type Filters map[string]string

// Values converts the filters to URL query values.
func (f Filters) Values() url.Values {
	v := make(url.Values, len(f))
	for k, val := range f {
		v.Set(k, val)
	}
	return v
}

// Keys returns the filter keys in sorted order.
func (f Filters) Keys() []string {
	return slices.Sorted(maps.Keys(f))
}

// Clone returns a copy of f. The copy of a nil set is empty and non-nil.
func (f Filters) Clone() Filters {
	out := make(Filters, len(f))
	maps.Copy(out, f)
	return out
}

type filterRule struct {
	keys      set
	exclusive set // at most one of these may be present
}

type set map[string]struct{}

func newSet(vals ...string) set {
	s := make(set, len(vals))
	for _, v := range vals {
		s[v] = struct{}{}
	}
	return s
}

func (s set) has(v string) bool {
	_, ok := s[v]
	return ok
}

var termLookupRule = filterRule{
	keys:      newSet("size", "lang", "iri", "obo_id", "short_form"),
	exclusive: newSet("iri", "obo_id", "short_form"),
}

var filterRules = map[Kind]filterRule{
	KindOntologies:  {keys: newSet("size", "lang")},
	KindTerms:       termLookupRule,
	KindProperties:  termLookupRule,
	KindIndividuals: termLookupRule,
	KindSearch: {keys: newSet(
		"ontology", "type", "slim", "queryFields", "exact", "fieldList",
		"groupField", "obsoletes", "local", "childrenOf", "allChildrenOf", "rows",
	)},
}

// Vocabularies of the enumerated search filters.
var (
	searchTypes       = newSet("class", "property", "individual", "ontology")
	searchFieldList   = newSet("iri", "ontology_name", "ontology_prefix", "short_form", "description", "id", "label", "is_defining_ontology", "obo_id", "type")
	searchQueryFields = newSet("label", "synonym", "description", "short_form", "obo_id", "annotations", "logical_description", "iri")
	searchFlags       = newSet("exact", "groupField", "obsoletes", "local")
)

// ValidateFilters checks filters against the whitelist of kind and returns
// a validated copy. Violations are reported as BAD_FILTERS naming the
// offending key and value. No network call is ever made.
func ValidateFilters(kind Kind, filters Filters) (Filters, error) {
	rule, ok := filterRules[kind]
	if !ok {
		return nil, olserrors.New(olserrors.ErrCodeBadFilters, "no filters accepted for kind %q", kind).WithPath(kind.String())
	}

	out := make(Filters, len(filters))
	var exclusive []string
	for _, key := range filters.Keys() {
		val := strings.TrimSpace(filters[key])
		if !rule.keys.has(key) {
			return nil, badFilter(kind, "unauthorized filter key %q", key)
		}
		if rule.exclusive.has(key) {
			exclusive = append(exclusive, key)
		}
		if err := checkValue(kind, key, val); err != nil {
			return nil, err
		}
		out[key] = val
	}

	if len(exclusive) > 1 {
		return nil, badFilter(kind, "only one filter at a time, got %s", strings.Join(exclusive, ", "))
	}
	return out, nil
}

func checkValue(kind Kind, key, val string) error {
	switch key {
	case "size", "rows":
		n, err := strconv.Atoi(val)
		if err != nil || n <= 0 {
			return badFilter(kind, "%s must be a positive integer, got %q", key, val)
		}
	case "type":
		return checkList(kind, key, val, searchTypes)
	case "fieldList":
		return checkList(kind, key, val, searchFieldList)
	case "queryFields":
		return checkList(kind, key, val, searchQueryFields)
	default:
		if kind == KindSearch && searchFlags.has(key) && val != "true" && val != "false" {
			return badFilter(kind, "%s must be \"true\" or \"false\", got %q", key, val)
		}
		if val == "" {
			return badFilter(kind, "empty value for filter %q", key)
		}
	}
	return nil
}

func checkList(kind Kind, key, val string, vocab set) error {
	if val == "" {
		return badFilter(kind, "empty value for filter %q", key)
	}
	for _, v := range strings.Split(val, ",") {
		if !vocab.has(strings.TrimSpace(v)) {
			return badFilter(kind, "invalid %s value %q", key, v)
		}
	}
	return nil
}

func badFilter(kind Kind, format string, args ...any) error {
	return olserrors.New(olserrors.ErrCodeBadFilters, format, args...).WithPath(kind.String())
}

// pageSizeFrom returns the size override carried by filters, if any.
func pageSizeFrom(filters Filters, key string, fallback int) int {
	if n, err := strconv.Atoi(filters[key]); err == nil && n > 0 {
		return n
	}
	return fallback
}
