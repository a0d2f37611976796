package ols

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	olserrors "github.com/matzehuels/olsclient/pkg/errors"
	"github.com/matzehuels/olsclient/pkg/hal"
)

// Search runs a full-text query and returns the hits as a collection of
// mixed records. Accepted filters: ontology, type, slim, queryFields, exact,
// fieldList, groupField, obsoletes, local, childrenOf, allChildrenOf and
// rows, the last overriding the page size. An empty query fails with
// BAD_PARAMETER and invalid filters with BAD_FILTERS, both before any
// request is made.
func (c *Client) Search(ctx context.Context, query string, filters Filters) (*Collection[Entity], error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, olserrors.New(olserrors.ErrCodeBadParameter, "missing query").WithStatus(400).WithPath("search")
	}

	validated, err := ValidateFilters(KindSearch, filters)
	if err != nil {
		return nil, err
	}
	size := pageSizeFrom(validated, "rows", c.pageSize)
	delete(validated, "rows")

	c.logger.Debug("search", "query", query, "filters", validated, "rows", size)
	p := &searchPager{endpoint: c.url("search"), query: query, filters: validated}
	return newCollection[Entity](ctx, c, KindSearch, p, nil, size)
}

// searchPager pages the search endpoint, which takes an offset and a row
// count instead of page numbers and carries no navigation links. Every URL
// is rebuilt from the query and filters.
type searchPager struct {
	endpoint string
	query    string
	filters  Filters
}

func (p *searchPager) with(filters Filters) *searchPager {
	return &searchPager{endpoint: p.endpoint, query: p.query, filters: filters}
}

func (p *searchPager) startURL(start, rows int) string {
	v := p.filters.Values()
	v.Set("q", p.query)
	v.Set("rows", strconv.Itoa(rows))
	v.Set("start", strconv.Itoa(start))
	return p.endpoint + "?" + v.Encode()
}

func (p *searchPager) pageURL(page, size int) (string, error) {
	return p.startURL(page*size, size), nil
}

func (p *searchPager) linkURL(_ *hal.Document, st pageState, rel string) (string, bool, error) {
	switch rel {
	case RelNext:
		if st.Number < st.TotalPages-1 {
			return p.startURL(st.Start+st.Size, st.Size), true, nil
		}
	case RelPrev:
		if st.Number > 0 {
			return p.startURL(max(st.Start-st.Size, 0), st.Size), true, nil
		}
	case RelFirst:
		if st.TotalPages > 0 {
			return p.startURL(0, st.Size), true, nil
		}
	case RelLast:
		if st.TotalPages > 0 {
			return p.startURL((st.TotalPages-1)*st.Size, st.Size), true, nil
		}
	default:
		return "", false, fmt.Errorf("unknown relation %q", rel)
	}
	return "", false, nil
}

func (p *searchPager) parse(doc *hal.Document, kind Kind, size int) (pageState, []json.RawMessage, error) {
	var resp struct {
		NumFound int               `json:"numFound"`
		Start    int               `json:"start"`
		Docs     []json.RawMessage `json:"docs"`
	}
	if err := doc.Decode(kind.Field(), &resp); err != nil {
		return pageState{}, nil, err
	}
	if u, err := url.Parse(doc.URL); err == nil {
		if rows, err := strconv.Atoi(u.Query().Get("rows")); err == nil && rows > 0 {
			size = rows
		}
	}
	// A short page before the end means the server caps rows.
	if n := len(resp.Docs); n > 0 && n < size && resp.Start+n < resp.NumFound {
		size = n
	}
	return searchState(resp.NumFound, resp.Start, size), resp.Docs, nil
}

// searchState derives page numbers from an offset: the page is
// floor(start/size) and the page count ceil(numFound/size).
func searchState(numFound, start, size int) pageState {
	size = max(size, 1)
	return pageState{
		Number:        start / size,
		Size:          size,
		TotalPages:    (numFound + size - 1) / size,
		TotalElements: numFound,
		Start:         start,
	}
}
