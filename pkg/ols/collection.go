package ols

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
	"net/url"
	"slices"
	"strconv"
	"time"

	olserrors "github.com/matzehuels/olsclient/pkg/errors"
	"github.com/matzehuels/olsclient/pkg/hal"
	"github.com/matzehuels/olsclient/pkg/observability"
)

// Done is returned by [Collection.Next] once every item has been produced.
// It marks the end of the sequence and is not a failure.
var Done = errors.New("ols: no more items in collection")

// Page navigation relations.
const (
	RelNext  = "next"
	RelPrev  = "prev"
	RelFirst = "first"
	RelLast  = "last"
)

// pageState describes the buffered page. It is replaced wholesale on every
// page transition.
type pageState struct {
	Number        int // zero-based index of the buffered page
	Size          int
	TotalPages    int
	TotalElements int
	Start         int // absolute index of the first buffered item
}

// pager is the wire-level paging scheme of a collection.
type pager interface {
	// pageURL returns the URL of the zero-based page at the given size.
	pageURL(page, size int) (string, error)
	// linkURL returns the URL of a navigation relation, or false when the
	// buffered page has no such neighbour.
	linkURL(doc *hal.Document, st pageState, rel string) (string, bool, error)
	// parse extracts the page state and raw items of a fetched page.
	parse(doc *hal.Document, kind Kind, size int) (pageState, []json.RawMessage, error)
}

// Collection is a lazily paged, randomly indexable sequence of records of
// one kind. It buffers exactly one page and fetches others on demand
// through the client's retry policy.
//
// A Collection is not safe for concurrent use. Refinements such as
// [Collection.Call] and the page navigation methods return new collections
// and leave the receiver untouched.
type Collection[T any] struct {
	client *Client
	kind   Kind
	pager  pager
	size   int
	decode func(json.RawMessage) (T, error)

	doc    *hal.Document
	state  pageState
	items  []json.RawMessage
	cursor int
}

// NewCollection binds a collection to the listing at baseURI. A non-nil
// seed is used as the first page; otherwise the first page is fetched
// immediately. A pageSize of zero uses the client default.
//
// T must be *Ontology, *Term, *Property, *Individual or Entity.
func NewCollection[T any](ctx context.Context, client *Client, baseURI string, kind Kind, seed *hal.Document, pageSize int) (*Collection[T], error) {
	if !kind.Valid() {
		return nil, olserrors.New(olserrors.ErrCodeBadParameter, "unknown resource kind %q", kind)
	}
	p, err := newListingPager(baseURI)
	if err != nil {
		return nil, err
	}
	return newCollection[T](ctx, client, kind, p, seed, pageSize)
}

func newCollection[T any](ctx context.Context, client *Client, kind Kind, p pager, seed *hal.Document, pageSize int) (*Collection[T], error) {
	decode, err := decoderFor[T](client, kind)
	if err != nil {
		return nil, err
	}
	if pageSize <= 0 {
		pageSize = client.pageSize
	}

	c := &Collection[T]{
		client: client,
		kind:   kind,
		pager:  p,
		size:   pageSize,
		decode: decode,
	}
	if seed != nil {
		if err := c.setDocument(seed); err != nil {
			return nil, err
		}
		return c, nil
	}
	if err := c.loadPage(ctx, 0); err != nil {
		return nil, err
	}
	return c, nil
}

// listing validates filters for kind and opens the filtered listing at base.
func listing[T any](ctx context.Context, client *Client, base string, kind Kind, filters Filters) (*Collection[T], error) {
	validated, err := ValidateFilters(kind, filters)
	if err != nil {
		return nil, err
	}
	size := pageSizeFrom(validated, "size", client.pageSize)
	delete(validated, "size")

	u, err := hal.Link{Href: base}.Expand(client.site, validated.Values())
	if err != nil {
		return nil, olserrors.Wrap(olserrors.ErrCodeBadParameter, err, "invalid listing URL")
	}
	return NewCollection[T](ctx, client, u, kind, nil, size)
}

// Kind returns the resource kind of the collection.
func (c *Collection[T]) Kind() Kind { return c.kind }

// URL returns the URL of the buffered page.
func (c *Collection[T]) URL() string {
	if c.doc == nil {
		return ""
	}
	return c.doc.URL
}

// Len returns the total number of items across all pages, as reported by
// the buffered page's metadata. It never fetches.
func (c *Collection[T]) Len() int { return c.state.TotalElements }

// Page returns the zero-based index of the buffered page.
func (c *Collection[T]) Page() int { return c.state.Number }

// Pages returns the number of pages.
func (c *Collection[T]) Pages() int { return c.state.TotalPages }

// PageSize returns the effective page size. The size reported by the
// server wins over the requested one.
func (c *Collection[T]) PageSize() int { return c.pageSize() }

func (c *Collection[T]) pageSize() int {
	if c.state.Size > 0 {
		return c.state.Size
	}
	return max(c.size, 1)
}

// At returns the item at absolute index i, fetching its page if it is not
// the buffered one. Indexes outside [0, Len()) fail with OUT_OF_RANGE.
func (c *Collection[T]) At(ctx context.Context, i int) (T, error) {
	var zero T
	if i < 0 || i >= c.Len() {
		return zero, c.outOfRange(i)
	}

	// A capped page size is only learned from a fetched page, so reaching
	// the target may take a second load.
	for loads := 0; !c.holds(i); loads++ {
		page := i / c.pageSize()
		if page == c.state.Number || loads == 3 {
			// the remote listing shrank since the metadata was read
			return zero, c.outOfRange(i)
		}
		if err := c.loadPage(ctx, page); err != nil {
			return zero, err
		}
		c.cursor = i - c.state.Start
	}
	return c.decodeItem(i - c.state.Start)
}

// holds reports whether the buffered page contains absolute index i.
func (c *Collection[T]) holds(i int) bool {
	return i >= c.state.Start && i < c.state.Start+len(c.items)
}

// Slice returns the items in [start, stop). When start > stop it returns
// the items of [stop, start) in reverse order. Either bound beyond Len()
// fails with OUT_OF_RANGE. Only the pages covering the range are fetched.
func (c *Collection[T]) Slice(ctx context.Context, start, stop int) ([]T, error) {
	n := c.Len()
	for _, b := range []int{start, stop} {
		if b < 0 || b > n {
			return nil, c.outOfRange(b)
		}
	}

	if start > stop {
		out, err := c.Slice(ctx, stop, start)
		if err != nil {
			return nil, err
		}
		slices.Reverse(out)
		return out, nil
	}

	out := make([]T, 0, stop-start)
	for i := start; i < stop; i++ {
		item, err := c.At(ctx, i)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// Next returns the item at the cursor and advances it, fetching the next
// page when the buffered one is exhausted. It returns [Done] after the last
// item. Iteration starts wherever the cursor currently is and cannot be
// restarted.
func (c *Collection[T]) Next(ctx context.Context) (T, error) {
	var zero T
	for c.cursor >= len(c.items) {
		if c.state.Number >= c.state.TotalPages-1 {
			return zero, Done
		}
		prev := c.state.Number
		if err := c.advance(ctx); err != nil {
			return zero, err
		}
		if c.state.Number <= prev {
			if len(c.items) == 0 {
				return zero, Done
			}
			return zero, olserrors.New(olserrors.ErrCodeOLS, "page %d of %s did not advance", prev, c.URL()).WithPath(c.kind.String())
		}
	}

	item, err := c.decodeItem(c.cursor)
	if err != nil {
		return zero, err
	}
	c.cursor++
	return item, nil
}

// All returns an iterator over the remaining items, as produced by
// [Collection.Next]. A failure is yielded once and ends the iteration.
func (c *Collection[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for {
			item, err := c.Next(ctx)
			if errors.Is(err, Done) {
				return
			}
			if !yield(item, err) || err != nil {
				return
			}
		}
	}
}

// Items decodes every item of the buffered page.
func (c *Collection[T]) Items() ([]T, error) {
	out := make([]T, 0, len(c.items))
	for i := range c.items {
		item, err := c.decodeItem(i)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// Call returns a new collection re-bound to a filtered or alternate view.
// Filters are validated for the collection's kind before any request; a
// size filter overrides the page size. action names the link to follow
// from the buffered page and defaults to the kind's own listing.
func (c *Collection[T]) Call(ctx context.Context, filters Filters, action string) (*Collection[T], error) {
	validated, err := ValidateFilters(c.kind, filters)
	if err != nil {
		return nil, err
	}

	if sp, ok := c.pager.(*searchPager); ok {
		if action != "" && action != "search" {
			return nil, olserrors.New(olserrors.ErrCodeBadParameter, "search has no action %q", action).WithPath("search")
		}
		size := pageSizeFrom(validated, "rows", c.size)
		delete(validated, "rows")
		return newCollection[T](ctx, c.client, c.kind, sp.with(validated), nil, size)
	}

	size := pageSizeFrom(validated, "size", c.size)
	params := validated.Values()
	params.Set("page", "0")
	params.Set("size", strconv.Itoa(size))

	if action == "" {
		action = c.kind.Field()
	}
	link, ok := c.doc.Link(action)
	if !ok {
		lp, isListing := c.pager.(*listingPager)
		if action != c.kind.Field() || !isListing {
			return nil, olserrors.New(olserrors.ErrCodeBadParameter, "no action %q on %s", action, c.URL()).WithPath(c.kind.String())
		}
		link = hal.Link{Href: lp.path()}
	}

	u, err := link.Expand(c.URL(), params)
	if err != nil {
		return nil, olserrors.Wrap(olserrors.ErrCodeBadParameter, err, "invalid action %q", action)
	}
	doc, err := c.client.get(ctx, "call "+action, u)
	if err != nil {
		return nil, err
	}
	p, err := newListingPager(u)
	if err != nil {
		return nil, err
	}
	return newCollection[T](ctx, c.client, c.kind, p, doc, size)
}

// HasNext reports whether a page follows the buffered one.
func (c *Collection[T]) HasNext() bool { return c.hasLink(RelNext) }

// HasPrev reports whether a page precedes the buffered one.
func (c *Collection[T]) HasPrev() bool { return c.hasLink(RelPrev) }

// NextPage returns a new collection positioned on the following page.
func (c *Collection[T]) NextPage(ctx context.Context) (*Collection[T], error) {
	return c.navigate(ctx, RelNext)
}

// PrevPage returns a new collection positioned on the preceding page.
func (c *Collection[T]) PrevPage(ctx context.Context) (*Collection[T], error) {
	return c.navigate(ctx, RelPrev)
}

// FirstPage returns a new collection positioned on the first page.
func (c *Collection[T]) FirstPage(ctx context.Context) (*Collection[T], error) {
	return c.navigate(ctx, RelFirst)
}

// LastPage returns a new collection positioned on the last page.
func (c *Collection[T]) LastPage(ctx context.Context) (*Collection[T], error) {
	return c.navigate(ctx, RelLast)
}

func (c *Collection[T]) hasLink(rel string) bool {
	_, ok, err := c.pager.linkURL(c.doc, c.state, rel)
	return ok && err == nil
}

func (c *Collection[T]) navigate(ctx context.Context, rel string) (*Collection[T], error) {
	u, ok, err := c.pager.linkURL(c.doc, c.state, rel)
	if err != nil {
		return nil, olserrors.Wrap(olserrors.ErrCodeBadParameter, err, "invalid %s link", rel)
	}
	if !ok {
		return nil, olserrors.New(olserrors.ErrCodeBadParameter, "no %s page", rel).WithStatus(400).WithPath(c.kind.String())
	}

	doc, err := c.fetch(ctx, -1, rel, u)
	if err != nil {
		return nil, err
	}
	n := &Collection[T]{client: c.client, kind: c.kind, pager: c.pager, size: c.size, decode: c.decode}
	if err := n.setDocument(doc); err != nil {
		return nil, err
	}
	return n, nil
}

// advance replaces the buffered page with the following one.
func (c *Collection[T]) advance(ctx context.Context) error {
	u, ok, err := c.pager.linkURL(c.doc, c.state, RelNext)
	if err == nil && !ok {
		u, err = c.pager.pageURL(c.state.Number+1, c.pageSize())
	}
	if err != nil {
		return olserrors.Wrap(olserrors.ErrCodeOLS, err, "next page of %s", c.URL())
	}

	doc, err := c.fetch(ctx, c.state.Number+1, RelNext, u)
	if err != nil {
		return err
	}
	return c.setDocument(doc)
}

// loadPage replaces the buffered page with the zero-based page.
func (c *Collection[T]) loadPage(ctx context.Context, page int) error {
	u, err := c.pager.pageURL(page, c.pageSize())
	if err != nil {
		return olserrors.Wrap(olserrors.ErrCodeBadParameter, err, "page %d", page)
	}
	doc, err := c.fetch(ctx, page, "page "+strconv.Itoa(page), u)
	if err != nil {
		return err
	}
	return c.setDocument(doc)
}

// fetch retrieves one page document. page is -1 when the target is only
// known by its link relation.
func (c *Collection[T]) fetch(ctx context.Context, page int, what, u string) (*hal.Document, error) {
	start := time.Now()
	c.client.logger.Debug("fetch page", "kind", c.kind, "page", what, "url", u)
	doc, err := c.client.get(ctx, "fetch "+c.kind.String()+" "+what, u)
	observability.Collection().OnPageFetch(ctx, c.kind.String(), page, time.Since(start), err)
	return doc, err
}

func (c *Collection[T]) setDocument(doc *hal.Document) error {
	st, items, err := c.pager.parse(doc, c.kind, c.size)
	if err != nil {
		return olserrors.Wrap(olserrors.ErrCodeOLS, err, "unexpected page layout").WithPath(doc.URL)
	}
	c.doc = doc
	c.state = st
	c.items = items
	c.cursor = 0
	return nil
}

func (c *Collection[T]) decodeItem(i int) (T, error) {
	item, err := c.decode(c.items[i])
	if err != nil {
		var zero T
		return zero, olserrors.Wrap(olserrors.ErrCodeOLS, err, "decode %s item %d", c.kind, c.state.Start+i)
	}
	return item, nil
}

func (c *Collection[T]) outOfRange(i int) error {
	return olserrors.New(olserrors.ErrCodeOutOfRange, "index %d out of range [0, %d)", i, c.Len()).WithPath(c.kind.String())
}

// listingPager pages HAL listings with page/size query parameters and
// follows the next/prev/first/last links.
type listingPager struct {
	base *url.URL // listing URL without page and size
}

func newListingPager(rawURL string) (*listingPager, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, olserrors.Wrap(olserrors.ErrCodeBadParameter, err, "invalid listing URL %q", rawURL)
	}
	q := u.Query()
	q.Del("page")
	q.Del("size")
	u.RawQuery = q.Encode()
	return &listingPager{base: u}, nil
}

// path returns the listing URL without any query.
func (p *listingPager) path() string {
	u := *p.base
	u.RawQuery = ""
	return u.String()
}

func (p *listingPager) pageURL(page, size int) (string, error) {
	u := *p.base
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (p *listingPager) linkURL(doc *hal.Document, _ pageState, rel string) (string, bool, error) {
	if doc == nil || !doc.HasLink(rel) {
		return "", false, nil
	}
	u, err := doc.Follow(rel, nil)
	return u, err == nil, err
}

func (p *listingPager) parse(doc *hal.Document, kind Kind, size int) (pageState, []json.RawMessage, error) {
	var items []json.RawMessage
	if raw, ok := doc.Field(kind.Field()); ok {
		if err := json.Unmarshal(raw, &items); err != nil {
			return pageState{}, nil, err
		}
	}

	if !doc.Has("page") {
		st := pageState{Size: max(size, len(items), 1), TotalElements: len(items)}
		if len(items) > 0 {
			st.TotalPages = 1
		}
		return st, items, nil
	}

	var meta struct {
		Number        int `json:"number"`
		Size          int `json:"size"`
		TotalPages    int `json:"totalPages"`
		TotalElements int `json:"totalElements"`
	}
	if err := doc.Decode("page", &meta); err != nil {
		return pageState{}, nil, err
	}
	st := pageState{
		Number:        meta.Number,
		Size:          meta.Size,
		TotalPages:    meta.TotalPages,
		TotalElements: meta.TotalElements,
	}
	if st.Size <= 0 {
		st.Size = max(size, 1)
	}
	st.Start = st.Number * st.Size
	return st, items, nil
}
