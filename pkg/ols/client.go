package ols

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	olserrors "github.com/matzehuels/olsclient/pkg/errors"
	"github.com/matzehuels/olsclient/pkg/hal"
	"github.com/matzehuels/olsclient/pkg/httputil"
)

// DefaultSite is the public OLS API root.
const DefaultSite = "https://www.ebi.ac.uk/ols/api"

// DefaultPageSize is the page size requested for listings.
const DefaultPageSize = 100

// SiteEnv names the environment variable overriding [DefaultSite].
const SiteEnv = "OLS_SITE"

type options struct {
	site       string
	logger     *log.Logger
	retrier    *httputil.Retrier
	httpClient *http.Client
	timeout    time.Duration
	pageSize   int
	rateLimit  float64
	burst      int
	headers    map[string]string
}

// Option configures a [Client].
type Option func(*options)

// WithSite sets the API root. The default is $OLS_SITE or [DefaultSite].
func WithSite(site string) Option {
	return func(o *options) { o.site = site }
}

// WithLogger sets the logger for retries, page fetches and decode notices.
func WithLogger(logger *log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithRetry sets the number of attempts and the fixed delay between them.
func WithRetry(maxAttempts int, backoff time.Duration) Option {
	return func(o *options) {
		o.retrier = httputil.NewRetrier(maxAttempts, backoff, nil)
	}
}

// WithRetrier replaces the retry policy.
func WithRetrier(r *httputil.Retrier) Option {
	return func(o *options) { o.retrier = r }
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithTimeout bounds each HTTP request.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithPageSize sets the page size requested for listings and searches.
func WithPageSize(n int) Option {
	return func(o *options) { o.pageSize = n }
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(rps float64, burst int) Option {
	return func(o *options) {
		o.rateLimit = rps
		o.burst = burst
	}
}

// WithHeaders adds headers to every request.
func WithHeaders(headers map[string]string) Option {
	return func(o *options) { o.headers = headers }
}

// Client is the entry point to the OLS API. It holds the discovered root
// document and is safe for concurrent use; the collections it returns are
// not.
type Client struct {
	site      string
	transport *hal.Client
	retrier   *httputil.Retrier
	logger    *log.Logger
	pageSize  int
	root      *hal.Document
}

// NewClient discovers the API root and returns a ready client.
func NewClient(ctx context.Context, opts ...Option) (*Client, error) {
	o := options{pageSize: DefaultPageSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.site == "" {
		o.site = os.Getenv(SiteEnv)
	}
	if o.site == "" {
		o.site = DefaultSite
	}
	o.site = strings.TrimRight(o.site, "/")
	if err := olserrors.ValidateURL(o.site); err != nil {
		return nil, err
	}
	if o.logger == nil {
		o.logger = log.Default()
	}
	if o.retrier == nil {
		o.retrier = httputil.NewRetrier(httputil.DefaultMaxAttempts, httputil.DefaultBackoff, nil)
	}
	if o.retrier.Logger == nil {
		r := *o.retrier
		r.Logger = o.logger
		o.retrier = &r
	}
	if o.pageSize <= 0 {
		o.pageSize = DefaultPageSize
	}

	c := &Client{
		site: o.site,
		transport: hal.NewClient(hal.Options{
			HTTPClient: o.httpClient,
			Timeout:    o.timeout,
			RateLimit:  o.rateLimit,
			Burst:      o.burst,
			Headers:    o.headers,
			Logger:     o.logger,
		}),
		retrier:  o.retrier,
		logger:   o.logger,
		pageSize: o.pageSize,
	}

	root, err := c.get(ctx, "discover root", c.site)
	if err != nil {
		return nil, err
	}
	c.root = root
	c.logger.Debug("discovered API root", "site", c.site, "links", len(root.Links))
	return c, nil
}

// Site returns the API root URL.
func (c *Client) Site() string { return c.site }

// PageSize returns the default page size.
func (c *Client) PageSize() int { return c.pageSize }

// Logger returns the client's logger.
func (c *Client) Logger() *log.Logger { return c.logger }

// get fetches one document through the retry policy.
func (c *Client) get(ctx context.Context, op, rawURL string) (*hal.Document, error) {
	var doc *hal.Document
	err := c.retrier.Do(ctx, op, func() error {
		var err error
		doc, err = c.transport.Get(ctx, rawURL)
		return err
	})
	return doc, err
}

// getJSON fetches rawURL through the retry policy and decodes it into v.
// A body that does not decode is retried like any malformed response.
func (c *Client) getJSON(ctx context.Context, op, rawURL string, v any) error {
	return c.retrier.Do(ctx, op, func() error {
		body, err := c.transport.GetBytes(ctx, rawURL)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, v); err != nil {
			return httputil.Retryable(olserrors.Wrap(olserrors.ErrCodeOLS, err, "malformed response from %s", rawURL))
		}
		return nil
	})
}

// url joins path segments onto the site root. Segments must already be
// escaped.
func (c *Client) url(segments ...string) string {
	u, err := hal.JoinPath(c.site, segments...)
	if err != nil {
		// site was validated in NewClient
		return c.site + "/" + strings.Join(segments, "/")
	}
	return u
}

// listingURL returns the root link for kind, or the conventional path when
// the root does not advertise it.
func (c *Client) listingURL(kind Kind) string {
	if c.root != nil {
		if l, ok := c.root.Link(kind.String()); ok {
			if u, err := l.Expand(c.site, nil); err == nil {
				return u
			}
		}
	}
	return c.url(kind.String())
}

// Ontologies lists the loaded ontologies. Accepted filters: size, lang.
func (c *Client) Ontologies(ctx context.Context, filters Filters) (*Collection[*Ontology], error) {
	return listing[*Ontology](ctx, c, c.listingURL(KindOntologies), KindOntologies, filters)
}

// Terms lists terms across all ontologies. Accepted filters: size, lang and
// one of iri, obo_id or short_form.
func (c *Client) Terms(ctx context.Context, filters Filters) (*Collection[*Term], error) {
	return listing[*Term](ctx, c, c.listingURL(KindTerms), KindTerms, filters)
}

// Properties lists properties across all ontologies.
func (c *Client) Properties(ctx context.Context, filters Filters) (*Collection[*Property], error) {
	return listing[*Property](ctx, c, c.listingURL(KindProperties), KindProperties, filters)
}

// Individuals lists individuals across all ontologies.
func (c *Client) Individuals(ctx context.Context, filters Filters) (*Collection[*Individual], error) {
	return listing[*Individual](ctx, c, c.listingURL(KindIndividuals), KindIndividuals, filters)
}

// Terms lists the terms of the ontology.
func (o *Ontology) Terms(ctx context.Context, filters Filters) (*Collection[*Term], error) {
	return ontologyListing[*Term](ctx, o, KindTerms, filters)
}

// Properties lists the properties of the ontology.
func (o *Ontology) Properties(ctx context.Context, filters Filters) (*Collection[*Property], error) {
	return ontologyListing[*Property](ctx, o, KindProperties, filters)
}

// Individuals lists the individuals of the ontology.
func (o *Ontology) Individuals(ctx context.Context, filters Filters) (*Collection[*Individual], error) {
	return ontologyListing[*Individual](ctx, o, KindIndividuals, filters)
}

func ontologyListing[T any](ctx context.Context, o *Ontology, kind Kind, filters Filters) (*Collection[T], error) {
	if o.client == nil {
		return nil, olserrors.New(olserrors.ErrCodeBadParameter, "ontology %q is not bound to a client", o.OntologyID)
	}
	base := o.client.url(KindOntologies.String(), url.PathEscape(o.OntologyID), kind.String())
	if l, ok := o.Links[kind.String()]; ok && l.Href != "" {
		if u, err := l.Expand(o.client.site, nil); err == nil {
			base = u
		}
	}
	return listing[T](ctx, o.client, base, kind, filters)
}
