// Package hal decodes HAL (Hypertext Application Language) JSON documents and
// fetches them over HTTP.
//
// # Overview
//
// A [Document] is the decoded form of one API response: its plain fields,
// its embedded resources (the "_embedded" object) and its named navigation
// links (the "_links" object), together with the URL it was fetched from.
// Plain JSON responses without HAL sections decode to a Document with empty
// link and embedded maps, so the same type serves the OLS search endpoint.
//
// # Transport
//
// [Client] performs GET requests and maps HTTP failures onto the OLS error
// taxonomy in [errors]:
//
//   - 404: NOT_FOUND
//   - other 4xx: BAD_PARAMETER
//   - 5xx: SERVER_ERROR (transient)
//   - network errors, 429 and malformed bodies: wrapped in
//     [httputil.RetryableError]
//
// Retrying is left to the caller (see [httputil.Retrier]).
//
// [errors]: github.com/matzehuels/olsclient/pkg/errors
// [httputil.RetryableError]: github.com/matzehuels/olsclient/pkg/httputil.RetryableError
// [httputil.Retrier]: github.com/matzehuels/olsclient/pkg/httputil.Retrier
package hal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Link is a HAL link object.
type Link struct {
	Href      string `json:"href"`
	Templated bool   `json:"templated,omitempty"`
	Title     string `json:"title,omitempty"`
}

// Expand resolves the link against base and merges params into its query.
// URI template expressions such as "{?page,size,sort}" are dropped; the
// caller supplies the concrete values through params, which override any
// query parameters already present on the link.
func (l Link) Expand(base string, params url.Values) (string, error) {
	href := l.Href
	if i := strings.IndexByte(href, '{'); i >= 0 {
		href = href[:i]
	}

	u, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("parse link %q: %w", l.Href, err)
	}
	if base != "" && !u.IsAbs() {
		b, err := url.Parse(base)
		if err != nil {
			return "", fmt.Errorf("parse base %q: %w", base, err)
		}
		u = b.ResolveReference(u)
	}

	if len(params) > 0 {
		q := u.Query()
		for k, vs := range params {
			q.Del(k)
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// Document is one decoded API response.
//
// Fields holds the top-level members other than "_links" and "_embedded".
// Embedded holds the members of "_embedded". A Document is never modified
// after [Parse] returns it.
type Document struct {
	URL      string
	Links    map[string]Link
	Embedded map[string]json.RawMessage
	Fields   map[string]json.RawMessage
	Raw      json.RawMessage
}

// Parse decodes data fetched from docURL. The payload must be a JSON object.
func Parse(docURL string, data []byte) (*Document, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, fmt.Errorf("hal: response from %s is not a JSON object", docURL)
	}

	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, fmt.Errorf("hal: decode %s: %w", docURL, err)
	}

	doc := &Document{
		URL:      docURL,
		Links:    map[string]Link{},
		Embedded: map[string]json.RawMessage{},
		Fields:   map[string]json.RawMessage{},
		Raw:      json.RawMessage(data),
	}

	for name, raw := range members {
		switch name {
		case "_links":
			links, err := parseLinks(raw)
			if err != nil {
				return nil, fmt.Errorf("hal: decode links of %s: %w", docURL, err)
			}
			doc.Links = links
		case "_embedded":
			if err := json.Unmarshal(raw, &doc.Embedded); err != nil {
				return nil, fmt.Errorf("hal: decode embedded of %s: %w", docURL, err)
			}
		default:
			doc.Fields[name] = raw
		}
	}
	return doc, nil
}

// parseLinks accepts both single link objects and arrays of link objects;
// for arrays the first entry wins.
func parseLinks(raw json.RawMessage) (map[string]Link, error) {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(raw, &members); err != nil {
		return nil, err
	}

	links := make(map[string]Link, len(members))
	for rel, v := range members {
		v = bytes.TrimSpace(v)
		if len(v) > 0 && v[0] == '[' {
			var list []Link
			if err := json.Unmarshal(v, &list); err != nil {
				return nil, fmt.Errorf("link %q: %w", rel, err)
			}
			if len(list) > 0 {
				links[rel] = list[0]
			}
			continue
		}
		var l Link
		if err := json.Unmarshal(v, &l); err != nil {
			return nil, fmt.Errorf("link %q: %w", rel, err)
		}
		links[rel] = l
	}
	return links, nil
}

// Field returns the raw member called name, looking in the embedded
// resources first and then in the plain fields.
func (d *Document) Field(name string) (json.RawMessage, bool) {
	if v, ok := d.Embedded[name]; ok {
		return v, true
	}
	v, ok := d.Fields[name]
	return v, ok
}

// Has reports whether the document carries a member called name.
func (d *Document) Has(name string) bool {
	_, ok := d.Field(name)
	return ok
}

// Decode unmarshals the member called name into v.
func (d *Document) Decode(name string, v any) error {
	raw, ok := d.Field(name)
	if !ok {
		return fmt.Errorf("hal: %s has no member %q", d.URL, name)
	}
	return json.Unmarshal(raw, v)
}

// Link returns the link with the given relation name.
func (d *Document) Link(rel string) (Link, bool) {
	l, ok := d.Links[rel]
	return l, ok && l.Href != ""
}

// HasLink reports whether the document links to rel.
func (d *Document) HasLink(rel string) bool {
	_, ok := d.Link(rel)
	return ok
}

// Follow returns the URL of relation rel with params merged into its query.
func (d *Document) Follow(rel string, params url.Values) (string, error) {
	l, ok := d.Link(rel)
	if !ok {
		return "", fmt.Errorf("hal: %s has no link %q", d.URL, rel)
	}
	return l.Expand(d.URL, params)
}
