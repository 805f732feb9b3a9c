// Package regclient is the registry client core: connection configuration,
// auth-state ownership, and the low-level request builder shared by the
// manifest and blob subsystems.
package regclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/dirdmaster/ocireg/internal/auth"
	"github.com/dirdmaster/ocireg/internal/mediatype"
	"github.com/dirdmaster/ocireg/internal/regerr"
)

// httpDoer is the minimal transport contract the client depends on.
// *http.Client satisfies it; New always builds one over Options.Transport.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// AcceptEntry is one weighted media type contributed to an Accept header.
type AcceptEntry struct {
	Type   mediatype.MediaType
	Weight *float64
}

func weight(w float64) *float64 { return &w }

// DefaultAcceptedTypes is the manifest media types requested when a caller
// does not override them.
func DefaultAcceptedTypes() []AcceptEntry {
	return []AcceptEntry{
		{Type: mediatype.ManifestV2S2, Weight: weight(0.5)},
		{Type: mediatype.ManifestV2S1Signed, Weight: weight(0.4)},
		{Type: mediatype.ManifestList, Weight: weight(0.5)},
	}
}

// Options configures a new Client.
type Options struct {
	Registry      string // host[:port], no scheme
	Insecure      bool   // use http instead of https
	Username      string
	Password      string
	AcceptedTypes []AcceptEntry    // defaults to DefaultAcceptedTypes()
	Transport     http.RoundTripper // defaults to http.DefaultTransport
}

// Client is a configured handle to a single registry. It is safe for
// concurrent read use. Authenticate replaces the auth slot under an
// internal mutex; requests already built keep the state they were built
// with.
type Client struct {
	baseURL       string
	registry      string
	username      string
	password      string
	acceptedTypes []AcceptEntry
	doer          httpDoer

	mu   sync.RWMutex
	auth *auth.State
}

// New builds a Client from Options.
func New(opts Options) *Client {
	scheme := "https"
	if opts.Insecure {
		scheme = "http"
	}

	accepted := opts.AcceptedTypes
	if accepted == nil {
		accepted = DefaultAcceptedTypes()
	}

	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	return &Client{
		baseURL:       scheme + "://" + opts.Registry,
		registry:      opts.Registry,
		username:      opts.Username,
		password:      opts.Password,
		acceptedTypes: accepted,
		doer:          &http.Client{Transport: transport},
	}
}

// Clone returns a shallow copy of the client that shares configuration but
// owns its own auth slot, so authenticating the clone does not affect c.
func (c *Client) Clone() *Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return &Client{
		baseURL:       c.baseURL,
		registry:      c.registry,
		username:      c.username,
		password:      c.password,
		acceptedTypes: c.acceptedTypes,
		doer:          c.doer,
		auth:          c.auth,
	}
}

// BaseURL returns the scheme-qualified registry root, e.g. "https://registry-1.docker.io".
func (c *Client) BaseURL() string { return c.baseURL }

// Authenticate runs the auth negotiation state machine for the given scopes
// and installs the resulting state. A previous auth state is discarded
// even on failure, matching the "reset before probing" contract.
func (c *Client) Authenticate(ctx context.Context, scopes []string) error {
	state, err := auth.Negotiate(ctx, c.doer, c.baseURL, c.username, c.password, scopes)
	c.mu.Lock()
	c.auth = state
	c.mu.Unlock()
	return err
}

// IsAuth reports whether the client's current auth state (possibly
// anonymous) is accepted by the registry.
func (c *Client) IsAuth(ctx context.Context) (bool, error) {
	c.mu.RLock()
	state := c.auth
	c.mu.RUnlock()
	return auth.IsAuth(ctx, c.doer, c.baseURL, state)
}

// AcceptedTypesOrDefault returns the client's configured accepted types.
func (c *Client) AcceptedTypesOrDefault() []AcceptEntry {
	return c.acceptedTypes
}

// OmitAcceptWeights reports whether q-weights should be dropped from the
// Accept header for this client's registry (the gcr.io quirk).
func (c *Client) OmitAcceptWeights() bool {
	return c.isGCR()
}

// isGCR reports the Accept-header q-weight quirk: gcr.io and its
// subdomains reject quality parameters on Accept.
func (c *Client) isGCR() bool {
	host := c.registry
	if i := strings.LastIndex(host, ":"); i >= 0 {
		host = host[:i]
	}
	return host == "gcr.io" || strings.HasSuffix(host, ".gcr.io")
}

// AcceptHeader renders entries as a single Accept header value, joined by
// ",". Weights are omitted entirely against gcr.io-family hosts.
func AcceptHeader(entries []AcceptEntry, omitWeights bool) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		mime := e.Type.ToMime()
		if !omitWeights && e.Weight != nil {
			mime = fmt.Sprintf("%s; q=%s", mime, strconv.FormatFloat(*e.Weight, 'g', -1, 64))
		}
		parts = append(parts, mime)
	}
	return strings.Join(parts, ",")
}

// buildURL joins baseURL with an already-formatted path and optional query.
func (c *Client) buildURL(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// newRequest builds a request against the registry, attaching the current
// auth state and any extra headers.
func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, headers http.Header) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(path, query), nil)
	if err != nil {
		return nil, &regerr.IO{Err: err}
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	c.mu.RLock()
	state := c.auth
	c.mu.RUnlock()
	state.Apply(req)

	return req, nil
}

// Do builds and sends a request against the registry under the client's
// current auth state.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, headers http.Header) (*http.Response, error) {
	req, err := c.newRequest(ctx, method, path, query, headers)
	if err != nil {
		return nil, err
	}
	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, &regerr.IO{Err: err}
	}
	return resp, nil
}

// RepositoryPath builds the manifest or blob path for a repository-scoped
// registry operation.
func RepositoryPath(name, kind, reference string) string {
	return "/v2/" + name + "/" + kind + "/" + reference
}

// StatusError maps a non-2xx blob/manifest response status to the
// appropriate *regerr type: 4xx -> ClientStatus, 5xx -> ServerStatus,
// anything else -> UnexpectedHTTPStatus.
func StatusError(status int) error {
	switch {
	case status >= 400 && status < 500:
		return &regerr.ClientStatus{Status: status}
	case status >= 500 && status < 600:
		return &regerr.ServerStatus{Status: status}
	default:
		return &regerr.UnexpectedHTTPStatus{Status: status}
	}
}
