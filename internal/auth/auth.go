// Package auth implements the registry authentication negotiation state
// machine: probing the v2 API root, parsing the resulting challenge, and
// acquiring either a bearer token or committing to Basic credentials.
package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dirdmaster/ocireg/internal/challenge"
	"github.com/dirdmaster/ocireg/internal/regerr"
)

// Doer is the minimal transport contract the auth engine needs: build,
// send, and await a response. *http.Client satisfies it directly.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Kind identifies which variant a [State] holds.
type Kind int

const (
	// KindNone means the client is operating anonymously.
	KindNone Kind = iota
	// KindBasic means HTTP Basic credentials are attached to every request.
	KindBasic
	// KindBearer means an OAuth2-style bearer token is attached to every request.
	KindBearer
)

// State is the auth material currently held by a Client. It is always
// replaced as a whole value — never mutated in place — so concurrent
// readers never observe a partially constructed state.
type State struct {
	Kind Kind

	// Basic
	User     string
	Password string

	// Bearer
	Token        string
	ExpiresIn    int
	IssuedAt     string
	RefreshToken string
}

// Apply attaches the appropriate Authorization header for this state to an
// outbound request. It is a no-op for KindNone.
func (s *State) Apply(req *http.Request) {
	if s == nil {
		return
	}
	switch s.Kind {
	case KindBasic:
		req.SetBasicAuth(s.User, s.Password)
	case KindBearer:
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}
}

// tokenResponse is the JSON body returned by a bearer token endpoint.
type tokenResponse struct {
	Token        string `json:"token"`
	ExpiresIn    int    `json:"expires_in"`
	IssuedAt     string `json:"issued_at"`
	RefreshToken string `json:"refresh_token"`
}

// Negotiate runs the authentication state machine against baseURL and
// returns the resulting auth state. A nil, nil return means the registry
// granted anonymous access (no WWW-Authenticate challenge was present,
// regardless of the probe's status code — this mirrors the reference
// implementation, which never inspects the probe's status directly, only
// whether a challenge header came back).
func Negotiate(ctx context.Context, doer Doer, baseURL, user, password string, scopes []string) (*State, error) {
	probeReq, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/v2/", nil)
	if err != nil {
		return nil, &regerr.IO{Err: err}
	}

	resp, err := doer.Do(probeReq)
	if err != nil {
		return nil, &regerr.IO{Err: err}
	}
	defer resp.Body.Close()

	header := resp.Header.Get("WWW-Authenticate")
	if header == "" {
		slog.Debug("auth: no challenge on probe, treating as anonymous", "url", baseURL+"/v2/", "status", resp.StatusCode)
		return nil, nil
	}

	ch, err := challenge.Parse(header)
	if err != nil {
		return nil, err
	}

	switch ch.Scheme {
	case challenge.SchemeBasic:
		if user == "" {
			return nil, &regerr.NoCredentials{}
		}
		return &State{Kind: KindBasic, User: user, Password: password}, nil
	case challenge.SchemeBearer:
		return acquireBearer(ctx, doer, ch, user, password, scopes)
	default:
		return nil, &regerr.InvalidChallenge{Header: header, Reason: "unsupported scheme"}
	}
}

// acquireBearer builds the token endpoint URL from the challenge and
// exchanges it for a bearer token.
//
// No percent-encoding is applied to scope values: a scope containing "&",
// "=", or whitespace would yield a malformed URL. This mirrors the
// reference implementation exactly rather than silently changing wire
// behavior other registries may depend on.
func acquireBearer(ctx context.Context, doer Doer, ch challenge.Challenge, user, password string, scopes []string) (*State, error) {
	tokenURL := buildTokenURL(ch.Realm(), ch.Service(), scopes)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tokenURL, nil)
	if err != nil {
		return nil, &regerr.IO{Err: err}
	}
	if user != "" {
		req.SetBasicAuth(user, password)
	}

	resp, err := doer.Do(req)
	if err != nil {
		return nil, &regerr.IO{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &regerr.UnexpectedHTTPStatus{Status: resp.StatusCode}
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, &regerr.IO{Err: err}
	}

	if tr.Token == "" || tr.Token == "unauthenticated" {
		return nil, &regerr.InvalidAuthToken{Token: tr.Token}
	}

	return &State{
		Kind:         KindBearer,
		Token:        tr.Token,
		ExpiresIn:    tr.ExpiresIn,
		IssuedAt:     tr.IssuedAt,
		RefreshToken: tr.RefreshToken,
	}, nil
}

// buildTokenURL appends service and scope query parameters to realm in the
// order the registry token spec expects: service first, then one "scope="
// per requested scope. The first parameter uses "?", the rest use "&".
func buildTokenURL(realm, service string, scopes []string) string {
	var b strings.Builder
	b.WriteString(realm)

	wroteAny := false
	if service != "" {
		b.WriteString("?service=")
		b.WriteString(service)
		wroteAny = true
	}
	for _, scope := range scopes {
		if wroteAny {
			b.WriteString("&scope=")
		} else {
			b.WriteString("?scope=")
			wroteAny = true
		}
		b.WriteString(scope)
	}
	return b.String()
}

// IsAuth checks whether the current auth state (possibly None, for
// anonymous access) is accepted by the registry.
func IsAuth(ctx context.Context, doer Doer, baseURL string, state *State) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/v2/", nil)
	if err != nil {
		return false, &regerr.IO{Err: err}
	}
	state.Apply(req)

	resp, err := doer.Do(req)
	if err != nil {
		return false, &regerr.IO{Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusUnauthorized:
		// Deliberately indistinguishable from "no credentials configured":
		// the reference implementation reports false here even when
		// credentials were supplied and rejected.
		return false, nil
	default:
		return false, &regerr.UnexpectedHTTPStatus{Status: resp.StatusCode}
	}
}

// ExpiresInString renders ExpiresIn for logging, guarding against the zero
// value meaning "unset" rather than "expires immediately".
func (s *State) ExpiresInString() string {
	if s == nil || s.ExpiresIn == 0 {
		return "unset"
	}
	return strconv.Itoa(s.ExpiresIn) + "s"
}
