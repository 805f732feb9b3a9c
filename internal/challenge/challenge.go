// Package challenge tokenizes WWW-Authenticate header values from a
// registry's 401 response into a structured scheme and parameter map.
package challenge

import (
	"log/slog"
	"strings"

	"github.com/dirdmaster/ocireg/internal/regerr"
)

// Scheme identifies which authentication scheme a challenge requests.
type Scheme string

const (
	// SchemeBearer requests OAuth2-style bearer token authentication.
	SchemeBearer Scheme = "bearer"
	// SchemeBasic requests HTTP Basic authentication.
	SchemeBasic Scheme = "basic"
)

// Challenge is a parsed WWW-Authenticate header value.
type Challenge struct {
	Scheme Scheme
	// Params holds all key/value pairs from the header, with keys
	// lowercased. Unrecognized keys are kept but otherwise ignored by
	// callers.
	Params map[string]string
}

// Realm returns the "realm" parameter, required for both schemes.
func (c Challenge) Realm() string { return c.Params["realm"] }

// Service returns the "service" parameter (Bearer only), or "" if absent.
func (c Challenge) Service() string { return c.Params["service"] }

// ScopeParam returns the "scope" parameter (Bearer only), or "" if absent.
func (c Challenge) ScopeParam() string { return c.Params["scope"] }

// Parse tokenizes a single WWW-Authenticate header value into a Challenge.
// The scheme word is case-insensitive ("Bearer", "bearer", "BEARER"); so are
// parameter keys. Values are quoted strings separated by commas with
// arbitrary surrounding whitespace.
func Parse(header string) (Challenge, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return Challenge{}, &regerr.InvalidChallenge{Header: header, Reason: "empty header"}
	}

	schemeWord, rest, ok := strings.Cut(header, " ")
	if !ok {
		return Challenge{}, &regerr.InvalidChallenge{Header: header, Reason: "missing scheme"}
	}

	var scheme Scheme
	switch strings.ToLower(schemeWord) {
	case string(SchemeBearer):
		scheme = SchemeBearer
	case string(SchemeBasic):
		scheme = SchemeBasic
	default:
		return Challenge{}, &regerr.InvalidChallenge{Header: header, Reason: "unrecognized scheme " + schemeWord}
	}

	params, err := parseParams(rest)
	if err != nil {
		return Challenge{}, &regerr.InvalidChallenge{Header: header, Reason: err.Error()}
	}
	if params["realm"] == "" {
		return Challenge{}, &regerr.InvalidChallenge{Header: header, Reason: "missing realm parameter"}
	}

	return Challenge{Scheme: scheme, Params: params}, nil
}

func parseParams(s string) (map[string]string, error) {
	params := make(map[string]string)
	for _, part := range splitOutsideQuotes(s, ',') {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, val, ok := strings.Cut(part, "=")
		if !ok {
			return nil, errMalformedParam
		}
		key = strings.ToLower(strings.TrimSpace(key))
		val = strings.TrimSpace(val)
		if len(val) < 2 || val[0] != '"' || val[len(val)-1] != '"' {
			return nil, errMalformedParam
		}
		val = val[1 : len(val)-1]
		if key == "" {
			return nil, errMalformedParam
		}
		switch key {
		case "realm", "service", "scope":
		default:
			slog.Debug("challenge: ignoring unrecognized parameter", "key", key)
		}
		params[key] = val
	}
	return params, nil
}

// splitOutsideQuotes splits s on sep, ignoring any sep found inside a
// double-quoted span.
func splitOutsideQuotes(s string, sep byte) []string {
	var parts []string
	var current strings.Builder
	inQuotes := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			inQuotes = !inQuotes
			current.WriteByte(c)
		case c == sep && !inQuotes:
			parts = append(parts, current.String())
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}

type parseError string

func (e parseError) Error() string { return string(e) }

const errMalformedParam = parseError("malformed key=\"value\" parameter")
