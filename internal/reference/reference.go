// Package reference parses Docker/OCI image references of the form
// "registry/repository:tag" or "registry/repository@algo:hex" into their
// structured parts.
package reference

import (
	"strings"

	"github.com/opencontainers/go-digest"

	"github.com/dirdmaster/ocireg/internal/regerr"
)

// DefaultRegistry is the canonical public registry used when a reference
// carries no explicit host, mirroring Docker CLI's "familiarization" of
// short image names.
const DefaultRegistry = "registry-1.docker.io"

const defaultTag = "latest"

// Reference is a parsed image reference: a registry host, a repository
// path, and a version that is either a tag or a "@algo:hex" digest.
type Reference struct {
	Registry   string
	Repository string
	Version    string
}

// IsDigest reports whether Version is a content digest rather than a tag.
func (r Reference) IsDigest() bool {
	return strings.HasPrefix(r.Version, "@")
}

// Tag returns the tag portion of Version, or "" if Version is a digest.
func (r Reference) Tag() string {
	if r.IsDigest() {
		return ""
	}
	return r.Version
}

// Digest returns the digest portion of Version (without the leading "@"),
// or "" if Version is a tag.
func (r Reference) Digest() string {
	if !r.IsDigest() {
		return ""
	}
	return strings.TrimPrefix(r.Version, "@")
}

// String renders the reference back to its canonical form.
func (r Reference) String() string {
	sep := ":"
	if r.IsDigest() {
		sep = ""
	}
	return r.Registry + "/" + r.Repository + sep + r.Version
}

// Parse parses an image reference string into a [Reference].
//
//	"alpine"                        -> registry-1.docker.io / library/alpine : latest
//	"alpine:3.19"                   -> registry-1.docker.io / library/alpine : 3.19
//	"user/repo:tag"                 -> registry-1.docker.io / user/repo      : tag
//	"ghcr.io/user/repo:v1"          -> ghcr.io                / user/repo      : v1
//	"registry.example.com:5000/img" -> registry.example.com:5000 / img        : latest
//	"alpine@sha256:deadbeef..."     -> registry-1.docker.io / library/alpine : @sha256:deadbeef...
func Parse(raw string) (Reference, error) {
	if raw == "" {
		return Reference{}, &regerr.InvalidReference{Ref: raw, Reason: "empty reference"}
	}

	rest := raw
	var digestSuffix string
	if i := strings.LastIndex(rest, "@"); i >= 0 {
		digestSuffix = rest[i+1:]
		rest = rest[:i]
		if err := validateDigestString(digestSuffix); err != nil {
			return Reference{}, &regerr.InvalidReference{Ref: raw, Reason: err.Error()}
		}
	}

	registryHost := DefaultRegistry
	repoPart := rest

	if i := strings.IndexRune(rest, '/'); i >= 0 && looksLikeHost(rest[:i]) {
		registryHost = rest[:i]
		repoPart = rest[i+1:]
	}
	if registryHost == "docker.io" || registryHost == "index.docker.io" {
		registryHost = DefaultRegistry
	}

	tag := defaultTag
	if i := strings.LastIndex(repoPart, ":"); i >= 0 {
		tag = repoPart[i+1:]
		repoPart = repoPart[:i]
	}

	if repoPart == "" {
		return Reference{}, &regerr.InvalidReference{Ref: raw, Reason: "empty repository"}
	}
	if registryHost == DefaultRegistry && !strings.Contains(repoPart, "/") {
		repoPart = "library/" + repoPart
	}
	if err := validateHost(registryHost); err != nil {
		return Reference{}, &regerr.InvalidReference{Ref: raw, Reason: err.Error()}
	}

	version := tag
	if digestSuffix != "" {
		version = "@" + digestSuffix
	}

	return Reference{
		Registry:   registryHost,
		Repository: repoPart,
		Version:    version,
	}, nil
}

// looksLikeHost reports whether the first path segment of a reference looks
// like a registry hostname rather than a repository namespace: it must
// contain a dot, a colon (port), or be exactly "localhost".
func looksLikeHost(segment string) bool {
	return strings.ContainsAny(segment, ".:") || segment == "localhost"
}

func validateHost(host string) error {
	if host == "" {
		return errEmptyHost
	}
	hostPart := host
	if i := strings.LastIndex(host, ":"); i >= 0 {
		hostPart = host[:i]
		port := host[i+1:]
		if port == "" {
			return errEmptyPort
		}
		for _, c := range port {
			if c < '0' || c > '9' {
				return errInvalidPort
			}
		}
	}
	if hostPart == "" {
		return errEmptyHost
	}
	return nil
}

func validateDigestString(s string) error {
	if _, err := digest.Parse(s); err != nil {
		return errBadDigest
	}
	return nil
}

type parseError string

func (e parseError) Error() string { return string(e) }

const (
	errEmptyHost   = parseError("empty registry host")
	errEmptyPort   = parseError("empty port")
	errInvalidPort = parseError("non-numeric port")
	errBadDigest   = parseError("malformed digest")
)
