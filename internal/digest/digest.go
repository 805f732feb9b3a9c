// Package digest verifies content-addressed blobs against a declared
// "algo:hex" digest, streaming bytes through the matching hash.
package digest

import (
	"encoding/hex"
	"hash"
	"strings"

	godigest "github.com/opencontainers/go-digest"

	"github.com/dirdmaster/ocireg/internal/regerr"
)

// ContentDigest is a single-use verifier: it is created from a declared
// digest string, fed bytes via Update (one or more times), and consumed by
// Verify. Calling Update after Verify is a programming error.
type ContentDigest struct {
	declared godigest.Digest
	hasher   hash.Hash
	verified bool
}

// New parses a declared digest of the form "algo:hex" and prepares a running
// hash for the matching algorithm. Only sha256 and sha512 are supported.
func New(declared string) (*ContentDigest, error) {
	d := godigest.Digest(declared)
	if err := d.Validate(); err != nil {
		return nil, &regerr.InvalidReference{Ref: declared, Reason: err.Error()}
	}
	if d.Algorithm() != godigest.SHA256 && d.Algorithm() != godigest.SHA512 {
		return nil, &regerr.InvalidReference{Ref: declared, Reason: "unsupported digest algorithm " + string(d.Algorithm())}
	}
	return &ContentDigest{
		declared: d,
		hasher:   d.Algorithm().Hash(),
	}, nil
}

// Update feeds bytes into the running hash. It panics if called after
// Verify, since a ContentDigest is single-use by contract.
func (c *ContentDigest) Update(chunk []byte) {
	if c.verified {
		panic("digest: Update called after Verify")
	}
	// hash.Hash.Write never returns an error.
	_, _ = c.hasher.Write(chunk)
}

// Verify finalizes the running hash and compares it against the declared
// digest, case-insensitively. It returns *regerr.DigestMismatch on mismatch.
// After Verify returns (success or failure), the ContentDigest must not be
// updated again.
func (c *ContentDigest) Verify() error {
	c.verified = true
	computed := hex.EncodeToString(c.hasher.Sum(nil))
	declaredHex := c.declared.Encoded()
	if !strings.EqualFold(computed, declaredHex) {
		return &regerr.DigestMismatch{
			Declared: c.declared.String(),
			Computed: string(c.declared.Algorithm()) + ":" + computed,
		}
	}
	return nil
}

// Declared returns the digest string this verifier was constructed from.
func (c *ContentDigest) Declared() string {
	return c.declared.String()
}
