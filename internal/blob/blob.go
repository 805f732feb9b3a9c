// Package blob implements content-addressed blob retrieval: existence
// checks, buffered fetch-and-verify, and a streaming verified reader.
package blob

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/dirdmaster/ocireg/internal/digest"
	"github.com/dirdmaster/ocireg/internal/regclient"
	"github.com/dirdmaster/ocireg/internal/regerr"
)

// Fetcher fetches blobs from a configured registry client.
type Fetcher struct {
	Client *regclient.Client
}

// NewFetcher builds a Fetcher over a Client.
func NewFetcher(client *regclient.Client) *Fetcher {
	return &Fetcher{Client: client}
}

func blobQuery(ns string) url.Values {
	if ns == "" {
		return nil
	}
	return url.Values{"ns": []string{ns}}
}

// HasBlob reports whether a blob exists, via HEAD: true on 200, false on
// any other status. It never fails on 404 — a 404 simply yields false.
func (f *Fetcher) HasBlob(ctx context.Context, name, dgst, ns string) (bool, error) {
	resp, err := f.Client.Do(ctx, http.MethodHead, regclient.RepositoryPath(name, "blobs", dgst), blobQuery(ns), nil)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK, nil
}

// GetBlob fetches a blob fully into memory and verifies it against dgst.
func (f *Fetcher) GetBlob(ctx context.Context, name, dgst, ns string) ([]byte, error) {
	resp, err := f.Client.Do(ctx, http.MethodGet, regclient.RepositoryPath(name, "blobs", dgst), blobQuery(ns), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, regclient.StatusError(resp.StatusCode)
	}

	verifier, err := digest.New(dgst)
	if err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &regerr.IO{Err: err}
	}
	verifier.Update(body)
	if err := verifier.Verify(); err != nil {
		return nil, err
	}
	return body, nil
}

// GetBlobStream fetches a blob as a verified, pull-based stream. The
// returned reader yields chunks as the consumer calls Read; the final Read
// that would otherwise return io.EOF instead returns a terminal
// *regerr.DigestMismatch if the running hash didn't match. A consumer that
// never drains the stream to EOF never observes a verification error —
// this mirrors the reference implementation, which only checks the digest
// at end-of-stream.
func (f *Fetcher) GetBlobStream(ctx context.Context, name, dgst, ns string) (io.ReadCloser, error) {
	resp, err := f.Client.Do(ctx, http.MethodGet, regclient.RepositoryPath(name, "blobs", dgst), blobQuery(ns), nil)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, regclient.StatusError(resp.StatusCode)
	}

	verifier, err := digest.New(dgst)
	if err != nil {
		resp.Body.Close()
		return nil, err
	}

	return &verifyingReader{src: resp.Body, verifier: verifier}, nil
}

// verifyingReader wraps an underlying body reader, feeding every chunk
// through a digest verifier and substituting a DigestMismatch for a clean
// io.EOF once the stream is fully drained.
type verifyingReader struct {
	src      io.ReadCloser
	verifier *digest.ContentDigest
	done     bool
}

func (r *verifyingReader) Read(p []byte) (int, error) {
	n, err := r.src.Read(p)
	if n > 0 {
		r.verifier.Update(p[:n])
	}
	if err == io.EOF && !r.done {
		r.done = true
		if verr := r.verifier.Verify(); verr != nil {
			return n, verr
		}
		return n, io.EOF
	}
	return n, err
}

func (r *verifyingReader) Close() error {
	return r.src.Close()
}
