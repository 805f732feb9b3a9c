// Package manifest implements the polymorphic manifest model: fetching,
// media-type dispatch, config-blob hydration, and a unified query surface
// over the three wire variants a registry can return.
package manifest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	ispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/dirdmaster/ocireg/internal/mediatype"
	"github.com/dirdmaster/ocireg/internal/regclient"
	"github.com/dirdmaster/ocireg/internal/regerr"
)

// Kind identifies which variant a Manifest holds.
type Kind string

const (
	KindS1Signed Kind = "s1signed"
	KindS2       Kind = "s2"
	KindList     Kind = "list"
)

// S1Signed is the legacy schema 1 variant. FSLayers is kept in on-wire
// order (top layer first); LayersDigests reverses it to base-first.
type S1Signed struct {
	Architecture string          `json:"architecture"`
	FSLayers     []fsLayerEntry  `json:"fsLayers"`
	History      []historyEntry  `json:"history,omitempty"`
}

type fsLayerEntry struct {
	BlobSum string `json:"blobSum"`
}

type historyEntry struct {
	V1Compatibility string `json:"v1Compatibility"`
}

// manifestSchema2Spec is the wire shape of a schema 2 manifest, before its
// config blob has been hydrated.
type manifestSchema2Spec struct {
	Config ispec.Descriptor   `json:"config"`
	Layers []ispec.Descriptor `json:"layers"`
}

// configBlob is the subset of a container image config document the
// client cares about.
type configBlob struct {
	Architecture string `json:"architecture"`
}

// S2 is the schema 2 variant, hydrated with its config blob's architecture.
type S2 struct {
	Config ispec.Descriptor
	Layers []ispec.Descriptor
	Arch   string
}

// manifestObj is one entry of a manifest list / OCI index.
type manifestObj struct {
	MediaType string          `json:"mediaType"`
	Size      int64           `json:"size"`
	Digest    string          `json:"digest"`
	Platform  ispec.Platform  `json:"platform"`
}

// List is a manifest list (Docker "fat manifest") or OCI image index.
type List struct {
	Manifests []manifestObj
}

// Manifest is a tagged-sum handle over the three wire variants. Construct
// it only via Fetcher.GetManifest; the zero value is not usable.
type Manifest struct {
	Kind     Kind
	S1       S1Signed
	S2       S2
	List     List
	Digest   string // from Docker-Content-Digest, optional
}

// blobFetcher is the narrow surface manifest needs from the blob subsystem
// to hydrate a schema 2 config blob. *blob.Fetcher satisfies it; tests can
// substitute a fake without a registry behind it.
type blobFetcher interface {
	GetBlob(ctx context.Context, name, digest string, ns string) ([]byte, error)
}

// Fetcher fetches and decodes manifests from a configured registry client.
type Fetcher struct {
	Client *regclient.Client
	Blobs  blobFetcher
}

// NewFetcher builds a Fetcher over a Client and a blob fetcher used to
// hydrate schema 2 config blobs.
func NewFetcher(client *regclient.Client, blobs blobFetcher) *Fetcher {
	return &Fetcher{Client: client, Blobs: blobs}
}

func manifestQuery(ns string) url.Values {
	if ns == "" {
		return nil
	}
	return url.Values{"ns": []string{ns}}
}

// GetManifest fetches and decodes a manifest by tag or digest.
func (f *Fetcher) GetManifest(ctx context.Context, name, reference, ns string) (*Manifest, error) {
	path := regclient.RepositoryPath(name, "manifests", reference)
	accept := regclient.AcceptHeader(f.Client.AcceptedTypesOrDefault(), f.Client.OmitAcceptWeights())
	headers := http.Header{"Accept": []string{accept}}

	resp, err := f.Client.Do(ctx, http.MethodGet, path, manifestQuery(ns), headers)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &regerr.UnexpectedHTTPStatus{Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &regerr.IO{Err: err}
	}

	mt, err := effectiveMediaType(resp)
	if err != nil {
		return nil, err
	}

	m := &Manifest{Digest: resp.Header.Get("Docker-Content-Digest")}

	switch mt {
	case mediatype.ManifestV2S1Signed:
		m.Kind = KindS1Signed
		if err := json.Unmarshal(body, &m.S1); err != nil {
			return nil, &regerr.IO{Err: err}
		}
	case mediatype.ManifestV2S2:
		var spec manifestSchema2Spec
		if err := json.Unmarshal(body, &spec); err != nil {
			return nil, &regerr.IO{Err: err}
		}
		cfgBytes, err := f.Blobs.GetBlob(ctx, name, spec.Config.Digest.String(), ns)
		if err != nil {
			return nil, err
		}
		var cfg configBlob
		if err := json.Unmarshal(cfgBytes, &cfg); err != nil {
			return nil, &regerr.IO{Err: err}
		}
		m.Kind = KindS2
		m.S2 = S2{Config: spec.Config, Layers: spec.Layers, Arch: cfg.Architecture}
	case mediatype.OCIIndexV1, mediatype.ManifestList:
		var raw struct {
			Manifests []manifestObj `json:"manifests"`
		}
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, &regerr.IO{Err: err}
		}
		m.Kind = KindList
		m.List = List{Manifests: raw.Manifests}
	default:
		return nil, &regerr.UnsupportedMediaType{MimeType: mt.ToMime()}
	}

	return m, nil
}

// effectiveMediaType determines the media type governing decode dispatch,
// applying the pulp registry workaround where applicable.
func effectiveMediaType(resp *http.Response) (mediatype.MediaType, error) {
	contentType := resp.Header.Get("Content-Type")
	isPulp := strings.HasPrefix(resp.Request.URL.Path, "/pulp/docker/v2")

	if isPulp && (contentType == "" || contentType == "application/x-troff-man") {
		return mediatype.ManifestV2S1Signed, nil
	}
	if contentType == "" {
		return 0, &regerr.MediaTypeSniff{}
	}
	return mediatype.Parse(contentType)
}

// HasManifest is the HEAD variant. mediaTypes overrides the Accept header;
// nil defaults to ManifestV2S2 only. It returns the effective media type
// and whether the manifest exists: true on 200/301/302/307, false with no
// error on 404, and an error for any other status or an unparseable
// Content-Type.
func (f *Fetcher) HasManifest(ctx context.Context, name, reference, ns string, mediaTypes []string) (mediatype.MediaType, bool, error) {
	accept := strings.Join(mediaTypes, ", ")
	if accept == "" {
		accept = mediatype.ManifestV2S2.ToMime()
	}
	headers := http.Header{"Accept": []string{accept}}

	resp, err := f.Client.Do(ctx, http.MethodHead, regclient.RepositoryPath(name, "manifests", reference), manifestQuery(ns), headers)
	if err != nil {
		return 0, false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusMovedPermanently, http.StatusFound, http.StatusTemporaryRedirect:
		mt, err := mediatype.Parse(resp.Header.Get("Content-Type"))
		if err != nil {
			return 0, false, err
		}
		return mt, true, nil
	case http.StatusNotFound:
		return 0, false, nil
	default:
		return 0, false, &regerr.UnexpectedHTTPStatus{Status: resp.StatusCode}
	}
}

// GetManifestRef is the HEAD variant that returns only the
// Docker-Content-Digest header value.
func (f *Fetcher) GetManifestRef(ctx context.Context, name, reference, ns string) (string, error) {
	resp, err := f.Client.Do(ctx, http.MethodHead, regclient.RepositoryPath(name, "manifests", reference), manifestQuery(ns), nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &regerr.UnexpectedHTTPStatus{Status: resp.StatusCode}
	}
	return resp.Header.Get("Docker-Content-Digest"), nil
}

// Architectures reports one architecture per manifest entry: a single
// element for S1/S2, one per platform for a List.
func (m *Manifest) Architectures() ([]string, error) {
	switch m.Kind {
	case KindS1Signed:
		if m.S1.Architecture == "" {
			return nil, &regerr.NoArchitecture{}
		}
		return []string{m.S1.Architecture}, nil
	case KindS2:
		if m.S2.Arch == "" {
			return nil, &regerr.NoArchitecture{}
		}
		return []string{m.S2.Arch}, nil
	case KindList:
		archs := make([]string, 0, len(m.List.Manifests))
		for _, entry := range m.List.Manifests {
			archs = append(archs, entry.Platform.Architecture)
		}
		return archs, nil
	default:
		return nil, &regerr.ArchitectureNotSupported{Kind: string(m.Kind)}
	}
}

// LayersDigests reports layer digests base-first. For S1 this reverses the
// on-wire (top-first) order. For List, arch must be empty — the manifest
// list reports sub-manifest digests, not layers.
func (m *Manifest) LayersDigests(arch string) ([]string, error) {
	switch m.Kind {
	case KindS1Signed:
		if err := checkArch(arch, m.S1.Architecture); err != nil {
			return nil, err
		}
		digests := make([]string, len(m.S1.FSLayers))
		for i, layer := range m.S1.FSLayers {
			digests[len(digests)-1-i] = layer.BlobSum
		}
		return digests, nil
	case KindS2:
		if err := checkArch(arch, m.S2.Arch); err != nil {
			return nil, err
		}
		digests := make([]string, len(m.S2.Layers))
		for i, l := range m.S2.Layers {
			digests[i] = l.Digest.String()
		}
		return digests, nil
	case KindList:
		if arch != "" {
			return nil, &regerr.LayerDigestsUnsupported{Kind: string(m.Kind)}
		}
		digests := make([]string, len(m.List.Manifests))
		for i, entry := range m.List.Manifests {
			digests[i] = entry.Digest
		}
		return digests, nil
	default:
		return nil, &regerr.ArchitectureNotSupported{Kind: string(m.Kind)}
	}
}

func checkArch(want, have string) error {
	if want == "" {
		return nil
	}
	if have == "" {
		return &regerr.NoArchitecture{}
	}
	if want != have {
		return &regerr.ArchitectureMismatch{Want: want, Got: have}
	}
	return nil
}
