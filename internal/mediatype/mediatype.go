// Package mediatype is the closed registry of OCI/Docker manifest and blob
// content types the client understands, with bidirectional MIME parsing.
package mediatype

import (
	"strings"

	"github.com/dirdmaster/ocireg/internal/regerr"
)

// MediaType is one variant of the closed content-type enumeration.
type MediaType int

const (
	// OCIIndexV1 is an OCI image index (multi-platform manifest list).
	OCIIndexV1 MediaType = iota
	// OCIManifestV1 is an OCI image manifest.
	OCIManifestV1
	// OCIConfigV1 is an OCI image config document.
	OCIConfigV1
	// ManifestV2S1 is a legacy Docker distribution manifest, schema 1.
	ManifestV2S1
	// ManifestV2S1Signed is schema 1 with an embedded JWS signature.
	ManifestV2S1Signed
	// ManifestV2S2 is a Docker distribution manifest, schema 2.
	ManifestV2S2
	// ManifestList is a Docker "fat manifest" / manifest list.
	ManifestList
	// ImageLayerTgz is a gzip-compressed tar image layer.
	ImageLayerTgz
	// ContainerConfigV1 is a Docker container image config document.
	ContainerConfigV1
	// ApplicationJSON is generic JSON with no more specific media type.
	ApplicationJSON
)

const (
	mimeOCIIndexV1         = "application/vnd.oci.image.index.v1+json"
	mimeOCIManifestV1      = "application/vnd.oci.image.manifest.v1+json"
	mimeOCIConfigV1        = "application/vnd.oci.image.config.v1+json"
	mimeManifestV2S1       = "application/vnd.docker.distribution.manifest.v1+json"
	mimeManifestV2S1Signed = "application/vnd.docker.distribution.manifest.v1+prettyjws"
	mimeManifestV2S2       = "application/vnd.docker.distribution.manifest.v2+json"
	mimeManifestList       = "application/vnd.docker.distribution.manifest.list.v2+json"
	mimeImageLayerTgz      = "application/vnd.docker.image.rootfs.diff.tar.gzip"
	mimeContainerConfigV1  = "application/vnd.docker.container.image.v1+json"
	mimeApplicationJSON    = "application/json"
)

// ToMime renders the canonical MIME string for a MediaType. It is a total
// function: every declared constant has a rendering.
func (m MediaType) ToMime() string {
	switch m {
	case OCIIndexV1:
		return mimeOCIIndexV1
	case OCIManifestV1:
		return mimeOCIManifestV1
	case OCIConfigV1:
		return mimeOCIConfigV1
	case ManifestV2S1:
		return mimeManifestV2S1
	case ManifestV2S1Signed:
		return mimeManifestV2S1Signed
	case ManifestV2S2:
		return mimeManifestV2S2
	case ManifestList:
		return mimeManifestList
	case ImageLayerTgz:
		return mimeImageLayerTgz
	case ContainerConfigV1:
		return mimeContainerConfigV1
	case ApplicationJSON:
		return mimeApplicationJSON
	default:
		return mimeApplicationJSON
	}
}

func (m MediaType) String() string {
	return m.ToMime()
}

// Parse maps a Content-Type string onto the closed MediaType enumeration.
// "application/json" maps directly to ApplicationJSON; all other
// "application/<sub>[+<suffix>]" strings are matched against the known
// (sub, suffix) pairs. The rootfs.diff.tar.gzip layer type matches
// regardless of suffix, since some registries omit or vary it.
func Parse(mime string) (MediaType, error) {
	mime = strings.TrimSpace(mime)
	// Strip any trailing parameters (e.g. "; charset=utf-8").
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}

	if mime == mimeApplicationJSON {
		return ApplicationJSON, nil
	}

	const prefix = "application/"
	if !strings.HasPrefix(mime, prefix) {
		return 0, &regerr.UnknownMimeType{MimeType: mime}
	}
	rest := strings.TrimPrefix(mime, prefix)

	if strings.HasPrefix(rest, "vnd.docker.image.rootfs.diff.tar.gzip") {
		return ImageLayerTgz, nil
	}

	sub, suffix, hasSuffix := strings.Cut(rest, "+")

	switch {
	case sub == "vnd.oci.image.index.v1" && hasSuffix && suffix == "json":
		return OCIIndexV1, nil
	case sub == "vnd.oci.image.manifest.v1" && hasSuffix && suffix == "json":
		return OCIManifestV1, nil
	case sub == "vnd.oci.image.config.v1" && hasSuffix && suffix == "json":
		return OCIConfigV1, nil
	case sub == "vnd.docker.distribution.manifest.v1" && hasSuffix && suffix == "json":
		return ManifestV2S1, nil
	case sub == "vnd.docker.distribution.manifest.v1" && hasSuffix && suffix == "prettyjws":
		return ManifestV2S1Signed, nil
	case sub == "vnd.docker.distribution.manifest.v2" && hasSuffix && suffix == "json":
		return ManifestV2S2, nil
	case sub == "vnd.docker.distribution.manifest.list.v2" && hasSuffix && suffix == "json":
		return ManifestList, nil
	case sub == "vnd.docker.container.image.v1" && hasSuffix && suffix == "json":
		return ContainerConfigV1, nil
	default:
		return 0, &regerr.UnknownMimeType{MimeType: mime}
	}
}
