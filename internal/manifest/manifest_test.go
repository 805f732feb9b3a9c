package manifest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dirdmaster/ocireg/internal/regclient"
)

type fakeBlobs struct {
	body []byte
	err  error
}

func (f *fakeBlobs) GetBlob(ctx context.Context, name, digest, ns string) ([]byte, error) {
	return f.body, f.err
}

func TestGetManifestSchema2(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.docker.distribution.manifest.v2+json")
		w.Header().Set("Docker-Content-Digest", "sha256:deadbeef")
		w.Write([]byte(`{
			"config": {"mediaType":"application/vnd.docker.container.image.v1+json","size":10,"digest":"sha256:cfgdigest"},
			"layers": [
				{"mediaType":"application/vnd.docker.image.rootfs.diff.tar.gzip","size":100,"digest":"sha256:layer1"},
				{"mediaType":"application/vnd.docker.image.rootfs.diff.tar.gzip","size":200,"digest":"sha256:layer2"}
			]
		}`))
	}))
	defer srv.Close()

	host := srv.Listener.Addr().String()
	client := regclient.New(regclient.Options{Registry: host, Insecure: true})
	blobs := &fakeBlobs{body: []byte(`{"architecture":"amd64"}`)}
	f := NewFetcher(client, blobs)

	m, err := f.GetManifest(context.Background(), "lib/img", "latest", "")
	require.NoError(t, err)
	assert.Equal(t, KindS2, m.Kind)
	assert.Equal(t, "amd64", m.S2.Arch)
	assert.Equal(t, "sha256:deadbeef", m.Digest)

	archs, err := m.Architectures()
	require.NoError(t, err)
	assert.Equal(t, []string{"amd64"}, archs)

	layers, err := m.LayersDigests("")
	require.NoError(t, err)
	assert.Equal(t, []string{"sha256:layer1", "sha256:layer2"}, layers)
}

func TestGetManifestS1SignedReversesLayers(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.docker.distribution.manifest.v1+prettyjws")
		w.Write([]byte(`{
			"architecture": "amd64",
			"fsLayers": [
				{"blobSum":"sha256:top"},
				{"blobSum":"sha256:base"}
			]
		}`))
	}))
	defer srv.Close()

	host := srv.Listener.Addr().String()
	client := regclient.New(regclient.Options{Registry: host, Insecure: true})
	f := NewFetcher(client, &fakeBlobs{})

	m, err := f.GetManifest(context.Background(), "lib/img", "latest", "")
	require.NoError(t, err)
	assert.Equal(t, KindS1Signed, m.Kind)

	layers, err := m.LayersDigests("")
	require.NoError(t, err)
	assert.Equal(t, []string{"sha256:base", "sha256:top"}, layers)
}

func TestGetManifestList(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.docker.distribution.manifest.list.v2+json")
		w.Write([]byte(`{
			"manifests": [
				{"mediaType":"application/vnd.docker.distribution.manifest.v2+json","size":1,"digest":"sha256:amd64img","platform":{"architecture":"amd64","os":"linux"}},
				{"mediaType":"application/vnd.docker.distribution.manifest.v2+json","size":1,"digest":"sha256:armimg","platform":{"architecture":"arm64","os":"linux"}}
			]
		}`))
	}))
	defer srv.Close()

	host := srv.Listener.Addr().String()
	client := regclient.New(regclient.Options{Registry: host, Insecure: true})
	f := NewFetcher(client, &fakeBlobs{})

	m, err := f.GetManifest(context.Background(), "lib/img", "latest", "")
	require.NoError(t, err)
	assert.Equal(t, KindList, m.Kind)

	archs, err := m.Architectures()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"amd64", "arm64"}, archs)

	digests, err := m.LayersDigests("")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"sha256:amd64img", "sha256:armimg"}, digests)
}

func TestLayersDigestsArchitectureMismatch(t *testing.T) {
	t.Parallel()

	m := &Manifest{Kind: KindS2, S2: S2{Arch: "amd64"}}
	_, err := m.LayersDigests("arm64")
	assert.Error(t, err)
}

func TestHasManifestNotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	host := srv.Listener.Addr().String()
	client := regclient.New(regclient.Options{Registry: host, Insecure: true})
	f := NewFetcher(client, &fakeBlobs{})

	_, ok, err := f.HasManifest(context.Background(), "lib/img", "missing", "", nil)
	require.NoError(t, err)
	assert.False(t, ok)
}
