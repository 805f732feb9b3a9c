package reference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		raw      string
		wantRepo string
		wantReg  string
		wantVer  string
	}{
		{"bare image defaults to latest and library/", "alpine", DefaultRegistry, "library/alpine", "latest"},
		{"tagged bare image", "alpine:3.19", DefaultRegistry, "library/alpine", "3.19"},
		{"user repo", "user/repo:tag", DefaultRegistry, "user/repo", "tag"},
		{"explicit host", "ghcr.io/user/repo:v1", "ghcr.io", "user/repo", "v1"},
		{"host with port, no tag", "registry.example.com:5000/img", "registry.example.com:5000", "img", "latest"},
		{"docker.io normalizes to canonical host", "docker.io/library/busybox", DefaultRegistry, "library/busybox", "latest"},
		{"index.docker.io normalizes too", "index.docker.io/library/busybox:1.0", DefaultRegistry, "library/busybox", "1.0"},
		{"localhost treated as host", "localhost/myimg:dev", "localhost", "myimg", "dev"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := Parse(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.wantReg, ref.Registry)
			assert.Equal(t, tt.wantRepo, ref.Repository)
			assert.Equal(t, tt.wantVer, ref.Version)
			assert.False(t, ref.IsDigest())
			assert.Equal(t, tt.wantVer, ref.Tag())
		})
	}
}

func TestParseDigest(t *testing.T) {
	t.Parallel()

	const dgst = "sha256:e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	ref, err := Parse("alpine@" + dgst)
	require.NoError(t, err)

	assert.True(t, ref.IsDigest())
	assert.Equal(t, dgst, ref.Digest())
	assert.Empty(t, ref.Tag())
	assert.Equal(t, "@"+dgst, ref.Version)
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tests := []string{
		"",
		"alpine@not-a-digest",
		"host:notaport/repo",
		"host:/repo",
	}

	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			_, err := Parse(raw)
			assert.Error(t, err)
		})
	}
}

func TestString(t *testing.T) {
	t.Parallel()

	tagged, err := Parse("ghcr.io/user/repo:v1")
	require.NoError(t, err)
	assert.Equal(t, "ghcr.io/user/repo:v1", tagged.String())

	const dgst = "sha256:e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	digested, err := Parse("ghcr.io/user/repo@" + dgst)
	require.NoError(t, err)
	assert.Equal(t, "ghcr.io/user/repo@"+dgst, digested.String())
}
