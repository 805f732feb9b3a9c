package challenge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBearer(t *testing.T) {
	t.Parallel()

	header := `Bearer realm="https://auth.docker.io/token",service="registry.docker.io",scope="repository:library/alpine:pull"`
	ch, err := Parse(header)
	require.NoError(t, err)

	assert.Equal(t, SchemeBearer, ch.Scheme)
	assert.Equal(t, "https://auth.docker.io/token", ch.Realm())
	assert.Equal(t, "registry.docker.io", ch.Service())
	assert.Equal(t, "repository:library/alpine:pull", ch.ScopeParam())
}

func TestParseCaseInsensitiveScheme(t *testing.T) {
	t.Parallel()

	ch, err := Parse(`BEARER realm="https://example.com/token"`)
	require.NoError(t, err)
	assert.Equal(t, SchemeBearer, ch.Scheme)
}

func TestParseBasic(t *testing.T) {
	t.Parallel()

	ch, err := Parse(`Basic realm="registry"`)
	require.NoError(t, err)
	assert.Equal(t, SchemeBasic, ch.Scheme)
	assert.Equal(t, "registry", ch.Realm())
}

func TestParseCommaInsideQuotes(t *testing.T) {
	t.Parallel()

	header := `Bearer realm="https://example.com/token",scope="repository:a:pull,push"`
	ch, err := Parse(header)
	require.NoError(t, err)
	assert.Equal(t, "repository:a:pull,push", ch.ScopeParam())
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tests := []string{
		"",
		"Bearer",
		"Digest realm=\"x\"",
		`Bearer service="x"`,      // missing realm
		`Bearer realm=unquoted`,   // not quoted
		`Bearer realm`,            // no '='
	}

	for _, header := range tests {
		t.Run(header, func(t *testing.T) {
			_, err := Parse(header)
			assert.Error(t, err)
		})
	}
}
