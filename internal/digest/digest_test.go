package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sha256Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(sum[:])
}

func TestVerifySuccess(t *testing.T) {
	t.Parallel()

	data := []byte("hello, registry")
	cd, err := New(sha256Digest(data))
	require.NoError(t, err)

	cd.Update(data[:5])
	cd.Update(data[5:])

	assert.NoError(t, cd.Verify())
}

func TestVerifyMismatch(t *testing.T) {
	t.Parallel()

	cd, err := New(sha256Digest([]byte("expected")))
	require.NoError(t, err)

	cd.Update([]byte("actual"))

	err = cd.Verify()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "digest mismatch")
}

func TestNewRejectsMalformed(t *testing.T) {
	t.Parallel()

	tests := []string{
		"",
		"not-a-digest",
		"sha256:tooshort",
		"md5:d41d8cd98f00b204e9800998ecf8427e",
	}

	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			_, err := New(raw)
			assert.Error(t, err)
		})
	}
}

func TestUpdateAfterVerifyPanics(t *testing.T) {
	t.Parallel()

	cd, err := New(sha256Digest([]byte("x")))
	require.NoError(t, err)
	cd.Update([]byte("x"))
	_ = cd.Verify()

	assert.Panics(t, func() {
		cd.Update([]byte("more"))
	})
}

func TestDeclared(t *testing.T) {
	t.Parallel()

	dgst := sha256Digest([]byte("hi"))
	cd, err := New(dgst)
	require.NoError(t, err)
	assert.Equal(t, dgst, cd.Declared())
}
