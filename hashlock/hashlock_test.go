package hashlock

import (
	"bytes"
	"testing"

	"github.com/lockhaven/swapcore/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitAndVerify(t *testing.T) {
	secret := bytes.Repeat([]byte{0xab}, SecretSize)

	for _, alg := range []Algorithm{SHA256, Keccak256} {
		digest, err := Commit(secret, alg)
		require.NoError(t, err, "commit with %s", alg)
		assert.Len(t, digest, DigestSize)
		assert.NoError(t, Verify(secret, digest, alg))
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	secret := bytes.Repeat([]byte{0xab}, SecretSize)
	digest, err := Commit(secret, SHA256)
	require.NoError(t, err)

	// Flipping a single bit anywhere in the secret must fail
	// verification.
	wrong := make([]byte, SecretSize)
	copy(wrong, secret)
	wrong[SecretSize-1] ^= 0x01
	assert.True(t, ErrMismatch.Is(Verify(wrong, digest, SHA256)))
}

func TestCrossAlgorithmBinding(t *testing.T) {
	// Both legs of a swap commit to the same secret with independent
	// algorithms. Revealing the secret on one leg must satisfy the other
	// leg too, and the digests themselves must differ.
	secret, err := GenerateSecret()
	require.NoError(t, err)

	source, err := New(secret, SHA256)
	require.NoError(t, err)
	destination, err := New(secret, Keccak256)
	require.NoError(t, err)

	assert.NoError(t, source.Match(secret))
	assert.NoError(t, destination.Match(secret))
	assert.False(t, bytes.Equal(source.Digest, destination.Digest))
}

func TestSecretLength(t *testing.T) {
	cases := map[string]struct {
		secret []byte
	}{
		"empty secret":     {secret: nil},
		"too short secret": {secret: bytes.Repeat([]byte{1}, SecretSize-1)},
		"too long secret":  {secret: bytes.Repeat([]byte{1}, SecretSize+1)},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			_, err := Commit(tc.secret, SHA256)
			assert.True(t, ErrSecretLength.Is(err), "unexpected error: %+v", err)

			err = Verify(tc.secret, bytes.Repeat([]byte{0}, DigestSize), SHA256)
			assert.True(t, ErrSecretLength.Is(err), "unexpected error: %+v", err)
		})
	}
}

func TestUnsupportedAlgorithm(t *testing.T) {
	secret := bytes.Repeat([]byte{7}, SecretSize)
	_, err := Commit(secret, Algorithm("blake3"))
	assert.True(t, ErrAlgorithm.Is(err))
	assert.True(t, ErrAlgorithm.Is(Algorithm("").Validate()))
	assert.NoError(t, SHA256.Validate())
}

func TestHashlockValidate(t *testing.T) {
	secret := bytes.Repeat([]byte{9}, SecretSize)
	lock, err := New(secret, Keccak256)
	require.NoError(t, err)
	assert.NoError(t, lock.Validate())

	short := Hashlock{Algorithm: SHA256, Digest: []byte{1, 2, 3}}
	assert.True(t, errors.ErrInput.Is(short.Validate()))

	unknown := Hashlock{Algorithm: "md5", Digest: lock.Digest}
	assert.True(t, ErrAlgorithm.Is(unknown.Validate()))
}

func TestGenerateSecret(t *testing.T) {
	a, err := GenerateSecret()
	require.NoError(t, err)
	b, err := GenerateSecret()
	require.NoError(t, err)
	assert.Len(t, a, SecretSize)
	assert.False(t, bytes.Equal(a, b), "two generated secrets must differ")
}
