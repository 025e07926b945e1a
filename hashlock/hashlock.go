package hashlock

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"hash"

	"github.com/lockhaven/swapcore/errors"
	"golang.org/x/crypto/sha3"
)

const (
	// SecretSize is the exact length of a swap secret in bytes.
	SecretSize = 32
	// DigestSize is the exact length of a commitment digest in bytes.
	// All supported algorithms produce 32 byte digests.
	DigestSize = 32
)

var (
	// ErrSecretLength is returned when a secret is not exactly
	// SecretSize bytes long.
	ErrSecretLength = errors.Register(1000, "invalid secret length")

	// ErrAlgorithm is returned when an unknown hash algorithm is
	// requested.
	ErrAlgorithm = errors.Register(1001, "unsupported hash algorithm")

	// ErrMismatch is returned when a secret does not satisfy a hashlock.
	ErrMismatch = errors.Register(1002, "hash mismatch")
)

// Algorithm identifies a hash primitive used by one ledger to verify a
// hashlock. Two legs of the same swap may use different algorithms.
type Algorithm string

const (
	// SHA256 is used by Bitcoin style and NEAR ledgers.
	SHA256 Algorithm = "sha256"
	// Keccak256 is used by EVM and Stellar Soroban ledgers.
	Keccak256 Algorithm = "keccak256"
)

// hashers maps every supported algorithm to its hash constructor.
var hashers = map[Algorithm]func() hash.Hash{
	SHA256:    sha256.New,
	Keccak256: sha3.NewLegacyKeccak256,
}

// Validate returns an error if this algorithm is not supported.
func (a Algorithm) Validate() error {
	if _, ok := hashers[a]; !ok {
		return errors.Wrapf(ErrAlgorithm, "%q", string(a))
	}
	return nil
}

// Commit computes the commitment digest of given secret under given
// algorithm. The secret must be exactly SecretSize bytes.
func Commit(secret []byte, alg Algorithm) ([]byte, error) {
	if len(secret) != SecretSize {
		return nil, errors.Wrapf(ErrSecretLength, "%d bytes, must be %d", len(secret), SecretSize)
	}
	newHash, ok := hashers[alg]
	if !ok {
		return nil, errors.Wrapf(ErrAlgorithm, "%q", string(alg))
	}
	h := newHash()
	// Writing to a hash never fails.
	_, _ = h.Write(secret)
	return h.Sum(nil), nil
}

// Verify returns nil if given secret commits to given digest under given
// algorithm. The comparison always hashes the full secret and uses a
// constant time digest comparison, so a failure reveals nothing about how
// close the guess was.
func Verify(secret, digest []byte, alg Algorithm) error {
	computed, err := Commit(secret, alg)
	if err != nil {
		return err
	}
	if !hmac.Equal(computed, digest) {
		return errors.Wrapf(ErrMismatch, "secret does not satisfy %s hashlock", alg)
	}
	return nil
}

// GenerateSecret returns a new random secret of SecretSize bytes. This is
// used by the swap initiator exactly once per order.
func GenerateSecret() ([]byte, error) {
	secret := make([]byte, SecretSize)
	if _, err := rand.Read(secret); err != nil {
		return nil, errors.Wrap(errors.ErrHuman, "system source of randomness failed")
	}
	return secret, nil
}

// Hashlock is an (algorithm, digest) commitment pair carried by a single
// swap leg.
type Hashlock struct {
	Algorithm Algorithm
	Digest    []byte
}

// New computes the hashlock of given secret under given algorithm.
func New(secret []byte, alg Algorithm) (Hashlock, error) {
	digest, err := Commit(secret, alg)
	if err != nil {
		return Hashlock{}, err
	}
	return Hashlock{Algorithm: alg, Digest: digest}, nil
}

// Validate returns an error if this hashlock is malformed.
func (h Hashlock) Validate() error {
	if err := h.Algorithm.Validate(); err != nil {
		return err
	}
	if len(h.Digest) != DigestSize {
		return errors.Wrapf(errors.ErrInput, "digest must be exactly %d bytes", DigestSize)
	}
	return nil
}

// Match returns nil if given secret satisfies this hashlock.
func (h Hashlock) Match(secret []byte) error {
	return Verify(secret, h.Digest, h.Algorithm)
}

// String returns a short human readable representation, used in logs.
func (h Hashlock) String() string {
	return string(h.Algorithm) + ":" + hex.EncodeToString(h.Digest)
}
