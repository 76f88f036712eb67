package keys

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"filippo.io/edwards25519"
	"github.com/go-errors/errors"
	"golang.org/x/crypto/blake2b"
)

const KeySize = 32

type PrivateKey [KeySize]byte

type PublicKey [KeySize]byte

var (
	ErrInvalidHex    = errors.New("key must be 64 hexadecimal characters")
	ErrInvalidPrefix = errors.New("account must start with " + AccountPrefix)
	ErrInvalidLength = errors.New("account has an invalid length")
	ErrInvalidChar   = errors.New("account contains an invalid character")
	ErrBadChecksum   = errors.New("account checksum mismatch")
)

func parseKey(s string) ([KeySize]byte, error) {
	var out [KeySize]byte
	if len(s) != 2*KeySize {
		return out, ErrInvalidHex
	}
	if _, err := hex.Decode(out[:], []byte(s)); err != nil {
		return out, fmt.Errorf("%w: %w", ErrInvalidHex, err)
	}
	return out, nil
}

func ParsePrivateKey(s string) (PrivateKey, error) {
	k, err := parseKey(s)
	return PrivateKey(k), err
}

func ParsePublicKey(s string) (PublicKey, error) {
	k, err := parseKey(s)
	return PublicKey(k), err
}

// GenerateKey returns a random private key.
func GenerateKey() (PrivateKey, error) {
	var k PrivateKey
	if _, err := rand.Read(k[:]); err != nil {
		return k, fmt.Errorf("failed to read random bytes: %w", err)
	}
	return k, nil
}

// DeterministicKey derives the private key at index from a wallet seed:
// blake2b-256(seed || big-endian index).
func DeterministicKey(seed [KeySize]byte, index uint32) PrivateKey {
	h, _ := blake2b.New256(nil)
	h.Write(seed[:])
	var idx [4]byte
	binary.BigEndian.PutUint32(idx[:], index)
	h.Write(idx[:])
	var k PrivateKey
	copy(k[:], h.Sum(nil))
	return k
}

// Public derives the ed25519 public key, using blake2b-512 in place of sha-512
// for the secret scalar expansion.
func (k PrivateKey) Public() PublicKey {
	digest := blake2b.Sum512(k[:])
	s, err := edwards25519.NewScalar().SetBytesWithClamping(digest[:32])
	if err != nil {
		// SetBytesWithClamping only fails on a wrong input length.
		panic(err)
	}
	var pub PublicKey
	copy(pub[:], new(edwards25519.Point).ScalarBaseMult(s).Bytes())
	return pub
}

func (k PrivateKey) String() string {
	return strings.ToUpper(hex.EncodeToString(k[:]))
}

func (p PublicKey) String() string {
	return strings.ToUpper(hex.EncodeToString(p[:]))
}

func (p PublicKey) Account() string {
	return EncodeAccount(p)
}
