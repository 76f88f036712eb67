package keys

import (
	"math/big"
	"strings"

	"golang.org/x/crypto/blake2b"
)

const (
	AccountPrefix = "xrb_"
	alphabet      = "13456789abcdefghijkmnopqrstuwxyz"
	// 52 characters of key and 8 of checksum, 5 bits each
	accountChars  = 60
	checksumSize  = 5
	encodedLength = len(AccountPrefix) + accountChars
)

func checksum(pub PublicKey) [checksumSize]byte {
	h, _ := blake2b.New(checksumSize, nil)
	h.Write(pub[:])
	sum := h.Sum(nil)
	var out [checksumSize]byte
	for i := range checksumSize {
		out[i] = sum[checksumSize-1-i]
	}
	return out
}

// EncodeAccount renders a public key as an xrb_ account address.
func EncodeAccount(pub PublicKey) string {
	sum := checksum(pub)
	raw := make([]byte, 0, KeySize+checksumSize)
	raw = append(raw, pub[:]...)
	raw = append(raw, sum[:]...)

	num := new(big.Int).SetBytes(raw)
	mask := big.NewInt(0x1f)
	digit := new(big.Int)
	out := make([]byte, accountChars)
	for i := accountChars - 1; i >= 0; i-- {
		digit.And(num, mask)
		out[i] = alphabet[digit.Int64()]
		num.Rsh(num, 5)
	}
	return AccountPrefix + string(out)
}

// DecodeAccount parses an xrb_ account address back into its public key,
// verifying the embedded checksum.
func DecodeAccount(account string) (PublicKey, error) {
	var pub PublicKey
	if !strings.HasPrefix(account, AccountPrefix) {
		return pub, ErrInvalidPrefix
	}
	if len(account) != encodedLength {
		return pub, ErrInvalidLength
	}

	num := new(big.Int)
	for _, c := range account[len(AccountPrefix):] {
		v := strings.IndexRune(alphabet, c)
		if v < 0 {
			return pub, ErrInvalidChar
		}
		num.Lsh(num, 5)
		num.Or(num, big.NewInt(int64(v)))
	}
	if num.BitLen() > 8*(KeySize+checksumSize) {
		return pub, ErrInvalidChar
	}

	raw := num.FillBytes(make([]byte, KeySize+checksumSize))
	copy(pub[:], raw[:KeySize])
	sum := checksum(pub)
	if string(sum[:]) != string(raw[KeySize:]) {
		return PublicKey{}, ErrBadChecksum
	}
	return pub, nil
}

// ValidAccount reports whether account is a well-formed address.
func ValidAccount(account string) bool {
	_, err := DecodeAccount(account)
	return err == nil
}
