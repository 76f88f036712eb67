package keys_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/USA-RedDragon/germ-rpctest/internal/keys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	genesisPrivate = "34F0A37AAD20F4A260F0A5B3CB3D7FB50673212263E58A380BC10474BB039CE4"
	genesisPublic  = "B0311EA55708D6A53C75CDBF88300259C6D018522FE3D4D0A242E431F9E8B6D0"
	genesisAccount = "xrb_3e3j5tkog48pnny9dmfzj1r16pg8t1e76dz5tmac6iq689wyjfpiij4txtdo"
	testSeed       = "74F2B37AAD20F4A260F0A5B3CB3D7FB51673212263E58A380BC10474BB039CEE"
	burnAccount    = "xrb_1111111111111111111111111111111111111111111111111111hifc8npp"
)

func TestZeroKeyAccount(t *testing.T) {
	t.Parallel()
	assert.Equal(t, burnAccount, keys.EncodeAccount(keys.PublicKey{}))
	pub, err := keys.DecodeAccount(burnAccount)
	require.NoError(t, err)
	assert.Equal(t, keys.PublicKey{}, pub)
}

func TestGenesisVector(t *testing.T) {
	t.Parallel()
	priv, err := keys.ParsePrivateKey(genesisPrivate)
	require.NoError(t, err)
	pub := priv.Public()
	assert.Equal(t, genesisPublic, pub.String())
	assert.Equal(t, genesisAccount, pub.Account())
	assert.Equal(t, genesisPrivate, priv.String())
}

func TestDecodeAccount(t *testing.T) {
	t.Parallel()
	pub, err := keys.DecodeAccount(genesisAccount)
	require.NoError(t, err)
	assert.Equal(t, genesisPublic, pub.String())
	assert.True(t, keys.ValidAccount(genesisAccount))
}

func TestDecodeAccountErrors(t *testing.T) {
	t.Parallel()

	_, err := keys.DecodeAccount("nano_" + genesisAccount[4:])
	assert.True(t, errors.Is(err, keys.ErrInvalidPrefix))

	_, err = keys.DecodeAccount(genesisAccount[:len(genesisAccount)-1])
	assert.True(t, errors.Is(err, keys.ErrInvalidLength))

	_, err = keys.DecodeAccount(genesisAccount[:10] + "0" + genesisAccount[11:])
	assert.True(t, errors.Is(err, keys.ErrInvalidChar))

	// flip the last checksum character
	last := genesisAccount[len(genesisAccount)-1]
	repl := "1"
	if last == '1' {
		repl = "3"
	}
	_, err = keys.DecodeAccount(genesisAccount[:len(genesisAccount)-1] + repl)
	assert.True(t, errors.Is(err, keys.ErrBadChecksum))

	// first digit may only carry a single significant bit
	_, err = keys.DecodeAccount("xrb_z" + genesisAccount[5:])
	assert.Error(t, err)
}

func TestParseKeyErrors(t *testing.T) {
	t.Parallel()
	_, err := keys.ParsePrivateKey("abc")
	assert.True(t, errors.Is(err, keys.ErrInvalidHex))
	_, err = keys.ParsePublicKey(strings.Repeat("Z", 64))
	assert.True(t, errors.Is(err, keys.ErrInvalidHex))
}

func TestDeterministicKey(t *testing.T) {
	t.Parallel()
	seed, err := keys.ParsePrivateKey(testSeed)
	require.NoError(t, err)

	first := keys.DeterministicKey(seed, 0)
	again := keys.DeterministicKey(seed, 0)
	second := keys.DeterministicKey(seed, 1)

	assert.Equal(t, "1E9DC8196AA704B3BAAF50A663650E2F683EE4D56E483435E789EC0F47722CF4", first.String())
	assert.Equal(t, "FC87B136593DA4EAE8CE08DB46FD53B225B41493B4E648B2A4165C3C15473AA8", second.String())
	assert.Equal(t, first, again)
	assert.NotEqual(t, first, second)
	assert.NotEqual(t, keys.PrivateKey(seed), first)
	assert.True(t, keys.ValidAccount(first.Public().Account()))
}

func TestGenerateKey(t *testing.T) {
	t.Parallel()
	a, err := keys.GenerateKey()
	require.NoError(t, err)
	b, err := keys.GenerateKey()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	account := a.Public().Account()
	assert.Len(t, account, 64)
	pub, err := keys.DecodeAccount(account)
	require.NoError(t, err)
	assert.Equal(t, a.Public(), pub)
}
