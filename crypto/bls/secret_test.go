package bls

import (
	"bytes"
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyGen(t *testing.T) {
	sk1, err := KeyGen(nil, testEntropy(), "")
	require.NoError(t, err)
	sk2, err := KeyGen(nil, testEntropy(), "")
	require.NoError(t, err)
	require.Equal(t, sk1.Bytes(), sk2.Bytes())
	require.Len(t, sk1.Bytes(), SecretKeyLength)
	require.False(t, sk1.IsZero())

	withInfo, err := KeyGen(nil, testEntropy(), "validator")
	require.NoError(t, err)
	require.NotEqual(t, sk1.Bytes(), withInfo.Bytes())

	random, err := KeyGen(nil, nil, "")
	require.NoError(t, err)
	require.NotEqual(t, sk1.Bytes(), random.Bytes())

	_, err = KeyGen(nil, make([]byte, 31), "")
	require.ErrorIs(t, err, ErrInvalidLength)
	var argErr *ArgError
	require.ErrorAs(t, err, &argErr)
	require.Equal(t, "ikm", argErr.Name)

	// deterministic RNG
	conf := *DefaultConfig()
	conf.Rand = bytes.NewReader(testEntropy())
	fromRand, err := KeyGen(&conf, nil, "")
	require.NoError(t, err)
	require.Equal(t, sk1.Bytes(), fromRand.Bytes())
}

func TestSecretKeySerialization(t *testing.T) {
	sk := testKey(t, 5)
	sk2, err := SecretKeyFromBytes(sk.Bytes())
	require.NoError(t, err)
	require.Equal(t, sk.Bytes(), sk2.Bytes())

	sk3, err := SecretKeyFromHex(sk.Hex())
	require.NoError(t, err)
	require.Equal(t, sk.Bytes(), sk3.Bytes())

	_, err = SecretKeyFromBytes(make([]byte, 33))
	require.ErrorIs(t, err, ErrInvalidLength)

	// larger than the group order
	_, err = SecretKeyFromBytes(bytes.Repeat([]byte{0xff}, SecretKeyLength))
	require.ErrorIs(t, err, BadScalar)
}

func TestZeroSecretKey(t *testing.T) {
	sk, err := SecretKeyFromBytes(make([]byte, SecretKeyLength))
	require.NoError(t, err)
	require.True(t, sk.IsZero())
	require.Equal(t, make([]byte, SecretKeyLength), sk.Bytes())

	_, err = sk.Sign(nil, []byte("test"))
	require.ErrorIs(t, err, ErrZeroSecretKey)

	pk, err := sk.PublicKey()
	require.NoError(t, err)
	require.True(t, pk.IsInfinity())
	require.Equal(t, infinityG1(), pk.Bytes())

	// the infinity key is the identity element of aggregation
	other := testPublicKey(t, testKey(t, 6))
	agg, err := AggregatePublicKeys([]Arg{other, pk})
	require.NoError(t, err)
	require.True(t, agg.Equal(other))

	// but it never verifies
	_, err = Verify([]byte("test"), pk, testSign(t, testKey(t, 6), "test"))
	require.ErrorIs(t, err, PkIsInfinity)
}

func TestSignDeterministic(t *testing.T) {
	sk := testKey(t, 7)
	s1 := testSign(t, sk, "message")
	s2 := testSign(t, sk, "message")
	require.Equal(t, s1.Bytes(), s2.Bytes())
	s3 := testSign(t, sk, "another message")
	require.NotEqual(t, s1.Bytes(), s3.Bytes())

	conf, err := NewConfig("BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_NUL_", DefaultRandBytes)
	require.NoError(t, err)
	s4, err := sk.Sign(conf, []byte("message"))
	require.NoError(t, err)
	require.NotEqual(t, s1.Bytes(), s4.Bytes())
}

func TestZeroize(t *testing.T) {
	sk := testKey(t, 8)
	sk.Zeroize()
	require.Nil(t, sk.Bytes())
	_, err := sk.Sign(nil, []byte("test"))
	require.ErrorIs(t, err, ErrNotInitialized)
	_, err = sk.PublicKey()
	require.ErrorIs(t, err, ErrNotInitialized)
}

func TestEIP2333(t *testing.T) {
	seed, err := hex.DecodeString("c55257c360c07c72029aebc1b53c05ed0362ada38ead3e3e9efa3708e53495531f09a6987599d18264c1e1c92f2cf141630c7a3c4ab7c81b2f001698e7463b04")
	require.NoError(t, err)

	scalar := func(dec string) []byte {
		v, ok := new(big.Int).SetString(dec, 10)
		require.True(t, ok)
		return v.FillBytes(make([]byte, SecretKeyLength))
	}

	master, err := DeriveMasterEIP2333(seed)
	require.NoError(t, err)
	require.Equal(t, scalar("6083874454709270928345386274498605044986640685124978867557563392430687146096"), master.Bytes())

	child, err := master.DeriveChildEIP2333(0)
	require.NoError(t, err)
	require.Equal(t, scalar("20397789859736650942317412262472558107875392172444076792671091975210932703118"), child.Bytes())

	byPath, err := DeriveEIP2333Path(seed, []uint32{0})
	require.NoError(t, err)
	require.Equal(t, child.Bytes(), byPath.Bytes())

	_, err = DeriveMasterEIP2333(seed[:31])
	require.ErrorIs(t, err, ErrInvalidLength)
	require.EqualError(t, err, "seed: must be at least 32 bytes, got 31")
}
