package bls

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/signatory-io/bls-core/crypto/bls/coord"
	"github.com/stretchr/testify/require"
)

func testEntropy() []byte {
	ikm := make([]byte, SecretKeyLength)
	for i := range ikm {
		ikm[i] = byte(i + 1)
	}
	return ikm
}

func testKey(t *testing.T, seed byte) *SecretKey {
	t.Helper()
	sk, err := KeyGen(nil, bytes.Repeat([]byte{seed}, SecretKeyLength), "")
	require.NoError(t, err)
	return sk
}

func testPublicKey(t *testing.T, sk *SecretKey) *PublicKey {
	t.Helper()
	pk, err := sk.PublicKey()
	require.NoError(t, err)
	return pk
}

func testSign(t *testing.T, sk *SecretKey, msg string) *Signature {
	t.Helper()
	sig, err := sk.Sign(nil, []byte(msg))
	require.NoError(t, err)
	return sig
}

func infinityG1() []byte {
	b := make([]byte, PublicKeyLengthCompressed)
	b[0] = 0xc0
	return b
}

func infinityG2() []byte {
	b := make([]byte, SignatureLengthCompressed)
	b[0] = 0xc0
	return b
}

func TestRoundTrip(t *testing.T) {
	sk := testKey(t, 1)
	pk := testPublicKey(t, sk)
	sig := testSign(t, sk, "round trip")

	for _, form := range []coord.Form{coord.Jacobian, coord.Affine} {
		for _, compressed := range []bool{true, false} {
			t.Run(fmt.Sprintf("%v/compressed=%t", form, compressed), func(t *testing.T) {
				enc, err := pk.Serialize(compressed)
				require.NoError(t, err)
				if compressed {
					require.Len(t, enc, PublicKeyLengthCompressed)
				} else {
					require.Len(t, enc, PublicKeyLengthUncompressed)
				}
				pk2, err := PublicKeyFromBytes(enc, form)
				require.NoError(t, err)
				require.True(t, pk2.point.Has(form))
				require.True(t, pk.Equal(pk2))
				enc2, err := pk2.Serialize(compressed)
				require.NoError(t, err)
				require.Equal(t, enc, enc2)

				enc, err = sig.Serialize(compressed)
				require.NoError(t, err)
				if compressed {
					require.Len(t, enc, SignatureLengthCompressed)
				} else {
					require.Len(t, enc, SignatureLengthUncompressed)
				}
				sig2, err := SignatureFromBytes(enc, form)
				require.NoError(t, err)
				require.True(t, sig2.point.Has(form))
				require.True(t, sig.Equal(sig2))
				enc2, err = sig2.Serialize(compressed)
				require.NoError(t, err)
				require.Equal(t, enc, enc2)
			})
		}
	}

	t.Run("hex", func(t *testing.T) {
		pk2, err := PublicKeyFromHex(pk.Hex(), coord.Jacobian)
		require.NoError(t, err)
		require.True(t, pk.Equal(pk2))
		sig2, err := SignatureFromHex(hex.EncodeToString(sig.Bytes()), coord.Affine)
		require.NoError(t, err)
		require.True(t, sig.Equal(sig2))
	})
}

func TestConversionIsMemoized(t *testing.T) {
	sk := testKey(t, 2)
	pk, err := PublicKeyFromBytes(testPublicKey(t, sk).Bytes(), coord.Jacobian)
	require.NoError(t, err)
	require.False(t, pk.point.Has(coord.Affine))

	a1, err := pk.point.Affine()
	require.NoError(t, err)
	a2, err := pk.point.Affine()
	require.NoError(t, err)
	require.Equal(t, a1.Serialize(), a2.Serialize())
	require.Equal(t, 1, pk.point.Conversions())

	// pure aggregation never needs the affine form
	agg, err := AggregatePublicKeys([]Arg{pk, pk})
	require.NoError(t, err)
	require.False(t, agg.point.Has(coord.Affine))
	require.Equal(t, 0, agg.point.Conversions())
}

func TestLengthValidation(t *testing.T) {
	for n := 0; n <= SignatureLengthUncompressed+1; n++ {
		b := bytes.Repeat([]byte{0xff}, n)

		_, err := PublicKeyFromBytes(b, coord.Jacobian)
		if n == PublicKeyLengthCompressed || n == PublicKeyLengthUncompressed {
			require.NotErrorIs(t, err, ErrInvalidLength, n)
		} else {
			require.ErrorIs(t, err, ErrInvalidLength, n)
			require.EqualError(t, err, fmt.Sprintf("must be 48 or 96 bytes, got %d", n))
		}

		_, err = SignatureFromBytes(b, coord.Jacobian)
		if n == SignatureLengthCompressed || n == SignatureLengthUncompressed {
			require.NotErrorIs(t, err, ErrInvalidLength, n)
		} else {
			require.ErrorIs(t, err, ErrInvalidLength, n)
		}
	}

	// both valid lengths are accepted
	pk := testPublicKey(t, testKey(t, 3))
	for _, compressed := range []bool{true, false} {
		enc, err := pk.Serialize(compressed)
		require.NoError(t, err)
		_, err = PublicKeyFromBytes(enc, coord.Affine)
		require.NoError(t, err)
	}
}

func TestDecodeErrors(t *testing.T) {
	_, err := PublicKeyFromBytes(make([]byte, PublicKeyLengthCompressed), coord.Jacobian)
	require.ErrorIs(t, err, ErrInvalidZeroKey)
	_, err = PublicKeyFromBytes(make([]byte, PublicKeyLengthUncompressed), coord.Jacobian)
	require.ErrorIs(t, err, ErrInvalidZeroKey)

	// 0xff.. is not a valid field element
	_, err = PublicKeyFromBytes(bytes.Repeat([]byte{0xff}, PublicKeyLengthCompressed), coord.Jacobian)
	require.ErrorIs(t, err, ErrCurveArithmetic)
	require.Equal(t, BadEncoding, err)
	require.EqualError(t, err, "BLST_ERROR: Invalid encoding")

	_, err = SignatureFromBytes(bytes.Repeat([]byte{0xff}, SignatureLengthCompressed), coord.Jacobian)
	require.ErrorIs(t, err, ErrCurveArithmetic)
}

func TestInfinity(t *testing.T) {
	pk, err := PublicKeyFromBytes(infinityG1(), coord.Jacobian)
	require.NoError(t, err)
	require.True(t, pk.IsInfinity())
	require.ErrorIs(t, pk.KeyValidate(), PkIsInfinity)

	sig, err := SignatureFromBytes(infinityG2(), coord.Affine)
	require.NoError(t, err)
	require.True(t, sig.IsInfinity())
	require.NoError(t, sig.SigValidate(false))
	require.ErrorIs(t, sig.SigValidate(true), PkIsInfinity)

	other := testPublicKey(t, testKey(t, 4))
	require.False(t, other.IsInfinity())
	require.NoError(t, other.KeyValidate())
}

func TestNotInitialized(t *testing.T) {
	var pk PublicKey
	_, err := pk.Serialize(true)
	require.ErrorIs(t, err, ErrNotInitialized)
	require.Nil(t, pk.Bytes())
	require.ErrorIs(t, pk.KeyValidate(), ErrNotInitialized)

	var sig Signature
	_, err = sig.Serialize(false)
	require.ErrorIs(t, err, ErrNotInitialized)
	require.False(t, sig.IsInfinity())

	_, err = AggregatePublicKeys([]Arg{&pk})
	require.ErrorIs(t, err, ErrNotInitialized)
}
