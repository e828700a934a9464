package bls

import (
	"encoding/hex"
	"fmt"
	"io"

	blst "github.com/supranational/blst/bindings/go"
)

// SecretKey is a 32 byte scalar. The all-zero scalar is accepted on
// deserialization but can't be used for signing.
type SecretKey struct {
	sk   *blst.SecretKey
	zero bool
}

// KeyGen derives a secret key from 32 bytes of input key material and an
// optional info string. If ikm is nil it is read from conf.Rand.
func KeyGen(conf *Config, ikm []byte, info string) (*SecretKey, error) {
	conf = confOrDefault(conf)
	if ikm == nil {
		ikm = make([]byte, SecretKeyLength)
		if _, err := io.ReadFull(conf.Rand, ikm); err != nil {
			return nil, fmt.Errorf("bls: %w", err)
		}
		defer clear(ikm)
	}
	if len(ikm) != SecretKeyLength {
		return nil, argError("ikm", -1, &LengthError{Got: len(ikm), Expected: []int{SecretKeyLength}})
	}
	var sk *blst.SecretKey
	if info != "" {
		sk = blst.KeyGen(ikm, []byte(info))
	} else {
		sk = blst.KeyGen(ikm)
	}
	if sk == nil {
		return nil, BadScalar
	}
	return &SecretKey{sk: sk}, nil
}

// DeriveMasterEIP2333 derives a master key from a seed of at least 32 bytes
func DeriveMasterEIP2333(seed []byte) (*SecretKey, error) {
	if len(seed) < SecretKeyLength {
		return nil, argError("seed", -1, &LengthError{Got: len(seed), Expected: []int{SecretKeyLength}, AtLeast: true})
	}
	sk := blst.DeriveMasterEip2333(seed)
	if sk == nil {
		return nil, BadScalar
	}
	return &SecretKey{sk: sk}, nil
}

func (s *SecretKey) DeriveChildEIP2333(index uint32) (*SecretKey, error) {
	if s == nil || s.sk == nil {
		return nil, ErrNotInitialized
	}
	if s.zero {
		return nil, ErrZeroSecretKey
	}
	return &SecretKey{sk: s.sk.DeriveChildEip2333(index)}, nil
}

// DeriveEIP2333Path derives a key along a path of child indices starting from the master seed
func DeriveEIP2333Path(seed []byte, path []uint32) (*SecretKey, error) {
	sk, err := DeriveMasterEIP2333(seed)
	if err != nil {
		return nil, err
	}
	for _, idx := range path {
		if sk, err = sk.DeriveChildEIP2333(idx); err != nil {
			return nil, err
		}
	}
	return sk, nil
}

func SecretKeyFromBytes(b []byte) (*SecretKey, error) {
	if err := checkLength(len(b), SecretKeyLength); err != nil {
		return nil, err
	}
	if isZeroBytes(b) {
		return &SecretKey{sk: new(blst.SecretKey), zero: true}, nil
	}
	sk := new(blst.SecretKey).Deserialize(b)
	if sk == nil {
		return nil, BadScalar
	}
	return &SecretKey{sk: sk}, nil
}

func SecretKeyFromHex(s string) (*SecretKey, error) {
	b, err := decodeHex(s)
	if err != nil {
		return nil, err
	}
	defer clear(b)
	return SecretKeyFromBytes(b)
}

// Bytes returns the big endian encoding
func (s *SecretKey) Bytes() []byte {
	if s == nil || s.sk == nil {
		return nil
	}
	if s.zero {
		return make([]byte, SecretKeyLength)
	}
	return s.sk.Serialize()
}

func (s *SecretKey) Hex() string { return "0x" + hex.EncodeToString(s.Bytes()) }

func (s *SecretKey) IsZero() bool { return s != nil && s.zero }

// PublicKey returns the G1 public key. The zero key maps to the point at infinity.
func (s *SecretKey) PublicKey() (*PublicKey, error) {
	if s == nil || s.sk == nil {
		return nil, ErrNotInitialized
	}
	return newPublicKeyAffine(new(blst.P1Affine).From(s.sk)), nil
}

func (s *SecretKey) Sign(conf *Config, msg []byte) (*Signature, error) {
	if s == nil || s.sk == nil {
		return nil, ErrNotInitialized
	}
	if s.zero {
		return nil, ErrZeroSecretKey
	}
	conf = confOrDefault(conf)
	sig := new(blst.P2Affine).Sign(s.sk, msg, conf.DST)
	if sig == nil {
		return nil, BadEncoding
	}
	return newSignatureAffine(sig), nil
}

// Zeroize wipes the scalar. The key is unusable afterwards.
func (s *SecretKey) Zeroize() {
	if s == nil || s.sk == nil {
		return
	}
	s.sk.Zeroize()
	s.sk = nil
}
