package bls

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/signatory-io/bls-core/crypto/bls/coord"
	blst "github.com/supranational/blst/bindings/go"
)

type Kind uint8

const (
	KindPublicKey Kind = 1 + iota
	KindSignature
)

func (k Kind) String() string {
	switch k {
	case KindPublicKey:
		return "PublicKey"
	case KindSignature:
		return "Signature"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Handle is a reference to a previously constructed point. It is implemented
// by *PublicKey and *Signature only.
type Handle interface {
	Kind() Kind
	handle()
}

type (
	g1Point = coord.Point[blst.P1, blst.P1Affine]
	g2Point = coord.Point[blst.P2, blst.P2Affine]
)

var g1Conv = coord.Converter[blst.P1, blst.P1Affine]{
	ToAffine: (*blst.P1).ToAffine,
	ToJacobian: func(a *blst.P1Affine) *blst.P1 {
		var p blst.P1
		p.FromAffine(a)
		return &p
	},
}

var g2Conv = coord.Converter[blst.P2, blst.P2Affine]{
	ToAffine: (*blst.P2).ToAffine,
	ToJacobian: func(a *blst.P2Affine) *blst.P2 {
		var p blst.P2
		p.FromAffine(a)
		return &p
	},
}

func isZeroBytes(b []byte) bool {
	for _, x := range b {
		if x != 0 {
			return false
		}
	}
	return true
}

// isInfinityEncoding reports whether b is a compressed point at infinity
func isInfinityEncoding(b []byte) bool {
	return len(b) != 0 && b[0] == 0xc0 && isZeroBytes(b[1:])
}

func checkLength(n int, lengths ...int) error {
	for _, l := range lengths {
		if n == l {
			return nil
		}
	}
	return &LengthError{Got: n, Expected: lengths}
}

func decodeHex(s string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(s, "0x"))
}

// PublicKey is a G1 point. The zero value is uninitialized and fails every
// operation with ErrNotInitialized.
type PublicKey struct {
	point *g1Point
}

func (*PublicKey) Kind() Kind { return KindPublicKey }
func (*PublicKey) handle()    {}

func newPublicKeyJacobian(p *blst.P1) *PublicKey {
	return &PublicKey{point: coord.NewJacobian(p, &g1Conv)}
}

func newPublicKeyAffine(p *blst.P1Affine) *PublicKey {
	return &PublicKey{point: coord.NewAffine(p, &g1Conv)}
}

func decodeG1(b []byte) (*blst.P1Affine, error) {
	if err := checkLength(len(b), PublicKeyLengthCompressed, PublicKeyLengthUncompressed); err != nil {
		return nil, err
	}
	if isZeroBytes(b) {
		return nil, ErrInvalidZeroKey
	}
	var p *blst.P1Affine
	if len(b) == PublicKeyLengthCompressed {
		p = new(blst.P1Affine).Uncompress(b)
	} else {
		p = new(blst.P1Affine).Deserialize(b)
	}
	if p == nil {
		return nil, BadEncoding
	}
	return p, nil
}

// PublicKeyFromBytes decodes a compressed or uncompressed public key. The
// result holds only the requested coordinate form.
func PublicKeyFromBytes(b []byte, form coord.Form) (*PublicKey, error) {
	p, err := decodeG1(b)
	if err != nil {
		return nil, err
	}
	if form == coord.Jacobian {
		return newPublicKeyJacobian(g1Conv.ToJacobian(p)), nil
	}
	return newPublicKeyAffine(p), nil
}

func PublicKeyFromHex(s string, form coord.Form) (*PublicKey, error) {
	b, err := decodeHex(s)
	if err != nil {
		return nil, err
	}
	return PublicKeyFromBytes(b, form)
}

func (p *PublicKey) Serialize(compressed bool) ([]byte, error) {
	var (
		jac *blst.P1
		aff *blst.P1Affine
	)
	if p != nil {
		jac, aff = p.point.Peek()
	}
	switch {
	case jac != nil && compressed:
		return jac.Compress(), nil
	case jac != nil:
		return jac.Serialize(), nil
	case aff != nil && compressed:
		return aff.Compress(), nil
	case aff != nil:
		return aff.Serialize(), nil
	default:
		return nil, fmt.Errorf("PublicKey can't be serialized: %w", ErrNotInitialized)
	}
}

// Bytes returns the compressed encoding or nil if the key is not initialized
func (p *PublicKey) Bytes() []byte {
	b, _ := p.Serialize(true)
	return b
}

func (p *PublicKey) Hex() string { return "0x" + hex.EncodeToString(p.Bytes()) }

func (p *PublicKey) String() string { return p.Hex() }

func (p *PublicKey) IsInfinity() bool {
	b := p.Bytes()
	return b != nil && isInfinityEncoding(b)
}

func (p *PublicKey) Equal(other *PublicKey) bool {
	a, b := p.Bytes(), other.Bytes()
	return a != nil && string(a) == string(b)
}

// KeyValidate checks that the key is not infinity and belongs to G1
func (p *PublicKey) KeyValidate() error {
	if p == nil {
		return ErrNotInitialized
	}
	aff, err := p.point.Affine()
	if err != nil {
		return err
	}
	if isInfinityEncoding(aff.Compress()) {
		return PkIsInfinity
	}
	if !aff.InG1() {
		return PointNotInGroup
	}
	return nil
}

// Signature is a G2 point. The zero value is uninitialized and fails every
// operation with ErrNotInitialized.
type Signature struct {
	point *g2Point
}

func (*Signature) Kind() Kind { return KindSignature }
func (*Signature) handle()    {}

func newSignatureJacobian(p *blst.P2) *Signature {
	return &Signature{point: coord.NewJacobian(p, &g2Conv)}
}

func newSignatureAffine(p *blst.P2Affine) *Signature {
	return &Signature{point: coord.NewAffine(p, &g2Conv)}
}

func decodeG2(b []byte) (*blst.P2Affine, error) {
	if err := checkLength(len(b), SignatureLengthCompressed, SignatureLengthUncompressed); err != nil {
		return nil, err
	}
	var p *blst.P2Affine
	if len(b) == SignatureLengthCompressed {
		p = new(blst.P2Affine).Uncompress(b)
	} else {
		p = new(blst.P2Affine).Deserialize(b)
	}
	if p == nil {
		return nil, BadEncoding
	}
	return p, nil
}

func SignatureFromBytes(b []byte, form coord.Form) (*Signature, error) {
	p, err := decodeG2(b)
	if err != nil {
		return nil, err
	}
	if form == coord.Jacobian {
		return newSignatureJacobian(g2Conv.ToJacobian(p)), nil
	}
	return newSignatureAffine(p), nil
}

func SignatureFromHex(s string, form coord.Form) (*Signature, error) {
	b, err := decodeHex(s)
	if err != nil {
		return nil, err
	}
	return SignatureFromBytes(b, form)
}

func (s *Signature) Serialize(compressed bool) ([]byte, error) {
	var (
		jac *blst.P2
		aff *blst.P2Affine
	)
	if s != nil {
		jac, aff = s.point.Peek()
	}
	switch {
	case jac != nil && compressed:
		return jac.Compress(), nil
	case jac != nil:
		return jac.Serialize(), nil
	case aff != nil && compressed:
		return aff.Compress(), nil
	case aff != nil:
		return aff.Serialize(), nil
	default:
		return nil, fmt.Errorf("Signature can't be serialized: %w", ErrNotInitialized)
	}
}

// Bytes returns the compressed encoding or nil if the signature is not initialized
func (s *Signature) Bytes() []byte {
	b, _ := s.Serialize(true)
	return b
}

func (s *Signature) Hex() string { return "0x" + hex.EncodeToString(s.Bytes()) }

func (s *Signature) String() string { return s.Hex() }

func (s *Signature) IsInfinity() bool {
	b := s.Bytes()
	return b != nil && isInfinityEncoding(b)
}

func (s *Signature) Equal(other *Signature) bool {
	a, b := s.Bytes(), other.Bytes()
	return a != nil && string(a) == string(b)
}

// SigValidate checks that the signature belongs to G2 and, if infCheck is
// set, that it is not infinity
func (s *Signature) SigValidate(infCheck bool) error {
	if s == nil {
		return ErrNotInitialized
	}
	aff, err := s.point.Affine()
	if err != nil {
		return err
	}
	if infCheck && isInfinityEncoding(aff.Compress()) {
		return PkIsInfinity
	}
	if !aff.InG2() {
		return PointNotInGroup
	}
	return nil
}

var (
	_ Handle = (*PublicKey)(nil)
	_ Handle = (*Signature)(nil)
)
