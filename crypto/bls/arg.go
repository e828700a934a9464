package bls

import (
	"github.com/signatory-io/bls-core/crypto/bls/coord"
	blst "github.com/supranational/blst/bindings/go"
)

// Arg is an operation argument: either an encoded point as []byte or a
// Handle of the expected kind
type Arg = any

// Args converts a typed slice into a slice of arguments
func Args[T any](xs []T) []Arg {
	out := make([]Arg, len(xs))
	for i, x := range xs {
		out[i] = x
	}
	return out
}

// SignatureSet is one independent triple of a batch verification
type SignatureSet struct {
	Msg       []byte
	PublicKey Arg
	Signature Arg
}

// AggregationSet is one public key and signature pair of AggregateWithRandomness
type AggregationSet struct {
	PublicKey Arg
	Signature Arg
}

// resolveG1 returns the point behind arg with the requested form materialized.
// Handle points are borrowed.
func resolveG1(arg Arg, form coord.Form) (*g1Point, error) {
	switch v := arg.(type) {
	case []byte:
		pk, err := PublicKeyFromBytes(v, form)
		if err != nil {
			return nil, err
		}
		return pk.point, nil
	case *PublicKey:
		if v == nil {
			return nil, ErrNotInitialized
		}
		if _, _, err := v.point.Get(form); err != nil {
			return nil, err
		}
		return v.point, nil
	case Handle:
		return nil, ErrWrongHandleType
	default:
		return nil, ErrInvalidArgumentShape
	}
}

func resolveG2(arg Arg, form coord.Form) (*g2Point, error) {
	switch v := arg.(type) {
	case []byte:
		sig, err := SignatureFromBytes(v, form)
		if err != nil {
			return nil, err
		}
		return sig.point, nil
	case *Signature:
		if v == nil {
			return nil, ErrNotInitialized
		}
		if _, _, err := v.point.Get(form); err != nil {
			return nil, err
		}
		return v.point, nil
	case Handle:
		return nil, ErrWrongHandleType
	default:
		return nil, ErrInvalidArgumentShape
	}
}

func publicKeyJacobian(arg Arg) (*blst.P1, error) {
	p, err := resolveG1(arg, coord.Jacobian)
	if err != nil {
		return nil, err
	}
	return p.Jacobian()
}

func publicKeyAffine(arg Arg) (*blst.P1Affine, error) {
	p, err := resolveG1(arg, coord.Affine)
	if err != nil {
		return nil, err
	}
	return p.Affine()
}

func signatureJacobian(arg Arg) (*blst.P2, error) {
	p, err := resolveG2(arg, coord.Jacobian)
	if err != nil {
		return nil, err
	}
	return p.Jacobian()
}

func signatureAffine(arg Arg) (*blst.P2Affine, error) {
	p, err := resolveG2(arg, coord.Affine)
	if err != nil {
		return nil, err
	}
	return p.Affine()
}

// resolveAll applies fn to every element and reports the first failure with its index
func resolveAll[T any](name string, args []Arg, fn func(Arg) (*T, error)) ([]*T, error) {
	out := make([]*T, len(args))
	for i, a := range args {
		p, err := fn(a)
		if err != nil {
			return nil, argError(name, i, err)
		}
		out[i] = p
	}
	return out, nil
}

type resolvedSet struct {
	msg []byte
	pk  *blst.P1Affine
	sig *blst.P2Affine
}

func resolveSignatureSets(name string, sets []*SignatureSet) ([]resolvedSet, error) {
	out := make([]resolvedSet, len(sets))
	for i, s := range sets {
		if s == nil {
			return nil, argError(name, i, ErrInvalidArgumentShape)
		}
		pk, err := publicKeyAffine(s.PublicKey)
		if err != nil {
			return nil, argError(name, i, argError("publicKey", -1, err))
		}
		sig, err := signatureAffine(s.Signature)
		if err != nil {
			return nil, argError(name, i, argError("signature", -1, err))
		}
		out[i] = resolvedSet{msg: s.Msg, pk: pk, sig: sig}
	}
	return out, nil
}
