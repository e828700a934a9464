package bls

import (
	"errors"
	"fmt"
	"io"

	blst "github.com/supranational/blst/bindings/go"
)

// Every op resolves its arguments in Setup. Execute and Collect only touch
// the native points prepared there and may run on another goroutine.

const maxBlindingAttempts = 8

var errZeroBlinding = errors.New("bls: random source keeps producing zero scalars")

// blindingScalar draws a non-zero scalar of conf.RandBytes bytes. The second
// result is its little endian encoding.
func blindingScalar(conf *Config) (*blst.Scalar, []byte, error) {
	var buf [blst.BLST_SCALAR_BYTES]byte
	for range maxBlindingAttempts {
		if _, err := io.ReadFull(conf.Rand, buf[:conf.RandBytes]); err != nil {
			return nil, nil, fmt.Errorf("bls: %w", err)
		}
		if s := new(blst.Scalar).FromLEndian(buf[:]); s != nil {
			return s, buf[:conf.RandBytes], nil
		}
	}
	return nil, nil, errZeroBlinding
}

type aggregatePublicKeysOp struct {
	keys []Arg
	pts  []*blst.P1
	acc  blst.P1
}

func (o *aggregatePublicKeysOp) Setup() (err error) {
	if len(o.keys) == 0 {
		return argError("publicKeys", -1, ErrEmptyInput)
	}
	o.pts, err = resolveAll("publicKeys", o.keys, publicKeyJacobian)
	return err
}

func (o *aggregatePublicKeysOp) Execute() error {
	o.acc = *o.pts[0]
	for _, p := range o.pts[1:] {
		o.acc.AddAssign(p)
	}
	return nil
}

func (o *aggregatePublicKeysOp) Collect() (*PublicKey, error) {
	return newPublicKeyJacobian(&o.acc), nil
}

type aggregateSignaturesOp struct {
	sigs []Arg
	pts  []*blst.P2
	acc  blst.P2
}

func (o *aggregateSignaturesOp) Setup() (err error) {
	if len(o.sigs) == 0 {
		return argError("signatures", -1, ErrEmptyInput)
	}
	o.pts, err = resolveAll("signatures", o.sigs, signatureJacobian)
	return err
}

func (o *aggregateSignaturesOp) Execute() error {
	o.acc = *o.pts[0]
	for _, p := range o.pts[1:] {
		o.acc.AddAssign(p)
	}
	return nil
}

func (o *aggregateSignaturesOp) Collect() (*Signature, error) {
	return newSignatureJacobian(&o.acc), nil
}

type aggregateVerifyOp struct {
	conf *Config
	msgs [][]byte
	keys []Arg
	sig  Arg

	pks    []*blst.P1Affine
	sigPt  *blst.P2Affine
	result bool
}

func (o *aggregateVerifyOp) Setup() (err error) {
	if len(o.msgs) != len(o.keys) {
		return fmt.Errorf("%w: %d messages and %d public keys", ErrLengthMismatch, len(o.msgs), len(o.keys))
	}
	if o.sigPt, err = signatureAffine(o.sig); err != nil {
		return argError("signature", -1, err)
	}
	o.pks, err = resolveAll("publicKeys", o.keys, publicKeyAffine)
	return err
}

func (o *aggregateVerifyOp) Execute() (err error) {
	o.result, err = verifyPairs(o.conf, o.msgs, o.pks, o.sigPt)
	return err
}

func (o *aggregateVerifyOp) Collect() (bool, error) { return o.result, nil }

// verifyPairs checks e(g1, sig) == prod e(pk_i, H(msg_i)). With no pairs the
// result is true only for the infinity signature.
func verifyPairs(conf *Config, msgs [][]byte, pks []*blst.P1Affine, sig *blst.P2Affine) (bool, error) {
	inf := isInfinityEncoding(sig.Compress())
	if len(pks) == 0 || inf {
		return len(pks) == 0 && inf, nil
	}
	if !sig.SigValidate(false) {
		return false, nil
	}
	ctx := blst.PairingCtx(true, conf.DST)
	for i, pk := range pks {
		if err := curveError(blst.PairingAggregatePkInG1(ctx, pk, true, nil, false, msgs[i])); err != nil {
			return false, argError("publicKeys", i, err)
		}
	}
	blst.PairingCommit(ctx)
	gt := blst.Fp12MillerLoop(sig, blst.P1Generator().ToAffine())
	return blst.PairingFinalVerify(ctx, gt), nil
}

type fastAggregateVerifyOp struct {
	conf *Config
	msg  []byte
	keys []Arg
	sig  Arg

	pts    []*blst.P1
	sigPt  *blst.P2Affine
	result bool
}

func (o *fastAggregateVerifyOp) Setup() (err error) {
	if o.sigPt, err = signatureAffine(o.sig); err != nil {
		return argError("signature", -1, err)
	}
	o.pts, err = resolveAll("publicKeys", o.keys, publicKeyJacobian)
	return err
}

func (o *fastAggregateVerifyOp) Execute() (err error) {
	if len(o.pts) == 0 {
		return nil
	}
	acc := *o.pts[0]
	for _, p := range o.pts[1:] {
		acc.AddAssign(p)
	}
	pk := acc.ToAffine()
	if isInfinityEncoding(pk.Compress()) {
		return nil
	}
	o.result, err = verifyPairs(o.conf, [][]byte{o.msg}, []*blst.P1Affine{pk}, o.sigPt)
	return err
}

func (o *fastAggregateVerifyOp) Collect() (bool, error) { return o.result, nil }

type verifyMultipleOp struct {
	conf *Config
	sets []*SignatureSet

	resolved []resolvedSet
	result   bool
}

func (o *verifyMultipleOp) Setup() (err error) {
	o.resolved, err = resolveSignatureSets("signatureSets", o.sets)
	return err
}

func (o *verifyMultipleOp) Execute() error {
	if len(o.resolved) == 0 {
		return nil
	}
	ctx := blst.PairingCtx(true, o.conf.DST)
	for i, s := range o.resolved {
		r, _, err := blindingScalar(o.conf)
		if err != nil {
			return err
		}
		code := blst.PairingMulNAggregatePkInG1(ctx, s.pk, true, s.sig, true, r, o.conf.RandBytes*8, s.msg)
		if err := curveError(code); err != nil {
			return argError("signatureSets", i, err)
		}
	}
	blst.PairingCommit(ctx)
	o.result = blst.PairingFinalVerify(ctx)
	return nil
}

func (o *verifyMultipleOp) Collect() (bool, error) { return o.result, nil }

// AggregatedSet is the result of AggregateWithRandomness
type AggregatedSet struct {
	PublicKey *PublicKey
	Signature *Signature
}

type aggregateWithRandomnessOp struct {
	conf *Config
	sets []*AggregationSet

	pks    []*blst.P1Affine
	sigs   []*blst.P2Affine
	pkAcc  blst.P1
	sigAcc blst.P2
}

func (o *aggregateWithRandomnessOp) Setup() error {
	if len(o.sets) == 0 {
		return argError("sets", -1, ErrEmptyInput)
	}
	o.pks = make([]*blst.P1Affine, len(o.sets))
	o.sigs = make([]*blst.P2Affine, len(o.sets))
	for i, s := range o.sets {
		if s == nil {
			return argError("sets", i, ErrInvalidArgumentShape)
		}
		var err error
		if o.pks[i], err = publicKeyAffine(s.PublicKey); err != nil {
			return argError("sets", i, argError("publicKey", -1, err))
		}
		if o.sigs[i], err = signatureAffine(s.Signature); err != nil {
			return argError("sets", i, argError("signature", -1, err))
		}
	}
	return nil
}

func (o *aggregateWithRandomnessOp) Execute() error {
	for i := range o.sets {
		if !o.sigs[i].SigValidate(false) {
			return argError("sets", i, argError("signature", -1, PointNotInGroup))
		}
		_, r, err := blindingScalar(o.conf)
		if err != nil {
			return err
		}
		var pk blst.P1
		pk.FromAffine(o.pks[i])
		pk.MultAssign(r)
		var sig blst.P2
		sig.FromAffine(o.sigs[i])
		sig.MultAssign(r)
		if i == 0 {
			o.pkAcc, o.sigAcc = pk, sig
		} else {
			o.pkAcc.AddAssign(&pk)
			o.sigAcc.AddAssign(&sig)
		}
	}
	return nil
}

func (o *aggregateWithRandomnessOp) Collect() (*AggregatedSet, error) {
	return &AggregatedSet{
		PublicKey: newPublicKeyJacobian(&o.pkAcc),
		Signature: newSignatureJacobian(&o.sigAcc),
	}, nil
}
