// Package coord keeps a curve point in Jacobian and/or Affine coordinates and
// converts between them lazily.
//
// Jacobian coordinates make repeated additions cheap while pairings require
// Affine inputs. A Point is created with exactly one form; the other one is
// computed on first request and cached for the lifetime of the Point.
package coord

import (
	"errors"
	"fmt"
)

type Form uint8

const (
	Jacobian Form = iota
	Affine
)

func (f Form) String() string {
	switch f {
	case Jacobian:
		return "jacobian"
	case Affine:
		return "affine"
	default:
		return fmt.Sprintf("Form(%d)", f)
	}
}

func (f Form) MarshalText() ([]byte, error) {
	if f != Jacobian && f != Affine {
		return nil, fmt.Errorf("coord: unknown form %d", f)
	}
	return []byte(f.String()), nil
}

func (f *Form) UnmarshalText(text []byte) error {
	switch string(text) {
	case "jacobian":
		*f = Jacobian
	case "affine":
		*f = Affine
	default:
		return fmt.Errorf("coord: unknown form `%s'", string(text))
	}
	return nil
}

var ErrNotInitialized = errors.New("point is not initialized")

// Converter holds the conversion functions of one group
type Converter[J, A any] struct {
	ToAffine   func(*J) *A
	ToJacobian func(*A) *J
}

// Point is not safe for concurrent use. Values returned by Jacobian and Affine
// are borrowed and must not be modified.
type Point[J, A any] struct {
	jac   *J
	aff   *A
	conv  *Converter[J, A]
	convs int
}

func NewJacobian[J, A any](p *J, conv *Converter[J, A]) *Point[J, A] {
	return &Point[J, A]{jac: p, conv: conv}
}

func NewAffine[J, A any](p *A, conv *Converter[J, A]) *Point[J, A] {
	return &Point[J, A]{aff: p, conv: conv}
}

func (p *Point[J, A]) Has(f Form) bool {
	if p == nil {
		return false
	}
	if f == Jacobian {
		return p.jac != nil
	}
	return p.aff != nil
}

// Jacobian returns the Jacobian form, converting from Affine at most once
func (p *Point[J, A]) Jacobian() (*J, error) {
	if p == nil {
		return nil, ErrNotInitialized
	}
	if p.jac == nil {
		if p.aff == nil {
			return nil, ErrNotInitialized
		}
		p.jac = p.conv.ToJacobian(p.aff)
		p.convs++
	}
	return p.jac, nil
}

// Affine returns the Affine form, converting from Jacobian at most once
func (p *Point[J, A]) Affine() (*A, error) {
	if p == nil {
		return nil, ErrNotInitialized
	}
	if p.aff == nil {
		if p.jac == nil {
			return nil, ErrNotInitialized
		}
		p.aff = p.conv.ToAffine(p.jac)
		p.convs++
	}
	return p.aff, nil
}

// Get returns the requested form
func (p *Point[J, A]) Get(f Form) (jac *J, aff *A, err error) {
	if f == Jacobian {
		jac, err = p.Jacobian()
	} else {
		aff, err = p.Affine()
	}
	return
}

// Peek returns whatever forms are present without converting
func (p *Point[J, A]) Peek() (*J, *A) {
	if p == nil {
		return nil, nil
	}
	return p.jac, p.aff
}

// Conversions returns the number of coordinate conversions performed so far
func (p *Point[J, A]) Conversions() int {
	if p == nil {
		return 0
	}
	return p.convs
}
