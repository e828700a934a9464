package bls

import (
	"errors"
	"fmt"

	"github.com/signatory-io/bls-core/crypto/bls/coord"
)

var (
	ErrInvalidArgumentShape = errors.New("invalid argument shape")
	ErrInvalidLength        = errors.New("invalid length")
	ErrInvalidZeroKey       = errors.New("must not be zero key")
	ErrWrongHandleType      = errors.New("wrong handle type")
	ErrNotInitialized       = coord.ErrNotInitialized
	ErrCurveArithmetic      = errors.New("curve arithmetic error")
	ErrLengthMismatch       = errors.New("length mismatch")
	ErrEmptyInput           = errors.New("empty input")
	ErrZeroSecretKey        = errors.New("can't sign with zero secret key")
)

// CurveError is a status code returned by the curve library. The numeric
// values follow BLST_ERROR.
type CurveError int

const (
	BadEncoding CurveError = 1 + iota
	PointNotOnCurve
	PointNotInGroup
	AggrTypeMismatch
	VerifyFail
	PkIsInfinity
	BadScalar
)

func (e CurveError) Error() string {
	var msg string
	switch e {
	case BadEncoding:
		msg = "Invalid encoding"
	case PointNotOnCurve:
		msg = "Point not on curve"
	case PointNotInGroup:
		msg = "Point not in group"
	case AggrTypeMismatch:
		msg = "Aggregation type mismatch"
	case VerifyFail:
		msg = "Verification failed"
	case PkIsInfinity:
		msg = "Public key is infinity"
	case BadScalar:
		msg = "Invalid scalar"
	default:
		msg = fmt.Sprintf("Unknown error %d", int(e))
	}
	return "BLST_ERROR: " + msg
}

func (e CurveError) Is(target error) bool { return target == ErrCurveArithmetic }

// curveError converts a blst return code, returning nil on success
func curveError(code int) error {
	if code == 0 {
		return nil
	}
	return CurveError(code)
}

// LengthError reports a byte string of unexpected size
type LengthError struct {
	Got      int
	Expected []int
	AtLeast  bool
}

func (e *LengthError) Error() string {
	switch {
	case e.AtLeast:
		return fmt.Sprintf("must be at least %d bytes, got %d", e.Expected[0], e.Got)
	case len(e.Expected) == 1:
		return fmt.Sprintf("must be %d bytes, got %d", e.Expected[0], e.Got)
	default:
		return fmt.Sprintf("must be %d or %d bytes, got %d", e.Expected[0], e.Expected[1], e.Got)
	}
}

func (e *LengthError) Is(target error) bool { return target == ErrInvalidLength }

// ArgError attaches the argument name and, for slice arguments, the element
// index to the underlying cause
type ArgError struct {
	Name  string
	Index int // -1 for scalar arguments
	Err   error
}

func (e *ArgError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("%s at index %d: %v", e.Name, e.Index, e.Err)
}

func (e *ArgError) Unwrap() error { return e.Err }

func argError(name string, index int, err error) error {
	if err == nil {
		return nil
	}
	return &ArgError{Name: name, Index: index, Err: err}
}
