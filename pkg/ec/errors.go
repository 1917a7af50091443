package ec

import "errors"

var (
	// ErrDomainMismatch is returned when operands from different fields or
	// curves are combined.
	ErrDomainMismatch = errors.New("ec: operands belong to different domains")

	// ErrNotInvertible is returned when inverting zero or a value that is not
	// coprime to the modulus.
	ErrNotInvertible = errors.New("ec: element is not invertible")

	// ErrNoSquareRoot is returned when a square root is requested for a
	// non-residue.
	ErrNoSquareRoot = errors.New("ec: element has no square root")

	// ErrUnsupported is returned when an operation is undefined for the
	// shape of the field, e.g. a half-trace over an even-degree field.
	ErrUnsupported = errors.New("ec: operation unsupported for this field")

	// ErrInvalidEncoding is returned for malformed point encodings.
	ErrInvalidEncoding = errors.New("ec: invalid point encoding")

	// ErrPointNotOnCurve is returned when coordinates do not satisfy the
	// curve equation.
	ErrPointNotOnCurve = errors.New("ec: point not on curve")

	// ErrSingularCurve is returned when constructing a curve with a zero
	// discriminant.
	ErrSingularCurve = errors.New("ec: curve is singular")

	// ErrUnknownCurve is returned by GetCurve for names missing from the
	// registry.
	ErrUnknownCurve = errors.New("ec: unknown curve")
)
