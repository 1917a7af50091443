package ec

import (
	"fmt"
	"math/big"
)

// Point is an affine point of a curve or the point at infinity. The zero
// value is not usable; obtain points from a Curve.
type Point struct {
	curve *Curve
	x, y  *big.Int
	inf   bool
}

// Curve returns the curve the point belongs to.
func (p Point) Curve() *Curve { return p.curve }

// IsIdentity reports whether p is the point at infinity.
func (p Point) IsIdentity() bool { return p.inf }

// X returns a copy of the affine x coordinate, nil for the identity.
func (p Point) X() *big.Int {
	if p.inf {
		return nil
	}
	return new(big.Int).Set(p.x)
}

// Y returns a copy of the affine y coordinate, nil for the identity.
func (p Point) Y() *big.Int {
	if p.inf {
		return nil
	}
	return new(big.Int).Set(p.y)
}

// Equal reports whether p and q are the same point of the same curve.
func (p Point) Equal(q Point) bool {
	if !p.curve.Equal(q.curve) {
		return false
	}
	if p.inf || q.inf {
		return p.inf == q.inf
	}
	return p.x.Cmp(q.x) == 0 && p.y.Cmp(q.y) == 0
}

// Neg returns -p.
func (p Point) Neg() Point {
	if p.inf {
		return p
	}
	x, y := p.curve.Negate(p.x, p.y)
	return Point{curve: p.curve, x: x, y: y}
}

// Add returns p + q, dispatching to doubling or the identity where the
// chord formula is undefined.
func (p Point) Add(q Point) (Point, error) {
	if !p.curve.Equal(q.curve) {
		return Point{}, ErrDomainMismatch
	}
	if p.inf {
		return q, nil
	}
	if q.inf {
		return p, nil
	}
	if p.Equal(q.Neg()) {
		return p.curve.Identity(), nil
	}

	var (
		x, y *big.Int
		err  error
	)
	if p.Equal(q) {
		x, y, err = p.curve.Double(p.x, p.y)
	} else {
		x, y, err = p.curve.Add(p.x, p.y, q.x, q.y)
	}
	if err != nil {
		return Point{}, fmt.Errorf("point addition: %w", err)
	}
	return Point{curve: p.curve, x: x, y: y}, nil
}

// Sub returns p - q.
func (p Point) Sub(q Point) (Point, error) {
	if !p.curve.Equal(q.curve) {
		return Point{}, ErrDomainMismatch
	}
	return p.Add(q.Neg())
}

// Mul returns k * p.
func (p Point) Mul(k *big.Int) (Point, error) {
	return p.curve.ScalarMult(k, p)
}

func (p Point) String() string {
	if p.inf {
		return "Inf"
	}
	return fmt.Sprintf("(0x%x, 0x%x)", p.x, p.y)
}
