package ec

import (
	"fmt"
	"math/big"
)

// Kind tags the field a curve is defined over.
type Kind int

const (
	// KindPrime is a short Weierstrass curve y^2 = x^3 + ax + b over GF(p).
	KindPrime Kind = iota
	// KindBinary is y^2 + xy = x^3 + ax^2 + b over GF(2^m).
	KindBinary
)

func (k Kind) String() string {
	switch k {
	case KindPrime:
		return "prime"
	case KindBinary:
		return "binary"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// SubGroup describes the prime order subgroup used for ECDSA.
type SubGroup struct {
	Gx, Gy *big.Int
	N      *big.Int
	H      *big.Int
}

// Curve is an elliptic curve over a prime or binary field together with its
// base point subgroup. Curves are immutable once constructed; the returned
// big integers are copies.
type Curve struct {
	name  string
	kind  Kind
	p     *big.Int
	field *FField
	a, b  *big.Int
	group SubGroup
}

// NewPrimeCurve constructs y^2 = x^3 + ax + b over GF(p).
func NewPrimeCurve(name string, p, a, b *big.Int, g SubGroup) (*Curve, error) {
	if p == nil || p.Cmp(bigTwo) <= 0 {
		return nil, fmt.Errorf("curve %s: field modulus must be an odd prime: %w", name, ErrUnsupported)
	}
	c := &Curve{
		name: name,
		kind: KindPrime,
		p:    new(big.Int).Set(p),
		a:    new(big.Int).Mod(a, p),
		b:    new(big.Int).Mod(b, p),
	}
	return c.finish(g)
}

// NewBinaryCurve constructs y^2 + xy = x^3 + ax^2 + b over field.
func NewBinaryCurve(name string, field *FField, a, b *big.Int, g SubGroup) (*Curve, error) {
	if field == nil {
		return nil, fmt.Errorf("curve %s: missing field: %w", name, ErrUnsupported)
	}
	c := &Curve{
		name:  name,
		kind:  KindBinary,
		field: field,
		a:     field.reduce(a),
		b:     field.reduce(b),
	}
	return c.finish(g)
}

func (c *Curve) finish(g SubGroup) (*Curve, error) {
	if c.IsSingular() {
		return nil, fmt.Errorf("curve %s: %w", c.name, ErrSingularCurve)
	}
	if g.N == nil || g.N.Cmp(bigOne) <= 0 {
		return nil, fmt.Errorf("curve %s: subgroup order must be greater than one: %w", c.name, ErrUnsupported)
	}
	if g.Gx == nil || g.Gy == nil || !c.OnCurve(g.Gx, g.Gy) {
		return nil, fmt.Errorf("curve %s: generator: %w", c.name, ErrPointNotOnCurve)
	}
	h := g.H
	if h == nil {
		h = big.NewInt(1)
	}
	c.group = SubGroup{
		Gx: new(big.Int).Set(g.Gx),
		Gy: new(big.Int).Set(g.Gy),
		N:  new(big.Int).Set(g.N),
		H:  new(big.Int).Set(h),
	}
	return c, nil
}

// Name returns the registry name of the curve, possibly empty.
func (c *Curve) Name() string { return c.name }

// Kind returns the field kind.
func (c *Curve) Kind() Kind { return c.kind }

// P returns the prime field modulus, or nil for binary curves.
func (c *Curve) P() *big.Int {
	if c.p == nil {
		return nil
	}
	return new(big.Int).Set(c.p)
}

// Field returns the binary field, or nil for prime curves.
func (c *Curve) Field() *FField { return c.field }

// A returns the a coefficient.
func (c *Curve) A() *big.Int { return new(big.Int).Set(c.a) }

// B returns the b coefficient.
func (c *Curve) B() *big.Int { return new(big.Int).Set(c.b) }

// N returns the order of the base point.
func (c *Curve) N() *big.Int { return new(big.Int).Set(c.group.N) }

// Group returns a copy of the subgroup parameters.
func (c *Curve) Group() SubGroup {
	return SubGroup{
		Gx: new(big.Int).Set(c.group.Gx),
		Gy: new(big.Int).Set(c.group.Gy),
		N:  new(big.Int).Set(c.group.N),
		H:  new(big.Int).Set(c.group.H),
	}
}

// BitSize returns the bit length of the subgroup order.
func (c *Curve) BitSize() int { return c.group.N.BitLen() }

// ByteSize returns the byte length of the subgroup order.
func (c *Curve) ByteSize() int { return (c.BitSize() + 7) / 8 }

// FieldSize returns the bit size of field elements.
func (c *Curve) FieldSize() int {
	if c.kind == KindBinary {
		return c.field.N()
	}
	return c.p.BitLen()
}

func (c *Curve) fieldByteSize() int {
	return (c.FieldSize() + 7) / 8
}

// Element lifts v into the coordinate field of the curve.
func (c *Curve) Element(v *big.Int) Element {
	if c.kind == KindBinary {
		return NewFElement(v, c.field)
	}
	return NewMod(v, c.p)
}

// Equal reports whether both curves have the same field, coefficients and
// subgroup. Names are ignored.
func (c *Curve) Equal(o *Curve) bool {
	if c == o {
		return true
	}
	if c == nil || o == nil || c.kind != o.kind {
		return false
	}
	if c.kind == KindPrime {
		if c.p.Cmp(o.p) != 0 {
			return false
		}
	} else if !c.field.Equal(o.field) {
		return false
	}
	return c.a.Cmp(o.a) == 0 && c.b.Cmp(o.b) == 0 &&
		c.group.Gx.Cmp(o.group.Gx) == 0 && c.group.Gy.Cmp(o.group.Gy) == 0 &&
		c.group.N.Cmp(o.group.N) == 0 && c.group.H.Cmp(o.group.H) == 0
}

// IsSingular reports whether the discriminant vanishes.
func (c *Curve) IsSingular() bool {
	if c.kind == KindBinary {
		return c.b.Sign() == 0
	}
	// 4a^3 + 27b^2
	d := new(big.Int).Exp(c.a, big.NewInt(3), c.p)
	d.Mul(d, big.NewInt(4))
	b2 := new(big.Int).Mul(c.b, c.b)
	b2.Mul(b2, big.NewInt(27))
	d.Add(d, b2)
	d.Mod(d, c.p)
	return d.Sign() == 0
}

func (c *Curve) contains(v *big.Int) bool {
	if v == nil || v.Sign() < 0 {
		return false
	}
	if c.kind == KindBinary {
		return c.field.Contains(v)
	}
	return v.Cmp(c.p) < 0
}

// OnCurve reports whether the affine point (x, y) satisfies the curve
// equation with canonical coordinates.
func (c *Curve) OnCurve(x, y *big.Int) bool {
	if !c.contains(x) || !c.contains(y) {
		return false
	}
	if c.kind == KindBinary {
		f := c.field
		lhs := f.Add(f.Square(y), f.Mul(x, y))
		x2 := f.Square(x)
		rhs := f.Add(f.Add(f.Mul(x2, x), f.Mul(c.a, x2)), c.b)
		return lhs.Cmp(rhs) == 0
	}
	lhs := new(big.Int).Mul(y, y)
	lhs.Mod(lhs, c.p)
	return lhs.Cmp(c.primeRHS(x)) == 0
}

// primeRHS evaluates x^3 + ax + b mod p.
func (c *Curve) primeRHS(x *big.Int) *big.Int {
	r := new(big.Int).Mul(x, x)
	r.Add(r, c.a)
	r.Mul(r, x)
	r.Add(r, c.b)
	return r.Mod(r, c.p)
}

// Add returns the chord sum of two distinct affine points that are not
// inverses of each other.
func (c *Curve) Add(x1, y1, x2, y2 *big.Int) (*big.Int, *big.Int, error) {
	if c.kind == KindBinary {
		return c.binaryAdd(x1, y1, x2, y2)
	}
	return c.primeAdd(x1, y1, x2, y2)
}

// Double returns 2 * (x, y) for a point that is not of order two.
func (c *Curve) Double(x, y *big.Int) (*big.Int, *big.Int, error) {
	if c.kind == KindBinary {
		return c.binaryDouble(x, y)
	}
	return c.primeDouble(x, y)
}

// Negate returns -(x, y).
func (c *Curve) Negate(x, y *big.Int) (*big.Int, *big.Int) {
	if c.kind == KindBinary {
		return new(big.Int).Set(x), c.field.Add(x, y)
	}
	ny := new(big.Int).Neg(y)
	return new(big.Int).Set(x), ny.Mod(ny, c.p)
}

func (c *Curve) primeInverse(v *big.Int) (*big.Int, error) {
	inv, err := NewMod(v, c.p).inverse()
	if err != nil {
		return nil, err
	}
	return inv.x, nil
}

func (c *Curve) primeAdd(x1, y1, x2, y2 *big.Int) (*big.Int, *big.Int, error) {
	p := c.p
	den, err := c.primeInverse(new(big.Int).Sub(x2, x1))
	if err != nil {
		return nil, nil, err
	}
	lm := new(big.Int).Sub(y2, y1)
	lm.Mul(lm, den)
	lm.Mod(lm, p)
	return c.primeChord(lm, x1, y1, x2)
}

func (c *Curve) primeDouble(x, y *big.Int) (*big.Int, *big.Int, error) {
	p := c.p
	den, err := c.primeInverse(new(big.Int).Lsh(y, 1))
	if err != nil {
		return nil, nil, err
	}
	lm := new(big.Int).Mul(x, x)
	lm.Mul(lm, big.NewInt(3))
	lm.Add(lm, c.a)
	lm.Mul(lm, den)
	lm.Mod(lm, p)
	return c.primeChord(lm, x, y, x)
}

// primeChord finishes addition for slope lm through (x1, y1) and x2.
func (c *Curve) primeChord(lm, x1, y1, x2 *big.Int) (*big.Int, *big.Int, error) {
	p := c.p
	x3 := new(big.Int).Mul(lm, lm)
	x3.Sub(x3, x1)
	x3.Sub(x3, x2)
	x3.Mod(x3, p)
	y3 := new(big.Int).Sub(x1, x3)
	y3.Mul(y3, lm)
	y3.Sub(y3, y1)
	y3.Mod(y3, p)
	return x3, y3, nil
}

func (c *Curve) binaryAdd(x1, y1, x2, y2 *big.Int) (*big.Int, *big.Int, error) {
	f := c.field
	lm, err := f.Divide(f.Add(y1, y2), f.Add(x1, x2))
	if err != nil {
		return nil, nil, err
	}
	x3 := f.Add(f.Add(f.Square(lm), lm), f.Add(f.Add(x1, x2), c.a))
	y3 := f.Add(f.Add(f.Mul(lm, f.Add(x1, x3)), x3), y1)
	return x3, y3, nil
}

func (c *Curve) binaryDouble(x, y *big.Int) (*big.Int, *big.Int, error) {
	f := c.field
	q, err := f.Divide(y, x)
	if err != nil {
		return nil, nil, err
	}
	lm := f.Add(x, q)
	x3 := f.Add(f.Add(f.Square(lm), lm), c.a)
	y3 := f.Add(f.Add(f.Square(x), f.Mul(lm, x3)), x3)
	return x3, y3, nil
}

// Identity returns the point at infinity.
func (c *Curve) Identity() Point {
	return Point{curve: c, inf: true}
}

// Generator returns the base point.
func (c *Curve) Generator() Point {
	return Point{curve: c, x: new(big.Int).Set(c.group.Gx), y: new(big.Int).Set(c.group.Gy)}
}

// NewPoint returns the affine point (x, y) after checking it lies on c.
func (c *Curve) NewPoint(x, y *big.Int) (Point, error) {
	if !c.OnCurve(x, y) {
		return Point{}, ErrPointNotOnCurve
	}
	return Point{curve: c, x: new(big.Int).Set(x), y: new(big.Int).Set(y)}, nil
}

// ScalarMult returns k * pt using a ladder over the bits of |k|. On curves
// with cofactor 1 every point has order n, so k is first reduced mod n.
// Otherwise pt may lie outside the base point subgroup and the full scalar
// is used.
func (c *Curve) ScalarMult(k *big.Int, pt Point) (Point, error) {
	if !c.Equal(pt.curve) {
		return Point{}, ErrDomainMismatch
	}
	if c.group.H.Cmp(bigOne) == 0 {
		k = new(big.Int).Mod(k, c.group.N)
	}
	if pt.inf || k.Sign() == 0 {
		return c.Identity(), nil
	}
	kk := new(big.Int).Abs(k)
	addend := pt
	if k.Sign() < 0 {
		addend = pt.Neg()
	}

	r0 := addend
	r1, err := addend.Add(addend)
	if err != nil {
		return Point{}, err
	}
	for i := kk.BitLen() - 2; i >= 0; i-- {
		if kk.Bit(i) == 1 {
			if r0, err = r0.Add(r1); err != nil {
				return Point{}, err
			}
			if r1, err = r1.Add(r1); err != nil {
				return Point{}, err
			}
		} else {
			if r1, err = r0.Add(r1); err != nil {
				return Point{}, err
			}
			if r0, err = r0.Add(r0); err != nil {
				return Point{}, err
			}
		}
	}
	return r0, nil
}

// ScalarBaseMult returns k * G.
func (c *Curve) ScalarBaseMult(k *big.Int) (Point, error) {
	return c.ScalarMult(k, c.Generator())
}

func (c *Curve) String() string {
	if c.kind == KindBinary {
		return fmt.Sprintf("%s over %s: y^2 + xy = x^3 + 0x%x x^2 + 0x%x", c.name, c.field, c.a, c.b)
	}
	return fmt.Sprintf("%s over F_0x%x: y^2 = x^3 + 0x%x x + 0x%x", c.name, c.p, c.a, c.b)
}
