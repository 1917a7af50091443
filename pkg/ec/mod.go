package ec

import (
	"math/big"
)

var (
	bigOne = big.NewInt(1)
	bigTwo = big.NewInt(2)
)

// Element is a value of either a prime field (Mod) or a binary field
// (FElement). Arithmetic between elements of different fields, or of
// different kinds, fails with ErrDomainMismatch.
type Element interface {
	Add(o Element) (Element, error)
	Sub(o Element) (Element, error)
	Mul(o Element) (Element, error)
	Div(o Element) (Element, error)
	Neg() Element
	Inverse() (Element, error)
	Exp(e *big.Int) (Element, error)
	Sqrt() (Element, error)
	Equal(o Element) bool
	IsZero() bool
	Int() *big.Int
	String() string
}

// Mod is an element x of Z/nZ. The modulus is shared between elements and
// must not be mutated by callers.
type Mod struct {
	x *big.Int
	n *big.Int
}

var _ Element = Mod{}

// NewMod returns x mod n. It panics if n <= 1.
func NewMod(x, n *big.Int) Mod {
	if n == nil || n.Cmp(bigOne) <= 0 {
		panic("ec: modulus must be greater than one")
	}
	return Mod{x: new(big.Int).Mod(x, n), n: n}
}

// Promote maps a plain integer into the field of m.
func (m Mod) Promote(v *big.Int) Mod {
	return NewMod(v, m.n)
}

// Modulus returns a copy of the modulus.
func (m Mod) Modulus() *big.Int {
	return new(big.Int).Set(m.n)
}

func (m Mod) with(v *big.Int) Mod {
	return Mod{x: v.Mod(v, m.n), n: m.n}
}

func (m Mod) operand(e Element) (Mod, error) {
	o, ok := e.(Mod)
	if !ok || o.n == nil || o.n.Cmp(m.n) != 0 {
		return Mod{}, ErrDomainMismatch
	}
	return o, nil
}

// Add returns m + o.
func (m Mod) Add(e Element) (Element, error) {
	o, err := m.operand(e)
	if err != nil {
		return nil, err
	}
	return m.with(new(big.Int).Add(m.x, o.x)), nil
}

// Sub returns m - o.
func (m Mod) Sub(e Element) (Element, error) {
	o, err := m.operand(e)
	if err != nil {
		return nil, err
	}
	return m.with(new(big.Int).Sub(m.x, o.x)), nil
}

// Mul returns m * o.
func (m Mod) Mul(e Element) (Element, error) {
	o, err := m.operand(e)
	if err != nil {
		return nil, err
	}
	return m.with(new(big.Int).Mul(m.x, o.x)), nil
}

// Div returns m * o^-1.
func (m Mod) Div(e Element) (Element, error) {
	o, err := m.operand(e)
	if err != nil {
		return nil, err
	}
	inv, err := o.inverse()
	if err != nil {
		return nil, err
	}
	return m.with(new(big.Int).Mul(m.x, inv.x)), nil
}

// Neg returns -m.
func (m Mod) Neg() Element {
	return m.with(new(big.Int).Neg(m.x))
}

// Inverse returns m^-1 computed with the extended Euclidean algorithm.
func (m Mod) Inverse() (Element, error) {
	inv, err := m.inverse()
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (m Mod) inverse() (Mod, error) {
	if m.x.Sign() == 0 {
		return Mod{}, ErrNotInvertible
	}
	a := new(big.Int)
	g := new(big.Int).GCD(a, nil, m.x, m.n)
	if g.Cmp(bigOne) != 0 {
		return Mod{}, ErrNotInvertible
	}
	return m.with(a), nil
}

// Exp returns m^e. A negative exponent inverts m first.
func (m Mod) Exp(e *big.Int) (Element, error) {
	r, err := m.exp(e)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// exp is right-to-left square-and-multiply.
func (m Mod) exp(e *big.Int) (Mod, error) {
	base := m
	if e.Sign() < 0 {
		inv, err := m.inverse()
		if err != nil {
			return Mod{}, err
		}
		base = inv
		e = new(big.Int).Neg(e)
	}
	q := new(big.Int).Set(base.x)
	r := new(big.Int).Mod(bigOne, m.n)
	for i := 0; i < e.BitLen(); i++ {
		if e.Bit(i) == 1 {
			r.Mul(r, q)
			r.Mod(r, m.n)
		}
		q.Mul(q, q)
		q.Mod(q, m.n)
	}
	return Mod{x: r, n: m.n}, nil
}

// Sqrt returns a square root of m. The modulus must be prime and m a
// nonzero quadratic residue.
func (m Mod) Sqrt() (Element, error) {
	r, err := m.sqrt()
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (m Mod) sqrt() (Mod, error) {
	p := m.n
	if !p.ProbablyPrime(20) {
		return Mod{}, ErrUnsupported
	}
	if m.x.Sign() == 0 || p.Cmp(bigTwo) == 0 || Legendre(m.x, p) != 1 {
		return Mod{}, ErrNoSquareRoot
	}
	if p.Bit(0) == 1 && p.Bit(1) == 1 {
		e := new(big.Int).Add(p, bigOne)
		e.Rsh(e, 2)
		return m.exp(e)
	}

	// Tonelli-Shanks: p - 1 = s * 2^e with s odd.
	s := new(big.Int).Sub(p, bigOne)
	e := 0
	for s.Bit(0) == 0 {
		s.Rsh(s, 1)
		e++
	}
	z := big.NewInt(2)
	for Legendre(z, p) != -1 {
		z.Add(z, bigOne)
	}

	half := new(big.Int).Add(s, bigOne)
	half.Rsh(half, 1)
	x := new(big.Int).Exp(m.x, half, p)
	b := new(big.Int).Exp(m.x, s, p)
	g := new(big.Int).Exp(z, s, p)
	r := e

	for {
		t := new(big.Int).Set(b)
		i := 0
		for ; i < r; i++ {
			if t.Cmp(bigOne) == 0 {
				break
			}
			t.Mul(t, t)
			t.Mod(t, p)
		}
		if i == 0 {
			return Mod{x: x, n: p}, nil
		}
		gs := new(big.Int).Exp(g, new(big.Int).Lsh(bigOne, uint(r-i-1)), p)
		g.Mul(gs, gs)
		g.Mod(g, p)
		x.Mul(x, gs)
		x.Mod(x, p)
		b.Mul(b, g)
		b.Mod(b, p)
		r = i
	}
}

// Equal reports whether o is the same residue of the same modulus.
func (m Mod) Equal(e Element) bool {
	o, ok := e.(Mod)
	if !ok || o.n == nil || m.n == nil {
		return false
	}
	return m.n.Cmp(o.n) == 0 && m.x.Cmp(o.x) == 0
}

// IsZero reports whether m == 0.
func (m Mod) IsZero() bool {
	return m.x.Sign() == 0
}

// Int returns a copy of the canonical representative in [0, n).
func (m Mod) Int() *big.Int {
	return new(big.Int).Set(m.x)
}

func (m Mod) String() string {
	return m.x.String()
}

// Legendre returns the Legendre symbol (a|p) computed with Euler's
// criterion: 1 for residues, -1 for non-residues and 0 when p divides a.
func Legendre(a, p *big.Int) int {
	e := new(big.Int).Sub(p, bigOne)
	e.Rsh(e, 1)
	ls := new(big.Int).Exp(new(big.Int).Mod(a, p), e, p)
	if ls.Cmp(new(big.Int).Sub(p, bigOne)) == 0 {
		return -1
	}
	return int(ls.Int64())
}
