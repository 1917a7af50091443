package ec

import (
	"fmt"
	"math/big"
	"strings"
)

// FField is the binary field GF(2^n), with elements represented as bit
// patterns of polynomials over GF(2) reduced modulo an irreducible generator
// of degree n.
//
// The raw methods take and return canonical *big.Int values and never mutate
// their arguments. FElement wraps them with field checks.
type FField struct {
	n   int
	gen *big.Int
}

// NewFField constructs GF(2^n) from the sparse exponent list of its
// generator polynomial, e.g. NewFField(163, 163, 7, 6, 3, 0) for
// x^163 + x^7 + x^6 + x^3 + 1.
func NewFField(n int, exps ...int) (*FField, error) {
	if n < 1 {
		return nil, fmt.Errorf("binary field degree %d: %w", n, ErrUnsupported)
	}
	gen := new(big.Int)
	for _, e := range exps {
		if e < 0 || e > n {
			return nil, fmt.Errorf("generator exponent %d out of range for degree %d: %w", e, n, ErrUnsupported)
		}
		gen.SetBit(gen, e, 1)
	}
	if gen.BitLen()-1 != n || gen.Bit(0) == 0 {
		return nil, fmt.Errorf("generator of degree %d must contain x^%d and 1: %w", n, n, ErrUnsupported)
	}
	return &FField{n: n, gen: gen}, nil
}

// N returns the extension degree.
func (f *FField) N() int {
	return f.n
}

// Generator returns a copy of the dense generator polynomial.
func (f *FField) Generator() *big.Int {
	return new(big.Int).Set(f.gen)
}

// Equal reports whether both fields share degree and generator.
func (f *FField) Equal(o *FField) bool {
	if f == o {
		return true
	}
	if f == nil || o == nil {
		return false
	}
	return f.n == o.n && f.gen.Cmp(o.gen) == 0
}

// Contains reports whether v is a canonical element of the field.
func (f *FField) Contains(v *big.Int) bool {
	return v.Sign() >= 0 && v.BitLen() <= f.n
}

// Degree returns the degree of v as a polynomial, 0 for the zero
// polynomial.
func (f *FField) Degree(v *big.Int) int {
	if v.Sign() == 0 {
		return 0
	}
	return v.BitLen() - 1
}

// Add returns a + b.
func (f *FField) Add(a, b *big.Int) *big.Int {
	return new(big.Int).Xor(a, b)
}

// Sub returns a - b, which equals a + b in characteristic two.
func (f *FField) Sub(a, b *big.Int) *big.Int {
	return new(big.Int).Xor(a, b)
}

func (f *FField) mulNoReduce(a, b *big.Int) *big.Int {
	result := new(big.Int)
	shifted := new(big.Int)
	for i := 0; i < b.BitLen(); i++ {
		if b.Bit(i) == 1 {
			shifted.Lsh(a, uint(i))
			result.Xor(result, shifted)
		}
	}
	return result
}

// DivMod divides a by v as polynomials, returning quotient and remainder
// with a = q*v + r.
func (f *FField) DivMod(a, v *big.Int) (q, r *big.Int, err error) {
	if v.Sign() == 0 {
		return nil, nil, ErrNotInvertible
	}
	q, r = f.divmod(a, v)
	return q, r, nil
}

// divmod is schoolbook long division over GF(2), one bit at a time from the
// highest degree term down.
func (f *FField) divmod(a, v *big.Int) (*big.Int, *big.Int) {
	q := new(big.Int)
	r := new(big.Int).Set(a)
	dv := v.BitLen() - 1
	shifted := new(big.Int)
	for i := r.BitLen() - 1; i >= dv; i-- {
		if r.Bit(i) == 1 {
			q.SetBit(q, i-dv, 1)
			shifted.Lsh(v, uint(i-dv))
			r.Xor(r, shifted)
		}
	}
	return q, r
}

func (f *FField) reduce(a *big.Int) *big.Int {
	if a.BitLen() <= f.n {
		return new(big.Int).Set(a)
	}
	_, r := f.divmod(a, f.gen)
	return r
}

// Mul returns a * b reduced modulo the generator.
func (f *FField) Mul(a, b *big.Int) *big.Int {
	return f.reduce(f.mulNoReduce(a, b))
}

// Square returns a^2.
func (f *FField) Square(a *big.Int) *big.Int {
	return f.Mul(a, a)
}

// Inverse returns a^-1 using the polynomial extended Euclidean algorithm
// against the generator.
func (f *FField) Inverse(a *big.Int) (*big.Int, error) {
	u := f.reduce(a)
	if u.Sign() == 0 {
		return nil, ErrNotInvertible
	}
	v := new(big.Int).Set(f.gen)
	g1 := big.NewInt(1)
	g2 := new(big.Int)
	shifted := new(big.Int)
	for u.Cmp(bigOne) != 0 {
		if u.Sign() == 0 {
			// only reachable with a reducible generator
			return nil, ErrNotInvertible
		}
		j := u.BitLen() - v.BitLen()
		if j < 0 {
			u, v = v, u
			g1, g2 = g2, g1
			j = -j
		}
		shifted.Lsh(v, uint(j))
		u.Xor(u, shifted)
		shifted.Lsh(g2, uint(j))
		g1.Xor(g1, shifted)
	}
	return f.reduce(g1), nil
}

// Divide returns a * b^-1.
func (f *FField) Divide(a, b *big.Int) (*big.Int, error) {
	inv, err := f.Inverse(b)
	if err != nil {
		return nil, err
	}
	return f.Mul(a, inv), nil
}

// Exp returns a^e by right-to-left square-and-multiply. A negative exponent
// inverts a first.
func (f *FField) Exp(a, e *big.Int) (*big.Int, error) {
	base := f.reduce(a)
	if e.Sign() < 0 {
		inv, err := f.Inverse(base)
		if err != nil {
			return nil, err
		}
		base = inv
		e = new(big.Int).Neg(e)
	}
	r := big.NewInt(1)
	for i := 0; i < e.BitLen(); i++ {
		if e.Bit(i) == 1 {
			r = f.Mul(r, base)
		}
		base = f.Square(base)
	}
	return r, nil
}

// Sqrt returns the unique square root a^(2^(n-1)), computed as n-1
// repeated squarings.
func (f *FField) Sqrt(a *big.Int) *big.Int {
	r := f.reduce(a)
	for i := 1; i < f.n; i++ {
		r = f.Square(r)
	}
	return r
}

// Trace returns Tr(a) = a + a^2 + ... + a^(2^(n-1)), which is 0 or 1.
// z^2 + z = a is solvable iff Tr(a) == 0.
func (f *FField) Trace(a *big.Int) *big.Int {
	c := f.reduce(a)
	t := new(big.Int).Set(c)
	for i := 1; i < f.n; i++ {
		t = f.Add(f.Square(t), c)
	}
	return t
}

// HalfTrace returns H(a) = sum of a^(2^(2i)) for i in [0, (n-1)/2], a
// solution of z^2 + z = a + Tr(a). Defined for odd n only.
func (f *FField) HalfTrace(a *big.Int) (*big.Int, error) {
	if f.n%2 != 1 {
		return nil, ErrUnsupported
	}
	c := f.reduce(a)
	h := new(big.Int).Set(c)
	for i := 1; i <= (f.n-1)/2; i++ {
		h = f.Square(f.Square(h))
		h = f.Add(h, c)
	}
	return h, nil
}

// Polynomial renders v as a polynomial in x.
func (f *FField) Polynomial(v *big.Int) string {
	if v.Sign() == 0 {
		return "0"
	}
	var terms []string
	for i := v.BitLen() - 1; i > 0; i-- {
		if v.Bit(i) == 1 {
			terms = append(terms, fmt.Sprintf("x^%d", i))
		}
	}
	if v.Bit(0) == 1 {
		terms = append(terms, "1")
	}
	return strings.Join(terms, " + ")
}

func (f *FField) String() string {
	return fmt.Sprintf("F_(2^%d): %s", f.n, f.Polynomial(f.gen))
}

// FElement is an element of a binary field.
type FElement struct {
	f     *big.Int
	field *FField
}

var _ Element = FElement{}

// NewFElement returns v reduced into field.
func NewFElement(v *big.Int, field *FField) FElement {
	return FElement{f: field.reduce(v), field: field}
}

// Field returns the field the element belongs to.
func (e FElement) Field() *FField {
	return e.field
}

func (e FElement) operand(o Element) (FElement, error) {
	other, ok := o.(FElement)
	if !ok || !e.field.Equal(other.field) {
		return FElement{}, ErrDomainMismatch
	}
	return other, nil
}

func (e FElement) Add(o Element) (Element, error) {
	other, err := e.operand(o)
	if err != nil {
		return nil, err
	}
	return FElement{f: e.field.Add(e.f, other.f), field: e.field}, nil
}

func (e FElement) Sub(o Element) (Element, error) {
	return e.Add(o)
}

func (e FElement) Mul(o Element) (Element, error) {
	other, err := e.operand(o)
	if err != nil {
		return nil, err
	}
	return FElement{f: e.field.Mul(e.f, other.f), field: e.field}, nil
}

func (e FElement) Div(o Element) (Element, error) {
	other, err := e.operand(o)
	if err != nil {
		return nil, err
	}
	v, err := e.field.Divide(e.f, other.f)
	if err != nil {
		return nil, err
	}
	return FElement{f: v, field: e.field}, nil
}

// DivMod performs polynomial division of e by o without reduction.
func (e FElement) DivMod(o Element) (q, r FElement, err error) {
	other, err := e.operand(o)
	if err != nil {
		return FElement{}, FElement{}, err
	}
	qv, rv, err := e.field.DivMod(e.f, other.f)
	if err != nil {
		return FElement{}, FElement{}, err
	}
	return FElement{f: qv, field: e.field}, FElement{f: rv, field: e.field}, nil
}

// Neg returns e, since -e == e in characteristic two.
func (e FElement) Neg() Element {
	return e
}

func (e FElement) Inverse() (Element, error) {
	v, err := e.field.Inverse(e.f)
	if err != nil {
		return nil, err
	}
	return FElement{f: v, field: e.field}, nil
}

func (e FElement) Exp(n *big.Int) (Element, error) {
	v, err := e.field.Exp(e.f, n)
	if err != nil {
		return nil, err
	}
	return FElement{f: v, field: e.field}, nil
}

func (e FElement) Sqrt() (Element, error) {
	return FElement{f: e.field.Sqrt(e.f), field: e.field}, nil
}

func (e FElement) Trace() FElement {
	return FElement{f: e.field.Trace(e.f), field: e.field}
}

func (e FElement) HalfTrace() (FElement, error) {
	v, err := e.field.HalfTrace(e.f)
	if err != nil {
		return FElement{}, err
	}
	return FElement{f: v, field: e.field}, nil
}

func (e FElement) Equal(o Element) bool {
	other, ok := o.(FElement)
	if !ok || !e.field.Equal(other.field) {
		return false
	}
	return e.f.Cmp(other.f) == 0
}

func (e FElement) IsZero() bool {
	return e.f.Sign() == 0
}

func (e FElement) Int() *big.Int {
	return new(big.Int).Set(e.f)
}

func (e FElement) String() string {
	return e.f.String()
}
