package ec

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFField(t *testing.T) {
	f, err := NewFField(4, 4, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0x13), f.Generator().Int64())
	assert.Equal(t, "x^4 + x + 1", f.Polynomial(f.Generator()))
	assert.Equal(t, "F_(2^4): x^4 + x + 1", f.String())

	_, err = NewFField(4, 3, 1, 0)
	assert.ErrorIs(t, err, ErrUnsupported)
	_, err = NewFField(4, 4, 1)
	assert.ErrorIs(t, err, ErrUnsupported)
	_, err = NewFField(4, 5, 0)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestFFieldArithmetic(t *testing.T) {
	f, err := NewFField(4, 4, 1, 0)
	require.NoError(t, err)

	// (x^3 + 1)(x + 1) = x^4 + x^3 + x + 1 = x^3 mod x^4 + x + 1
	assert.Equal(t, int64(0x8), f.Mul(big.NewInt(0x9), big.NewInt(0x3)).Int64())
	assert.Equal(t, int64(0x6), f.Add(big.NewInt(0x5), big.NewInt(0x3)).Int64())

	q, r, err := f.DivMod(big.NewInt(0x1b), big.NewInt(0x3))
	require.NoError(t, err)
	check := f.Add(f.mulNoReduce(q, big.NewInt(0x3)), r)
	assert.Equal(t, int64(0x1b), check.Int64())
	assert.Less(t, r.BitLen(), 2)

	_, _, err = f.DivMod(big.NewInt(3), new(big.Int))
	assert.ErrorIs(t, err, ErrNotInvertible)
}

func TestFFieldInverseAndSqrt(t *testing.T) {
	f, err := NewFField(4, 4, 1, 0)
	require.NoError(t, err)

	for v := int64(1); v < 16; v++ {
		a := big.NewInt(v)
		inv, err := f.Inverse(a)
		require.NoError(t, err)
		assert.Equal(t, int64(1), f.Mul(a, inv).Int64(), "v=%d", v)

		root := f.Sqrt(a)
		assert.Equal(t, v, f.Square(root).Int64(), "v=%d", v)

		tr := f.Trace(a)
		assert.LessOrEqual(t, tr.Int64(), int64(1))

		neg, err := f.Exp(a, big.NewInt(-3))
		require.NoError(t, err)
		pos, err := f.Exp(a, big.NewInt(3))
		require.NoError(t, err)
		assert.Equal(t, int64(1), f.Mul(neg, pos).Int64())
	}

	_, err = f.Inverse(new(big.Int))
	assert.ErrorIs(t, err, ErrNotInvertible)
	_, err = f.HalfTrace(big.NewInt(3))
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestFFieldHalfTrace(t *testing.T) {
	f, err := NewFField(5, 5, 2, 0)
	require.NoError(t, err)

	solved := 0
	for v := int64(0); v < 32; v++ {
		a := big.NewInt(v)
		z, err := f.HalfTrace(a)
		require.NoError(t, err)
		lhs := f.Add(f.Square(z), z)
		want := f.Add(a, f.Trace(a))
		assert.Equal(t, want.Int64(), lhs.Int64(), "v=%d", v)
		if f.Trace(a).Sign() == 0 {
			solved++
		}
	}
	// exactly half of the field has trace zero
	assert.Equal(t, 16, solved)
}

func TestFElement(t *testing.T) {
	f, err := NewFField(5, 5, 2, 0)
	require.NoError(t, err)
	g, err := NewFField(5, 5, 3, 0)
	require.NoError(t, err)

	a := NewFElement(big.NewInt(0x13), f)
	b := NewFElement(big.NewInt(0x07), f)

	sum, err := a.Add(b)
	require.NoError(t, err)
	diff, err := a.Sub(b)
	require.NoError(t, err)
	assert.True(t, sum.Equal(diff))
	assert.True(t, a.Neg().Equal(a))

	quo, err := a.Div(b)
	require.NoError(t, err)
	back, err := quo.Mul(b)
	require.NoError(t, err)
	assert.True(t, back.Equal(a))

	root, err := a.Sqrt()
	require.NoError(t, err)
	sq, err := root.Mul(root)
	require.NoError(t, err)
	assert.True(t, sq.Equal(a))

	_, err = a.Add(NewFElement(big.NewInt(1), g))
	assert.ErrorIs(t, err, ErrDomainMismatch)
	_, err = a.Mul(mod(1, 7))
	assert.ErrorIs(t, err, ErrDomainMismatch)

	_, err = NewFElement(new(big.Int), f).Inverse()
	assert.ErrorIs(t, err, ErrNotInvertible)

	// reduction on construction: x^5 = x^2 + 1
	assert.Equal(t, int64(0x5), NewFElement(big.NewInt(0x20), f).Int().Int64())
}
