package ec

import (
	"errors"
	"fmt"
	"math/big"
)

const (
	tagIdentity     = 0x00
	tagCompressed   = 0x02
	tagUncompressed = 0x04
	tagHybridEven   = 0x06
	tagHybridOdd    = 0x07
)

// EncodePoint serializes pt in SEC1 form at the field byte width. The
// identity encodes to a single zero byte.
func (c *Curve) EncodePoint(pt Point, compressed bool) ([]byte, error) {
	if !c.Equal(pt.curve) {
		return nil, ErrDomainMismatch
	}
	if pt.inf {
		return []byte{tagIdentity}, nil
	}
	size := c.fieldByteSize()
	if !compressed {
		out := make([]byte, 1+2*size)
		out[0] = tagUncompressed
		pt.x.FillBytes(out[1 : 1+size])
		pt.y.FillBytes(out[1+size:])
		return out, nil
	}

	out := make([]byte, 1+size)
	out[0] = tagCompressed | c.compressionBit(pt.x, pt.y)
	pt.x.FillBytes(out[1:])
	return out, nil
}

// compressionBit is the low bit of y for prime curves and of y/x for
// binary curves.
func (c *Curve) compressionBit(x, y *big.Int) byte {
	if c.kind == KindPrime {
		return byte(y.Bit(0))
	}
	if x.Sign() == 0 {
		return 0
	}
	z, err := c.field.Divide(y, x)
	if err != nil {
		return 0
	}
	return byte(z.Bit(0))
}

// DecodePoint parses a SEC1 encoded point of c.
func (c *Curve) DecodePoint(data []byte) (Point, error) {
	if len(data) == 0 {
		return Point{}, fmt.Errorf("empty input: %w", ErrInvalidEncoding)
	}
	size := c.fieldByteSize()
	switch data[0] {
	case tagIdentity:
		if len(data) != 1 {
			return Point{}, fmt.Errorf("identity encoding with %d trailing bytes: %w", len(data)-1, ErrInvalidEncoding)
		}
		return c.Identity(), nil
	case tagUncompressed, tagHybridEven, tagHybridOdd:
		if len(data) != 1+2*size {
			return Point{}, fmt.Errorf("wrong size for point encoding, should be %d, but is %d: %w", 1+2*size, len(data), ErrInvalidEncoding)
		}
		x := new(big.Int).SetBytes(data[1 : 1+size])
		y := new(big.Int).SetBytes(data[1+size:])
		pt, err := c.NewPoint(x, y)
		if err != nil {
			return Point{}, err
		}
		if data[0] != tagUncompressed && c.compressionBit(x, y) != data[0]&1 {
			return Point{}, fmt.Errorf("hybrid tag 0x%02x does not match y: %w", data[0], ErrInvalidEncoding)
		}
		return pt, nil
	case tagCompressed, tagCompressed | 1:
		if len(data) != 1+size {
			return Point{}, fmt.Errorf("wrong size for compressed point encoding, should be %d, but is %d: %w", 1+size, len(data), ErrInvalidEncoding)
		}
		x := new(big.Int).SetBytes(data[1:])
		if !c.contains(x) {
			return Point{}, ErrPointNotOnCurve
		}
		bit := uint(data[0] & 1)
		if c.kind == KindBinary {
			return c.decompressBinary(x, bit)
		}
		return c.decompressPrime(x, bit)
	default:
		return Point{}, fmt.Errorf("unknown tag 0x%02x: %w", data[0], ErrInvalidEncoding)
	}
}

func (c *Curve) decompressPrime(x *big.Int, bit uint) (Point, error) {
	rhs := c.primeRHS(x)
	var y *big.Int
	if rhs.Sign() == 0 {
		if bit == 1 {
			return Point{}, ErrPointNotOnCurve
		}
		y = new(big.Int)
	} else {
		root, err := NewMod(rhs, c.p).sqrt()
		if errors.Is(err, ErrNoSquareRoot) {
			return Point{}, fmt.Errorf("x has no matching y: %w", ErrPointNotOnCurve)
		}
		if err != nil {
			return Point{}, err
		}
		y = root.x
		if y.Bit(0) != bit {
			y = new(big.Int).Sub(c.p, y)
		}
	}
	return Point{curve: c, x: new(big.Int).Set(x), y: y}, nil
}

// decompressBinary solves z^2 + z = x + a + b/x^2 for z = y/x.
func (c *Curve) decompressBinary(x *big.Int, bit uint) (Point, error) {
	f := c.field
	if f.N()%2 != 1 {
		return Point{}, fmt.Errorf("point decompression over even degree field: %w", ErrUnsupported)
	}
	if x.Sign() == 0 {
		if bit != 0 {
			return Point{}, fmt.Errorf("compressed point with x = 0 and odd tag: %w", ErrInvalidEncoding)
		}
		return Point{curve: c, x: new(big.Int), y: f.Sqrt(c.b)}, nil
	}

	xinv, err := f.Inverse(x)
	if err != nil {
		return Point{}, err
	}
	rhs := f.Add(f.Add(x, c.a), f.Mul(c.b, f.Square(xinv)))
	z, err := f.HalfTrace(rhs)
	if err != nil {
		return Point{}, err
	}
	if f.Add(f.Square(z), z).Cmp(rhs) != 0 {
		return Point{}, fmt.Errorf("x has no matching y: %w", ErrPointNotOnCurve)
	}
	if z.Bit(0) != bit {
		z.Xor(z, bigOne)
	}
	return Point{curve: c, x: new(big.Int).Set(x), y: f.Mul(x, z)}, nil
}
