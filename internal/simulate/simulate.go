// Package simulate produces signature sets with bit-length timing leakage:
// the reported duration of every signature grows linearly with the
// bit-length of its nonce, optionally blurred by Gaussian noise.
package simulate

import (
	"crypto/rand"
	"errors"
	"fmt"
	"hash"
	"io"
	"math/big"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/mahdiidarabi/ecdsa-hnp/internal/parser"
	"github.com/mahdiidarabi/ecdsa-hnp/pkg/ec"
)

// Config describes a simulated device.
type Config struct {
	Count int     // number of signatures
	Base  int64   // constant part of every duration
	TTime int64   // duration per nonce bit
	SDev  float64 // standard deviation of the noise, 0 for none
	// NonceBits caps the nonces below 2^NonceBits, modelling a generator
	// that leaks more than the usual distribution does. 0 uses [1, n).
	NonceBits int
	DataLen   int // length of the random signed message
	// Rand is the randomness source for keys, nonces and the message.
	Rand io.Reader
}

// DefaultConfig returns a noiseless device with one time unit per bit.
func DefaultConfig() Config {
	return Config{
		Count:   1000,
		TTime:   1,
		DataLen: 64,
		Rand:    rand.Reader,
	}
}

// Result is a simulated signature file along with its nonces.
type Result struct {
	File   *parser.File
	Nonces []*big.Int
}

// Run signs a random message Count times with a fresh key.
func Run(curve *ec.Curve, newHash func() hash.Hash, cfg Config) (*Result, error) {
	if cfg.Count <= 0 {
		return nil, errors.New("simulate: count must be positive")
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.Reader
	}
	n := curve.N()
	if cfg.NonceBits < 0 || cfg.NonceBits > n.BitLen() {
		return nil, fmt.Errorf("simulate: nonce bits %d outside [0, %d]", cfg.NonceBits, n.BitLen())
	}

	priv, err := randNonZero(cfg.Rand, n)
	if err != nil {
		return nil, err
	}
	pub, err := curve.ScalarBaseMult(priv)
	if err != nil {
		return nil, err
	}
	pubBytes, err := curve.EncodePoint(pub, false)
	if err != nil {
		return nil, err
	}
	data := make([]byte, cfg.DataLen)
	if _, err := io.ReadFull(cfg.Rand, data); err != nil {
		return nil, fmt.Errorf("simulate: message: %w", err)
	}
	h := newHash()
	h.Write(data)
	hm := hashToInt(h.Sum(nil), n.BitLen())

	noise := func() float64 { return 0 }
	if cfg.SDev > 0 {
		dist := distuv.Normal{Mu: 0, Sigma: cfg.SDev}
		noise = dist.Rand
	}

	kmax := n
	if cfg.NonceBits > 0 && cfg.NonceBits < n.BitLen() {
		kmax = new(big.Int).Lsh(big.NewInt(1), uint(cfg.NonceBits))
	}

	res := &Result{
		File: &parser.File{
			PublicKey:  pubBytes,
			Data:       data,
			PrivateKey: priv,
			Records:    make([]parser.Record, 0, cfg.Count),
		},
		Nonces: make([]*big.Int, 0, cfg.Count),
	}
	for len(res.Nonces) < cfg.Count {
		k, err := randNonZero(cfg.Rand, kmax)
		if err != nil {
			return nil, err
		}
		r, s, err := sign(curve, priv, hm, k)
		if err != nil {
			return nil, err
		}
		if r == nil {
			continue
		}
		elapsed := cfg.Base + cfg.TTime*int64(k.BitLen()) + int64(noise())
		res.File.Records = append(res.File.Records, parser.Record{R: r, S: s, Elapsed: elapsed})
		res.Nonces = append(res.Nonces, k)
	}
	return res, nil
}

// sign returns the ECDSA signature with nonce k, or nil r when k yields a
// degenerate signature.
func sign(curve *ec.Curve, priv, hm, k *big.Int) (*big.Int, *big.Int, error) {
	n := curve.N()
	pt, err := curve.ScalarBaseMult(k)
	if err != nil {
		return nil, nil, err
	}
	if pt.IsIdentity() {
		return nil, nil, nil
	}
	r := new(big.Int).Mod(pt.X(), n)
	if r.Sign() == 0 {
		return nil, nil, nil
	}
	kinv, err := ec.NewMod(k, n).Inverse()
	if err != nil {
		return nil, nil, err
	}
	s := new(big.Int).Mul(r, priv)
	s.Add(s, hm)
	s.Mul(s, kinv.Int())
	s.Mod(s, n)
	if s.Sign() == 0 {
		return nil, nil, nil
	}
	return r, s, nil
}

func randNonZero(r io.Reader, max *big.Int) (*big.Int, error) {
	for {
		k, err := rand.Int(r, max)
		if err != nil {
			return nil, fmt.Errorf("simulate: random scalar: %w", err)
		}
		if k.Sign() != 0 {
			return k, nil
		}
	}
}

func hashToInt(digest []byte, orderBits int) *big.Int {
	h := new(big.Int).SetBytes(digest)
	if excess := len(digest)*8 - orderBits; excess > 0 {
		h.Rsh(h, uint(excess))
	}
	return h
}

// Summary describes the leakage of a simulated set.
type Summary struct {
	ElapsedMean   float64
	ElapsedStdDev float64
	BitsMean      float64
	BitsMedian    float64
	// Correlation between duration and nonce bit-length; 1 is a perfect
	// side channel.
	Correlation float64
}

// Summary computes statistics over the simulated signatures.
func (r *Result) Summary() Summary {
	elapsed := make(stats.Float64Data, len(r.Nonces))
	bits := make(stats.Float64Data, len(r.Nonces))
	for i, k := range r.Nonces {
		elapsed[i] = float64(r.File.Records[i].Elapsed)
		bits[i] = float64(k.BitLen())
	}
	var sum Summary
	sum.ElapsedMean, _ = stats.Mean(elapsed)
	sum.ElapsedStdDev, _ = stats.StandardDeviation(elapsed)
	sum.BitsMean, _ = stats.Mean(bits)
	sum.BitsMedian, _ = stats.Median(bits)
	sum.Correlation, _ = stats.Correlation(elapsed, bits)
	return sum
}
