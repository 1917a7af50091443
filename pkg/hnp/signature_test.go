package hnp

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahdiidarabi/ecdsa-hnp/pkg/ec"
)

func TestNewHash(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		digest string
	}{
		{"sha256", "abc", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{"SHA-256", "abc", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{"sha1", "abc", "a9993e364706816aba3e25717850c26c9cd0d89d"},
		{"sha3_256", "abc", "3a985da74fe225b2045c172d6bd390bd855f086e3e9d525b46bfe24511431532"},
		{"ripemd160", "abc", "8eb208f7e05d987a9b044a8e98c6b087f15a0bfc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			newHash, err := NewHash(tt.name)
			require.NoError(t, err)
			h := newHash()
			h.Write([]byte(tt.input))
			assert.Equal(t, tt.digest, hex.EncodeToString(h.Sum(nil)))
		})
	}

	for _, name := range HashNames() {
		newHash, err := NewHash(name)
		require.NoError(t, err, name)
		assert.NotZero(t, newHash().Size(), name)
	}

	_, err := NewHash("md5")
	assert.ErrorIs(t, err, ErrUnknownHash)
}

func TestHashToInt(t *testing.T) {
	digest := make([]byte, 64)
	for i := range digest {
		digest[i] = 0xff
	}
	h := HashToInt(digest, 256)
	assert.Equal(t, 256, h.BitLen())

	short := []byte{0x01, 0x00}
	assert.Equal(t, int64(256), HashToInt(short, 256).Int64())
}

// The derived coefficients must satisfy k = t*x + u (mod n) for the true
// nonce k and private key x.
func TestSignatureHNPRelation(t *testing.T) {
	f := newFixture(t, 6, 0)
	n := f.curve.N()
	x := f.set.PrivateKey

	for i, sig := range f.sigs {
		k := f.nonces[i]

		// (k - u) / t = x
		num := ec.NewMod(new(big.Int).Sub(k, sig.U), n)
		got, err := num.Div(ec.NewMod(sig.T, n))
		require.NoError(t, err)
		assert.Equal(t, 0, got.Int().Cmp(x), "signature %d", i)

		assert.Equal(t, 0, RecomputeNonce(f.curve, sig, x).Cmp(k), "signature %d", i)
		assert.Equal(t, sig.Elapsed, int64(k.BitLen()))
	}
}

func TestNewSignatureRejectsOutOfRange(t *testing.T) {
	curve, err := ec.GetCurve("secp256r1")
	require.NoError(t, err)
	n := curve.N()
	digest := []byte{1, 2, 3}

	_, err = NewSignatureFromDigest(curve, digest, big.NewInt(0), big.NewInt(1), 0)
	assert.ErrorIs(t, err, ErrInvalidSignature)
	_, err = NewSignatureFromDigest(curve, digest, big.NewInt(1), n, 0)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	sig, err := NewSignatureFromDigest(curve, digest, big.NewInt(1), big.NewInt(1), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(1), sig.T.Int64())
	assert.Equal(t, int64(5), sig.Elapsed)
}

func TestSortByTimingIsStable(t *testing.T) {
	sigs := []*Signature{
		{Elapsed: 5, R: big.NewInt(1)},
		{Elapsed: 3, R: big.NewInt(2)},
		{Elapsed: 5, R: big.NewInt(3)},
		{Elapsed: 1, R: big.NewInt(4)},
	}
	SortByTiming(sigs)
	var order []int64
	for _, s := range sigs {
		order = append(order, s.R.Int64())
	}
	assert.Equal(t, []int64{4, 2, 1, 3}, order)
}
