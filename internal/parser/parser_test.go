package parser

import (
	"bytes"
	"math/big"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFile() *File {
	return &File{
		PublicKey:  []byte{0x04, 0x01, 0x02},
		Data:       []byte("hello"),
		PrivateKey: big.NewInt(0xabcdef),
		Records: []Record{
			{R: big.NewInt(0x1234), S: big.NewInt(0x5678), Elapsed: 1000},
			{R: big.NewInt(0xf), S: big.NewInt(0x10), Elapsed: 999},
		},
	}
}

func assertSameFile(t *testing.T, want, got *File) {
	t.Helper()
	assert.Equal(t, want.PublicKey, got.PublicKey)
	assert.Equal(t, want.Data, got.Data)
	if want.PrivateKey == nil {
		assert.Nil(t, got.PrivateKey)
	} else {
		require.NotNil(t, got.PrivateKey)
		assert.Equal(t, 0, want.PrivateKey.Cmp(got.PrivateKey))
	}
	require.Len(t, got.Records, len(want.Records))
	for i := range want.Records {
		assert.Equal(t, 0, want.Records[i].R.Cmp(got.Records[i].R), "record %d r", i)
		assert.Equal(t, 0, want.Records[i].S.Cmp(got.Records[i].S), "record %d s", i)
		assert.Equal(t, want.Records[i].Elapsed, got.Records[i].Elapsed, "record %d elapsed", i)
	}
}

func TestReadCSV(t *testing.T) {
	input := "040102 68656c6c6f abcdef\n1234,5678,1000\nf,10,999\n"
	f, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	assertSameFile(t, sampleFile(), f)
}

func TestReadCSVWithoutPrivateKey(t *testing.T) {
	f, err := ReadCSV(strings.NewReader("040102 68656c6c6f\n1,2,3"))
	require.NoError(t, err)
	assert.Nil(t, f.PrivateKey)
	require.Len(t, f.Records, 1)
	assert.Equal(t, int64(3), f.Records[0].Elapsed)
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"short header", "040102\n"},
		{"bad pubkey", "zz 00\n"},
		{"bad r", "04 00\nxyz,1,1\n"},
		{"bad elapsed", "04 00\n1,1,fast\n"},
		{"wrong field count", "04 00\n1,1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestCSVRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleFile()))
	f, err := ReadCSV(&buf)
	require.NoError(t, err)
	assertSameFile(t, sampleFile(), f)
}

func TestReadJSON(t *testing.T) {
	input := `{
		"public_key": "040102",
		"data": "68656c6c6f",
		"private_key": "abcdef",
		"signatures": [
			{"r": "0x1234", "s": "0x5678", "elapsed": 1000},
			{"r": 15, "s": "16", "elapsed": "999"}
		]
	}`
	f, err := ReadJSON(strings.NewReader(input))
	require.NoError(t, err)
	assertSameFile(t, sampleFile(), f)
}

func TestReadJSONErrors(t *testing.T) {
	_, err := ReadJSON(strings.NewReader(`{"signatures": []}`))
	assert.ErrorIs(t, err, ErrFormat)
	_, err = ReadJSON(strings.NewReader(`{"public_key": "04"}`))
	assert.ErrorIs(t, err, ErrFormat)
	_, err = ReadJSON(strings.NewReader(`{"public_key": "04", "signatures": [{"s": "1"}]}`))
	assert.ErrorIs(t, err, ErrFormat)
	_, err = ReadJSON(strings.NewReader(`[`))
	assert.Error(t, err)
}

func TestFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	for _, format := range []Format{FormatCSV, FormatJSON} {
		path := filepath.Join(dir, "sigs."+string(format))
		require.NoError(t, WriteFile(path, format, sampleFile()))
		f, err := ParseFile(path, format)
		require.NoError(t, err, format)
		assertSameFile(t, sampleFile(), f)
	}

	_, err := ParseFile(filepath.Join(dir, "missing.csv"), FormatCSV)
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" JSON ")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)
	_, err = ParseFormat("pickle")
	assert.Error(t, err)
}

func TestParseBigInt(t *testing.T) {
	tests := []struct {
		in   interface{}
		want int64
	}{
		{"0x1f", 31},
		{"ff", 255},
		{"123", 123},
		{int64(7), 7},
		{8, 8},
		{float64(9), 9},
	}
	for _, tt := range tests {
		v, err := parseBigInt(tt.in)
		require.NoError(t, err, "%v", tt.in)
		assert.Equal(t, tt.want, v.Int64(), "%v", tt.in)
	}
	_, err := parseBigInt([]int{1})
	assert.Error(t, err)
}
