package hnp

import (
	"fmt"
	"hash"
	"math/big"

	"github.com/mahdiidarabi/ecdsa-hnp/internal/parser"
	"github.com/mahdiidarabi/ecdsa-hnp/pkg/ec"
)

// Sample is one collected signature and its signing duration.
type Sample struct {
	R       *big.Int
	S       *big.Int
	Elapsed int64
}

// SignatureSet is a pre-collected attack input: every sample signs Data
// under PublicKey.
type SignatureSet struct {
	PublicKey []byte // encoded point
	Data      []byte
	// PrivateKey is only set for simulated or otherwise controlled data.
	PrivateKey *big.Int
	Samples    []Sample
}

// SignatureParser defines the interface for loading signature sets.
type SignatureParser interface {
	// ParseSignatures reads a signature set from source.
	ParseSignatures(source string) (*SignatureSet, error)
}

// CSVParser reads the text format: a "pubkey data [privkey]" hex header
// line followed by r,s,elapsed rows with hex r and s.
type CSVParser struct{}

// ParseSignatures implements SignatureParser.
func (CSVParser) ParseSignatures(source string) (*SignatureSet, error) {
	f, err := parser.ParseFile(source, parser.FormatCSV)
	if err != nil {
		return nil, err
	}
	return setFromFile(f), nil
}

// JSONParser reads signature sets stored as JSON.
type JSONParser struct{}

// ParseSignatures implements SignatureParser.
func (JSONParser) ParseSignatures(source string) (*SignatureSet, error) {
	f, err := parser.ParseFile(source, parser.FormatJSON)
	if err != nil {
		return nil, err
	}
	return setFromFile(f), nil
}

// NewParser returns the parser for a format name ("csv" or "json").
func NewParser(format string) (SignatureParser, error) {
	f, err := parser.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	if f == parser.FormatJSON {
		return JSONParser{}, nil
	}
	return CSVParser{}, nil
}

func setFromFile(f *parser.File) *SignatureSet {
	set := &SignatureSet{
		PublicKey:  f.PublicKey,
		Data:       f.Data,
		PrivateKey: f.PrivateKey,
		Samples:    make([]Sample, len(f.Records)),
	}
	for i, r := range f.Records {
		set.Samples[i] = Sample{R: r.R, S: r.S, Elapsed: r.Elapsed}
	}
	return set
}

// File converts the set back to its file representation.
func (set *SignatureSet) File() *parser.File {
	f := &parser.File{
		PublicKey:  set.PublicKey,
		Data:       set.Data,
		PrivateKey: set.PrivateKey,
		Records:    make([]parser.Record, len(set.Samples)),
	}
	for i, s := range set.Samples {
		f.Records[i] = parser.Record{R: s.R, S: s.S, Elapsed: s.Elapsed}
	}
	return f
}

// Signatures derives the HNP form of every sample, in collection order.
func (set *SignatureSet) Signatures(curve *ec.Curve, newHash func() hash.Hash) ([]*Signature, error) {
	h := newHash()
	h.Write(set.Data)
	digest := h.Sum(nil)

	sigs := make([]*Signature, len(set.Samples))
	for i, s := range set.Samples {
		sig, err := NewSignatureFromDigest(curve, digest, s.R, s.S, s.Elapsed)
		if err != nil {
			return nil, fmt.Errorf("signature %d: %w", i, err)
		}
		sigs[i] = sig
	}
	return sigs, nil
}
