package hnp

import (
	"context"
	"fmt"
	"hash"

	"github.com/mahdiidarabi/ecdsa-hnp/pkg/ec"
	"github.com/mahdiidarabi/ecdsa-hnp/pkg/lattice"
)

// Client provides a high-level API for lattice key recovery.
type Client struct {
	curve      *ec.Curve
	newHash    func() hash.Hash
	parser     SignatureParser
	params     Params
	reducer    lattice.Reducer
	enumerator lattice.Enumerator
	observer   Observer
	verifier   Verifier
}

// NewClient creates a client for signatures over curve hashed with
// newHash, using the CSV parser and DefaultParams.
func NewClient(curve *ec.Curve, newHash func() hash.Hash) *Client {
	return &Client{
		curve:      curve,
		newHash:    newHash,
		parser:     CSVParser{},
		params:     DefaultParams(),
		reducer:    lattice.LLL{Delta: lattice.DefaultDelta},
		enumerator: lattice.RowEnumerator{},
		observer:   NopObserver{},
	}
}

// NewClientByName resolves curve and hash names, e.g. "secp256r1" and
// "sha256".
func NewClientByName(curveName, hashName string) (*Client, error) {
	curve, err := ec.GetCurve(curveName)
	if err != nil {
		return nil, err
	}
	newHash, err := NewHash(hashName)
	if err != nil {
		return nil, err
	}
	return NewClient(curve, newHash), nil
}

// WithParser sets a custom signature parser.
func (c *Client) WithParser(parser SignatureParser) *Client {
	c.parser = parser
	return c
}

// WithParams sets the attack parameters.
func (c *Client) WithParams(params Params) *Client {
	c.params = params
	return c
}

// WithReducer sets the lattice reduction engine.
func (c *Client) WithReducer(r lattice.Reducer) *Client {
	c.reducer = r
	return c
}

// WithEnumerator sets the enumerator used by the sieve method.
func (c *Client) WithEnumerator(e lattice.Enumerator) *Client {
	c.enumerator = e
	return c
}

// WithObserver sets the progress observer.
func (c *Client) WithObserver(o Observer) *Client {
	c.observer = o
	return c
}

// WithVerifier replaces the public key check.
func (c *Client) WithVerifier(v Verifier) *Client {
	c.verifier = v
	return c
}

// Curve returns the client curve.
func (c *Client) Curve() *ec.Curve { return c.curve }

// RecoverKey attempts to recover a private key from a signature file.
//
// Args:
//   - ctx: Context for cancellation.
//   - source: Path to the signature file.
//
// Returns:
//   - The Result of the attempt that verified the key, or ErrAttackExhausted.
func (c *Client) RecoverKey(ctx context.Context, source string) (*Result, error) {
	set, err := c.parser.ParseSignatures(source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse signatures: %w", err)
	}
	return c.RecoverKeyFromSignatures(ctx, set)
}

// RecoverKeyFromSignatures attempts to recover a private key from an
// in-memory signature set. A private key present in the set only enables
// the known bound policy and the leakage diagnostics.
func (c *Client) RecoverKeyFromSignatures(ctx context.Context, set *SignatureSet) (*Result, error) {
	if err := c.params.Validate(); err != nil {
		return nil, err
	}
	verifier := c.verifier
	if verifier == nil {
		pub, err := c.curve.DecodePoint(set.PublicKey)
		if err != nil {
			return nil, fmt.Errorf("failed to parse public key: %w", err)
		}
		if verifier, err = NewVerifier(c.curve, pub); err != nil {
			return nil, err
		}
	}

	sigs, err := set.Signatures(c.curve, c.newHash)
	if err != nil {
		return nil, err
	}
	log.Infof("Loaded %d signatures.", len(sigs))

	solver := NewSolver(c.curve, verifier, c.params).
		WithReducer(c.reducer).
		WithEnumerator(c.enumerator).
		WithObserver(c.observer)
	if set.PrivateKey != nil {
		solver = solver.WithPrivateKey(set.PrivateKey)
	}
	return NewCampaign(solver).Run(ctx, sigs)
}
