package hnp

import "errors"

var (
	// ErrBadBoundPolicy is returned for unknown or misconfigured bound
	// policies.
	ErrBadBoundPolicy = errors.New("hnp: bad bound policy")

	// ErrAttackExhausted is the normal negative outcome: the reduction
	// schedule completed without a verified key.
	ErrAttackExhausted = errors.New("hnp: attack exhausted without recovering the key")

	// ErrUnknownHash is returned by NewHash for unsupported names.
	ErrUnknownHash = errors.New("hnp: unknown hash algorithm")

	// ErrBadParams is returned for invalid attack parameters.
	ErrBadParams = errors.New("hnp: bad attack parameters")

	// ErrInvalidSignature is returned for signature components outside
	// [1, n-1].
	ErrInvalidSignature = errors.New("hnp: invalid signature")
)
