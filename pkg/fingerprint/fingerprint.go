// Package fingerprint implements the version bookkeeping that rides along
// with every survey step: an XOR fold of 128-bit question version tokens,
// and a monotonic timestamp fold.
//
// It is the single place that defines how VersionFingerprint and UpdatedAt
// combine; pkg/engine is its only mutating caller.
package fingerprint

import (
	"time"

	"github.com/google/uuid"
)

// Fold XOR-combines token into fp. XOR is its own inverse, so folding the
// same token in twice removes it:
//
//	Fold(Fold(f, t), t) == f
//
// Forward steps fold in the token of the question being entered; revert
// folds the same token again, exactly undoing that step.
func Fold(fp, token uuid.UUID) uuid.UUID {
	for i := range fp {
		fp[i] ^= token[i]
	}
	return fp
}

// Later returns the later of a and b. Unlike Fold it is not reversible:
// a survey's UpdatedAt keeps the highest timestamp ever seen on its path,
// even after reverting past the question that set it.
func Later(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
