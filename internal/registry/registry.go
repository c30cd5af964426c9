// Package registry provides read access to the national source-of-truth store
// of legitimate credential records. Records are fetched at most once per
// verification request and never cached beyond it.
package registry

import (
	"context"
	"errors"
)

// ErrNotFound signals that the registry holds no record for the identifier.
// The pipeline treats this as a hard negative, not an availability problem.
var ErrNotFound = errors.New("registry: record not found")

// Record is one golden record from the national registry.
type Record struct {
	IndexNumber  string
	FullName     string
	MeanGrade    string
	SchoolName   string
	SerialNumber string
}

// Registry looks up a credential record by its index number. A single
// idempotent read with no side effects.
type Registry interface {
	Lookup(ctx context.Context, indexNumber string) (*Record, error)
}
