package services

import (
	"context"

	"github.com/tbckr/asnlook/internal/apperr"
)

// ErrInvalidInput is re-exported from apperr so callers handling service
// errors need only this package.
var ErrInvalidInput = apperr.ErrInvalidInput

// ErrNoSnapshot is re-exported from apperr.
var ErrNoSnapshot = apperr.ErrNoSnapshot

// Result is the common interface every service's Run output must satisfy.
// IsEmpty reports a lookup that found nothing.
type Result interface {
	IsEmpty() bool
}

// Service is the contract every lookup service implements.
type Service interface {
	Name() string
	Run(ctx context.Context, input string) (Result, error)
	AggregateResults(results []Result) Result
}
