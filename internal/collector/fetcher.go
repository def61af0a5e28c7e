package collector

import (
	"context"
	"errors"
	"fmt"

	"RatePulse/internal/model"
)

// ErrMissingRate is returned when the payload has no usable rate for the quote currency.
var ErrMissingRate = errors.New("rate missing from payload")

// Fetcher returns the current rate of one currency against the quote currency.
type Fetcher interface {
	FetchRate(ctx context.Context, currency model.Currency) (float64, error)
	Name() string
}

// FetchError wraps any failure to obtain a rate for Currency.
type FetchError struct {
	Currency model.Currency
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s rate: %v", e.Currency, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
