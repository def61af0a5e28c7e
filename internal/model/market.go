package model

import (
	"strings"
	"time"
)

// Currency is a lowercase ISO code naming one tracked rate series, e.g. "usd".
type Currency string

// NormalizeCurrency lowercases and trims a currency code.
func NormalizeCurrency(code string) Currency {
	return Currency(strings.ToLower(strings.TrimSpace(code)))
}

// Upper returns the display form of the code.
func (c Currency) Upper() string { return strings.ToUpper(string(c)) }

// Observation is a single fetched rate of Currency against the quote currency.
type Observation struct {
	Currency   Currency
	Rate       float64
	ObservedAt time.Time
}

// Recipient is one subscriber. ID is the Telegram chat id; Alias may be empty.
type Recipient struct {
	ID    int64
	Alias string
}
