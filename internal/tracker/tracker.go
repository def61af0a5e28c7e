package tracker

import (
	"fmt"

	"RatePulse/internal/calculator"
	"RatePulse/internal/model"

	"github.com/shopspring/decimal"
)

// Direction of a rate change between two observations.
type Direction int

const (
	Unchanged Direction = iota
	Rose
	Fell
)

// Delta is the outcome of folding a new rate into the tracker.
type Delta struct {
	Currency    model.Currency
	Rate        float64
	Previous    float64
	HasPrevious bool
	Diff        decimal.Decimal
	Direction   Direction
	// Text is "rose by X" / "fell by X", or empty for the first observation
	// and for an unchanged rate.
	Text string
}

// Tracker remembers the last observed rate per currency for the life of the
// process. It is not safe for concurrent use; callers serialize cycles.
type Tracker struct {
	last map[model.Currency]float64
}

// New returns a Tracker in which every currency is unobserved.
func New() *Tracker {
	return &Tracker{last: make(map[model.Currency]float64)}
}

// Observe compares rate with the remembered value for currency, then
// remembers rate for the next call.
func (t *Tracker) Observe(currency model.Currency, rate float64) Delta {
	d := Delta{Currency: currency, Rate: rate}

	prev, ok := t.last[currency]
	t.last[currency] = rate
	if !ok {
		return d
	}

	d.Previous = prev
	d.HasPrevious = true
	d.Diff = calculator.Diff(prev, rate)
	switch d.Diff.Sign() {
	case 1:
		d.Direction = Rose
		d.Text = fmt.Sprintf("rose by %s", calculator.FormatAbs(d.Diff))
	case -1:
		d.Direction = Fell
		d.Text = fmt.Sprintf("fell by %s", calculator.FormatAbs(d.Diff))
	}
	return d
}

// Last returns the remembered rate for currency, if any.
func (t *Tracker) Last(currency model.Currency) (float64, bool) {
	v, ok := t.last[currency]
	return v, ok
}
