// Package domain contains the core domain types for the market context.
package domain

import (
	"strings"

	"crossarb/internal/apperror"
)

// Instrument identifies a tradable base/quote pair, e.g. BTC/USDT.
// Instruments are immutable once created; deactivation is a storage
// concern, not a field on the value.
type Instrument struct {
	Base  string
	Quote string
}

// NewInstrument creates an instrument from raw symbols, normalizing to
// upper case.
func NewInstrument(base, quote string) (Instrument, error) {
	base = strings.ToUpper(strings.TrimSpace(base))
	quote = strings.ToUpper(strings.TrimSpace(quote))
	if base == "" || quote == "" {
		return Instrument{}, apperror.New(apperror.CodeRequiredField,
			apperror.WithContext("instrument base and quote symbols"))
	}
	if base == quote {
		return Instrument{}, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("instrument base equals quote"))
	}
	return Instrument{Base: base, Quote: quote}, nil
}

// ParseInstrument parses a "BASE/QUOTE" symbol.
func ParseInstrument(symbol string) (Instrument, error) {
	parts := strings.Split(symbol, "/")
	if len(parts) != 2 {
		return Instrument{}, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("instrument symbol must be BASE/QUOTE"))
	}
	return NewInstrument(parts[0], parts[1])
}

// Symbol returns the "BASE/QUOTE" form.
func (i Instrument) Symbol() string {
	return i.Base + "/" + i.Quote
}

func (i Instrument) String() string {
	return i.Symbol()
}
