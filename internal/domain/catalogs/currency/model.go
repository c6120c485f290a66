// Package currency provides the Currency catalog.
// Currencies carry the rounding precision and exchange rates used by all
// ledger arithmetic.
package currency

import (
	"context"
	"regexp"
	"time"

	"github.com/shopspring/decimal"

	"bookkeeper/internal/core/apperror"
	"bookkeeper/internal/core/entity"
	"bookkeeper/internal/core/id"
	"bookkeeper/internal/core/types"
)

// Currency represents a monetary unit.
type Currency struct {
	entity.Catalog

	// ISOCode is the ISO 4217 alphabetic code (e.g., "USD", "EUR")
	ISOCode string `db:"iso_code" json:"isoCode"`

	// ISONumericCode is the ISO 4217 numeric code (e.g., 840, 978)
	ISONumericCode *string `db:"iso_numeric_code" json:"isoNumericCode,omitempty"`

	// Symbol is the currency symbol (e.g., "$", "€")
	Symbol *string `db:"symbol" json:"symbol,omitempty"`

	// Digits is the number of decimal places for rounding
	Digits int `db:"digits" json:"digits"`

	// Active excludes the currency from lookups when false
	Active bool `db:"active" json:"active"`

	// Rates is the exchange rate history, newest first
	Rates []Rate `db:"-" json:"rates,omitempty"`
}

// Rate is one exchange rate quotation. The rate expresses how many units of
// this currency one unit of the base currency buys.
type Rate struct {
	ID   id.ID       `db:"id" json:"id"`
	Date time.Time   `db:"date" json:"date"`
	Rate types.Money `db:"rate" json:"rate"`
}

// NewCurrency creates a new Currency with required fields.
func NewCurrency(isoCode, name string, digits int) *Currency {
	return &Currency{
		Catalog: entity.NewCatalog(isoCode, name),
		ISOCode: isoCode,
		Digits:  digits,
		Active:  true,
	}
}

var isoCodeRe = regexp.MustCompile(`^[A-Z]{3}$`)

// Validate implements entity.Validatable interface.
func (c *Currency) Validate(ctx context.Context) error {
	if err := c.Catalog.Validate(ctx); err != nil {
		return err
	}

	if !isoCodeRe.MatchString(c.ISOCode) {
		return apperror.NewValidation("ISO code must be 3 uppercase letters").
			WithDetail("field", "isoCode").
			WithDetail("value", c.ISOCode)
	}

	if c.Digits < 0 || c.Digits > 8 {
		return apperror.NewValidation("digits must be between 0 and 8").
			WithDetail("field", "digits")
	}

	return nil
}

// Round rounds an amount to the currency precision.
func (c *Currency) Round(amount types.Money) types.Money {
	return amount.Round(int32(c.Digits))
}

// IsZero reports whether the amount rounds to zero in this currency.
// A residual smaller than the currency precision counts as balanced.
func (c *Currency) IsZero(amount types.Money) bool {
	return c.Round(amount).IsZero()
}

// RateAt returns the most recent rate quoted on or before date.
func (c *Currency) RateAt(date time.Time) (types.Money, bool) {
	var best *Rate
	for i := range c.Rates {
		r := &c.Rates[i]
		if r.Date.After(date) {
			continue
		}
		if best == nil || r.Date.After(best.Date) {
			best = r
		}
	}
	if best == nil {
		return decimal.Zero, false
	}
	return best.Rate, true
}

// Format formats an amount according to currency settings.
func (c *Currency) Format(amount types.Money) string {
	formatted := c.Round(amount).StringFixed(int32(c.Digits))
	if c.Symbol != nil {
		return formatted + *c.Symbol
	}
	return formatted + " " + c.ISOCode
}
