// Package estimate provides display-only currency conversion previews for
// crypto funding sources before an authoritative quote exists. An Estimate
// carries no quote reference and can never be executed; once a real quote is
// available its deduction amount supersedes the estimate everywhere.
package estimate

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/thunderpay/thunder-go/types"
)

// DefaultUSDRates is the fallback fixed-rate table, in USD per unit of asset.
func DefaultUSDRates() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"USDT": decimal.NewFromFloat(1.0),
		"USDC": decimal.NewFromFloat(1.0),
		"BTC":  decimal.NewFromInt(65000),
		"ETH":  decimal.NewFromInt(3400),
		"SOL":  decimal.NewFromInt(150),
	}
}

// DefaultNGNPerUSD is the assumed local-currency peg for the preview table.
var DefaultNGNPerUSD = decimal.NewFromInt(1500)

// Estimate is a non-authoritative converted amount. The Indicative flag is
// always true; settlement amounts come only from types.Quote.
type Estimate struct {
	Amount     decimal.Decimal
	Currency   string
	Rate       decimal.Decimal
	Indicative bool
}

// Converter turns base-currency amounts into indicative asset amounts using
// the static table.
type Converter struct {
	usdRates  map[string]decimal.Decimal
	ngnPerUSD decimal.Decimal
}

// NewConverter builds a Converter. A nil rates map selects the default table.
func NewConverter(usdRates map[string]decimal.Decimal) *Converter {
	if usdRates == nil {
		usdRates = DefaultUSDRates()
	}
	return &Converter{usdRates: usdRates, ngnPerUSD: DefaultNGNPerUSD}
}

// Convert estimates how much of asset ticker a base-currency amount is worth.
func (c *Converter) Convert(amount decimal.Decimal, ticker string) (*Estimate, error) {
	if !amount.IsPositive() {
		return nil, types.E(types.ErrInvalidInput, "amount must be greater than 0")
	}

	usdRate, ok := c.usdRates[strings.ToUpper(ticker)]
	if !ok || !usdRate.IsPositive() {
		return nil, types.E(types.ErrInvalidInput, fmt.Sprintf("no preview rate for %s", ticker))
	}

	// NGN -> USD -> asset, kept to 8 places which covers every listed asset.
	ngnPerAsset := usdRate.Mul(c.ngnPerUSD)
	converted := amount.DivRound(ngnPerAsset, 8)

	return &Estimate{
		Amount:     converted,
		Currency:   strings.ToUpper(ticker),
		Rate:       ngnPerAsset,
		Indicative: true,
	}, nil
}
