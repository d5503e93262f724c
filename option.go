package thunder

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/thunderpay/thunder-go/logger"
	"github.com/thunderpay/thunder-go/metrics"
	"github.com/thunderpay/thunder-go/quote"
)

type Option func(*Thunder)

func WithLogger(l logger.Logger) Option {
	return func(t *Thunder) {
		t.log = l
	}
}

func WithMetrics(r metrics.Recorder) Option {
	return func(t *Thunder) {
		t.rec = r
	}
}

func WithTimeout(d time.Duration) Option {
	return func(t *Thunder) {
		t.timeout = d
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(t *Thunder) {
		t.httpClient = c
	}
}

// WithQuoteStore replaces the in-memory quote store, e.g. with one backed
// by device storage so a quote survives a screen remount.
func WithQuoteStore(s quote.Store) Option {
	return func(t *Thunder) {
		t.store = s
	}
}

// WithRates overrides the preview conversion table. Display-only; never
// used for settlement.
func WithRates(usdRates map[string]decimal.Decimal) Option {
	return func(t *Thunder) {
		t.rates = usdRates
	}
}
