// Package thunder is the client library for the Thunder payments backend.
// It implements the quote-gated payment execution flow shared by every
// payment product: collect an intent, resolve it to a priced, time-boxed
// quote, gate execution behind a PIN, and classify the outcome.
package thunder

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/thunderpay/thunder-go/api"
	"github.com/thunderpay/thunder-go/estimate"
	"github.com/thunderpay/thunder-go/flow"
	"github.com/thunderpay/thunder-go/logger"
	"github.com/thunderpay/thunder-go/metrics"
	"github.com/thunderpay/thunder-go/quote"
	"github.com/thunderpay/thunder-go/types"
)

// Thunder wires the backend client, quote manager and estimator, and hands
// out one flow controller per payment attempt.
type Thunder struct {
	client    *api.Client
	quotes    *quote.Manager
	estimator *estimate.Converter
	log       logger.Logger
	rec       metrics.Recorder

	httpClient *http.Client
	timeout    time.Duration
	store      quote.Store
	rates      map[string]decimal.Decimal
}

// New creates a Thunder client for the given backend and bearer token.
func New(baseURL, token string, opts ...Option) *Thunder {
	t := &Thunder{
		log:     logger.NoopLogger{},
		rec:     metrics.NoopRecorder{},
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(t)
	}

	if t.httpClient == nil {
		t.httpClient = &http.Client{Timeout: t.timeout}
	}
	t.client = api.NewClient(baseURL, token, t.httpClient, t.log, t.rec)
	t.quotes = quote.NewManager(t.client, t.store, t.log)
	t.estimator = estimate.NewConverter(t.rates)
	return t
}

// NewFlow starts a payment flow for one category. Each controller owns one
// session; call Reset on it to start over, or discard it on navigation away.
func (t *Thunder) NewFlow(category types.Category) (*flow.Controller, error) {
	strategy, err := flow.StrategyFor(category)
	if err != nil {
		return nil, err
	}
	return flow.NewController(strategy, t.client, t.quotes, t.estimator, t.log, t.rec), nil
}

// FundingSources lists the balances the user may pay from.
func (t *Thunder) FundingSources(ctx context.Context) ([]types.FundingSource, error) {
	return t.client.FundingSources(ctx)
}

// Version information
const Version = "1.0.0"
