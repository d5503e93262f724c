package flow

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thunderpay/thunder-go/quote"
	"github.com/thunderpay/thunder-go/types"
)

// fakeBackend implements flow.Backend and quote.Quoter for controller tests.
type fakeBackend struct {
	mu sync.Mutex

	quoteCalls int
	quoteErr   error
	quoteBlock chan struct{} // when set, Quote waits on it

	execCalls   int
	execRefs    []string
	execResp    *types.ExecutionResponse
	execErr     error
	verifyName  string
	verifyOK    bool
	verifyCalls int
}

func (f *fakeBackend) Quote(_ context.Context, intent *types.PaymentIntent, source *types.FundingSource) (*types.Quote, error) {
	f.mu.Lock()
	f.quoteCalls++
	n := f.quoteCalls
	block := f.quoteBlock
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}

	ref := fmt.Sprintf("Q-%d", n)
	deduction := intent.Amount
	currency := intent.BaseCurrency
	rate := decimal.NewFromInt(1)
	if source.IsCrypto() {
		deduction = decimal.NewFromFloat(1.35)
		currency = source.Currency
		rate = decimal.NewFromFloat(1481.48)
	}
	return &types.Quote{
		Reference:         ref,
		DeductionAmount:   deduction,
		DeductionCurrency: currency,
		ExchangeRate:      rate,
		TransactionFee:    decimal.Zero,
		ExpiresAt:         time.Now().Add(5 * time.Minute),
	}, nil
}

func (f *fakeBackend) Execute(_ context.Context, _ types.Category, quoteReference, _ string) (*types.ExecutionResponse, error) {
	f.mu.Lock()
	f.execCalls++
	f.execRefs = append(f.execRefs, quoteReference)
	f.mu.Unlock()

	if f.execErr != nil {
		return nil, f.execErr
	}
	if f.execResp != nil {
		return f.execResp, nil
	}
	return &types.ExecutionResponse{
		Success: true,
		Data: &types.ExecutionData{
			TransactionReference: "TX-1",
			Status:               "completed",
			Metadata:             map[string]string{"units": "15kWh"},
		},
	}, nil
}

func (f *fakeBackend) VerifyMeter(context.Context, string, string, string) (*types.Verification, error) {
	f.verifyCalls++
	return &types.Verification{Verified: f.verifyOK, Name: f.verifyName}, nil
}

func (f *fakeBackend) VerifyDecoder(context.Context, string, string) (*types.Verification, error) {
	f.verifyCalls++
	return &types.Verification{Verified: f.verifyOK, Name: f.verifyName}, nil
}

func electricityIntent() *types.PaymentIntent {
	return &types.PaymentIntent{
		Category:     types.CategoryElectricity,
		Target:       "04512345678",
		Amount:       decimal.NewFromInt(2000),
		Provider:     "ikeja-electric",
		MeterType:    "prepaid",
		ContactPhone: "08011111111",
	}
}

func fiatSource() *types.FundingSource {
	return &types.FundingSource{Kind: types.SourceFiat, WalletID: "w-0", Currency: "NGN", Balance: "₦10,000.00"}
}

func usdtSource() *types.FundingSource {
	return &types.FundingSource{Kind: types.SourceCrypto, WalletID: "w-7", Currency: "USDT", Balance: "25.10"}
}

func newTestController(t *testing.T, category types.Category, backend *fakeBackend) *Controller {
	t.Helper()
	strategy, err := StrategyFor(category)
	require.NoError(t, err)
	quotes := quote.NewManager(backend, quote.NewMemoryStore(), nil)
	return NewController(strategy, backend, quotes, nil, nil, nil)
}

func enterPin(t *testing.T, c *Controller, pin string) error {
	t.Helper()
	var err error
	for i := 0; i < len(pin); i++ {
		err = c.EnterPinDigit(context.Background(), pin[i])
	}
	return err
}

func TestFiatElectricityEndToEnd(t *testing.T) {
	backend := &fakeBackend{verifyOK: true, verifyName: "ADA OBI"}
	c := newTestController(t, types.CategoryElectricity, backend)
	ctx := context.Background()

	assert.Equal(t, types.StateInput, c.State())

	intent := electricityIntent()
	require.NoError(t, c.VerifyTarget(ctx, intent))
	assert.Equal(t, "ADA OBI", c.VerifiedName())

	require.NoError(t, c.SubmitIntent(intent))
	assert.Equal(t, types.StateMethodSelection, c.State())

	require.NoError(t, c.SelectFundingSource(ctx, fiatSource()))
	assert.Equal(t, types.StateConfirmation, c.State())
	assert.Zero(t, backend.quoteCalls, "fiat selection must not quote")

	summary, err := c.Summary()
	require.NoError(t, err)
	assert.True(t, summary.Deduction.Equal(decimal.NewFromInt(2000)))
	assert.Equal(t, "NGN", summary.DeductionCurrency)
	assert.False(t, summary.Estimated, "fiat confirmation has no FX line")

	require.NoError(t, c.ConfirmPay(ctx))
	assert.Equal(t, types.StatePinEntry, c.State())
	assert.Equal(t, 1, backend.quoteCalls, "fiat quote is acquired on pay")

	require.NoError(t, enterPin(t, c, "1234"))
	assert.Equal(t, types.StateSuccess, c.State())
	assert.Equal(t, 1, backend.execCalls)

	result := c.Result()
	require.NotNil(t, result)
	assert.Equal(t, types.OutcomeSuccess, result.Outcome)
	assert.Equal(t, "TX-1", result.TransactionReference)
	assert.Equal(t, "15kWh", result.Metadata.Units)

	assert.Equal(t, "Electricity Purchase Successful", c.ResultTitle())
	details := c.ResultDetails()
	assert.Equal(t, "15kWh", details["units"])
	assert.Equal(t, "TX-1", details["reference"])
}

func TestInvalidPinStaysAtPinEntry(t *testing.T) {
	backend := &fakeBackend{
		verifyOK: true,
		execResp: &types.ExecutionResponse{Success: false, Description: "Invalid pin"},
	}
	c := newTestController(t, types.CategoryElectricity, backend)
	ctx := context.Background()

	intent := electricityIntent()
	require.NoError(t, c.VerifyTarget(ctx, intent))
	require.NoError(t, c.SubmitIntent(intent))
	require.NoError(t, c.SelectFundingSource(ctx, fiatSource()))
	require.NoError(t, c.ConfirmPay(ctx))

	err := enterPin(t, c, "1234")
	require.Error(t, err)
	assert.Equal(t, types.ErrInvalidPin, types.CodeOf(err))
	assert.Equal(t, types.StatePinEntry, c.State())
	assert.Equal(t, "Invalid pin", c.InlineError())
	assert.Nil(t, c.Result(), "pin rejection is not terminal")

	// Digits were cleared; the same quote is retried with a fresh PIN.
	backend.execResp = nil
	require.NoError(t, enterPin(t, c, "4321"))
	assert.Equal(t, types.StateSuccess, c.State())
	assert.Equal(t, 2, backend.execCalls)
	assert.Equal(t, backend.execRefs[0], backend.execRefs[1], "pin retry reuses the unconsumed quote")
}

func TestNonPinFailureIsTerminal(t *testing.T) {
	backend := &fakeBackend{
		verifyOK: true,
		execResp: &types.ExecutionResponse{Success: false, Description: "Insufficient balance"},
	}
	c := newTestController(t, types.CategoryElectricity, backend)
	ctx := context.Background()

	intent := electricityIntent()
	require.NoError(t, c.VerifyTarget(ctx, intent))
	require.NoError(t, c.SubmitIntent(intent))
	require.NoError(t, c.SelectFundingSource(ctx, fiatSource()))
	require.NoError(t, c.ConfirmPay(ctx))

	require.NoError(t, enterPin(t, c, "1234"))
	assert.Equal(t, types.StateFailure, c.State())
	require.NotNil(t, c.Result())
	assert.Equal(t, "Insufficient balance", c.Result().Reason)
	assert.Equal(t, "Payment Failed", c.ResultTitle())
}

func TestCryptoSelectionQuotesBeforeConfirmation(t *testing.T) {
	backend := &fakeBackend{}
	c := newTestController(t, types.CategoryAirtime, backend)
	ctx := context.Background()

	require.NoError(t, c.SubmitIntent(&types.PaymentIntent{
		Category: types.CategoryAirtime,
		Target:   "08011111111",
		Amount:   decimal.NewFromInt(2000),
		Provider: "mtn",
	}))

	require.NoError(t, c.SelectFundingSource(ctx, usdtSource()))
	assert.Equal(t, types.StateConfirmation, c.State())
	assert.Equal(t, 1, backend.quoteCalls)

	summary, err := c.Summary()
	require.NoError(t, err)
	assert.False(t, summary.Estimated, "a held quote supersedes the estimate")
	assert.Equal(t, "USDT", summary.DeductionCurrency)
	assert.True(t, summary.Deduction.Equal(decimal.NewFromFloat(1.35)))
}

func TestQuoteFailureReturnsToMethodSelection(t *testing.T) {
	backend := &fakeBackend{quoteErr: types.E(types.ErrQuoteFailed, "provider down")}
	c := newTestController(t, types.CategoryAirtime, backend)
	ctx := context.Background()

	require.NoError(t, c.SubmitIntent(&types.PaymentIntent{
		Category: types.CategoryAirtime,
		Target:   "08011111111",
		Amount:   decimal.NewFromInt(2000),
		Provider: "mtn",
	}))

	err := c.SelectFundingSource(ctx, usdtSource())
	require.Error(t, err)
	assert.Equal(t, types.StateMethodSelection, c.State())
	assert.Equal(t, "provider down", c.InlineError())

	// Retry with the error cleared succeeds and issues a fresh quote.
	backend.quoteErr = nil
	require.NoError(t, c.SelectFundingSource(ctx, usdtSource()))
	assert.Equal(t, types.StateConfirmation, c.State())
	assert.Equal(t, 2, backend.quoteCalls)
}

func TestBackFromConfirmationInvalidatesQuote(t *testing.T) {
	backend := &fakeBackend{}
	c := newTestController(t, types.CategoryAirtime, backend)
	ctx := context.Background()

	require.NoError(t, c.SubmitIntent(&types.PaymentIntent{
		Category: types.CategoryAirtime,
		Target:   "08011111111",
		Amount:   decimal.NewFromInt(2000),
		Provider: "mtn",
	}))
	require.NoError(t, c.SelectFundingSource(ctx, usdtSource()))
	require.NoError(t, c.Back())
	assert.Equal(t, types.StateMethodSelection, c.State())

	// Forward again: a stale reference must never be executed.
	require.NoError(t, c.SelectFundingSource(ctx, usdtSource()))
	require.NoError(t, c.ConfirmPay(ctx))
	require.NoError(t, enterPin(t, c, "1234"))

	assert.Equal(t, 2, backend.quoteCalls)
	require.Len(t, backend.execRefs, 1)
	assert.Equal(t, "Q-2", backend.execRefs[0], "execution must use the fresh quote")
}

func TestResetDiscardsInFlightQuote(t *testing.T) {
	release := make(chan struct{})
	backend := &fakeBackend{quoteBlock: release}
	c := newTestController(t, types.CategoryAirtime, backend)
	ctx := context.Background()

	require.NoError(t, c.SubmitIntent(&types.PaymentIntent{
		Category: types.CategoryAirtime,
		Target:   "08011111111",
		Amount:   decimal.NewFromInt(2000),
		Provider: "mtn",
	}))

	done := make(chan error, 1)
	go func() {
		done <- c.SelectFundingSource(ctx, usdtSource())
	}()

	// Wait until the quote request is in flight, then abandon the session.
	require.Eventually(t, func() bool {
		backend.mu.Lock()
		defer backend.mu.Unlock()
		return backend.quoteCalls == 1
	}, time.Second, time.Millisecond)

	c.Reset()
	close(release)
	require.NoError(t, <-done)

	// The late reply must not be applied to the fresh session.
	assert.Equal(t, types.StateInput, c.State())
}

func TestTransferFlowEndToEnd(t *testing.T) {
	backend := &fakeBackend{
		execResp: &types.ExecutionResponse{
			Success: true,
			Data: &types.ExecutionData{
				TransactionReference: "TX-9",
				Status:               "completed",
			},
		},
	}
	c := newTestController(t, types.CategoryCryptoTransfer, backend)
	ctx := context.Background()

	require.NoError(t, c.SubmitIntent(&types.PaymentIntent{
		Category:     types.CategoryCryptoTransfer,
		Target:       "0xE4d365a5a8fC0DCEE9E3C5985D7FcBab8B4A0fE1",
		Amount:       decimal.NewFromInt(75000),
		ChainNetwork: "ethereum",
	}))
	require.NoError(t, c.SelectFundingSource(ctx, &types.FundingSource{
		Kind: types.SourceCrypto, WalletID: "w-9", Currency: "USDT",
	}))
	require.NoError(t, c.ConfirmPay(ctx))
	require.NoError(t, enterPin(t, c, "1234"))

	assert.Equal(t, types.StateSuccess, c.State())
	assert.Equal(t, "Crypto Transfer Successful", c.ResultTitle())
	assert.Equal(t, "TX-9", c.Result().TransactionReference)
}

func TestSubmitIntentRequiresVerification(t *testing.T) {
	backend := &fakeBackend{verifyOK: false}
	c := newTestController(t, types.CategoryElectricity, backend)
	ctx := context.Background()

	intent := electricityIntent()
	err := c.VerifyTarget(ctx, intent)
	require.Error(t, err)

	err = c.SubmitIntent(intent)
	require.Error(t, err)
	assert.Equal(t, types.ErrInvalidInput, types.CodeOf(err))
	assert.Equal(t, types.StateInput, c.State())
}

func TestResetAfterResultStartsFresh(t *testing.T) {
	backend := &fakeBackend{verifyOK: true}
	c := newTestController(t, types.CategoryElectricity, backend)
	ctx := context.Background()

	intent := electricityIntent()
	require.NoError(t, c.VerifyTarget(ctx, intent))
	require.NoError(t, c.SubmitIntent(intent))
	require.NoError(t, c.SelectFundingSource(ctx, fiatSource()))
	require.NoError(t, c.ConfirmPay(ctx))
	require.NoError(t, enterPin(t, c, "1234"))
	require.Equal(t, types.StateSuccess, c.State())

	oldID := c.SessionID()
	c.Reset()
	assert.Equal(t, types.StateInput, c.State())
	assert.NotEqual(t, oldID, c.SessionID())
	assert.Nil(t, c.Result())

	// A new attempt issues a new quote; nothing is reused.
	require.NoError(t, c.VerifyTarget(ctx, intent))
	require.NoError(t, c.SubmitIntent(intent))
	require.NoError(t, c.SelectFundingSource(ctx, fiatSource()))
	require.NoError(t, c.ConfirmPay(ctx))
	require.NoError(t, enterPin(t, c, "1234"))
	assert.Equal(t, "Q-2", backend.execRefs[len(backend.execRefs)-1])
}

func TestEnterPinDigitValidation(t *testing.T) {
	backend := &fakeBackend{verifyOK: true}
	c := newTestController(t, types.CategoryElectricity, backend)
	ctx := context.Background()

	err := c.EnterPinDigit(ctx, '1')
	require.Error(t, err)
	assert.Equal(t, types.ErrInvalidState, types.CodeOf(err))

	intent := electricityIntent()
	require.NoError(t, c.VerifyTarget(ctx, intent))
	require.NoError(t, c.SubmitIntent(intent))
	require.NoError(t, c.SelectFundingSource(ctx, fiatSource()))
	require.NoError(t, c.ConfirmPay(ctx))

	err = c.EnterPinDigit(ctx, 'x')
	require.Error(t, err)
	assert.Equal(t, types.ErrInvalidInput, types.CodeOf(err))
	assert.Zero(t, backend.execCalls)
}
