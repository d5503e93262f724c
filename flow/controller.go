// Package flow implements the quote-gated payment execution flow: one
// linear state machine per session, parameterized by category.
//
//	Input -> MethodSelection -> QuoteFetching -> Confirmation -> PinEntry -> Executing -> Success | Failure
//
// Crypto funding sources are quoted at method selection; fiat sources skip
// the FX step and are quoted at face value when the user pays. Execution is
// gated on a held quote reference and happens at most once per quote.
package flow

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/thunderpay/thunder-go/estimate"
	"github.com/thunderpay/thunder-go/logger"
	"github.com/thunderpay/thunder-go/metrics"
	"github.com/thunderpay/thunder-go/quote"
	"github.com/thunderpay/thunder-go/types"
)

const pinLength = 4

// Executor is the backend surface used to execute a quoted payment.
type Executor interface {
	Execute(ctx context.Context, category types.Category, quoteReference, pin string) (*types.ExecutionResponse, error)
}

// Backend is everything the controller needs from the API client.
type Backend interface {
	Executor
	Verifier
}

// session is the state owned by one flow attempt. Created at Input,
// destroyed by Reset. Nothing outside the controller mutates it.
type session struct {
	id           string
	createdAt    time.Time
	state        types.FlowState
	intent       *types.PaymentIntent
	source       *types.FundingSource
	quote        *types.Quote
	result       *types.ExecutionResult
	verifiedName string
	verified     bool
	pin          string
	inlineError  string

	// generation tags async work; replies issued under an older
	// generation are discarded instead of applied.
	generation uint64

	quoteInFlight bool
	execInFlight  bool
}

// Controller drives one payment flow. Methods are safe for concurrent use,
// though the intended model is one cooperative caller per session.
type Controller struct {
	strategy  CategoryStrategy
	backend   Backend
	quotes    *quote.Manager
	estimator *estimate.Converter
	log       logger.Logger
	rec       metrics.Recorder

	mu sync.Mutex
	s  *session
}

// NewController builds a controller for one category. Nil log/rec select
// noop implementations.
func NewController(strategy CategoryStrategy, backend Backend, quotes *quote.Manager, estimator *estimate.Converter, log logger.Logger, rec metrics.Recorder) *Controller {
	if log == nil {
		log = logger.NoopLogger{}
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	if estimator == nil {
		estimator = estimate.NewConverter(nil)
	}
	c := &Controller{
		strategy:  strategy,
		backend:   backend,
		quotes:    quotes,
		estimator: estimator,
		log:       log,
		rec:       rec,
	}
	c.s = newSession()
	return c
}

func newSession() *session {
	return &session{
		id:        uuid.NewString(),
		createdAt: time.Now(),
		state:     types.StateInput,
	}
}

// State returns the current flow state.
func (c *Controller) State() types.FlowState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.s.state
}

// SessionID returns the id of the current attempt.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.s.id
}

// InlineError returns the message shown inline on the current screen,
// empty when there is none.
func (c *Controller) InlineError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.s.inlineError
}

// VerifiedName returns the customer name resolved by target verification.
func (c *Controller) VerifiedName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.s.verifiedName
}

// Result returns the classified outcome once the flow is terminal.
func (c *Controller) Result() *types.ExecutionResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.s.result
}

// ResultTitle is the headline for the terminal screen.
func (c *Controller) ResultTitle() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.s.state == types.StateSuccess {
		return c.strategy.SuccessTitle()
	}
	return "Payment Failed"
}

// ResultDetails maps the terminal result to the category's detail lines.
func (c *Controller) ResultDetails() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.s.result == nil {
		return nil
	}
	return c.strategy.Details(c.s.result)
}

// VerifyTarget resolves the intent's target (meter, smartcard) to a
// customer name before the form can advance. Only meaningful for
// categories that require verification; a no-op otherwise.
func (c *Controller) VerifyTarget(ctx context.Context, i *types.PaymentIntent) error {
	c.mu.Lock()
	if c.s.state != types.StateInput {
		c.mu.Unlock()
		return types.E(types.ErrInvalidState, "target verification only happens during input")
	}
	c.mu.Unlock()

	if !c.strategy.Category().RequiresVerification() {
		return nil
	}

	v, err := c.strategy.Verify(ctx, c.backend, i)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if v == nil || !v.Verified {
		c.s.verified = false
		c.s.verifiedName = ""
		c.rec.IncCounter(metrics.EventTargetUnmatched, c.labels())
		return types.E(types.ErrInvalidInput, "target could not be verified")
	}
	c.s.verified = true
	c.s.verifiedName = v.Name
	c.rec.IncCounter(metrics.EventTargetVerified, c.labels())
	return nil
}

// InputValid reports whether the continue action should be enabled for the
// form as currently filled: all required fields present and, where the
// category demands it, the target verified. Read-only.
func (c *Controller) InputValid(i *types.PaymentIntent) bool {
	if c.strategy.ValidateIntent(i) != nil {
		return false
	}
	if !c.strategy.Category().RequiresVerification() {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.s.verified
}

// SubmitIntent completes the input form. The intent must be valid for the
// category and, where applicable, the target verified. On success the flow
// advances to method selection and the intent becomes immutable.
func (c *Controller) SubmitIntent(i *types.PaymentIntent) error {
	if err := c.strategy.ValidateIntent(i); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.s.state != types.StateInput {
		return types.E(types.ErrInvalidState, "intent already submitted")
	}
	if c.strategy.Category().RequiresVerification() && !c.s.verified {
		return types.E(types.ErrInvalidInput, "target must be verified before continuing")
	}

	copied := *i
	if copied.BaseCurrency == "" {
		copied.BaseCurrency = "NGN"
	}
	c.s.intent = &copied
	c.s.state = types.StateMethodSelection
	c.s.inlineError = ""
	return nil
}

// SelectFundingSource picks the balance to pay from. A crypto source
// triggers a quote request (QuoteFetching); a fiat source has no FX and
// goes straight to confirmation. A failed quote returns the flow to method
// selection with a visible error so the user can retry.
func (c *Controller) SelectFundingSource(ctx context.Context, source *types.FundingSource) error {
	if err := source.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	if c.s.state != types.StateMethodSelection {
		c.mu.Unlock()
		return types.E(types.ErrInvalidState, "funding source is chosen during method selection")
	}
	if c.s.quoteInFlight {
		c.mu.Unlock()
		return types.E(types.ErrQuoteInFlight, "a quote request is already in flight")
	}

	copied := *source
	c.s.source = &copied
	c.s.inlineError = ""

	if !source.IsCrypto() {
		// Face-value path: no conversion, quote deferred to the pay action.
		c.s.state = types.StateConfirmation
		c.mu.Unlock()
		return nil
	}

	c.s.state = types.StateQuoteFetching
	c.s.quoteInFlight = true
	gen := c.s.generation
	intent := c.s.intent
	c.mu.Unlock()

	c.rec.IncCounter(metrics.EventQuoteRequested, c.labels())
	q, err := c.quotes.Request(ctx, intent, &copied)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.s.quoteInFlight = false

	if gen != c.s.generation {
		// User navigated away while the request was in flight.
		c.quotes.Invalidate(c.strategy.Category())
		c.rec.IncCounter(metrics.EventStaleDiscarded, c.labels())
		c.log.Debug("stale quote response discarded", map[string]any{"session": c.s.id})
		return nil
	}

	if err != nil {
		c.s.state = types.StateMethodSelection
		c.s.inlineError = err.Error()
		c.rec.IncCounter(metrics.EventQuoteFailed, c.labels())
		return err
	}

	c.s.quote = q
	c.s.state = types.StateConfirmation
	return nil
}

// Summary is the read-only confirmation view: face amount, the committed
// or estimated deduction, and fee/cashback line items when positive.
type Summary struct {
	Amount            decimal.Decimal
	Currency          string
	Deduction         decimal.Decimal
	DeductionCurrency string
	ExchangeRate      decimal.Decimal
	Fee               decimal.Decimal
	Cashback          decimal.Decimal

	// Estimated marks a preview conversion that no quote backs yet.
	// An estimated deduction is never what gets debited.
	Estimated bool
}

// Summary builds the confirmation summary. Quote-derived when a quote is
// held, estimator fallback for crypto sources before one exists.
func (c *Controller) Summary() (*Summary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.s.state != types.StateConfirmation {
		return nil, types.E(types.ErrInvalidState, "summary is available at confirmation")
	}

	s := &Summary{
		Amount:   c.s.intent.Amount,
		Currency: c.s.intent.BaseCurrency,
	}

	if q := c.s.quote; q != nil {
		s.Deduction = q.DeductionAmount
		s.DeductionCurrency = q.DeductionCurrency
		s.ExchangeRate = q.ExchangeRate
		s.Fee = q.TransactionFee
		s.Cashback = q.Cashback
		return s, nil
	}

	if c.s.source.IsCrypto() {
		est, err := c.estimator.Convert(c.s.intent.Amount, c.s.source.Currency)
		if err != nil {
			return nil, err
		}
		s.Deduction = est.Amount
		s.DeductionCurrency = est.Currency
		s.ExchangeRate = est.Rate
		s.Estimated = true
		return s, nil
	}

	// Fiat face value, no FX line.
	s.Deduction = c.s.intent.Amount
	s.DeductionCurrency = c.s.intent.BaseCurrency
	return s, nil
}

// ConfirmPay advances from confirmation to PIN entry. A fiat session that
// deferred its quote acquires one here at face value; a remounted session
// recovers its quote from the store. Failure to obtain a quote keeps the
// flow at confirmation with a visible error.
func (c *Controller) ConfirmPay(ctx context.Context) error {
	c.mu.Lock()
	if c.s.state != types.StateConfirmation {
		c.mu.Unlock()
		return types.E(types.ErrInvalidState, "pay is available at confirmation")
	}
	if c.s.quoteInFlight {
		c.mu.Unlock()
		return types.E(types.ErrQuoteInFlight, "a quote request is already in flight")
	}

	if c.s.quote != nil {
		c.s.state = types.StatePinEntry
		c.s.pin = ""
		c.s.inlineError = ""
		c.mu.Unlock()
		return nil
	}

	// Store read happens once, on entry to PIN, for sessions whose memory
	// was cleared by a remount.
	if stored := c.quotes.Current(c.strategy.Category()); stored != nil {
		c.s.quote = stored
		c.s.state = types.StatePinEntry
		c.s.pin = ""
		c.s.inlineError = ""
		c.mu.Unlock()
		return nil
	}

	c.s.quoteInFlight = true
	gen := c.s.generation
	intent := c.s.intent
	source := c.s.source
	c.mu.Unlock()

	c.rec.IncCounter(metrics.EventQuoteRequested, c.labels())
	q, err := c.quotes.Request(ctx, intent, source)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.s.quoteInFlight = false

	if gen != c.s.generation {
		c.quotes.Invalidate(c.strategy.Category())
		c.rec.IncCounter(metrics.EventStaleDiscarded, c.labels())
		return nil
	}

	if err != nil {
		c.s.inlineError = err.Error()
		c.rec.IncCounter(metrics.EventQuoteFailed, c.labels())
		return err
	}

	c.s.quote = q
	c.s.state = types.StatePinEntry
	c.s.pin = ""
	c.s.inlineError = ""
	return nil
}

// EnterPinDigit appends one PIN digit and auto-submits execution on the
// fourth. A PIN rejection clears the digits and keeps the flow here; any
// other failure is terminal.
func (c *Controller) EnterPinDigit(ctx context.Context, digit byte) error {
	c.mu.Lock()
	if c.s.state != types.StatePinEntry {
		c.mu.Unlock()
		return types.E(types.ErrInvalidState, "pin entry is not active")
	}
	if digit < '0' || digit > '9' {
		c.mu.Unlock()
		return types.E(types.ErrInvalidInput, "pin digits must be 0-9")
	}

	c.s.pin += string(digit)
	if len(c.s.pin) < pinLength {
		c.mu.Unlock()
		return nil
	}

	pin := c.s.pin
	c.mu.Unlock()
	return c.execute(ctx, pin)
}

// execute performs the single execution mutation. It is gated on a held
// quote reference: a missing quote is a fatal local error routed to the
// failure screen without contacting the backend.
func (c *Controller) execute(ctx context.Context, pin string) error {
	c.mu.Lock()
	if c.s.execInFlight {
		c.mu.Unlock()
		return types.E(types.ErrExecutionInFlight, "an execution is already in flight")
	}

	q := c.s.quote
	if q == nil || q.Reference == "" {
		c.s.result = &types.ExecutionResult{
			Outcome:  types.OutcomeFailure,
			Reason:   types.ReasonSessionExpired,
			Metadata: defaultMetadata(nil),
		}
		c.s.state = types.StateFailure
		c.mu.Unlock()
		c.rec.IncCounter(metrics.EventSessionExpired, c.labels())
		c.log.Warn("pin entry reached without a usable quote", map[string]any{"session": c.SessionID()})
		return types.E(types.ErrSessionExpired, types.ReasonSessionExpired)
	}

	c.s.state = types.StateExecuting
	c.s.execInFlight = true
	gen := c.s.generation
	c.mu.Unlock()

	c.rec.IncCounter(metrics.EventExecuteStarted, c.labels())
	resp, err := c.backend.Execute(ctx, c.strategy.Category(), q.Reference, pin)
	result, class := Classify(resp, err)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.s.execInFlight = false

	if gen != c.s.generation {
		c.rec.IncCounter(metrics.EventStaleDiscarded, c.labels())
		c.log.Debug("stale execution response discarded", map[string]any{"session": c.s.id})
		return nil
	}

	switch class {
	case ClassSuccess:
		c.s.result = &result
		c.s.state = types.StateSuccess
		c.quotes.Invalidate(c.strategy.Category())
		c.s.quote = nil
		c.rec.IncCounter(metrics.EventExecuteSuccess, c.labels())
		return nil

	case ClassPinError:
		// Quote not consumed; user may re-enter the PIN.
		c.s.state = types.StatePinEntry
		c.s.pin = ""
		c.s.inlineError = result.Reason
		c.rec.IncCounter(metrics.EventPinRejected, c.labels())
		return types.E(types.ErrInvalidPin, result.Reason)

	default:
		c.s.result = &result
		c.s.state = types.StateFailure
		c.quotes.Invalidate(c.strategy.Category())
		c.s.quote = nil
		c.rec.IncCounter(metrics.EventExecuteFailed, c.labels())
		return nil
	}
}

// Back steps to the immediately prior state. Leaving confirmation
// invalidates any held quote: a revisited method selection always issues a
// fresh one.
func (c *Controller) Back() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.s.state {
	case types.StateMethodSelection:
		c.s.state = types.StateInput
		c.s.source = nil
		c.s.inlineError = ""
		return nil

	case types.StateConfirmation:
		c.s.state = types.StateMethodSelection
		c.s.quote = nil
		c.s.generation++
		c.quotes.Invalidate(c.strategy.Category())
		c.s.inlineError = ""
		return nil

	case types.StatePinEntry:
		c.s.state = types.StateConfirmation
		c.s.pin = ""
		c.s.inlineError = ""
		return nil

	default:
		return types.E(types.ErrInvalidState, "cannot go back from here")
	}
}

// Reset destroys the session and returns to input. A new attempt always
// needs a fresh quote.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.quotes.Invalidate(c.strategy.Category())
	gen := c.s.generation + 1
	c.s = newSession()
	c.s.generation = gen
}

func (c *Controller) labels() map[string]string {
	return map[string]string{"category": c.strategy.Category().String()}
}
