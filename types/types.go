package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category identifies which payment product an intent belongs to.
type Category string

const (
	CategoryAirtime        Category = "airtime"
	CategoryData           Category = "data"
	CategoryElectricity    Category = "electricity"
	CategoryTV             Category = "tv-cable"
	CategoryBankTransfer   Category = "bank-transfer"
	CategoryPeerTransfer   Category = "peer-transfer"
	CategoryCryptoTransfer Category = "crypto-transfer"
)

// IsBill reports whether the category is settled through the bills endpoints.
func (c Category) IsBill() bool {
	return c == CategoryAirtime || c == CategoryData || c == CategoryElectricity || c == CategoryTV
}

// IsTransfer reports whether the category is settled through the transfer endpoints.
func (c Category) IsTransfer() bool {
	return c == CategoryBankTransfer || c == CategoryPeerTransfer || c == CategoryCryptoTransfer
}

// RequiresVerification reports whether the target must pass an async
// verification lookup before the intent is considered complete.
func (c Category) RequiresVerification() bool {
	return c == CategoryElectricity || c == CategoryTV
}

func (c Category) String() string {
	return string(c)
}

// SourceKind distinguishes fiat balances from crypto asset balances.
type SourceKind string

const (
	SourceFiat   SourceKind = "fiat"
	SourceCrypto SourceKind = "crypto"
)

// FlowState is the position of a payment session in the execution flow.
type FlowState string

const (
	StateInput           FlowState = "input"
	StateMethodSelection FlowState = "method-selection"
	StateQuoteFetching   FlowState = "quote-fetching"
	StateConfirmation    FlowState = "confirmation"
	StatePinEntry        FlowState = "pin-entry"
	StateExecuting       FlowState = "executing"
	StateSuccess         FlowState = "success"
	StateFailure         FlowState = "failure"
)

// Terminal reports whether the state ends the current attempt.
func (s FlowState) Terminal() bool {
	return s == StateSuccess || s == StateFailure
}

// PaymentIntent is the user's declared payment: category, target, amount and
// the category-specific extras. It is immutable once a quote has been
// requested against it.
type PaymentIntent struct {
	// Category of the payment product.
	Category Category `json:"category" validate:"required"`

	// Target receiving the payment: phone number, meter number, smartcard
	// number, bank account number or wallet address depending on category.
	Target string `json:"target" validate:"required"`

	// Amount in the base currency (face value for bills).
	Amount decimal.Decimal `json:"amount"`

	// BaseCurrency the amount is denominated in. Defaults to NGN.
	BaseCurrency string `json:"baseCurrency,omitempty"`

	// Provider is the category-specific service id: mobile network, disco
	// or TV provider. Empty for transfers.
	Provider string `json:"provider,omitempty"`

	// PlanCode selects a data bundle or TV package where applicable.
	PlanCode string `json:"planCode,omitempty"`

	// MeterType is "prepaid" or "postpaid" for electricity.
	MeterType string `json:"meterType,omitempty"`

	// SubscriptionType is "renew" or "change" for TV subscriptions.
	SubscriptionType string `json:"subscriptionType,omitempty"`

	// ChainNetwork is the destination chain for crypto transfers
	// (e.g. "ethereum", "solana").
	ChainNetwork string `json:"chainNetwork,omitempty"`

	// ContactPhone receives provider SMS receipts for bill payments.
	ContactPhone string `json:"contactPhone,omitempty"`
}

// FundingSource is the balance the user pays from. Supplied by the backend
// catalog and treated as read-only.
type FundingSource struct {
	Kind     SourceKind `json:"kind" validate:"required"`
	WalletID string     `json:"walletId" validate:"required"`
	Currency string     `json:"currency" validate:"required"`

	// Balance is a display string; it is never parsed for arithmetic.
	Balance string `json:"balance,omitempty"`

	// Network is the chain the crypto balance lives on, if any.
	Network string `json:"network,omitempty"`
}

// IsCrypto reports whether paying from this source needs an FX quote.
func (f *FundingSource) IsCrypto() bool {
	return f != nil && f.Kind == SourceCrypto
}

// Quote is a server-issued, time-boxed, single-use price commitment for a
// PaymentIntent against a FundingSource. Only a Quote may be executed;
// display estimates never carry a reference.
type Quote struct {
	// Reference is the opaque server token consumed exactly once by execute.
	Reference string `json:"quoteReference"`

	// DeductionAmount is what the source wallet will actually be debited.
	DeductionAmount decimal.Decimal `json:"deductionAmount"`

	// DeductionCurrency is the currency of the deduction.
	DeductionCurrency string `json:"deductionCurrency"`

	// ExchangeRate between deduction currency and base currency.
	ExchangeRate decimal.Decimal `json:"exchangeRate"`

	// TransactionFee charged on top, in the deduction currency.
	TransactionFee decimal.Decimal `json:"transactionFee"`

	// Cashback credited back on success, zero for most categories.
	Cashback decimal.Decimal `json:"cashback"`

	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the quote's advisory expiry has passed. The
// authoritative check happens server-side at execution time.
func (q *Quote) Expired(now time.Time) bool {
	return q != nil && !q.ExpiresAt.IsZero() && !now.Before(q.ExpiresAt)
}

// Outcome of an execution attempt.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// ResultMetadata carries category-specific detail for the result screen.
// Absent fields are defaulted by the classifier, never left null.
type ResultMetadata struct {
	CustomerName   string `json:"customerName"`
	ServiceAddress string `json:"serviceAddress"`
	Token          string `json:"token"`
	Units          string `json:"units"`
	DueDate        string `json:"dueDate"`
}

// ExecutionResult is the terminal, classified outcome of one attempt.
// It is never retried automatically.
type ExecutionResult struct {
	Outcome              Outcome        `json:"outcome"`
	TransactionReference string         `json:"transactionReference,omitempty"`
	Reason               string         `json:"reason,omitempty"`
	Metadata             ResultMetadata `json:"metadata"`
}

// ExecutionResponse is the raw, well-formed backend reply to an execute
// call, before classification.
type ExecutionResponse struct {
	Success     bool           `json:"success"`
	ErrorCode   string         `json:"errorCode,omitempty"`
	Description string         `json:"description,omitempty"`
	Data        *ExecutionData `json:"data,omitempty"`
}

// ExecutionData is the payload of a successful execute call.
type ExecutionData struct {
	TransactionReference string            `json:"transactionReference"`
	Status               string            `json:"status"`
	Metadata             map[string]string `json:"metadata,omitempty"`
}

// Verification is the reply from a meter or decoder lookup. It gates input
// validity for categories that require it.
type Verification struct {
	Verified bool   `json:"verified"`
	Name     string `json:"name"`
}
