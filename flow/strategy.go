package flow

import (
	"context"
	"fmt"

	"github.com/thunderpay/thunder-go/types"
)

// Verifier is the backend surface used to verify targets during input.
type Verifier interface {
	VerifyMeter(ctx context.Context, provider, meterNumber, meterType string) (*types.Verification, error)
	VerifyDecoder(ctx context.Context, provider, smartcard string) (*types.Verification, error)
}

// CategoryStrategy parameterizes the one flow controller per payment
// product: input validation, the optional target verification hook, and
// result-screen mapping. One strategy exists per category instead of one
// hand-rolled flow per screen.
type CategoryStrategy interface {
	Category() types.Category

	// ValidateIntent checks the intent is complete for this category.
	ValidateIntent(i *types.PaymentIntent) error

	// Verify resolves the target to a customer name where the category
	// requires it. Returns (nil, nil) for categories without verification.
	Verify(ctx context.Context, backend Verifier, i *types.PaymentIntent) (*types.Verification, error)

	// SuccessTitle is the headline of a successful result screen.
	SuccessTitle() string

	// Details maps a classified result to the category's detail lines.
	Details(r *types.ExecutionResult) map[string]string
}

// StrategyFor returns the strategy for a category.
func StrategyFor(category types.Category) (CategoryStrategy, error) {
	switch category {
	case types.CategoryAirtime:
		return airtimeStrategy{}, nil
	case types.CategoryData:
		return dataStrategy{}, nil
	case types.CategoryElectricity:
		return electricityStrategy{}, nil
	case types.CategoryTV:
		return tvStrategy{}, nil
	case types.CategoryBankTransfer:
		return bankTransferStrategy{}, nil
	case types.CategoryPeerTransfer:
		return peerTransferStrategy{}, nil
	case types.CategoryCryptoTransfer:
		return cryptoTransferStrategy{}, nil
	default:
		return nil, types.E(types.ErrUnsupported, fmt.Sprintf("unsupported category: %s", category))
	}
}

// validateFor is the shared intent check: category match plus the intent's
// own per-category rules.
func validateFor(category types.Category, i *types.PaymentIntent) error {
	if i == nil {
		return types.E(types.ErrInvalidInput, "payment intent is required")
	}
	if i.Category != category {
		return types.E(types.ErrInvalidInput,
			fmt.Sprintf("intent category %s does not match flow category %s", i.Category, category))
	}
	return i.Validate()
}

type airtimeStrategy struct{}

func (airtimeStrategy) Category() types.Category { return types.CategoryAirtime }

func (airtimeStrategy) ValidateIntent(i *types.PaymentIntent) error {
	return validateFor(types.CategoryAirtime, i)
}

func (airtimeStrategy) Verify(context.Context, Verifier, *types.PaymentIntent) (*types.Verification, error) {
	return nil, nil
}

func (airtimeStrategy) SuccessTitle() string { return "Airtime Purchase Successful" }

func (airtimeStrategy) Details(r *types.ExecutionResult) map[string]string {
	return map[string]string{
		"reference": r.TransactionReference,
	}
}

type dataStrategy struct{}

func (dataStrategy) Category() types.Category { return types.CategoryData }

func (dataStrategy) ValidateIntent(i *types.PaymentIntent) error {
	return validateFor(types.CategoryData, i)
}

func (dataStrategy) Verify(context.Context, Verifier, *types.PaymentIntent) (*types.Verification, error) {
	return nil, nil
}

func (dataStrategy) SuccessTitle() string { return "Data Purchase Successful" }

func (dataStrategy) Details(r *types.ExecutionResult) map[string]string {
	return map[string]string{
		"reference": r.TransactionReference,
	}
}

type electricityStrategy struct{}

func (electricityStrategy) Category() types.Category { return types.CategoryElectricity }

func (electricityStrategy) ValidateIntent(i *types.PaymentIntent) error {
	return validateFor(types.CategoryElectricity, i)
}

func (electricityStrategy) Verify(ctx context.Context, backend Verifier, i *types.PaymentIntent) (*types.Verification, error) {
	return backend.VerifyMeter(ctx, i.Provider, i.Target, i.MeterType)
}

func (electricityStrategy) SuccessTitle() string { return "Electricity Purchase Successful" }

func (electricityStrategy) Details(r *types.ExecutionResult) map[string]string {
	return map[string]string{
		"reference":    r.TransactionReference,
		"token":        r.Metadata.Token,
		"units":        r.Metadata.Units,
		"customerName": r.Metadata.CustomerName,
		"address":      r.Metadata.ServiceAddress,
	}
}

type tvStrategy struct{}

func (tvStrategy) Category() types.Category { return types.CategoryTV }

func (tvStrategy) ValidateIntent(i *types.PaymentIntent) error {
	return validateFor(types.CategoryTV, i)
}

func (tvStrategy) Verify(ctx context.Context, backend Verifier, i *types.PaymentIntent) (*types.Verification, error) {
	return backend.VerifyDecoder(ctx, i.Provider, i.Target)
}

func (tvStrategy) SuccessTitle() string { return "TV Subscription Successful" }

func (tvStrategy) Details(r *types.ExecutionResult) map[string]string {
	return map[string]string{
		"reference":    r.TransactionReference,
		"customerName": r.Metadata.CustomerName,
		"dueDate":      r.Metadata.DueDate,
	}
}

type bankTransferStrategy struct{}

func (bankTransferStrategy) Category() types.Category { return types.CategoryBankTransfer }

func (bankTransferStrategy) ValidateIntent(i *types.PaymentIntent) error {
	return validateFor(types.CategoryBankTransfer, i)
}

func (bankTransferStrategy) Verify(context.Context, Verifier, *types.PaymentIntent) (*types.Verification, error) {
	return nil, nil
}

func (bankTransferStrategy) SuccessTitle() string { return "Transfer Successful" }

func (bankTransferStrategy) Details(r *types.ExecutionResult) map[string]string {
	return map[string]string{
		"reference":     r.TransactionReference,
		"recipientName": r.Metadata.CustomerName,
	}
}

type peerTransferStrategy struct{}

func (peerTransferStrategy) Category() types.Category { return types.CategoryPeerTransfer }

func (peerTransferStrategy) ValidateIntent(i *types.PaymentIntent) error {
	return validateFor(types.CategoryPeerTransfer, i)
}

func (peerTransferStrategy) Verify(context.Context, Verifier, *types.PaymentIntent) (*types.Verification, error) {
	return nil, nil
}

func (peerTransferStrategy) SuccessTitle() string { return "Transfer Successful" }

func (peerTransferStrategy) Details(r *types.ExecutionResult) map[string]string {
	return map[string]string{
		"reference":     r.TransactionReference,
		"recipientName": r.Metadata.CustomerName,
	}
}

type cryptoTransferStrategy struct{}

func (cryptoTransferStrategy) Category() types.Category { return types.CategoryCryptoTransfer }

func (cryptoTransferStrategy) ValidateIntent(i *types.PaymentIntent) error {
	return validateFor(types.CategoryCryptoTransfer, i)
}

func (cryptoTransferStrategy) Verify(context.Context, Verifier, *types.PaymentIntent) (*types.Verification, error) {
	return nil, nil
}

func (cryptoTransferStrategy) SuccessTitle() string { return "Crypto Transfer Successful" }

func (cryptoTransferStrategy) Details(r *types.ExecutionResult) map[string]string {
	return map[string]string{
		"reference": r.TransactionReference,
	}
}
