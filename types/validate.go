package types

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

var (
	phonePattern     = regexp.MustCompile(`^0\d{10}$`)
	meterPattern     = regexp.MustCompile(`^\d{10,13}$`)
	smartcardPattern = regexp.MustCompile(`^\d{10}$`)
	accountPattern   = regexp.MustCompile(`^\d{10}$`)
)

// Validate checks a PaymentIntent for completeness: struct-level required
// fields, a positive amount, and the category-specific target format.
func (i *PaymentIntent) Validate() error {
	if i == nil {
		return E(ErrInvalidInput, "payment intent is required")
	}

	if err := validate.Struct(i); err != nil {
		return Wrap(ErrInvalidInput, fmt.Sprintf("incomplete payment intent: %v", err), err)
	}

	if !i.Amount.IsPositive() {
		return E(ErrInvalidInput, "amount must be greater than 0")
	}

	switch i.Category {
	case CategoryAirtime, CategoryData:
		if !phonePattern.MatchString(i.Target) {
			return E(ErrInvalidInput, "invalid phone number")
		}
		if i.Provider == "" {
			return E(ErrInvalidInput, "network provider is required")
		}
		if i.Category == CategoryData && i.PlanCode == "" {
			return E(ErrInvalidInput, "data plan is required")
		}
	case CategoryElectricity:
		if !meterPattern.MatchString(i.Target) {
			return E(ErrInvalidInput, "invalid meter number")
		}
		if i.Provider == "" {
			return E(ErrInvalidInput, "electricity provider is required")
		}
		if i.MeterType != "prepaid" && i.MeterType != "postpaid" {
			return E(ErrInvalidInput, "meter type must be prepaid or postpaid")
		}
	case CategoryTV:
		if !smartcardPattern.MatchString(i.Target) {
			return E(ErrInvalidInput, "invalid smartcard number")
		}
		if i.Provider == "" {
			return E(ErrInvalidInput, "tv provider is required")
		}
	case CategoryBankTransfer:
		if !accountPattern.MatchString(i.Target) {
			return E(ErrInvalidInput, "invalid account number")
		}
		if i.Provider == "" {
			return E(ErrInvalidInput, "bank is required")
		}
	case CategoryPeerTransfer:
		if i.Target == "" {
			return E(ErrInvalidInput, "recipient identifier is required")
		}
	case CategoryCryptoTransfer:
		return validateWalletAddress(i.Target, i.ChainNetwork)
	default:
		return E(ErrUnsupported, fmt.Sprintf("unsupported category: %s", i.Category))
	}

	return nil
}

// validateWalletAddress checks a recipient address against the destination
// chain's address format.
func validateWalletAddress(address, network string) error {
	if address == "" {
		return E(ErrInvalidInput, "recipient address is required")
	}
	if network == "" {
		return E(ErrInvalidInput, "destination network is required")
	}

	switch {
	case strings.Contains(network, "solana"):
		if _, err := solana.PublicKeyFromBase58(address); err != nil {
			return Wrap(ErrInvalidInput, "invalid solana address", err)
		}
	default:
		// Every other supported network is EVM-style.
		if !common.IsHexAddress(address) {
			return E(ErrInvalidInput, "invalid wallet address")
		}
	}

	return nil
}

// Validate checks a FundingSource before it is quoted against.
func (f *FundingSource) Validate() error {
	if f == nil {
		return E(ErrInvalidInput, "funding source is required")
	}

	if err := validate.Struct(f); err != nil {
		return Wrap(ErrInvalidInput, fmt.Sprintf("incomplete funding source: %v", err), err)
	}

	if f.Kind != SourceFiat && f.Kind != SourceCrypto {
		return E(ErrInvalidInput, fmt.Sprintf("unknown funding source kind: %s", f.Kind))
	}

	return nil
}
