package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/thunderpay/thunder-go/types"
)

// billQuoteRequest is the body of POST /bills/{category}/quote.
type billQuoteRequest struct {
	Target           string          `json:"target"`
	Amount           decimal.Decimal `json:"amount"`
	SourceCurrency   string          `json:"sourceCurrency"`
	FundingSourceID  string          `json:"fundingSourceId"`
	BaseCurrency     string          `json:"baseCurrency"`
	ServiceID        string          `json:"serviceId,omitempty"`
	PlanCode         string          `json:"planCode,omitempty"`
	MeterType        string          `json:"meterType,omitempty"`
	SubscriptionType string          `json:"subscriptionType,omitempty"`
	Phone            string          `json:"phone,omitempty"`
}

// transferQuoteRequest is the body of POST /transfer/quote.
type transferQuoteRequest struct {
	Scope               string          `json:"scope"`
	WalletID            string          `json:"walletId"`
	RecipientAddress    string          `json:"recipientAddress,omitempty"`
	RecipientIdentifier string          `json:"recipientIdentifier,omitempty"`
	RecipientBank       string          `json:"recipientBank,omitempty"`
	Network             string          `json:"network,omitempty"`
	Amount              decimal.Decimal `json:"amount"`
	SourceCurrency      string          `json:"sourceCurrency"`
	BaseCurrency        string          `json:"baseCurrency"`
}

// quotePayload is the data member of a successful quote response.
type quotePayload struct {
	QuoteReference     string          `json:"quoteReference"`
	DeductionAmount    decimal.Decimal `json:"deductionAmount"`
	DeductionCurrency  string          `json:"deductionCurrency"`
	ExchangeRate       decimal.Decimal `json:"exchangeRate"`
	TransactionFee     decimal.Decimal `json:"transactionFee"`
	Cashback           decimal.Decimal `json:"cashback"`
	ExpiresAtTimestamp int64           `json:"expiresAtTimestamp"`
}

type executeRequest struct {
	QuoteReference string `json:"quoteReference"`
	Pin            string `json:"pin"`
}

// transferScope maps a transfer category to the scope field the backend
// expects on /transfer endpoints.
func transferScope(category types.Category) string {
	switch category {
	case types.CategoryCryptoTransfer:
		return "crypto"
	case types.CategoryBankTransfer:
		return "bank"
	default:
		return "peer"
	}
}

// Quote requests a priced, expiring quote for intent paid from source. Bill
// categories go through /bills/{category}/quote, transfers through
// /transfer/quote. A negative backend reply becomes a quote_failed error.
func (c *Client) Quote(ctx context.Context, intent *types.PaymentIntent, source *types.FundingSource) (*types.Quote, error) {
	var (
		env *envelope
		err error
	)

	if intent.Category.IsTransfer() {
		body := transferQuoteRequest{
			Scope:          transferScope(intent.Category),
			WalletID:       source.WalletID,
			Network:        intent.ChainNetwork,
			Amount:         intent.Amount,
			SourceCurrency: source.Currency,
			BaseCurrency:   intent.BaseCurrency,
		}
		if intent.Category == types.CategoryCryptoTransfer {
			body.RecipientAddress = intent.Target
		} else {
			body.RecipientIdentifier = intent.Target
			body.RecipientBank = intent.Provider
		}
		env, err = c.do(ctx, "POST", "/transfer/quote", body, "quote", intent.Category.String())
	} else {
		body := billQuoteRequest{
			Target:           intent.Target,
			Amount:           intent.Amount,
			SourceCurrency:   source.Currency,
			FundingSourceID:  source.WalletID,
			BaseCurrency:     intent.BaseCurrency,
			ServiceID:        intent.Provider,
			PlanCode:         intent.PlanCode,
			MeterType:        intent.MeterType,
			SubscriptionType: intent.SubscriptionType,
			Phone:            intent.ContactPhone,
		}
		path := fmt.Sprintf("/bills/%s/quote", intent.Category)
		env, err = c.do(ctx, "POST", path, body, "quote", intent.Category.String())
	}
	if err != nil {
		return nil, err
	}

	if !env.Success || len(env.Data) == 0 {
		reason := env.Description
		if reason == "" {
			reason = types.ReasonProviderDown
		}
		return nil, types.E(types.ErrQuoteFailed, reason)
	}

	var payload quotePayload
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return nil, types.Wrap(types.ErrNetworkError, "malformed quote payload", err)
	}
	if payload.QuoteReference == "" {
		return nil, types.E(types.ErrQuoteFailed, "quote response missing reference")
	}

	return &types.Quote{
		Reference:         payload.QuoteReference,
		DeductionAmount:   payload.DeductionAmount,
		DeductionCurrency: payload.DeductionCurrency,
		ExchangeRate:      payload.ExchangeRate,
		TransactionFee:    payload.TransactionFee,
		Cashback:          payload.Cashback,
		ExpiresAt:         time.Unix(payload.ExpiresAtTimestamp, 0),
	}, nil
}

// Execute submits a quote reference with the authorizing PIN. Any
// well-formed backend reply is returned for classification, including
// negative ones; only transport failures come back as errors.
func (c *Client) Execute(ctx context.Context, category types.Category, quoteReference, pin string) (*types.ExecutionResponse, error) {
	path := "/bills/execute"
	if category.IsTransfer() {
		path = "/transfer/execute"
	}

	env, err := c.do(ctx, "POST", path, executeRequest{
		QuoteReference: quoteReference,
		Pin:            pin,
	}, "execute", category.String())
	if err != nil {
		return nil, err
	}

	resp := &types.ExecutionResponse{
		Success:     env.Success,
		ErrorCode:   env.ErrorCode,
		Description: env.Description,
	}
	if len(env.Data) > 0 {
		var data types.ExecutionData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, types.Wrap(types.ErrNetworkError, "malformed execution payload", err)
		}
		resp.Data = &data
	}
	return resp, nil
}
