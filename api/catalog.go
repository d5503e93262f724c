package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/thunderpay/thunder-go/types"
)

// VerifyMeter looks up an electricity meter with the named provider.
// A negative reply is a normal result, not an error.
func (c *Client) VerifyMeter(ctx context.Context, provider, meterNumber, meterType string) (*types.Verification, error) {
	path := fmt.Sprintf("/electricity/%s/verify?meter=%s&type=%s",
		url.PathEscape(provider), url.QueryEscape(meterNumber), url.QueryEscape(meterType))
	return c.verify(ctx, path, types.CategoryElectricity)
}

// VerifyDecoder looks up a TV smartcard with the named provider.
func (c *Client) VerifyDecoder(ctx context.Context, provider, smartcard string) (*types.Verification, error) {
	path := fmt.Sprintf("/tv-cable/%s/verify?smartcard=%s",
		url.PathEscape(provider), url.QueryEscape(smartcard))
	return c.verify(ctx, path, types.CategoryTV)
}

// verify decodes a verification reply. These endpoints are older than the
// uniform envelope and may answer with a bare {verified, name} body, so
// both shapes are accepted.
func (c *Client) verify(ctx context.Context, path string, category types.Category) (*types.Verification, error) {
	raw, status, err := c.doRaw(ctx, "GET", path, nil, "verify", category.String())
	if err != nil {
		return nil, err
	}

	var probe struct {
		Success     *bool           `json:"success"`
		Description string          `json:"description,omitempty"`
		Data        json.RawMessage `json:"data,omitempty"`
		Verified    bool            `json:"verified"`
		Name        string          `json:"name"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, types.Wrap(types.ErrNetworkError,
			fmt.Sprintf("unreadable verification response (status %d)", status), err)
	}

	if probe.Success == nil {
		return &types.Verification{Verified: probe.Verified, Name: probe.Name}, nil
	}

	if !*probe.Success {
		reason := probe.Description
		if reason == "" {
			reason = types.ReasonProviderDown
		}
		return nil, types.E(types.ErrVerifyFailed, reason)
	}

	var v types.Verification
	if len(probe.Data) > 0 {
		if err := json.Unmarshal(probe.Data, &v); err != nil {
			return nil, types.Wrap(types.ErrNetworkError, "malformed verification payload", err)
		}
	}
	return &v, nil
}

// FundingSources fetches the payable balances for the authenticated user:
// the fiat wallet plus one entry per crypto asset balance.
func (c *Client) FundingSources(ctx context.Context) ([]types.FundingSource, error) {
	env, err := c.do(ctx, "GET", "/wallets/funding-sources", nil, "funding_sources", "")
	if err != nil {
		return nil, err
	}

	if !env.Success {
		reason := env.Description
		if reason == "" {
			reason = types.ReasonUnexpected
		}
		return nil, types.E(types.ErrNetworkError, reason)
	}

	var payload struct {
		Sources []types.FundingSource `json:"sources"`
	}
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return nil, types.Wrap(types.ErrNetworkError, "malformed funding sources payload", err)
		}
	}
	return payload.Sources, nil
}
