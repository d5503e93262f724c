package flow

import (
	"strings"

	"github.com/thunderpay/thunder-go/types"
)

// Classification buckets an execution reply for the controller.
type Classification int

const (
	// ClassSuccess is a positive outcome with a transaction reference.
	ClassSuccess Classification = iota

	// ClassPinError is a rejection attributable to the PIN; the flow stays
	// at PIN entry and the user may re-enter.
	ClassPinError

	// ClassFailure is every other negative outcome, transport errors
	// included. Terminal for the attempt.
	ClassFailure
)

// IsPinRejection reports whether a negative reply is attributable to the
// PIN. A structured invalid_pin error code is honored first; deployed
// backends that only send a human-readable description fall back to a
// case-insensitive substring match.
func IsPinRejection(resp *types.ExecutionResponse) bool {
	if resp == nil || resp.Success {
		return false
	}
	if resp.ErrorCode != "" {
		return resp.ErrorCode == types.ErrInvalidPin
	}
	return strings.Contains(strings.ToLower(resp.Description), "pin")
}

// Classify maps a raw execution reply (or transport error) to a terminal
// ExecutionResult and its classification. It never panics and never
// propagates absent fields as empty-for-null surprises: metadata is
// defaulted to safe placeholders.
func Classify(resp *types.ExecutionResponse, err error) (types.ExecutionResult, Classification) {
	if err != nil || resp == nil {
		return types.ExecutionResult{
			Outcome:  types.OutcomeFailure,
			Reason:   types.ReasonUnexpected,
			Metadata: defaultMetadata(nil),
		}, ClassFailure
	}

	if resp.Success {
		if resp.Data == nil {
			return types.ExecutionResult{
				Outcome:  types.OutcomeFailure,
				Reason:   types.ReasonUnexpected,
				Metadata: defaultMetadata(nil),
			}, ClassFailure
		}
		return types.ExecutionResult{
			Outcome:              types.OutcomeSuccess,
			TransactionReference: resp.Data.TransactionReference,
			Metadata:             defaultMetadata(resp.Data.Metadata),
		}, ClassSuccess
	}

	reason := resp.Description
	if IsPinRejection(resp) {
		if reason == "" {
			reason = "Invalid pin"
		}
		return types.ExecutionResult{
			Outcome:  types.OutcomeFailure,
			Reason:   reason,
			Metadata: defaultMetadata(nil),
		}, ClassPinError
	}

	if reason == "" {
		reason = types.ReasonProviderDown
	}
	return types.ExecutionResult{
		Outcome:  types.OutcomeFailure,
		Reason:   reason,
		Metadata: defaultMetadata(nil),
	}, ClassFailure
}

// defaultMetadata lifts the loose metadata map into ResultMetadata with
// placeholders for anything the backend omitted.
func defaultMetadata(m map[string]string) types.ResultMetadata {
	get := func(key string) string {
		if m == nil {
			return ""
		}
		return m[key]
	}

	meta := types.ResultMetadata{
		CustomerName:   get("customerName"),
		ServiceAddress: get("serviceAddress"),
		Token:          get("token"),
		Units:          get("units"),
		DueDate:        get("dueDate"),
	}
	if meta.CustomerName == "" {
		meta.CustomerName = "N/A"
	}
	return meta
}
