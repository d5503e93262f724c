package flow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/thunderpay/thunder-go/types"
)

func TestClassifySuccess(t *testing.T) {
	resp := &types.ExecutionResponse{
		Success: true,
		Data: &types.ExecutionData{
			TransactionReference: "T1",
			Metadata:             map[string]string{},
		},
	}

	result, class := Classify(resp, nil)
	assert.Equal(t, ClassSuccess, class)
	assert.Equal(t, types.OutcomeSuccess, result.Outcome)
	assert.Equal(t, "T1", result.TransactionReference)
	assert.Equal(t, "N/A", result.Metadata.CustomerName)
	assert.Equal(t, "", result.Metadata.Token)
}

func TestClassifySuccessWithMetadata(t *testing.T) {
	resp := &types.ExecutionResponse{
		Success: true,
		Data: &types.ExecutionData{
			TransactionReference: "TX-1",
			Metadata: map[string]string{
				"units":        "15kWh",
				"token":        "1234-5678-9012",
				"customerName": "ADA OBI",
			},
		},
	}

	result, class := Classify(resp, nil)
	assert.Equal(t, ClassSuccess, class)
	assert.Equal(t, "15kWh", result.Metadata.Units)
	assert.Equal(t, "1234-5678-9012", result.Metadata.Token)
	assert.Equal(t, "ADA OBI", result.Metadata.CustomerName)
}

func TestClassifySuccessWithoutData(t *testing.T) {
	resp := &types.ExecutionResponse{Success: true}

	result, class := Classify(resp, nil)
	assert.Equal(t, ClassFailure, class)
	assert.Equal(t, types.ReasonUnexpected, result.Reason)
}

func TestClassifyTransportError(t *testing.T) {
	result, class := Classify(nil, errors.New("dial tcp: connection refused"))
	assert.Equal(t, ClassFailure, class)
	assert.Equal(t, types.OutcomeFailure, result.Outcome)
	assert.Equal(t, types.ReasonUnexpected, result.Reason)
}

func TestClassifyPinRejection(t *testing.T) {
	tests := []struct {
		name       string
		resp       *types.ExecutionResponse
		wantClass  Classification
		wantReason string
	}{
		{
			name:       "description mentions pin",
			resp:       &types.ExecutionResponse{Success: false, Description: "Invalid pin"},
			wantClass:  ClassPinError,
			wantReason: "Invalid pin",
		},
		{
			name:       "mixed case",
			resp:       &types.ExecutionResponse{Success: false, Description: "Incorrect PIN supplied"},
			wantClass:  ClassPinError,
			wantReason: "Incorrect PIN supplied",
		},
		{
			name:       "structured code wins over description",
			resp:       &types.ExecutionResponse{Success: false, ErrorCode: "insufficient_funds", Description: "wallet pinned below minimum"},
			wantClass:  ClassFailure,
			wantReason: "wallet pinned below minimum",
		},
		{
			name:       "structured invalid_pin without description",
			resp:       &types.ExecutionResponse{Success: false, ErrorCode: types.ErrInvalidPin},
			wantClass:  ClassPinError,
			wantReason: "Invalid pin",
		},
		{
			name:       "unrelated failure",
			resp:       &types.ExecutionResponse{Success: false, Description: "Insufficient balance"},
			wantClass:  ClassFailure,
			wantReason: "Insufficient balance",
		},
		{
			name:       "failure without description",
			resp:       &types.ExecutionResponse{Success: false},
			wantClass:  ClassFailure,
			wantReason: types.ReasonProviderDown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, class := Classify(tt.resp, nil)
			assert.Equal(t, tt.wantClass, class)
			assert.Equal(t, tt.wantReason, result.Reason)
		})
	}
}
