package mws_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/mwslabels/pkg/mws"
)

func TestAPIError_Error(t *testing.T) {
	err := mws.NewAPIError("GetUniquePackageLabels", "InvalidParameterValue", "bad shipment")
	assert.Equal(t, "mws GetUniquePackageLabels error (InvalidParameterValue): bad shipment", err.Error())

	err.WithCause(mws.ErrInvalidResponse)
	assert.Equal(t, "mws GetUniquePackageLabels error (InvalidParameterValue): bad shipment: invalid response", err.Error())
}

func TestAPIError_IsAndUnwrap(t *testing.T) {
	err := mws.NewAPIError("op", "RequestThrottled", "slow down").WithCause(mws.ErrThrottled)
	wrapped := fmt.Errorf("calling: %w", err)

	assert.ErrorIs(t, wrapped, mws.ErrThrottled)
	assert.ErrorIs(t, wrapped, mws.NewAPIError("other", "RequestThrottled", ""))
	assert.NotErrorIs(t, wrapped, mws.NewAPIError("op", "AccessDenied", ""))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, mws.IsRetryable(mws.NewAPIError("op", "X", "").WithRetryable(true)))
	assert.False(t, mws.IsRetryable(mws.NewAPIError("op", "X", "")))
	assert.True(t, mws.IsRetryable(fmt.Errorf("wrap: %w", mws.ErrServiceUnavailable)))
	assert.False(t, mws.IsRetryable(errors.New("boom")))
}

func TestCheckResponse(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		code      string
		cause     error
		retryable bool
	}{
		{
			name:   "throttled",
			status: http.StatusServiceUnavailable,
			body: `<ErrorResponse><Error><Type>Sender</Type><Code>RequestThrottled</Code>` +
				`<Message>Request is throttled</Message></Error><RequestId>r-1</RequestId></ErrorResponse>`,
			code:      "RequestThrottled",
			cause:     mws.ErrThrottled,
			retryable: true,
		},
		{
			name:   "bad signature",
			status: http.StatusForbidden,
			body: `<ErrorResponse><Error><Type>Sender</Type><Code>SignatureDoesNotMatch</Code>` +
				`<Message>no match</Message></Error></ErrorResponse>`,
			code:  "SignatureDoesNotMatch",
			cause: mws.ErrAuthenticationFailed,
		},
		{
			name:      "server error without xml",
			status:    http.StatusInternalServerError,
			body:      "internal error",
			code:      "HTTP_500",
			cause:     mws.ErrServiceUnavailable,
			retryable: true,
		},
		{
			name:   "invalid parameter",
			status: http.StatusBadRequest,
			body: `<ErrorResponse><Error><Type>Sender</Type><Code>InvalidParameterValue</Code>` +
				`<Message>Invalid ShipmentId</Message></Error></ErrorResponse>`,
			code: "InvalidParameterValue",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mws.CheckResponse("GetUniquePackageLabels", &mws.Response{
				StatusCode: tt.status,
				Header:     http.Header{},
				Body:       []byte(tt.body),
			})
			require.Error(t, err)

			var apiErr *mws.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.code, apiErr.Code)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.retryable, apiErr.Retryable)
			if tt.cause != nil {
				assert.ErrorIs(t, err, tt.cause)
			} else {
				assert.Nil(t, apiErr.Cause)
			}
		})
	}
}

func TestCheckResponse_OK(t *testing.T) {
	assert.NoError(t, mws.CheckResponse("op", &mws.Response{StatusCode: http.StatusOK}))
}

func TestCheckResponse_Nil(t *testing.T) {
	assert.ErrorIs(t, mws.CheckResponse("op", nil), mws.ErrInvalidResponse)
}

func TestCheckResponse_RequestIDFromHeader(t *testing.T) {
	header := http.Header{}
	header.Set("X-Amzn-RequestId", "hdr-1")

	err := mws.CheckResponse("op", &mws.Response{StatusCode: http.StatusBadRequest, Header: header})

	var apiErr *mws.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "hdr-1", apiErr.RequestID)
}
