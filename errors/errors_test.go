package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAuthCode_Boundaries(t *testing.T) {
	// The auth range is exactly [2000, 3000).
	for code := Code(0); code < 7000; code++ {
		expected := code >= 2000 && code < 3000
		assert.Equal(t, expected, IsAuthCode(code), "code %d", code)
	}
}

func TestMessage_KnownCodes(t *testing.T) {
	tests := []struct {
		code Code
		want string
	}{
		{Success, "operation successful"},
		{TokenExpired, "session expired, please sign in again"},
		{RateLimited, "too many requests, please try again later"},
		{AppNotFound, "app not found"},
		{ModuleConfigError, "module configuration error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Message(tt.code))
	}
}

func TestMessage_UnknownCodeFallsBack(t *testing.T) {
	assert.Equal(t, DefaultMessage, Message(Code(9999)))
	assert.Equal(t, DefaultMessage, Message(Code(-1)))
}

func TestIsRetryableCode(t *testing.T) {
	retryable := []Code{NetworkError, TimeoutError, InternalError, DatabaseError, RateLimited}
	for _, code := range retryable {
		assert.True(t, IsRetryableCode(code), "code %d", code)
	}

	notRetryable := []Code{Success, InvalidParams, Unauthorized, TokenExpired, NotFound, AppDisabled}
	for _, code := range notRetryable {
		assert.False(t, IsRetryableCode(code), "code %d", code)
	}
}

func TestIsRateLimitCode(t *testing.T) {
	assert.True(t, IsRateLimitCode(RateLimited))
	assert.False(t, IsRateLimitCode(TimeoutError))
	assert.False(t, IsRateLimitCode(Success))
}

func TestSilent_Marking(t *testing.T) {
	err := Silent(ErrEmptyAppID)
	assert.True(t, IsSilent(err))
	assert.True(t, Is(err, ErrEmptyAppID))

	// Silent survives further wrapping.
	wrapped := Wrap(err, "client", "Send", "admission")
	assert.True(t, IsSilent(wrapped))

	assert.False(t, IsSilent(ErrEmptyAppID))
	assert.Nil(t, Silent(nil))
}

func TestAPIError_Formatting(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want string
	}{
		{
			name: "business error with envelope code",
			err: &APIError{
				Method: "GET", URL: "/apps", Status: 200,
				EnvelopeCode: AppNotFound, Message: "app not found",
			},
			want: "GET /apps: status 200 code 4000: app not found",
		},
		{
			name: "http error without envelope",
			err: &APIError{
				Method: "POST", URL: "/apps", Status: 502, Message: "bad gateway",
			},
			want: "POST /apps: status 502: bad gateway",
		},
		{
			name: "network failure without response",
			err: &APIError{
				Method: "GET", URL: "/apps", Message: "connection refused",
			},
			want: "GET /apps: connection refused",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestAPIError_UnwrapAndAs(t *testing.T) {
	cause := New("dial tcp: connection refused")
	apiErr := &APIError{Method: "GET", URL: "/health", Message: "network error", Err: cause}
	chained := fmt.Errorf("request failed: %w", apiErr)

	extracted, ok := AsAPIError(chained)
	require.True(t, ok)
	assert.Equal(t, "/health", extracted.URL)
	assert.True(t, Is(chained, cause))

	_, ok = AsAPIError(New("plain"))
	assert.False(t, ok)
}
