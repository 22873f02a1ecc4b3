package errors

// Code is a business-level error code returned in the response envelope.
// The numbering is owned by the backend's response package; this table must
// stay in sync with it.
type Code int

// Success and generic error codes (1000-1999)
const (
	Success Code = 0

	UnknownError  Code = 1000
	InvalidParams Code = 1001
	InternalError Code = 1002
	DatabaseError Code = 1003
	NetworkError  Code = 1004
	TimeoutError  Code = 1005
)

// Authentication error codes (2000-2999)
const (
	Unauthorized     Code = 2000
	TokenExpired     Code = 2001
	TokenInvalid     Code = 2002
	LoginFailed      Code = 2003
	PermissionDenied Code = 2004
)

// Business error codes (3000-3999)
const (
	NotFound         Code = 3000
	AlreadyExists    Code = 3001
	OperationFailed  Code = 3002
	RateLimited      Code = 3003
	ValidationFailed Code = 3004
)

// App error codes (4000-4999)
const (
	AppNotFound      Code = 4000
	AppDisabled      Code = 4001
	AppNameExists    Code = 4002
	AppPackageExists Code = 4003
)

// User error codes (5000-5999)
const (
	UserNotFound Code = 5000
	UserDisabled Code = 5001
	UserExists   Code = 5002
)

// Module error codes (6000-6999)
const (
	ModuleNotFound    Code = 6000
	ModuleDisabled    Code = 6001
	ModuleConfigError Code = 6002
)

// DefaultMessage is returned by Message for codes missing from the table.
const DefaultMessage = "operation failed"

var messages = map[Code]string{
	Success: "operation successful",

	UnknownError:  "unknown error, please try again later",
	InvalidParams: "invalid request parameters",
	InternalError: "internal server error",
	DatabaseError: "database operation failed",
	NetworkError:  "network connection failed, check your network",
	TimeoutError:  "request timed out, please try again later",

	Unauthorized:     "please sign in first",
	TokenExpired:     "session expired, please sign in again",
	TokenInvalid:     "invalid session credentials",
	LoginFailed:      "incorrect username or password",
	PermissionDenied: "permission denied",

	NotFound:         "resource not found",
	AlreadyExists:    "resource already exists",
	OperationFailed:  "operation failed",
	RateLimited:      "too many requests, please try again later",
	ValidationFailed: "data validation failed",

	AppNotFound:      "app not found",
	AppDisabled:      "app is disabled",
	AppNameExists:    "app name already exists",
	AppPackageExists: "package name already exists",

	UserNotFound: "user not found",
	UserDisabled: "user is disabled",
	UserExists:   "user already exists",

	ModuleNotFound:    "module not found",
	ModuleDisabled:    "module is disabled",
	ModuleConfigError: "module configuration error",
}

// Message returns the human-readable message for a code, falling back to
// DefaultMessage for codes not in the table.
func Message(code Code) string {
	if msg, ok := messages[code]; ok {
		return msg
	}
	return DefaultMessage
}

// retryableCodes is the explicit allow-list of business codes worth retrying.
var retryableCodes = map[Code]struct{}{
	NetworkError:  {},
	TimeoutError:  {},
	InternalError: {},
	DatabaseError: {},
	RateLimited:   {},
}

// IsAuthCode reports whether a code requires re-authentication handling.
func IsAuthCode(code Code) bool {
	return code >= 2000 && code < 3000
}

// IsRetryableCode reports whether a business code is in the retryable set.
func IsRetryableCode(code Code) bool {
	_, ok := retryableCodes[code]
	return ok
}

// IsRateLimitCode reports whether a code indicates request throttling.
func IsRateLimitCode(code Code) bool {
	return code == RateLimited
}
