package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrRefreshFailed    = fmt.Errorf("token refresh failed")
	ErrNoRefreshToken   = fmt.Errorf("no refresh token available")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest           = fmt.Errorf("API request failed")
	ErrServiceUnavailable   = fmt.Errorf("service unavailable")
	ErrConversationNotFound = fmt.Errorf("conversation not found")
	ErrMessageNotFound      = fmt.Errorf("message not found")
	ErrUserNotFound         = fmt.Errorf("user not found")

	// Chat connection errors
	ErrNotConnected   = fmt.Errorf("chat connection not established")
	ErrChatRestricted = fmt.Errorf("chat restricted for this account")
	ErrConnClosed     = fmt.Errorf("connection closed")

	// Media errors
	ErrAlreadyRecording = fmt.Errorf("a recording is already in progress")
	ErrNotRecording     = fmt.Errorf("no recording in progress")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
	ErrInvalidMessage  = fmt.Errorf("invalid message")
)
