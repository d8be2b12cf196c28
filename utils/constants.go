package utils

import (
	"time"
)

// ContextKey is the type for request-scoped context values.
type ContextKey string

// Request context keys shared between handlers and flows
const (
	RequestIDKey  ContextKey = "request_id"
	UserAgentKey  ContextKey = "user_agent"
	IPAddressKey  ContextKey = "ip_address"
	EndpointKey   ContextKey = "endpoint"
	TimeoutKey    ContextKey = "timeout"
	CancelFuncKey ContextKey = "cancel_func"
)

// Backend interaction constants
const (
	// DefaultBackendTimeout bounds every upstream request.
	DefaultBackendTimeout = 10 * time.Second

	// CatalogCacheTTL is how long the reference route catalog snapshot lives.
	CatalogCacheTTL = 5 * time.Minute

	// SessionExpiryWarning is the window before token expiry at which the
	// console starts reporting the session as about to expire.
	SessionExpiryWarning = 2 * time.Minute
)

// HTTP server constants
const (
	// CORSMaxAge is how long browsers may cache preflight responses, in seconds.
	CORSMaxAge = 300
)
