package ai

import "errors"

// ErrQuotaExceeded indicates the AI provider returned a quota/limit
// error (HTTP 429 or similar); the router maps it to 429.
var ErrQuotaExceeded = errors.New("ai quota exceeded")
