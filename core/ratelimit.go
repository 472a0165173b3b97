package core

import "time"

// RateLimit is a fixed-window quota
type RateLimit struct {
	Max    int
	Window time.Duration
}

// RateLimitEntry tracks one wallet inside its current window
type RateLimitEntry struct {
	WalletAddress string
	Count         int
	ResetTime     time.Time
}

// RateDecision is the result of a rate-limit check. A denial is a value, not an error.
type RateDecision struct {
	Allowed   bool      `json:"allowed"`
	Remaining int       `json:"remaining"`
	ResetTime time.Time `json:"resetTime"`
}
