package hgcm

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/jathurchan/guestprop/logger"
)

// RateLimiter decides whether a guest call may proceed now.
type RateLimiter interface {
	// Allow returns true if a call can proceed immediately.
	Allow() bool

	// Reserve admits the call when a token is available and otherwise returns
	// how long the caller should wait before retrying. No token is consumed on
	// rejection.
	Reserve() (ok bool, retryAfter time.Duration)
}

// TokenBucketRateLimiter implements RateLimiter with a token bucket.
type TokenBucketRateLimiter struct {
	limiter *rate.Limiter
	logger  logger.Logger
}

// NewTokenBucketRateLimiter admits maxCalls per window with the given burst.
func NewTokenBucketRateLimiter(maxCalls, burst int, window time.Duration, logger logger.Logger) *TokenBucketRateLimiter {
	var rps rate.Limit
	if window.Seconds() > 0 {
		rps = rate.Limit(float64(maxCalls) / window.Seconds())
	} else {
		rps = rate.Inf
		logger.Warnw("Rate limit window is zero or negative, disabling rate limiter.", "window", window)
	}
	if burst <= 0 {
		burst = 1
		if rps != rate.Inf {
			logger.Warnw("Rate limit burst is zero or negative, setting to 1.", "burst", burst)
		}
	}

	return &TokenBucketRateLimiter{
		limiter: rate.NewLimiter(rps, burst),
		logger:  logger,
	}
}

// Allow returns true if a call can proceed immediately.
func (rl *TokenBucketRateLimiter) Allow() bool {
	return rl.limiter.Allow()
}

// Reserve implements RateLimiter.
func (rl *TokenBucketRateLimiter) Reserve() (bool, time.Duration) {
	r := rl.limiter.Reserve()
	if !r.OK() {
		return false, 0
	}
	delay := r.Delay()
	if delay == 0 {
		return true, 0
	}
	r.Cancel()
	return false, delay
}

// unlimited admits every call.
type unlimited struct{}

func (unlimited) Allow() bool                    { return true }
func (unlimited) Reserve() (bool, time.Duration) { return true, 0 }
