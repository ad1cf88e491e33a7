package api

import (
	"context"
	"time"
)

// RateLimiter implements token bucket rate limiting
type RateLimiter struct {
	rate       int // requests per second
	tokens     chan struct{}
	resetTimer *time.Timer
}

func NewRateLimiter(requestsPerSecond int) *RateLimiter {
	rl := &RateLimiter{
		rate:   requestsPerSecond,
		tokens: make(chan struct{}, requestsPerSecond),
	}

	// Fill initial tokens
	for i := 0; i < requestsPerSecond; i++ {
		select {
		case rl.tokens <- struct{}{}:
		default:
		}
	}

	rl.resetTimer = time.AfterFunc(time.Second, rl.resetTokens)
	return rl
}

func (rl *RateLimiter) Wait(ctx context.Context) error {
	select {
	case <-rl.tokens:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (rl *RateLimiter) resetTokens() {
	for len(rl.tokens) > 0 {
		<-rl.tokens
	}

	for i := 0; i < rl.rate; i++ {
		select {
		case rl.tokens <- struct{}{}:
		default:
		}
	}

	rl.resetTimer.Reset(time.Second)
}
