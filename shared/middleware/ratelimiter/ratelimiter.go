// Package ratelimiter keeps one token bucket per identity (user id, IP).
// Idle buckets are dropped after the expiration time.
package ratelimiter

import (
	"sync"
	"time"
)

type bucket struct {
	tokens     float64
	lastRefill time.Time
	lastSeen   time.Time
}

type UserRateLimiter struct {
	mu             sync.Mutex
	buckets        map[string]*bucket
	rate           float64
	capacity       float64
	expirationTime time.Duration
	now            func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a limiter refilling rate tokens per second up to capacity.
func New(rate float64, capacity float64, expirationTime time.Duration) *UserRateLimiter {
	url := &UserRateLimiter{
		buckets:        make(map[string]*bucket),
		rate:           rate,
		capacity:       capacity,
		expirationTime: expirationTime,
		now:            time.Now,
		stop:           make(chan struct{}),
	}
	go url.janitor()
	return url
}

// PerMinute allows n requests per minute with a burst of n.
func PerMinute(n float64) *UserRateLimiter {
	return New(n/60, max(1, n), time.Hour)
}

func (url *UserRateLimiter) Allow(identity string) bool {
	url.mu.Lock()
	defer url.mu.Unlock()

	now := url.now()
	b, ok := url.buckets[identity]
	if !ok {
		b = &bucket{tokens: url.capacity, lastRefill: now}
		url.buckets[identity] = b
	}
	b.lastSeen = now

	b.tokens = min(url.capacity, b.tokens+now.Sub(b.lastRefill).Seconds()*url.rate)
	b.lastRefill = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Stop ends the cleanup goroutine.
func (url *UserRateLimiter) Stop() {
	url.stopOnce.Do(func() { close(url.stop) })
}

func (url *UserRateLimiter) janitor() {
	interval := max(url.expirationTime/2, 10*time.Millisecond)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-url.stop:
			return
		case <-ticker.C:
			url.cleanup()
		}
	}
}

func (url *UserRateLimiter) cleanup() {
	url.mu.Lock()
	defer url.mu.Unlock()
	cutoff := url.now().Add(-url.expirationTime)
	for identity, b := range url.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(url.buckets, identity)
		}
	}
}

func (url *UserRateLimiter) size() int {
	url.mu.Lock()
	defer url.mu.Unlock()
	return len(url.buckets)
}
