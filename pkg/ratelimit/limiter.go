package ratelimit

import (
	"sync"
	"time"
)

// Rule bounds how many attempts a key may make inside a sliding window.
type Rule struct {
	MaxAttempts int
	Window      time.Duration
}

type Limiter struct {
	attempts map[string][]time.Time
	mu       sync.Mutex
	now      func() time.Time
	done     chan struct{}
	once     sync.Once
}

func NewLimiter() *Limiter {
	l := &Limiter{
		attempts: make(map[string][]time.Time),
		now:      time.Now,
		done:     make(chan struct{}),
	}
	go l.cleanup(5*time.Minute, 24*time.Hour)
	return l
}

func (l *Limiter) Allow(key string, rule Rule) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-rule.Window)

	var validAttempts []time.Time
	for _, timestamp := range l.attempts[key] {
		if timestamp.After(cutoff) {
			validAttempts = append(validAttempts, timestamp)
		}
	}

	if len(validAttempts) >= rule.MaxAttempts {
		l.attempts[key] = validAttempts
		return false
	}

	l.attempts[key] = append(validAttempts, now)
	return true
}

func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.attempts, key)
}

func (l *Limiter) Close() {
	l.once.Do(func() { close(l.done) })
}

func (l *Limiter) cleanup(every, maxAge time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.prune(maxAge)
		}
	}
}

func (l *Limiter) prune(maxAge time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, attempts := range l.attempts {
		var validAttempts []time.Time
		for _, timestamp := range attempts {
			if now.Sub(timestamp) < maxAge {
				validAttempts = append(validAttempts, timestamp)
			}
		}
		if len(validAttempts) == 0 {
			delete(l.attempts, key)
		} else {
			l.attempts[key] = validAttempts
		}
	}
}
