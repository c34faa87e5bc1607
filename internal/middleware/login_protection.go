// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/olegiv/companion/internal/service"
)

// maxLockout caps the doubling lockout.
const maxLockout = 24 * time.Hour

// LoginProtectionConfig tunes LoginProtection. Zero fields take the
// defaults from DefaultLoginProtectionConfig.
type LoginProtectionConfig struct {
	IPRateLimit       float64 // login POSTs per second per IP
	IPBurst           int
	MaxFailedAttempts int           // failures in AttemptWindow that lock the account
	LockoutDuration   time.Duration // first lockout; doubles on each repeat
	AttemptWindow     time.Duration
	Events            *service.EventService // audit log for rate limit hits
}

// DefaultLoginProtectionConfig allows one login every two seconds per IP
// and locks an account for 15 minutes after 5 failures.
func DefaultLoginProtectionConfig() LoginProtectionConfig {
	return LoginProtectionConfig{
		IPRateLimit:       0.5,
		IPBurst:           5,
		MaxFailedAttempts: 5,
		LockoutDuration:   15 * time.Minute,
		AttemptWindow:     15 * time.Minute,
	}
}

func (c LoginProtectionConfig) withDefaults() LoginProtectionConfig {
	def := DefaultLoginProtectionConfig()
	if c.IPRateLimit <= 0 {
		c.IPRateLimit = def.IPRateLimit
	}
	if c.IPBurst <= 0 {
		c.IPBurst = def.IPBurst
	}
	if c.MaxFailedAttempts <= 0 {
		c.MaxFailedAttempts = def.MaxFailedAttempts
	}
	if c.LockoutDuration <= 0 {
		c.LockoutDuration = def.LockoutDuration
	}
	if c.AttemptWindow <= 0 {
		c.AttemptWindow = def.AttemptWindow
	}
	return c
}

// accountState is the failure history of one email address.
type accountState struct {
	failures    int
	windowStart time.Time
	lockedUntil time.Time
	lockouts    int
}

// LoginProtection throttles login attempts per IP and locks accounts that
// keep failing. State lives in memory; Cleanup is run by the scheduler.
type LoginProtection struct {
	cfg      LoginProtectionConfig
	perIP    *limiterCache[string]
	mu       sync.Mutex
	accounts map[string]*accountState
	now      func() time.Time
}

// NewLoginProtection creates login protection from cfg.
func NewLoginProtection(cfg LoginProtectionConfig) *LoginProtection {
	cfg = cfg.withDefaults()
	return &LoginProtection{
		cfg:      cfg,
		perIP:    newLimiterCache[string](cfg.IPRateLimit, cfg.IPBurst),
		accounts: make(map[string]*accountState),
		now:      time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// lockDuration returns the lock for the account's next lockout.
func (lp *LoginProtection) lockDuration(previous int) time.Duration {
	d := lp.cfg.LockoutDuration
	for range previous {
		if d >= maxLockout {
			break
		}
		d *= 2
	}
	return min(d, maxLockout)
}

// CheckIPRateLimit reports whether ip may try another login.
func (lp *LoginProtection) CheckIPRateLimit(ip string) bool {
	return lp.perIP.allow(ip)
}

// IsAccountLocked reports whether email is locked and for how much longer.
func (lp *LoginProtection) IsAccountLocked(email string) (bool, time.Duration) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	st, ok := lp.accounts[normalizeEmail(email)]
	if !ok {
		return false, 0
	}
	if left := st.lockedUntil.Sub(lp.now()); left > 0 {
		return true, left
	}
	return false, 0
}

// RecordFailedAttempt counts a failed login. When it reaches the limit the
// account is locked and the lock duration returned.
func (lp *LoginProtection) RecordFailedAttempt(email string) (bool, time.Duration) {
	key := normalizeEmail(email)
	now := lp.now()

	lp.mu.Lock()
	defer lp.mu.Unlock()

	st, ok := lp.accounts[key]
	if !ok {
		st = &accountState{}
		lp.accounts[key] = st
	}
	if !ok || now.Sub(st.windowStart) > lp.cfg.AttemptWindow {
		st.failures = 0
		st.windowStart = now
	}
	st.failures++

	if st.failures < lp.cfg.MaxFailedAttempts {
		slog.Debug("failed login counted", "email", key, "failures", st.failures)
		return false, 0
	}

	d := lp.lockDuration(st.lockouts)
	st.lockedUntil = now.Add(d)
	st.lockouts++
	st.failures = 0
	slog.Info("account locked after failed logins", "email", key, "lockouts", st.lockouts, "duration", d)
	return true, d
}

// RecordSuccessfulLogin forgets the account's failures.
func (lp *LoginProtection) RecordSuccessfulLogin(email string) {
	lp.mu.Lock()
	delete(lp.accounts, normalizeEmail(email))
	lp.mu.Unlock()
}

// GetRemainingAttempts returns how many failures are left before a lock.
func (lp *LoginProtection) GetRemainingAttempts(email string) int {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	st, ok := lp.accounts[normalizeEmail(email)]
	if !ok || lp.now().Sub(st.windowStart) > lp.cfg.AttemptWindow {
		return lp.cfg.MaxFailedAttempts
	}
	return max(lp.cfg.MaxFailedAttempts-st.failures, 0)
}

// Cleanup drops expired account state and IP limiters idle for an hour,
// returning how many entries went.
func (lp *LoginProtection) Cleanup() int {
	removed := lp.perIP.prune(time.Hour)
	now := lp.now()

	lp.mu.Lock()
	defer lp.mu.Unlock()
	for key, st := range lp.accounts {
		if now.After(st.lockedUntil) && now.Sub(st.windowStart) > lp.cfg.AttemptWindow {
			delete(lp.accounts, key)
			removed++
		}
	}
	return removed
}

// Middleware applies the per-IP limit to login POSTs.
func (lp *LoginProtection) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost && !lp.CheckIPRateLimit(clientIP(r)) {
				slog.Info("login rate limit hit", "ip", clientIP(r))
				if lp.cfg.Events != nil {
					_ = lp.cfg.Events.LogSecurityEvent(r.Context(), "Login rate limit exceeded", RequestInfo(r), nil)
				}
				http.Error(w, "Too many login attempts. Please wait a moment and try again.", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
