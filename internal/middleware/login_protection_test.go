// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newClockedProtection returns protection whose clock the test moves.
func newClockedProtection(maxAttempts int, lockout, window time.Duration) (*LoginProtection, *time.Time) {
	lp := NewLoginProtection(LoginProtectionConfig{
		IPRateLimit:       10,
		IPBurst:           100,
		MaxFailedAttempts: maxAttempts,
		LockoutDuration:   lockout,
		AttemptWindow:     window,
	})
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	lp.now = func() time.Time { return now }
	lp.perIP.now = lp.now
	return lp, &now
}

func TestNewLoginProtection_Defaults(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{})
	def := DefaultLoginProtectionConfig()

	assert.Equal(t, def.MaxFailedAttempts, lp.cfg.MaxFailedAttempts)
	assert.Equal(t, 15*time.Minute, lp.cfg.LockoutDuration)
	assert.Equal(t, 15*time.Minute, lp.cfg.AttemptWindow)
}

func TestLoginProtection_Lockout(t *testing.T) {
	lp, now := newClockedProtection(3, time.Minute, 10*time.Minute)
	email := "Friend@Example.com"

	for i := 1; i < 3; i++ {
		locked, _ := lp.RecordFailedAttempt(email)
		require.False(t, locked, "attempt %d", i)
	}
	assert.Equal(t, 1, lp.GetRemainingAttempts(email))

	locked, d := lp.RecordFailedAttempt("friend@example.com ")
	require.True(t, locked, "addresses are compared case-insensitively")
	assert.Equal(t, time.Minute, d)

	locked, left := lp.IsAccountLocked(email)
	assert.True(t, locked)
	assert.Equal(t, time.Minute, left)

	*now = now.Add(2 * time.Minute)
	locked, _ = lp.IsAccountLocked(email)
	assert.False(t, locked, "lock expires")

	lp.RecordFailedAttempt(email)
	lp.RecordFailedAttempt(email)
	locked, d = lp.RecordFailedAttempt(email)
	assert.True(t, locked)
	assert.Equal(t, 2*time.Minute, d, "second lockout doubles")

	lp.RecordSuccessfulLogin(email)
	locked, _ = lp.IsAccountLocked(email)
	assert.False(t, locked)
	assert.Equal(t, 3, lp.GetRemainingAttempts(email))
}

func TestLoginProtection_LockDurationCapped(t *testing.T) {
	lp, now := newClockedProtection(1, 10*time.Hour, time.Hour)

	var got []time.Duration
	for range 4 {
		_, d := lp.RecordFailedAttempt("a@example.com")
		got = append(got, d)
		*now = now.Add(25 * time.Hour)
	}
	assert.Equal(t, []time.Duration{10 * time.Hour, 20 * time.Hour, maxLockout, maxLockout}, got)
}

func TestLoginProtection_WindowReset(t *testing.T) {
	lp, now := newClockedProtection(3, time.Minute, 5*time.Minute)

	lp.RecordFailedAttempt("a@example.com")
	lp.RecordFailedAttempt("a@example.com")
	*now = now.Add(6 * time.Minute)

	locked, _ := lp.RecordFailedAttempt("a@example.com")
	assert.False(t, locked, "failures outside the window are forgotten")
	assert.Equal(t, 2, lp.GetRemainingAttempts("a@example.com"))
}

func TestLoginProtection_Cleanup(t *testing.T) {
	lp, now := newClockedProtection(1, time.Minute, time.Minute)

	lp.RecordFailedAttempt("a@example.com")
	lp.CheckIPRateLimit("192.0.2.1")
	assert.Zero(t, lp.Cleanup(), "active entries are kept")

	*now = now.Add(2 * time.Hour)
	assert.Equal(t, 2, lp.Cleanup())
	assert.Zero(t, lp.perIP.len())
}

func TestLoginProtection_Middleware(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{IPRateLimit: 0.001, IPBurst: 2})
	h := lp.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(method, ip string) int {
		req := httptest.NewRequest(method, "/login", nil)
		req.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do(http.MethodPost, "192.0.2.1"))
	assert.Equal(t, http.StatusOK, do(http.MethodPost, "192.0.2.1"))
	assert.Equal(t, http.StatusTooManyRequests, do(http.MethodPost, "192.0.2.1"))
	assert.Equal(t, http.StatusOK, do(http.MethodGet, "192.0.2.1"), "the login form is not limited")
	assert.Equal(t, http.StatusOK, do(http.MethodPost, "192.0.2.2"))
}
