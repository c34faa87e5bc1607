// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"
)

const timeoutBody = "Request timeout"

// Timeout gives each request a deadline. A handler that has not started its
// response by then is answered with 503 and any later writes fail with
// http.ErrHandlerTimeout. Paths under an exempt prefix run without a
// deadline, which media uploads need.
func Timeout(limit time.Duration, exempt ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return &deadlineHandler{next: next, limit: limit, exempt: exempt}
	}
}

type deadlineHandler struct {
	next   http.Handler
	limit  time.Duration
	exempt []string
}

func (h *deadlineHandler) isExempt(path string) bool {
	for _, prefix := range h.exempt {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (h *deadlineHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.isExempt(r.URL.Path) {
		h.next.ServeHTTP(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.limit)
	defer cancel()

	dw := &deadlineWriter{w: w}
	finished := make(chan struct{})
	crashed := make(chan any, 1)

	go func() {
		defer func() {
			if p := recover(); p != nil {
				crashed <- p
			}
		}()
		h.next.ServeHTTP(dw, r.WithContext(ctx))
		close(finished)
	}()

	select {
	case <-finished:
	case p := <-crashed:
		// Re-panic on the serving goroutine so Recoverer sees it.
		panic(p)
	case <-ctx.Done():
		dw.expire()
	}
}

// deadlineWriter forwards to the real writer until the deadline passes.
type deadlineWriter struct {
	w       http.ResponseWriter
	mu      sync.Mutex
	started bool
	expired bool
}

func (dw *deadlineWriter) Header() http.Header {
	return dw.w.Header()
}

func (dw *deadlineWriter) WriteHeader(code int) {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	dw.start(code)
}

func (dw *deadlineWriter) Write(b []byte) (int, error) {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	if dw.expired {
		return 0, http.ErrHandlerTimeout
	}
	dw.start(http.StatusOK)
	return dw.w.Write(b)
}

// start sends the status line once. Callers hold mu.
func (dw *deadlineWriter) start(code int) {
	if dw.started || dw.expired {
		return
	}
	dw.started = true
	dw.w.WriteHeader(code)
}

// expire marks the writer dead and sends 503 if nothing was sent yet.
func (dw *deadlineWriter) expire() {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	if dw.expired {
		return
	}
	dw.expired = true
	if dw.started {
		return
	}
	dw.w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	dw.w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = dw.w.Write([]byte(timeoutBody))
}
