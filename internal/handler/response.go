// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/olegiv/companion/internal/render"
)

// Admin form handlers answer a POST with 303 so the browser follows up with
// a GET, carrying the outcome in a one-shot flash message.

func flashRedirect(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, url, kind, message string) {
	renderer.SetFlash(r, message, kind)
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// flashError redirects to url with an error flash.
func flashError(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, url, message string) {
	flashRedirect(w, r, renderer, url, render.FlashError, message)
}

// flashSuccess redirects to url with a success flash.
func flashSuccess(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, url, message string) {
	flashRedirect(w, r, renderer, url, render.FlashSuccess, message)
}

// parseFormOrRedirect parses a urlencoded body. On failure it redirects to
// redirectURL and returns false.
func parseFormOrRedirect(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, redirectURL string) bool {
	if err := r.ParseForm(); err != nil {
		slog.Warn("unreadable form submission", "path", r.URL.Path, "error", err)
		flashError(w, r, renderer, redirectURL, "Invalid form data")
		return false
	}
	return true
}

// logAndInternalError logs logMsg with args and answers 500.
func logAndInternalError(w http.ResponseWriter, logMsg string, args ...any) {
	slog.Error(logMsg, args...)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// loadOrRedirect loads the record an admin route points at. A missing record
// or a query failure sends the user back to listURL with a flash and
// returns false.
func loadOrRedirect[T any](w http.ResponseWriter, r *http.Request, renderer *render.Renderer,
	listURL, noun string, id int64, load func(id int64) (T, error)) (T, bool) {
	v, err := load(id)
	if err == nil {
		return v, true
	}

	var zero T
	if errors.Is(err, sql.ErrNoRows) {
		flashError(w, r, renderer, listURL, noun+" not found")
		return zero, false
	}
	slog.Error("failed to load record", "kind", strings.ToLower(noun), "id", id, "error", err)
	flashError(w, r, renderer, listURL, "Error loading "+strings.ToLower(noun))
	return zero, false
}
