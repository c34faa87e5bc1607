// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteJSONError(t *testing.T) {
	tests := []struct {
		status  int
		message string
		want    string
	}{
		{http.StatusForbidden, "Forbidden", `{"success":false,"error":"Forbidden"}`},
		{http.StatusUnprocessableEntity, "Write some content first", `{"success":false,"error":"Write some content first"}`},
		{http.StatusBadRequest, "", `{"success":false,"error":""}`},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		writeJSONError(w, tt.status, tt.message)

		assert.Equal(t, tt.status, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.JSONEq(t, tt.want, w.Body.String())
	}
}

func TestWriteJSONSuccess(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]any
		want   string
	}{
		{"nil fields", nil, `{"success":true}`},
		{"excerpt", map[string]any{"excerpt": "A warm pool."}, `{"success":true,"excerpt":"A warm pool."}`},
		{"success cannot be overridden", map[string]any{"success": false}, `{"success":true}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeJSONSuccess(w, tt.fields)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, tt.want, w.Body.String())
		})
	}
}

func TestWriteJSONSuccess_DoesNotMutateInput(t *testing.T) {
	fields := map[string]any{"excerpt": "x"}
	writeJSONSuccess(httptest.NewRecorder(), fields)
	assert.NotContains(t, fields, "success")
}
