// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"net/http"
	"testing"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2/memstore"

	"github.com/olegiv/companion/internal/store"
	"github.com/olegiv/companion/internal/testutil"
)

func TestNew(t *testing.T) {
	db := testutil.TestDB(t)

	tests := []struct {
		name    string
		dialect store.Dialect
		isDev   bool
	}{
		{"sqlite dev", store.DialectSQLite, true},
		{"mysql production", store.DialectMySQL, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := New(db, tt.dialect, tt.isDev)

			switch sm.Store.(type) {
			case *sqlite3store.SQLite3Store:
				if tt.dialect != store.DialectSQLite {
					t.Error("sqlite store used for mysql")
				}
			case *memstore.MemStore:
				if tt.dialect != store.DialectMySQL {
					t.Error("memory store used for sqlite")
				}
			default:
				t.Errorf("unexpected store %T", sm.Store)
			}

			if sm.Cookie.Secure == tt.isDev {
				t.Errorf("Cookie.Secure = %v with isDev = %v", sm.Cookie.Secure, tt.isDev)
			}
			if !sm.Cookie.HttpOnly || sm.Cookie.SameSite != http.SameSiteLaxMode {
				t.Error("cookie should be HttpOnly with SameSite=Lax")
			}
			if sm.Lifetime != Lifetime || sm.Cookie.Name != CookieName {
				t.Error("unexpected lifetime or cookie name")
			}
		})
	}
}
