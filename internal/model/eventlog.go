// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Event log levels
const (
	LogLevelInfo    = "info"
	LogLevelWarning = "warning"
	LogLevelError   = "error"
)

// Event log categories
const (
	LogCategoryAuth     = "auth"
	LogCategoryUser     = "user"
	LogCategoryContent  = "content"
	LogCategoryMedia    = "media"
	LogCategorySettings = "settings"
	LogCategorySecurity = "security"
	LogCategorySystem   = "system"
)
