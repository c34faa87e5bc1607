// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"fmt"
	"time"
)

// maxRecurrenceSteps bounds the walk from an event's first start to the
// requested window.
const maxRecurrenceSteps = 50000

// Recurrence describes how an event repeats. A zero Until repeats forever.
type Recurrence struct {
	Enabled   bool
	Frequency string
	Interval  int
	Until     time.Time
}

// Active reports whether the recurrence produces any repeats.
func (r Recurrence) Active() bool {
	return r.Enabled && IsValidFrequency(r.Frequency)
}

func (r Recurrence) interval() int {
	if r.Interval < 1 {
		return DefaultRecurrenceInterval
	}
	return r.Interval
}

// nth returns the start of the n-th repeat (n >= 1), computed from the first
// start to avoid month-end drift.
func (r Recurrence) nth(start time.Time, n int) time.Time {
	step := n * r.interval()
	switch r.Frequency {
	case FrequencyDaily:
		return start.AddDate(0, 0, step)
	case FrequencyWeekly:
		return start.AddDate(0, 0, 7*step)
	default:
		return start.AddDate(0, step, 0)
	}
}

// Occurrence is one repeat of a recurring event. N is its ordinal in the
// series, counted from the first start (which is N = 0).
type Occurrence struct {
	N     int
	Start time.Time
}

// Occurrences returns the repeats after the first one that fall within
// [from, to], capped at limit entries.
func (r Recurrence) Occurrences(start, from, to time.Time, limit int) []Occurrence {
	if !r.Active() || limit <= 0 || to.Before(from) {
		return nil
	}

	var out []Occurrence
	for n := 1; n <= maxRecurrenceSteps; n++ {
		t := r.nth(start, n)
		if !r.Until.IsZero() && t.After(r.Until) {
			break
		}
		if t.After(to) {
			break
		}
		if t.Before(from) {
			continue
		}
		out = append(out, Occurrence{N: n, Start: t})
		if len(out) >= limit {
			break
		}
	}
	return out
}

// Describe renders a short human summary such as "Repeats every 2 weeks until May 1, 2026".
func (r Recurrence) Describe() string {
	if !r.Active() {
		return ""
	}

	unit := map[string]string{
		FrequencyDaily:   "day",
		FrequencyWeekly:  "week",
		FrequencyMonthly: "month",
	}[r.Frequency]

	var s string
	if n := r.interval(); n == 1 {
		s = "Repeats every " + unit
	} else {
		s = fmt.Sprintf("Repeats every %d %ss", n, unit)
	}
	if !r.Until.IsZero() {
		s += " until " + r.Until.Format("January 2, 2006")
	}
	return s
}
