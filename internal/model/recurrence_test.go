// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 18, 0, 0, 0, time.UTC)
}

func TestRecurrenceOccurrences(t *testing.T) {
	start := date(2026, time.January, 5)

	tests := []struct {
		name  string
		rec   Recurrence
		from  time.Time
		to    time.Time
		limit int
		want  []time.Time
	}{
		{
			name:  "disabled",
			rec:   Recurrence{Frequency: FrequencyWeekly},
			from:  start,
			to:    start.AddDate(0, 1, 0),
			limit: 10,
			want:  nil,
		},
		{
			name:  "weekly within window",
			rec:   Recurrence{Enabled: true, Frequency: FrequencyWeekly, Interval: 1},
			from:  date(2026, time.January, 1),
			to:    date(2026, time.January, 31),
			limit: 10,
			want:  []time.Time{date(2026, time.January, 12), date(2026, time.January, 19), date(2026, time.January, 26)},
		},
		{
			name:  "every other day capped by until",
			rec:   Recurrence{Enabled: true, Frequency: FrequencyDaily, Interval: 2, Until: date(2026, time.January, 10)},
			from:  start,
			to:    date(2026, time.February, 1),
			limit: 10,
			want:  []time.Time{date(2026, time.January, 7), date(2026, time.January, 9)},
		},
		{
			name:  "monthly skips before window",
			rec:   Recurrence{Enabled: true, Frequency: FrequencyMonthly},
			from:  date(2026, time.March, 1),
			to:    date(2026, time.April, 30),
			limit: 10,
			want:  []time.Time{date(2026, time.March, 5), date(2026, time.April, 5)},
		},
		{
			name:  "limit",
			rec:   Recurrence{Enabled: true, Frequency: FrequencyDaily},
			from:  start,
			to:    date(2026, time.December, 31),
			limit: 3,
			want:  []time.Time{date(2026, time.January, 6), date(2026, time.January, 7), date(2026, time.January, 8)},
		},
		{
			name:  "zero interval defaults to one",
			rec:   Recurrence{Enabled: true, Frequency: FrequencyWeekly, Interval: 0},
			from:  start,
			to:    date(2026, time.January, 13),
			limit: 10,
			want:  []time.Time{date(2026, time.January, 12)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.rec.Occurrences(start, tt.from, tt.to, tt.limit)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d occurrences %v, want %d", len(got), got, len(tt.want))
			}
			for i := range got {
				if !got[i].Start.Equal(tt.want[i]) {
					t.Errorf("occurrence %d = %v, want %v", i, got[i].Start, tt.want[i])
				}
			}
		})
	}
}

func TestRecurrenceOccurrences_SeriesOrdinal(t *testing.T) {
	start := date(2026, time.January, 5)
	rec := Recurrence{Enabled: true, Frequency: FrequencyWeekly, Interval: 1}

	got := rec.Occurrences(start, date(2026, time.February, 1), date(2026, time.February, 28), 10)
	want := []int{4, 5, 6, 7}
	if len(got) != len(want) {
		t.Fatalf("got %d occurrences, want %d", len(got), len(want))
	}
	for i, occ := range got {
		if occ.N != want[i] {
			t.Errorf("occurrence %d has N = %d, want %d", i, occ.N, want[i])
		}
		if wantStart := start.AddDate(0, 0, 7*want[i]); !occ.Start.Equal(wantStart) {
			t.Errorf("occurrence %d = %v, want %v", i, occ.Start, wantStart)
		}
	}
}

func TestRecurrenceDescribe(t *testing.T) {
	tests := []struct {
		rec  Recurrence
		want string
	}{
		{Recurrence{}, ""},
		{Recurrence{Enabled: true, Frequency: FrequencyWeekly, Interval: 1}, "Repeats every week"},
		{Recurrence{Enabled: true, Frequency: FrequencyDaily, Interval: 3}, "Repeats every 3 days"},
		{
			Recurrence{Enabled: true, Frequency: FrequencyMonthly, Interval: 1, Until: date(2026, time.May, 1)},
			"Repeats every month until May 1, 2026",
		},
	}
	for _, tt := range tests {
		if got := tt.rec.Describe(); got != tt.want {
			t.Errorf("Describe() = %q, want %q", got, tt.want)
		}
	}
}
