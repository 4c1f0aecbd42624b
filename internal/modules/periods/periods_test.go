package periods

import (
	"errors"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGeneratePeriods(t *testing.T) {
	tests := []struct {
		name      string
		start     time.Time
		end       time.Time
		g         Granularity
		wantCount int
		wantLast  time.Time
	}{
		{
			name:      "daily over one week",
			start:     date(2025, 3, 1),
			end:       date(2025, 3, 7),
			g:         Daily,
			wantCount: 7,
			wantLast:  date(2025, 3, 7),
		},
		{
			name:      "weekly over a month",
			start:     date(2025, 3, 3),
			end:       date(2025, 3, 31),
			g:         Weekly,
			wantCount: 5,
			wantLast:  date(2025, 3, 31),
		},
		{
			name:      "monthly over a year",
			start:     date(2025, 1, 1),
			end:       date(2025, 12, 31),
			g:         Monthly,
			wantCount: 12,
			wantLast:  date(2025, 12, 1),
		},
		{
			name:      "quarterly over a year",
			start:     date(2025, 1, 1),
			end:       date(2025, 12, 31),
			g:         Quarterly,
			wantCount: 4,
			wantLast:  date(2025, 10, 1),
		},
		{
			name:      "cursor landing exactly on end is included",
			start:     date(2025, 1, 1),
			end:       date(2025, 2, 1),
			g:         Monthly,
			wantCount: 2,
			wantLast:  date(2025, 2, 1),
		},
		{
			name:      "single day window",
			start:     date(2025, 6, 15),
			end:       date(2025, 6, 15),
			g:         Monthly,
			wantCount: 1,
			wantLast:  date(2025, 6, 15),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GeneratePeriods(tt.start, tt.end, tt.g)
			if len(got) != tt.wantCount {
				t.Fatalf("expected %d periods, got %d", tt.wantCount, len(got))
			}
			if !got[0].Equal(tt.start) {
				t.Errorf("first period = %v, want %v", got[0], tt.start)
			}
			if !got[len(got)-1].Equal(tt.wantLast) {
				t.Errorf("last period = %v, want %v", got[len(got)-1], tt.wantLast)
			}
			for i := 1; i < len(got); i++ {
				if !got[i].After(got[i-1]) {
					t.Errorf("periods not strictly ascending at index %d", i)
				}
			}
		})
	}
}

func TestGeneratePeriodsEmptyWhenInverted(t *testing.T) {
	got := GeneratePeriods(date(2025, 5, 1), date(2025, 4, 1), Monthly)
	if len(got) != 0 {
		t.Errorf("expected no periods for inverted window, got %d", len(got))
	}
}

func TestDateRangeFor(t *testing.T) {
	ref := date(2025, 8, 14)

	t.Run("monthly is the ref calendar month", func(t *testing.T) {
		r, err := DateRangeFor(ref, 2025, PeriodMonthly, nil, nil)
		if err != nil {
			t.Fatal(err)
		}
		if !r.Start.Equal(date(2025, 8, 1)) || !r.End.Equal(date(2025, 8, 31)) {
			t.Errorf("got %v - %v", r.Start, r.End)
		}
	})

	t.Run("quarterly is the ref calendar quarter", func(t *testing.T) {
		r, err := DateRangeFor(ref, 2025, PeriodQuarterly, nil, nil)
		if err != nil {
			t.Fatal(err)
		}
		if !r.Start.Equal(date(2025, 7, 1)) || !r.End.Equal(date(2025, 9, 30)) {
			t.Errorf("got %v - %v", r.Start, r.End)
		}
	})

	t.Run("yearly is the full fiscal year", func(t *testing.T) {
		r, err := DateRangeFor(ref, 2024, PeriodYearly, nil, nil)
		if err != nil {
			t.Fatal(err)
		}
		if !r.Start.Equal(date(2024, 1, 1)) || !r.End.Equal(date(2024, 12, 31)) {
			t.Errorf("got %v - %v", r.Start, r.End)
		}
	})

	t.Run("ytd runs to the ref date", func(t *testing.T) {
		r, err := DateRangeFor(ref, 2025, PeriodYTD, nil, nil)
		if err != nil {
			t.Fatal(err)
		}
		if !r.Start.Equal(date(2025, 1, 1)) || !r.End.Equal(ref) {
			t.Errorf("got %v - %v", r.Start, r.End)
		}
	})

	t.Run("custom with both bounds", func(t *testing.T) {
		s, e := date(2025, 2, 1), date(2025, 4, 30)
		r, err := DateRangeFor(ref, 2025, PeriodCustom, &s, &e)
		if err != nil {
			t.Fatal(err)
		}
		if !r.Start.Equal(s) || !r.End.Equal(e) {
			t.Errorf("got %v - %v", r.Start, r.End)
		}
	})

	t.Run("partial custom falls back to yearly", func(t *testing.T) {
		s := date(2025, 2, 1)
		r, err := DateRangeFor(ref, 2025, PeriodCustom, &s, nil)
		if err != nil {
			t.Fatal(err)
		}
		if !r.Start.Equal(date(2025, 1, 1)) || !r.End.Equal(date(2025, 12, 31)) {
			t.Errorf("got %v - %v", r.Start, r.End)
		}
	})

	t.Run("inverted custom is rejected", func(t *testing.T) {
		s, e := date(2025, 6, 1), date(2025, 2, 1)
		_, err := DateRangeFor(ref, 2025, PeriodCustom, &s, &e)
		if !errors.Is(err, ErrInvalidRange) {
			t.Errorf("expected ErrInvalidRange, got %v", err)
		}
	})
}

func TestMonthsIn(t *testing.T) {
	r := Range{Start: date(2025, 2, 15), End: date(2025, 4, 10)}
	months := MonthsIn(r, 2025)
	want := []int{2, 3, 4}
	if len(months) != len(want) {
		t.Fatalf("got %v, want %v", months, want)
	}
	for i := range want {
		if months[i] != want[i] {
			t.Fatalf("got %v, want %v", months, want)
		}
	}

	// A window in a different year overlaps nothing.
	if got := MonthsIn(Range{Start: date(2024, 1, 1), End: date(2024, 12, 31)}, 2025); len(got) != 0 {
		t.Errorf("expected no overlapping months, got %v", got)
	}
}
