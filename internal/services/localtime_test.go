package services

import (
	"testing"
	"time"
)

func TestLocalClockDescribe(t *testing.T) {
	clock, err := NewLocalClock()
	if err != nil {
		t.Fatalf("failed to create clock: %v", err)
	}

	// 2025-08-26 17:05 UTC is 14:05 in São Paulo (UTC-3, no DST)
	moment := time.Date(2025, time.August, 26, 17, 5, 0, 0, time.UTC)

	got := clock.Describe(moment)
	want := "terça-feira, 26 de agosto de 2025, 14:05"
	if got != want {
		t.Errorf("Describe = %q, want %q", got, want)
	}
}

func TestLocalClockWeekdays(t *testing.T) {
	clock, err := NewLocalClock()
	if err != nil {
		t.Fatalf("failed to create clock: %v", err)
	}

	// 2025-08-24 12:00 São Paulo is a Sunday
	base := time.Date(2025, time.August, 24, 12, 0, 0, 0, clock.loc)
	wantDays := []string{
		"domingo", "segunda-feira", "terça-feira", "quarta-feira",
		"quinta-feira", "sexta-feira", "sábado",
	}
	for i, want := range wantDays {
		got := clock.Describe(base.AddDate(0, 0, i))
		if len(got) < len(want) || got[:len(want)] != want {
			t.Errorf("day %d: got %q, want prefix %q", i, got, want)
		}
	}
}

func TestLocalClockNowUsesStoreZone(t *testing.T) {
	clock, err := NewLocalClock()
	if err != nil {
		t.Fatalf("failed to create clock: %v", err)
	}
	fixed := time.Date(2025, time.December, 25, 3, 0, 0, 0, time.UTC)
	clock.now = func() time.Time { return fixed }

	got := clock.Now()
	if got.Location().String() != storeTimezone {
		t.Errorf("Now location = %s, want %s", got.Location(), storeTimezone)
	}
	// UTC 03:00 on Dec 25 is still Dec 25 00:00 in São Paulo
	if got.Day() != 25 || got.Hour() != 0 {
		t.Errorf("unexpected local time: %v", got)
	}
}
