package tzoffset

import (
	"io"
	"log/slog"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOffsetMinutes(t *testing.T) {
	tests := []struct {
		name string
		tz   string
		want int
	}{
		// Offsets are sampled at 2024-01-15T12:00:00Z, so DST-observing
		// zones show their January rules.
		{"UTC", "UTC", 0},
		{"Taipei UTC+8", "Asia/Taipei", -480},
		{"New York in January UTC-5", "America/New_York", 300},
		{"Chicago in January UTC-6", "America/Chicago", 360},
		{"London in January UTC+0", "Europe/London", 0},
		{"Kolkata half-hour zone UTC+5:30", "Asia/Kolkata", -330},
		{"Sydney in January UTC+11", "Australia/Sydney", -660},
		{"Kiritimati UTC+14", "Pacific/Kiritimati", -840},
	}

	resolver := New(testLogger())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolver.OffsetMinutes(tt.tz)
			if err != nil {
				t.Fatalf("OffsetMinutes(%q) returned error: %v", tt.tz, err)
			}
			if got != tt.want {
				t.Errorf("OffsetMinutes(%q) = %d, want %d", tt.tz, got, tt.want)
			}
		})
	}
}

func TestOffsetMemoized(t *testing.T) {
	resolver := New(testLogger())

	first, err := resolver.OffsetMinutes("Asia/Taipei")
	if err != nil {
		t.Fatalf("first lookup failed: %v", err)
	}
	if got := resolver.Computes(); got != 1 {
		t.Fatalf("computes after first lookup = %d, want 1", got)
	}

	second, err := resolver.OffsetMinutes("Asia/Taipei")
	if err != nil {
		t.Fatalf("second lookup failed: %v", err)
	}
	if second != first {
		t.Errorf("memoized value changed: first %d, second %d", first, second)
	}
	if got := resolver.Computes(); got != 1 {
		t.Errorf("computes after second lookup = %d, want 1 (should be cached)", got)
	}

	if _, err := resolver.OffsetMinutes("America/New_York"); err != nil {
		t.Fatalf("lookup of second zone failed: %v", err)
	}
	if got := resolver.Computes(); got != 2 {
		t.Errorf("computes after new zone = %d, want 2", got)
	}
	if got := resolver.CachedZones(); got != 2 {
		t.Errorf("cached zones = %d, want 2", got)
	}
}

func TestOffsetInvalidZone(t *testing.T) {
	resolver := New(testLogger())

	if _, err := resolver.OffsetMinutes("Not/A_Zone"); err == nil {
		t.Fatal("OffsetMinutes with invalid zone did not fail")
	}
	if got := resolver.CachedZones(); got != 0 {
		t.Errorf("failed lookup left %d cache entries, want 0", got)
	}
}
