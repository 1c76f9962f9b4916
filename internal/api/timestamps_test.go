package api

import (
	"errors"
	"testing"
	"time"
)

// TestResolveTimestamp tests the accepted date representations.
func TestResolveTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  int64
	}{
		{"int", 1700000000, 1700000000},
		{"int64", int64(1700000000), 1700000000},
		{"numeric string", "1700000000", 1700000000},
		{"time.Time", time.Unix(1700000000, 0), 1700000000},
		{"rfc3339", "2023-11-14T22:13:20Z", 1700000000},
		{"iso without zone", "2023-11-14T22:13:20", 1700000000},
		{"dashed date", "2023-11-14", 1699920000},
		{"slashed date", "2023/11/14", 1699920000},
		{"dotted date", "2023.11.14", 1699920000},
		{"compact date", "20231114", 1699920000},
		{"date with time", "2023-11-14 22:13:20", 1700000000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveTimestamp(tt.value)
			if err != nil {
				t.Fatalf("ResolveTimestamp(%v) failed: %v", tt.value, err)
			}
			if got != tt.want {
				t.Errorf("ResolveTimestamp(%v) = %d, want %d", tt.value, got, tt.want)
			}
		})
	}
}

func TestResolveTimestampBad(t *testing.T) {
	for _, value := range []any{"yesterday", "14th Nov", 1.5, nil, []int{1}} {
		if _, err := ResolveTimestamp(value); !errors.Is(err, ErrBadTimestamp) {
			t.Errorf("ResolveTimestamp(%v) err = %v, want ErrBadTimestamp", value, err)
		}
	}
}

// TestSinceForLimit tests deriving a since timestamp from a point count.
func TestSinceForLimit(t *testing.T) {
	t.Run("daily interval", func(t *testing.T) {
		got, err := SinceForLimit("24h", 10)
		if err != nil {
			t.Fatalf("SinceForLimit failed: %v", err)
		}
		want := time.Now().Unix() - 10*24*60*60
		// Allow a little slack for the clock read.
		if got < want-2 || got > want+2 {
			t.Errorf("SinceForLimit(24h, 10) = %d, want ~%d", got, want)
		}
	})

	t.Run("unknown interval falls back to daily step", func(t *testing.T) {
		got, err := SinceForLimit("5m", 3)
		if err != nil {
			t.Fatalf("SinceForLimit failed: %v", err)
		}
		want := time.Now().Unix() - 3*24*60*60
		if got < want-2 || got > want+2 {
			t.Errorf("SinceForLimit(5m, 3) = %d, want ~%d", got, want)
		}
	})

	t.Run("non-positive limit", func(t *testing.T) {
		for _, limit := range []int{0, -1} {
			if _, err := SinceForLimit("24h", limit); !errors.Is(err, ErrBadLimit) {
				t.Errorf("SinceForLimit(24h, %d) err = %v, want ErrBadLimit", limit, err)
			}
		}
	})
}
