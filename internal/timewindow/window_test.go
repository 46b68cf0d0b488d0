package timewindow

import (
	"errors"
	"testing"
	"time"
)

func at(hour, minute int) time.Time {
	return time.Date(2024, 6, 1, hour, minute, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Window
		want bool
	}{
		{"identical", New(at(10, 0), at(11, 0)), New(at(10, 0), at(11, 0)), true},
		{"back to back", New(at(10, 0), at(11, 0)), New(at(11, 0), at(12, 0)), false},
		{"back to back reversed", New(at(11, 0), at(12, 0)), New(at(10, 0), at(11, 0)), false},
		{"partial", New(at(10, 0), at(11, 0)), New(at(10, 30), at(11, 30)), true},
		{"contained", New(at(10, 0), at(12, 0)), New(at(10, 30), at(11, 0)), true},
		{"disjoint", New(at(8, 0), at(9, 0)), New(at(10, 0), at(11, 0)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.a, tt.b); got != tt.want {
				t.Fatalf("Overlaps(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if got := Overlaps(tt.b, tt.a); got != tt.want {
				t.Fatalf("Overlaps is not symmetric for %s and %s", tt.a, tt.b)
			}
		})
	}
}

func TestValidateDurationCap(t *testing.T) {
	exact := New(at(10, 0), at(12, 0))
	if err := exact.Validate(MaxReservationDuration); err != nil {
		t.Fatalf("expected 2h window to be valid, got %v", err)
	}

	over := New(at(10, 0), at(12, 1))
	if err := over.Validate(MaxReservationDuration); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow for 2h1m window, got %v", err)
	}

	reversed := New(at(11, 0), at(10, 0))
	if err := reversed.Validate(MaxReservationDuration); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow for reversed window, got %v", err)
	}

	empty := New(at(10, 0), at(10, 0))
	if err := empty.Validate(MaxReservationDuration); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow for empty window, got %v", err)
	}
}

func TestSnapToHour(t *testing.T) {
	in := time.Date(2024, 6, 1, 10, 47, 13, 500, time.UTC)
	got := SnapToHour(in)
	want := at(10, 0)
	if !got.Equal(want) {
		t.Fatalf("SnapToHour(%s) = %s, want %s", in, got, want)
	}
}

func TestDurationHours(t *testing.T) {
	if got := DurationHours(New(at(10, 0), at(11, 30))); got != 1.5 {
		t.Fatalf("DurationHours = %v, want 1.5", got)
	}
}
