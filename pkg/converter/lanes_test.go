package converter

import (
	"math"
	"testing"
)

func TestHexToCenter(t *testing.T) {
	tests := []struct {
		hex  int
		want float64
	}{
		{1, -5.5},
		{7, 0.5},
		{12, 5.5},
	}
	for _, tt := range tests {
		if got := HexToCenter(tt.hex); got != tt.want {
			t.Errorf("HexToCenter(%d) = %v, want %v", tt.hex, got, tt.want)
		}
	}
}

func TestCenterSizeToLane(t *testing.T) {
	tests := []struct {
		name         string
		center, size float64
		lane, width  int
	}{
		{"tap at lane 7", 0.5, 1.5, 6, 3},
		{"narrow", 0.5, 0.5, 7, 1},
		{"left edge clamps", -5.5, 1.5, 1, 2},
		{"right edge clamps", 5.5, 1.5, 11, 2},
		{"huge", 0, 100, 1, 12},
		{"far right", 50, 1, 12, 1},
		{"zero size", 0, 0, 7, 1},
		{"NaN", math.NaN(), 1, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lane, width := CenterSizeToLane(tt.center, tt.size)
			if lane != tt.lane || width != tt.width {
				t.Errorf("CenterSizeToLane(%v, %v) = (%d, %d), want (%d, %d)",
					tt.center, tt.size, lane, width, tt.lane, tt.width)
			}
		})
	}
}

func TestCenterSizeToLaneStaysOnGrid(t *testing.T) {
	for h := MinLane; h <= MaxLane; h++ {
		for size := 0.0; size <= 8; size += 0.25 {
			lane, width := CenterSizeToLane(HexToCenter(h), size)
			if lane < MinLane || lane > MaxLane {
				t.Fatalf("hex %d size %v: lane %d off grid", h, size, lane)
			}
			if width < 1 || width > MaxWidth {
				t.Fatalf("hex %d size %v: width %d out of range", h, size, width)
			}
			if lane+width > LaneLimit {
				t.Fatalf("hex %d size %v: lane %d + width %d passes the right edge", h, size, lane, width)
			}
		}
	}
}
