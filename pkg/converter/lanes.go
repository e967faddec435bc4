package converter

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Lane grid constants
const (
	MinLane   = 1
	MaxLane   = 12
	LaneLimit = MaxLane + 1 // Right boundary of the grid
	MaxWidth  = 12
)

// Offset between a continuous center and the 1-based lane boundary index
const laneOrigin = 7.0

func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ValidLaneHex reports whether a SUS lane code can be placed on the grid
func ValidLaneHex(h int) bool {
	return h >= MinLane && h <= MaxLane
}

// HexToCenter maps a SUS lane code (1-12) to a continuous lane center.
// 1 -> -5.5, 7 -> 0.5, 12 -> 5.5.
func HexToCenter(h int) float64 {
	return float64(h-7) + 0.5
}

// CenterSizeToLane snaps center±size to lane boundaries of the 12-lane grid
func CenterSizeToLane(center, size float64) (lane, width int) {
	left := math.Floor((center - size) + laneOrigin)
	right := math.Ceil((center + size) + laneOrigin)
	if math.IsNaN(left) || math.IsNaN(right) {
		return MinLane, 1
	}

	left = clamp(left, MinLane, MaxLane)
	right = clamp(right, left+1, LaneLimit)

	lane = int(left)
	width = clamp(int(right-left), 1, MaxWidth)
	return lane, width
}
