package targets

import (
	"strings"

	"github.com/james-see/chartbridge/pkg/converter"
)

// Info describes a target profile for listings
type Info struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Available lists the built-in target profiles
func Available() []Info {
	return []Info{
		{ID: MyGameID, Name: MyGameName, Description: "12-lane notes with start-based holds"},
		{ID: FourLaneID, Name: FourLaneName, Description: "notes snapped to lanes 1/4/7/10, width 3"},
	}
}

// ByName returns the target for an id, falling back to MyGame
func ByName(name string) converter.Target {
	switch strings.ToLower(name) {
	case FourLaneID, "4lane", "four-lane":
		return NewFourLane()
	default:
		return NewMyGame()
	}
}
