package main

import (
	"fmt"
	"strings"
)

// Screen is a known menu state of the remote bot.
type Screen int

const (
	ScreenUnknown Screen = iota
	ScreenClinicSelection
	ScreenWelcome
	ScreenScenarioSelection
	ScreenItemList
)

func (s Screen) String() string {
	switch s {
	case ScreenClinicSelection:
		return "clinic-selection"
	case ScreenWelcome:
		return "welcome"
	case ScreenScenarioSelection:
		return "scenario-selection"
	case ScreenItemList:
		return "item-list"
	default:
		return "unknown"
	}
}

// ParseScreen is the inverse of Screen.String. It is used when markers come
// from the config file.
func ParseScreen(s string) (Screen, error) {
	for _, sc := range []Screen{ScreenClinicSelection, ScreenWelcome, ScreenScenarioSelection, ScreenItemList} {
		if sc.String() == s {
			return sc, nil
		}
	}
	return ScreenUnknown, fmt.Errorf("unknown screen name %q", s)
}

// ScreenMarker ties a screen to the literal header text that identifies it.
type ScreenMarker struct {
	Screen Screen
	Marker string
}

// DefaultMarkers is the marker table for the live bot. The clinic list
// itself is rendered under the clinic selection header, so ItemList has
// no marker of its own here.
var DefaultMarkers = []ScreenMarker{
	{ScreenClinicSelection, "ВЫБОР КЛИНИКИ"},
	{ScreenWelcome, "ДОБРО ПОЖАЛОВАТЬ"},
	{ScreenScenarioSelection, "ВЫБОР СЦЕНАРИЯ ЗАПИСИ"},
}

// Classifier maps message text to a Screen. Markers are checked in order
// and the first one contained in the text wins.
type Classifier struct {
	markers []ScreenMarker
}

func NewClassifier(markers []ScreenMarker) *Classifier {
	if len(markers) == 0 {
		markers = DefaultMarkers
	}
	return &Classifier{markers: markers}
}

func (c *Classifier) Classify(msg *Message) Screen {
	if msg == nil || msg.Text == "" {
		return ScreenUnknown
	}
	for _, m := range c.markers {
		if m.Marker != "" && strings.Contains(msg.Text, m.Marker) {
			return m.Screen
		}
	}
	return ScreenUnknown
}
