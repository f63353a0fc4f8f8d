package main

import "testing"

func TestClassifyDefaultMarkers(t *testing.T) {
	c := NewClassifier(nil)

	tests := []struct {
		text string
		want Screen
	}{
		{"🏥 ВЫБОР КЛИНИКИ\nвыберите клинику", ScreenClinicSelection},
		{"ДОБРО ПОЖАЛОВАТЬ!", ScreenWelcome},
		{"ВЫБОР СЦЕНАРИЯ ЗАПИСИ", ScreenScenarioSelection},
		{"Выбор сценария записи", ScreenUnknown}, // case-sensitive
		{"Hello", ScreenUnknown},
		{"", ScreenUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := c.Classify(&Message{Text: tt.text}); got != tt.want {
				t.Errorf("Classify(%q) = %s, want %s", tt.text, got, tt.want)
			}
		})
	}

	if got := c.Classify(nil); got != ScreenUnknown {
		t.Errorf("Classify(nil) = %s, want unknown", got)
	}
}

func TestClassifyFourMarkers(t *testing.T) {
	c := NewClassifier([]ScreenMarker{
		{ScreenClinicSelection, "ВЫБОР КЛИНИКИ"},
		{ScreenWelcome, "ДОБРО ПОЖАЛОВАТЬ"},
		{ScreenScenarioSelection, "ВЫБОР СЦЕНАРИЯ ЗАПИСИ"},
		{ScreenItemList, "СПИСОК КЛИНИК"},
	})

	tests := []struct {
		text string
		want Screen
	}{
		{"ВЫБОР КЛИНИКИ", ScreenClinicSelection},
		{"ДОБРО ПОЖАЛОВАТЬ", ScreenWelcome},
		{"ВЫБОР СЦЕНАРИЯ ЗАПИСИ", ScreenScenarioSelection},
		{"СПИСОК КЛИНИК", ScreenItemList},
		{"ничего", ScreenUnknown},
	}
	for _, tt := range tests {
		if got := c.Classify(&Message{Text: tt.text}); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.text, got, tt.want)
		}
	}
}

// TestClassifyFirstMarkerWins pins the order sensitivity of the marker table.
func TestClassifyFirstMarkerWins(t *testing.T) {
	text := "ДОБРО ПОЖАЛОВАТЬ! ВЫБОР СЦЕНАРИЯ ЗАПИСИ"

	if got := NewClassifier(nil).Classify(&Message{Text: text}); got != ScreenWelcome {
		t.Errorf("Classify() = %s, want welcome", got)
	}

	reversed := NewClassifier([]ScreenMarker{
		{ScreenScenarioSelection, "ВЫБОР СЦЕНАРИЯ ЗАПИСИ"},
		{ScreenWelcome, "ДОБРО ПОЖАЛОВАТЬ"},
	})
	if got := reversed.Classify(&Message{Text: text}); got != ScreenScenarioSelection {
		t.Errorf("Classify() = %s, want scenario-selection", got)
	}
}

func TestParseScreen(t *testing.T) {
	for _, s := range []Screen{ScreenClinicSelection, ScreenWelcome, ScreenScenarioSelection, ScreenItemList} {
		got, err := ParseScreen(s.String())
		if err != nil || got != s {
			t.Errorf("ParseScreen(%q) = %s, %v", s.String(), got, err)
		}
	}
	if _, err := ParseScreen("unknown"); err == nil {
		t.Error("ParseScreen(unknown) expected error, got nil")
	}
}
