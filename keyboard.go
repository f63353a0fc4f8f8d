package main

import (
	"fmt"
	"strings"
)

// Message is a single chat message as seen by the navigator.
// A nil Keyboard means a plain text message.
type Message struct {
	ID       int
	Text     string
	Keyboard *Keyboard
}

// Keyboard is an inline button grid attached to a message.
type Keyboard struct {
	Rows [][]Button
}

// Button is one inline keyboard button. Token is the opaque callback
// payload needed to press it.
type Button struct {
	Label string
	Token []byte
}

// DefaultNavGlyphs prefix the pagination and back controls that share the
// clinic list keyboard.
var DefaultNavGlyphs = []string{"⬆", "◀", "⬅"}

// FindButton returns the first button, in row-major order, whose label
// contains substr, together with its row and column.
func FindButton(msg *Message, substr string) (Button, int, int, error) {
	if msg == nil || msg.Keyboard == nil {
		return Button{}, -1, -1, fmt.Errorf("%w: %q: no inline keyboard in message", ErrButtonNotFound, substr)
	}

	for row, buttons := range msg.Keyboard.Rows {
		for col, b := range buttons {
			if strings.Contains(b.Label, substr) {
				return b, row, col, nil
			}
		}
	}

	return Button{}, -1, -1, fmt.Errorf("%w: %q not found in message", ErrButtonNotFound, substr)
}

// ExtractItems returns every button label in row-major order, skipping
// labels that start with one of the navigation glyphs.
func ExtractItems(msg *Message, glyphs []string) []string {
	if msg == nil || msg.Keyboard == nil {
		return nil
	}

	var items []string
	for _, buttons := range msg.Keyboard.Rows {
		for _, b := range buttons {
			if hasAnyPrefix(b.Label, glyphs) {
				continue
			}
			items = append(items, b.Label)
		}
	}
	return items
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
