package main

import (
	"errors"
	"fmt"
)

var (
	// ErrNoMessages is returned when the chat history is empty.
	ErrNoMessages = errors.New("no messages found in chat")
	// ErrButtonNotFound is returned when the expected control is absent.
	ErrButtonNotFound = errors.New("button not found")
	// ErrUnexpectedScreen is matched by every *UnexpectedScreenError.
	ErrUnexpectedScreen = errors.New("unexpected screen")
	// ErrActionRejected is returned when the remote side refuses a button press.
	ErrActionRejected = errors.New("action rejected")
	// ErrNoItemsFound is returned when the target screen has no item buttons.
	ErrNoItemsFound = errors.New("no clinics found in the message")
)

// excerptLen is how many runes of message text an UnexpectedScreenError keeps.
const excerptLen = 100

// UnexpectedScreenError reports that the walk landed on a screen other than
// the one the current step requires.
type UnexpectedScreenError struct {
	Want    Screen
	Got     Screen
	Excerpt string
}

func newUnexpectedScreenError(want, got Screen, text string) *UnexpectedScreenError {
	excerpt := []rune(text)
	if len(excerpt) > excerptLen {
		excerpt = excerpt[:excerptLen]
	}
	s := string(excerpt)
	if s == "" {
		s = "N/A"
	}
	return &UnexpectedScreenError{Want: want, Got: got, Excerpt: s}
}

func (e *UnexpectedScreenError) Error() string {
	return fmt.Sprintf("expected %s screen, got %s: %s", e.Want, e.Got, e.Excerpt)
}

func (e *UnexpectedScreenError) Is(target error) bool {
	return target == ErrUnexpectedScreen
}
