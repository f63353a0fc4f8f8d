package main

import (
	"context"
	"fmt"
	"log"
	"time"
)

// ChatSession is the narrow slice of a Telegram user session the navigator
// needs. Both calls block until the remote side answers. LatestMessage
// reports an empty chat as ErrNoMessages; a nil message is treated the same.
type ChatSession interface {
	LatestMessage(ctx context.Context, chatID int64) (*Message, error)
	PressButton(ctx context.Context, chatID int64, messageID int, b Button) error
}

// NavigatorConfig holds the button labels and timing of the menu walk.
type NavigatorConfig struct {
	RestartLabel  string        // pressed on the clinic selection screen
	BeginLabel    string        // pressed on the welcome screen
	ByClinicLabel string        // pressed on the scenario selection screen
	NavGlyphs     []string      // label prefixes excluded from the item list
	SettleDelay   time.Duration // wait after each press for the bot to reply
}

func DefaultNavigatorConfig() NavigatorConfig {
	return NavigatorConfig{
		RestartLabel:  "В начало",
		BeginLabel:    "Записаться",
		ByClinicLabel: "Выбрать клинику",
		NavGlyphs:     DefaultNavGlyphs,
		SettleDelay:   2 * time.Second,
	}
}

// Navigator walks the bot menu from whatever screen the chat shows to the
// clinic list.
type Navigator struct {
	session    ChatSession
	classifier *Classifier
	cfg        NavigatorConfig

	// sleep is swapped in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewNavigator(session ChatSession, classifier *Classifier, cfg NavigatorConfig) *Navigator {
	if classifier == nil {
		classifier = NewClassifier(nil)
	}
	return &Navigator{
		session:    session,
		classifier: classifier,
		cfg:        cfg,
		sleep:      sleepContext,
	}
}

// Walk runs the fixed step script and returns the clinic names on the
// target screen. Any error aborts the walk.
func (n *Navigator) Walk(ctx context.Context, chatID int64) ([]string, error) {
	log.Println("Step 1: Getting initial message...")
	msg, err := n.latest(ctx, chatID)
	if err != nil {
		return nil, err
	}
	screen := n.classifier.Classify(msg)

	// Left on the clinic list by a previous cycle: go back to the start.
	if screen == ScreenClinicSelection {
		log.Println("  ✓ Already at clinic selection screen, going back to start...")
		if msg, err = n.press(ctx, chatID, msg, n.cfg.RestartLabel); err != nil {
			return nil, err
		}
		screen = n.classifier.Classify(msg)
	}

	if screen == ScreenWelcome {
		log.Println("  ✓ Found welcome message")
		if msg, err = n.press(ctx, chatID, msg, n.cfg.BeginLabel); err != nil {
			return nil, err
		}
		screen = n.classifier.Classify(msg)
	}

	log.Println("Step 2: Checking for scenario selection message...")
	if screen != ScreenScenarioSelection {
		return nil, newUnexpectedScreenError(ScreenScenarioSelection, screen, msg.Text)
	}
	log.Println("  ✓ Found scenario selection message")

	if msg, err = n.press(ctx, chatID, msg, n.cfg.ByClinicLabel); err != nil {
		return nil, err
	}

	log.Println("Step 3: Getting clinic list...")
	items := ExtractItems(msg, n.cfg.NavGlyphs)
	if len(items) == 0 {
		return nil, ErrNoItemsFound
	}
	return items, nil
}

// press locates label on msg, presses it, waits for the bot to settle and
// returns the chat's new latest message.
func (n *Navigator) press(ctx context.Context, chatID int64, msg *Message, label string) (*Message, error) {
	b, _, _, err := FindButton(msg, label)
	if err != nil {
		return nil, err
	}

	log.Printf("  Clicking button: %s\n", b.Label)
	if err := n.session.PressButton(ctx, chatID, msg.ID, b); err != nil {
		return nil, err
	}
	log.Println("  ✓ Button clicked successfully")

	log.Println("  Waiting for bot response...")
	if err := n.sleep(ctx, n.cfg.SettleDelay); err != nil {
		return nil, err
	}

	next, err := n.latest(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("after pressing %q: %w", b.Label, err)
	}
	return next, nil
}

func (n *Navigator) latest(ctx context.Context, chatID int64) (*Message, error) {
	msg, err := n.session.LatestMessage(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, ErrNoMessages
	}
	return msg, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
