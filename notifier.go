package main

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier delivers a plain text alert.
type Notifier interface {
	Notify(text string) error
}

// maxMessageLen keeps chunks under Telegram's 4096 character limit.
const maxMessageLen = 4000

// TelegramNotifier sends alerts through a Bot API bot.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramNotifier does not contact Telegram; a bad token or an outage
// surfaces on the first Notify.
func NewTelegramNotifier(token string, chatID int64) *TelegramNotifier {
	return newTelegramNotifier(token, chatID, tgbotapi.APIEndpoint, &http.Client{Timeout: 30 * time.Second})
}

func newTelegramNotifier(token string, chatID int64, endpoint string, client tgbotapi.HTTPClient) *TelegramNotifier {
	// tgbotapi.NewBotAPI calls getMe, which would make startup depend on
	// the Bot API being reachable.
	bot := &tgbotapi.BotAPI{Token: token, Client: client, Buffer: 100}
	bot.SetAPIEndpoint(endpoint)
	return &TelegramNotifier{bot: bot, chatID: chatID}
}

// Notify sends text, split into chunks if it is too long. It stops at the
// first chunk that fails; nothing is retried.
func (t *TelegramNotifier) Notify(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		// Telegram rejects empty messages
		return nil
	}

	chunks := splitMessage(text, maxMessageLen)
	for i, chunk := range chunks {
		msg := tgbotapi.NewMessage(t.chatID, chunk)
		if _, err := t.bot.Send(msg); err != nil {
			return fmt.Errorf("send notification: %w", err)
		}
		if i < len(chunks)-1 {
			time.Sleep(100 * time.Millisecond)
		}
	}
	log.Println("✓ Telegram notification sent successfully")
	return nil
}

// splitMessage cuts s into pieces of at most maxLen bytes, preferring
// newline boundaries and never splitting a UTF-8 sequence.
func splitMessage(s string, maxLen int) []string {
	var chunks []string
	for len(s) > maxLen {
		cut := maxLen
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		if cut == 0 {
			// No rune start in range: invalid UTF-8, cut on the byte limit.
			cut = maxLen
		}
		if nl := strings.LastIndexByte(s[:cut], '\n'); nl > 0 {
			cut = nl + 1
		}
		if chunk := strings.TrimSpace(s[:cut]); chunk != "" {
			chunks = append(chunks, chunk)
		}
		s = s[cut:]
	}
	if chunk := strings.TrimSpace(s); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}
