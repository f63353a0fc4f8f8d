package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
)

// SessionProvider opens a chat session, hands it to fn and tears it down
// when fn returns, whatever the outcome.
type SessionProvider interface {
	WithSession(ctx context.Context, fn func(ctx context.Context, s ChatSession) error) error
}

// MTProtoProvider logs in as a regular Telegram user. Bots cannot read
// another bot's chat or press its buttons, so the Bot API is not enough
// here.
type MTProtoProvider struct {
	AppID    int
	AppHash  string
	Phone    string
	Password string
	Storage  session.Storage

	// CodeInput supplies the login code on first run.
	CodeInput io.Reader
}

func NewMTProtoProvider(creds *Credentials, storage session.Storage, codeInput io.Reader) *MTProtoProvider {
	return &MTProtoProvider{
		AppID:     creds.APIID,
		AppHash:   creds.APIHash,
		Phone:     creds.Phone,
		Password:  creds.Password,
		Storage:   storage,
		CodeInput: codeInput,
	}
}

func (p *MTProtoProvider) WithSession(ctx context.Context, fn func(ctx context.Context, s ChatSession) error) error {
	client := telegram.NewClient(p.AppID, p.AppHash, telegram.Options{
		SessionStorage: p.Storage,
	})

	return client.Run(ctx, func(ctx context.Context) error {
		flow := auth.NewFlow(
			auth.Constant(p.Phone, p.Password, auth.CodeAuthenticatorFunc(p.readCode)),
			auth.SendCodeOptions{},
		)
		if err := client.Auth().IfNecessary(ctx, flow); err != nil {
			return fmt.Errorf("login: %w", err)
		}
		log.Println("✓ Logged in successfully!")

		return fn(ctx, newMTProtoSession(client.API()))
	})
}

func (p *MTProtoProvider) readCode(_ context.Context, _ *tg.AuthSentCode) (string, error) {
	if p.CodeInput == nil {
		return "", errors.New("login code required but no interactive input; run once in the foreground first")
	}
	fmt.Print("Enter the code Telegram sent you: ")
	scanner := bufio.NewScanner(p.CodeInput)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", io.ErrUnexpectedEOF
	}
	return strings.TrimSpace(scanner.Text()), nil
}

// telegramAPI is the subset of *tg.Client used by mtprotoSession.
type telegramAPI interface {
	MessagesGetDialogs(ctx context.Context, request *tg.MessagesGetDialogsRequest) (tg.MessagesDialogsClass, error)
	MessagesGetHistory(ctx context.Context, request *tg.MessagesGetHistoryRequest) (tg.MessagesMessagesClass, error)
	MessagesGetBotCallbackAnswer(ctx context.Context, request *tg.MessagesGetBotCallbackAnswerRequest) (*tg.MessagesBotCallbackAnswer, error)
}

type mtprotoSession struct {
	api   telegramAPI
	mu    sync.Mutex
	peers map[int64]tg.InputPeerClass
}

func newMTProtoSession(api telegramAPI) *mtprotoSession {
	return &mtprotoSession{
		api:   api,
		peers: make(map[int64]tg.InputPeerClass),
	}
}

const (
	dialogsPageSize = 100
	// dialogsMaxPages bounds the scan on accounts with huge dialog lists.
	dialogsMaxPages = 50
)

// resolvePeer finds the bot's access hash by paging through the dialog
// list, newest first.
func (s *mtprotoSession) resolvePeer(ctx context.Context, chatID int64) (tg.InputPeerClass, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.peers[chatID]; ok {
		return p, nil
	}

	req := &tg.MessagesGetDialogsRequest{
		OffsetPeer: &tg.InputPeerEmpty{},
		Limit:      dialogsPageSize,
	}
	seen := 0
	for page := 0; page < dialogsMaxPages; page++ {
		res, err := s.api.MessagesGetDialogs(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("get dialogs: %w", err)
		}

		var (
			dialogs  []tg.DialogClass
			messages []tg.MessageClass
			chats    []tg.ChatClass
			users    []tg.UserClass
			total    int
		)
		switch d := res.(type) {
		case *tg.MessagesDialogs:
			// The complete list, no further pages.
			dialogs, messages, chats, users = d.Dialogs, d.Messages, d.Chats, d.Users
			total = len(d.Dialogs)
		case *tg.MessagesDialogsSlice:
			dialogs, messages, chats, users = d.Dialogs, d.Messages, d.Chats, d.Users
			total = d.Count
		}

		if peer := findUserPeer(users, chatID); peer != nil {
			s.peers[chatID] = peer
			return peer, nil
		}

		seen += len(dialogs)
		if len(dialogs) == 0 || seen >= total {
			break
		}
		next, ok := nextDialogsPage(dialogs[len(dialogs)-1], messages, chats, users)
		if !ok || (next.OffsetID == req.OffsetID && next.OffsetDate == req.OffsetDate) {
			break
		}
		req = next
	}
	return nil, fmt.Errorf("chat %d not found among %d dialogs", chatID, seen)
}

func findUserPeer(users []tg.UserClass, id int64) *tg.InputPeerUser {
	for _, u := range users {
		if user, ok := u.(*tg.User); ok && user.ID == id {
			return &tg.InputPeerUser{UserID: user.ID, AccessHash: user.AccessHash}
		}
	}
	return nil
}

// nextDialogsPage builds the request for the page after last: offsets are
// the top message of the oldest dialog seen so far.
func nextDialogsPage(last tg.DialogClass, messages []tg.MessageClass, chats []tg.ChatClass, users []tg.UserClass) (*tg.MessagesGetDialogsRequest, bool) {
	var (
		peer tg.PeerClass
		top  int
	)
	switch d := last.(type) {
	case *tg.Dialog:
		peer, top = d.Peer, d.TopMessage
	case *tg.DialogFolder:
		peer, top = d.Peer, d.TopMessage
	default:
		return nil, false
	}

	date := 0
	for _, m := range messages {
		var (
			msgPeer tg.PeerClass
			msgDate int
		)
		switch v := m.(type) {
		case *tg.Message:
			msgPeer, msgDate = v.PeerID, v.Date
		case *tg.MessageService:
			msgPeer, msgDate = v.PeerID, v.Date
		default:
			continue
		}
		if m.GetID() == top && samePeer(msgPeer, peer) {
			date = msgDate
			break
		}
	}

	return &tg.MessagesGetDialogsRequest{
		OffsetDate: date,
		OffsetID:   top,
		OffsetPeer: inputPeer(peer, chats, users),
		Limit:      dialogsPageSize,
	}, true
}

func samePeer(a, b tg.PeerClass) bool {
	switch a := a.(type) {
	case *tg.PeerUser:
		b, ok := b.(*tg.PeerUser)
		return ok && a.UserID == b.UserID
	case *tg.PeerChat:
		b, ok := b.(*tg.PeerChat)
		return ok && a.ChatID == b.ChatID
	case *tg.PeerChannel:
		b, ok := b.(*tg.PeerChannel)
		return ok && a.ChannelID == b.ChannelID
	}
	return false
}

func inputPeer(peer tg.PeerClass, chats []tg.ChatClass, users []tg.UserClass) tg.InputPeerClass {
	switch p := peer.(type) {
	case *tg.PeerUser:
		if u := findUserPeer(users, p.UserID); u != nil {
			return u
		}
	case *tg.PeerChat:
		return &tg.InputPeerChat{ChatID: p.ChatID}
	case *tg.PeerChannel:
		for _, c := range chats {
			if ch, ok := c.(*tg.Channel); ok && ch.ID == p.ChannelID {
				return &tg.InputPeerChannel{ChannelID: ch.ID, AccessHash: ch.AccessHash}
			}
		}
	}
	return &tg.InputPeerEmpty{}
}

func (s *mtprotoSession) LatestMessage(ctx context.Context, chatID int64) (*Message, error) {
	peer, err := s.resolvePeer(ctx, chatID)
	if err != nil {
		return nil, err
	}

	res, err := s.api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
		Peer:  peer,
		Limit: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("error fetching messages: %w", err)
	}

	var msgs []tg.MessageClass
	switch h := res.(type) {
	case *tg.MessagesMessages:
		msgs = h.Messages
	case *tg.MessagesMessagesSlice:
		msgs = h.Messages
	case *tg.MessagesChannelMessages:
		msgs = h.Messages
	}
	if len(msgs) == 0 {
		return nil, ErrNoMessages
	}
	return convertMessage(msgs[0]), nil
}

func (s *mtprotoSession) PressButton(ctx context.Context, chatID int64, messageID int, b Button) error {
	peer, err := s.resolvePeer(ctx, chatID)
	if err != nil {
		return err
	}

	_, err = s.api.MessagesGetBotCallbackAnswer(ctx, &tg.MessagesGetBotCallbackAnswerRequest{
		Peer:  peer,
		MsgID: messageID,
		Data:  b.Token,
	})
	if err != nil {
		return fmt.Errorf("%w: %q: %w", ErrActionRejected, b.Label, err)
	}
	return nil
}

func convertMessage(m tg.MessageClass) *Message {
	msg, ok := m.(*tg.Message)
	if !ok {
		// Service and empty messages carry no text or keyboard.
		return &Message{ID: m.GetID()}
	}

	out := &Message{ID: msg.ID, Keyboard: convertMarkup(msg.ReplyMarkup)}
	// Only plain text counts; a link preview still is plain text.
	switch msg.Media.(type) {
	case nil, *tg.MessageMediaWebPage:
		out.Text = msg.Message
	}
	return out
}

func convertMarkup(markup tg.ReplyMarkupClass) *Keyboard {
	inline, ok := markup.(*tg.ReplyInlineMarkup)
	if !ok {
		return nil
	}

	kb := &Keyboard{Rows: make([][]Button, 0, len(inline.Rows))}
	for _, row := range inline.Rows {
		buttons := make([]Button, 0, len(row.Buttons))
		for _, b := range row.Buttons {
			switch v := b.(type) {
			case *tg.KeyboardButtonCallback:
				buttons = append(buttons, Button{Label: v.Text, Token: v.Data})
			default:
				var label string
				if t, ok := b.(interface{ GetText() string }); ok {
					label = t.GetText()
				}
				buttons = append(buttons, Button{Label: label})
			}
		}
		kb.Rows = append(kb.Rows, buttons)
	}
	return kb
}
