package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/lounge/services/lounge/internal/chat"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

var ErrNotStarted = errors.New("telegram bot not started")

// API is the subset of the Bot API the adapter calls.
type API interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
	DeleteMessage(ctx context.Context, params *bot.DeleteMessageParams) (bool, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
}

// Sink receives converted updates.
type Sink interface {
	Submit(ctx context.Context, ev chat.Event) error
}

// Bot is the long-polling Telegram transport. It implements chat.Messenger
// and forwards every usable update to the bound sink.
type Bot struct {
	token  string
	logger apt.Logger

	mu     sync.RWMutex
	api    API
	sink   Sink
	cancel context.CancelFunc
	done   chan struct{}
}

func NewBot(token string, logger apt.Logger) *Bot {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Bot{
		token:  token,
		logger: logger,
	}
}

// Bind sets the sink that receives inbound events.
func (b *Bot) Bind(sink Sink) {
	b.mu.Lock()
	b.sink = sink
	b.mu.Unlock()
}

// UseAPI replaces the Bot API client. Start sets it when it is still nil.
func (b *Bot) UseAPI(api API) {
	b.mu.Lock()
	b.api = api
	b.mu.Unlock()
}

func (b *Bot) Start(ctx context.Context) error {
	if b.token == "" {
		return fmt.Errorf("cannot start telegram bot: telegram.token is empty")
	}

	tb, err := bot.New(b.token, bot.WithDefaultHandler(b.handleUpdate))
	if err != nil {
		return fmt.Errorf("cannot create telegram bot: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	b.mu.Lock()
	if b.api == nil {
		b.api = tb
	}
	b.cancel = cancel
	b.done = done
	b.mu.Unlock()

	go func() {
		defer close(done)
		tb.Start(runCtx)
	}()

	b.logger.Info("Telegram bot polling started")
	return nil
}

func (b *Bot) Stop(ctx context.Context) error {
	b.mu.Lock()
	cancel, done := b.cancel, b.done
	b.cancel = nil
	b.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	select {
	case <-done:
		b.logger.Info("Telegram bot polling stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bot) handleUpdate(ctx context.Context, _ *bot.Bot, update *models.Update) {
	ev, ok := EventFromUpdate(update)
	if !ok {
		return
	}

	b.mu.RLock()
	sink := b.sink
	b.mu.RUnlock()
	if sink == nil {
		b.logger.Error("update dropped, no sink bound", "user_id", ev.UserID)
		return
	}

	if err := sink.Submit(ctx, ev); err != nil {
		b.logger.Errorf("cannot submit update from %d: %v", ev.UserID, err)
	}
}

func (b *Bot) client() (API, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.api == nil {
		return nil, ErrNotStarted
	}
	return b.api, nil
}

func (b *Bot) Send(ctx context.Context, dest chat.Destination, view chat.View) (chat.MessageRef, error) {
	api, err := b.client()
	if err != nil {
		return chat.MessageRef{}, err
	}

	msg, err := api.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          dest.ChatID,
		MessageThreadID: dest.TopicID,
		Text:            view.Text,
		ReplyMarkup:     Markup(view.Keyboard),
	})
	if err != nil {
		return chat.MessageRef{}, fmt.Errorf("cannot send message to %d: %w", dest.ChatID, err)
	}
	return chat.MessageRef{ChatID: dest.ChatID, MessageID: msg.ID}, nil
}

func (b *Bot) Edit(ctx context.Context, ref chat.MessageRef, view chat.View) error {
	api, err := b.client()
	if err != nil {
		return err
	}

	_, err = api.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:      ref.ChatID,
		MessageID:   ref.MessageID,
		Text:        view.Text,
		ReplyMarkup: Markup(view.Keyboard),
	})
	if err != nil {
		return fmt.Errorf("cannot edit message %d: %w", ref.MessageID, err)
	}
	return nil
}

func (b *Bot) Delete(ctx context.Context, ref chat.MessageRef) error {
	api, err := b.client()
	if err != nil {
		return err
	}

	if _, err := api.DeleteMessage(ctx, &bot.DeleteMessageParams{
		ChatID:    ref.ChatID,
		MessageID: ref.MessageID,
	}); err != nil {
		return fmt.Errorf("cannot delete message %d: %w", ref.MessageID, err)
	}
	return nil
}

func (b *Bot) Notify(ctx context.Context, userID int64, text string) error {
	api, err := b.client()
	if err != nil {
		return err
	}

	if _, err := api.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: userID,
		Text:   text,
	}); err != nil {
		return fmt.Errorf("cannot notify user %d: %w", userID, err)
	}
	return nil
}

func (b *Bot) Answer(ctx context.Context, callbackID, text string) error {
	if callbackID == "" {
		return nil
	}
	api, err := b.client()
	if err != nil {
		return err
	}

	if _, err := api.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
	}); err != nil {
		return fmt.Errorf("cannot answer callback: %w", err)
	}
	return nil
}

// Markup converts a keyboard to an inline markup. An empty keyboard yields nil,
// which removes any keyboard on edit.
func Markup(keyboard [][]chat.Button) models.ReplyMarkup {
	if len(keyboard) == 0 {
		return nil
	}

	rows := make([][]models.InlineKeyboardButton, 0, len(keyboard))
	for _, row := range keyboard {
		buttons := make([]models.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			buttons = append(buttons, models.InlineKeyboardButton{
				Text:         btn.Text,
				CallbackData: btn.Token,
			})
		}
		rows = append(rows, buttons)
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// EventFromUpdate extracts a chat event. Messages are only taken from private
// chats; button presses are taken from anywhere so staff can close tickets.
func EventFromUpdate(update *models.Update) (chat.Event, bool) {
	if update == nil {
		return chat.Event{}, false
	}

	if cq := update.CallbackQuery; cq != nil {
		ev := chat.Event{
			Kind:       chat.EventButton,
			UserID:     cq.From.ID,
			ChatID:     cq.From.ID,
			Username:   cq.From.Username,
			Text:       cq.Data,
			CallbackID: cq.ID,
		}
		switch {
		case cq.Message.Message != nil:
			m := cq.Message.Message
			ev.ChatID = m.Chat.ID
			ev.Message = chat.MessageRef{ChatID: m.Chat.ID, MessageID: m.ID}
		case cq.Message.InaccessibleMessage != nil:
			m := cq.Message.InaccessibleMessage
			ev.ChatID = m.Chat.ID
			ev.Message = chat.MessageRef{ChatID: m.Chat.ID, MessageID: m.MessageID}
		}
		return ev, true
	}

	msg := update.Message
	if msg == nil || msg.From == nil || msg.Text == "" {
		return chat.Event{}, false
	}
	if string(msg.Chat.Type) != "private" {
		return chat.Event{}, false
	}

	ev := chat.Event{
		Kind:     chat.EventText,
		UserID:   msg.From.ID,
		ChatID:   msg.Chat.ID,
		Username: msg.From.Username,
		Text:     msg.Text,
		Message:  chat.MessageRef{ChatID: msg.Chat.ID, MessageID: msg.ID},
	}
	if name, ok := command(msg.Text); ok {
		ev.Kind = chat.EventCommand
		ev.Text = name
	}
	return ev, true
}

// command returns "start" for "/start", "/start@lounge_bot" or "/start now".
func command(text string) (string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	name := strings.TrimPrefix(strings.Fields(text)[0], "/")
	if i := strings.Index(name, "@"); i >= 0 {
		name = name[:i]
	}
	if name == "" {
		return "", false
	}
	return strings.ToLower(name), true
}
