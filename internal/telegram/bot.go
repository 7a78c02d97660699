// Package telegram exposes the command pipeline as a Telegram chat bot.
package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"techbook/internal/command"
)

type telegramClient interface {
	Send(tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	SelfUser() tgbotapi.User
}

type realTelegramClient struct {
	api *tgbotapi.BotAPI
}

func (c *realTelegramClient) Send(msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	return c.api.Send(msg)
}

func (c *realTelegramClient) GetUpdatesChan(cfg tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return c.api.GetUpdatesChan(cfg)
}

func (c *realTelegramClient) StopReceivingUpdates() {
	c.api.StopReceivingUpdates()
}

func (c *realTelegramClient) SelfUser() tgbotapi.User {
	return c.api.Self
}

// Handler processes one free-text command.
type Handler interface {
	Handle(ctx context.Context, text string) *command.Result
}

const helpText = `Send me a request in plain English, for example:
- Book plumber Mike Johnson tomorrow at 2pm
- list all bookings
- get booking details <id>
- cancel booking <id>`

// Bot relays chat messages to the command pipeline.
type Bot struct {
	tg      telegramClient
	handler Handler
	logger  *zerolog.Logger
}

func New(token string, debug bool, handler Handler, logger *zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot api: %w", err)
	}
	api.Debug = debug
	return NewWithTelegramClient(&realTelegramClient{api: api}, handler, logger)
}

// NewWithTelegramClient allows injecting a mocked Telegram client for tests.
func NewWithTelegramClient(tg telegramClient, handler Handler, logger *zerolog.Logger) (*Bot, error) {
	if tg == nil {
		return nil, fmt.Errorf("telegram client is nil")
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Bot{tg: tg, handler: handler, logger: logger}, nil
}

// Start polls updates until ctx is done.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.tg.GetUpdatesChan(u)
	b.logger.Info().Str("username", b.tg.SelfUser().UserName).Msg("telegram bot authorized")

	for {
		select {
		case <-ctx.Done():
			b.tg.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			l := b.logger.With().Str("request_id", uuid.New().String()).Logger()
			b.handleUpdate(l.WithContext(ctx), &update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update *tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Text == "" {
		return
	}
	l := zerolog.Ctx(ctx)
	var userID int64
	if msg.From != nil {
		userID = msg.From.ID
	}
	l.Debug().Int64("user_id", userID).Str("text", msg.Text).Msg("handling message")

	text := strings.TrimSpace(msg.Text)
	switch {
	case strings.HasPrefix(text, "/start"), strings.HasPrefix(text, "/help"):
		b.reply(ctx, msg.Chat.ID, helpText)
		return
	}

	res := b.handler.Handle(ctx, text)
	b.reply(ctx, msg.Chat.ID, command.Render(res))
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if _, err := b.tg.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("chat_id", chatID).Msg("failed to send reply")
	}
}
