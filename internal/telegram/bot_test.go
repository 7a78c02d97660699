package telegram

import (
	"context"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"techbook/internal/command"
)

type fakeTelegram struct {
	mu      sync.Mutex
	sent    []tgbotapi.MessageConfig
	updates chan tgbotapi.Update
	stopped bool
}

func newFakeTelegram() *fakeTelegram {
	return &fakeTelegram{updates: make(chan tgbotapi.Update, 4)}
}

func (f *fakeTelegram) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, m)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeTelegram) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeTelegram) StopReceivingUpdates() {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
}

func (f *fakeTelegram) SelfUser() tgbotapi.User { return tgbotapi.User{UserName: "techbook_bot"} }

func (f *fakeTelegram) messages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tgbotapi.MessageConfig(nil), f.sent...)
}

type mockHandler struct {
	mock.Mock
}

func (m *mockHandler) Handle(ctx context.Context, text string) *command.Result {
	return m.Called(ctx, text).Get(0).(*command.Result)
}

func textUpdate(chatID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text: text,
		Chat: &tgbotapi.Chat{ID: chatID},
		From: &tgbotapi.User{ID: 7},
	}}
}

func TestBot_RelaysCommands(t *testing.T) {
	tg := newFakeTelegram()
	h := new(mockHandler)
	h.On("Handle", mock.Anything, "list all bookings").
		Return(&command.Result{Intent: "list_bookings", Message: "No bookings found."}).Once()

	bot, err := NewWithTelegramClient(tg, h, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		bot.Start(ctx)
		close(done)
	}()

	tg.updates <- textUpdate(42, "/start")
	tg.updates <- textUpdate(42, " list all bookings ")
	tg.updates <- tgbotapi.Update{}

	require.Eventually(t, func() bool { return len(tg.messages()) == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	msgs := tg.messages()
	assert.Equal(t, helpText, msgs[0].Text)
	assert.Equal(t, int64(42), msgs[1].ChatID)
	assert.Equal(t, "No bookings found.", msgs[1].Text)
	assert.True(t, tg.stopped)
	h.AssertExpectations(t)
}

func TestNewWithTelegramClient_Nil(t *testing.T) {
	_, err := NewWithTelegramClient(nil, nil, nil)
	assert.Error(t, err)
}
