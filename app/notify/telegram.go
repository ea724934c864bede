package notify

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/exp/slog"
)

// Messenger sends a text message to a chat.
type Messenger interface {
	Send(ctx context.Context, chatID, text string) error
}

// Telegram sends digest messages through the Telegram bot API.
type Telegram struct {
	api *tgbotapi.BotAPI
}

// NewTelegram returns a new telegram sender.
func NewTelegram(lg *slog.Logger, token string) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("make new api: %w", err)
	}

	stdlibLogger := slog.NewLogLogger(lg.Handler(), slog.LevelWarn)
	stdlibLogger.SetPrefix("telegram-bot-api: ")

	if err = tgbotapi.SetLogger(stdlibLogger); err != nil {
		return nil, fmt.Errorf("set logger: %w", err)
	}

	return &Telegram{api: api}, nil
}

// Send sends the text to the given chat.
func (t *Telegram) Send(_ context.Context, chatID, text string) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("parse chat id: %w", err)
	}

	msg := tgbotapi.NewMessage(id, text)
	msg.DisableWebPagePreview = true

	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	return nil
}

// Service delivers the rendered digest to all recipients.
type Service struct {
	log        *slog.Logger
	messenger  Messenger
	recipients []string
}

// NewService creates a new delivery service.
func NewService(lg *slog.Logger, messenger Messenger, recipients []string) *Service {
	return &Service{log: lg, messenger: messenger, recipients: recipients}
}

// Deliver sends the digest text to every recipient. A failed delivery
// is logged and skipped, the rest of the recipients still receive it.
func (s *Service) Deliver(ctx context.Context, text string) {
	for _, chatID := range s.recipients {
		if err := s.messenger.Send(ctx, chatID, text); err != nil {
			s.log.WarnCtx(ctx, "failed to deliver digest",
				slog.String("chat_id", chatID), slog.Any("err", err))
			continue
		}

		s.log.InfoCtx(ctx, "digest delivered", slog.String("chat_id", chatID))
	}
}
