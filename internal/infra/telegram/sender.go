package telegram

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-yoga-subscription/internal/domain/ports/adapter"
)

var _ adapter.MessageSender = (*Sender)(nil)

// Sender delivers lifecycle notifications via the Telegram Bot API.
// It exposes only the send-message capability; bot commands and polling
// belong to a different system.
type Sender struct {
	bot *tgbotapi.BotAPI
	log *zerolog.Logger
}

func NewSender(token string, logger *zerolog.Logger) (*Sender, error) {
	if token == "" {
		return nil, errors.New("telegram bot token is empty")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	l := logger.With().Str("component", "TelegramSender").Logger()
	return &Sender{bot: bot, log: &l}, nil
}

func (s *Sender) SendMessage(ctx context.Context, telegramID int64, text string) error {
	msg := tgbotapi.NewMessage(telegramID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := s.bot.Send(msg); err != nil {
		s.log.Warn().Err(err).Int64("tg_id", telegramID).Msg("send message failed")
		return err
	}
	return nil
}

var _ adapter.MessageSender = (*NoopSender)(nil)

// NoopSender logs instead of sending; used in dev mode and tests.
type NoopSender struct {
	log *zerolog.Logger
}

func NewNoopSender(logger *zerolog.Logger) *NoopSender {
	l := logger.With().Str("component", "NoopSender").Logger()
	return &NoopSender{log: &l}
}

func (s *NoopSender) SendMessage(ctx context.Context, telegramID int64, text string) error {
	s.log.Debug().Int64("tg_id", telegramID).Str("text", text).Msg("noop send")
	return nil
}
