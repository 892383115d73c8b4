package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"esengo-membership/internal/config"
	"esengo-membership/internal/domain/ports/adapter"
	"esengo-membership/internal/infra/i18n"
)

var _ adapter.Notifier = (*TelegramNotifier)(nil)

// TelegramNotifier delivers settlement events to members' Telegram chats.
// Delivery runs on a background goroutine and errors are logged, never
// returned: notification failure must not fail a posting.
type TelegramNotifier struct {
	bot     *tgbotapi.BotAPI
	chatIDs map[string]int64 // member ID -> telegram chat
	tr      *i18n.Translator
	log     *zerolog.Logger
}

func NewTelegramNotifier(cfg config.NotifyConfig, logger *zerolog.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("telegram notifier: %w", err)
	}
	tr, err := i18n.NewTranslator(i18n.LocalesFS, cfg.Language)
	if err != nil {
		return nil, err
	}
	l := logger.With().Str("component", "TelegramNotifier").Logger()
	return &TelegramNotifier{bot: bot, chatIDs: cfg.ChatIDs, tr: tr, log: &l}, nil
}

func (n *TelegramNotifier) Notify(ctx context.Context, memberID string, event adapter.NotificationEvent, detail map[string]interface{}) {
	chatID, ok := n.chatIDs[memberID]
	if !ok {
		return
	}
	text := n.render(event, detail)
	go func() {
		msg := tgbotapi.NewMessage(chatID, text)
		if _, err := n.bot.Send(msg); err != nil {
			n.log.Error().Err(err).Str("member_id", memberID).Str("event", string(event)).Msg("notification delivery failed")
		}
	}()
}

func (n *TelegramNotifier) render(event adapter.NotificationEvent, detail map[string]interface{}) string {
	switch event {
	case adapter.EventCommissionReceived:
		return n.tr.T(string(event), detail["amount"], detail["level"])
	case adapter.EventPointsGranted:
		return n.tr.T(string(event), detail["points"], detail["frequency"])
	case adapter.EventPointsConverted:
		return n.tr.T(string(event), detail["points"], detail["amount"])
	case adapter.EventTokenIssued:
		return n.tr.T(string(event), detail["code"])
	default:
		return string(event)
	}
}
