package relay

import (
	"context"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramSource long-polls a bot and relays every text message from the
// allowed chats. An empty allow list accepts every chat.
type TelegramSource struct {
	bot     *tgbotapi.BotAPI
	relay   *Relay
	allowed map[int64]bool
	log     *slog.Logger
}

func NewTelegramSource(token string, allowedChats []int64, relay *Relay, log *slog.Logger) (*TelegramSource, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	log.Info("telegram bot authorized", "username", bot.Self.UserName)

	allowed := make(map[int64]bool, len(allowedChats))
	for _, id := range allowedChats {
		allowed[id] = true
	}
	return &TelegramSource{bot: bot, relay: relay, allowed: allowed, log: log}, nil
}

// Run consumes updates until the context is cancelled.
func (s *TelegramSource) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := s.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			s.bot.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			s.handleUpdate(ctx, update)
		}
	}
}

func (s *TelegramSource) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}
	chatID := update.Message.Chat.ID
	if len(s.allowed) > 0 && !s.allowed[chatID] {
		s.log.DebugContext(ctx, "message from unlisted chat ignored", "chat_id", chatID)
		return
	}

	env := NewEnvelope("telegram", update.Message.Text)
	s.log.DebugContext(ctx, "telegram message received",
		"signal_id", env.ID, "chat_id", chatID, "message_id", update.Message.MessageID)

	if err := s.relay.Handle(ctx, env); err != nil {
		s.log.ErrorContext(ctx, "telegram signal failed",
			"signal_id", env.ID, "chat_id", chatID, "error", err)
	}
}
