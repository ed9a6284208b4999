package telegram

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/m-mizutani/goerr/v2"

	"github.com/clipline/clipline/pkg/domain/interfaces"
	"github.com/clipline/clipline/pkg/domain/model"
	"github.com/clipline/clipline/pkg/domain/types"
)

// Sink sends enriched items as Telegram messages to a fixed chat
type Sink struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

var _ interfaces.Sink = (*Sink)(nil)

// NewSink creates a Telegram sink. Fails when the token is invalid since the
// client authenticates on construction.
func NewSink(token string, chatID int64) (*Sink, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create telegram bot", goerr.T(types.TagConfig))
	}
	return &Sink{bot: bot, chatID: chatID}, nil
}

// ID implements interfaces.Sink
func (s *Sink) ID() types.SinkID {
	return types.SinkTelegram
}

// Deliver sends the item and returns the message ID as receipt
func (s *Sink) Deliver(_ context.Context, item *model.EnrichedItem) (string, error) {
	msg := tgbotapi.NewMessage(s.chatID, FormatMessage(item))
	sent, err := s.bot.Send(msg)
	if err != nil {
		return "", goerr.Wrap(err, "failed to send telegram message",
			goerr.V("chat_id", s.chatID))
	}
	return strconv.Itoa(sent.MessageID), nil
}

// Notify sends a plain operator notification, outside the delivery path
func (s *Sink) Notify(_ context.Context, text string) error {
	_, err := s.bot.Send(tgbotapi.NewMessage(s.chatID, text))
	if err != nil {
		return goerr.Wrap(err, "failed to send telegram notification")
	}
	return nil
}

// FormatMessage renders an enriched item as a chat message
func FormatMessage(item *model.EnrichedItem) string {
	var sb strings.Builder
	sb.WriteString("✨ New clip\n\n")
	sb.WriteString("📑 " + item.Content.Title + "\n\n")
	sb.WriteString("📝 " + item.Summary + "\n")
	if len(item.Tags) > 0 {
		sb.WriteString("\n🏷 " + strings.Join(item.Tags, ", ") + "\n")
	}
	if url := item.Content.Event.OriginalURL; url != "" {
		sb.WriteString("\n🔗 " + url + "\n")
	}
	return sb.String()
}
