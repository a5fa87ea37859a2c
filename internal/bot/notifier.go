package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/luckyroll/casino/internal/casino"
)

// Notifier delivers casino notifications through the Bot API.
type Notifier struct {
	api API
}

// NewNotifier creates a notifier on the given API.
func NewNotifier(api API) *Notifier {
	return &Notifier{api: api}
}

// Send posts an HTML message. The message replies to msg.ReplyTo when set so
// it lands in the same forum topic as the roll.
func (n *Notifier) Send(_ context.Context, msg casino.Message) (int, error) {
	out := tgbotapi.NewMessage(msg.ChatID, msg.Text)
	out.ParseMode = tgbotapi.ModeHTML
	out.ReplyToMessageID = msg.ReplyTo
	out.DisableWebPagePreview = true

	sent, err := n.api.Send(out)
	if err != nil {
		return 0, err
	}

	return sent.MessageID, nil
}

// Delete removes a message.
func (n *Notifier) Delete(_ context.Context, chatID int64, messageID int) error {
	_, err := n.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
	return err
}
