package notify

import (
	"context"
	"fmt"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

type TelegramNotifier struct {
	bot    *telego.Bot
	chatID int64
}

func NewTelegramNotifier(token string, chatID int64, opts ...telego.BotOption) (*TelegramNotifier, error) {
	bot, err := telego.NewBot(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	return &TelegramNotifier{
		bot:    bot,
		chatID: chatID,
	}, nil
}

func (n *TelegramNotifier) Send(ctx context.Context, text string) error {
	msg := tu.Message(tu.ID(n.chatID), text)

	if _, err := n.bot.SendMessage(ctx, msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// SendAudio lets Telegram fetch the recording itself; the bytes never pass through us.
func (n *TelegramNotifier) SendAudio(ctx context.Context, url, caption string) error {
	audio := tu.Audio(tu.ID(n.chatID), tu.FileFromURL(url)).WithCaption(caption)

	if _, err := n.bot.SendAudio(ctx, audio); err != nil {
		return fmt.Errorf("send audio: %w", err)
	}
	return nil
}
