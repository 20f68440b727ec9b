package services

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"trainingcrm/internal/store"
	"trainingcrm/internal/utils"
)

// TelegramNotifier posts notices and digests to one or more chats.
type TelegramNotifier struct {
	bot     *tgbotapi.BotAPI
	chatIDs []int64
}

// NewTelegramNotifier connects to the Bot API and checks the token.
func NewTelegramNotifier(token string, chatIDs []int64) (*TelegramNotifier, error) {
	return NewTelegramNotifierWithEndpoint(token, tgbotapi.APIEndpoint, chatIDs, &http.Client{Timeout: 15 * time.Second})
}

// NewTelegramNotifierWithEndpoint is NewTelegramNotifier against a custom
// API endpoint (format "<base>/bot%s/%s").
func NewTelegramNotifierWithEndpoint(token, endpoint string, chatIDs []int64, client tgbotapi.HTTPClient) (*TelegramNotifier, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram token is empty")
	}
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	utils.Log.WithField("bot", bot.Self.UserName).Info("[tg] notifier ready")
	return &TelegramNotifier{bot: bot, chatIDs: chatIDs}, nil
}

func (t *TelegramNotifier) Name() string { return "telegram" }

func (t *TelegramNotifier) SendText(ctx context.Context, subject, body string) error {
	if t == nil || t.bot == nil || len(t.chatIDs) == 0 {
		utils.Log.Debug("[tg][skip] bot or chats not configured")
		return nil
	}
	text := fmt.Sprintf("<b>%s</b>\n%s", html.EscapeString(subject), html.EscapeString(body))
	for _, chatID := range t.chatIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ParseMode = tgbotapi.ModeHTML
		msg.DisableWebPagePreview = true
		if _, err := t.bot.Send(msg); err != nil {
			utils.Log.WithFields(logrus.Fields{"chat": chatID}).WithError(err).Warn("[tg][send] failed")
			return fmt.Errorf("telegram sendMessage to %d: %w", chatID, err)
		}
	}
	return nil
}

func (t *TelegramNotifier) Notify(ctx context.Context, n store.Notice) error {
	return t.SendText(ctx, noticeSubject, n.Message)
}
