// Package telegram posts dashboard alerts to a Telegram chat.
package telegram

import (
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// maxMessageLen is the Telegram limit for one message, in characters.
const maxMessageLen = 4096

var (
	ErrMissingBotToken = errors.New("telegram bot token is empty")
	ErrMissingChatID   = errors.New("telegram chat id is not set")
)

// Config identifies the bot and the chat that alerts are posted to. ChatID
// is negative for groups and channels.
type Config struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// Validate checks that both the token and the chat are set.
func (c Config) Validate() error {
	if strings.TrimSpace(c.BotToken) == "" {
		return ErrMissingBotToken
	}
	if c.ChatID == 0 {
		return ErrMissingChatID
	}
	return nil
}

// Notifier delivers a Markdown alert to the configured chat.
type Notifier interface {
	SendMessage(text string) error
}

type botNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewNotifier validates cfg and authenticates the bot.
func NewNotifier(cfg Config) (Notifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate telegram bot: %w", err)
	}
	return &botNotifier{bot: bot, chatID: cfg.ChatID}, nil
}

// SendMessage posts text, split into several messages when it exceeds the
// Telegram length limit.
func (n *botNotifier) SendMessage(text string) error {
	for _, part := range splitMessage(text, maxMessageLen) {
		msg := tgbotapi.NewMessage(n.chatID, part)
		msg.ParseMode = tgbotapi.ModeMarkdown
		msg.DisableWebPagePreview = true
		if _, err := n.bot.Send(msg); err != nil {
			return fmt.Errorf("failed to send telegram message: %w", err)
		}
	}
	return nil
}

// splitMessage cuts text into parts of at most limit runes, preferring line
// boundaries.
func splitMessage(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	var parts []string
	for len(runes) > limit {
		cut := limit
		for i := limit; i > 0; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}
		parts = append(parts, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}
