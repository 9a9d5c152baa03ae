package telegram

import (
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender is the part of the bot API the client uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

const requestTimeout = 10 * time.Second

type Client struct {
	bot Sender
}

// NewClient authenticates the bot token against the Telegram API.
func NewClient(token string) (*Client, error) {
	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, &http.Client{
		Timeout: requestTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}
	return &Client{bot: bot}, nil
}

// NewClientWithSender wraps an already configured sender.
func NewClientWithSender(s Sender) *Client {
	return &Client{bot: s}
}

func (c *Client) SendMessage(chatID int64, text string) error {
	if _, err := c.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

func (c *Client) SendDocument(chatID int64, fileData []byte, fileName string) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: fileName, Bytes: fileData})
	doc.Caption = fileName
	if _, err := c.bot.Send(doc); err != nil {
		return fmt.Errorf("failed to send telegram document: %w", err)
	}
	return nil
}
