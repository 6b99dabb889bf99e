package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sahilchouksey/study-notes-bot/services"
	"github.com/sahilchouksey/study-notes-bot/utils/logger"
)

// ErrDisabled is returned by the Disabled messenger
var ErrDisabled = errors.New("telegram delivery is disabled")

// Client wraps the Bot API and implements services.Messenger
type Client struct {
	bot *tgbotapi.BotAPI
	log *logger.Logger
}

// Config holds Bot API connection settings. Endpoint defaults to the public Bot API.
type Config struct {
	Token          string
	Endpoint       string
	RequestTimeout time.Duration
}

// NewClient authenticates against the Bot API (a getMe call) and returns a ready client
func NewClient(cfg Config, log *logger.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = tgbotapi.APIEndpoint
	}
	if cfg.RequestTimeout <= 0 {
		// must exceed the long-poll timeout used by the poller
		cfg.RequestTimeout = 90 * time.Second
	}

	bot, err := tgbotapi.NewBotAPIWithClient(cfg.Token, cfg.Endpoint, &http.Client{Timeout: cfg.RequestTimeout})
	if err != nil {
		return nil, fmt.Errorf("telegram authentication failed: %w", err)
	}

	log.Info("authorized on telegram", "username", bot.Self.UserName)
	return &Client{bot: bot, log: log.With("component", "telegram")}, nil
}

func (c *Client) SendText(ctx context.Context, chatID int64, text string, kb *services.Keyboard) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = toMarkup(kb)
	_, err := c.send(ctx, msg)
	return err
}

func (c *Client) ReplyText(ctx context.Context, to services.MessageRef, text string, kb *services.Keyboard) error {
	msg := tgbotapi.NewMessage(to.ChatID, text)
	msg.ReplyToMessageID = to.MessageID
	msg.ReplyMarkup = toMarkup(kb)
	_, err := c.send(ctx, msg)
	return err
}

func (c *Client) SendDocument(ctx context.Context, chatID int64, file services.FileUpload) (services.MessageRef, error) {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: file.Name, Bytes: file.Bytes})
	doc.Caption = file.Caption

	sent, err := c.send(ctx, doc)
	if err != nil {
		return services.MessageRef{}, err
	}
	return services.MessageRef{ChatID: chatID, MessageID: sent.MessageID}, nil
}

// BotUsername returns the username resolved at authentication
func (c *Client) BotUsername(context.Context) (string, error) {
	if c.bot.Self.UserName == "" {
		return "", errors.New("bot username unknown")
	}
	return c.bot.Self.UserName, nil
}

// AnswerCallback acknowledges a button press so the client stops its loading indicator
func (c *Client) AnswerCallback(ctx context.Context, callbackID string) error {
	return c.call(ctx, func(bot *tgbotapi.BotAPI) error {
		_, err := bot.Request(tgbotapi.NewCallback(callbackID, ""))
		return err
	})
}

// SetWebhook registers url for update delivery. Telegram echoes secret in the
// X-Telegram-Bot-Api-Secret-Token header of every webhook request.
func (c *Client) SetWebhook(ctx context.Context, url, secret string) error {
	params := tgbotapi.Params{"url": url}
	params.AddNonEmpty("secret_token", secret)

	return c.call(ctx, func(bot *tgbotapi.BotAPI) error {
		_, err := bot.MakeRequest("setWebhook", params)
		return err
	})
}

// DeleteWebhook switches the bot back to getUpdates delivery
func (c *Client) DeleteWebhook(ctx context.Context) error {
	return c.call(ctx, func(bot *tgbotapi.BotAPI) error {
		_, err := bot.Request(tgbotapi.DeleteWebhookConfig{})
		return err
	})
}

func (c *Client) send(ctx context.Context, chattable tgbotapi.Chattable) (tgbotapi.Message, error) {
	var sent tgbotapi.Message
	err := c.call(ctx, func(bot *tgbotapi.BotAPI) error {
		var err error
		sent, err = bot.Send(chattable)
		return err
	})
	return sent, err
}

// call runs a Bot API request on a copy of the bot whose HTTP requests carry ctx, so a
// deadline or cancellation aborts the request in flight instead of abandoning it.
func (c *Client) call(ctx context.Context, fn func(bot *tgbotapi.BotAPI) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	bot := *c.bot
	bot.Client = contextClient{ctx: ctx, base: c.bot.Client}

	if err := fn(&bot); err != nil {
		return fmt.Errorf("telegram request failed: %w", err)
	}
	return nil
}

// contextClient binds every request to ctx. The Bot API library builds its requests without one.
type contextClient struct {
	ctx  context.Context
	base tgbotapi.HTTPClient
}

func (cc contextClient) Do(req *http.Request) (*http.Response, error) {
	return cc.base.Do(req.WithContext(cc.ctx))
}

func toMarkup(kb *services.Keyboard) interface{} {
	if kb == nil || len(kb.Rows) == 0 {
		return nil
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb.Rows))
	for _, row := range kb.Rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			if b.URL != "" {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
				continue
			}
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		rows = append(rows, buttons)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// Disabled is the messenger used when no bot token is configured. Every send fails with ErrDisabled,
// so fan-out rounds are still recorded, as failures.
type Disabled struct {
	Log *logger.Logger
}

func (d Disabled) SendText(_ context.Context, chatID int64, _ string, _ *services.Keyboard) error {
	d.Log.Debug("dropping message", "chat_id", chatID)
	return ErrDisabled
}

func (d Disabled) ReplyText(_ context.Context, to services.MessageRef, _ string, _ *services.Keyboard) error {
	return ErrDisabled
}

func (d Disabled) SendDocument(context.Context, int64, services.FileUpload) (services.MessageRef, error) {
	return services.MessageRef{}, ErrDisabled
}

func (d Disabled) BotUsername(context.Context) (string, error) {
	return "", ErrDisabled
}
