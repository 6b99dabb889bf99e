package webhook

import (
	"context"
	"crypto/subtle"
	"encoding/json"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/study-notes-bot/utils/logger"
	"github.com/sahilchouksey/study-notes-bot/utils/response"
)

// SecretHeader is set by Telegram on every webhook request to the secret given at registration
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// UpdateDispatcher handles decoded Telegram updates
type UpdateDispatcher interface {
	Dispatch(ctx context.Context, update tgbotapi.Update)
}

// WebhookHandler receives Telegram updates pushed to the bot
type WebhookHandler struct {
	secret     string
	dispatcher UpdateDispatcher
	log        *logger.Logger
}

// NewWebhookHandler creates a new webhook handler. An empty secret accepts any caller.
func NewWebhookHandler(secret string, dispatcher UpdateDispatcher, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{secret: secret, dispatcher: dispatcher, log: log.With("component", "webhook")}
}

// HandleUpdate handles POST /telegram/webhook
// Updates are acknowledged immediately; handling continues in the background.
func (h *WebhookHandler) HandleUpdate(c *fiber.Ctx) error {
	if h.secret != "" && subtle.ConstantTimeCompare([]byte(c.Get(SecretHeader)), []byte(h.secret)) != 1 {
		return response.Unauthorized(c, "Invalid webhook secret")
	}

	var update tgbotapi.Update
	if err := json.Unmarshal(c.Body(), &update); err != nil {
		h.log.Warn("malformed update", "error", err)
		return response.BadRequest(c, "Malformed update")
	}

	h.dispatcher.Dispatch(c.UserContext(), update)
	return c.SendStatus(fiber.StatusOK)
}
