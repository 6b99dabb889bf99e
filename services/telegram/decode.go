package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sahilchouksey/study-notes-bot/services"
	"github.com/sahilchouksey/study-notes-bot/services/navigator"
)

// Event is a decoded update ready for the navigator
type Event struct {
	Identity   services.ChatIdentity
	Input      navigator.Input
	CallbackID string
}

// DecodeUpdate maps a Telegram update onto a navigator input. ok is false for
// updates the bot does not react to (edits, channel posts, inline queries).
func DecodeUpdate(u tgbotapi.Update) (Event, bool) {
	switch {
	case u.CallbackQuery != nil:
		cq := u.CallbackQuery
		if cq.From == nil {
			return Event{}, false
		}
		chatID := cq.From.ID
		if cq.Message != nil && cq.Message.Chat != nil {
			chatID = cq.Message.Chat.ID
		}
		return Event{
			Identity:   services.ChatIdentity{ChatID: chatID, Username: cq.From.UserName},
			Input:      navigator.Decode(cq.Data),
			CallbackID: cq.ID,
		}, true

	case u.Message != nil:
		msg := u.Message
		if msg.Chat == nil {
			return Event{}, false
		}
		identity := services.ChatIdentity{ChatID: msg.Chat.ID}
		if msg.From != nil {
			identity.Username = msg.From.UserName
		}
		return Event{Identity: identity, Input: commandInput(msg)}, true
	}

	return Event{}, false
}

func commandInput(msg *tgbotapi.Message) navigator.Input {
	if !msg.IsCommand() {
		return navigator.Text{Body: msg.Text}
	}

	switch msg.Command() {
	case "start":
		return navigator.ParseStartPayload(msg.CommandArguments())
	case "menu", "cancel":
		return navigator.Start{}
	case "browse":
		return navigator.Browse{}
	case "about", "help":
		return navigator.About{}
	default:
		return navigator.Text{Body: msg.Text}
	}
}
