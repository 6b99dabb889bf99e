package services

import "context"

// Button is one inline keyboard button. Data carries an encoded navigator input, URL opens a link.
type Button struct {
	Text string
	Data string
	URL  string
}

// Keyboard is an inline keyboard, one slice per row
type Keyboard struct {
	Rows [][]Button
}

// FileUpload is a document handed to the delivery channel
type FileUpload struct {
	Name    string
	Bytes   []byte
	Caption string
}

// MessageRef identifies a delivered message so that a follow-up can reply to it
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// Messenger is the outbound delivery channel shared by the navigator and the notifier.
// Every method may block on the network and must honor ctx.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string, keyboard *Keyboard) error
	SendDocument(ctx context.Context, chatID int64, file FileUpload) (MessageRef, error)
	ReplyText(ctx context.Context, to MessageRef, text string, keyboard *Keyboard) error
	BotUsername(ctx context.Context) (string, error)
}
