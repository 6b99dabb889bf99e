package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sahilchouksey/study-notes-bot/utils/logger"
)

const longPollSeconds = 60

// Poller pulls updates with getUpdates and feeds them to a dispatcher
type Poller struct {
	client     *Client
	dispatcher *Dispatcher
	log        *logger.Logger
}

func NewPoller(client *Client, dispatcher *Dispatcher, log *logger.Logger) *Poller {
	return &Poller{client: client, dispatcher: dispatcher, log: log.With("component", "poller")}
}

// Run polls until ctx is cancelled
func (p *Poller) Run(ctx context.Context) error {
	// getUpdates is rejected while a webhook is registered
	if err := p.client.DeleteWebhook(ctx); err != nil {
		return err
	}

	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = longPollSeconds
	updates := p.client.bot.GetUpdatesChan(cfg)

	p.log.Info("polling for updates")
	for {
		select {
		case <-ctx.Done():
			p.client.bot.StopReceivingUpdates()
			p.log.Info("polling stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			p.dispatcher.Dispatch(ctx, update)
		}
	}
}
