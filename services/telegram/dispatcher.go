package telegram

import (
	"context"
	"errors"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sahilchouksey/study-notes-bot/services"
	"github.com/sahilchouksey/study-notes-bot/services/navigator"
	"github.com/sahilchouksey/study-notes-bot/utils/logger"
)

const defaultHandleTimeout = 2 * time.Minute

// Handler consumes decoded chat events
type Handler interface {
	Handle(ctx context.Context, identity services.ChatIdentity, in navigator.Input) error
}

// CallbackAnswerer acknowledges button presses
type CallbackAnswerer interface {
	AnswerCallback(ctx context.Context, callbackID string) error
}

type chatRun struct {
	cancel context.CancelFunc
}

// Dispatcher runs one handler goroutine per event. Chats are independent; a newer event
// for a chat cancels the one still running for it, so a user tapping quickly only
// sees the screen for the last tap.
type Dispatcher struct {
	handler  Handler
	answerer CallbackAnswerer
	log      *logger.Logger
	timeout  time.Duration

	mu      sync.Mutex
	running map[int64]*chatRun
	wg      sync.WaitGroup
}

// NewDispatcher creates a dispatcher. answerer may be nil.
func NewDispatcher(handler Handler, answerer CallbackAnswerer, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		handler:  handler,
		answerer: answerer,
		log:      log.With("component", "dispatcher"),
		timeout:  defaultHandleTimeout,
		running:  make(map[int64]*chatRun),
	}
}

// Dispatch decodes and handles one update in the background. Work keeps running after ctx is
// cancelled; use Wait to drain it.
func (d *Dispatcher) Dispatch(ctx context.Context, update tgbotapi.Update) {
	event, ok := DecodeUpdate(update)
	if !ok {
		return
	}

	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	run := &chatRun{cancel: cancel}

	d.mu.Lock()
	if prev, ok := d.running[event.Identity.ChatID]; ok {
		prev.cancel()
	}
	d.running[event.Identity.ChatID] = run
	d.mu.Unlock()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer d.finish(event.Identity.ChatID, run)

		if event.CallbackID != "" && d.answerer != nil {
			if err := d.answerer.AnswerCallback(runCtx, event.CallbackID); err != nil {
				d.log.Debug("failed to answer callback", "chat_id", event.Identity.ChatID, "error", err)
			}
		}

		if err := d.handler.Handle(runCtx, event.Identity, event.Input); err != nil {
			if errors.Is(err, context.Canceled) {
				d.log.Debug("update superseded", "update_id", update.UpdateID, "chat_id", event.Identity.ChatID)
				return
			}
			d.log.Error("failed to handle update", "update_id", update.UpdateID, "chat_id", event.Identity.ChatID, "error", err)
		}
	}()
}

func (d *Dispatcher) finish(chatID int64, run *chatRun) {
	run.cancel()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running[chatID] == run {
		delete(d.running, chatID)
	}
}

// Wait blocks until every dispatched event finished or ctx ends
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
