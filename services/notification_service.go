package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sahilchouksey/study-notes-bot/model"
	"github.com/sahilchouksey/study-notes-bot/utils/logger"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	fanoutAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notes_fanout_attempts_total",
		Help: "New-document notification attempts by result",
	}, []string{"result"})

	fanoutDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "notes_fanout_duration_seconds",
		Help:    "Wall time of one fan-out round",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})
)

const (
	DefaultFanoutConcurrency = 8
	DefaultFanoutSendTimeout = 15 * time.Second
)

// NotifierConfig tunes fan-out dispatch
type NotifierConfig struct {
	Concurrency int
	SendTimeout time.Duration
}

// FanoutReport summarizes one fan-out round
type FanoutReport struct {
	BatchID    string `json:"batch_id"`
	DocumentID uint   `json:"document_id"`
	Attempted  int    `json:"attempted"`
	Delivered  int    `json:"delivered"`
	Failed     int    `json:"failed"`
}

// NotificationService broadcasts newly published documents to the subscribers of their course.
// Delivery is best effort: one attempt per subscriber, failures are logged and recorded, never raised.
type NotificationService struct {
	db            *gorm.DB
	catalog       *CatalogService
	subscriptions *SubscriptionService
	messenger     Messenger
	log           *logger.Logger
	cfg           NotifierConfig

	// mu orders the closed check and inflight.Add against Shutdown
	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

// NewNotificationService creates a new notification service
func NewNotificationService(db *gorm.DB, catalog *CatalogService, subscriptions *SubscriptionService, messenger Messenger, log *logger.Logger, cfg NotifierConfig) *NotificationService {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultFanoutConcurrency
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = DefaultFanoutSendTimeout
	}
	return &NotificationService{
		db:            db,
		catalog:       catalog,
		subscriptions: subscriptions,
		messenger:     messenger,
		log:           log.With("component", "notifier"),
		cfg:           cfg,
	}
}

// OnDocumentPublished is the publish hook. It returns immediately; the fan-out runs in the
// background, detached from the caller's cancellation, and is tracked for Shutdown.
func (s *NotificationService) OnDocumentPublished(ctx context.Context, documentID uint) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.log.Warn("dropping publish event during shutdown", "document_id", documentID)
		return
	}
	s.inflight.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.inflight.Done()
		if _, err := s.NotifyNewDocument(context.WithoutCancel(ctx), documentID); err != nil {
			s.log.Error("fan-out aborted", "document_id", documentID, "error", err)
		}
	}()
}

// Shutdown stops accepting publish events and waits for running fan-outs until ctx expires.
// Abandoned rounds leave no partial aggregate state behind.
func (s *NotificationService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for fan-outs: %w", ctx.Err())
	}
}

// NotifyNewDocument sends one message to every subscriber of the document's course and returns
// once every attempt has been dispatched. Errors are returned only when the recipients could not
// be resolved; per-recipient failures are counted in the report.
func (s *NotificationService) NotifyNewDocument(ctx context.Context, documentID uint) (*FanoutReport, error) {
	start := time.Now()
	report := &FanoutReport{BatchID: uuid.NewString(), DocumentID: documentID}

	docCtx, err := s.catalog.DocumentContext(ctx, documentID)
	if err != nil {
		return report, fmt.Errorf("failed to resolve document %d: %w", documentID, err)
	}

	subscribers, err := s.subscriptions.ListSubscribers(ctx, docCtx.Course.ID)
	if err != nil {
		return report, err
	}
	if len(subscribers) == 0 {
		s.log.Debug("no subscribers", "document_id", documentID, "course_id", docCtx.Course.ID)
		return report, nil
	}

	text := s.composeMessage(ctx, docCtx)
	log := s.log.With("batch_id", report.BatchID, "document_id", documentID)

	deliveries := make([]model.NotificationDelivery, len(subscribers))
	var delivered, failed atomic.Int64

	g := new(errgroup.Group)
	g.SetLimit(s.cfg.Concurrency)

	for i, user := range subscribers {
		i, user := i, user
		g.Go(func() error {
			sendCtx, cancel := context.WithTimeout(ctx, s.cfg.SendTimeout)
			defer cancel()

			sentAt := time.Now()
			sendErr := s.messenger.SendText(sendCtx, user.ChatID, text, nil)
			deliveries[i] = s.delivery(report.BatchID, docCtx, user, time.Since(sentAt), sendErr)

			if sendErr != nil {
				failed.Add(1)
				fanoutAttempts.WithLabelValues("failed").Inc()
				log.Warn("notification delivery failed", "user_id", user.ID, "chat_id", user.ChatID, "error", sendErr)
			} else {
				delivered.Add(1)
				fanoutAttempts.WithLabelValues("sent").Inc()
			}
			// never fail the group, one recipient must not cancel the others
			return nil
		})
	}
	_ = g.Wait()

	report.Attempted = len(subscribers)
	report.Delivered = int(delivered.Load())
	report.Failed = int(failed.Load())

	if err := s.db.WithContext(ctx).CreateInBatches(deliveries, 100).Error; err != nil {
		log.Error("failed to record deliveries", "error", err)
	}

	fanoutDuration.Observe(time.Since(start).Seconds())
	log.Info("fan-out finished",
		"course_id", docCtx.Course.ID,
		"attempted", report.Attempted,
		"delivered", report.Delivered,
		"failed", report.Failed,
	)

	return report, nil
}

func (s *NotificationService) delivery(batchID string, docCtx *DocumentContext, user model.User, took time.Duration, sendErr error) model.NotificationDelivery {
	d := model.NotificationDelivery{
		BatchID:    batchID,
		DocumentID: docCtx.Document.ID,
		UserID:     user.ID,
		Status:     model.DeliveryStatusSent,
	}
	if sendErr != nil {
		d.Status = model.DeliveryStatusFailed
		d.Error = sendErr.Error()
	}

	meta, err := json.Marshal(model.DeliveryMetadata{
		ChatID:     user.ChatID,
		CourseID:   docCtx.Course.ID,
		CourseName: docCtx.Course.Name,
		DurationMS: took.Milliseconds(),
	})
	if err == nil {
		d.Metadata = datatypes.JSON(meta)
	}
	return d
}

// composeMessage renders the announcement shared by every recipient of one round
func (s *NotificationService) composeMessage(ctx context.Context, docCtx *DocumentContext) string {
	doc := docCtx.Document

	var b strings.Builder
	b.WriteString("📢 New note available!\n\n")
	fmt.Fprintf(&b, "📝 %s\n", doc.Title)
	fmt.Fprintf(&b, "📖 Course: %s\n", docCtx.Course.Name)
	fmt.Fprintf(&b, "👨‍🏫 Instructor: %s\n", docCtx.Instructor.Name)
	fmt.Fprintf(&b, "✍️ Author: %s\n", doc.Author)
	if !doc.WrittenAt.IsZero() {
		fmt.Fprintf(&b, "📅 Written: %s\n", doc.WrittenAt.Format("2006/01/02"))
	}
	if d := strings.TrimSpace(doc.Description); d != "" {
		fmt.Fprintf(&b, "\n📌 Description:\n%s\n", d)
	}

	b.WriteString("\n")
	if link, err := s.deepLinkURL(ctx, doc.ID); err == nil {
		fmt.Fprintf(&b, "📥 Download: %s\n", link)
	} else {
		s.log.Warn("bot username unavailable, sending reference only", "document_id", doc.ID, "error", err)
	}
	fmt.Fprintf(&b, "🔗 Reference: %s", DocumentReference(doc.ID))

	return b.String()
}

func (s *NotificationService) deepLinkURL(ctx context.Context, documentID uint) (string, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, s.cfg.SendTimeout)
	defer cancel()

	username, err := s.messenger.BotUsername(lookupCtx)
	if err != nil {
		return "", err
	}
	if username == "" {
		return "", fmt.Errorf("empty bot username")
	}
	return fmt.Sprintf("https://t.me/%s?start=%s", username, DeepLinkPayload(documentID)), nil
}

// DocumentReference is the canonical external reference of a document
func DocumentReference(documentID uint) string {
	return fmt.Sprintf("document:%d", documentID)
}

// DeepLinkPayload is the /start payload that opens a document. Telegram only allows
// [A-Za-z0-9_-] in start parameters, so the colon of DocumentReference becomes an underscore.
func DeepLinkPayload(documentID uint) string {
	return fmt.Sprintf("document_%d", documentID)
}
