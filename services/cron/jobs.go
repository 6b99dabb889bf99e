package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/sahilchouksey/study-notes-bot/model"
)

const (
	deliveryRetention = 30 * 24 * time.Hour
	cronLogRetention  = 90 * 24 * time.Hour
)

// PruneIdleSessions drops chat sessions that saw no input for longer than the session TTL.
// A pruned chat simply starts over at the main menu.
func (m *CronManager) PruneIdleSessions(ctx context.Context) (string, error) {
	if m.sessions == nil {
		return "no session store to prune", nil
	}
	removed := m.sessions.Prune(m.now().Add(-m.sessionTTL))
	return fmt.Sprintf("pruned %d idle sessions", removed), nil
}

// CleanupOldData deletes notification delivery records older than 30 days and job logs older than 90 days
func (m *CronManager) CleanupOldData(ctx context.Context) (string, error) {
	now := m.now()

	result := m.db.WithContext(ctx).Where("created_at < ?", now.Add(-deliveryRetention)).Delete(&model.NotificationDelivery{})
	if result.Error != nil {
		return "", fmt.Errorf("failed to clean notification deliveries: %w", result.Error)
	}
	deliveries := result.RowsAffected

	result = m.db.WithContext(ctx).Where("created_at < ?", now.Add(-cronLogRetention)).Delete(&model.CronJobLog{})
	if result.Error != nil {
		return "", fmt.Errorf("failed to clean cron logs: %w", result.Error)
	}
	logs := result.RowsAffected

	m.log.Info("cleaned old data", "deliveries", deliveries, "cron_logs", logs)
	return fmt.Sprintf("cleaned %d deliveries and %d job logs", deliveries, logs), nil
}
