package cron

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sahilchouksey/study-notes-bot/database"
	"github.com/sahilchouksey/study-notes-bot/model"
	"github.com/sahilchouksey/study-notes-bot/utils/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type prunerStub struct {
	cutoff time.Time
}

func (p *prunerStub) Prune(cutoff time.Time) int {
	p.cutoff = cutoff
	return 3
}

func newTestManager(t *testing.T) (*CronManager, *gorm.DB, *prunerStub) {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.OpenSQLite("file:"+name+"?mode=memory&cache=shared", nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	pruner := &prunerStub{}
	m := NewCronManager(Config{
		DB:         db,
		Sessions:   pruner,
		SessionTTL: 24 * time.Hour,
		Log:        logger.Nop(),
	})
	return m, db, pruner
}

func TestPruneIdleSessions(t *testing.T) {
	m, _, pruner := newTestManager(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	msg, err := m.PruneIdleSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pruned 3 idle sessions", msg)
	assert.Equal(t, now.Add(-24*time.Hour), pruner.cutoff)
}

func TestCleanupOldData(t *testing.T) {
	m, db, _ := newTestManager(t)
	now := time.Now()

	old := model.NotificationDelivery{BatchID: "old", DocumentID: 1, UserID: 1, Status: model.DeliveryStatusSent, CreatedAt: now.Add(-31 * 24 * time.Hour)}
	recent := model.NotificationDelivery{BatchID: "recent", DocumentID: 1, UserID: 1, Status: model.DeliveryStatusSent, CreatedAt: now.Add(-time.Hour)}
	require.NoError(t, db.Create(&old).Error)
	require.NoError(t, db.Create(&recent).Error)

	msg, err := m.CleanupOldData(context.Background())
	require.NoError(t, err)
	assert.Contains(t, msg, "cleaned 1 deliveries")

	var remaining []model.NotificationDelivery
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, "recent", remaining[0].BatchID)
}

func TestRunJobRecordsOutcome(t *testing.T) {
	m, db, _ := newTestManager(t)

	m.RunJob("ok_job", func(context.Context) (string, error) { return "all good", nil })
	m.RunJob("bad_job", func(context.Context) (string, error) { return "", errors.New("boom") })

	var logs []model.CronJobLog
	require.NoError(t, db.Order("id").Find(&logs).Error)
	require.Len(t, logs, 2)

	assert.Equal(t, model.CronJobCompleted, logs[0].Status)
	assert.Equal(t, "all good", logs[0].Message)
	assert.NotNil(t, logs[0].CompletedAt)

	assert.Equal(t, model.CronJobFailed, logs[1].Status)
	assert.Equal(t, "boom", logs[1].ErrorMsg)
}

func TestJobsSkipPruningWithoutMemoryStore(t *testing.T) {
	m, _, _ := newTestManager(t)
	assert.Len(t, m.jobs(), 2)

	m.sessions = nil
	for _, j := range m.jobs() {
		assert.NotEqual(t, "prune_sessions", j.name)
	}
}
