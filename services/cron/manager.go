package cron

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sahilchouksey/study-notes-bot/model"
	"github.com/sahilchouksey/study-notes-bot/utils/logger"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const jobTimeout = 10 * time.Minute

// SessionPruner drops idle chat sessions. Redis backed sessions expire on their own and need none.
type SessionPruner interface {
	Prune(cutoff time.Time) int
}

// Config wires the maintenance jobs
type Config struct {
	DB         *gorm.DB
	Sessions   SessionPruner
	SessionTTL time.Duration
	Log        *logger.Logger
}

// CronManager manages all scheduled maintenance jobs
type CronManager struct {
	cron       *cron.Cron
	db         *gorm.DB
	sessions   SessionPruner
	sessionTTL time.Duration
	log        *logger.Logger
	now        func() time.Time
}

// NewCronManager creates a new cron manager
func NewCronManager(cfg Config) *CronManager {
	// Create cron with seconds precision
	c := cron.New(cron.WithSeconds())

	return &CronManager{
		cron:       c,
		db:         cfg.DB,
		sessions:   cfg.Sessions,
		sessionTTL: cfg.SessionTTL,
		log:        cfg.Log.With("component", "cron"),
		now:        time.Now,
	}
}

// Start registers and starts all cron jobs
func (m *CronManager) Start() error {
	m.log.Info("starting cron jobs")

	if err := m.registerJobs(); err != nil {
		return err
	}

	m.cron.Start()

	m.log.Info("cron jobs started", "jobs", len(m.cron.Entries()))
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (m *CronManager) Stop() {
	m.log.Info("stopping cron jobs")
	ctx := m.cron.Stop()
	<-ctx.Done()
	m.log.Info("cron jobs stopped")
}

type job struct {
	name     string
	schedule string
	run      func(ctx context.Context) (string, error)
}

func (m *CronManager) jobs() []job {
	jobs := []job{
		// Daily at 3 AM: drop old delivery records and job logs
		{name: "cleanup_old_data", schedule: "0 0 3 * * *", run: m.CleanupOldData},
	}
	if m.sessions != nil {
		// Every 10 minutes: drop idle in-memory sessions
		jobs = append(jobs, job{name: "prune_sessions", schedule: "0 */10 * * * *", run: m.PruneIdleSessions})
	}
	return jobs
}

// registerJobs registers all cron jobs with their schedules
func (m *CronManager) registerJobs() error {
	for _, j := range m.jobs() {
		if _, err := m.cron.AddFunc(j.schedule, func() { m.RunJob(j.name, j.run) }); err != nil {
			return err
		}
	}
	m.log.Info("all cron jobs registered")
	return nil
}

// RunJob executes one job with a timeout and records the run in cron_job_logs
func (m *CronManager) RunJob(name string, run func(ctx context.Context) (string, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	entry := m.logJobStart(ctx, name)
	message, err := run(ctx)
	if err != nil {
		m.logJobError(ctx, entry, err)
		return
	}
	m.logJobComplete(ctx, entry, message)
}

// logJobStart logs the start of a cron job
func (m *CronManager) logJobStart(ctx context.Context, jobName string) *model.CronJobLog {
	m.log.Debug("starting job", "job", jobName)

	entry := &model.CronJobLog{
		JobName:   jobName,
		Status:    model.CronJobRunning,
		StartedAt: m.now(),
		Metadata:  datatypes.JSON("{}"),
	}
	if err := m.db.WithContext(ctx).Create(entry).Error; err != nil {
		m.log.Warn("failed to record job start", "job", jobName, "error", err)
	}
	return entry
}

// logJobComplete logs successful completion of a cron job
func (m *CronManager) logJobComplete(ctx context.Context, entry *model.CronJobLog, message string) {
	m.log.Info("completed job", "job", entry.JobName, "message", message)
	m.finishEntry(ctx, entry, map[string]interface{}{
		"status":  model.CronJobCompleted,
		"message": message,
	})
}

// logJobError logs a cron job error
func (m *CronManager) logJobError(ctx context.Context, entry *model.CronJobLog, err error) {
	m.log.Error("job failed", "job", entry.JobName, "error", err)
	m.finishEntry(ctx, entry, map[string]interface{}{
		"status":    model.CronJobFailed,
		"error_msg": err.Error(),
	})
}

func (m *CronManager) finishEntry(ctx context.Context, entry *model.CronJobLog, updates map[string]interface{}) {
	if entry.ID == 0 {
		return
	}
	completed := m.now()
	updates["completed_at"] = completed
	updates["duration"] = completed.Sub(entry.StartedAt).Milliseconds()

	if err := m.db.WithContext(ctx).Model(entry).Updates(updates).Error; err != nil {
		m.log.Warn("failed to record job result", "job", entry.JobName, "error", err)
	}
}
