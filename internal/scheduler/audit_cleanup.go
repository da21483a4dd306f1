// Package scheduler runs periodic maintenance by enqueuing background tasks.
package scheduler

import (
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/bookrank/internal/tasks"
)

// AuditCleanupScheduler periodically enqueues the audit retention cleanup task.
type AuditCleanupScheduler struct {
	taskClient    *tasks.Client
	schedule      string
	retentionDays int

	cron      *cron.Cron
	mu        sync.Mutex
	isRunning bool
}

// NewAuditCleanupScheduler creates a new scheduler instance.
func NewAuditCleanupScheduler(taskClient *tasks.Client, schedule string, retentionDays int) *AuditCleanupScheduler {
	return &AuditCleanupScheduler{
		taskClient:    taskClient,
		schedule:      schedule,
		retentionDays: retentionDays,
		cron:          cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the cron schedule.
func (s *AuditCleanupScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	_, err := s.cron.AddFunc(s.schedule, s.enqueue)
	if err != nil {
		return fmt.Errorf("failed to schedule audit cleanup: %w", err)
	}

	s.cron.Start()
	s.isRunning = true
	log.Printf("Audit cleanup scheduler: started with schedule %q (retention %d days)", s.schedule, s.retentionDays)
	return nil
}

// Stop halts the schedule. Already-enqueued tasks are unaffected.
func (s *AuditCleanupScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}
	s.cron.Stop()
	s.isRunning = false
	log.Printf("Audit cleanup scheduler: stopped")
}

func (s *AuditCleanupScheduler) enqueue() {
	task := tasks.CleanupAuditEventsTask{RetentionDays: s.retentionDays}
	if _, err := s.taskClient.Add(task).Save(); err != nil {
		log.Printf("Failed to enqueue audit cleanup task: %v", err)
	}
}
