package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/adhocore/gronx"
	"github.com/google/uuid"

	"github.com/skiff-ai/skiff/pkg/bus"
	"github.com/skiff-ai/skiff/pkg/logger"
)

// Service keeps scheduled jobs in a JSON file and feeds due jobs into
// the message bus as inbound cron messages.
type Service struct {
	storePath string
	msgBus    bus.Publisher

	mu   sync.Mutex
	jobs map[string]*Job

	cancel context.CancelFunc
	done   chan struct{}
}

func NewService(storePath string, msgBus bus.Publisher) *Service {
	s := &Service{
		storePath: storePath,
		msgBus:    msgBus,
		jobs:      make(map[string]*Job),
	}
	s.load()
	return s
}

// Add registers a job, computes its first run and persists the store.
func (s *Service) Add(name string, schedule Schedule, message, channel, chatID string) (*Job, error) {
	next, err := NextRun(schedule, time.Now())
	if err != nil {
		return nil, err
	}

	job := &Job{
		ID:        uuid.New().String()[:8],
		Name:      name,
		Schedule:  schedule,
		Message:   message,
		Channel:   channel,
		ChatID:    chatID,
		Enabled:   true,
		NextRunMs: next.UnixMilli(),
		CreatedMs: time.Now().UnixMilli(),
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	if err := s.save(); err != nil {
		return nil, err
	}

	logger.InfoCF("cron", "Job added", map[string]interface{}{
		"job_id": job.ID,
		"name":   name,
		"next":   next.Format(time.RFC3339),
	})
	return job, nil
}

func (s *Service) Remove(id string) bool {
	s.mu.Lock()
	_, ok := s.jobs[id]
	delete(s.jobs, id)
	s.mu.Unlock()

	if ok {
		s.save()
	}
	return ok
}

// List returns jobs sorted by next run time.
func (s *Service) List() []*Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := make([]*Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		copied := *job
		jobs = append(jobs, &copied)
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].NextRunMs < jobs[j].NextRunMs
	})
	return jobs
}

func (s *Service) Get(id string) (*Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, false
	}
	copied := *job
	return &copied, true
}

func (s *Service) SetEnabled(id string, enabled bool) bool {
	s.mu.Lock()
	job, ok := s.jobs[id]
	if ok {
		job.Enabled = enabled
	}
	s.mu.Unlock()

	if ok {
		s.save()
	}
	return ok
}

// Start launches the tick loop. The loop wakes every 20s, fires due
// jobs and reschedules or removes them.
func (s *Service) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(20 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.fireDue(now)
			}
		}
	}()

	logger.InfoC("cron", "Cron service started")
}

func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
}

func (s *Service) fireDue(now time.Time) {
	nowMs := now.UnixMilli()

	s.mu.Lock()
	var due []*Job
	for _, job := range s.jobs {
		if job.Enabled && job.NextRunMs > 0 && job.NextRunMs <= nowMs {
			due = append(due, job)
		}
	}
	s.mu.Unlock()

	if len(due) == 0 {
		return
	}

	for _, job := range due {
		s.deliver(job)
	}

	s.mu.Lock()
	for _, job := range due {
		stored, ok := s.jobs[job.ID]
		if !ok {
			continue
		}
		stored.LastRunMs = nowMs
		if stored.Schedule.Kind == ScheduleKindAt {
			// One-shot jobs are removed after firing.
			delete(s.jobs, job.ID)
			continue
		}
		if next, err := NextRun(stored.Schedule, now); err == nil {
			stored.NextRunMs = next.UnixMilli()
		} else {
			stored.Enabled = false
		}
	}
	s.mu.Unlock()

	s.save()
}

func (s *Service) deliver(job *Job) {
	channel := job.Channel
	if channel == "" {
		channel = "cron"
	}
	chatID := job.ChatID
	if chatID == "" {
		chatID = job.ID
	}

	logger.InfoCF("cron", "Job fired", map[string]interface{}{
		"job_id": job.ID,
		"name":   job.Name,
	})

	s.msgBus.PublishInbound(bus.InboundMessage{
		Channel:  channel,
		SenderID: "cron",
		ChatID:   chatID,
		Content:  job.Message,
		Metadata: map[string]string{"cron_job_id": job.ID, "cron_job_name": job.Name},
	})
}

// NextRun computes the next fire time for a schedule after the given
// reference time.
func NextRun(schedule Schedule, after time.Time) (time.Time, error) {
	switch schedule.Kind {
	case ScheduleKindAt:
		if schedule.At == "" {
			return time.Time{}, fmt.Errorf("'at' schedule requires 'at' field")
		}
		t, err := time.Parse(time.RFC3339, schedule.At)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid timestamp: %w", err)
		}
		return t, nil

	case ScheduleKindEvery:
		if schedule.EveryMs <= 0 {
			return time.Time{}, fmt.Errorf("'every' schedule requires positive 'everyMs'")
		}
		return after.Add(time.Duration(schedule.EveryMs) * time.Millisecond), nil

	case ScheduleKindCron:
		if schedule.Expr == "" {
			return time.Time{}, fmt.Errorf("'cron' schedule requires 'expr' field")
		}
		if !gronx.New().IsValid(schedule.Expr) {
			return time.Time{}, fmt.Errorf("invalid cron expression: %s", schedule.Expr)
		}
		return gronx.NextTickAfter(schedule.Expr, after, false)

	default:
		return time.Time{}, fmt.Errorf("unknown schedule kind: %s", schedule.Kind)
	}
}

type jobStore struct {
	Jobs []*Job `json:"jobs"`
}

func (s *Service) load() {
	if s.storePath == "" {
		return
	}
	data, err := os.ReadFile(s.storePath)
	if err != nil {
		return
	}
	var store jobStore
	if err := json.Unmarshal(data, &store); err != nil {
		logger.WarnCF("cron", "Failed to parse job store", map[string]interface{}{
			"path":  s.storePath,
			"error": err.Error(),
		})
		return
	}
	for _, job := range store.Jobs {
		s.jobs[job.ID] = job
	}
}

func (s *Service) save() error {
	if s.storePath == "" {
		return nil
	}

	s.mu.Lock()
	store := jobStore{Jobs: make([]*Job, 0, len(s.jobs))}
	for _, job := range s.jobs {
		copied := *job
		store.Jobs = append(store.Jobs, &copied)
	}
	s.mu.Unlock()

	sort.Slice(store.Jobs, func(i, j int) bool {
		return store.Jobs[i].CreatedMs < store.Jobs[j].CreatedMs
	})

	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.storePath), 0755); err != nil {
		return err
	}
	return os.WriteFile(s.storePath, data, 0644)
}
