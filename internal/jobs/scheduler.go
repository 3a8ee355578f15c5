// Package jobs runs the periodic checks, either on a cron schedule or once
// from the command line.
package jobs

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Job struct {
	Name     string
	Schedule string // standard 5-field cron expression
	Run      func(ctx context.Context) error
}

type Scheduler struct {
	cron *cron.Cron
	log  *zap.Logger

	mu   sync.Mutex
	jobs map[string]Job
}

func NewScheduler(log *zap.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(),
		log:  log,
		jobs: make(map[string]Job),
	}
}

// Register adds a job. Names are unique and the schedule must parse.
func (s *Scheduler) Register(j Job) error {
	if _, err := cron.ParseStandard(j.Schedule); err != nil {
		return fmt.Errorf("job %s: bad schedule %q: %w", j.Name, j.Schedule, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[j.Name]; ok {
		return fmt.Errorf("job %s registered twice", j.Name)
	}
	s.jobs[j.Name] = j

	_, err := s.cron.AddFunc(j.Schedule, func() {
		if err := s.RunOnce(context.Background(), j.Name); err != nil {
			s.log.Error("job failed", zap.String("job", j.Name), zap.Error(err))
		}
	})
	return err
}

// RunOnce runs a registered job synchronously.
func (s *Scheduler) RunOnce(ctx context.Context, name string) error {
	s.mu.Lock()
	j, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}

	s.log.Info("job started", zap.String("job", name))
	if err := j.Run(ctx); err != nil {
		return err
	}
	s.log.Info("job finished", zap.String("job", name))
	return nil
}

// Names lists registered jobs in order.
func (s *Scheduler) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts scheduling and returns a context done once running jobs end.
func (s *Scheduler) Stop() context.Context { return s.cron.Stop() }
