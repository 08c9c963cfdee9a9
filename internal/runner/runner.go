// Package runner executes the scheduled background tasks: the snooze sweep
// and presence pruning.
package runner

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Task is a background job on a cron schedule.
type Task interface {
	Name() string
	// Schedule is a cron expression with a seconds field.
	Schedule() string
	Run(ctx context.Context) error
	// Timeout caps a single run.
	Timeout() time.Duration
}

// Runner schedules and executes tasks. Start is non-blocking; the owning
// process calls Stop during shutdown.
type Runner struct {
	cron   *cron.Cron
	tasks  []Task
	logger *log.Logger
	wg     sync.WaitGroup
}

// New creates a runner over the given tasks.
func New(logger *log.Logger, tasks ...Task) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		cron:   cron.New(cron.WithSeconds()),
		tasks:  tasks,
		logger: logger,
	}
}

// Start registers every task and starts the scheduler.
func (r *Runner) Start(ctx context.Context) error {
	for _, task := range r.tasks {
		task := task
		r.logger.Printf("runner: scheduling %s (%s)", task.Name(), task.Schedule())
		if _, err := r.cron.AddFunc(task.Schedule(), func() {
			r.execute(ctx, task)
		}); err != nil {
			return fmt.Errorf("runner: schedule %s: %w", task.Name(), err)
		}
	}
	r.cron.Start()
	return nil
}

// Stop halts scheduling and waits for in-flight runs to finish.
func (r *Runner) Stop() {
	stopped := r.cron.Stop()
	r.wg.Wait()
	<-stopped.Done()
}

func (r *Runner) execute(ctx context.Context, task Task) {
	r.wg.Add(1)
	defer r.wg.Done()

	taskCtx, cancel := context.WithTimeout(ctx, task.Timeout())
	defer cancel()

	start := time.Now()
	if err := task.Run(taskCtx); err != nil {
		r.logger.Printf("runner: %s failed after %v: %v", task.Name(), time.Since(start), err)
	}
}
