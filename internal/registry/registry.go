// Package registry provides the process-wide task registry.
package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"leadharvest/internal/harvest"
)

// Registry is a concurrency-safe store of task records. Tasks live only in
// process memory; a periodic sweep removes finished entries past the
// retention window. The lock guards map access only and is never held across
// a blocking call.
type Registry struct {
	mu     sync.RWMutex
	tasks  map[string]harvest.Task
	idGen  harvest.IDGenerator
	clock  harvest.Clock
	logger *zap.Logger
}

// New constructs a Registry.
func New(idGen harvest.IDGenerator, clock harvest.Clock, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		tasks:  make(map[string]harvest.Task),
		idGen:  idGen,
		clock:  clock,
		logger: logger,
	}
}

// Create inserts a fresh queued task and returns its identifier.
func (r *Registry) Create(totalCombinations int) (string, error) {
	id, err := r.idGen.NewID()
	if err != nil {
		return "", fmt.Errorf("generate task id: %w", err)
	}
	task := harvest.Task{
		ID:                id,
		Status:            harvest.TaskStatusQueued,
		TotalCombinations: totalCombinations,
		StartedAt:         r.clock.Now(),
	}
	r.mu.Lock()
	r.tasks[id] = task
	r.mu.Unlock()
	return id, nil
}

// Update merges the given fields into an existing record. Unknown IDs are
// ignored: only the owning orchestrator writes to a task, so a miss means the
// sweep already collected it.
func (r *Registry) Update(taskID string, update harvest.TaskUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[taskID]
	if !ok {
		r.logger.Warn("update for unknown task", zap.String("task_id", taskID))
		return
	}
	if update.Status != nil {
		task.Status = *update.Status
	}
	if update.Progress != nil {
		task.Progress = *update.Progress
	}
	if update.Error != nil {
		task.Error = *update.Error
	}
	if update.FinishedAt != nil {
		finished := *update.FinishedAt
		task.FinishedAt = &finished
	}
	r.tasks[taskID] = task
}

// Get returns a snapshot of a task. Callers never observe partial mutation;
// the returned value is a copy.
func (r *Registry) Get(taskID string) (harvest.Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	task, ok := r.tasks[taskID]
	if !ok {
		return harvest.Task{}, false
	}
	if task.FinishedAt != nil {
		finished := *task.FinishedAt
		task.FinishedAt = &finished
	}
	return task, true
}

// Len reports the number of stored tasks.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}

// Sweep deletes every task that finished before now minus retention and
// returns the number of removed records.
func (r *Registry) Sweep(retention time.Duration) int {
	cutoff := r.clock.Now().Add(-retention)
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, task := range r.tasks {
		if task.FinishedAt != nil && task.FinishedAt.Before(cutoff) {
			delete(r.tasks, id)
			removed++
		}
	}
	return removed
}

// RunSweeper sweeps on every interval tick until ctx finishes. A failing
// cycle is logged and never terminates the loop.
func (r *Registry) RunSweeper(ctx context.Context, interval, retention time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweepOnce(retention)
		}
	}
}

func (r *Registry) sweepOnce(retention time.Duration) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("task sweep panicked", zap.Any("panic", rec))
		}
	}()
	if removed := r.Sweep(retention); removed > 0 {
		r.logger.Info("swept finished tasks", zap.Int("removed", removed))
	}
}
