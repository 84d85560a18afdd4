// Package notify publishes row-appended events to interested consumers.
package notify

import (
	"context"
	"fmt"
	"sync"
)

// RowEvent describes one row appended to the spreadsheet.
type RowEvent struct {
	TaskID      string `json:"task_id"`
	Link        string `json:"link"`
	Title       string `json:"title"`
	CompanyName string `json:"company_name"`
	Country     string `json:"country"`
	Job         string `json:"job"`
}

// Publisher delivers row events. Failures are advisory; the orchestrator
// logs them and keeps going.
type Publisher interface {
	Publish(ctx context.Context, event RowEvent) (string, error)
}

// NoOp drops every event.
type NoOp struct{}

// Publish discards the event.
func (NoOp) Publish(_ context.Context, _ RowEvent) (string, error) {
	return "", nil
}

// Memory stores published events for inspection in tests and local runs.
type Memory struct {
	mu     sync.RWMutex
	events []RowEvent
}

// NewMemory returns a Memory publisher.
func NewMemory() *Memory {
	return &Memory{}
}

// Publish records the event and returns a pseudo ID.
func (m *Memory) Publish(_ context.Context, event RowEvent) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return fmt.Sprintf("memory-%d", len(m.events)), nil
}

// Events returns the recorded publishes.
func (m *Memory) Events() []RowEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]RowEvent, len(m.events))
	copy(out, m.events)
	return out
}
