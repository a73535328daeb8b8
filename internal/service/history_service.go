package service

import (
	"context"
	"math"
	"time"

	"daytracker/internal/daywindow"
	"daytracker/internal/model"
	"daytracker/internal/repository"

	"github.com/google/uuid"
)

const defaultHistoryDays = 30

type CompletedHistory struct {
	Tasks      []model.Task            `json:"tasks"`
	Grouped    map[string][]model.Task `json:"grouped"`
	TotalCount int                     `json:"total_count"`
}

type CompletionStats struct {
	TotalCompleted int         `json:"total_completed"`
	AvgPerDay      float64     `json:"avg_per_day"`
	ByPriority     PriorityMix `json:"by_priority"`
}

type PriorityMix struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// HistoryService reports on completed tasks, grouped by window.
type HistoryService struct {
	tasks repository.TaskRepositoryInterface
	clock Clock
}

func NewHistoryService(store repository.Store, clock Clock) *HistoryService {
	return &HistoryService{tasks: store.Tasks(), clock: clock}
}

// CompletedHistory returns tasks completed during the last days windows,
// today included.
func (s *HistoryService) CompletedHistory(ctx context.Context, ownerID uuid.UUID, days int) (*CompletedHistory, error) {
	tasks, err := s.completed(ctx, ownerID, days)
	if err != nil {
		return nil, err
	}
	grouped := make(map[string][]model.Task)
	for _, t := range tasks {
		key := daywindow.Compute(t.CompletedAt.In(s.clock.Now().Location())).Key()
		grouped[key] = append(grouped[key], t)
	}
	return &CompletedHistory{Tasks: tasks, Grouped: grouped, TotalCount: len(tasks)}, nil
}

func (s *HistoryService) CompletionStats(ctx context.Context, ownerID uuid.UUID, days int) (*CompletionStats, error) {
	if days <= 0 {
		days = defaultHistoryDays
	}
	tasks, err := s.completed(ctx, ownerID, days)
	if err != nil {
		return nil, err
	}
	stats := &CompletionStats{
		TotalCompleted: len(tasks),
		AvgPerDay:      math.Round(float64(len(tasks))/float64(days)*10) / 10,
	}
	for _, t := range tasks {
		switch t.Priority {
		case model.PriorityHigh:
			stats.ByPriority.High++
		case model.PriorityMedium:
			stats.ByPriority.Medium++
		case model.PriorityLow:
			stats.ByPriority.Low++
		}
	}
	return stats, nil
}

func (s *HistoryService) completed(ctx context.Context, ownerID uuid.UUID, days int) ([]model.Task, error) {
	if days <= 0 {
		days = defaultHistoryDays
	}
	since := daywindow.Today(s.clock).Start.Add(-time.Duration(days-1) * daywindow.Length)
	tasks, err := s.tasks.CompletedSince(ctx, ownerID, since)
	if err != nil {
		return nil, storage("list completed tasks", err)
	}
	return tasks, nil
}
