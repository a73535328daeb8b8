package scheduler

import (
	"context"
	"errors"
	"time"

	"daytracker/internal/daywindow"
	"daytracker/internal/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const jobTimeout = time.Minute

type TemplateProcessor interface {
	DueOwners(ctx context.Context, now time.Time) ([]uuid.UUID, error)
	ProcessPending(ctx context.Context, ownerID uuid.UUID, now time.Time) (*service.ProcessResult, error)
}

type TaskRoller interface {
	OwnersWithOpenTasks(ctx context.Context, w daywindow.Window) ([]uuid.UUID, error)
	MoveForward(ctx context.Context, ownerID uuid.UUID, w daywindow.Window) (*service.MoveForwardResult, error)
}

var (
	_ TemplateProcessor = (*service.TemplateService)(nil)
	_ TaskRoller        = (*service.TaskService)(nil)
)

// Jobs are the background passes over every owner.
type Jobs struct {
	templates TemplateProcessor
	tasks     TaskRoller
	clock     service.Clock
}

func NewJobs(templates TemplateProcessor, tasks TaskRoller, clock service.Clock) *Jobs {
	return &Jobs{templates: templates, tasks: tasks, clock: clock}
}

// Summary counts what one pass did.
type Summary struct {
	Owners    int
	Processed int
	Failed    int
}

// ProcessPending fires every due template of every owner.
func (j *Jobs) ProcessPending(ctx context.Context) (Summary, error) {
	now := j.clock.Now()
	owners, err := j.templates.DueOwners(ctx, now)
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{Owners: len(owners)}
	for _, owner := range owners {
		res, err := j.templates.ProcessPending(ctx, owner, now)
		if err != nil {
			zap.L().Error("process pending failed", zap.String("owner_id", owner.String()), zap.Error(err))
			sum.Failed++
			continue
		}
		sum.Processed += res.ProcessedCount
		for _, r := range res.Results {
			if r.Status == service.StatusError {
				sum.Failed++
			}
		}
	}
	return sum, nil
}

// Rollover carries unfinished tasks of the window that just ended into the
// current one for every owner.
func (j *Jobs) Rollover(ctx context.Context) (Summary, error) {
	ended := daywindow.Today(j.clock).Prev()
	owners, err := j.tasks.OwnersWithOpenTasks(ctx, ended)
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{Owners: len(owners)}
	for _, owner := range owners {
		res, err := j.tasks.MoveForward(ctx, owner, ended)
		if err != nil {
			zap.L().Error("rollover failed", zap.String("owner_id", owner.String()), zap.Error(err))
			sum.Failed++
			continue
		}
		sum.Processed += len(res.MovedTaskIDs)
		sum.Failed += len(res.Results) - len(res.MovedTaskIDs)
	}
	return sum, nil
}

// Register installs the template pass every interval and, when rollover is
// set, the daily rollover at the window boundary.
func (j *Jobs) Register(s *Scheduler, interval time.Duration, rollover bool) error {
	if _, err := s.ScheduleInterval(interval, j.wrap("process pending", j.ProcessPending)); err != nil {
		return err
	}
	if rollover {
		if _, err := s.ScheduleDaily(daywindow.BoundaryHour, 0, j.wrap("rollover", j.Rollover)); err != nil {
			return err
		}
	}
	return nil
}

func (j *Jobs) wrap(name string, run func(context.Context) (Summary, error)) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		sum, err := run(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			zap.L().Error(name+" job failed", zap.Error(err))
			return
		}
		if sum.Owners > 0 {
			zap.L().Info(name+" job done",
				zap.Int("owners", sum.Owners),
				zap.Int("processed", sum.Processed),
				zap.Int("failed", sum.Failed),
			)
		}
	}
}
