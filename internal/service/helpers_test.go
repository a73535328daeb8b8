package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"daytracker/internal/daywindow"
	"daytracker/internal/model"
	"daytracker/internal/repository"
	"daytracker/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	db        *gorm.DB
	store     *repository.GormStore
	clock     *service.FixedClock
	tasks     *service.TaskService
	templates *service.TemplateService
	owner     uuid.UUID
	category  *model.Category
}

// 2026-03-10 is a Tuesday.
var baseNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	store := repository.NewStore(db)
	clock := &service.FixedClock{T: baseNow}
	tasks := service.NewTaskService(store, clock)
	env := &testEnv{
		db:        db,
		store:     store,
		clock:     clock,
		tasks:     tasks,
		templates: service.NewTemplateService(store, tasks, clock),
		owner:     uuid.New(),
	}
	env.category = env.newCategory(t, env.owner, "Work")
	return env
}

func (e *testEnv) newCategory(t *testing.T, owner uuid.UUID, name string) *model.Category {
	t.Helper()
	c, err := service.NewCategoryService(e.store).Create(context.Background(), owner, service.CategoryInput{Name: name})
	require.NoError(t, err)
	return c
}

func (e *testEnv) newTask(t *testing.T, title string, priority int, date *time.Time) *model.Task {
	t.Helper()
	task, err := e.tasks.Create(context.Background(), e.owner, service.CreateTaskInput{
		Title:      title,
		Priority:   priority,
		CategoryID: e.category.ID,
		Date:       date,
	})
	require.NoError(t, err)
	return task
}

func (e *testEnv) today() daywindow.Window    { return daywindow.Today(e.clock) }
func (e *testEnv) tomorrow() daywindow.Window { return daywindow.Tomorrow(e.clock) }

// inWindow returns every record of the window whatever its state.
func (e *testEnv) inWindow(t *testing.T, w daywindow.Window, title string) []model.Task {
	t.Helper()
	var tasks []model.Task
	require.NoError(t, e.db.
		Where("owner_id = ? AND title = ? AND window_date >= ? AND window_date < ?", e.owner, title, w.Start, w.End).
		Find(&tasks).Error)
	return tasks
}

func (e *testEnv) reload(t *testing.T, id uuid.UUID) *model.Task {
	t.Helper()
	var task model.Task
	require.NoError(t, e.db.First(&task, "id = ?", id).Error)
	return &task
}

func countState(tasks []model.Task, state model.TaskState) int {
	n := 0
	for _, t := range tasks {
		if t.State == state {
			n++
		}
	}
	return n
}

func ptr[T any](v T) *T { return &v }

var errWriteFailed = errors.New("write failed")

// failingStore delegates to a real store but fails the failOn-th
// UpdateFields call on tasks, counted across transactions.
type failingStore struct {
	repository.Store
	failOn int
	calls  *int
}

func newFailingStore(inner repository.Store, failOn int) *failingStore {
	return &failingStore{Store: inner, failOn: failOn, calls: new(int)}
}

func (s *failingStore) Tasks() repository.TaskRepositoryInterface {
	return &failingTasks{TaskRepositoryInterface: s.Store.Tasks(), store: s}
}

func (s *failingStore) Atomic(ctx context.Context, fn func(repository.Store) error) error {
	return s.Store.Atomic(ctx, func(tx repository.Store) error {
		return fn(&failingStore{Store: tx, failOn: s.failOn, calls: s.calls})
	})
}

type failingTasks struct {
	repository.TaskRepositoryInterface
	store *failingStore
}

func (r *failingTasks) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	*r.store.calls++
	if *r.store.calls == r.store.failOn {
		return errWriteFailed
	}
	return r.TaskRepositoryInterface.UpdateFields(ctx, id, fields)
}
