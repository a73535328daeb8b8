package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"daytracker/internal/daywindow"
	"daytracker/internal/model"
	"daytracker/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestTaskRepository_GetByID_NotFound(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	repo := repository.NewTaskRepository(gormDB)

	mock.ExpectQuery(`SELECT \* FROM "tasks" WHERE owner_id = .* AND id = .*`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	// Act
	task, err := repo.GetByID(context.Background(), uuid.New(), uuid.New())

	// Assert
	assert.ErrorIs(t, err, repository.ErrTaskNotFound)
	assert.Nil(t, task)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_Find_PreloadsCategory(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	repo := repository.NewTaskRepository(gormDB)

	ownerID := uuid.New()
	categoryID := uuid.New()
	taskID := uuid.New()
	w := daywindow.Compute(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))

	mock.ExpectQuery(`SELECT \* FROM "tasks" WHERE owner_id = .*window_date >= .*window_date < .*state IN .*ORDER BY priority`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "category_id", "title", "priority", "window_date", "state"}).
			AddRow(taskID.String(), ownerID.String(), categoryID.String(), "Write report", 1, w.Start, "active"))
	mock.ExpectQuery(`SELECT \* FROM "categories" WHERE "categories"."id" = `).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "name", "is_active"}).
			AddRow(categoryID.String(), ownerID.String(), "Work", true))

	// Act
	tasks, err := repo.Find(context.Background(), repository.TaskQuery{
		OwnerID: ownerID,
		Window:  &w,
		States:  []model.TaskState{model.TaskActive},
	})

	// Assert
	assert.NoError(t, err)
	assert.Len(t, tasks, 1)
	assert.Equal(t, taskID, tasks[0].ID)
	assert.Equal(t, model.TaskActive, tasks[0].State)
	assert.Equal(t, "Work", tasks[0].Category.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_FindOne_NoMatch(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	repo := repository.NewTaskRepository(gormDB)

	mock.ExpectQuery(`SELECT \* FROM "tasks" WHERE owner_id = .* AND LOWER\(title\) = LOWER\(.*\)`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	// Act
	task, err := repo.FindOne(context.Background(), repository.TaskQuery{
		OwnerID:   uuid.New(),
		Title:     "Buy milk",
		TitleFold: true,
	})

	// Assert
	assert.NoError(t, err)
	assert.Nil(t, task)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_UpdateFields(t *testing.T) {
	t.Run("updated", func(t *testing.T) {
		gormDB, mock := setupMockDB(t)
		repo := repository.NewTaskRepository(gormDB)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "tasks" SET .*"priority"=.* WHERE id = `).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.UpdateFields(context.Background(), uuid.New(), map[string]interface{}{"priority": 2})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		gormDB, mock := setupMockDB(t)
		repo := repository.NewTaskRepository(gormDB)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "tasks" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		err := repo.UpdateFields(context.Background(), uuid.New(), map[string]interface{}{"priority": 2})

		assert.ErrorIs(t, err, repository.ErrTaskNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTaskRepository_DeleteMatching(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	repo := repository.NewTaskRepository(gormDB)
	categoryID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "tasks" WHERE owner_id = .* AND title = .* AND category_id = .* AND state IN`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	// Act
	n, err := repo.DeleteMatching(context.Background(), repository.TaskQuery{
		OwnerID:    uuid.New(),
		Title:      "Read",
		CategoryID: &categoryID,
		States:     []model.TaskState{model.TaskMoved},
	})

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_Delete_NotFound(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	repo := repository.NewTaskRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "tasks" WHERE id = `).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	// Act
	err := repo.Delete(context.Background(), uuid.New())

	// Assert
	assert.ErrorIs(t, err, repository.ErrTaskNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Atomic_RollsBackOnError(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	store := repository.NewStore(gormDB)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "tasks" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	// Act
	err := store.Atomic(context.Background(), func(st repository.Store) error {
		if err := st.Tasks().UpdateFields(context.Background(), uuid.New(), map[string]interface{}{"state": model.TaskMoved}); err != nil {
			return err
		}
		return boom
	})

	// Assert
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Atomic_Commits(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	store := repository.NewStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "templates" WHERE owner_id = .* AND id = `).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// Act
	err := store.Atomic(context.Background(), func(st repository.Store) error {
		return st.Templates().Delete(context.Background(), uuid.New(), uuid.New())
	})

	// Assert
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
