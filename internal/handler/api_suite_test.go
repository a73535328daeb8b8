package handler_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"daytracker/internal/handler"
	"daytracker/internal/repository"
	"daytracker/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// APISuite drives the category, template and task routes against real
// services on an in-memory database.
type APISuite struct {
	suite.Suite
	router   *gin.Engine
	clock    *service.FixedClock
	userID   uuid.UUID
	category handler.CategoryResponse
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func (s *APISuite) SetupTest() {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	s.Require().NoError(err)
	s.Require().NoError(repository.Migrate(db))
	sqlDB, err := db.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)
	s.T().Cleanup(func() { _ = sqlDB.Close() })

	store := repository.NewStore(db)
	s.clock = &service.FixedClock{T: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	tasks := service.NewTaskService(store, s.clock)
	templates := service.NewTemplateService(store, tasks, s.clock)

	taskHandler := handler.NewTaskHandler(tasks, service.NewHistoryService(store, s.clock), time.UTC)
	templateHandler := handler.NewTemplateHandler(templates, s.clock)
	categoryHandler := handler.NewCategoryHandler(service.NewCategoryService(store))

	gin.SetMode(gin.TestMode)
	s.router = gin.New()
	s.userID = uuid.New()
	g := s.router.Group("/", withUser(s.userID))
	g.GET("/categories", categoryHandler.GetAll)
	g.POST("/categories", categoryHandler.Create)
	g.DELETE("/categories/:id", categoryHandler.Delete)
	g.GET("/tasks/today", taskHandler.Today)
	g.POST("/tasks", taskHandler.Create)
	g.DELETE("/tasks/:id", taskHandler.Delete)
	g.POST("/tasks/move-to-tomorrow", taskHandler.MoveToTomorrow)
	g.POST("/tasks/:id/move-back", taskHandler.MoveBack)
	g.GET("/templates", templateHandler.GetAll)
	g.POST("/templates", templateHandler.Create)
	g.GET("/templates/stats", templateHandler.Stats)
	g.GET("/templates/:id", templateHandler.GetByID)
	g.PUT("/templates/:id", templateHandler.Update)
	g.DELETE("/templates/:id", templateHandler.Delete)
	g.PATCH("/templates/:id/toggle", templateHandler.Toggle)
	g.POST("/templates/:id/run", templateHandler.Run)
	g.POST("/templates/process-pending", templateHandler.ProcessPending)

	resp := doJSON(s.router, "POST", "/categories", handler.CategoryRequest{Name: "Work", Color: "#0000ff"})
	s.Require().Equal(http.StatusCreated, resp.Code)
	s.Require().NoError(json.Unmarshal(resp.Body.Bytes(), &s.category))
}

func (s *APISuite) decode(body []byte, v interface{}) {
	s.Require().NoError(json.Unmarshal(body, v))
}

func (s *APISuite) TestCategoryConflict() {
	resp := doJSON(s.router, "POST", "/categories", handler.CategoryRequest{Name: "work"})
	s.Equal(http.StatusConflict, resp.Code)

	resp = doJSON(s.router, "POST", "/categories", handler.CategoryRequest{Name: " "})
	s.Equal(http.StatusBadRequest, resp.Code)
}

func (s *APISuite) TestTaskNeedsActiveCategory() {
	resp := doJSON(s.router, "DELETE", "/categories/"+s.category.ID, nil)
	s.Require().Equal(http.StatusOK, resp.Code)

	resp = doJSON(s.router, "POST", "/tasks", handler.CreateTaskRequest{Title: "x", Priority: 1, CategoryID: s.category.ID})
	s.Equal(http.StatusBadRequest, resp.Code)
	s.Contains(resp.Body.String(), "invalid category")
}

func (s *APISuite) TestForwardAndBackLeavesOneTask() {
	resp := doJSON(s.router, "POST", "/tasks", handler.CreateTaskRequest{Title: "Read", Priority: 2, CategoryID: s.category.ID})
	s.Require().Equal(http.StatusCreated, resp.Code)

	resp = doJSON(s.router, "POST", "/tasks/move-to-tomorrow", nil)
	s.Require().Equal(http.StatusOK, resp.Code)
	var moved handler.MoveToTomorrowResponse
	s.decode(resp.Body.Bytes(), &moved)
	s.Require().Len(moved.Created, 1)

	var day handler.DayResponse
	resp = doJSON(s.router, "GET", "/tasks/today", nil)
	s.decode(resp.Body.Bytes(), &day)
	s.Empty(day.TodayTasks)
	s.Len(day.TomorrowTasks, 1)

	resp = doJSON(s.router, "POST", "/tasks/"+moved.Created[0].ID+"/move-back", nil)
	s.Require().Equal(http.StatusOK, resp.Code)

	resp = doJSON(s.router, "GET", "/tasks/today", nil)
	day = handler.DayResponse{}
	s.decode(resp.Body.Bytes(), &day)
	s.Require().Len(day.TodayTasks, 1)
	s.Equal("Read", day.TodayTasks[0].Title)
	s.Empty(day.TomorrowTasks)

	resp = doJSON(s.router, "POST", "/tasks/"+moved.Created[0].ID+"/move-back", nil)
	s.Equal(http.StatusBadRequest, resp.Code)
}

func (s *APISuite) createTemplate() handler.TemplateResponse {
	resp := doJSON(s.router, "POST", "/templates", handler.CreateTemplateRequest{
		Name:         "Morning",
		CategoryID:   s.category.ID,
		TaskTemplate: handler.BlueprintPayload{Title: "Daily Planning", Priority: 2},
		Recurrence:   handler.RecurrencePayload{Type: "daily", Interval: 1, Time: &handler.FireTimePayload{Hour: 5}},
	})
	s.Require().Equal(http.StatusCreated, resp.Code)
	var tpl handler.TemplateResponse
	s.decode(resp.Body.Bytes(), &tpl)
	return tpl
}

func (s *APISuite) TestTemplateLifecycle() {
	tpl := s.createTemplate()
	s.True(tpl.IsActive)
	s.True(tpl.NextRun.Equal(time.Date(2026, 3, 11, 5, 0, 0, 0, time.UTC)))

	resp := doJSON(s.router, "POST", "/templates/"+tpl.ID+"/run", nil)
	s.Require().Equal(http.StatusCreated, resp.Code)
	s.Contains(resp.Body.String(), `"title":"Daily Planning"`)

	resp = doJSON(s.router, "PATCH", "/templates/"+tpl.ID+"/toggle", nil)
	s.Require().Equal(http.StatusOK, resp.Code)
	var toggled handler.TemplateResponse
	s.decode(resp.Body.Bytes(), &toggled)
	s.False(toggled.IsActive)

	resp = doJSON(s.router, "POST", "/templates/"+tpl.ID+"/run", nil)
	s.Equal(http.StatusBadRequest, resp.Code)

	resp = doJSON(s.router, "GET", "/templates/stats", nil)
	s.Require().Equal(http.StatusOK, resp.Code)
	var stats service.TemplateStats
	s.decode(resp.Body.Bytes(), &stats)
	s.Equal(1, stats.Total)
	s.Equal(1, stats.Inactive)
	s.Equal(1, stats.TasksCreated)

	resp = doJSON(s.router, "DELETE", "/templates/"+tpl.ID, nil)
	s.Require().Equal(http.StatusOK, resp.Code)
	resp = doJSON(s.router, "GET", "/templates/"+tpl.ID, nil)
	s.Equal(http.StatusNotFound, resp.Code)
}

func (s *APISuite) TestTemplateValidation() {
	resp := doJSON(s.router, "POST", "/templates", handler.CreateTemplateRequest{
		Name:         "Broken",
		CategoryID:   s.category.ID,
		TaskTemplate: handler.BlueprintPayload{Title: "x"},
		Recurrence:   handler.RecurrencePayload{Type: "yearly"},
	})
	s.Equal(http.StatusBadRequest, resp.Code)
	s.Contains(resp.Body.String(), "unknown recurrence type")
}

func (s *APISuite) TestTemplateWithoutTimeFiresAtFive() {
	resp := doJSON(s.router, "POST", "/templates", handler.CreateTemplateRequest{
		Name:         "Stretch",
		CategoryID:   s.category.ID,
		TaskTemplate: handler.BlueprintPayload{Title: "Stretch"},
		Recurrence:   handler.RecurrencePayload{Type: "daily"},
	})
	s.Require().Equal(http.StatusCreated, resp.Code)

	var tpl handler.TemplateResponse
	s.decode(resp.Body.Bytes(), &tpl)
	s.Require().NotNil(tpl.Recurrence.Time)
	s.Equal(5, tpl.Recurrence.Time.Hour)
	s.Zero(tpl.Recurrence.Time.Minute)
	s.True(tpl.NextRun.Equal(time.Date(2026, 3, 11, 5, 0, 0, 0, time.UTC)))
}

func (s *APISuite) TestProcessPendingWhenDue() {
	tpl := s.createTemplate()

	resp := doJSON(s.router, "POST", "/templates/process-pending", nil)
	s.Require().Equal(http.StatusOK, resp.Code)
	var res service.ProcessResult
	s.decode(resp.Body.Bytes(), &res)
	s.Zero(res.ProcessedCount)

	s.clock.Set(time.Date(2026, 3, 11, 5, 0, 0, 0, time.UTC))
	resp = doJSON(s.router, "POST", "/templates/process-pending", nil)
	s.Require().Equal(http.StatusOK, resp.Code)
	res = service.ProcessResult{}
	s.decode(resp.Body.Bytes(), &res)
	s.Require().Equal(1, res.ProcessedCount)
	s.Equal(service.StatusCreated, res.Results[0].Status)

	resp = doJSON(s.router, "GET", "/templates/"+tpl.ID, nil)
	var after handler.TemplateResponse
	s.decode(resp.Body.Bytes(), &after)
	s.Equal(1, after.CreatedTasksCount)
	s.True(after.NextRun.Equal(time.Date(2026, 3, 12, 5, 0, 0, 0, time.UTC)))
}

func (s *APISuite) TestTemplateUpdateRecurrence() {
	tpl := s.createTemplate()

	resp := doJSON(s.router, "PUT", "/templates/"+tpl.ID, handler.UpdateTemplateRequest{
		Recurrence: &handler.RecurrencePayload{Type: "monthly", DayOfMonth: 31, Time: &handler.FireTimePayload{Hour: 7}},
	})

	s.Require().Equal(http.StatusOK, resp.Code)
	var updated handler.TemplateResponse
	s.decode(resp.Body.Bytes(), &updated)
	s.Equal("monthly", updated.Recurrence.Type)
	s.True(updated.NextRun.Equal(time.Date(2026, 3, 31, 7, 0, 0, 0, time.UTC)))
}
