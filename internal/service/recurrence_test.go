package service_test

import (
	"testing"
	"time"

	"daytracker/internal/model"
	"daytracker/internal/service"

	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func at(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

func recurring(r model.Recurrence) *model.Template {
	return &model.Template{Recurrence: r}
}

func TestCalculateNextRun(t *testing.T) {
	fiveAM := model.FireTime{Hour: 5}

	cases := []struct {
		name string
		rec  model.Recurrence
		now  time.Time
		want time.Time
	}{
		{
			name: "daily after fire time goes to tomorrow",
			rec:  model.Recurrence{Type: model.RecurDaily, Interval: 1, Time: fiveAM},
			now:  at(2026, 3, 10, 5, 30),
			want: at(2026, 3, 11, 5, 0),
		},
		{
			name: "daily before fire time stays today",
			rec:  model.Recurrence{Type: model.RecurDaily, Interval: 1, Time: fiveAM},
			now:  at(2026, 3, 10, 4, 30),
			want: at(2026, 3, 10, 5, 0),
		},
		{
			name: "daily exactly at fire time is not in the future",
			rec:  model.Recurrence{Type: model.RecurDaily, Interval: 1, Time: fiveAM},
			now:  at(2026, 3, 10, 5, 0),
			want: at(2026, 3, 11, 5, 0),
		},
		{
			name: "daily interval three",
			rec:  model.Recurrence{Type: model.RecurDaily, Interval: 3, Time: model.FireTime{Hour: 8, Minute: 15}},
			now:  at(2026, 3, 10, 9, 0),
			want: at(2026, 3, 13, 8, 15),
		},
		{
			name: "custom behaves like daily",
			rec:  model.Recurrence{Type: model.RecurCustom, Interval: 2, Time: fiveAM},
			now:  at(2026, 3, 10, 6, 0),
			want: at(2026, 3, 12, 5, 0),
		},
		{
			name: "weekly monday from wednesday",
			rec:  model.Recurrence{Type: model.RecurWeekly, Interval: 1, DaysOfWeek: datatypes.JSONSlice[int]{1}, Time: fiveAM},
			now:  at(2026, 3, 11, 9, 0),
			want: at(2026, 3, 16, 5, 0),
		},
		{
			name: "weekly defaults to monday",
			rec:  model.Recurrence{Type: model.RecurWeekly, Interval: 1, Time: fiveAM},
			now:  at(2026, 3, 11, 9, 0),
			want: at(2026, 3, 16, 5, 0),
		},
		{
			name: "weekly later the same day",
			rec:  model.Recurrence{Type: model.RecurWeekly, Interval: 1, DaysOfWeek: datatypes.JSONSlice[int]{2, 4}, Time: model.FireTime{Hour: 18}},
			now:  at(2026, 3, 10, 9, 0),
			want: at(2026, 3, 10, 18, 0),
		},
		{
			name: "weekly picks nearest listed day",
			rec:  model.Recurrence{Type: model.RecurWeekly, Interval: 1, DaysOfWeek: datatypes.JSONSlice[int]{5, 0}, Time: fiveAM},
			now:  at(2026, 3, 10, 9, 0),
			want: at(2026, 3, 13, 5, 0),
		},
		{
			name: "monthly later this month",
			rec:  model.Recurrence{Type: model.RecurMonthly, Interval: 1, DayOfMonth: 20, Time: fiveAM},
			now:  at(2026, 3, 10, 9, 0),
			want: at(2026, 3, 20, 5, 0),
		},
		{
			name: "monthly already passed advances by interval",
			rec:  model.Recurrence{Type: model.RecurMonthly, Interval: 2, DayOfMonth: 1, Time: fiveAM},
			now:  at(2026, 3, 10, 9, 0),
			want: at(2026, 5, 1, 5, 0),
		},
		{
			name: "monthly clamps to last day",
			rec:  model.Recurrence{Type: model.RecurMonthly, Interval: 1, DayOfMonth: 31, Time: fiveAM},
			now:  at(2026, 1, 31, 9, 0),
			want: at(2026, 2, 28, 5, 0),
		},
		{
			name: "monthly clamps in a leap year",
			rec:  model.Recurrence{Type: model.RecurMonthly, Interval: 1, DayOfMonth: 30, Time: fiveAM},
			now:  at(2028, 2, 3, 9, 0),
			want: at(2028, 2, 29, 5, 0),
		},
		{
			name: "monthly rolls over the year",
			rec:  model.Recurrence{Type: model.RecurMonthly, Interval: 1, DayOfMonth: 5, Time: fiveAM},
			now:  at(2026, 12, 20, 9, 0),
			want: at(2027, 1, 5, 5, 0),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := service.CalculateNextRun(recurring(tc.rec), tc.now)
			assert.True(t, got.Equal(tc.want), "got %s, want %s", got, tc.want)
			assert.True(t, got.After(tc.now))
		})
	}
}

func TestCalculateNextRun_DoesNotMutateTemplate(t *testing.T) {
	tpl := recurring(model.Recurrence{Type: model.RecurDaily, Interval: 1})
	before := *tpl

	service.CalculateNextRun(tpl, at(2026, 3, 10, 9, 0))

	assert.Equal(t, before, *tpl)
	assert.True(t, tpl.NextRun.IsZero())
}
