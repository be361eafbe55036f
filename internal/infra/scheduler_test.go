package infra

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"myfunds/internal/logger"
	"myfunds/internal/service"
	"myfunds/internal/usecase"
)

type fakeRefresher struct {
	calls int
	err   error
}

func (f *fakeRefresher) RefreshAllFunds(context.Context) (*service.RefreshReport, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &service.RefreshReport{Total: 2, Succeeded: 1, Failed: map[string]string{"x": "boom"}}, nil
}

type fakeExecutor struct{ calls int }

func (f *fakeExecutor) ExecuteFixedInvestments(context.Context) (*usecase.ExecutionReport, error) {
	f.calls++
	return &usecase.ExecutionReport{Due: 1, Executed: 1, Failed: map[string]string{}}, nil
}

func TestSchedulerStartRejectsBadSpec(t *testing.T) {
	s := NewScheduler(&fakeRefresher{}, &fakeExecutor{}, ScheduleSpecs{
		DailyRefresh:  "not a cron",
		PlanExecution: "0 0 15 * * *",
		HourlyRefresh: "0 0 * * * *",
	}, zap.NewNop())

	err := s.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "daily_refresh")
}

func TestSchedulerStartStop(t *testing.T) {
	s := NewScheduler(&fakeRefresher{}, &fakeExecutor{}, ScheduleSpecs{
		DailyRefresh:  "0 30 9 * * *",
		PlanExecution: "0 0 15 * * *",
		HourlyRefresh: "0 0 * * * *",
	}, zap.NewNop())

	require.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 3)
	s.Stop()
}

func TestRunJobAttachesCorrelationFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	funds := &fakeRefresher{}
	s := NewScheduler(funds, &fakeExecutor{}, ScheduleSpecs{}, zap.New(core))

	s.RunJob("hourly_refresh", s.RunRefresh)

	assert.Equal(t, 1, funds.calls)
	done := logs.FilterMessage("fund refresh done").All()
	require.Len(t, done, 1)
	fields := done[0].ContextMap()
	assert.Equal(t, "hourly_refresh", fields["job"])
	assert.NotEmpty(t, fields["run_id"])
	assert.Equal(t, int64(1), fields["failed"])
}

func TestRunRefreshLogsFailure(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	funds := &fakeRefresher{err: errors.New("store down")}
	s := NewScheduler(funds, &fakeExecutor{}, ScheduleSpecs{}, zap.NewNop())

	s.RunRefresh(logger.WithContext(context.Background(), zap.New(core)))

	assert.Equal(t, 1, logs.FilterMessage("fund refresh failed").Len())
}

func TestRunPlans(t *testing.T) {
	plans := &fakeExecutor{}
	s := NewScheduler(&fakeRefresher{}, plans, ScheduleSpecs{}, zap.NewNop())

	s.RunJob("plan_execution", s.RunPlans)
	assert.Equal(t, 1, plans.calls)
}
