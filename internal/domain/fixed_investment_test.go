package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextExecutionDate(t *testing.T) {
	base := time.Date(2024, 1, 15, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		frequency string
		want      time.Time
	}{
		{"daily", FrequencyDaily, time.Date(2024, 1, 16, 15, 0, 0, 0, time.UTC)},
		{"weekly", FrequencyWeekly, time.Date(2024, 1, 22, 15, 0, 0, 0, time.UTC)},
		{"monthly uses calendar months", FrequencyMonthly, time.Date(2024, 2, 15, 15, 0, 0, 0, time.UTC)},
		{"lower case is accepted", "monthly", time.Date(2024, 2, 15, 15, 0, 0, 0, time.UTC)},
		{"unknown falls back to daily", "FORTNIGHTLY", time.Date(2024, 1, 16, 15, 0, 0, 0, time.UTC)},
		{"empty falls back to daily", "", time.Date(2024, 1, 16, 15, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextExecutionDate(base, tt.frequency))
		})
	}
}

func TestNextExecutionDate_MonthEndClamps(t *testing.T) {
	jan31 := time.Date(2024, 1, 31, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 2, 29, 15, 0, 0, 0, time.UTC), NextExecutionDate(jan31, FrequencyMonthly))

	dec31 := time.Date(2023, 12, 31, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 1, 31, 15, 0, 0, 0, time.UTC), NextExecutionDate(dec31, FrequencyMonthly))
}

func TestFixedInvestment_Lifecycle(t *testing.T) {
	anchor := time.Date(2024, 1, 15, 15, 0, 0, 0, time.UTC)
	now := time.Date(2024, 3, 3, 10, 0, 0, 0, time.UTC)

	plan := &FixedInvestment{Frequency: FrequencyMonthly, Status: PlanActive, NextExecutionDate: anchor}

	require.NoError(t, plan.Pause())
	assert.Equal(t, PlanPaused, plan.Status)
	assert.True(t, errors.Is(plan.Pause(), ErrInvalidInput))

	require.NoError(t, plan.Resume(now))
	assert.Equal(t, PlanActive, plan.Status)
	assert.Equal(t, time.Date(2024, 4, 3, 10, 0, 0, 0, time.UTC), plan.NextExecutionDate)
	assert.True(t, errors.Is(plan.Resume(now), ErrInvalidInput))

	require.NoError(t, plan.Stop())
	assert.Equal(t, PlanStopped, plan.Status)
	assert.True(t, errors.Is(plan.Stop(), ErrInvalidInput))
	assert.True(t, errors.Is(plan.Pause(), ErrInvalidInput))
	assert.True(t, errors.Is(plan.Resume(now), ErrInvalidInput))
}

func TestFixedInvestment_AdvanceFromPreviousDueDate(t *testing.T) {
	plan := &FixedInvestment{
		Frequency:         FrequencyMonthly,
		Status:            PlanActive,
		NextExecutionDate: time.Date(2024, 1, 15, 15, 0, 0, 0, time.UTC),
	}
	now := time.Date(2024, 1, 20, 9, 0, 0, 0, time.UTC)

	assert.True(t, plan.IsDue(now))
	plan.Advance()
	assert.Equal(t, time.Date(2024, 2, 15, 15, 0, 0, 0, time.UTC), plan.NextExecutionDate)
	assert.False(t, plan.IsDue(now))
}

func TestUserFund_Revalue(t *testing.T) {
	p := &UserFund{TotalShares: 100, TotalCost: 200}
	p.Revalue(2.5)
	assert.InDelta(t, 250.0, p.CurrentValue, 1e-9)
	assert.InDelta(t, 50.0, p.ProfitLoss, 1e-9)
	assert.InDelta(t, 25.0, p.ProfitLossRatio, 1e-9)

	zero := &UserFund{TotalShares: 10, TotalCost: 0}
	zero.Revalue(1)
	assert.Equal(t, 0.0, zero.ProfitLossRatio)
}
