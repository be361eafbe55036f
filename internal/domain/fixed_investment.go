package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FixedInvestment is a recurring purchase plan
type FixedInvestment struct {
	ID                uuid.UUID `json:"id"`
	UserID            uuid.UUID `json:"user_id"`
	FundID            uuid.UUID `json:"fund_id"`
	FundCode          string    `json:"fund_code"`
	Amount            float64   `json:"amount"`
	Frequency         string    `json:"frequency"`
	StartDate         time.Time `json:"start_date"`
	NextExecutionDate time.Time `json:"next_execution_date"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Frequency constants
const (
	FrequencyDaily   = "DAILY"
	FrequencyWeekly  = "WEEKLY"
	FrequencyMonthly = "MONTHLY"
)

// PlanStatus constants
const (
	PlanActive  = "ACTIVE"
	PlanPaused  = "PAUSED"
	PlanStopped = "STOPPED"
)

// NormalizeFrequency upper-cases and trims a frequency value.
// Unknown values are kept as-is; NextExecutionDate treats them as daily.
func NormalizeFrequency(frequency string) string {
	return strings.ToUpper(strings.TrimSpace(frequency))
}

// NextExecutionDate advances from by one frequency period using calendar arithmetic.
// Unrecognized frequencies advance by one day.
func NextExecutionDate(from time.Time, frequency string) time.Time {
	switch NormalizeFrequency(frequency) {
	case FrequencyWeekly:
		return from.AddDate(0, 0, 7)
	case FrequencyMonthly:
		return addMonth(from)
	default:
		return from.AddDate(0, 0, 1)
	}
}

// IsDue reports whether the plan should run at now
func (p *FixedInvestment) IsDue(now time.Time) bool {
	return p.Status == PlanActive && !p.NextExecutionDate.After(now)
}

// Pause moves an ACTIVE plan to PAUSED
func (p *FixedInvestment) Pause() error {
	if p.Status != PlanActive {
		return fmt.Errorf("%w: cannot pause plan in status %s", ErrInvalidInput, p.Status)
	}
	p.Status = PlanPaused
	return nil
}

// Resume reactivates a PAUSED plan. The schedule restarts from now.
func (p *FixedInvestment) Resume(now time.Time) error {
	if p.Status != PlanPaused {
		return fmt.Errorf("%w: cannot resume plan in status %s", ErrInvalidInput, p.Status)
	}
	p.Status = PlanActive
	p.NextExecutionDate = NextExecutionDate(now, p.Frequency)
	return nil
}

// Stop terminates the plan. STOPPED is terminal.
func (p *FixedInvestment) Stop() error {
	if p.Status == PlanStopped {
		return fmt.Errorf("%w: plan already stopped", ErrInvalidInput)
	}
	p.Status = PlanStopped
	return nil
}

// Advance moves the schedule one period past the previous due date
func (p *FixedInvestment) Advance() {
	p.NextExecutionDate = NextExecutionDate(p.NextExecutionDate, p.Frequency)
}

// addMonth adds one calendar month, clamping to the last day of the target month
// (Jan 31 -> Feb 29 in a leap year) instead of overflowing into the next month.
func addMonth(t time.Time) time.Time {
	y, m, d := t.Date()
	lastDay := time.Date(y, m+2, 0, 0, 0, 0, 0, t.Location()).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(y, m+1, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
