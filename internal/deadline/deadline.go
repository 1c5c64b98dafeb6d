// Package deadline evaluates project end dates against the current time.
//
// Every function takes now explicitly and treats a nil deadline as "no
// deadline set": the absence propagates instead of failing.
package deadline

import (
	"fmt"
	"time"

	"github.com/theirongolddev/pburn/internal/model"
)

const day = 24 * time.Hour

// Thresholds are the day counts at or below which an upcoming deadline is
// escalated.
type Thresholds struct {
	Danger  int
	Warning int
}

// DefaultThresholds returns the stock 2-day / 5-day tiers.
func DefaultThresholds() Thresholds {
	return Thresholds{Danger: 2, Warning: 5}
}

// DaysUntil returns the number of whole days until deadline, rounded up.
// A deadline already passed yields a negative count.
func DaysUntil(deadline *time.Time, now time.Time) *int {
	if deadline == nil {
		return nil
	}
	d := deadline.Sub(now)
	// Integer division truncates toward zero, which is already the ceiling
	// for negative durations.
	days := int(d / day)
	if d%day > 0 {
		days++
	}
	return &days
}

// IsApproaching reports whether deadline lies between today and
// thresholdDays out. Passed deadlines are not approaching.
func IsApproaching(deadline *time.Time, thresholdDays int, now time.Time) bool {
	days := DaysUntil(deadline, now)
	if days == nil {
		return false
	}
	return *days >= 0 && *days <= thresholdDays
}

// IsOverdue reports whether now is strictly after deadline.
func IsOverdue(deadline *time.Time, now time.Time) bool {
	if deadline == nil {
		return false
	}
	return now.After(*deadline)
}

// Classify maps a day count onto a severity tier.
func Classify(days *int, t Thresholds) model.Severity {
	switch {
	case days == nil:
		return model.SeverityInfo
	case *days < 0:
		return model.SeverityDanger
	case *days <= t.Danger:
		return model.SeverityDanger
	case *days <= t.Warning:
		return model.SeverityWarning
	default:
		return model.SeverityInfo
	}
}

// Message renders a day count as alert text.
func Message(days *int) string {
	if days == nil {
		return "No deadline"
	}
	n := *days
	switch {
	case n == 0:
		return "Due today"
	case n == 1:
		return "1 day left"
	case n > 1:
		return fmt.Sprintf("%d days left", n)
	case n == -1:
		return "1 day overdue"
	default:
		return fmt.Sprintf("%d days overdue", -n)
	}
}

// Evaluate computes the full alert for deadline.
func Evaluate(deadline *time.Time, now time.Time, t Thresholds) model.DeadlineAlert {
	days := DaysUntil(deadline, now)
	return model.DeadlineAlert{
		DaysUntilDeadline: days,
		Severity:          Classify(days, t),
		Overdue:           IsOverdue(deadline, now),
		Message:           Message(days),
	}
}
