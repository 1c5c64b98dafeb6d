package model

// Severity is the urgency tier of a deadline alert.
type Severity string

// Deadline severities.
const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

// DeadlineAlert is the derived deadline state of one project.
// DaysUntilDeadline is nil when the project has no end date.
type DeadlineAlert struct {
	DaysUntilDeadline *int     `json:"days_until_deadline"`
	Severity          Severity `json:"severity"`
	Overdue           bool     `json:"overdue"`
	Message           string   `json:"message"`
}
