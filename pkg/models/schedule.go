package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Trigger types offered by the default Trigger template.
const (
	TriggerTypeManual        = "Manual"
	TriggerTypeSchedule      = "Schedule"
	TriggerTypeWebhook       = "Webhook"
	TriggerTypeEmailReceived = "Email Received"
	TriggerTypeFileUpload    = "File Upload"
)

// TriggerTypes lists the trigger types in display order.
var TriggerTypes = []string{
	TriggerTypeManual,
	TriggerTypeSchedule,
	TriggerTypeWebhook,
	TriggerTypeEmailReceived,
	TriggerTypeFileUpload,
}

// ErrInvalidSchedule is returned when a schedule trigger's condition is not a cron expression.
var ErrInvalidSchedule = errors.New("invalid schedule configuration")

var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Schedule is the parsed condition of a Schedule trigger node.
type Schedule struct {
	// CronExpression uses the standard 5-field format (minute hour day month weekday)
	// or a descriptor such as @daily.
	CronExpression string    `json:"cron_expression"`
	NextDueAt      time.Time `json:"next_due_at"`
}

// ParseSchedule parses expr and computes the first run after ref.
func ParseSchedule(expr string, ref time.Time) (*Schedule, error) {
	if expr == "" {
		return nil, fmt.Errorf("%w: empty cron expression", ErrInvalidSchedule)
	}

	parsed, err := scheduleParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}

	return &Schedule{CronExpression: expr, NextDueAt: parsed.Next(ref.UTC())}, nil
}

// IsDue checks if the schedule is due at the given time.
func (s *Schedule) IsDue(now time.Time) bool {
	return !s.NextDueAt.After(now)
}
