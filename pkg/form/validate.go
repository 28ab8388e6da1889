package form

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dukex/flowbuilder/pkg/models"
)

var (
	ErrRequired    = errors.New("value is required")
	ErrOutOfRange  = errors.New("value is out of range")
	ErrNotAnOption = errors.New("value is not one of the options")
)

// Labels of the fields the default Trigger template carries.
const (
	TriggerTypeLabel      = "Trigger Type"
	TriggerConditionLabel = "Trigger Condition"
)

// FieldError is a validation failure of one element.
type FieldError struct {
	ElementID string `json:"elementId"`
	Label     string `json:"label"`
	Message   string `json:"message"`
	Err       error  `json:"-"`
}

func (e FieldError) Error() string {
	if e.Label != "" {
		return e.Label + ": " + e.Message
	}

	return e.ElementID + ": " + e.Message
}

func (e FieldError) Unwrap() error {
	return e.Err
}

func fieldError(el *models.UIElement, err error, detail string) FieldError {
	msg := err.Error()
	if detail != "" {
		msg = detail
	}

	return FieldError{ElementID: el.ID, Label: el.Label, Message: msg, Err: err}
}

// Rule is an additional check run over the visible elements of a node.
type Rule func(node *models.WorkflowNode, visible []*models.UIElement) []FieldError

// Validate checks the values of every visible element: required fields are set,
// numbers respect min and max, and choices are among the options. Elements inside
// inactive follow-ups are ignored. Extra rules run after the built-in checks.
func Validate(node *models.WorkflowNode, rules ...Rule) []FieldError {
	visible := VisibleElements(node)

	var errs []FieldError

	for _, el := range visible {
		if !el.Type.CarriesValue() {
			continue
		}

		value := node.Values[el.ID]

		if models.IsEmpty(value) {
			if el.Required {
				errs = append(errs, fieldError(el, ErrRequired, ""))
			}

			continue
		}

		if err := checkBounds(el, value); err != nil {
			errs = append(errs, *err)
		}

		if err := checkOptions(el, value); err != nil {
			errs = append(errs, *err)
		}
	}

	for _, rule := range rules {
		errs = append(errs, rule(node, visible)...)
	}

	return errs
}

func checkBounds(el *models.UIElement, value models.FieldValue) *FieldError {
	n, ok := value.(models.Number)
	if !ok {
		return nil
	}

	if el.Min != nil && float64(n) < *el.Min {
		fe := fieldError(el, ErrOutOfRange, fmt.Sprintf("must be at least %v", *el.Min))

		return &fe
	}

	if el.Max != nil && float64(n) > *el.Max {
		fe := fieldError(el, ErrOutOfRange, fmt.Sprintf("must be at most %v", *el.Max))

		return &fe
	}

	return nil
}

func checkOptions(el *models.UIElement, value models.FieldValue) *FieldError {
	if !el.Type.HasOptions() || len(el.Options) == 0 {
		return nil
	}

	var chosen []string

	switch v := value.(type) {
	case models.Text:
		chosen = []string{string(v)}
	case models.StringList:
		chosen = v
	default:
		return nil
	}

	for _, c := range chosen {
		if !slices.Contains(el.Options, c) {
			fe := fieldError(el, ErrNotAnOption, fmt.Sprintf("%q is not one of the options", c))

			return &fe
		}
	}

	return nil
}

// ScheduleRule checks that a trigger set to Schedule carries a cron expression as
// its trigger condition.
func ScheduleRule(now func() time.Time) Rule {
	return func(node *models.WorkflowNode, visible []*models.UIElement) []FieldError {
		triggerType := byLabel(visible, TriggerTypeLabel)
		if triggerType == nil || models.String(node.Values[triggerType.ID]) != models.TriggerTypeSchedule {
			return nil
		}

		condition := byLabel(visible, TriggerConditionLabel)
		if condition == nil {
			return nil
		}

		expr := strings.TrimSpace(models.String(node.Values[condition.ID]))
		if _, err := models.ParseSchedule(expr, now()); err != nil {
			return []FieldError{fieldError(condition, models.ErrInvalidSchedule, err.Error())}
		}

		return nil
	}
}

func byLabel(elements []*models.UIElement, label string) *models.UIElement {
	for _, el := range elements {
		if strings.EqualFold(el.Label, label) {
			return el
		}
	}

	return nil
}
