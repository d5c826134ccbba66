package models

import "time"

type EventType string

const (
	EventStepChanged      EventType = "step_changed"
	EventPaymentCompleted EventType = "payment_completed"
)

// StepEvent is published whenever a device moves through the flow.
type StepEvent struct {
	Type     EventType     `json:"type"`
	Device   string        `json:"device"`
	Identity string        `json:"identity"`
	From     Step          `json:"from,omitempty"`
	To       Step          `json:"to"`
	Name     string        `json:"name"`
	Email    string        `json:"email"`
	Plan     *SelectedPlan `json:"plan,omitempty"`
	At       time.Time     `json:"at"`
}
