package worker

import (
	"context"

	"github.com/cradoe/onboard/internal/models"
)

// Handle emails the user when they reach the payment stage (a plan summary)
// and when their payment goes through (a welcome note). Other events are
// ignored.
func (wk *Worker) Handle(ctx context.Context, event models.StepEvent) error {
	var template string

	switch {
	case event.Type == models.EventStepChanged && event.To == models.StepPayment:
		template = "plan-summary.tmpl"
	case event.Type == models.EventPaymentCompleted:
		template = "welcome.tmpl"
	default:
		return nil
	}

	if event.Email == "" || event.Plan == nil {
		wk.Logger.Warn("skipping notification without recipient or plan", "type", string(event.Type), "device", event.Device)
		return nil
	}

	data := wk.Helper.NewEmailData()
	data["Name"] = event.Name
	data["Plan"] = event.Plan

	if err := wk.Mailer.Send(ctx, event.Email, data, template); err != nil {
		return err
	}

	wk.Logger.Info("notification sent", "template", template, "identity", event.Identity)
	return nil
}
