package stage

import (
	"context"

	"github.com/cradoe/onboard/internal/models"
)

type InvoiceLine struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Invoice struct {
	Lines []InvoiceLine `json:"lines"`
	Plan  struct {
		Title string `json:"title"`
		Price string `json:"price"`
	} `json:"plan"`
	Paid bool `json:"paid"`
}

// InvoiceFor derives the payment summary from the record.
func InvoiceFor(s models.OnboardingState) Invoice {
	kyc := s.UserData.KYC

	inv := Invoice{
		Lines: []InvoiceLine{
			{Label: "Full Name", Value: firstNonEmpty(kyc.Name, s.UserData.Name)},
			{Label: "City", Value: kyc.City},
			{Label: "State", Value: kyc.State},
			{Label: "PAN", Value: kyc.PAN},
			{Label: "Email", Value: s.UserData.Email},
			{Label: "Phone", Value: s.UserData.Mobile},
		},
		Paid: s.Flags.PaymentDone,
	}

	if p := s.UserData.SelectedPlan; p != nil {
		inv.Plan.Title = p.Title
		inv.Plan.Price = p.Price
	} else {
		inv.Plan.Title = "No Plan Selected"
		inv.Plan.Price = "₹0.00"
	}

	return inv
}

func (svc *Service) Invoice(sess *Session) (Invoice, error) {
	s, err := at(sess, models.StepPayment)
	if err != nil {
		return Invoice{}, err
	}
	return InvoiceFor(s), nil
}

// Pay stands in for a payment gateway: it always succeeds, marks the record
// paid and announces it. Paying twice is a no-op.
func (svc *Service) Pay(ctx context.Context, sess *Session) (models.OnboardingState, error) {
	s, err := at(sess, models.StepPayment)
	if err != nil {
		return s, err
	}
	if s.Flags.PaymentDone {
		return s, nil
	}

	s, err = sess.Flow.PersistAt(ctx, models.StepPayment, func(s models.OnboardingState) models.OnboardingState {
		s.Flags.PaymentDone = true
		return s
	})
	if err != nil {
		return s, err
	}

	sess.Flow.Announce(ctx, models.EventPaymentCompleted)
	svc.logger.Info("payment completed", "device", sess.Flow.Device(), "identity", s.CurrentUser)

	return s, nil
}
