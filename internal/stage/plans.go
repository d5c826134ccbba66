package stage

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/cradoe/onboard/internal/flow"
	"github.com/cradoe/onboard/internal/models"
)

const (
	PlanStandard    = "standard"
	PlanExclusive   = "exclusive"
	PlanRebalancing = "rebalancing"

	// RebalancingThreshold is ₹50,00,000 of portfolio value.
	RebalancingThreshold = 5000000
)

var ErrInvalidAmount = errors.New("amount must be a non-negative number")

type Plan struct {
	Key         string   `json:"key"`
	Title       string   `json:"title"`
	Subtitle    string   `json:"subtitle"`
	Price       string   `json:"price"`
	Details     string   `json:"details"`
	Features    []string `json:"features"`
	Recommended bool     `json:"recommended"`
}

var Plans = []Plan{
	{
		Key:      PlanStandard,
		Title:    "Comprehensive Planning",
		Subtitle: "A complete financial roadmap for individuals and families.",
		Price:    "₹34,999",
		Details:  "One-time fee",
		Features: []string{
			"Financial Health Check",
			"Goal-Based Financial Planning",
			"Risk Management Planning",
			"Investment Planning",
			"Retirement & Pension Planning",
			"Debt & Credit Advisory",
		},
	},
	{
		Key:      PlanExclusive,
		Title:    "Exclusive Wealth Management",
		Subtitle: "Bespoke strategies for high-net-worth clients.",
		Price:    "Customized",
		Details:  "Preferred for > ₹1 Cr Net Worth",
		Features: []string{
			"Includes all Comprehensive services, plus:",
			"Strategic Wealth Structuring",
			"Tactical Capital Growth & Investment",
			"Global Diversification & Offshore Planning",
			"Advanced Tax Planning & Exit Strategy",
			"Legacy & Succession Planning",
			"Alternative & Private Market Advisory",
			"Lifestyle, Concierge & Philanthropy",
		},
		Recommended: true,
	},
	{
		Key:      PlanRebalancing,
		Title:    "Portfolio Rebalancing",
		Subtitle: "A one-time service to align your portfolio.",
		Price:    "₹14,999 / ₹24,999",
		Details:  "For Portfolio Value up to ₹50L / above ₹50L",
		Features: []string{
			"What's Included:",
			"In-depth Portfolio Analysis & Risk Profiling",
			"Intrinsic Value Analysis (DCF Modeling)",
			"Asset Allocation using Modern Portfolio Theory (MPT)",
			"Portfolio Optimization & Gap Analysis",
			"Actionable Rebalancing Report",
			"Execution Guidance & Support",
		},
	},
}

func FindPlan(key string) (Plan, bool) {
	for _, p := range Plans {
		if p.Key == key {
			return p, true
		}
	}
	return Plan{}, false
}

// PlanChoice is a selection. PortfolioValue prices the rebalancing plan; AUM
// is shown alongside the exclusive plan and never affects its price.
type PlanChoice struct {
	Key            string `json:"key"`
	PortfolioValue string `json:"portfolioValue"`
	AUM            string `json:"aum"`
}

// ParseAmount reads a rupee amount typed with optional commas and spaces.
func ParseAmount(raw string) (float64, error) {
	cleaned := strings.NewReplacer(",", "", " ", "").Replace(raw)
	if cleaned == "" {
		return 0, ErrInvalidAmount
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// RebalancingTier prices the rebalancing plan for a portfolio value.
func RebalancingTier(value float64) models.SelectedPlan {
	plan := models.SelectedPlan{Key: PlanRebalancing, Title: "Portfolio Rebalancing"}
	if value <= RebalancingThreshold {
		plan.Price = "₹14,999"
		plan.Details = "For Portfolio Value up to ₹50L"
	} else {
		plan.Price = "₹24,999"
		plan.Details = "For Portfolio Value above ₹50L"
	}
	return plan
}

// Selection normalises a choice into the summary stored on the record.
func Selection(choice PlanChoice) (models.SelectedPlan, error) {
	switch choice.Key {
	case PlanStandard:
		p, _ := FindPlan(PlanStandard)
		return models.SelectedPlan{Key: p.Key, Title: p.Title, Price: p.Price, Details: p.Details}, nil

	case PlanRebalancing:
		value, err := ParseAmount(choice.PortfolioValue)
		if err != nil {
			return models.SelectedPlan{}, &flow.ValidationError{Fields: map[string]string{"portfolioValue": "Enter a valid portfolio value"}}
		}
		return RebalancingTier(value), nil

	case PlanExclusive:
		if strings.TrimSpace(choice.AUM) != "" {
			if _, err := ParseAmount(choice.AUM); err != nil {
				return models.SelectedPlan{}, &flow.ValidationError{Fields: map[string]string{"aum": "Enter a valid AUM"}}
			}
		}
		return models.SelectedPlan{
			Key:     PlanExclusive,
			Title:   "Exclusive Wealth Management",
			Price:   "AUM Based",
			Details: "1.5% Annually (+ ₹99,999 Upfront)",
		}, nil

	default:
		return models.SelectedPlan{}, &flow.ValidationError{Fields: map[string]string{"key": "Select a plan"}}
	}
}

type PlansView struct {
	Plans    []Plan               `json:"plans"`
	Selected *models.SelectedPlan `json:"selected"`
}

func (svc *Service) Plans(sess *Session) (PlansView, error) {
	s, err := at(sess, models.StepPlan)
	if err != nil {
		return PlansView{}, err
	}
	return PlansView{Plans: Plans, Selected: s.UserData.SelectedPlan}, nil
}

func (svc *Service) SelectPlan(ctx context.Context, sess *Session, choice PlanChoice) (models.OnboardingState, error) {
	s, err := at(sess, models.StepPlan)
	if err != nil {
		return s, err
	}

	selected, err := Selection(choice)
	if err != nil {
		return s, err
	}

	return sess.Flow.PersistAt(ctx, models.StepPlan, func(s models.OnboardingState) models.OnboardingState {
		s.UserData.SelectedPlan = &selected
		return s
	})
}

func (svc *Service) FinishPlans(ctx context.Context, sess *Session) (models.OnboardingState, error) {
	if err := sess.Flow.Advance(ctx, models.StepSign); err != nil {
		return sess.Flow.State(), err
	}
	return sess.Flow.State(), nil
}
