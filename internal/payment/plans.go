// Package payment lists subscription plans and initialises subscriptions
// with the payment backend.
package payment

import (
	"errors"
	"fmt"

	"github.com/Kimberly-ops177/MindVibe-AI/internal/models"
)

// Plan identifiers.
const (
	PlanPremium = "premium"
	PlanAnnual  = "annual"
)

// ErrUnknownPlan is returned for a plan id that is not offered.
var ErrUnknownPlan = errors.New("unknown subscription plan")

var plans = []models.SubscriptionPlan{
	{ID: PlanPremium, Name: "Premium Monthly", Price: "KES 999"},
	{ID: PlanAnnual, Name: "Annual", Price: "KES 9,900"},
}

// Plans returns the offered plans with their button labels.
func Plans() []models.SubscriptionPlan {
	out := make([]models.SubscriptionPlan, len(plans))
	for i, p := range plans {
		p.ButtonLabel = PriceLabel(p.ID)
		out[i] = p
	}
	return out
}

// LookupPlan returns the plan with the given id.
func LookupPlan(id string) (models.SubscriptionPlan, error) {
	for _, p := range Plans() {
		if p.ID == id {
			return p, nil
		}
	}
	return models.SubscriptionPlan{}, fmt.Errorf("%w: %q", ErrUnknownPlan, id)
}

// PriceLabel returns the subscribe button label for a plan id. Any id other
// than premium is shown with the annual price.
func PriceLabel(id string) string {
	if id == PlanPremium {
		return buttonLabel(plans[0].Price)
	}
	return buttonLabel(plans[1].Price)
}

func buttonLabel(price string) string {
	return "Subscribe Now - " + price
}
