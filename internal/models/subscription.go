package models

// SubscriptionRequest is the body sent to the payment backend.
type SubscriptionRequest struct {
	Email string `json:"email"`
	Plan  string `json:"plan"`
}

// SubscriptionResponse is the payment backend's answer.
type SubscriptionResponse struct {
	PaymentURL string `json:"payment_url"`
}

// SubscriptionPlan describes a plan offered on the payment page.
type SubscriptionPlan struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Price       string `json:"price"`
	ButtonLabel string `json:"button_label"`
}
