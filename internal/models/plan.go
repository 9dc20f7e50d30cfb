package models

import "time"

const PlanActive = "active"

// Plan is a time-boxed entitlement bought by a user.
type Plan struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Status    string    `json:"status"`
	PaymentID string    `json:"payment_id"`
}

// ActiveAt reports whether the plan still grants access at t.
func (p Plan) ActiveAt(t time.Time) bool {
	return p.Status == PlanActive && !p.EndDate.Before(t)
}
