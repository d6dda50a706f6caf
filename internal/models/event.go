package models

import "github.com/shopspring/decimal"

// Event represents a budgeted club event.
type Event struct {
	// ID is assigned by the store on insert.
	ID int64 `json:"id"`

	// Name identifies the event to humans and to transactions.
	Name string `json:"name"`

	// BudgetAllocated is the amount set aside for the event.
	BudgetAllocated decimal.Decimal `json:"budget_allocated"`

	// AmountSpent is the amount already spent, as entered by an admin.
	AmountSpent decimal.Decimal `json:"amount_spent"`

	// Status is a free-form label such as "planned" or "done".
	Status string `json:"status"`
}
