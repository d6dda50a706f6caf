// Package ledger rolls transactions up against event budgets.
package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/treasurer/internal/models"
)

// UnassignedName labels the bucket for transactions whose event_name matches no event.
const UnassignedName = "(unassigned)"

// EventSummary is the budget position of one event.
type EventSummary struct {
	ID                int64           `json:"id"`
	Name              string          `json:"name"`
	BudgetAllocated   decimal.Decimal `json:"budget_allocated"`
	AmountSpent       decimal.Decimal `json:"amount_spent"`
	TransactionsTotal decimal.Decimal `json:"transactions_total"`
	TransactionCount  int             `json:"transaction_count"`
	Remaining         decimal.Decimal `json:"remaining"`
	OverBudget        bool            `json:"over_budget"`
}

// Summarize computes one summary per event, in input order.
//
// Algorithm:
// - transactions are matched to events by exact name
// - when several events share a name, the first one in the input gets the transactions
// - remaining = budget_allocated - amount_spent - transactions_total
// - unmatched transactions are collected into a trailing UnassignedName entry with ID 0
func Summarize(events []*models.Event, txns []*models.Transaction) []EventSummary {
	summaries := make([]EventSummary, 0, len(events)+1)
	byName := make(map[string]int, len(events))

	for _, e := range events {
		if _, exists := byName[e.Name]; !exists {
			byName[e.Name] = len(summaries)
		}
		summaries = append(summaries, EventSummary{
			ID:              e.ID,
			Name:            e.Name,
			BudgetAllocated: e.BudgetAllocated,
			AmountSpent:     e.AmountSpent,
		})
	}

	var unassigned *EventSummary
	for _, t := range txns {
		var s *EventSummary
		if i, ok := byName[t.EventName]; ok {
			s = &summaries[i]
		} else {
			if unassigned == nil {
				unassigned = &EventSummary{Name: UnassignedName}
			}
			s = unassigned
		}
		s.TransactionsTotal = s.TransactionsTotal.Add(t.Amount)
		s.TransactionCount++
	}
	if unassigned != nil {
		summaries = append(summaries, *unassigned)
	}

	for i := range summaries {
		s := &summaries[i]
		s.Remaining = s.BudgetAllocated.Sub(s.AmountSpent).Sub(s.TransactionsTotal)
		s.OverBudget = s.Remaining.IsNegative()
	}

	return summaries
}
