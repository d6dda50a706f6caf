package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the canonical format of Transaction.Date.
const DateLayout = "2006-01-02"

// Transaction represents money moving for an event.
type Transaction struct {
	// ID is assigned by the store on insert.
	ID int64 `json:"id"`

	// EventName references Event.Name. Not enforced by the store.
	EventName string `json:"event_name"`

	// Amount is the transaction value.
	Amount decimal.Decimal `json:"amount"`

	// Date is the calendar day of the transaction in DateLayout format.
	Date string `json:"date"`
}

// NormalizeDate accepts either a plain date or an RFC 3339 timestamp and
// returns the calendar day in DateLayout.
func NormalizeDate(s string) (string, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t.Format(DateLayout), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Format(DateLayout), nil
	}
	return "", fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
}
