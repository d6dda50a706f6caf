// Package models defines the core domain models for the treasurer API.
//
// # Models
//
//   - User: a registered account with a role that gates privileged writes
//   - Event: a budgeted club event
//   - Transaction: a dated amount recorded against an event by name
//
// Money fields use decimal.Decimal so that amounts round-trip through the
// store without float rounding. In JSON they are rendered as quoted decimal
// strings, e.g. "125.50".
//
// # Relationships
//
// Transaction.EventName is free text. It is matched against Event.Name when
// building summaries, but the store does not enforce the link.
package models
