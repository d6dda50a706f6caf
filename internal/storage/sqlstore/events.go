package sqlstore

import (
	"context"
	"fmt"

	"github.com/mmynk/treasurer/internal/models"
)

// CreateEvent persists a new event to the database.
func (s *Store) CreateEvent(ctx context.Context, event *models.Event) error {
	id, err := s.insert(ctx,
		"INSERT INTO events (name, budget_allocated, amount_spent, status) VALUES (?, ?, ?, ?)",
		event.Name, event.BudgetAllocated, event.AmountSpent, event.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	event.ID = id
	return nil
}

// ListEvents retrieves all events.
func (s *Store) ListEvents(ctx context.Context) ([]*models.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, budget_allocated, amount_spent, status FROM events ORDER BY id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := []*models.Event{}
	for rows.Next() {
		event := &models.Event{}
		if err := rows.Scan(&event.ID, &event.Name, &event.BudgetAllocated, &event.AmountSpent, &event.Status); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}

	return events, nil
}
