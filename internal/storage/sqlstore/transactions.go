package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/mmynk/treasurer/internal/models"
)

// CreateTransaction persists a new transaction to the database.
func (s *Store) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	id, err := s.insert(ctx,
		"INSERT INTO transactions (event_name, amount, date) VALUES (?, ?, ?)",
		txn.EventName, txn.Amount, txn.Date,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	txn.ID = id
	return nil
}

// ListTransactions retrieves all transactions.
func (s *Store) ListTransactions(ctx context.Context) ([]*models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, event_name, amount, date FROM transactions ORDER BY id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	txns := []*models.Transaction{}
	for rows.Next() {
		txn := &models.Transaction{}
		var date dateColumn
		if err := rows.Scan(&txn.ID, &txn.EventName, &txn.Amount, &date); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txn.Date = string(date)
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return txns, nil
}

// dateColumn scans DATE columns regardless of whether the driver hands back
// time.Time (pgx, mysql with parseTime) or raw text (sqlite, mysql).
type dateColumn string

func (d *dateColumn) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = dateColumn(v.Format(models.DateLayout))
	case string:
		*d = dateColumn(v)
	case []byte:
		*d = dateColumn(v)
	case nil:
		*d = ""
	default:
		return fmt.Errorf("unsupported date type %T", src)
	}
	return nil
}
