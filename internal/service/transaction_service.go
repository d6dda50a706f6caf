package service

import (
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/mmynk/treasurer/internal/httpx"
	"github.com/mmynk/treasurer/internal/models"
	"github.com/mmynk/treasurer/internal/storage"
)

const (
	msgTransactionAdded = "Transaction added successfully"
	msgTransactionError = "Error adding transaction"
	msgAllFieldsNeeded  = "All fields are required"
	msgInvalidDate      = "Date must be in YYYY-MM-DD format"
)

type createTransactionRequest struct {
	EventName string              `json:"event_name"`
	Amount    decimal.NullDecimal `json:"amount"`
	Date      string              `json:"date"`
}

type createTransactionResponse struct {
	Message       string `json:"message"`
	TransactionID int64  `json:"transactionId"`
}

// TransactionService serves transaction listing and creation.
type TransactionService struct {
	store  storage.TransactionStore
	logger *slog.Logger
}

// NewTransactionService creates a TransactionService backed by store.
func NewTransactionService(store storage.TransactionStore, logger *slog.Logger) *TransactionService {
	return &TransactionService{store: store, logger: logger}
}

// ListTransactions returns every transaction.
func (s *TransactionService) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txns, err := s.store.ListTransactions(r.Context())
	if err != nil {
		internalError(s.logger, w, r, "Error fetching transactions", msgInternal, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, txns)
}

// CreateTransaction inserts a transaction. event_name, amount and date are
// all required; nothing is written otherwise.
func (s *TransactionService) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		badRequest(w, err)
		return
	}
	if req.EventName == "" || !req.Amount.Valid || req.Date == "" {
		httpx.WriteMessage(w, http.StatusBadRequest, msgAllFieldsNeeded)
		return
	}

	if err := models.ValidateAmount(req.Amount.Decimal); err != nil {
		badRequest(w, err)
		return
	}

	date, err := models.NormalizeDate(req.Date)
	if err != nil {
		httpx.WriteMessage(w, http.StatusBadRequest, msgInvalidDate)
		return
	}

	txn := &models.Transaction{
		EventName: req.EventName,
		Amount:    req.Amount.Decimal,
		Date:      date,
	}
	if err := s.store.CreateTransaction(r.Context(), txn); err != nil {
		internalError(s.logger, w, r, "Error adding transaction", msgTransactionError, err)
		return
	}

	s.logger.Info("Transaction created", "transaction_id", txn.ID, "event_name", txn.EventName)
	httpx.WriteJSON(w, http.StatusCreated, createTransactionResponse{
		Message:       msgTransactionAdded,
		TransactionID: txn.ID,
	})
}
