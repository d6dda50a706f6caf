package service

import (
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/mmynk/treasurer/internal/httpx"
	"github.com/mmynk/treasurer/internal/ledger"
	"github.com/mmynk/treasurer/internal/models"
	"github.com/mmynk/treasurer/internal/storage"
)

const (
	msgEventAdded      = "Event added successfully"
	msgEventError      = "Error adding event"
	msgEventNameNeeded = "Event name is required"
)

type createEventRequest struct {
	Name            string              `json:"name"`
	BudgetAllocated decimal.NullDecimal `json:"budget_allocated"`
	AmountSpent     decimal.NullDecimal `json:"amount_spent"`
	Status          string              `json:"status"`
}

type createEventResponse struct {
	Message string `json:"message"`
	EventID int64  `json:"eventId"`
}

// eventReader is what the summary needs from the store.
type eventReader interface {
	storage.EventStore
	storage.TransactionStore
}

// EventService serves event listing, creation and budget summaries.
type EventService struct {
	store  eventReader
	logger *slog.Logger
}

// NewEventService creates an EventService backed by store.
func NewEventService(store eventReader, logger *slog.Logger) *EventService {
	return &EventService{store: store, logger: logger}
}

// ListEvents returns every event.
func (s *EventService) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.store.ListEvents(r.Context())
	if err != nil {
		internalError(s.logger, w, r, "Error fetching events", msgInternal, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, events)
}

// CreateEvent inserts an event. Missing amounts are zero; amounts beyond
// DECIMAL(12,2) are rejected.
func (s *EventService) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		badRequest(w, err)
		return
	}
	if req.Name == "" {
		httpx.WriteMessage(w, http.StatusBadRequest, msgEventNameNeeded)
		return
	}

	event := &models.Event{
		Name:            req.Name,
		BudgetAllocated: orZero(req.BudgetAllocated),
		AmountSpent:     orZero(req.AmountSpent),
		Status:          req.Status,
	}
	for _, amount := range []decimal.Decimal{event.BudgetAllocated, event.AmountSpent} {
		if err := models.ValidateAmount(amount); err != nil {
			badRequest(w, err)
			return
		}
	}
	if err := s.store.CreateEvent(r.Context(), event); err != nil {
		internalError(s.logger, w, r, "Error adding event", msgEventError, err)
		return
	}

	s.logger.Info("Event created", "event_id", event.ID, "name", event.Name)
	httpx.WriteJSON(w, http.StatusCreated, createEventResponse{
		Message: msgEventAdded,
		EventID: event.ID,
	})
}

// Summary reports each event's budget position including its transactions.
func (s *EventService) Summary(w http.ResponseWriter, r *http.Request) {
	events, err := s.store.ListEvents(r.Context())
	if err != nil {
		internalError(s.logger, w, r, "Error fetching events", msgInternal, err)
		return
	}
	txns, err := s.store.ListTransactions(r.Context())
	if err != nil {
		internalError(s.logger, w, r, "Error fetching transactions", msgInternal, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, ledger.Summarize(events, txns))
}

func orZero(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}
