package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gofinapi/finapi/internal/auth"
	"github.com/gofinapi/finapi/internal/domain"
	"github.com/gofinapi/finapi/internal/logging"
	"github.com/gofinapi/finapi/internal/service/statement"
)

type statementService interface {
	Deposit(ctx context.Context, req statement.EntryRequest) (*domain.Statement, error)
	Withdraw(ctx context.Context, req statement.EntryRequest) (*domain.Statement, error)
	Transfer(ctx context.Context, req statement.TransferRequest) (*domain.Statement, error)
	GetBalance(ctx context.Context, userID uuid.UUID) (*domain.Balance, error)
	GetOperation(ctx context.Context, userID, statementID uuid.UUID) (*domain.Statement, error)
}

type StatementHandler struct {
	statements statementService
}

func NewStatementHandler(statements statementService) *StatementHandler {
	return &StatementHandler{statements: statements}
}

type entryRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

type statementDTO struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	SenderID    *uuid.UUID `json:"sender_id,omitempty"`
	Type        string     `json:"type"`
	Amount      string     `json:"amount"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toStatementDTO(s *domain.Statement) statementDTO {
	return statementDTO{
		ID:          s.ID,
		UserID:      s.UserID,
		SenderID:    s.SenderID,
		Type:        string(s.Type),
		Amount:      s.Amount.StringFixed(2),
		Description: s.Description,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// balanceEntryDTO mirrors statementDTO without the owner id, which is
// redundant inside a single user's statement listing.
type balanceEntryDTO struct {
	ID          uuid.UUID  `json:"id"`
	SenderID    *uuid.UUID `json:"sender_id,omitempty"`
	Type        string     `json:"type"`
	Amount      string     `json:"amount"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type balanceDTO struct {
	Statement []balanceEntryDTO `json:"statement"`
	Balance   string            `json:"balance"`
}

func toBalanceDTO(b *domain.Balance) balanceDTO {
	entries := make([]balanceEntryDTO, len(b.Statement))
	for i := range b.Statement {
		s := &b.Statement[i]
		entries[i] = balanceEntryDTO{
			ID:          s.ID,
			SenderID:    s.SenderID,
			Type:        string(s.Type),
			Amount:      s.Amount.StringFixed(2),
			Description: s.Description,
			CreatedAt:   s.CreatedAt,
			UpdatedAt:   s.UpdatedAt,
		}
	}
	return balanceDTO{
		Statement: entries,
		Balance:   b.Balance.StringFixed(2),
	}
}

func (h *StatementHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.createEntry(w, r, h.statements.Deposit)
}

func (h *StatementHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.createEntry(w, r, h.statements.Withdraw)
}

func (h *StatementHandler) createEntry(
	w http.ResponseWriter,
	r *http.Request,
	create func(context.Context, statement.EntryRequest) (*domain.Statement, error),
) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	entry, err := create(r.Context(), statement.EntryRequest{
		UserID:      userID,
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to create statement", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toStatementDTO(entry))
}

func (h *StatementHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	senderID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	recipientID, err := uuid.Parse(r.PathValue("user_id"))
	if err != nil {
		RespondAppError(w, ErrUserNotFound, nil)
		return
	}

	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	entry, err := h.statements.Transfer(r.Context(), statement.TransferRequest{
		SenderID:    senderID,
		RecipientID: recipientID,
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to create transfer", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toStatementDTO(entry))
}

func (h *StatementHandler) Balance(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	balance, err := h.statements.GetBalance(r.Context(), userID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to get balance", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toBalanceDTO(balance))
}

func (h *StatementHandler) GetOperation(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	statementID, err := uuid.Parse(r.PathValue("statement_id"))
	if err != nil {
		RespondAppError(w, ErrStatementNotFound, nil)
		return
	}

	entry, err := h.statements.GetOperation(r.Context(), userID, statementID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to get operation", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toStatementDTO(entry))
}
