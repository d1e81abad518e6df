// Package statement implements the ledger use cases: deposits,
// withdrawals, transfers, and the balance/statement queries. Balance is
// never stored; every check folds the owner's append-only entries.
package statement

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gofinapi/finapi/internal/domain"
	"github.com/gofinapi/finapi/internal/logging"
)

type userDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.User, error)
}

type statementStore interface {
	Create(ctx context.Context, tx *sql.Tx, s *domain.Statement) error
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Statement, error)
	GetByUserIDTx(ctx context.Context, tx *sql.Tx, userID uuid.UUID) ([]domain.Statement, error)
	GetByIDAndUserID(ctx context.Context, id, userID uuid.UUID) (*domain.Statement, error)
}

type Service struct {
	users      userDirectory
	statements statementStore
	db         *sql.DB
}

func NewService(users userDirectory, statements statementStore, db *sql.DB) *Service {
	return &Service{
		users:      users,
		statements: statements,
		db:         db,
	}
}

type EntryRequest struct {
	UserID      uuid.UUID
	Amount      decimal.Decimal
	Description string
}

func validateEntry(amount decimal.Decimal, description string) error {
	if !domain.ValidAmount(amount) {
		return fmt.Errorf("validateEntry: %w", domain.ErrInvalidAmount)
	}
	if description == "" {
		return fmt.Errorf("validateEntry: %w", domain.ErrEmptyDescription)
	}
	return nil
}

// Deposit appends a deposit entry. Deposits need no balance check and no
// row lock; the insert alone cannot violate the non-negative invariant.
func (s *Service) Deposit(ctx context.Context, req EntryRequest) (*domain.Statement, error) {
	log := logging.FromContext(ctx)

	if err := validateEntry(req.Amount, req.Description); err != nil {
		return nil, fmt.Errorf("Deposit: %w", err)
	}

	if _, err := s.users.GetByID(ctx, req.UserID); err != nil {
		return nil, fmt.Errorf("Deposit: %w", err)
	}

	entry := newEntry(req.UserID, nil, domain.OperationDeposit, req.Amount, req.Description)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Deposit: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.statements.Create(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("Deposit: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Deposit: commit: %w", err)
	}

	log.Info("deposit created",
		"statement_id", entry.ID,
		"user_id", req.UserID,
		"amount", req.Amount,
	)

	return entry, nil
}

// Withdraw appends a withdrawal entry after verifying, under the user's
// row lock, that the folded balance covers the amount. The lock holds
// until commit, so concurrent debits against the same user serialize and
// the balance can never go negative.
func (s *Service) Withdraw(ctx context.Context, req EntryRequest) (*domain.Statement, error) {
	log := logging.FromContext(ctx)

	if err := validateEntry(req.Amount, req.Description); err != nil {
		return nil, fmt.Errorf("Withdraw: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Withdraw: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.users.GetForUpdate(ctx, tx, req.UserID); err != nil {
		return nil, fmt.Errorf("Withdraw: %w", err)
	}

	balance, err := s.balanceTx(ctx, tx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("Withdraw: %w", err)
	}
	if balance.LessThan(req.Amount) {
		return nil, fmt.Errorf("Withdraw: %w", domain.ErrInsufficientFunds)
	}

	entry := newEntry(req.UserID, nil, domain.OperationWithdraw, req.Amount, req.Description)
	if err := s.statements.Create(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("Withdraw: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Withdraw: commit: %w", err)
	}

	log.Info("withdrawal created",
		"statement_id", entry.ID,
		"user_id", req.UserID,
		"amount", req.Amount,
	)

	return entry, nil
}

// GetBalance returns the user's full statement along with the balance
// folded from it.
func (s *Service) GetBalance(ctx context.Context, userID uuid.UUID) (*domain.Balance, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("GetBalance: %w", err)
	}

	entries, err := s.statements.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("GetBalance: %w", err)
	}

	return &domain.Balance{
		Statement: entries,
		Balance:   domain.BalanceOf(entries),
	}, nil
}

// GetOperation returns a single entry owned by userID. An entry owned by
// another user surfaces as ErrStatementNotFound, identical to an absent
// one.
func (s *Service) GetOperation(ctx context.Context, userID, statementID uuid.UUID) (*domain.Statement, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("GetOperation: %w", err)
	}

	entry, err := s.statements.GetByIDAndUserID(ctx, statementID, userID)
	if err != nil {
		return nil, fmt.Errorf("GetOperation: %w", err)
	}
	return entry, nil
}

func (s *Service) balanceTx(ctx context.Context, tx *sql.Tx, userID uuid.UUID) (decimal.Decimal, error) {
	entries, err := s.statements.GetByUserIDTx(ctx, tx, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("balanceTx: %w", err)
	}
	return domain.BalanceOf(entries), nil
}

func newEntry(userID uuid.UUID, senderID *uuid.UUID, op domain.OperationType, amount decimal.Decimal, description string) *domain.Statement {
	now := time.Now().UTC()
	return &domain.Statement{
		ID:          uuid.New(),
		UserID:      userID,
		SenderID:    senderID,
		Type:        op,
		Amount:      amount,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
