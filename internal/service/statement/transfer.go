package statement

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gofinapi/finapi/internal/domain"
	"github.com/gofinapi/finapi/internal/logging"
)

type TransferRequest struct {
	SenderID    uuid.UUID
	RecipientID uuid.UUID
	Amount      decimal.Decimal
	Description string
}

// Transfer moves funds between two users as a pair of entries written in
// one transaction: a transfer credit owned by the recipient carrying the
// sender's id, then a withdrawal debit owned by the sender. Either both
// rows commit or neither does. The sender's row lock serializes the
// balance check against concurrent debits; the recipient side is
// insert-only and needs no lock.
func (s *Service) Transfer(ctx context.Context, req TransferRequest) (*domain.Statement, error) {
	log := logging.FromContext(ctx)

	if err := validateEntry(req.Amount, req.Description); err != nil {
		return nil, fmt.Errorf("Transfer: %w", err)
	}

	if _, err := s.users.GetByID(ctx, req.RecipientID); err != nil {
		return nil, fmt.Errorf("Transfer: recipient: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Transfer: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.users.GetForUpdate(ctx, tx, req.SenderID); err != nil {
		return nil, fmt.Errorf("Transfer: sender: %w", err)
	}

	balance, err := s.balanceTx(ctx, tx, req.SenderID)
	if err != nil {
		return nil, fmt.Errorf("Transfer: %w", err)
	}
	if balance.LessThan(req.Amount) {
		return nil, fmt.Errorf("Transfer: %w", domain.ErrInsufficientFunds)
	}

	senderID := req.SenderID
	credit := newEntry(req.RecipientID, &senderID, domain.OperationTransfer, req.Amount, req.Description)
	if err := s.statements.Create(ctx, tx, credit); err != nil {
		return nil, fmt.Errorf("Transfer: credit: %w", err)
	}

	debit := newEntry(req.SenderID, nil, domain.OperationWithdraw, req.Amount, req.Description)
	if err := s.statements.Create(ctx, tx, debit); err != nil {
		return nil, fmt.Errorf("Transfer: debit: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Transfer: commit: %w", err)
	}

	log.Info("transfer completed",
		"statement_id", credit.ID,
		"sender_id", req.SenderID,
		"recipient_id", req.RecipientID,
		"amount", req.Amount,
	)

	return credit, nil
}
