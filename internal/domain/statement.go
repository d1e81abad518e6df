package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OperationType string

const (
	OperationDeposit  OperationType = "deposit"
	OperationWithdraw OperationType = "withdraw"
	OperationTransfer OperationType = "transfer"
)

// Statement is a single append-only ledger entry. Entries are never
// updated or deleted after creation; a user's balance exists only as the
// fold of their entries.
type Statement struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	SenderID    *uuid.UUID // set only on transfer credit legs
	Type        OperationType
	Amount      decimal.Decimal
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Credit reports whether the entry increases the owner's balance.
func (s *Statement) Credit() bool {
	return s.Type == OperationDeposit || s.Type == OperationTransfer
}

// Balance is the read model returned by the balance query: the user's
// full statement plus the derived balance.
type Balance struct {
	Statement []Statement
	Balance   decimal.Decimal
}

// BalanceOf folds a user's entries into their current balance. Deposits
// and transfer credits add, withdrawals subtract. Arithmetic is exact
// decimal, never floating point.
func BalanceOf(entries []Statement) decimal.Decimal {
	balance := decimal.Zero
	for i := range entries {
		if entries[i].Credit() {
			balance = balance.Add(entries[i].Amount)
		} else {
			balance = balance.Sub(entries[i].Amount)
		}
	}
	return balance
}

// ValidAmount reports whether amount is usable on a statement entry:
// strictly positive and at most two decimal places.
func ValidAmount(amount decimal.Decimal) bool {
	return amount.IsPositive() && amount.Exponent() >= -2
}
