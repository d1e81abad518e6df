package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/gofinapi/finapi/internal/domain"
)

func SeedUser(t *testing.T, db *sql.DB, name, email string) *domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	now := time.Now().UTC()
	u := &domain.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = db.Exec(
		`INSERT INTO users (id, name, email, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return u
}

func SeedDeposit(t *testing.T, db *sql.DB, userID uuid.UUID, amount string) *domain.Statement {
	t.Helper()
	return seedStatement(t, db, userID, nil, domain.OperationDeposit, amount)
}

func seedStatement(t *testing.T, db *sql.DB, userID uuid.UUID, senderID *uuid.UUID, op domain.OperationType, amount string) *domain.Statement {
	t.Helper()

	now := time.Now().UTC()
	s := &domain.Statement{
		ID:          uuid.New(),
		UserID:      userID,
		SenderID:    senderID,
		Type:        op,
		Amount:      decimal.RequireFromString(amount),
		Description: "seed " + string(op),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := db.Exec(
		`INSERT INTO statements (id, user_id, sender_id, type, amount, description, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		s.ID, s.UserID, s.SenderID, s.Type, s.Amount, s.Description, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("seed statement for %s: %v", userID, err)
	}
	return s
}

func CountStatements(t *testing.T, db *sql.DB, userID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM statements WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		t.Fatalf("count statements for %s: %v", userID, err)
	}
	return count
}
