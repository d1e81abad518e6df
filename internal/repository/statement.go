package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gofinapi/finapi/internal/domain"
)

const statementColumns = `id, user_id, sender_id, type, amount, description,
	created_at, updated_at`

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type StatementRepository struct {
	db *sql.DB
}

func NewStatementRepository(db *sql.DB) *StatementRepository {
	return &StatementRepository{db: db}
}

// Create appends one entry inside tx. There is deliberately no update or
// delete counterpart; the statements table is append-only.
func (r *StatementRepository) Create(ctx context.Context, tx *sql.Tx, s *domain.Statement) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO statements (
			id, user_id, sender_id, type, amount, description, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		s.ID, s.UserID, s.SenderID, s.Type, s.Amount, s.Description,
		s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *StatementRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Statement, error) {
	entries, err := getByUserID(ctx, r.db, userID)
	if err != nil {
		return nil, fmt.Errorf("GetByUserID: %w", err)
	}
	return entries, nil
}

// GetByUserIDTx reads the user's entries through tx, so the fold sees the
// snapshot protected by the caller's row lock.
func (r *StatementRepository) GetByUserIDTx(ctx context.Context, tx *sql.Tx, userID uuid.UUID) ([]domain.Statement, error) {
	entries, err := getByUserID(ctx, tx, userID)
	if err != nil {
		return nil, fmt.Errorf("GetByUserIDTx: %w", err)
	}
	return entries, nil
}

func (r *StatementRepository) GetByIDAndUserID(ctx context.Context, id, userID uuid.UUID) (*domain.Statement, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+statementColumns+` FROM statements
		WHERE id = $1 AND user_id = $2`, id, userID,
	)
	s, err := scanStatement(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByIDAndUserID: %w", domain.ErrStatementNotFound)
		}
		return nil, fmt.Errorf("GetByIDAndUserID: %w", err)
	}
	return s, nil
}

func getByUserID(ctx context.Context, q querier, userID uuid.UUID) ([]domain.Statement, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+statementColumns+` FROM statements
		WHERE user_id = $1 ORDER BY created_at, id`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.Statement
	for rows.Next() {
		s, err := scanStatement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		entries = append(entries, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return entries, nil
}

func scanStatement(s scanner) (*domain.Statement, error) {
	var st domain.Statement
	err := s.Scan(
		&st.ID, &st.UserID, &st.SenderID, &st.Type,
		&st.Amount, &st.Description, &st.CreatedAt, &st.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &st, nil
}
