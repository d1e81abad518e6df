package domain

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrStatementNotFound  = errors.New("statement not found")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInvalidAmount      = errors.New("amount must be positive with at most two decimal places")
	ErrEmptyDescription   = errors.New("description is required")
)
