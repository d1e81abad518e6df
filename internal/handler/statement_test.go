package handler

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gofinapi/finapi/internal/domain"
)

func TestToStatementDTO(t *testing.T) {
	senderID := uuid.New()
	now := time.Now().UTC()

	transfer := &domain.Statement{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		SenderID:    &senderID,
		Type:        domain.OperationTransfer,
		Amount:      decimal.RequireFromString("100"),
		Description: "rent split",
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	dto := toStatementDTO(transfer)
	assert.Equal(t, "100.00", dto.Amount)
	require.NotNil(t, dto.SenderID)
	assert.Equal(t, senderID, *dto.SenderID)
	assert.Equal(t, "transfer", dto.Type)
}

func TestToBalanceDTO_SenderIDOnlyOnTransfers(t *testing.T) {
	senderID := uuid.New()
	b := &domain.Balance{
		Statement: []domain.Statement{
			{ID: uuid.New(), Type: domain.OperationDeposit, Amount: decimal.RequireFromString("10.5")},
			{ID: uuid.New(), SenderID: &senderID, Type: domain.OperationTransfer, Amount: decimal.RequireFromString("5")},
		},
		Balance: decimal.RequireFromString("15.5"),
	}

	raw, err := json.Marshal(toBalanceDTO(b))
	require.NoError(t, err)

	var decoded struct {
		Statement []map[string]any `json:"statement"`
		Balance   string           `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, "15.50", decoded.Balance)
	require.Len(t, decoded.Statement, 2)

	_, hasSender := decoded.Statement[0]["sender_id"]
	assert.False(t, hasSender, "deposit entries must not carry sender_id")
	assert.Equal(t, "10.50", decoded.Statement[0]["amount"])

	assert.Equal(t, senderID.String(), decoded.Statement[1]["sender_id"])
}
