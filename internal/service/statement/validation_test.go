package statement

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gofinapi/finapi/internal/domain"
)

func TestValidateEntry(t *testing.T) {
	tests := []struct {
		name        string
		amount      string
		description string
		wantErr     error
	}{
		{
			name:        "valid entry",
			amount:      "100.00",
			description: "salary",
		},
		{
			name:        "smallest valid amount",
			amount:      "0.01",
			description: "a cent",
		},
		{
			name:        "zero amount",
			amount:      "0",
			description: "nothing",
			wantErr:     domain.ErrInvalidAmount,
		},
		{
			name:        "negative amount",
			amount:      "-10.00",
			description: "negative",
			wantErr:     domain.ErrInvalidAmount,
		},
		{
			name:        "too many decimal places",
			amount:      "10.001",
			description: "sub-cent",
			wantErr:     domain.ErrInvalidAmount,
		},
		{
			name:        "empty description",
			amount:      "10.00",
			description: "",
			wantErr:     domain.ErrEmptyDescription,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validateEntry(decimal.RequireFromString(tc.amount), tc.description)
			if tc.wantErr == nil {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}
