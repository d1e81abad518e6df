package statement_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gofinapi/finapi/internal/domain"
	"github.com/gofinapi/finapi/internal/repository"
	"github.com/gofinapi/finapi/internal/service/statement"
	"github.com/gofinapi/finapi/internal/testutil"
)

func setupService(t *testing.T, db *sql.DB) *statement.Service {
	t.Helper()
	return statement.NewService(
		repository.NewUserRepository(db),
		repository.NewStatementRepository(db),
		db,
	)
}

func amt(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireBalance(t *testing.T, svc *statement.Service, userID uuid.UUID, want string) {
	t.Helper()
	b, err := svc.GetBalance(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, b.Balance.Equal(amt(want)), "balance is %s, want %s", b.Balance, want)
}

func TestDeposit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupService(t, db)
	ctx := context.Background()

	user := testutil.SeedUser(t, db, "User A", "a@test.com")

	entry, err := svc.Deposit(ctx, statement.EntryRequest{
		UserID:      user.ID,
		Amount:      amt("100.00"),
		Description: "first deposit",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.OperationDeposit, entry.Type)
	assert.Equal(t, user.ID, entry.UserID)
	assert.Nil(t, entry.SenderID)

	requireBalance(t, svc, user.ID, "100.00")
}

func TestDeposit_UserNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupService(t, db)

	_, err := svc.Deposit(context.Background(), statement.EntryRequest{
		UserID:      uuid.New(),
		Amount:      amt("100.00"),
		Description: "ghost deposit",
	})

	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestWithdraw_FullBalance(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupService(t, db)
	ctx := context.Background()

	user := testutil.SeedUser(t, db, "User A", "a@test.com")
	testutil.SeedDeposit(t, db, user.ID, "100.00")

	entry, err := svc.Withdraw(ctx, statement.EntryRequest{
		UserID:      user.ID,
		Amount:      amt("100.00"),
		Description: "everything",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.OperationWithdraw, entry.Type)

	requireBalance(t, svc, user.ID, "0.00")
}

func TestWithdraw_InsufficientFunds(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupService(t, db)
	ctx := context.Background()

	user := testutil.SeedUser(t, db, "User A", "a@test.com")

	_, err := svc.Withdraw(ctx, statement.EntryRequest{
		UserID:      user.ID,
		Amount:      amt("1.00"),
		Description: "overdraft attempt",
	})

	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.Equal(t, 0, testutil.CountStatements(t, db, user.ID))
	requireBalance(t, svc, user.ID, "0.00")
}

func TestWithdraw_ConcurrentOverdraft(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupService(t, db)
	ctx := context.Background()

	user := testutil.SeedUser(t, db, "User A", "a@test.com")
	testutil.SeedDeposit(t, db, user.ID, "100.00")

	var wg sync.WaitGroup
	results := make(chan error, 2)

	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Withdraw(ctx, statement.EntryRequest{
				UserID:      user.ID,
				Amount:      amt("60.00"),
				Description: "concurrent withdrawal",
			})
			results <- err
		}()
	}

	wg.Wait()
	close(results)

	var successes, failures int
	for err := range results {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
			failures++
		}
	}

	assert.Equal(t, 1, successes, "exactly one withdrawal should succeed")
	assert.Equal(t, 1, failures, "exactly one withdrawal should fail")
	requireBalance(t, svc, user.ID, "40.00")
}

func TestTransfer_HappyPath(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupService(t, db)
	ctx := context.Background()

	sender := testutil.SeedUser(t, db, "User A", "a@test.com")
	recipient := testutil.SeedUser(t, db, "User B", "b@test.com")
	testutil.SeedDeposit(t, db, sender.ID, "200.00")

	entry, err := svc.Transfer(ctx, statement.TransferRequest{
		SenderID:    sender.ID,
		RecipientID: recipient.ID,
		Amount:      amt("100.00"),
		Description: "rent split",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.OperationTransfer, entry.Type)
	assert.Equal(t, recipient.ID, entry.UserID)
	require.NotNil(t, entry.SenderID)
	assert.Equal(t, sender.ID, *entry.SenderID)

	requireBalance(t, svc, sender.ID, "100.00")
	requireBalance(t, svc, recipient.ID, "100.00")

	// recipient side holds exactly one transfer entry carrying the sender id
	b, err := svc.GetBalance(ctx, recipient.ID)
	require.NoError(t, err)
	require.Len(t, b.Statement, 1)
	assert.Equal(t, domain.OperationTransfer, b.Statement[0].Type)
	require.NotNil(t, b.Statement[0].SenderID)
	assert.Equal(t, sender.ID, *b.Statement[0].SenderID)

	// sender side holds the deposit plus the withdrawal debit leg
	b, err = svc.GetBalance(ctx, sender.ID)
	require.NoError(t, err)
	require.Len(t, b.Statement, 2)
	assert.Equal(t, domain.OperationWithdraw, b.Statement[1].Type)
	assert.Nil(t, b.Statement[1].SenderID)
}

func TestTransfer_InsufficientFunds(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupService(t, db)
	ctx := context.Background()

	sender := testutil.SeedUser(t, db, "User A", "a@test.com")
	recipient := testutil.SeedUser(t, db, "User B", "b@test.com")
	testutil.SeedDeposit(t, db, sender.ID, "50.00")

	_, err := svc.Transfer(ctx, statement.TransferRequest{
		SenderID:    sender.ID,
		RecipientID: recipient.ID,
		Amount:      amt("50.01"),
		Description: "a cent too far",
	})

	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	// atomicity: neither leg may exist after a failed transfer
	assert.Equal(t, 1, testutil.CountStatements(t, db, sender.ID))
	assert.Equal(t, 0, testutil.CountStatements(t, db, recipient.ID))
	requireBalance(t, svc, sender.ID, "50.00")
	requireBalance(t, svc, recipient.ID, "0.00")
}

func TestTransfer_RecipientNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupService(t, db)
	ctx := context.Background()

	sender := testutil.SeedUser(t, db, "User A", "a@test.com")
	testutil.SeedDeposit(t, db, sender.ID, "100.00")

	_, err := svc.Transfer(ctx, statement.TransferRequest{
		SenderID:    sender.ID,
		RecipientID: uuid.New(),
		Amount:      amt("10.00"),
		Description: "to nobody",
	})

	require.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.Equal(t, 1, testutil.CountStatements(t, db, sender.ID))
}

func TestTransfer_ConcurrentOverdraft(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupService(t, db)
	ctx := context.Background()

	sender := testutil.SeedUser(t, db, "User A", "a@test.com")
	recipient := testutil.SeedUser(t, db, "User B", "b@test.com")
	testutil.SeedDeposit(t, db, sender.ID, "100.00")

	var wg sync.WaitGroup
	results := make(chan error, 2)

	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Transfer(ctx, statement.TransferRequest{
				SenderID:    sender.ID,
				RecipientID: recipient.ID,
				Amount:      amt("60.00"),
				Description: "concurrent transfer",
			})
			results <- err
		}()
	}

	wg.Wait()
	close(results)

	var successes int
	for err := range results {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
		}
	}

	assert.Equal(t, 1, successes, "exactly one transfer should succeed")
	requireBalance(t, svc, sender.ID, "40.00")
	requireBalance(t, svc, recipient.ID, "60.00")
}

func TestGetBalance_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupService(t, db)
	ctx := context.Background()

	user := testutil.SeedUser(t, db, "User A", "a@test.com")
	testutil.SeedDeposit(t, db, user.ID, "75.50")

	first, err := svc.GetBalance(ctx, user.ID)
	require.NoError(t, err)
	second, err := svc.GetBalance(ctx, user.ID)
	require.NoError(t, err)

	assert.True(t, first.Balance.Equal(second.Balance))
	require.Len(t, second.Statement, len(first.Statement))
	for i := range first.Statement {
		assert.Equal(t, first.Statement[i].ID, second.Statement[i].ID)
	}
}

func TestGetBalance_UserNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupService(t, db)

	_, err := svc.GetBalance(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestGetOperation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupService(t, db)
	ctx := context.Background()

	user := testutil.SeedUser(t, db, "User A", "a@test.com")
	deposit := testutil.SeedDeposit(t, db, user.ID, "100.00")

	entry, err := svc.GetOperation(ctx, user.ID, deposit.ID)
	require.NoError(t, err)
	assert.Equal(t, deposit.ID, entry.ID)
	assert.Equal(t, domain.OperationDeposit, entry.Type)
	assert.True(t, entry.Amount.Equal(amt("100.00")))
}

func TestGetOperation_OtherUsersEntry(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupService(t, db)
	ctx := context.Background()

	owner := testutil.SeedUser(t, db, "User A", "a@test.com")
	other := testutil.SeedUser(t, db, "User B", "b@test.com")
	deposit := testutil.SeedDeposit(t, db, owner.ID, "100.00")

	// another user's entry must be indistinguishable from a missing one
	_, err := svc.GetOperation(ctx, other.ID, deposit.ID)
	assert.ErrorIs(t, err, domain.ErrStatementNotFound)

	_, err = svc.GetOperation(ctx, owner.ID, uuid.New())
	assert.ErrorIs(t, err, domain.ErrStatementNotFound)
}
