package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAccount(policy Policy) *Account {
	return NewAccount(uuid.New(), "carol", "daily", policy)
}

func nowMilli() int64 {
	return time.Now().UnixMilli()
}

func mustDeposit(t *testing.T, a *Account, amount int64) Transaction {
	t.Helper()
	tran, err := a.PrepareDeposit(amount, uuid.Nil, nowMilli())
	require.NoError(t, err)
	return a.Apply(tran)
}

func mustWithdraw(t *testing.T, a *Account, amount int64) Transaction {
	t.Helper()
	tran, err := a.PrepareWithdraw(amount, uuid.Nil, nowMilli())
	require.NoError(t, err)
	return a.Apply(tran)
}

func TestAccountDeposit(t *testing.T) {
	t.Run("increases balance and appends log", func(t *testing.T) {
		a := newTestAccount(BasicPolicy())
		tran := mustDeposit(t, a, 10000)

		assert.Equal(t, int64(10000), a.Balance)
		assert.Equal(t, TransactionTypeDeposit, tran.Type)
		assert.NotEqual(t, uuid.Nil, tran.ID)
		assert.Equal(t, 1, a.History.Len())
	})

	t.Run("rejects non-positive amount without mutating", func(t *testing.T) {
		a := newTestAccount(BasicPolicy())
		for _, amount := range []int64{0, -1, -10000} {
			_, err := a.PrepareDeposit(amount, uuid.Nil, nowMilli())
			assert.ErrorIs(t, err, ErrAmountMustBePositive)
		}
		assert.Equal(t, int64(0), a.Balance)
		assert.Equal(t, 0, a.History.Len())
	})
}

func TestAccountWithdraw(t *testing.T) {
	t.Run("decreases balance and appends log", func(t *testing.T) {
		a := newTestAccount(BasicPolicy())
		mustDeposit(t, a, 10000)
		tran := mustWithdraw(t, a, 4000)

		assert.Equal(t, int64(6000), a.Balance)
		assert.Equal(t, TransactionTypeWithdraw, tran.Type)
		assert.Equal(t, int64(4000), tran.Amount)
	})

	t.Run("rejects non-positive amount before policy", func(t *testing.T) {
		a := newTestAccount(BasicPolicy())
		_, err := a.PrepareWithdraw(0, uuid.Nil, nowMilli())
		assert.ErrorIs(t, err, ErrAmountMustBePositive)
	})

	t.Run("insufficient funds leaves state untouched", func(t *testing.T) {
		a := newTestAccount(BasicPolicy())
		mustDeposit(t, a, 10000)

		_, err := a.PrepareWithdraw(15000, uuid.Nil, nowMilli())
		assert.ErrorIs(t, err, ErrInsufficientBalance)
		assert.Equal(t, int64(10000), a.Balance)
		assert.Equal(t, 1, a.History.Len())
	})

	t.Run("withdrawal count uses lifetime total", func(t *testing.T) {
		a := newTestAccount(CheckingPolicy(0, 50000, 3))
		mustDeposit(t, a, 100000)

		for i := 0; i < 3; i++ {
			mustWithdraw(t, a, 100)
		}
		_, err := a.PrepareWithdraw(100, uuid.Nil, nowMilli())
		assert.ErrorIs(t, err, ErrWithdrawalCountExceeded)
	})
}

func TestHistoryOrderAndTimestamps(t *testing.T) {
	a := newTestAccount(BasicPolicy())
	const n = 50
	for i := 0; i < n; i++ {
		mustDeposit(t, a, 100)
	}
	mustWithdraw(t, a, 100)

	trans := a.History.Snapshot()
	require.Len(t, trans, n+1)
	for i := 1; i < len(trans); i++ {
		assert.LessOrEqual(t, trans[i-1].CreatedAt, trans[i].CreatedAt)
	}
	assert.Equal(t, 1, a.History.Withdrawals())
}

func TestHistoryClampsBackwardClock(t *testing.T) {
	a := newTestAccount(BasicPolicy())
	tran, err := a.PrepareDeposit(100, uuid.Nil, 2000)
	require.NoError(t, err)
	a.Apply(tran)

	// 時鐘回撥：時間會被 clamp 到最後一筆
	tran, err = a.PrepareDeposit(100, uuid.Nil, 1000)
	require.NoError(t, err)
	applied := a.Apply(tran)
	assert.Equal(t, int64(2000), applied.CreatedAt)
}

func TestStatementIsACopy(t *testing.T) {
	a := newTestAccount(BasicPolicy())
	mustDeposit(t, a, 10000)

	statement := a.Statement()
	require.Len(t, statement.Transactions, 1)

	// 改快照不會動到帳戶
	statement.Transactions[0].Amount = 999999
	statement.Account.Balance = 0

	assert.Equal(t, int64(10000), a.Balance)
	assert.Equal(t, int64(10000), a.History.Snapshot()[0].Amount)
}

// 規格書級的端到端案例：
// 開戶 → 存 100 → 提 150 失敗 → 提 40 → 餘額 60、兩筆歷史
func TestAccountEndToEnd(t *testing.T) {
	a := newTestAccount(BasicPolicy())
	assert.Equal(t, int64(0), a.Balance)

	mustDeposit(t, a, 100*CurrencyScale)
	assert.Equal(t, int64(100*CurrencyScale), a.Balance)
	assert.Equal(t, 1, a.History.Len())

	_, err := a.PrepareWithdraw(150*CurrencyScale, uuid.Nil, nowMilli())
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, int64(100*CurrencyScale), a.Balance)

	mustWithdraw(t, a, 40*CurrencyScale)
	assert.Equal(t, int64(60*CurrencyScale), a.Balance)

	trans := a.History.Snapshot()
	require.Len(t, trans, 2)
	assert.Equal(t, TransactionTypeDeposit, trans[0].Type)
	assert.Equal(t, int64(100*CurrencyScale), trans[0].Amount)
	assert.Equal(t, TransactionTypeWithdraw, trans[1].Type)
	assert.Equal(t, int64(40*CurrencyScale), trans[1].Amount)
}
