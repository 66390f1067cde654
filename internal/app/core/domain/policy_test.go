package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBasicPolicy(t *testing.T) {
	p := BasicPolicy()

	t.Run("allows withdraw up to balance", func(t *testing.T) {
		assert.NoError(t, p.CanWithdraw(10000, 10000, 99))
	})

	t.Run("rejects overdraft", func(t *testing.T) {
		err := p.CanWithdraw(10001, 10000, 0)
		assert.ErrorIs(t, err, ErrInsufficientBalance)
		assert.ErrorIs(t, err, ErrPolicyViolation)
	})

	t.Run("no withdrawal count limit", func(t *testing.T) {
		assert.NoError(t, p.CanWithdraw(1, 10000, 1000000))
	})
}

func TestCheckingPolicy(t *testing.T) {
	// 透支 200.00、單筆上限 500.00、最多 3 次
	p := CheckingPolicy(20000, 50000, 3)

	t.Run("allows overdraft down to limit", func(t *testing.T) {
		assert.NoError(t, p.CanWithdraw(30000, 10000, 0))
	})

	t.Run("rejects below overdraft limit", func(t *testing.T) {
		err := p.CanWithdraw(30001, 10000, 0)
		assert.ErrorIs(t, err, ErrInsufficientBalance)
	})

	t.Run("rejects over per-withdrawal cap even with funds", func(t *testing.T) {
		err := p.CanWithdraw(60000, 1000000, 0)
		assert.ErrorIs(t, err, ErrExceedsWithdrawalLimit)
	})

	t.Run("rejects fourth withdrawal", func(t *testing.T) {
		assert.NoError(t, p.CanWithdraw(100, 1000000, 2))
		err := p.CanWithdraw(100, 1000000, 3)
		assert.ErrorIs(t, err, ErrWithdrawalCountExceeded)
	})

	t.Run("check order is balance then cap then count", func(t *testing.T) {
		// 三個條件同時成立，以餘額不足為準
		err := p.CanWithdraw(999999, 0, 3)
		assert.ErrorIs(t, err, ErrInsufficientBalance)

		// 餘額足夠時，單筆上限優先於次數上限
		err = p.CanWithdraw(60000, 10000000, 3)
		assert.ErrorIs(t, err, ErrExceedsWithdrawalLimit)
	})
}
