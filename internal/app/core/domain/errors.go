package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrAmountMustBePositive 金額必須為正數
	ErrAmountMustBePositive = errors.New("amount must be positive")

	// ErrAccountNotFound 找不到帳戶
	ErrAccountNotFound = errors.New("account not found")

	// ErrNotAccountOwner 操作者並非帳戶擁有者
	ErrNotAccountOwner = errors.New("not the account owner")

	// ErrUnknownAccountKind 未知的帳戶類型
	ErrUnknownAccountKind = errors.New("unknown account kind")

	// ErrWALWriteFailed WAL 寫入失敗
	ErrWALWriteFailed = errors.New("wal write failed")

	// ErrPolicyViolation 提款被帳戶規則拒絕
	// 以下三個原因錯誤都 wrap 這個 sentinel，
	// 呼叫端可用 errors.Is(err, ErrPolicyViolation) 統一判斷
	ErrPolicyViolation = errors.New("withdrawal rejected by account policy")

	// ErrInsufficientBalance 餘額不足 (含透支額度)
	ErrInsufficientBalance = fmt.Errorf("%w: insufficient balance", ErrPolicyViolation)

	// ErrExceedsWithdrawalLimit 單筆提款超過上限
	ErrExceedsWithdrawalLimit = fmt.Errorf("%w: amount exceeds per-withdrawal limit", ErrPolicyViolation)

	// ErrWithdrawalCountExceeded 提款次數已達上限
	ErrWithdrawalCountExceeded = fmt.Errorf("%w: withdrawal count limit reached", ErrPolicyViolation)
)
