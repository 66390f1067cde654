package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
)

// Ledger 是帳務系統的介面
// owner 是已認證的 principal (由 in-adapter 解析)，核心完全信任它；
// 所有操作都要求「先檢查帳戶存在、再檢查擁有權」，
// 不存在的帳戶一律回 ErrAccountNotFound，不洩漏擁有權資訊
type Ledger interface {
	// OpenAccount 開戶，永遠成功 (nickname 不要求唯一)，初始餘額為 0
	OpenAccount(ctx context.Context, owner, nickname string, kind domain.AccountKind) (domain.AccountSnapshot, error)
	// ListAccounts 列出 owner 擁有的帳戶，依開戶順序
	ListAccounts(ctx context.Context, owner string) ([]domain.AccountSnapshot, error)
	// Deposit 存款；refID 為冪等追蹤號，uuid.Nil 表示不啟用
	Deposit(ctx context.Context, owner string, accountID uuid.UUID, amount int64, refID uuid.UUID) (domain.Transaction, error)
	// Withdraw 提款；refID 同上
	Withdraw(ctx context.Context, owner string, accountID uuid.UUID, amount int64, refID uuid.UUID) (domain.Transaction, error)
	// Statement 取得對帳單快照 (純讀取)
	Statement(ctx context.Context, owner string, accountID uuid.UUID) (domain.Statement, error)
}
