package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
)

// Archiver 持久化協作者 (Optional)
// 在每筆成功的開戶/交易後收到通知，用於鏡射到外部儲存 (如 MySQL)。
// 通知發生在帳戶鎖之外，失敗只會被記 log，
// 不會回滾也不會污染記憶體中的帳本狀態 (恢復來源是 WAL)
type Archiver interface {
	// AccountOpened 帳戶建立成功後通知
	AccountOpened(ctx context.Context, snapshot domain.AccountSnapshot) error
	// TransactionPosted 交易提交成功後通知
	TransactionPosted(ctx context.Context, accountID uuid.UUID, tran domain.Transaction) error
}
