package usecase

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
)

// CoreUseCase 是核心業務邏輯層
// 交易委派給 Ledger，成功後以 best-effort 通知 Archiver
type CoreUseCase struct {
	ledger   Ledger
	archiver Archiver // 可為 nil (不啟用持久化鏡射)
}

func NewCoreUseCase(ledger Ledger, archiver Archiver) *CoreUseCase {
	return &CoreUseCase{
		ledger:   ledger,
		archiver: archiver,
	}
}

// OpenAccount 開戶
func (c *CoreUseCase) OpenAccount(ctx context.Context, owner, nickname string, kind domain.AccountKind) (domain.AccountSnapshot, error) {
	snapshot, err := c.ledger.OpenAccount(ctx, owner, nickname, kind)
	if err != nil {
		return domain.AccountSnapshot{}, err
	}
	if c.archiver != nil {
		if err := c.archiver.AccountOpened(ctx, snapshot); err != nil {
			log.Printf("archiver: account opened notify failed: %v", err)
		}
	}
	return snapshot, nil
}

// ListAccounts 列出 owner 的帳戶
func (c *CoreUseCase) ListAccounts(ctx context.Context, owner string) ([]domain.AccountSnapshot, error) {
	return c.ledger.ListAccounts(ctx, owner)
}

// Deposit 存款
func (c *CoreUseCase) Deposit(ctx context.Context, owner string, accountID uuid.UUID, amount int64, refID uuid.UUID) (domain.Transaction, error) {
	tran, err := c.ledger.Deposit(ctx, owner, accountID, amount, refID)
	if err != nil {
		return domain.Transaction{}, err
	}
	c.notifyTransaction(ctx, accountID, tran)
	return tran, nil
}

// Withdraw 提款
func (c *CoreUseCase) Withdraw(ctx context.Context, owner string, accountID uuid.UUID, amount int64, refID uuid.UUID) (domain.Transaction, error) {
	tran, err := c.ledger.Withdraw(ctx, owner, accountID, amount, refID)
	if err != nil {
		return domain.Transaction{}, err
	}
	c.notifyTransaction(ctx, accountID, tran)
	return tran, nil
}

// Statement 取得對帳單
func (c *CoreUseCase) Statement(ctx context.Context, owner string, accountID uuid.UUID) (domain.Statement, error) {
	return c.ledger.Statement(ctx, owner, accountID)
}

// notifyTransaction 通知持久化協作者 (Best Effort)
// 記憶體提交已完成，這裡的失敗不影響帳本狀態
func (c *CoreUseCase) notifyTransaction(ctx context.Context, accountID uuid.UUID, tran domain.Transaction) {
	if c.archiver == nil {
		return
	}
	if err := c.archiver.TransactionPosted(ctx, accountID, tran); err != nil {
		log.Printf("archiver: transaction posted notify failed: %v", err)
	}
}
