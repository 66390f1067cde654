package mysql

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-bank-ledger/pkg/mysql"
)

// sqlAccount 對應資料庫的 accounts 表
type sqlAccount struct {
	ID        []byte `gorm:"column:id;type:binary(16);primaryKey"`
	Owner     string `gorm:"size:64;index"`
	Nickname  string `gorm:"size:64"`
	Kind      uint8
	Balance   int64
	CreatedAt int64 `gorm:"autoCreateTime:milli"` // 自動寫入時間
	UpdatedAt int64 `gorm:"autoUpdateTime:milli"` // 自動更新時間
}

func (*sqlAccount) TableName() string {
	return "accounts"
}

// sqlTransaction 對應資料庫的 transactions 表
type sqlTransaction struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	TranID    []byte `gorm:"column:tran_id;type:binary(16);uniqueIndex"` // 對應 domain.Transaction.ID
	AccountID []byte `gorm:"column:account_id;type:binary(16);index"`
	RefID     []byte `gorm:"column:ref_id;type:binary(16)"` // 冪等追蹤號，可為全零
	Amount    int64
	Type      uint8
	CreatedAt int64 // 交易時間 (來自帳本，不用 autoCreateTime)
}

func (*sqlTransaction) TableName() string {
	return "transactions"
}

// Archiver 是持久化協作者的 MySQL 實作
// 鏡射帳戶與交易到資料庫；帳本權威狀態在記憶體 + WAL，
// 這裡的寫入失敗由 usecase 記 log，不會反悔帳本
type Archiver struct {
	client *mysql.Client
}

// NewArchiver 建立 Archiver 並確保鏡射用的資料表存在
func NewArchiver(client *mysql.Client) (*Archiver, error) {
	if err := client.DB().AutoMigrate(&sqlAccount{}, &sqlTransaction{}); err != nil {
		return nil, err
	}
	return &Archiver{
		client: client,
	}, nil
}

// AccountOpened 寫入帳戶列
func (a *Archiver) AccountOpened(ctx context.Context, snapshot domain.AccountSnapshot) error {
	row := sqlAccount{
		ID:       snapshot.ID[:],
		Owner:    snapshot.Owner,
		Nickname: snapshot.Nickname,
		Kind:     uint8(snapshot.Kind),
		Balance:  snapshot.Balance,
	}
	// 重送時不報錯 (帳戶 ID 唯一)
	return a.client.DB().WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error
}

// TransactionPosted 寫入交易列並同步帳戶餘額
func (a *Archiver) TransactionPosted(ctx context.Context, accountID uuid.UUID, tran domain.Transaction) error {
	row := sqlTransaction{
		TranID:    tran.ID[:],
		AccountID: accountID[:],
		RefID:     tran.RefID[:],
		Amount:    tran.Amount,
		Type:      uint8(tran.Type),
		CreatedAt: tran.CreatedAt,
	}
	result := a.client.DB().WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row)
	if result.Error != nil {
		return result.Error
	}
	// 交易已鏡射過 (重送)，餘額不可重複累計
	if result.RowsAffected == 0 {
		return nil
	}

	delta := tran.Amount
	if tran.Type == domain.TransactionTypeWithdraw {
		delta = -delta
	}
	return a.client.DB().WithContext(ctx).
		Model(&sqlAccount{}).
		Where("id = ?", accountID[:]).
		UpdateColumn("balance", gorm.Expr("balance + ?", delta)).Error
}

var _ usecase.Archiver = (*Archiver)(nil)
