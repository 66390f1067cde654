package memory

import (
	"github.com/google/uuid"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
)

// WAL 紀錄類型
const (
	recordTypeOpenAccount uint8 = 1
	recordTypeTransaction uint8 = 2
)

// walAccount 開戶紀錄內容
// Policy 連同參數一起落地，之後改設定不會影響既有帳戶
type walAccount struct {
	ID       uuid.UUID     `json:"id"`
	Owner    string        `json:"owner"`
	Nickname string        `json:"nickname"`
	Policy   domain.Policy `json:"policy"`
}

// walRecord WAL 的單筆紀錄 (一行 JSON)
// Record 決定哪些欄位有效：開戶用 Account、交易用 AccountID + Tran
type walRecord struct {
	Record    uint8               `json:"record"`
	Account   *walAccount         `json:"account,omitempty"`
	AccountID uuid.UUID           `json:"account_id"`
	Tran      *domain.Transaction `json:"tran,omitempty"`
}

func openAccountRecord(account *domain.Account) *walRecord {
	return &walRecord{
		Record: recordTypeOpenAccount,
		Account: &walAccount{
			ID:       account.ID,
			Owner:    account.Owner,
			Nickname: account.Nickname,
			Policy:   account.Policy,
		},
	}
}

func transactionRecord(accountID uuid.UUID, tran domain.Transaction) *walRecord {
	return &walRecord{
		Record:    recordTypeTransaction,
		AccountID: accountID,
		Tran:      &tran,
	}
}
