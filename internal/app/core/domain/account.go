package domain

import "github.com/google/uuid"

// Account 帳戶聚合：餘額 + 規則 + 交易歷史
// Account 是 History 的唯一擁有者，所有變更都走 Prepare/Apply 兩段式：
// Prepare 只驗證並組出交易 (純函式)，Apply 才提交，
// 中間讓呼叫端有機會先落地 WAL，失敗時狀態完全不變
type Account struct {
	ID       uuid.UUID
	Owner    string
	Nickname string
	Balance  int64
	Policy   Policy
	History  History
}

// NewAccount 建立帳戶，初始餘額為 0
func NewAccount(id uuid.UUID, owner, nickname string, policy Policy) *Account {
	return &Account{
		ID:       id,
		Owner:    owner,
		Nickname: nickname,
		Policy:   policy,
	}
}

// PrepareDeposit 驗證存款並組出交易，不改變任何狀態
//
// 參數:
//
//	amount: 金額 (最小貨幣單位)，必須 > 0
//	refID: 外部追蹤號，無則傳 uuid.Nil
//	now: 交易時間 (Unix milli)
//
// 回傳:
//
//	Transaction: 待提交的交易
//	error: 驗證錯誤
func (a *Account) PrepareDeposit(amount int64, refID uuid.UUID, now int64) (Transaction, error) {
	if amount <= 0 {
		return Transaction{}, ErrAmountMustBePositive
	}
	return Transaction{
		ID:        uuid.New(),
		RefID:     refID,
		Type:      TransactionTypeDeposit,
		Amount:    amount,
		CreatedAt: now,
	}, nil
}

// PrepareWithdraw 驗證提款並組出交易，不改變任何狀態
// 檢查順序：金額 > 0 → Policy (餘額 → 單筆上限 → 次數上限)
func (a *Account) PrepareWithdraw(amount int64, refID uuid.UUID, now int64) (Transaction, error) {
	if amount <= 0 {
		return Transaction{}, ErrAmountMustBePositive
	}
	if err := a.Policy.CanWithdraw(amount, a.Balance, a.History.Withdrawals()); err != nil {
		return Transaction{}, err
	}
	return Transaction{
		ID:        uuid.New(),
		RefID:     refID,
		Type:      TransactionTypeWithdraw,
		Amount:    amount,
		CreatedAt: now,
	}, nil
}

// Apply 提交一筆交易：同時更新餘額與歷史
// 只接受 Prepare 產出或 WAL 重放的交易，本身不再驗證
func (a *Account) Apply(tran Transaction) Transaction {
	switch tran.Type {
	case TransactionTypeDeposit:
		a.Balance += tran.Amount
	case TransactionTypeWithdraw:
		a.Balance -= tran.Amount
	}
	return a.History.Append(tran)
}

// AccountSnapshot 帳戶的唯讀快照
type AccountSnapshot struct {
	ID       uuid.UUID   `json:"id"`
	Owner    string      `json:"owner"`
	Nickname string      `json:"nickname"`
	Kind     AccountKind `json:"kind"`
	Balance  int64       `json:"balance"`
}

// Statement 對帳單：帳戶快照 + 依時間順序的交易歷史拷貝
type Statement struct {
	Account      AccountSnapshot `json:"account"`
	Transactions []Transaction   `json:"transactions"`
}

// Snapshot 回傳帳戶目前狀態的拷貝
func (a *Account) Snapshot() AccountSnapshot {
	return AccountSnapshot{
		ID:       a.ID,
		Owner:    a.Owner,
		Nickname: a.Nickname,
		Kind:     a.Policy.Kind,
		Balance:  a.Balance,
	}
}

// Statement 回傳對帳單快照，呼叫端無法透過它修改帳戶
func (a *Account) Statement() Statement {
	return Statement{
		Account:      a.Snapshot(),
		Transactions: a.History.Snapshot(),
	}
}
