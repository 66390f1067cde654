package domain

import (
	"github.com/google/uuid"

	"github.com/JoeShih716/go-bank-ledger/pkg/money"
)

// amount 使用 int64 最小貨幣單位 (分)，避免浮點誤差
// 例: 100.50 元 => 10050
// 精度定義在 pkg/money，這裡只是別名，兩邊不會各自漂移
const (
	CurrencyScale = money.MinorUnits
)

// TransactionType 交易類型
// 為了極致節省記憶體，使用 uint8
type TransactionType uint8

const (
	// 存款
	TransactionTypeDeposit TransactionType = 1
	// 提款
	TransactionTypeWithdraw TransactionType = 2
)

// String 回傳對外顯示用的類型名稱
func (t TransactionType) String() string {
	switch t {
	case TransactionTypeDeposit:
		return "Deposit"
	case TransactionTypeWithdraw:
		return "Withdraw"
	default:
		return "Unknown"
	}
}

// Transaction 交易紀錄 注意欄位排序以避免 Padding
// 一旦 append 進 History 即不可變更，金額永遠為正數，
// 方向由 Type 決定
type Transaction struct {
	// Amount: 金額 (最小貨幣單位)
	Amount int64 `json:"amount"`
	// CreatedAt: 交易時間 (Unix milli)，同一帳戶內保證單調不遞減
	CreatedAt int64 `json:"created_at"`
	// ID: 交易編號，append 時分配
	ID uuid.UUID `json:"id"`
	// RefID: 外部追蹤號 (UUID)，用於冪等重試；uuid.Nil 表示無
	RefID uuid.UUID `json:"ref_id"`
	// Type: 放到最後面，利用 Padding 空間
	Type TransactionType `json:"type"`
}

// History 單一帳戶的交易歷史：append-only、插入順序即時間順序
// Account 是唯一的寫入者，外部只能拿到拷貝
type History struct {
	transactions []Transaction
	// withdrawals: 歷史提款次數 (lifetime total)，供 Policy 檢查
	withdrawals int
	// lastAt: 最近一筆交易時間，用來 clamp 確保單調不遞減
	lastAt int64
}

// Append 追加一筆交易
// 若傳入的時間早於最後一筆 (時鐘回撥)，會被 clamp 到最後一筆的時間
func (h *History) Append(tran Transaction) Transaction {
	if tran.CreatedAt < h.lastAt {
		tran.CreatedAt = h.lastAt
	}
	h.lastAt = tran.CreatedAt
	h.transactions = append(h.transactions, tran)
	if tran.Type == TransactionTypeWithdraw {
		h.withdrawals++
	}
	return tran
}

// Len 回傳交易筆數
func (h *History) Len() int {
	return len(h.transactions)
}

// Withdrawals 回傳歷史提款次數
func (h *History) Withdrawals() int {
	return h.withdrawals
}

// Snapshot 回傳交易歷史的拷貝，呼叫端無法透過它修改內部狀態
func (h *History) Snapshot() []Transaction {
	out := make([]Transaction, len(h.transactions))
	copy(out, h.transactions)
	return out
}
