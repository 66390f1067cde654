package domain

// AccountKind 帳戶類型
type AccountKind uint8

const (
	// 基本帳戶：不可透支、無單筆上限、提款次數不限
	AccountKindBasic AccountKind = 1
	// 支票帳戶：可透支至 -OverdraftLimit、有單筆上限與提款次數上限
	AccountKindChecking AccountKind = 2
)

// String 回傳對外顯示用的類型名稱
func (k AccountKind) String() string {
	switch k {
	case AccountKindBasic:
		return "basic"
	case AccountKindChecking:
		return "checking"
	default:
		return "unknown"
	}
}

// Policy 提款規則
// 以 Kind 為 tag 的 variant，取代繼承式的帳戶階層；
// 參數為 0 代表該限制不啟用 (Basic 帳戶三個參數皆為 0)
type Policy struct {
	// OverdraftLimit: 透支額度，餘額最低可到 -OverdraftLimit
	OverdraftLimit int64 `json:"overdraft_limit"`
	// PerWithdrawalCap: 單筆提款上限，0 表示不限
	PerWithdrawalCap int64 `json:"per_withdrawal_cap"`
	// MaxWithdrawals: 歷史提款次數上限，0 表示不限
	MaxWithdrawals int `json:"max_withdrawals"`
	// Kind: 帳戶類型 tag
	Kind AccountKind `json:"kind"`
}

// BasicPolicy 回傳基本帳戶規則
func BasicPolicy() Policy {
	return Policy{Kind: AccountKindBasic}
}

// CheckingPolicy 回傳支票帳戶規則
//
// 參數:
//
//	overdraftLimit: 透支額度 (最小貨幣單位)
//	perWithdrawalCap: 單筆提款上限 (最小貨幣單位)
//	maxWithdrawals: 歷史提款次數上限
func CheckingPolicy(overdraftLimit, perWithdrawalCap int64, maxWithdrawals int) Policy {
	return Policy{
		Kind:             AccountKindChecking,
		OverdraftLimit:   overdraftLimit,
		PerWithdrawalCap: perWithdrawalCap,
		MaxWithdrawals:   maxWithdrawals,
	}
}

// CanWithdraw 純判斷函式：不改變任何狀態
// 檢查順序固定：餘額 → 單筆上限 → 次數上限，
// 多個條件同時成立時以先檢查到的錯誤為準
func (p Policy) CanWithdraw(amount, balance int64, withdrawals int) error {
	if balance-amount < -p.OverdraftLimit {
		return ErrInsufficientBalance
	}
	if p.PerWithdrawalCap > 0 && amount > p.PerWithdrawalCap {
		return ErrExceedsWithdrawalLimit
	}
	if p.MaxWithdrawals > 0 && withdrawals >= p.MaxWithdrawals {
		return ErrWithdrawalCountExceeded
	}
	return nil
}
