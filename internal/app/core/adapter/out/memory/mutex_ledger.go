package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-bank-ledger/pkg/wal"
)

// accountEntry 帳戶 + 專屬的互斥鎖
// 單一帳戶的所有操作在 mu 下序列化 (per-account serializability)，
// 不同帳戶之間可以完全並行
type accountEntry struct {
	mu      sync.Mutex
	account *domain.Account
}

// processedKey 冪等表的鍵
// refID 的作用域是單一帳戶：不同帳戶重用同一個 refID 互不影響
type processedKey struct {
	accountID uuid.UUID
	refID     uuid.UUID
}

// MutexLedger 是權威的 in-memory 帳本 (Level 1: Per-Account Mutex)
//
// 結構:
//
//	accounts: 帳戶索引 (accountID -> entry)
//	owners: principal -> 帳戶 ID 列表 (開戶順序)
//	registryMu: 只保護兩個索引，讀多寫少所以用 RWMutex，持有時間極短
//	walMu: 序列化開戶的 WAL 寫入，確保重放順序與開戶順序一致
//	processed: 已處理過的交易 ((accountID, refID) -> 已提交的交易)
//	wal: Write-Ahead Log 實例，nil 表示不啟用
//
// 兩個索引的參照完整性由 OpenAccount 維護：
// 出現在 owners 的帳戶 ID 一定存在於 accounts，反之亦然
type MutexLedger struct {
	registryMu sync.RWMutex
	accounts   map[uuid.UUID]*accountEntry
	owners     map[string][]uuid.UUID

	walMu sync.Mutex

	processedMu sync.Mutex
	processed   map[processedKey]domain.Transaction

	// checking: 開支票帳戶時套用的規則 (來自設定檔)
	checking domain.Policy
	// Write-Ahead Logging
	wal *wal.WAL
}

// NewMutexLedger 建立一個新的 MutexLedger 實例
//
// 參數:
//
//	checking: 支票帳戶規則 (透支額度/單筆上限/次數上限)
//	wal: Write-Ahead Log 實例，可為 nil
//
// 回傳:
//
//	*MutexLedger: MutexLedger 實例
//	error: 初始化錯誤 (如 WAL 恢復失敗)
func NewMutexLedger(checking domain.Policy, wal *wal.WAL) (*MutexLedger, error) {
	ledger := &MutexLedger{
		accounts:  make(map[uuid.UUID]*accountEntry),
		owners:    make(map[string][]uuid.UUID),
		processed: make(map[processedKey]domain.Transaction),
		checking:  checking,
		wal:       wal,
	}
	if wal != nil {
		if err := ledger.recoverFromWAL(); err != nil {
			return nil, err
		}
	}
	return ledger, nil
}

// recoverFromWAL 從 WAL 檔案恢復帳本狀態
// 只有 NewMutexLedger 呼叫，無需 Lock (單執行緒)
func (m *MutexLedger) recoverFromWAL() error {
	return m.wal.ReadAll(func(jsonRaw []byte) error {
		var rec walRecord
		if err := json.Unmarshal(jsonRaw, &rec); err != nil {
			return err
		}
		return m.applyRecovered(&rec)
	})
}

// applyRecovered 恢復單筆紀錄至記憶體 (不寫入 WAL)
func (m *MutexLedger) applyRecovered(rec *walRecord) error {
	switch rec.Record {
	case recordTypeOpenAccount:
		account := domain.NewAccount(rec.Account.ID, rec.Account.Owner, rec.Account.Nickname, rec.Account.Policy)
		m.accounts[account.ID] = &accountEntry{account: account}
		m.owners[account.Owner] = append(m.owners[account.Owner], account.ID)
	case recordTypeTransaction:
		entry, ok := m.accounts[rec.AccountID]
		if !ok {
			return domain.ErrAccountNotFound
		}
		tran := entry.account.Apply(*rec.Tran)
		if tran.RefID != uuid.Nil {
			m.processed[processedKey{accountID: rec.AccountID, refID: tran.RefID}] = tran
		}
	}
	return nil
}

// policyForKind 依帳戶類型選擇規則
func (m *MutexLedger) policyForKind(kind domain.AccountKind) (domain.Policy, error) {
	switch kind {
	case domain.AccountKindBasic:
		return domain.BasicPolicy(), nil
	case domain.AccountKindChecking:
		return m.checking, nil
	default:
		return domain.Policy{}, domain.ErrUnknownAccountKind
	}
}

// OpenAccount 開戶並登記到 owner 名下
// walMu 橫跨 WAL 寫入與索引更新，確保重放順序與開戶順序一致；
// registryMu 只在 map 寫入時短暫持有，fsync 期間其他帳戶的查找不受影響
func (m *MutexLedger) OpenAccount(ctx context.Context, owner, nickname string, kind domain.AccountKind) (domain.AccountSnapshot, error) {
	policy, err := m.policyForKind(kind)
	if err != nil {
		return domain.AccountSnapshot{}, err
	}
	account := domain.NewAccount(uuid.New(), owner, nickname, policy)

	m.walMu.Lock()
	defer m.walMu.Unlock()
	if m.wal != nil {
		if err := m.wal.Write(openAccountRecord(account)); err != nil {
			return domain.AccountSnapshot{}, domain.ErrWALWriteFailed
		}
	}
	m.registryMu.Lock()
	m.accounts[account.ID] = &accountEntry{account: account}
	m.owners[owner] = append(m.owners[owner], account.ID)
	m.registryMu.Unlock()
	return account.Snapshot(), nil
}

// ListAccounts 列出 owner 擁有的帳戶 (開戶順序)
func (m *MutexLedger) ListAccounts(ctx context.Context, owner string) ([]domain.AccountSnapshot, error) {
	m.registryMu.RLock()
	ids := make([]uuid.UUID, len(m.owners[owner]))
	copy(ids, m.owners[owner])
	m.registryMu.RUnlock()

	snapshots := make([]domain.AccountSnapshot, 0, len(ids))
	for _, id := range ids {
		m.registryMu.RLock()
		entry := m.accounts[id]
		m.registryMu.RUnlock()

		entry.mu.Lock()
		snapshots = append(snapshots, entry.account.Snapshot())
		entry.mu.Unlock()
	}
	return snapshots, nil
}

// Deposit 存款
func (m *MutexLedger) Deposit(ctx context.Context, owner string, accountID uuid.UUID, amount int64, refID uuid.UUID) (domain.Transaction, error) {
	return m.post(owner, accountID, amount, refID, domain.TransactionTypeDeposit)
}

// Withdraw 提款
func (m *MutexLedger) Withdraw(ctx context.Context, owner string, accountID uuid.UUID, amount int64, refID uuid.UUID) (domain.Transaction, error) {
	return m.post(owner, accountID, amount, refID, domain.TransactionTypeWithdraw)
}

// Statement 取得對帳單快照
// 在帳戶鎖內一次讀出餘額與歷史，不會觀察到半套用的狀態
func (m *MutexLedger) Statement(ctx context.Context, owner string, accountID uuid.UUID) (domain.Statement, error) {
	entry, err := m.lookup(accountID, owner)
	if err != nil {
		return domain.Statement{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.account.Statement(), nil
}

// lookup 解析帳戶並做授權檢查
// 順序固定：先存在 (ErrAccountNotFound)、後擁有權 (ErrNotAccountOwner)
// Owner 建立後不可變，讀取不需要帳戶鎖
func (m *MutexLedger) lookup(accountID uuid.UUID, owner string) (*accountEntry, error) {
	m.registryMu.RLock()
	defer m.registryMu.RUnlock()
	entry, ok := m.accounts[accountID]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	if entry.account.Owner != owner {
		return nil, domain.ErrNotAccountOwner
	}
	return entry, nil
}

// post 執行交易核心邏輯
// 流程：帳戶鎖 → 冪等檢查 → 驗證 (Prepare) → WAL 落盤 → 提交 (Apply)
// 驗證或 WAL 失敗時餘額與歷史完全不變 (validate-then-commit)
func (m *MutexLedger) post(owner string, accountID uuid.UUID, amount int64, refID uuid.UUID, tranType domain.TransactionType) (domain.Transaction, error) {
	entry, err := m.lookup(accountID, owner)
	if err != nil {
		return domain.Transaction{}, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if tran, ok := m.lookupProcessed(accountID, refID); ok {
		return tran, nil
	}

	now := time.Now().UnixMilli()
	var tran domain.Transaction
	switch tranType {
	case domain.TransactionTypeDeposit:
		tran, err = entry.account.PrepareDeposit(amount, refID, now)
	case domain.TransactionTypeWithdraw:
		tran, err = entry.account.PrepareWithdraw(amount, refID, now)
	}
	if err != nil {
		return domain.Transaction{}, err
	}

	// 寫入 WAL (Critical Path)
	if m.wal != nil {
		if err := m.wal.Write(transactionRecord(accountID, tran)); err != nil {
			return domain.Transaction{}, domain.ErrWALWriteFailed
		}
	}

	tran = entry.account.Apply(tran)
	m.storeProcessed(accountID, refID, tran)
	return tran, nil
}

// lookupProcessed 冪等檢查：同一帳戶上已處理過的 refID 直接回傳當時的交易
func (m *MutexLedger) lookupProcessed(accountID, refID uuid.UUID) (domain.Transaction, bool) {
	if refID == uuid.Nil {
		return domain.Transaction{}, false
	}
	m.processedMu.Lock()
	defer m.processedMu.Unlock()
	tran, ok := m.processed[processedKey{accountID: accountID, refID: refID}]
	return tran, ok
}

func (m *MutexLedger) storeProcessed(accountID, refID uuid.UUID, tran domain.Transaction) {
	if refID == uuid.Nil {
		return
	}
	m.processedMu.Lock()
	defer m.processedMu.Unlock()
	m.processed[processedKey{accountID: accountID, refID: refID}] = tran
}

var _ usecase.Ledger = (*MutexLedger)(nil)
