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

// 單一寫入者迴圈的操作代碼
type opType uint8

const (
	opOpenAccount  opType = 1
	opListAccounts opType = 2
	opDeposit      opType = 3
	opWithdraw     opType = 4
	opStatement    opType = 5
)

// ledgerRequest 請求包裝 channel，讓呼叫端可以等待結果
type ledgerRequest struct {
	op       opType
	owner    string
	nickname string
	kind     domain.AccountKind

	accountID uuid.UUID
	amount    int64
	refID     uuid.UUID

	// 讓呼叫端等這個 channel
	result chan ledgerResponse
}

type ledgerResponse struct {
	snapshot  domain.AccountSnapshot
	snapshots []domain.AccountSnapshot
	tran      domain.Transaction
	statement domain.Statement
	err       error
}

// LMAXLedger 是單一寫入者 (Single Writer) 實作 (Level 2)
// 所有操作經由輸送帶進入核心迴圈，迴圈內完全不需要鎖；
// 單一帳戶序列化是全序列化的特例，正確性與 MutexLedger 等價
type LMAXLedger struct {
	accounts map[uuid.UUID]*domain.Account
	owners   map[string][]uuid.UUID
	// 已處理過的交易，refID 作用域為單一帳戶
	processed map[processedKey]domain.Transaction
	checking  domain.Policy
	// Write-Ahead Logging
	wal *wal.WAL
	// 輸送帶 負責接收請求
	requestChan chan *ledgerRequest
	// Pool 減少 GC 壓力
	requestPool sync.Pool
}

// NewLMAXLedger 建立一個新的 LMAXLedger 實例
//
// 參數:
//
//	checking: 支票帳戶規則
//	wal: Write-Ahead Log 實例，可為 nil
//
// 回傳:
//
//	*LMAXLedger: LMAXLedger 實例
//	error: 初始化錯誤 (如 WAL 恢復失敗)
func NewLMAXLedger(checking domain.Policy, wal *wal.WAL) (*LMAXLedger, error) {
	ledger := &LMAXLedger{
		accounts:    make(map[uuid.UUID]*domain.Account),
		owners:      make(map[string][]uuid.UUID),
		processed:   make(map[processedKey]domain.Transaction),
		checking:    checking,
		wal:         wal,
		requestChan: make(chan *ledgerRequest, 1000), // Buffer 1000
		requestPool: sync.Pool{
			New: func() interface{} {
				return &ledgerRequest{
					result: make(chan ledgerResponse, 1),
				}
			},
		},
	}

	// 在啟動前先恢復資料
	if wal != nil {
		if err := ledger.recoverFromWAL(); err != nil {
			return nil, err
		}
	}
	return ledger, nil
}

// recoverFromWAL 從 WAL 檔案恢復帳本狀態 (不寫 WAL，不透過 Channel)
// 直接更新 State，不需要 Lock 因為這是在 NewLMAXLedger 裡跑的 (單執行緒)
func (l *LMAXLedger) recoverFromWAL() error {
	return l.wal.ReadAll(func(jsonRaw []byte) error {
		var rec walRecord
		if err := json.Unmarshal(jsonRaw, &rec); err != nil {
			return err
		}
		switch rec.Record {
		case recordTypeOpenAccount:
			account := domain.NewAccount(rec.Account.ID, rec.Account.Owner, rec.Account.Nickname, rec.Account.Policy)
			l.accounts[account.ID] = account
			l.owners[account.Owner] = append(l.owners[account.Owner], account.ID)
		case recordTypeTransaction:
			account, ok := l.accounts[rec.AccountID]
			if !ok {
				return domain.ErrAccountNotFound
			}
			tran := account.Apply(*rec.Tran)
			if tran.RefID != uuid.Nil {
				l.processed[processedKey{accountID: rec.AccountID, refID: tran.RefID}] = tran
			}
		}
		return nil
	})
}

// Start 啟動核心引擎 (非同步)
func (l *LMAXLedger) Start(ctx context.Context) {
	go l.run(ctx)
}

func (l *LMAXLedger) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			// 收到關閉信號，把剩下的請求處理完
			l.drain()
			return
		case req := <-l.requestChan:
			req.result <- l.process(req)
		}
	}
}

func (l *LMAXLedger) drain() {
	for {
		select {
		case req := <-l.requestChan:
			req.result <- l.process(req)
		default:
			return
		}
	}
}

// submit 放入輸送帶並等待結果 (使用 sync.Pool 減少 GC)
func (l *LMAXLedger) submit(fill func(req *ledgerRequest)) ledgerResponse {
	req := l.requestPool.Get().(*ledgerRequest)
	*req = ledgerRequest{result: req.result}
	fill(req)
	// 清空 Channel (雖然理論上應該是空的，但保險起見)
	select {
	case <-req.result:
	default:
	}

	l.requestChan <- req
	resp := <-req.result
	l.requestPool.Put(req)
	return resp
}

// process 在核心迴圈內處理單一請求 (Thread Safe in Loop)
func (l *LMAXLedger) process(req *ledgerRequest) ledgerResponse {
	switch req.op {
	case opOpenAccount:
		snapshot, err := l.handleOpenAccount(req.owner, req.nickname, req.kind)
		return ledgerResponse{snapshot: snapshot, err: err}
	case opListAccounts:
		return ledgerResponse{snapshots: l.handleListAccounts(req.owner)}
	case opDeposit, opWithdraw:
		tran, err := l.handlePost(req)
		return ledgerResponse{tran: tran, err: err}
	case opStatement:
		statement, err := l.handleStatement(req.owner, req.accountID)
		return ledgerResponse{statement: statement, err: err}
	default:
		return ledgerResponse{}
	}
}

func (l *LMAXLedger) handleOpenAccount(owner, nickname string, kind domain.AccountKind) (domain.AccountSnapshot, error) {
	var policy domain.Policy
	switch kind {
	case domain.AccountKindBasic:
		policy = domain.BasicPolicy()
	case domain.AccountKindChecking:
		policy = l.checking
	default:
		return domain.AccountSnapshot{}, domain.ErrUnknownAccountKind
	}

	account := domain.NewAccount(uuid.New(), owner, nickname, policy)
	if l.wal != nil {
		if err := l.wal.Write(openAccountRecord(account)); err != nil {
			return domain.AccountSnapshot{}, domain.ErrWALWriteFailed
		}
	}
	l.accounts[account.ID] = account
	l.owners[owner] = append(l.owners[owner], account.ID)
	return account.Snapshot(), nil
}

func (l *LMAXLedger) handleListAccounts(owner string) []domain.AccountSnapshot {
	snapshots := make([]domain.AccountSnapshot, 0, len(l.owners[owner]))
	for _, id := range l.owners[owner] {
		snapshots = append(snapshots, l.accounts[id].Snapshot())
	}
	return snapshots
}

func (l *LMAXLedger) handlePost(req *ledgerRequest) (domain.Transaction, error) {
	account, err := l.resolve(req.accountID, req.owner)
	if err != nil {
		return domain.Transaction{}, err
	}

	// Idempotency Check (同一帳戶上重用的 refID 才算重送)
	if req.refID != uuid.Nil {
		if tran, ok := l.processed[processedKey{accountID: req.accountID, refID: req.refID}]; ok {
			return tran, nil
		}
	}

	now := time.Now().UnixMilli()
	var tran domain.Transaction
	if req.op == opDeposit {
		tran, err = account.PrepareDeposit(req.amount, req.refID, now)
	} else {
		tran, err = account.PrepareWithdraw(req.amount, req.refID, now)
	}
	if err != nil {
		return domain.Transaction{}, err
	}

	// 寫入 WAL (Critical Path)
	if l.wal != nil {
		if err := l.wal.Write(transactionRecord(req.accountID, tran)); err != nil {
			return domain.Transaction{}, domain.ErrWALWriteFailed
		}
	}

	tran = account.Apply(tran)
	if req.refID != uuid.Nil {
		l.processed[processedKey{accountID: req.accountID, refID: req.refID}] = tran
	}
	return tran, nil
}

func (l *LMAXLedger) handleStatement(owner string, accountID uuid.UUID) (domain.Statement, error) {
	account, err := l.resolve(accountID, owner)
	if err != nil {
		return domain.Statement{}, err
	}
	return account.Statement(), nil
}

// resolve 授權檢查：先存在、後擁有權
func (l *LMAXLedger) resolve(accountID uuid.UUID, owner string) (*domain.Account, error) {
	account, ok := l.accounts[accountID]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	if account.Owner != owner {
		return nil, domain.ErrNotAccountOwner
	}
	return account, nil
}

// OpenAccount 開戶
func (l *LMAXLedger) OpenAccount(ctx context.Context, owner, nickname string, kind domain.AccountKind) (domain.AccountSnapshot, error) {
	resp := l.submit(func(req *ledgerRequest) {
		req.op = opOpenAccount
		req.owner = owner
		req.nickname = nickname
		req.kind = kind
	})
	return resp.snapshot, resp.err
}

// ListAccounts 列出 owner 擁有的帳戶 (開戶順序)
func (l *LMAXLedger) ListAccounts(ctx context.Context, owner string) ([]domain.AccountSnapshot, error) {
	resp := l.submit(func(req *ledgerRequest) {
		req.op = opListAccounts
		req.owner = owner
	})
	return resp.snapshots, resp.err
}

// Deposit 存款
func (l *LMAXLedger) Deposit(ctx context.Context, owner string, accountID uuid.UUID, amount int64, refID uuid.UUID) (domain.Transaction, error) {
	return l.post(opDeposit, owner, accountID, amount, refID)
}

// Withdraw 提款
func (l *LMAXLedger) Withdraw(ctx context.Context, owner string, accountID uuid.UUID, amount int64, refID uuid.UUID) (domain.Transaction, error) {
	return l.post(opWithdraw, owner, accountID, amount, refID)
}

func (l *LMAXLedger) post(op opType, owner string, accountID uuid.UUID, amount int64, refID uuid.UUID) (domain.Transaction, error) {
	resp := l.submit(func(req *ledgerRequest) {
		req.op = op
		req.owner = owner
		req.accountID = accountID
		req.amount = amount
		req.refID = refID
	})
	return resp.tran, resp.err
}

// Statement 取得對帳單快照
func (l *LMAXLedger) Statement(ctx context.Context, owner string, accountID uuid.UUID) (domain.Statement, error) {
	resp := l.submit(func(req *ledgerRequest) {
		req.op = opStatement
		req.owner = owner
		req.accountID = accountID
	})
	return resp.statement, resp.err
}

var _ usecase.Ledger = (*LMAXLedger)(nil)
