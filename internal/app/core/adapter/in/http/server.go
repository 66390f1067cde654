package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-bank-ledger/pkg/money"
)

// Server 是 HTTP in-adapter (Driving Adapter)
// 只負責協定轉換：認證、JSON 綁定、金額字串 <-> 最小貨幣單位、錯誤碼對映，
// 業務規則全部在核心
type Server struct {
	core     *usecase.CoreUseCase
	identity *Identity
}

func NewServer(core *usecase.CoreUseCase, identity *Identity) *Server {
	return &Server{
		core:     core,
		identity: identity,
	}
}

// Router 組出路由
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	r.POST("/signup", s.signup)
	r.POST("/token", s.token)

	authed := r.Group("/", s.identity.Middleware())
	authed.POST("/accounts", s.openAccount)
	authed.GET("/accounts", s.listAccounts)
	authed.GET("/accounts/:accountID/statement", s.statement)
	authed.POST("/transactions/deposit", s.deposit)
	authed.POST("/transactions/withdraw", s.withdraw)

	return r
}

// ----------------- Requests / Responses -----------------

type signupRequest struct {
	Username string `json:"username" binding:"required,min=3"`
	Password string `json:"password" binding:"required,min=4"`
	FullName string `json:"full_name"`
}

type tokenRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type openAccountRequest struct {
	Nickname string `json:"nickname"`
	// Kind: "basic" (預設) 或 "checking"
	Kind string `json:"kind"`
}

type transactionRequest struct {
	AccountID string `json:"account_id" binding:"required"`
	// Amount: 十進位字串，如 "100.50"
	Amount string `json:"amount" binding:"required"`
	// RefID: 冪等追蹤號 (UUID)，可省略
	RefID string `json:"ref_id"`
}

type accountResponse struct {
	ID       string `json:"id"`
	Owner    string `json:"owner"`
	Nickname string `json:"nickname"`
	Kind     string `json:"kind"`
	Balance  string `json:"balance"`
}

type transactionResponse struct {
	ID     string    `json:"id"`
	Type   string    `json:"type"`
	Amount string    `json:"amount"`
	Date   time.Time `json:"date"`
}

type statementResponse struct {
	accountResponse
	Transactions []transactionResponse `json:"transactions"`
}

func toAccountResponse(snapshot domain.AccountSnapshot) accountResponse {
	return accountResponse{
		ID:       snapshot.ID.String(),
		Owner:    snapshot.Owner,
		Nickname: snapshot.Nickname,
		Kind:     snapshot.Kind.String(),
		Balance:  money.Format(snapshot.Balance),
	}
}

func toTransactionResponse(tran domain.Transaction) transactionResponse {
	return transactionResponse{
		ID:     tran.ID.String(),
		Type:   tran.Type.String(),
		Amount: money.Format(tran.Amount),
		Date:   time.UnixMilli(tran.CreatedAt).UTC(),
	}
}

// ----------------- Handlers -----------------

func (s *Server) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	if err := s.identity.Signup(req.Username, req.Password, req.FullName); err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"username":  req.Username,
		"full_name": req.FullName,
	})
}

func (s *Server) token(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	token, err := s.identity.Login(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "bearer",
	})
}

func (s *Server) openAccount(c *gin.Context) {
	var req openAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	kind, err := parseAccountKind(req.Kind)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	snapshot, err := s.core.OpenAccount(c.Request.Context(), s.principal(c), req.Nickname, kind)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toAccountResponse(snapshot))
}

func (s *Server) listAccounts(c *gin.Context) {
	snapshots, err := s.core.ListAccounts(c.Request.Context(), s.principal(c))
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]accountResponse, 0, len(snapshots))
	for _, snapshot := range snapshots {
		out = append(out, toAccountResponse(snapshot))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) statement(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("accountID"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": domain.ErrAccountNotFound.Error()})
		return
	}
	statement, err := s.core.Statement(c.Request.Context(), s.principal(c), accountID)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := statementResponse{
		accountResponse: toAccountResponse(statement.Account),
		Transactions:    make([]transactionResponse, 0, len(statement.Transactions)),
	}
	for _, tran := range statement.Transactions {
		resp.Transactions = append(resp.Transactions, toTransactionResponse(tran))
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) deposit(c *gin.Context) {
	s.postTransaction(c, s.core.Deposit)
}

func (s *Server) withdraw(c *gin.Context) {
	s.postTransaction(c, s.core.Withdraw)
}

// postTransaction 存款/提款共用的協定轉換
func (s *Server) postTransaction(
	c *gin.Context,
	post func(ctx context.Context, owner string, accountID uuid.UUID, amount int64, refID uuid.UUID) (domain.Transaction, error),
) {
	var req transactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": domain.ErrAccountNotFound.Error()})
		return
	}
	amount, err := money.Parse(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	refID := uuid.Nil
	if req.RefID != "" {
		refID, err = uuid.Parse(req.RefID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid ref_id"})
			return
		}
	}

	tran, err := post(c.Request.Context(), s.principal(c), accountID, amount, refID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTransactionResponse(tran))
}

// principal 取出中介層驗證過的 principal
func (s *Server) principal(c *gin.Context) string {
	return c.GetString(principalKey)
}

func parseAccountKind(kind string) (domain.AccountKind, error) {
	switch kind {
	case "", "basic":
		return domain.AccountKindBasic, nil
	case "checking":
		return domain.AccountKindChecking, nil
	default:
		return 0, domain.ErrUnknownAccountKind
	}
}

// writeError 核心錯誤對映 HTTP 狀態碼
// NotFound 永遠優先於 Forbidden (lookup 先於授權)，對映在核心就已保證
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrNotAccountOwner):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrAmountMustBePositive),
		errors.Is(err, domain.ErrPolicyViolation),
		errors.Is(err, domain.ErrUnknownAccountKind):
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"detail": err.Error()})
}
