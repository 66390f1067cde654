package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/adapter/out/memory"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	ledger, err := memory.NewMutexLedger(domain.CheckingPolicy(0, 50000, 3), nil)
	require.NoError(t, err)
	core := usecase.NewCoreUseCase(ledger, nil)
	identity := NewIdentity("test-secret", time.Hour)
	return NewServer(core, identity).Router()
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// signupAndLogin 註冊並登入，回傳 access token
func signupAndLogin(t *testing.T, router *gin.Engine, username string) string {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/signup", "", gin.H{
		"username": username, "password": "secret", "full_name": "Test User",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodPost, "/token", "", gin.H{
		"username": username, "password": "secret",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token, ok := decodeBody(t, w)["access_token"].(string)
	require.True(t, ok)
	return token
}

func openAccount(t *testing.T, router *gin.Engine, token, kind string) string {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/accounts", token, gin.H{
		"nickname": "savings", "kind": kind,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id, ok := decodeBody(t, w)["id"].(string)
	require.True(t, ok)
	return id
}

func TestSignupAndToken(t *testing.T) {
	router := newTestRouter(t)

	t.Run("duplicate username rejected", func(t *testing.T) {
		body := gin.H{"username": "alice", "password": "secret"}
		w := doJSON(t, router, http.MethodPost, "/signup", "", body)
		require.Equal(t, http.StatusCreated, w.Code)
		w = doJSON(t, router, http.MethodPost, "/signup", "", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decodeBody(t, w)["detail"], "already registered")
	})

	t.Run("wrong password rejected", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/token", "", gin.H{
			"username": "alice", "password": "wrong",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("short password rejected by binding", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/signup", "", gin.H{
			"username": "bob", "password": "abc",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUnauthenticatedRequests(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/accounts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, http.MethodPost, "/transactions/deposit", "not-a-jwt", gin.H{
		"account_id": uuid.New().String(), "amount": "10.00",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "could not validate credentials", decodeBody(t, w)["detail"])
}

func TestAccountLifecycle(t *testing.T) {
	router := newTestRouter(t)
	token := signupAndLogin(t, router, "alice")
	accountID := openAccount(t, router, token, "basic")

	w := doJSON(t, router, http.MethodPost, "/transactions/deposit", token, gin.H{
		"account_id": accountID, "amount": "100.50",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, "Deposit", body["type"])
	assert.Equal(t, "100.50", body["amount"])

	w = doJSON(t, router, http.MethodPost, "/transactions/withdraw", token, gin.H{
		"account_id": accountID, "amount": "40.00",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodGet, "/accounts/"+accountID+"/statement", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	statement := decodeBody(t, w)
	assert.Equal(t, "60.50", statement["balance"])
	transactions, ok := statement["transactions"].([]any)
	require.True(t, ok)
	assert.Len(t, transactions, 2)

	w = doJSON(t, router, http.MethodGet, "/accounts", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var accounts []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &accounts))
	require.Len(t, accounts, 1)
	assert.Equal(t, "basic", accounts[0]["kind"])
	assert.Equal(t, "60.50", accounts[0]["balance"])
}

func TestErrorStatusMapping(t *testing.T) {
	router := newTestRouter(t)
	aliceToken := signupAndLogin(t, router, "alice")
	bobToken := signupAndLogin(t, router, "bob")
	accountID := openAccount(t, router, aliceToken, "checking")

	t.Run("unknown account is 404", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/transactions/deposit", aliceToken, gin.H{
			"account_id": uuid.New().String(), "amount": "10.00",
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed account id is 404", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/accounts/not-a-uuid/statement", aliceToken, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("foreign account is 403", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/transactions/deposit", bobToken, gin.H{
			"account_id": accountID, "amount": "10.00",
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
		w = doJSON(t, router, http.MethodGet, "/accounts/"+accountID+"/statement", bobToken, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("non-positive amount is 400", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/transactions/deposit", aliceToken, gin.H{
			"account_id": accountID, "amount": "-5.00",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed amount is 400", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/transactions/deposit", aliceToken, gin.H{
			"account_id": accountID, "amount": "ten dollars",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		w = doJSON(t, router, http.MethodPost, "/transactions/deposit", aliceToken, gin.H{
			"account_id": accountID, "amount": "0.005",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("policy violation is 400", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/transactions/withdraw", aliceToken, gin.H{
			"account_id": accountID, "amount": "10.00",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decodeBody(t, w)["detail"], "insufficient balance")
	})

	t.Run("unknown kind is 400", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/accounts", aliceToken, gin.H{
			"kind": "premium",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestIdempotentDepositOverHTTP(t *testing.T) {
	router := newTestRouter(t)
	token := signupAndLogin(t, router, "alice")
	accountID := openAccount(t, router, token, "basic")
	refID := uuid.New().String()

	body := gin.H{"account_id": accountID, "amount": "25.00", "ref_id": refID}
	w := doJSON(t, router, http.MethodPost, "/transactions/deposit", token, body)
	require.Equal(t, http.StatusOK, w.Code)
	first := decodeBody(t, w)

	w = doJSON(t, router, http.MethodPost, "/transactions/deposit", token, body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, first["id"], decodeBody(t, w)["id"])

	w = doJSON(t, router, http.MethodGet, "/accounts/"+accountID+"/statement", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "25.00", decodeBody(t, w)["balance"])
}
