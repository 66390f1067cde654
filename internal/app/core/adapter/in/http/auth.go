package http

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrUsernameTaken 使用者名稱已註冊
	ErrUsernameTaken = errors.New("username already registered")

	// ErrInvalidCredentials 帳號或密碼錯誤
	ErrInvalidCredentials = errors.New("incorrect username or password")
)

// principalKey 中介層放進 gin context 的 principal 鍵
const principalKey = "principal"

// user 已註冊的使用者
type user struct {
	Username       string
	FullName       string
	HashedPassword []byte
}

// Identity 身分協作者：註冊/登入/JWT 驗證
// 核心完全信任這裡解析出來的 principal，自己不做任何憑證檢查
type Identity struct {
	mu    sync.RWMutex
	users map[string]*user

	secret   []byte
	tokenTTL time.Duration
}

// NewIdentity 建立身分協作者
//
// 參數:
//
//	secret: JWT HS256 簽章密鑰
//	tokenTTL: token 有效時間
func NewIdentity(secret string, tokenTTL time.Duration) *Identity {
	return &Identity{
		users:    make(map[string]*user),
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
	}
}

// Signup 註冊使用者，密碼以 bcrypt 雜湊後保存
func (i *Identity) Signup(username, password, fullName string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if _, ok := i.users[username]; ok {
		return ErrUsernameTaken
	}
	i.users[username] = &user{
		Username:       username,
		FullName:       fullName,
		HashedPassword: hashed,
	}
	return nil
}

// FullName 回傳使用者全名 (註冊回應用)
func (i *Identity) FullName(username string) string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if u, ok := i.users[username]; ok {
		return u.FullName
	}
	return ""
}

// Login 驗證帳密並簽發 JWT (sub = username)
func (i *Identity) Login(username, password string) (string, error) {
	i.mu.RLock()
	u, ok := i.users[username]
	i.mu.RUnlock()
	if !ok {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(u.HashedPassword, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.tokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// verify 驗證 token 並回傳 principal (username)
func (i *Identity) verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return i.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidCredentials
	}

	// token 有效但使用者已不存在時一樣拒絕
	i.mu.RLock()
	_, ok := i.users[claims.Subject]
	i.mu.RUnlock()
	if !ok {
		return "", ErrInvalidCredentials
	}
	return claims.Subject, nil
}

// Middleware 解析 Authorization: Bearer token，
// 成功時把 principal 放進 context 供 handler 使用
func (i *Identity) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "could not validate credentials"})
			return
		}
		principal, err := i.verify(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "could not validate credentials"})
			return
		}
		c.Set(principalKey, principal)
		c.Next()
	}
}
