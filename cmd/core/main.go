package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	http_adapter "github.com/JoeShih716/go-bank-ledger/internal/app/core/adapter/in/http"
	memory_adapter "github.com/JoeShih716/go-bank-ledger/internal/app/core/adapter/out/memory"
	mysql_adapter "github.com/JoeShih716/go-bank-ledger/internal/app/core/adapter/out/mysql"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-bank-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-bank-ledger/pkg/mysql"
	"github.com/JoeShih716/go-bank-ledger/pkg/wal"
)

type LedgerType int32

const (
	LedgerType_Level1_Memory_Mutex LedgerType = iota
	LedgerType_Level2_Memory_LMAX
)

// UsedLedgerType 設定使用哪種 Ledger
const UsedLedgerType LedgerType = LedgerType_Level1_Memory_Mutex

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	// TokenTTLMinutes: token 有效分鐘數 (yaml.v3 不支援 time.Duration 字串)
	TokenTTLMinutes int `yaml:"token_ttl_minutes"`
}

type WALConfig struct {
	Path string `yaml:"path"`
}

// CheckingConfig 支票帳戶規則 (金額為最小貨幣單位)
type CheckingConfig struct {
	OverdraftLimit   int64 `yaml:"overdraft_limit"`
	PerWithdrawalCap int64 `yaml:"per_withdrawal_cap"`
	MaxWithdrawals   int   `yaml:"max_withdrawals"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Auth     AuthConfig     `yaml:"auth"`
	WAL      WALConfig      `yaml:"wal"`
	Checking CheckingConfig `yaml:"checking"`
	MySQL    mysql.Config   `yaml:"mysql"`
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. 載入設定
	cfg := loadConfig()

	// 2. 初始化 WAL
	walFile, err := wal.NewWAL(cfg.WAL.Path)
	if err != nil {
		log.Fatalf("Failed to init WAL: %v", err)
	}
	// 程式結束時關閉 WAL
	defer walFile.Close()

	checking := domain.CheckingPolicy(
		cfg.Checking.OverdraftLimit,
		cfg.Checking.PerWithdrawalCap,
		cfg.Checking.MaxWithdrawals,
	)

	// 3. 初始化帳本 (含 WAL 恢復)
	var usedLedger usecase.Ledger
	switch UsedLedgerType {
	case LedgerType_Level1_Memory_Mutex:
		mutexLedger, err := memory_adapter.NewMutexLedger(checking, walFile)
		if err != nil {
			log.Fatalf("Failed to init MutexLedger: %v", err)
		}
		usedLedger = mutexLedger
	case LedgerType_Level2_Memory_LMAX:
		lmaxLedger, err := memory_adapter.NewLMAXLedger(checking, walFile)
		if err != nil {
			log.Fatalf("Failed to init LMAXLedger: %v", err)
		}
		lmaxLedger.Start(ctx)
		usedLedger = lmaxLedger
	default:
		log.Fatalf("Invalid ledger type: %d", UsedLedgerType)
	}

	// 4. 初始化持久化協作者 (Optional)
	var archiver usecase.Archiver
	if cfg.MySQL.Enabled() {
		dbClient, err := mysql.NewClient(cfg.MySQL)
		if err != nil {
			log.Fatalf("Failed to connect to MySQL: %v", err)
		}
		defer dbClient.Close()
		log.Println("Connected to MySQL successfully")
		archiver, err = mysql_adapter.NewArchiver(dbClient)
		if err != nil {
			log.Fatalf("Failed to init archiver: %v", err)
		}
	}

	// 5. 初始化 UseCase
	coreUseCase := usecase.NewCoreUseCase(usedLedger, archiver)

	// 6. 初始化 HTTP Adapter (Driving Adapter)
	identity := http_adapter.NewIdentity(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)
	server := http_adapter.NewServer(coreUseCase, identity)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.Router(),
	}

	// 7. 啟動 HTTP Server
	go func() {
		log.Printf("Starting HTTP server on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to serve: %v", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	log.Println("Server exited")
}

func loadConfig() Config {
	cfgData, err := os.ReadFile("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to read config file: %v", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(cfgData, &cfg); err != nil {
		log.Fatalf("Failed to parse config: %v", err)
	}

	// 補全預設配置 (如果 yaml 沒寫)
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Auth.TokenTTLMinutes == 0 {
		cfg.Auth.TokenTTLMinutes = 60
	}
	if cfg.WAL.Path == "" {
		cfg.WAL.Path = "wal.log"
	}
	// 支票帳戶預設：透支 0、單筆上限 500.00、最多 3 次提款
	if cfg.Checking.PerWithdrawalCap == 0 {
		cfg.Checking.PerWithdrawalCap = 500 * domain.CurrencyScale
	}
	if cfg.Checking.MaxWithdrawals == 0 {
		cfg.Checking.MaxWithdrawals = 3
	}
	if cfg.MySQL.Enabled() {
		if cfg.MySQL.MaxOpenConns == 0 {
			cfg.MySQL.MaxOpenConns = 100
		}
		if cfg.MySQL.MaxIdleConns == 0 {
			cfg.MySQL.MaxIdleConns = 10
		}
		if cfg.MySQL.ConnMaxLifetime == 0 {
			cfg.MySQL.ConnMaxLifetime = 30 * time.Minute
		}
	}
	return cfg
}
