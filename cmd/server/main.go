package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"smartcontract-gateway.backend/internal/config"
	"smartcontract-gateway.backend/internal/contract"
	"smartcontract-gateway.backend/internal/infrastructure/blockchain"
	"smartcontract-gateway.backend/internal/infrastructure/datasources/postgres"
	"smartcontract-gateway.backend/internal/infrastructure/jobs"
	"smartcontract-gateway.backend/internal/infrastructure/repositories"
	"smartcontract-gateway.backend/internal/interfaces/http/handlers"
	"smartcontract-gateway.backend/internal/interfaces/http/middleware"
	"smartcontract-gateway.backend/internal/usecases"
	"smartcontract-gateway.backend/pkg/jwt"
	"smartcontract-gateway.backend/pkg/logger"
	"smartcontract-gateway.backend/pkg/redis"
)

var (
	loadDotenv  = godotenv.Load
	loadCfg     = config.Load
	initLog     = logger.Init
	initRedis   = redis.Init
	openDB      = postgres.NewConnection
	migrateDB   = postgres.Migrate
	newWallet   = func(hexKey string) (contract.Wallet, error) { return blockchain.NewKeyWallet(hexKey) }
	newRegistry = func() *prometheus.Registry {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		return reg
	}
	runServer = func(r *gin.Engine, port string) error { return r.Run(":" + port) }
)

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	// Load .env file
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := loadCfg()

	initLog(cfg.Server.Env)
	ctx := context.Background()
	logger.Info(ctx, "Logger initialized", zap.String("env", cfg.Server.Env))

	if err := initRedis(cfg.Redis.URL, cfg.Redis.Password); err != nil {
		logger.Error(ctx, "Failed to initialize Redis", zap.Error(err))
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	defer func() { _ = redis.Close() }()
	logger.Info(ctx, "Redis initialized")

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := openDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer closeDB(db)

	if err := migrateDB(db); err != nil {
		return err
	}
	logger.Info(ctx, "Connected to PostgreSQL via GORM")

	defaultBlock, err := contract.ParseBlockTag(cfg.Blockchain.DefaultBlockTag)
	if err != nil {
		return fmt.Errorf("invalid DEFAULT_BLOCK_TAG: %w", err)
	}

	var signer contract.Wallet
	if cfg.Blockchain.SignerPrivateKey != "" {
		signer, err = newWallet(cfg.Blockchain.SignerPrivateKey)
		if err != nil {
			return fmt.Errorf("failed to load signer wallet: %w", err)
		}
		logger.Info(ctx, "Signer wallet loaded", zap.String("address", signer.Address()))
	} else {
		logger.Warn(ctx, "SIGNER_PRIVATE_KEY not set, transact endpoints are disabled")
	}

	registry := newRegistry()

	contractRepo := repositories.NewSmartContractRepository(db)
	txRepo := repositories.NewContractTransactionRepository(db)
	uow := repositories.NewUnitOfWork(db)

	clientFactory := blockchain.NewClientFactory()
	defer clientFactory.Close()
	chains := usecases.NewChainResolver(clientFactory, cfg.Blockchain.RPCURLs)

	contractUsecase, err := usecases.NewContractUsecase(contractRepo, txRepo, uow, chains, usecases.ContractUsecaseConfig{
		Signer:          signer,
		Metrics:         contract.NewMetrics(registry),
		CacheSize:       cfg.Cache.ContractCacheSize,
		DefaultBlockTag: defaultBlock,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize contract usecase: %w", err)
	}

	// Start background jobs
	jobCtx, cancelJobs := context.WithCancel(ctx)
	defer cancelJobs()
	if cfg.Blockchain.TxStatusInterval > 0 {
		statusJob := jobs.NewTransactionStatusJob(contractUsecase, cfg.Blockchain.TxStatusInterval)
		go statusJob.Start(jobCtx)
		defer statusJob.Stop()
	}

	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessExpiry)
	httpMetrics := middleware.NewHTTPMetrics(registry)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())
	r.Use(httpMetrics.Middleware())

	applyCORSMiddleware(r)
	registerHealthRoute(r)
	registerMetricsRoute(r, registry)
	registerAPIV1Routes(r, routeDeps{
		contractHandler:       handlers.NewContractHandler(contractUsecase),
		authMiddleware:        middleware.AuthMiddleware(jwtService),
		idempotencyMiddleware: middleware.IdempotencyMiddleware(cfg.Redis.IdempotencyTTL),
		timeoutMiddleware:     middleware.TimeoutMiddleware(cfg.Blockchain.RequestTimeout),
	})

	for _, route := range r.Routes() {
		logger.Debug(ctx, "Route registered", zap.String("method", route.Method), zap.String("path", route.Path))
	}

	logger.Info(ctx, "Contract gateway starting",
		zap.String("port", cfg.Server.Port),
		zap.Int("chains", len(cfg.Blockchain.RPCURLs)),
	)

	if err := runServer(r, cfg.Server.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func closeDB(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	_ = sqlDB.Close()
}
