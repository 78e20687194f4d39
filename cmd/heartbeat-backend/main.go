package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/lyu3239-oss/heartbeat-app/internal/alert"
	"github.com/lyu3239-oss/heartbeat-app/internal/config"
	httpapi "github.com/lyu3239-oss/heartbeat-app/internal/http"
	applog "github.com/lyu3239-oss/heartbeat-app/internal/logger"
	"github.com/lyu3239-oss/heartbeat-app/internal/provider"
	"github.com/lyu3239-oss/heartbeat-app/internal/repository"
	"github.com/lyu3239-oss/heartbeat-app/internal/service"
	"github.com/lyu3239-oss/heartbeat-app/internal/store"
)

func main() {
	// .env 可选，正式部署直接用环境变量
	_ = godotenv.Load()

	cfg := config.Load()

	logger, err := applog.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer logger.Sync()

	// 数据库不可用直接退出：没有可用的用户存储就不能开始服务
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	db.SetMaxOpenConns(cfg.Database.MaxConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdle)
	if err := db.Ping(); err != nil {
		logger.Fatal("Failed to ping database", zap.Error(err))
	}

	usersRepo := repository.NewPostgresUsersRepo(db, logger)
	if err := usersRepo.EnsureSchema(context.Background()); err != nil {
		logger.Fatal("Failed to ensure schema", zap.Error(err))
	}

	// Redis 可选：不可用时验证码退回进程内存储（单实例部署够用）
	var codes store.CodeStore = store.NewMemoryCodeStore()
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Warn("Redis unavailable, falling back to in-memory code store", zap.Error(err))
			redisClient = nil
		} else {
			codes = store.NewRedisCodeStore(redisClient)
		}
	}

	// 外呼渠道在启动时一次性选定：Twilio 凭证齐全走真实外呼，否则控制台模拟
	var callProvider alert.CallProvider
	if cfg.TwilioConfigured() {
		callProvider = provider.NewTwilioClient(
			provider.DefaultTwilioBaseURL,
			cfg.Twilio.AccountSID,
			cfg.Twilio.AuthToken,
			logger,
		)
		logger.Info("Twilio call provider enabled")
	} else {
		callProvider = alert.NewSimulatedProvider(logger)
		logger.Info("Twilio not configured, emergency calls will be simulated")
	}

	var emailSender service.EmailSender
	if cfg.Email.ResendAPIKey != "" {
		emailSender = provider.NewResendClient(provider.DefaultResendBaseURL, cfg.Email.ResendAPIKey, logger)
	}

	dispatcher := alert.NewDispatcher(callProvider, cfg.Twilio.FromNumber, logger)
	orchestrator := alert.NewOrchestrator(dispatcher, logger)
	cooldown := alert.NewCooldownGate(time.Duration(cfg.Alert.CooldownHours) * time.Hour)
	alertSvc := service.NewAlertService(usersRepo, orchestrator, cooldown, cfg.Alert.EvaluateApplyCooldown, logger)
	authSvc := service.NewAuthService(usersRepo, codes, emailSender, cfg.Email.From, logger)

	router := httpapi.NewRouter(logger)
	router.RegisterAuthRoutes(httpapi.NewAuthHandler(authSvc, logger))
	router.RegisterUserRoutes(httpapi.NewUserHandler(usersRepo, alertSvc, logger))

	scheduler := service.NewScheduler(alertSvc, cfg.Alert.Hour, logger)
	scheduler.Start()

	srv := service.NewServer(cfg.HTTP.Addr, router, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.Error("HTTP server error", zap.Error(err))
	}

	scheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)

	if redisClient != nil {
		_ = redisClient.Close()
	}
	_ = db.Close()

	logger.Info("Heartbeat backend stopped")
}
