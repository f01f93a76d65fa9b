package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/gin-gonic/gin"

	"github.com/walidkhelifa/consulink/internal/api"
	"github.com/walidkhelifa/consulink/internal/app"
	"github.com/walidkhelifa/consulink/internal/app/maintenance"
	iauth "github.com/walidkhelifa/consulink/internal/auth"
	"github.com/walidkhelifa/consulink/internal/auth/providers"
	"github.com/walidkhelifa/consulink/internal/cache"
	"github.com/walidkhelifa/consulink/internal/database"
	"github.com/walidkhelifa/consulink/internal/middleware"
	"github.com/walidkhelifa/consulink/internal/verification"
	"github.com/walidkhelifa/consulink/pkg/logger"
	"github.com/walidkhelifa/consulink/pkg/mail"
)

// runtimeStack bundles long-lived components used by the HTTP server.
type runtimeStack struct {
	DB        *gorm.DB
	Flow      *verification.Flow
	Registry  *providers.Registry
	Cleaner   *maintenance.Cleaner
	RateStore middleware.RateStore
	Router    *gin.Engine
}

// bootstrapRuntime initialises the database, verification channels, providers and router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	dbStore := cache.NewDatabaseStore(stack.DB)

	mailer, err := mail.NewSMTPMailer(cfg.Email.SMTPSettings())
	if err != nil {
		return nil, fmt.Errorf("initialise smtp mailer: %w", err)
	}

	emailChannel, err := verification.NewEmailChannel(stack.DB, mailer, cfg.Verification.EmailChannelOptions()...)
	if err != nil {
		return nil, fmt.Errorf("initialise email channel: %w", err)
	}

	channels := []verification.Channel{emailChannel}
	if cfg.SMS.Enabled {
		smsChannel, smsErr := verification.NewSMSChannel(cfg.SMS.SMSChannelConfig())
		if smsErr != nil {
			return nil, fmt.Errorf("initialise sms channel: %w", smsErr)
		}
		channels = append(channels, smsChannel)
		log.Info("sms verification enabled", zap.String("verify_service", cfg.SMS.VerifyServiceSID))
	} else {
		log.Info("sms verification disabled; phone identifiers will be rejected at send time")
	}

	store, err := verification.NewStore(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise verification store: %w", err)
	}

	flowOpts := make([]verification.FlowOption, 0, 2)
	if cfg.Verification.MaxAttempts > 0 {
		flowOpts = append(flowOpts, verification.WithMaxAttempts(cfg.Verification.MaxAttempts))
	}
	if cfg.Verification.SendLimit.Enabled {
		limiter, limitErr := verification.NewSendLimiter(dbStore, cfg.Verification.SendLimit.Max, cfg.Verification.SendLimit.Window)
		if limitErr != nil {
			return nil, fmt.Errorf("initialise send limiter: %w", limitErr)
		}
		flowOpts = append(flowOpts, verification.WithSendLimiter(limiter))
	}

	stack.Flow, err = verification.NewFlow(store, channels, flowOpts...)
	if err != nil {
		return nil, fmt.Errorf("initialise verification flow: %w", err)
	}

	loginProvider, err := providers.NewLoginProvider(stack.DB, stack.Flow, cfg.Verification.LoginProviderConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise login provider: %w", err)
	}
	signupProvider, err := providers.NewSignupProvider(stack.DB, stack.Flow, cfg.Verification.SignupProviderConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise signup provider: %w", err)
	}

	stack.Registry = providers.NewRegistry()
	if err := stack.Registry.Register(loginProvider); err != nil {
		return nil, fmt.Errorf("register login provider: %w", err)
	}
	if err := stack.Registry.Register(signupProvider); err != nil {
		return nil, fmt.Errorf("register signup provider: %w", err)
	}

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise jwt service: %w", err)
	}

	if cfg.Maintenance.Cleanup.Enabled {
		opts := []maintenance.Option{}
		if schedule := strings.TrimSpace(cfg.Maintenance.Cleanup.Schedule); schedule != "" {
			opts = append(opts, maintenance.WithSchedule(schedule))
		}
		stack.Cleaner = maintenance.NewCleaner(stack.DB, opts...)
		if err := stack.Cleaner.Start(); err != nil {
			return nil, fmt.Errorf("start maintenance jobs: %w", err)
		}
	}

	if dbStore != nil {
		stack.RateStore = middleware.NewDatabaseRateStore(dbStore)
	}

	stack.Router, err = api.NewRouter(stack.DB, jwtSvc, stack.Registry, cfg, stack.RateStore)
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// Shutdown gracefully stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Cleaner != nil {
		stopCtx := s.Cleaner.Stop()
		if stopCtx != nil {
			ctx = stopCtx
		}
		if err := s.Cleaner.RunOnce(ctx); err != nil {
			log.Warn("maintenance shutdown cleanup failed", zap.Error(err))
		}
	}

	if s.DB != nil {
		closeDatabase(s.DB, log)
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.Database.DatabaseConfig()

	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrateAndSeed(db); err != nil {
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", strings.ToLower(strings.TrimSpace(dbCfg.Driver))))

	return db, nil
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("failed to obtain underlying sql DB for closing", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
