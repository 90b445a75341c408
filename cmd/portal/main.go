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
	_ "time/tzdata"

	"github.com/dtapp/campus_core/internal/app"
	"github.com/dtapp/campus_core/internal/config"
	"github.com/dtapp/campus_core/internal/controller"
	"github.com/dtapp/campus_core/internal/controller/api"
	"github.com/dtapp/campus_core/internal/push"
	"github.com/dtapp/campus_core/internal/repository"
	"github.com/dtapp/campus_core/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := app.NewLogger(cfg.Environment, "campus-portal", cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Portal stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	logger.Info("Starting campus portal",
		zap.String("environment", cfg.Environment),
		zap.String("http_addr", cfg.HTTPAddr),
		zap.String("timezone", loc.String()),
	)

	pool, err := newPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, logger)
	if err != nil {
		return err
	}
	if err := migrator.Run(ctx); err != nil {
		migrator.Close()
		return err
	}
	migrator.Close()

	// Репозитории
	userRepo := repository.NewUserRepository(pool)
	counterRepo := repository.NewCounterRepository(pool)
	ratesRepo := repository.NewRatesRepository(pool)
	jobRepo := repository.NewPrintJobRepository(pool)
	orderRepo := repository.NewPrintOrderRepository(pool)
	scheduleRepo := repository.NewScheduleRepository(pool)
	updateRepo := repository.NewLectureUpdateRepository(pool)
	linkCodeRepo := repository.NewLinkCodeRepository(pool)

	// Каналы доставки
	var telegramBot *bot.Bot
	if cfg.TelegramToken != "" {
		telegramBot, err = bot.New(cfg.TelegramToken)
		if err != nil {
			return err
		}
	}

	sender, err := newPushSender(ctx, cfg, telegramBot, logger)
	if err != nil {
		return err
	}

	var guard service.ReminderGuard
	if cfg.ReminderDedup {
		redisClient, err := repository.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		guard = repository.NewRedisReminderGuard(redisClient)
		logger.Info("Reminder de-duplication enabled")
	}

	var payments service.PaymentGateway = service.DisabledGateway{}
	if cfg.RazorpayKeyID != "" && cfg.RazorpayKeySecret != "" {
		payments = service.NewRazorpayGateway(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	} else {
		logger.Warn("Razorpay keys are not set, print orders are disabled")
	}

	// Сервисы
	allocator, err := service.NewSlotAllocator(counterRepo, service.SlotAllocatorConfig{
		MaxSlots:      cfg.SlotMax,
		SlotsPerGroup: cfg.SlotsPerGroup,
		MaxRetries:    cfg.SlotMaxRetries,
		RetryBase:     20 * time.Millisecond,
		Timeout:       cfg.StoreTimeout,
	}, logger)
	if err != nil {
		return err
	}

	notifier := service.NewCohortNotifier(userRepo, sender, userRepo, service.NotifierConfig{
		Location:     loc,
		StoreTimeout: cfg.StoreTimeout,
		PushTimeout:  cfg.PushTimeout,
		Icon:         cfg.PushIcon,
	}, logger)

	reminderService := service.NewReminderService(scheduleRepo, notifier, guard, service.ReminderConfig{
		Location:     loc,
		Lookahead:    cfg.ReminderLookahead,
		StoreTimeout: cfg.StoreTimeout,
	}, logger)

	updateService := service.NewUpdateService(updateRepo, notifier, logger)
	userService := service.NewUserService(userRepo, linkCodeRepo, sender, logger)
	scheduleService := service.NewScheduleService(scheduleRepo, logger)
	printService := service.NewPrintService(ratesRepo, jobRepo, orderRepo, allocator, payments, logger)

	// HTTP API
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := api.NewHandler(api.Deps{
		Users:        userService,
		Print:        printService,
		Schedules:    scheduleService,
		Updates:      updateService,
		PaymentKeyID: cfg.RazorpayKeyID,
	}, logger)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	scheduler := app.NewScheduler(reminderService, linkCodeRepo, cfg.ReminderInterval, logger)
	listener := app.NewUpdateListener(pool, updateService, logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("Shutting down HTTP server")
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return scheduler.Run(gctx)
	})

	g.Go(func() error {
		return listener.Run(gctx)
	})

	if telegramBot != nil {
		botController := controller.NewBotController(telegramBot, userService, logger)
		if err := botController.RegisterHandlers(ctx); err != nil {
			logger.Warn("Bot commands were not registered", zap.Error(err))
		}
		g.Go(func() error {
			return botController.Start(gctx)
		})
	}

	err = g.Wait()
	logger.Info("Campus portal stopped")
	return err
}

func newPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DBDSN)
	if err != nil {
		return nil, err
	}
	poolCfg.MaxConns = cfg.DBMaxConns

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

// newPushSender собирает каналы доставки: FCM и/или Telegram, без FCM уведомления пишутся в лог
func newPushSender(ctx context.Context, cfg *config.Config, telegramBot *bot.Bot, logger *zap.Logger) (service.PushSender, error) {
	var primary service.PushSender
	if cfg.FirebaseCredentialsFile != "" || cfg.FirebaseProjectID != "" {
		client, err := push.NewMessagingClient(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsFile)
		if err != nil {
			return nil, err
		}
		primary = push.NewFCMSender(client, logger)
	} else {
		logger.Warn("Firebase is not configured, web push will only be logged")
		primary = push.NewLogSender(logger)
	}

	var telegram service.PushSender
	if telegramBot != nil {
		telegram = push.NewTelegramSender(telegramBot, logger)
	}

	return push.NewRouter(primary, telegram, logger), nil
}
