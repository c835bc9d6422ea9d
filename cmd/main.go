package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	beginPaymentHandler "github.com/m04kA/stancastle-booking/internal/api/handlers/begin_payment"
	cancelBookingHandler "github.com/m04kA/stancastle-booking/internal/api/handlers/cancel_booking"
	checkEmailHandler "github.com/m04kA/stancastle-booking/internal/api/handlers/check_email"
	createBookingHandler "github.com/m04kA/stancastle-booking/internal/api/handlers/create_booking"
	getAvailabilityHandler "github.com/m04kA/stancastle-booking/internal/api/handlers/get_availability"
	getBookingHandler "github.com/m04kA/stancastle-booking/internal/api/handlers/get_booking"
	stripeWebhookHandler "github.com/m04kA/stancastle-booking/internal/api/handlers/stripe_webhook"
	"github.com/m04kA/stancastle-booking/internal/api/middleware"
	"github.com/m04kA/stancastle-booking/internal/config"
	"github.com/m04kA/stancastle-booking/internal/infra/cache/availability"
	accountRepo "github.com/m04kA/stancastle-booking/internal/infra/storage/account"
	bookingRepo "github.com/m04kA/stancastle-booking/internal/infra/storage/booking"
	paymentEventRepo "github.com/m04kA/stancastle-booking/internal/infra/storage/paymentevent"
	"github.com/m04kA/stancastle-booking/internal/integrations/googlecalendar"
	"github.com/m04kA/stancastle-booking/internal/integrations/mailer"
	"github.com/m04kA/stancastle-booking/internal/integrations/stripegateway"
	"github.com/m04kA/stancastle-booking/internal/integrations/zoom"
	accountsService "github.com/m04kA/stancastle-booking/internal/service/accounts"
	bookingsService "github.com/m04kA/stancastle-booking/internal/service/bookings"
	"github.com/m04kA/stancastle-booking/internal/service/dispatcher"
	beginPaymentUC "github.com/m04kA/stancastle-booking/internal/usecase/begin_payment"
	confirmPaymentUC "github.com/m04kA/stancastle-booking/internal/usecase/confirm_payment"
	createBookingUC "github.com/m04kA/stancastle-booking/internal/usecase/create_booking"
	expirePendingUC "github.com/m04kA/stancastle-booking/internal/usecase/expire_pending"
	getAvailabilityUC "github.com/m04kA/stancastle-booking/internal/usecase/get_availability"
	redispatchPaidUC "github.com/m04kA/stancastle-booking/internal/usecase/redispatch_paid"
	"github.com/m04kA/stancastle-booking/internal/worker/reaper"
	"github.com/m04kA/stancastle-booking/pkg/logger"
	"github.com/m04kA/stancastle-booking/pkg/metrics"
	"github.com/m04kA/stancastle-booking/pkg/txmanager"
)

// availabilityCache кэш слотов: читают availability, сбрасывают все записывающие сценарии
type availabilityCache interface {
	getAvailabilityUC.SlotCache
	Invalidate(ctx context.Context, dates ...time.Time) error
}

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting Stancastle booking service...")
	log.Info("Configuration loaded from config.toml")

	loc, err := cfg.Business.Location()
	if err != nil {
		log.Fatal("Failed to load timezone %q: %v", cfg.Business.Timezone, err)
	}
	schedule, err := cfg.Schedule.WeeklySchedule()
	if err != nil {
		log.Fatal("Failed to build weekly schedule: %v", err)
	}
	catalog := cfg.Catalog()

	// Метрики. Если выключены, пишем в отдельный registry, который никто не читает
	var registerer prometheus.Registerer = prometheus.NewRegistry()
	if cfg.Metrics.Enabled {
		registerer = prometheus.DefaultRegisterer
	}
	metricsCollector := metrics.New(cfg.Metrics.ServiceName, registerer)

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	if err := metricsCollector.RegisterDBStats(db, cfg.Database.DBName); err != nil {
		log.Warn("Failed to register connection pool metrics: %v", err)
	}

	// Кэш доступности (Redis опционален)
	var (
		slotCache   availabilityCache = availability.NoopCache{}
		redisClient *redis.Client
	)
	if cfg.Redis.Enabled() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancelPing := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			// кэш не обязателен: при недоступном Redis промахи просто считаются из БД
			log.Warn("Redis ping failed (addr=%s): %v", cfg.Redis.Addr, err)
		}
		cancelPing()
		slotCache = availability.NewCache(redisClient, time.Duration(cfg.Redis.TTLSeconds)*time.Second)
		log.Info("Availability cache enabled (redis=%s, ttl=%ds)", cfg.Redis.Addr, cfg.Redis.TTLSeconds)
	} else {
		log.Info("Availability cache disabled")
	}

	// Репозитории
	txMgr := txmanager.NewTransactionManager(db)
	bookingRepository := bookingRepo.NewRepository(db)
	accountRepository := accountRepo.NewRepository(db)
	paymentEventRepository := paymentEventRepo.NewRepository(db)

	// Инициализируем интеграционных клиентов
	paymentGateway := stripegateway.NewClient(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, log)

	var calendarClient *googlecalendar.Client
	if cfg.Calendar.Enabled() {
		calendarClient, err = googlecalendar.NewClient(
			context.Background(),
			googlecalendar.Credentials{
				ClientID:     cfg.Calendar.ClientID,
				ClientSecret: cfg.Calendar.ClientSecret,
				RefreshToken: cfg.Calendar.RefreshToken,
			},
			cfg.Calendar.CalendarID,
			loc,
			time.Duration(cfg.Calendar.TimeoutSeconds)*time.Second,
			log,
		)
		if err != nil {
			log.Fatal("Failed to initialize Google Calendar client: %v", err)
		}
		log.Info("Google Calendar enabled (calendar=%s, mirror_events=%t)",
			cfg.Calendar.CalendarID, cfg.Calendar.MirrorEvents)
	} else {
		log.Warn("Google Calendar disabled: availability is computed from the weekly schedule only")
	}

	var zoomClient *zoom.Client
	if cfg.Zoom.Enabled() {
		zoomClient, err = zoom.NewClient(zoom.Config{
			BaseURL:      cfg.Zoom.BaseURL,
			TokenURL:     cfg.Zoom.TokenURL,
			UserID:       cfg.Zoom.UserID,
			AccountID:    cfg.Zoom.AccountID,
			ClientID:     cfg.Zoom.ClientID,
			ClientSecret: cfg.Zoom.ClientSecret,
			AccessToken:  cfg.Zoom.AccessToken,
			Timeout:      time.Duration(cfg.Zoom.TimeoutSeconds) * time.Second,
		}, loc, log)
		if err != nil {
			log.Fatal("Failed to initialize Zoom client: %v", err)
		}
		log.Info("Zoom enabled (oauth=%t)", cfg.Zoom.HasOAuth())
	} else {
		log.Warn("Zoom disabled: paid bookings will not get a meeting link")
	}

	mailSender := buildMailSender(cfg, log)

	// Побочные эффекты после оплаты. Пустые интерфейсы = шаг пропускается
	dispatchOpts := dispatcher.Options{
		Timeout: 2 * time.Minute,
	}
	if zoomClient != nil {
		dispatchOpts.Meetings = zoomClient
	}
	if calendarClient != nil && cfg.Calendar.MirrorEvents {
		dispatchOpts.Calendar = calendarClient
	}
	if mailSender != nil {
		renderer := mailer.NewRenderer(cfg.Email.From, cfg.Email.PrepFormURL, cfg.Email.ContactPhone, loc)
		dispatchOpts.Notifier = mailer.New(mailSender, renderer, log)
	} else {
		log.Warn("Email transport is not configured: confirmation emails are disabled")
	}
	dispatchSvc := dispatcher.NewService(bookingRepository, catalog, metricsCollector, loc, dispatchOpts, log)

	// Инициализируем use cases
	var availabilityCalendar getAvailabilityUC.CalendarClient
	if calendarClient != nil {
		availabilityCalendar = calendarClient
	}
	getAvailabilityUseCase := getAvailabilityUC.NewUseCase(
		schedule,
		bookingRepository,
		availabilityCalendar,
		slotCache,
		metricsCollector,
		getAvailabilityUC.Config{
			Location:          loc,
			MinNoticeMinutes:  cfg.Business.MinBookingNoticeMinutes,
			DefaultRangeDays:  cfg.Business.DefaultRangeDays,
			MaxRangeDays:      cfg.Business.MaxRangeDays,
			CalendarBatchDays: cfg.Calendar.BatchDays,
		},
		log,
	)

	createBookingUseCase := createBookingUC.NewUseCase(
		bookingRepository,
		getAvailabilityUseCase,
		slotCache,
		catalog,
		metricsCollector,
		loc,
		log,
	)

	pendingTTL := time.Duration(cfg.Business.PendingTTLMinutes) * time.Minute
	beginPaymentUseCase := beginPaymentUC.NewUseCase(
		bookingRepository,
		paymentGateway,
		catalog,
		beginPaymentUC.Config{
			SuccessURL:     cfg.Stripe.SuccessURL,
			CancelURL:      cfg.Stripe.CancelURL,
			CheckoutExpiry: time.Duration(cfg.Stripe.CheckoutExpiryMinutes) * time.Minute,
			PendingTTL:     pendingTTL,
		},
		log,
	)

	confirmPaymentUseCase := confirmPaymentUC.NewUseCase(
		paymentGateway,
		bookingRepository,
		paymentEventRepository,
		accountRepository,
		dispatchSvc,
		slotCache,
		txMgr,
		metricsCollector,
		log,
	)

	// Инициализируем сервисы
	bookingSvc := bookingsService.NewService(bookingRepository, slotCache, metricsCollector, log)
	accountSvc := accountsService.NewService(accountRepository, log)

	// Reaper: отмена pending бронирований, которые так и не оплатили
	var reaperWorker *reaper.Worker
	if cfg.Reaper.Enabled {
		expirePendingUseCase, err := expirePendingUC.NewUseCase(bookingRepository, slotCache, metricsCollector, pendingTTL, log)
		if err != nil {
			log.Fatal("Failed to initialize expire pending use case: %v", err)
		}
		var reaperOpts []reaper.Option
		// Без почты notified_at не ставится никогда, повторять нечего
		if dispatchOpts.Notifier != nil {
			redispatchUseCase, err := redispatchPaidUC.NewUseCase(bookingRepository, dispatchSvc, redispatchPaidUC.Options{
				Grace:  time.Duration(cfg.Reaper.RedispatchGraceMinutes) * time.Minute,
				MaxAge: time.Duration(cfg.Reaper.RedispatchMaxAgeHours) * time.Hour,
			}, log)
			if err != nil {
				log.Fatal("Failed to initialize redispatch use case: %v", err)
			}
			reaperOpts = append(reaperOpts, reaper.WithRedispatcher(
				redispatchUseCase,
				time.Duration(cfg.Reaper.RedispatchIntervalSeconds)*time.Second,
			))
		}
		reaperWorker, err = reaper.New(
			expirePendingUseCase,
			time.Duration(cfg.Reaper.IntervalSeconds)*time.Second,
			log,
			reaperOpts...,
		)
		if err != nil {
			log.Fatal("Failed to initialize reaper: %v", err)
		}
		reaperWorker.Start()
		log.Info("Reaper started (interval=%ds, pending_ttl=%s)", cfg.Reaper.IntervalSeconds, pendingTTL)
	}

	// Инициализируем handlers
	getAvailability := getAvailabilityHandler.NewHandler(getAvailabilityUseCase, loc, log)
	createBooking := createBookingHandler.NewHandler(createBookingUseCase, beginPaymentUseCase, log)
	beginPayment := beginPaymentHandler.NewHandler(beginPaymentUseCase, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	cancelBooking := cancelBookingHandler.NewHandler(bookingSvc, log)
	checkEmail := checkEmailHandler.NewHandler(accountSvc, log)
	stripeWebhook := stripeWebhookHandler.NewHandler(confirmPaymentUseCase, log)

	// Настраиваем роутер
	r := mux.NewRouter()
	r.Use(middleware.MetricsMiddleware(metricsCollector))

	// Metrics endpoint (публичный, без аутентификации)
	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// WEBHOOKS (подпись Stripe вместо аутентификации)
	// ============================================================

	api.HandleFunc("/webhooks/stripe", stripeWebhook.Handle).Methods(http.MethodPost)

	// ============================================================
	// CLIENT ROUTES (X-User-ID опционален: гость или аккаунт)
	// ============================================================

	client := api.PathPrefix("").Subrouter()
	client.Use(middleware.OptionalAuth)

	// Свободные слоты
	client.HandleFunc("/availability", getAvailability.Handle).Methods(http.MethodGet)

	// --- Бронирования ---
	// Резерв слота + checkout
	client.HandleFunc("/bookings", createBooking.Handle).Methods(http.MethodPost)

	// Повторный checkout для pending бронирования
	client.HandleFunc("/bookings/{bookingId}/checkout", beginPayment.Handle).Methods(http.MethodPost)

	// Получение бронирования по ID
	client.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)

	// Отмена бронирования
	client.HandleFunc("/bookings/{bookingId}/cancel", cancelBooking.Handle).Methods(http.MethodPatch)

	// --- Аккаунты ---
	client.HandleFunc("/accounts/check-email", checkEmail.Handle).Methods(http.MethodPost)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if reaperWorker != nil {
		if err := reaperWorker.Stop(); err != nil {
			log.Error("Failed to stop reaper: %v", err)
		}
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	// Дожидаемся побочных эффектов уже подтверждённых оплат
	if err := dispatchSvc.Wait(shutdownCtx); err != nil {
		log.Warn("Post-payment dispatch did not finish before shutdown: %v", err)
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close redis client: %v", err)
		}
	}

	log.Info("Server stopped gracefully")
}

// buildMailSender SMTP основной транспорт, SES запасной. nil если ни один не настроен
func buildMailSender(cfg *config.Config, log *logger.Logger) mailer.Sender {
	var smtpSender, sesSender mailer.Sender

	if cfg.Email.SMTP.Enabled() {
		s, err := mailer.NewSMTPSender(mailer.SMTPConfig{
			Host:     cfg.Email.SMTP.Host,
			Port:     cfg.Email.SMTP.Port,
			Username: cfg.Email.SMTP.Username,
			Password: cfg.Email.SMTP.Password,
			Timeout:  time.Duration(cfg.Email.TimeoutSeconds) * time.Second,
		})
		if err != nil {
			log.Fatal("Failed to initialize SMTP sender: %v", err)
		}
		smtpSender = s
		log.Info("SMTP transport enabled (host=%s:%d)", cfg.Email.SMTP.Host, cfg.Email.SMTP.Port)
	}

	if cfg.Email.SES.Enabled {
		s, err := mailer.NewSESSender(context.Background(), cfg.Email.SES.Region)
		if err != nil {
			log.Fatal("Failed to initialize SES sender: %v", err)
		}
		sesSender = s
		log.Info("SES transport enabled (region=%s)", cfg.Email.SES.Region)
	}

	switch {
	case smtpSender != nil && sesSender != nil:
		return mailer.NewFallbackSender(smtpSender, sesSender, log)
	case smtpSender != nil:
		return smtpSender
	default:
		return sesSender
	}
}
