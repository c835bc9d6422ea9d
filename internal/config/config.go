package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"

	"github.com/m04kA/stancastle-booking/internal/domain"
)

// EnvPrefix префикс переменных окружения, которые перекрывают config.toml
// Например BOOKING_STRIPE_SECRET_KEY, BOOKING_DATABASE_PASSWORD
const EnvPrefix = "BOOKING"

var (
	ErrReadConfig    = errors.New("config: failed to read config file")
	ErrEnvOverlay    = errors.New("config: failed to apply environment overrides")
	ErrInvalidConfig = errors.New("config: invalid configuration")
)

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Logs     LogsConfig     `toml:"logs"`
	Metrics  MetricsConfig  `toml:"metrics"`
	Business BusinessConfig `toml:"business"`
	Schedule ScheduleConfig `toml:"schedule"`
	Redis    RedisConfig    `toml:"redis"`
	Stripe   StripeConfig   `toml:"stripe"`
	Calendar CalendarConfig `toml:"calendar"`
	Zoom     ZoomConfig     `toml:"zoom"`
	Email    EmailConfig    `toml:"email"`
	Reaper   ReaperConfig   `toml:"reaper"`
}

type ServerConfig struct {
	HTTPPort        int `toml:"http_port" split_words:"true"`
	ReadTimeout     int `toml:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host            string `toml:"host" split_words:"true"`
	Port            int    `toml:"port" split_words:"true"`
	User            string `toml:"user" split_words:"true"`
	Password        string `toml:"password" split_words:"true"`
	DBName          string `toml:"dbname" split_words:"true"`
	SSLMode         string `toml:"sslmode" split_words:"true"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"`
}

// DSN строка подключения для lib/pq
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type LogsConfig struct {
	File  string `toml:"file" split_words:"true"`
	Level string `toml:"level" split_words:"true"`
}

type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

type BusinessConfig struct {
	Timezone                string `toml:"timezone"`
	Currency                string `toml:"currency"`
	MinBookingNoticeMinutes int    `toml:"min_booking_notice_minutes"`
	DefaultRangeDays        int    `toml:"default_range_days"`
	MaxRangeDays            int    `toml:"max_range_days"`
	PendingTTLMinutes       int    `toml:"pending_ttl_minutes"`
}

// Location загружает часовой пояс бизнеса
func (c BusinessConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// ScheduleConfig переопределение недельного шаблона
// Ключи days: monday..sunday. Пустой days = шаблон по умолчанию
type ScheduleConfig struct {
	SlotDurationMinutes int                 `toml:"slot_duration_minutes"`
	Days                map[string][]string `toml:"days" ignored:"true"`
}

// WeeklySchedule строит доменный шаблон
func (c ScheduleConfig) WeeklySchedule() (*domain.WeeklySchedule, error) {
	if len(c.Days) == 0 {
		return domain.DefaultWeeklySchedule(), nil
	}

	days := make(map[time.Weekday][]string, len(c.Days))
	for name, slots := range c.Days {
		wd, ok := weekdays[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("%w: unknown weekday %q in [schedule.days]", ErrInvalidConfig, name)
		}
		days[wd] = slots
	}
	return domain.NewWeeklySchedule(c.SlotDurationMinutes, days)
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

type RedisConfig struct {
	Addr       string `toml:"addr" split_words:"true"`
	Password   string `toml:"password" split_words:"true"`
	DB         int    `toml:"db"`
	TTLSeconds int    `toml:"ttl_seconds"`
}

func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

type StripeConfig struct {
	SecretKey             string `toml:"secret_key" split_words:"true"`
	WebhookSecret         string `toml:"webhook_secret" split_words:"true"`
	SuccessURL            string `toml:"success_url" split_words:"true"`
	CancelURL             string `toml:"cancel_url" split_words:"true"`
	CheckoutExpiryMinutes int    `toml:"checkout_expiry_minutes"`
	DiagnosticPriceID     string `toml:"diagnostic_price_id" split_words:"true"`
	PartnerPriceID        string `toml:"partner_price_id" split_words:"true"`
}

// Catalog прайс по умолчанию с валютой бизнеса и price id шлюза, если заданы
func (c *Config) Catalog() domain.Catalog {
	catalog := domain.DefaultCatalog()
	priceIDs := map[domain.ServiceType]string{
		domain.ServiceDiagnostic: c.Stripe.DiagnosticPriceID,
		domain.ServicePartner:    c.Stripe.PartnerPriceID,
	}
	for t, o := range catalog {
		o.Currency = strings.ToLower(c.Business.Currency)
		o.GatewayPriceID = priceIDs[t]
		catalog[t] = o
	}
	return catalog
}

type CalendarConfig struct {
	CalendarID     string `toml:"calendar_id" split_words:"true"`
	ClientID       string `toml:"client_id" split_words:"true"`
	ClientSecret   string `toml:"client_secret" split_words:"true"`
	RefreshToken   string `toml:"refresh_token" split_words:"true"`
	BatchDays      int    `toml:"batch_days"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MirrorEvents   bool   `toml:"mirror_events"`
}

// Enabled календарь опционален: без учётных данных работаем только по шаблону
func (c CalendarConfig) Enabled() bool {
	return c.CalendarID != "" && c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
}

type ZoomConfig struct {
	AccessToken    string `toml:"access_token" split_words:"true"`
	AccountID      string `toml:"account_id" split_words:"true"`
	ClientID       string `toml:"client_id" split_words:"true"`
	ClientSecret   string `toml:"client_secret" split_words:"true"`
	BaseURL        string `toml:"base_url"`
	TokenURL       string `toml:"token_url"`
	UserID         string `toml:"user_id"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// HasOAuth server-to-server OAuth (account_credentials)
func (c ZoomConfig) HasOAuth() bool {
	return c.AccountID != "" && c.ClientID != "" && c.ClientSecret != ""
}

func (c ZoomConfig) Enabled() bool {
	return c.AccessToken != "" || c.HasOAuth()
}

type EmailConfig struct {
	From           string     `toml:"from" split_words:"true"`
	PrepFormURL    string     `toml:"prep_form_url"`
	ContactPhone   string     `toml:"contact_phone"`
	TimeoutSeconds int        `toml:"timeout_seconds"`
	SMTP           SMTPConfig `toml:"smtp"`
	SES            SESConfig  `toml:"ses"`
}

type SMTPConfig struct {
	Host     string `toml:"host" split_words:"true"`
	Port     int    `toml:"port" split_words:"true"`
	Username string `toml:"username" split_words:"true"`
	Password string `toml:"password" split_words:"true"`
}

func (c SMTPConfig) Enabled() bool {
	return c.Host != ""
}

type SESConfig struct {
	Enabled bool   `toml:"enabled" split_words:"true"`
	Region  string `toml:"region" split_words:"true"`
}

type ReaperConfig struct {
	Enabled         bool `toml:"enabled"`
	IntervalSeconds int  `toml:"interval_seconds"`
	// Повторная отправка уведомлений по оплаченным бронированиям без notified_at
	RedispatchIntervalSeconds int `toml:"redispatch_interval_seconds"`
	RedispatchGraceMinutes    int `toml:"redispatch_grace_minutes"`
	RedispatchMaxAgeHours     int `toml:"redispatch_max_age_hours"`
}

// Load читает TOML, накладывает переменные окружения BOOKING_*, заполняет
// значения по умолчанию и валидирует результат
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrReadConfig, path, err)
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEnvOverlay, err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	setDefault(&c.Server.HTTPPort, 8080)
	setDefault(&c.Server.ReadTimeout, 10)
	setDefault(&c.Server.WriteTimeout, 30)
	setDefault(&c.Server.IdleTimeout, 60)
	setDefault(&c.Server.ShutdownTimeout, 15)

	setDefault(&c.Database.Port, 5432)
	setDefault(&c.Database.MaxOpenConns, 20)
	setDefault(&c.Database.MaxIdleConns, 5)
	setDefault(&c.Database.ConnMaxLifetime, 300)
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}

	if c.Logs.Level == "" {
		c.Logs.Level = "info"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Metrics.ServiceName == "" {
		c.Metrics.ServiceName = "stancastle_booking"
	}

	if c.Business.Timezone == "" {
		c.Business.Timezone = domain.BusinessTimezone
	}
	if c.Business.Currency == "" {
		c.Business.Currency = domain.DefaultCurrency
	}
	setDefault(&c.Business.MinBookingNoticeMinutes, domain.DefaultMinBookingNoticeMinutes)
	setDefault(&c.Business.DefaultRangeDays, domain.DefaultAvailabilityRangeDays)
	setDefault(&c.Business.MaxRangeDays, domain.DefaultMaxAvailabilityDays)
	setDefault(&c.Business.PendingTTLMinutes, domain.DefaultPendingTTLMinutes)

	setDefault(&c.Schedule.SlotDurationMinutes, domain.DefaultSlotDurationMinutes)

	setDefault(&c.Redis.TTLSeconds, 30)

	setDefault(&c.Stripe.CheckoutExpiryMinutes, 30)

	setDefault(&c.Calendar.BatchDays, 7)
	setDefault(&c.Calendar.TimeoutSeconds, 5)

	if c.Zoom.BaseURL == "" {
		c.Zoom.BaseURL = "https://api.zoom.us/v2"
	}
	if c.Zoom.TokenURL == "" {
		c.Zoom.TokenURL = "https://zoom.us/oauth/token"
	}
	if c.Zoom.UserID == "" {
		c.Zoom.UserID = "me"
	}
	setDefault(&c.Zoom.TimeoutSeconds, 10)

	setDefault(&c.Email.TimeoutSeconds, 15)
	setDefault(&c.Email.SMTP.Port, 587)
	if c.Email.PrepFormURL == "" {
		c.Email.PrepFormURL = "https://stancastle.com/prep"
	}

	setDefault(&c.Reaper.IntervalSeconds, 300)
	setDefault(&c.Reaper.RedispatchIntervalSeconds, 300)
	setDefault(&c.Reaper.RedispatchGraceMinutes, 10)
	setDefault(&c.Reaper.RedispatchMaxAgeHours, 24)
}

// Validate обязательны только платёжные настройки, остальные интеграции опциональны
func (c *Config) Validate() error {
	var problems []string

	if c.Stripe.SecretKey == "" {
		problems = append(problems, "stripe.secret_key is required")
	}
	if c.Stripe.WebhookSecret == "" {
		problems = append(problems, "stripe.webhook_secret is required")
	}
	if c.Stripe.SuccessURL == "" || c.Stripe.CancelURL == "" {
		problems = append(problems, "stripe.success_url and stripe.cancel_url are required")
	}
	// Stripe не принимает expires_at ближе 30 минут
	if c.Stripe.CheckoutExpiryMinutes < 30 {
		problems = append(problems, "stripe.checkout_expiry_minutes must be at least 30")
	}
	if c.Business.PendingTTLMinutes < c.Stripe.CheckoutExpiryMinutes {
		problems = append(problems, "business.pending_ttl_minutes must not be shorter than stripe.checkout_expiry_minutes")
	}
	if _, err := c.Business.Location(); err != nil {
		problems = append(problems, fmt.Sprintf("business.timezone: %v", err))
	}
	if c.Business.DefaultRangeDays > c.Business.MaxRangeDays {
		problems = append(problems, "business.default_range_days exceeds business.max_range_days")
	}
	if _, err := c.Schedule.WeeklySchedule(); err != nil {
		problems = append(problems, fmt.Sprintf("schedule: %v", err))
	}
	if c.Email.SES.Enabled && c.Email.SES.Region == "" {
		problems = append(problems, "email.ses.region is required when SES is enabled")
	}
	// grace перекрывает таймаут фоновой отправки, иначе повтор пойдёт параллельно с ней
	if c.Reaper.RedispatchGraceMinutes < 5 {
		problems = append(problems, "reaper.redispatch_grace_minutes must be at least 5")
	}
	if c.Reaper.RedispatchGraceMinutes >= c.Reaper.RedispatchMaxAgeHours*60 {
		problems = append(problems, "reaper.redispatch_grace_minutes must be shorter than reaper.redispatch_max_age_hours")
	}
	if (c.Email.SMTP.Enabled() || c.Email.SES.Enabled) && c.Email.From == "" {
		problems = append(problems, "email.from is required when an email transport is configured")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

func setDefault(v *int, def int) {
	if *v == 0 {
		*v = def
	}
}
