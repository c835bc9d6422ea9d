package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/stancastle-booking/pkg/types"
)

const minimalTOML = `
[database]
host = "localhost"
user = "booking"
dbname = "booking"

[stripe]
secret_key = "sk_test_from_file"
webhook_secret = "whsec_from_file"
success_url = "https://stancastle.com/booking/success"
cancel_url = "https://stancastle.com/booking/cancel"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalTOML))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, "Europe/London", cfg.Business.Timezone)
	assert.Equal(t, 21, cfg.Business.DefaultRangeDays)
	assert.Equal(t, 60, cfg.Business.PendingTTLMinutes)
	assert.Equal(t, 30, cfg.Stripe.CheckoutExpiryMinutes)
	assert.Equal(t, 7, cfg.Calendar.BatchDays)
	assert.Equal(t, 10, cfg.Reaper.RedispatchGraceMinutes)
	assert.Equal(t, 24, cfg.Reaper.RedispatchMaxAgeHours)
	assert.Equal(t, "https://zoom.us/oauth/token", cfg.Zoom.TokenURL)
	assert.False(t, cfg.Calendar.Enabled())
	assert.False(t, cfg.Zoom.Enabled())
	assert.False(t, cfg.Redis.Enabled())

	assert.Contains(t, cfg.Database.DSN(), "dbname=booking")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("BOOKING_STRIPE_SECRET_KEY", "sk_test_from_env")
	t.Setenv("BOOKING_DATABASE_PASSWORD", "s3cret")
	t.Setenv("BOOKING_ZOOM_ACCESS_TOKEN", "zoom-static")
	t.Setenv("BOOKING_SERVER_HTTP_PORT", "9090")

	cfg, err := Load(writeConfig(t, minimalTOML))
	require.NoError(t, err)

	assert.Equal(t, "sk_test_from_env", cfg.Stripe.SecretKey)
	assert.Equal(t, "whsec_from_file", cfg.Stripe.WebhookSecret)
	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, 9090, cfg.Server.HTTPPort)
	assert.True(t, cfg.Zoom.Enabled())
	assert.False(t, cfg.Zoom.HasOAuth())
}

func TestLoad_MissingPaymentCredentials(t *testing.T) {
	_, err := Load(writeConfig(t, `
[database]
host = "localhost"
`))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.ErrorIs(t, err, ErrReadConfig)
}

func TestLoad_PendingTTLShorterThanCheckoutExpiry(t *testing.T) {
	_, err := Load(writeConfig(t, minimalTOML+`
[business]
pending_ttl_minutes = 15
`))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad_RedispatchGraceBeyondMaxAge(t *testing.T) {
	_, err := Load(writeConfig(t, minimalTOML+`
[reaper]
redispatch_grace_minutes = 120
redispatch_max_age_hours = 1
`))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestScheduleConfig_Override(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalTOML+`
[schedule]
slot_duration_minutes = 60

[schedule.days]
monday = ["10:00", "09:00"]
friday = ["16:00"]
`))
	require.NoError(t, err)

	schedule, err := cfg.Schedule.WeeklySchedule()
	require.NoError(t, err)

	monday := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, []types.TimeString{"09:00", "10:00"}, schedule.SlotsForDate(monday))
	assert.Empty(t, schedule.SlotsForDate(monday.AddDate(0, 0, 2)))
	assert.Equal(t, 60, schedule.SlotDurationMinutes())
}

func TestScheduleConfig_UnknownWeekday(t *testing.T) {
	_, err := ScheduleConfig{
		SlotDurationMinutes: 90,
		Days:                map[string][]string{"funday": {"10:00"}},
	}.WeeklySchedule()
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfig_CatalogAppliesPriceIDs(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalTOML+`
diagnostic_price_id = "price_diag"
`))
	require.NoError(t, err)

	catalog := cfg.Catalog()
	diag, err := catalog.Lookup("diagnostic")
	require.NoError(t, err)
	assert.Equal(t, "price_diag", diag.GatewayPriceID)
	assert.Equal(t, "gbp", diag.Currency)
	assert.Equal(t, int64(15999), diag.PriceMinor)

	partner, err := catalog.Lookup("partner")
	require.NoError(t, err)
	assert.Empty(t, partner.GatewayPriceID)
	assert.True(t, partner.IsRecurring())
}
