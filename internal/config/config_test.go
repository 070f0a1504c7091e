package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()

	for key, value := range map[string]string{
		"DATABASE_DSN":           "postgres://localhost:5432/volunteer_shifts",
		"INITIAL_ADMIN_EMAIL":    "admin@example.com",
		"INITIAL_ADMIN_PASSWORD": "secret",
		"JWT_SECRET":             "secret",
		"SEED_USER_PASSWORD":     "secret",
		"EMAIL_ADMIN_ADDRESS":    "admin@example.com",
		"EMAIL_SMTP_USERNAME":    "mailer",
		"EMAIL_SMTP_PASSWORD":    "secret",
		"EMAIL_SMTP_HOST":        "smtp.example.com",
		"RABBITMQ_DSN":           "amqp://localhost:5672",
		"REDIS_PASSWORD":         "secret",
	} {
		t.Setenv(key, value)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "Asia/Shanghai", cfg.Shift.Timezone)
	assert.Equal(t, 24, cfg.Shift.CancelBlackoutHours)
	assert.Equal(t, 14, cfg.Invite.ExpirationDays)
	assert.Equal(t, 4, cfg.Stats.ActiveMinHours)
}

func TestLoadConfigRejectsUnparsableValue(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DATABASE_QUERY_TIMEOUT", "十秒")

	cfg, err := LoadConfig()
	assert.Error(t, err)
	assert.Nil(t, cfg)
}
