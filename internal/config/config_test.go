package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/youngchun/callforward/internal/types"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := GetDefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.False(t, cfg.IsProduction())
	assert.False(t, cfg.Push.Enabled())
}

func TestValidateRejectsUnknownMode(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Deployment.Mode = types.RunMode("batch")
	assert.Error(t, cfg.Validate())
}

func TestNewConfigReadsEnvironment(t *testing.T) {
	t.Setenv("CALLFORWARD_TWILIO_VOICE_WEBHOOK_URL", "https://example.com/v1/twilio/voice")
	t.Setenv("CALLFORWARD_CRON_SECRET", "s3cret")
	t.Setenv("CALLFORWARD_DEPLOYMENT_ENVIRONMENT", "production")

	cfg, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/v1/twilio/voice", cfg.Twilio.VoiceWebhookURL)
	assert.Equal(t, "s3cret", cfg.Cron.Secret)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "US", cfg.Twilio.Country)
}

func TestGetDSN(t *testing.T) {
	c := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "cf", SSLMode: "disable"}
	assert.Equal(t, "user=u password=p dbname=cf host=db port=5432 sslmode=disable", c.GetDSN())
}
