package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/zzp-facturatie-api/pkg/config"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Sweep.ReminderWindowDays)
	assert.Equal(t, 15*time.Second, cfg.Sweep.ItemTimeout)
	assert.Equal(t, 25, cfg.DB.MaxConns)
	assert.False(t, cfg.DB.ForceIPv4)
	assert.Equal(t, 30*time.Second, cfg.DB.StatementTimeout)
	assert.True(t, cfg.Pwned.Enabled)
}

func TestLoad_VariablesDeEntornoTienenPrioridad(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("CRON_SECRET", "s3cr3t")
	t.Setenv("REMINDER_WINDOW_DAYS", "5")
	t.Setenv("SWEEP_ITEM_TIMEOUT", "30s")
	t.Setenv("PWNED_CHECK_ENABLED", "false")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", cfg.Sweep.CronSecret)
	assert.Equal(t, 5, cfg.Sweep.ReminderWindowDays)
	assert.Equal(t, 30*time.Second, cfg.Sweep.ItemTimeout)
	assert.False(t, cfg.Pwned.Enabled)
}

func TestLoad_ProductionSinJWTSecretFalla(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := config.Load()
	require.Error(t, err)
}

func TestDSN_EscapaLaContrasena(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "zzp", Password: "p@ss:w/rd", DBName: "facturen", SSLMode: "disable"}
	assert.Equal(t, "postgres://zzp:p%40ss%3Aw%2Frd@db:5432/facturen?sslmode=disable", c.DSN())
}
