package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")

	cfg := Load()

	require.Equal(t, "swapyard-api", cfg.AppName)
	require.Equal(t, "8000", cfg.Port)
	require.Equal(t, 15*time.Minute, cfg.AccessTTL)
	require.Equal(t, 72*time.Hour, cfg.RefreshTTL)
	require.Equal(t, 24*time.Hour, cfg.VerifyTokenTTL)
	require.Equal(t, time.Hour, cfg.ResetTokenTTL)
	require.Equal(t, "test-secret", cfg.JWTSecretKey)
	require.Equal(t, "db/migrations", cfg.MigrationsDir)
}

func TestLoadWithoutSecret(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "")

	// worker and seed commands load config without a JWT secret
	cfg := Load()
	require.Empty(t, cfg.JWTSecretKey)
	require.Equal(t, "swapyard-api", cfg.AppName)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	t.Setenv("JWT_REFRESH_TTL", "48h")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_NAME", "market")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("ELASTICSEARCH_ADDRS", "http://es1:9200,http://es2:9200")

	cfg := Load()

	require.Equal(t, 48*time.Hour, cfg.RefreshTTL)
	require.Equal(t, "postgres://app:pw@db.internal:5432/market?sslmode=disable", cfg.PostgresDSN())
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins())
	require.Equal(t, []string{"http://es1:9200", "http://es2:9200"}, cfg.ESAddrs())
}
