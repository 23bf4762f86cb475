package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "CORS_ALLOWED_ORIGINS", "STORE_DRIVER", "DATABASE_URL", "SQLITE_PATH",
		"COMPLETION_PROVIDER", "COMPLETION_TIMEOUT", "ARK_API_KEY", "ARK_ACCESS_KEY",
		"ARK_SECRET_KEY", "ARK_MODEL", "ARK_TEMPERATURE", "ARK_TOP_P", "ARK_MAX_TOKENS",
		"GEMINI_API_KEY", "GEMINI_MODEL", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, defaultAllowedOrigins, cfg.Server.AllowedOrigins)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, "quickchat.db", cfg.Store.SQLitePath)
	assert.Equal(t, ProviderArk, cfg.AI.Provider)
	assert.Equal(t, DefaultCompletionTimeout, cfg.AI.Timeout)
	assert.Equal(t, "gemini-2.0-flash", cfg.AI.GeminiModel)
	assert.Equal(t, zapcore.InfoLevel, cfg.Log.Level)
	assert.False(t, cfg.AI.Enabled())
}

func TestLoadServerConfig(t *testing.T) {
	t.Run("bare port", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PORT", "5000")
		cfg, err := loadServerConfig()
		require.NoError(t, err)
		assert.Equal(t, ":5000", cfg.Addr)
	})

	t.Run("host and port", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PORT", "127.0.0.1:9000")
		cfg, err := loadServerConfig()
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	})

	t.Run("invalid port", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PORT", "80 80")
		_, err := loadServerConfig()
		assert.Error(t, err)
	})

	t.Run("origins list", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CORS_ALLOWED_ORIGINS", " https://chat.example.com , ,http://localhost:3000")
		cfg, err := loadServerConfig()
		require.NoError(t, err)
		assert.Equal(t, []string{"https://chat.example.com", "http://localhost:3000"}, cfg.AllowedOrigins)
	})
}

func TestLoadStoreConfig(t *testing.T) {
	t.Run("database url selects postgres", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DATABASE_URL", "postgres://localhost/quickchat")
		cfg, err := loadStoreConfig()
		require.NoError(t, err)
		assert.Equal(t, DriverPostgres, cfg.Driver)
	})

	t.Run("explicit sqlite", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("STORE_DRIVER", "SQLite")
		t.Setenv("SQLITE_PATH", "/tmp/chat.db")
		cfg, err := loadStoreConfig()
		require.NoError(t, err)
		assert.Equal(t, DriverSQLite, cfg.Driver)
		assert.Equal(t, "/tmp/chat.db", cfg.SQLitePath)
	})

	t.Run("postgres without url", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("STORE_DRIVER", "postgres")
		_, err := loadStoreConfig()
		assert.Error(t, err)
	})

	t.Run("unknown driver", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("STORE_DRIVER", "mongo")
		_, err := loadStoreConfig()
		assert.Error(t, err)
	})
}

func TestLoadAIConfig(t *testing.T) {
	t.Run("ark credentials", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ARK_API_KEY", "ark-key")
		t.Setenv("ARK_MODEL", "doubao-pro")
		t.Setenv("ARK_TEMPERATURE", "0.7")
		t.Setenv("ARK_MAX_TOKENS", "512")
		cfg, err := loadAIConfig()
		require.NoError(t, err)
		assert.True(t, cfg.Enabled())
		require.NotNil(t, cfg.Temperature)
		assert.InDelta(t, 0.7, *cfg.Temperature, 1e-9)
		require.NotNil(t, cfg.MaxTokens)
		assert.Equal(t, 512, *cfg.MaxTokens)
	})

	t.Run("ark access key pair", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ARK_ACCESS_KEY", "ak")
		t.Setenv("ARK_SECRET_KEY", "sk")
		t.Setenv("ARK_MODEL", "doubao-pro")
		cfg, err := loadAIConfig()
		require.NoError(t, err)
		assert.True(t, cfg.Enabled())
	})

	t.Run("gemini provider", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("COMPLETION_PROVIDER", "gemini")
		t.Setenv("GEMINI_API_KEY", "g-key")
		cfg, err := loadAIConfig()
		require.NoError(t, err)
		assert.Equal(t, ProviderGemini, cfg.Provider)
		assert.True(t, cfg.Enabled())
	})

	t.Run("custom timeout", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("COMPLETION_TIMEOUT", "5")
		cfg, err := loadAIConfig()
		require.NoError(t, err)
		assert.Equal(t, 5*time.Second, cfg.Timeout)
	})

	t.Run("non-positive timeout", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("COMPLETION_TIMEOUT", "0")
		_, err := loadAIConfig()
		assert.Error(t, err)
	})

	t.Run("malformed temperature", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ARK_TEMPERATURE", "warm")
		_, err := loadAIConfig()
		assert.Error(t, err)
	})

	t.Run("unknown provider", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("COMPLETION_PROVIDER", "openai")
		_, err := loadAIConfig()
		assert.Error(t, err)
	})
}

func TestNewChatModelRequiresArkCredentials(t *testing.T) {
	cfg := AIConfig{Provider: ProviderArk}
	_, err := cfg.NewChatModel(context.Background())
	assert.Error(t, err)

	gemini := AIConfig{Provider: ProviderGemini, GeminiAPIKey: "k", GeminiModel: "m"}
	_, err = gemini.NewChatModel(context.Background())
	assert.Error(t, err)
}

func TestLoadLogConfig(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_LEVEL", "debug")
	cfg, err := loadLogConfig()
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, cfg.Level)

	t.Setenv("LOG_LEVEL", "chatty")
	_, err = loadLogConfig()
	assert.Error(t, err)
}
