package config_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/stockledger/internal/pkg/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")

	cfg, err := config.Load(discardLogger())
	require.NoError(t, err)

	assert.Equal(t, "stockledger", cfg.App.Name)
	assert.Equal(t, "test", cfg.App.Environment)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, int32(25), cfg.Database.MaxConnections)
	assert.Equal(t, 5*time.Second, cfg.Ledger.SaveTimeout)
	assert.Equal(t, 30*time.Second, cfg.Ledger.DashboardCacheTTL)
	assert.Equal(t, []string{"*"}, cfg.Security.AllowedOrigins)
	assert.Equal(t, map[string]int{"critical": 6, "default": 3, "low": 1}, cfg.Asynq.Queues)
	assert.Equal(t, "localhost:6379", cfg.Asynq.RedisAddr)
	assert.Equal(t, "0.0.0.0:8080", cfg.GetServerAddress())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_MAX_CONNECTIONS", "40")
	t.Setenv("LEDGER_SAVE_TIMEOUT", "750ms")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("ASYNQ_QUEUES", "ledger:5,alerts:2,bogus")

	cfg, err := config.Load(discardLogger())
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, int32(40), cfg.Database.MaxConnections)
	assert.Equal(t, 750*time.Millisecond, cfg.Ledger.SaveTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Security.AllowedOrigins)
	assert.Equal(t, map[string]int{"ledger": 5, "alerts": 2}, cfg.Asynq.Queues)
}

func TestLoad_ValidationFails(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_MIN_CONNECTIONS", "50")

	_, err := config.Load(discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_connections")
}

func validConfig() *config.Config {
	v := viper.New()
	v.Set("APP_ENV", "test")
	v.Set("SECRETS_PROVIDER", "env")
	v.Set("DB_HOST", "localhost")
	v.Set("DB_NAME", "stockledger")
	v.Set("DB_MAX_CONNECTIONS", 10)
	v.Set("DB_MIN_CONNECTIONS", 1)
	v.Set("REDIS_POOL_SIZE", 5)
	v.Set("RATE_LIMIT_REQUESTS", 10)
	v.Set("LEDGER_SAVE_TIMEOUT", time.Second)
	v.Set("LEDGER_IMPORT_MAX_SIZE_MB", 5)
	v.Set("STORAGE_PROVIDER", "s3")
	v.Set("AWS_S3_BUCKET", "bucket")
	v.Set("SERVER_PORT", "8080")
	return config.FromViper(v)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*config.Config) {}},
		{
			name:    "missing_db_host",
			mutate:  func(c *config.Config) { c.Database.Host = "" },
			wantErr: "Database.Host",
		},
		{
			name:    "missing_port",
			mutate:  func(c *config.Config) { c.Server.Port = "" },
			wantErr: "Server.Port",
		},
		{
			name:    "zero_save_timeout",
			mutate:  func(c *config.Config) { c.Ledger.SaveTimeout = 0 },
			wantErr: "save_timeout",
		},
		{
			name:    "unknown_storage",
			mutate:  func(c *config.Config) { c.Storage.Provider = "ftp" },
			wantErr: "unknown storage provider",
		},
		{
			name: "local_storage_needs_path",
			mutate: func(c *config.Config) {
				c.Storage.Provider = "local"
				c.Storage.LocalPath = ""
			},
			wantErr: "Storage.LocalPath",
		},
		{
			name:    "unknown_secrets_provider",
			mutate:  func(c *config.Config) { c.App.SecretsProvider = "vault" },
			wantErr: "unknown secrets provider",
		},
		{
			name: "production_rejects_wildcard_origin",
			mutate: func(c *config.Config) {
				c.App.Environment = "production"
				c.Database.Password = "s3cret"
				c.Database.SSLMode = "require"
				c.Security.SecureHeaders = true
				c.Security.AllowedOrigins = []string{"*"}
			},
			wantErr: "wildcard origin",
		},
		{
			name: "production_rejects_plain_db",
			mutate: func(c *config.Config) {
				c.App.Environment = "production"
				c.Database.Password = "s3cret"
				c.Database.SSLMode = "disable"
			},
			wantErr: "SSL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

type fakeSecretsAPI struct {
	calls  int
	secret *string
	err    error
}

func (f *fakeSecretsAPI) GetSecretValue(_ context.Context, _ *secretsmanager.GetSecretValueInput,
	_ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: f.secret}, nil
}

func TestAWSSecretsManager(t *testing.T) {
	ctx := context.Background()

	t.Run("applies_and_caches", func(t *testing.T) {
		api := &fakeSecretsAPI{secret: aws.String(`{"DB_PASSWORD":"from-aws","REDIS_PASSWORD":"redis-aws"}`)}
		sm := config.NewAWSSecretsManagerWithClient(api, "stockledger/test", discardLogger())

		cfg := validConfig()
		require.NoError(t, config.ApplySecrets(ctx, cfg, sm))
		assert.Equal(t, "from-aws", cfg.Database.Password)
		assert.Equal(t, "redis-aws", cfg.Redis.Password)
		assert.Equal(t, "redis-aws", cfg.Asynq.RedisPassword)

		val, err := sm.GetSecret(ctx, config.SecretDBPassword)
		require.NoError(t, err)
		assert.Equal(t, "from-aws", val)
		assert.Equal(t, 1, api.calls)

		require.NoError(t, sm.RefreshSecrets(ctx))
		assert.Equal(t, 2, api.calls)
	})

	t.Run("missing_key", func(t *testing.T) {
		api := &fakeSecretsAPI{secret: aws.String(`{"OTHER":"x"}`)}
		sm := config.NewAWSSecretsManagerWithClient(api, "stockledger/test", discardLogger())

		_, err := sm.GetSecret(ctx, config.SecretDBPassword)
		assert.Error(t, err)
	})

	t.Run("api_error", func(t *testing.T) {
		api := &fakeSecretsAPI{err: errors.New("access denied")}
		sm := config.NewAWSSecretsManagerWithClient(api, "stockledger/test", discardLogger())

		cfg := validConfig()
		err := config.ApplySecrets(ctx, cfg, sm)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "access denied")
	})
}

func TestEnvSecretsManager(t *testing.T) {
	t.Setenv(config.SecretDBPassword, "from-env")

	cfg := validConfig()
	require.NoError(t, config.ApplySecrets(context.Background(), cfg, config.NewEnvSecretsManager()))
	assert.Equal(t, "from-env", cfg.Database.Password)
}
