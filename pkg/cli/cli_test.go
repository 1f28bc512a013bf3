package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telekom/paper-digest/pkg/mail"
	"github.com/telekom/paper-digest/pkg/system"
)

// clearEnv unsets every variable the config reads for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		EnvRecipientsConfig, EnvRecipient, EnvSMTPServer, EnvSMTPPort, EnvSMTPUser,
		EnvSMTPPassword, EnvEmailFrom, EnvInsecureSkipVerify, EnvPushgateway, EnvDebug,
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func parseFlags(t *testing.T, args ...string) *Config {
	t.Helper()
	cfg := &Config{}
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.BindFlags(fs)
	require.NoError(t, fs.Parse(args))
	cfg.EnvFile = filepath.Join(t.TempDir(), "missing.env")
	return cfg
}

func TestGetEnvString(t *testing.T) {
	t.Setenv("DIGEST_TEST_ENV", "custom-value")

	if got := getEnvString("DIGEST_TEST_ENV", "default"); got != "custom-value" {
		t.Fatalf("expected env override, got %s", got)
	}
	if got := getEnvString("DIGEST_UNKNOWN_ENV", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %s", got)
	}

	t.Setenv("DIGEST_EMPTY_ENV", "")
	if got := getEnvString("DIGEST_EMPTY_ENV", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback for empty value, got %s", got)
	}
}

func TestGetEnvBool(t *testing.T) {
	trueValues := []string{"true", "TRUE", "True", "1", "yes", "YES"}
	for _, val := range trueValues {
		t.Run(val, func(t *testing.T) {
			t.Setenv("TEST_BOOL", val)
			assert.True(t, getEnvBool("TEST_BOOL", false), "expected true for %q", val)
		})
	}

	t.Run("invalid falls back", func(t *testing.T) {
		t.Setenv("TEST_BOOL", "sometimes")
		assert.True(t, getEnvBool("TEST_BOOL", true))
	})
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("TEST_INT", " 465 ")
	n, err := getEnvInt("TEST_INT", 587)
	require.NoError(t, err)
	assert.Equal(t, 465, n)

	n, err = getEnvInt("TEST_INT_MISSING", 587)
	require.NoError(t, err)
	assert.Equal(t, 587, n)

	t.Setenv("TEST_INT", "not-a-port")
	_, err = getEnvInt("TEST_INT", 587)
	assert.Error(t, err)
}

func TestBindFlags_Defaults(t *testing.T) {
	cfg := parseFlags(t)
	assert.Equal(t, []string{"sign language"}, cfg.Keywords)
	assert.Empty(t, cfg.DataPath)
	assert.False(t, cfg.Debug)
}

func TestBindFlags_RepeatedKeywordsReplaceDefault(t *testing.T) {
	cfg := parseFlags(t, "--data", "papers.jsonl", "--keywords", "asl", "--keywords", "gesture, pose")
	assert.Equal(t, []string{"asl", "gesture, pose"}, cfg.Keywords)
	assert.Equal(t, "papers.jsonl", cfg.DataPath)
}

func TestLoadEnv_SMTPDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvSMTPUser, "bot@example.com")
	t.Setenv(EnvSMTPPassword, "secret")

	cfg := parseFlags(t, "--data", "papers.jsonl")
	require.NoError(t, cfg.LoadEnv())

	assert.Equal(t, mail.DefaultHost, cfg.SMTP.Host)
	assert.Equal(t, mail.DefaultPort, cfg.SMTP.Port)
	assert.Equal(t, "bot@example.com", cfg.SMTP.From, "from defaults to the SMTP user")
	assert.NotEmpty(t, cfg.Date)
	assert.NoError(t, cfg.ValidateCredentials())
}

func TestLoadEnv_FlagsBeatEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvRecipient, "env@example.com")
	t.Setenv(EnvPushgateway, "http://env-gateway:9091")
	t.Setenv(EnvRecipientsConfig, `[{"email":"a@example.com"}]`)

	cfg := parseFlags(t, "--to-email", "flag@example.com", "--metrics-pushgateway", "http://flag:9091", "--date", "2026-01-01")
	require.NoError(t, cfg.LoadEnv())

	assert.Equal(t, "flag@example.com", cfg.ToEmail)
	assert.Equal(t, "http://flag:9091", cfg.MetricsPushgateway)
	assert.Equal(t, "2026-01-01", cfg.Date)

	src := cfg.RecipientSources()
	assert.Equal(t, `[{"email":"a@example.com"}]`, src.EnvConfig)
	assert.Equal(t, "flag@example.com", src.LegacyEmail)
	assert.Equal(t, []string{"sign language"}, src.LegacyKeywords)
}

func TestLoadEnv_DotEnvFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvSMTPUser, "process@example.com")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SMTP_USER=file@example.com\nSMTP_PASSWORD=from-file\nSMTP_PORT=465\nEMAIL_FROM=digest@example.com\n"), 0o600))

	cfg := parseFlags(t)
	cfg.EnvFile = path
	require.NoError(t, cfg.LoadEnv())

	assert.Equal(t, "process@example.com", cfg.SMTP.Username, "process environment wins over dotenv")
	assert.Equal(t, "from-file", cfg.SMTP.Password)
	assert.Equal(t, 465, cfg.SMTP.Port)
	assert.Equal(t, "digest@example.com", cfg.SMTP.From)
}

func TestLoadEnv_InvalidPort(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvSMTPPort, "smtp")

	cfg := parseFlags(t)
	assert.Error(t, cfg.LoadEnv())
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	assert.ErrorIs(t, cfg.ValidateInput(), ErrMissingDataPath)
	assert.ErrorIs(t, cfg.ValidateCredentials(), ErrMissingCredentials)

	cfg.DataPath = "papers.jsonl"
	cfg.SMTP.Username = "user"
	assert.NoError(t, cfg.ValidateInput())
	assert.ErrorIs(t, cfg.ValidateCredentials(), ErrMissingCredentials)

	cfg.SMTP.Password = "secret"
	assert.NoError(t, cfg.ValidateCredentials())
}

func TestConfig_Print(t *testing.T) {
	cfg := &Config{DataPath: "papers.jsonl", SMTP: mail.SMTPConfig{Password: "secret"}}
	// This should not panic
	cfg.Print(system.NewTestLogger(t))
}
