package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/telekom/paper-digest/pkg/mail"
	"github.com/telekom/paper-digest/pkg/recipients"
)

// Environment variables read by the binary.
const (
	EnvRecipientsConfig   = "EMAIL_RECIPIENTS_CONFIG"
	EnvRecipient          = "EMAIL_RECIPIENT"
	EnvSMTPServer         = "SMTP_SERVER"
	EnvSMTPPort           = "SMTP_PORT"
	EnvSMTPUser           = "SMTP_USER"
	EnvSMTPPassword       = "SMTP_PASSWORD"
	EnvEmailFrom          = "EMAIL_FROM"
	EnvInsecureSkipVerify = "SMTP_INSECURE_SKIP_VERIFY"
	EnvPushgateway        = "METRICS_PUSHGATEWAY_URL"
	EnvDebug              = "DIGEST_DEBUG"
)

// DefaultKeywords is used by the legacy single-recipient mode when no
// --keywords flag is given.
var DefaultKeywords = []string{"sign language"}

var (
	ErrMissingDataPath    = errors.New("dataset path is required (--data)")
	ErrMissingCredentials = errors.New("SMTP_USER and SMTP_PASSWORD must be set")
)

// Config is built once at startup and passed down explicitly; nothing reads the
// environment after LoadEnv.
type Config struct {
	// Application flags
	Debug   bool
	EnvFile string

	// Digest input
	DataPath string
	Keywords []string
	Date     string

	// Recipient sources, in order of precedence
	RecipientsConfig    string
	RecipientsConfigEnv string
	ToEmail             string

	// Metrics
	MetricsPushgateway string

	SMTP mail.SMTPConfig
}

// BindFlags registers the command-line flags on fs.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.DataPath, "data", "", "Path to the AI-enhanced JSONL dataset")
	fs.StringArrayVar(&c.Keywords, "keywords", DefaultKeywords,
		"Keyword used by the legacy single recipient; repeat the flag or separate with ';' or ','")
	fs.StringVar(&c.RecipientsConfig, "recipients-config", "",
		"Recipients as inline JSON or a path to a JSON file: [{\"email\": ..., \"keywords\": ...}]")
	fs.StringVar(&c.ToEmail, "to-email", "", "Single recipient address (overrides "+EnvRecipient+")")
	fs.StringVar(&c.Date, "date", "", "Date shown in the digest (default: today, YYYY-MM-DD)")
	fs.StringVar(&c.EnvFile, "env-file", ".env", "Optional dotenv file loaded before reading the environment")
	fs.BoolVar(&c.Debug, "debug", false, "Enable debug level logging (or "+EnvDebug+"=true)")
	fs.StringVar(&c.MetricsPushgateway, "metrics-pushgateway", "",
		"Prometheus Pushgateway URL to push run metrics to (or "+EnvPushgateway+")")
}

// LoadEnv loads the dotenv file, if present, and fills every value the flags
// left empty from the environment. Variables already set in the process
// environment take precedence over the dotenv file.
func (c *Config) LoadEnv() error {
	if c.EnvFile != "" {
		if _, err := os.Stat(c.EnvFile); err == nil {
			if err := godotenv.Load(c.EnvFile); err != nil {
				return fmt.Errorf("loading env file %s: %w", c.EnvFile, err)
			}
		}
	}

	c.Debug = c.Debug || getEnvBool(EnvDebug, false)
	c.RecipientsConfigEnv = getEnvString(EnvRecipientsConfig, "")
	if c.ToEmail == "" {
		c.ToEmail = getEnvString(EnvRecipient, "")
	}
	if c.MetricsPushgateway == "" {
		c.MetricsPushgateway = getEnvString(EnvPushgateway, "")
	}
	if c.Date == "" {
		c.Date = time.Now().Format(time.DateOnly)
	}

	port, err := getEnvInt(EnvSMTPPort, mail.DefaultPort)
	if err != nil {
		return err
	}
	c.SMTP = mail.SMTPConfig{
		Host:               getEnvString(EnvSMTPServer, mail.DefaultHost),
		Port:               port,
		Username:           getEnvString(EnvSMTPUser, ""),
		Password:           getEnvString(EnvSMTPPassword, ""),
		InsecureSkipVerify: getEnvBool(EnvInsecureSkipVerify, false),
	}
	c.SMTP.From = getEnvString(EnvEmailFrom, c.SMTP.Username)
	return nil
}

// RecipientSources returns the inputs recipients are resolved from.
func (c *Config) RecipientSources() recipients.Sources {
	return recipients.Sources{
		ConfigArg:      c.RecipientsConfig,
		EnvConfig:      c.RecipientsConfigEnv,
		LegacyEmail:    c.ToEmail,
		LegacyKeywords: c.Keywords,
	}
}

// ValidateInput checks the flags that must be present before anything else runs.
func (c *Config) ValidateInput() error {
	if strings.TrimSpace(c.DataPath) == "" {
		return ErrMissingDataPath
	}
	return nil
}

// ValidateCredentials checks that SMTP authentication can be attempted.
func (c *Config) ValidateCredentials() error {
	if c.SMTP.Username == "" || c.SMTP.Password == "" {
		return ErrMissingCredentials
	}
	return nil
}

func (c *Config) Print(log *zap.SugaredLogger) {
	log.Debugw("CLI Configuration",
		"debug", c.Debug,
		"env_file", c.EnvFile,
		"data", c.DataPath,
		"keywords", c.Keywords,
		"date", c.Date,
		"recipients_config_set", c.RecipientsConfig != "",
		"recipients_config_env_set", c.RecipientsConfigEnv != "",
		"to_email", c.ToEmail,
		"metrics_pushgateway", c.MetricsPushgateway,
		"smtp_server", c.SMTP.Host,
		"smtp_port", c.SMTP.Port,
		"smtp_user", c.SMTP.Username,
		"smtp_password_set", c.SMTP.Password != "",
		"email_from", c.SMTP.From,
		"smtp_insecure_skip_verify", c.SMTP.InsecureSkipVerify,
	)
}

// getEnvString returns the value of an environment variable, or the provided default if not set.
func getEnvString(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}

// getEnvBool returns the value of an environment variable as a bool, or the provided default if not set.
// Valid true values are "true", "1", "yes" (case-insensitive).
func getEnvBool(key string, defaultVal bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(val) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	return defaultVal
}

// getEnvInt returns the value of an environment variable as an int. Unlike the
// other helpers an unparsable value is an error, not a silent fallback.
func getEnvInt(key string, defaultVal int) (int, error) {
	val, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(val) == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return defaultVal, fmt.Errorf("invalid %s %q: %w", key, val, err)
	}
	return n, nil
}
