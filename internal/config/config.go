package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultAgentNumber is the foreclosure hotline human agents answer.
const DefaultAgentNumber = "+18778064677"

// Config holds all configuration required by the API process.
// All values must come from env (or env-file loaded by the process runner).
// No business logic should depend on raw environment variables.
type Config struct {
	App    AppConfig
	DB     DBConfig
	Redis  RedisConfig
	Auth   AuthConfig
	Twilio TwilioConfig
	AI     AIConfig
	NATS   NATSConfig
}

type AppConfig struct {
	Env  string
	Port int

	// PublicBaseURL is the externally visible origin Twilio posts to.
	// Used for absolute callback URLs and webhook signature checks.
	PublicBaseURL string

	// StoreTimeout bounds each datastore operation on the call path.
	StoreTimeout time.Duration
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string

	// AutoMigrate applies migrations/*.sql on startup.
	AutoMigrate bool
}

// RedisConfig is optional. An empty Host disables the LLM slot cap.
type RedisConfig struct {
	Host string
	Port int
}

func (r RedisConfig) Enabled() bool { return r.Host != "" }

type AuthConfig struct {
	JWTSecret       string
	JWTIssuer       string
	JWTAudience     string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

type TwilioConfig struct {
	AccountSID string
	// AuthToken signs webhook requests. Empty disables signature checks.
	AuthToken string
	// PhoneNumber is presented as caller id on agent transfers.
	PhoneNumber  string
	AgentNumber  string
	VoicemailURL string
}

type AIConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration

	HandoffKeywords []string
	MaxTurns        int
	HistoryWindow   int
	MaxConcurrent   int
}

// NATSConfig is optional. An empty URL discards audit events.
type NATSConfig struct {
	URL   string
	Token string
}

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}
	c.App.PublicBaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("PUBLIC_BASE_URL")), "/")
	c.App.StoreTimeout, parseErrs = optionalDuration(parseErrs, "STORE_TIMEOUT")

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	{
		n, err := mustInt("DB_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.DB.Port = n
	}
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))
	c.DB.AutoMigrate, parseErrs = optionalBool(parseErrs, "DB_AUTO_MIGRATE")

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	c.Redis.Port, parseErrs = optionalInt(parseErrs, "REDIS_PORT")

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	c.Auth.JWTAudience = strings.TrimSpace(os.Getenv("JWT_AUDIENCE"))
	c.Auth.AccessTokenTTL, parseErrs = optionalDuration(parseErrs, "JWT_ACCESS_TTL")
	c.Auth.RefreshTokenTTL, parseErrs = optionalDuration(parseErrs, "JWT_REFRESH_TTL")

	c.Twilio.AccountSID = strings.TrimSpace(os.Getenv("TWILIO_ACCOUNT_SID"))
	c.Twilio.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	c.Twilio.PhoneNumber = strings.TrimSpace(os.Getenv("TWILIO_PHONE_NUMBER"))
	c.Twilio.AgentNumber = strings.TrimSpace(os.Getenv("AGENT_PHONE_NUMBER"))
	c.Twilio.VoicemailURL = strings.TrimSpace(os.Getenv("VOICEMAIL_URL"))

	c.AI.APIKey = os.Getenv("OPENAI_API_KEY")
	c.AI.BaseURL = strings.TrimSpace(os.Getenv("OPENAI_BASE_URL"))
	c.AI.Model = strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	c.AI.MaxTokens, parseErrs = optionalInt(parseErrs, "MAX_OUTPUT_TOKENS")
	c.AI.Timeout, parseErrs = optionalDuration(parseErrs, "LLM_TIMEOUT")
	c.AI.HandoffKeywords = splitList(os.Getenv("AI_HANDOFF_KEYWORDS"))
	c.AI.MaxTurns, parseErrs = optionalInt(parseErrs, "AI_MAX_CONVERSATION_TURNS")
	c.AI.HistoryWindow, parseErrs = optionalInt(parseErrs, "AI_HISTORY_WINDOW")
	c.AI.MaxConcurrent, parseErrs = optionalInt(parseErrs, "AI_MAX_CONCURRENT")

	c.NATS.URL = strings.TrimSpace(os.Getenv("NATS_URL"))
	c.NATS.Token = os.Getenv("NATS_TOKEN")

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks required values and fills defaults in place.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}
	if c.App.PublicBaseURL != "" {
		if u, err := url.Parse(c.App.PublicBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("PUBLIC_BASE_URL must be an absolute URL, got %q", c.App.PublicBaseURL))
		}
	} else if c.IsProduction() {
		errs = append(errs, errors.New("PUBLIC_BASE_URL is required in production"))
	}
	if c.App.StoreTimeout <= 0 {
		c.App.StoreTimeout = 2 * time.Second
	}

	if c.DB.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if c.DB.SSLMode == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else {
			c.DB.SSLMode = "disable"
		}
	}
	if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}

	if c.Redis.Enabled() {
		if c.Redis.Port == 0 {
			c.Redis.Port = 6379
		}
		if c.Redis.Port < 0 || c.Redis.Port > 65535 {
			errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
		}
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.IsProduction() {
		if c.Auth.JWTIssuer == "" {
			errs = append(errs, errors.New("JWT_ISSUER is required in production"))
		}
		if c.Auth.JWTAudience == "" {
			errs = append(errs, errors.New("JWT_AUDIENCE is required in production"))
		}
		if c.Twilio.AuthToken == "" {
			errs = append(errs, errors.New("TWILIO_AUTH_TOKEN is required in production"))
		}
	}
	if c.Auth.AccessTokenTTL <= 0 {
		c.Auth.AccessTokenTTL = 15 * time.Minute
	}
	if c.Auth.RefreshTokenTTL <= 0 {
		c.Auth.RefreshTokenTTL = 30 * 24 * time.Hour
	}
	if c.Auth.RefreshTokenTTL <= c.Auth.AccessTokenTTL {
		errs = append(errs, errors.New("JWT_REFRESH_TTL must be greater than JWT_ACCESS_TTL"))
	}

	if c.Twilio.AgentNumber == "" {
		c.Twilio.AgentNumber = DefaultAgentNumber
	}
	if !strings.HasPrefix(c.Twilio.AgentNumber, "+") {
		errs = append(errs, fmt.Errorf("AGENT_PHONE_NUMBER must be E.164, got %q", c.Twilio.AgentNumber))
	}
	// After-hours callers are redirected here; an empty Redirect drops the call.
	if c.Twilio.VoicemailURL == "" {
		errs = append(errs, errors.New("VOICEMAIL_URL is required"))
	} else if u, err := url.Parse(c.Twilio.VoicemailURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("VOICEMAIL_URL must be an absolute URL, got %q", c.Twilio.VoicemailURL))
	}

	if c.AI.MaxTokens < 0 {
		errs = append(errs, fmt.Errorf("MAX_OUTPUT_TOKENS must be >= 0, got %d", c.AI.MaxTokens))
	}
	if c.AI.Timeout <= 0 {
		c.AI.Timeout = 4 * time.Second
	}
	if c.AI.MaxTurns < 0 {
		errs = append(errs, fmt.Errorf("AI_MAX_CONVERSATION_TURNS must be >= 0, got %d", c.AI.MaxTurns))
	}
	if c.AI.HistoryWindow < 0 {
		errs = append(errs, fmt.Errorf("AI_HISTORY_WINDOW must be >= 0, got %d", c.AI.HistoryWindow))
	}
	if c.AI.MaxConcurrent <= 0 {
		c.AI.MaxConcurrent = 50
	}
	// Both budgets must leave room inside the 5s speech gather.
	if c.AI.Timeout >= 5*time.Second {
		errs = append(errs, fmt.Errorf("LLM_TIMEOUT must be below 5s, got %s", c.AI.Timeout))
	}
	if c.App.StoreTimeout >= 5*time.Second {
		errs = append(errs, fmt.Errorf("STORE_TIMEOUT must be below 5s, got %s", c.App.StoreTimeout))
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

// optionalInt returns 0 when key is unset so Validate can apply a default.
func optionalInt(errs []error, key string) (int, []error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, errs
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, append(errs, fmt.Errorf("%s must be an integer, got %q", key, v))
	}
	return n, errs
}

func optionalDuration(errs []error, key string) (time.Duration, []error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, errs
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, append(errs, fmt.Errorf("%s must be a duration like 2s, got %q", key, v))
	}
	return d, errs
}

func optionalBool(errs []error, key string) (bool, []error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return false, errs
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, append(errs, fmt.Errorf("%s must be a boolean, got %q", key, v))
	}
	return b, errs
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

// splitList returns nil for a blank list so callers fall back to defaults.
func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
