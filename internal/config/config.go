package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the API process.
// All values must come from env (or env-file loaded by the process runner).
// Scheduling settings (meeting duration, buffer, daily window) are not here;
// they are served by internal/settings.
type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Links    LinksConfig
	Calendar CalendarConfig
	Jobs     JobsConfig
	Booking  BookingConfig
}

type AppConfig struct {
	Env  string
	Port int
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

type RedisConfig struct {
	Host string
	Port int
}

type AuthConfig struct {
	JWTSecret      string
	JWTIssuer      string
	JWTAudience    string
	AccessTokenTTL time.Duration
}

type LinksConfig struct {
	SigningSecret string
	SupportTTL    time.Duration
}

type CalendarConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	// ICSFeeds maps an admin email to a published busy feed.
	ICSFeeds map[string]string
}

type JobsConfig struct {
	SettingsRefresh   time.Duration
	MirrorSweep       time.Duration
	MirrorMaxAttempts int
}

type BookingConfig struct {
	// LeaseTTL bounds the per-admin Redis lease taken around commit. Zero disables it.
	LeaseTTL time.Duration
}

const defaultCalendarBaseURL = "https://www.googleapis.com/calendar/v3"

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}

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

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	{
		n, err := mustInt("REDIS_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.Port = n
	}

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	c.Auth.JWTAudience = strings.TrimSpace(os.Getenv("JWT_AUDIENCE"))
	// Duration env vars are optional; defaults applied in Validate().
	c.Auth.AccessTokenTTL = mustDuration("JWT_ACCESS_TTL")

	c.Links.SigningSecret = os.Getenv("LINK_SIGNING_SECRET")
	{
		n, err := optionalInt("SUPPORT_LINK_TTL_DAYS")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Links.SupportTTL = time.Duration(n) * 24 * time.Hour
	}

	c.Calendar.BaseURL = strings.TrimSpace(os.Getenv("CALENDAR_API_BASE_URL"))
	c.Calendar.Token = os.Getenv("CALENDAR_API_TOKEN")
	c.Calendar.Timeout = mustDuration("CALENDAR_TIMEOUT")
	{
		feeds, err := parseFeeds(os.Getenv("CALENDAR_ICS_FEEDS"))
		if err != nil {
			parseErrs = append(parseErrs, err)
		}
		c.Calendar.ICSFeeds = feeds
	}

	c.Jobs.SettingsRefresh = mustDuration("SETTINGS_REFRESH")
	c.Jobs.MirrorSweep = mustDuration("MIRROR_SWEEP")
	{
		n, err := optionalInt("MIRROR_MAX_ATTEMPTS")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Jobs.MirrorMaxAttempts = n
	}

	if v := strings.TrimSpace(os.Getenv("BOOKING_LEASE_TTL")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			parseErrs = append(parseErrs, fmt.Errorf("BOOKING_LEASE_TTL must be a duration, got %q", v))
		} else {
			c.Booking.LeaseTTL = d
		}
	} else {
		c.Booking.LeaseTTL = 10 * time.Second
	}

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks required values and fills defaults for optional ones.
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
	if strings.TrimSpace(c.DB.SSLMode) == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else {
			c.DB.SSLMode = "disable"
		}
	}
	if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}

	if c.Redis.Host == "" {
		errs = append(errs, errors.New("REDIS_HOST is required"))
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
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
	}
	if c.Auth.AccessTokenTTL <= 0 {
		c.Auth.AccessTokenTTL = 15 * time.Minute
	}

	if c.Links.SigningSecret == "" {
		errs = append(errs, errors.New("LINK_SIGNING_SECRET is required"))
	} else if c.Links.SigningSecret == c.Auth.JWTSecret {
		errs = append(errs, errors.New("LINK_SIGNING_SECRET must differ from JWT_SECRET"))
	}
	if c.Links.SupportTTL < 0 {
		errs = append(errs, errors.New("SUPPORT_LINK_TTL_DAYS must not be negative"))
	} else if c.Links.SupportTTL == 0 {
		c.Links.SupportTTL = 7 * 24 * time.Hour
	}

	if c.Calendar.BaseURL == "" {
		c.Calendar.BaseURL = defaultCalendarBaseURL
	}
	if c.Calendar.Token == "" && c.IsProduction() {
		errs = append(errs, errors.New("CALENDAR_API_TOKEN is required in production"))
	}
	if c.Calendar.Timeout <= 0 {
		c.Calendar.Timeout = 5 * time.Second
	}

	if c.Jobs.SettingsRefresh <= 0 {
		c.Jobs.SettingsRefresh = time.Minute
	}
	if c.Jobs.MirrorSweep <= 0 {
		c.Jobs.MirrorSweep = 30 * time.Second
	}
	if c.Jobs.MirrorMaxAttempts < 0 {
		errs = append(errs, errors.New("MIRROR_MAX_ATTEMPTS must not be negative"))
	} else if c.Jobs.MirrorMaxAttempts == 0 {
		c.Jobs.MirrorMaxAttempts = 10
	}

	if c.Booking.LeaseTTL < 0 {
		errs = append(errs, errors.New("BOOKING_LEASE_TTL must not be negative"))
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

// UsesCalendarStub reports whether the process should run without a real calendar.
func (c Config) UsesCalendarStub() bool {
	return c.Calendar.Token == "" && c.App.Env == "local"
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

func optionalInt(key string) (int, error) {
	if strings.TrimSpace(os.Getenv(key)) == "" {
		return 0, nil
	}
	return mustInt(key)
}

func mustDuration(key string) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}

// parseFeeds reads "email=url,email=url".
func parseFeeds(raw string) (map[string]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	out := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		email, url, ok := strings.Cut(pair, "=")
		email, url = strings.TrimSpace(email), strings.TrimSpace(url)
		if !ok || email == "" || url == "" {
			return nil, fmt.Errorf("CALENDAR_ICS_FEEDS entry must be email=url, got %q", pair)
		}
		out[strings.ToLower(email)] = url
	}
	return out, nil
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
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
