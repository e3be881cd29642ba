package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Queue         QueueConfig        `mapstructure:"queue"`
	Email         EmailConfig        `mapstructure:"email"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	MetricsAddr string `mapstructure:"metrics_addr"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// QueueConfig holds settings for the async task queue (follow-up email jobs).
type QueueConfig struct {
	Concurrency int `mapstructure:"concurrency"`
	MaxRetries  int `mapstructure:"max_retries"`
	Timeout     int `mapstructure:"timeout"` // milliseconds
}

// --- Email Configuration ---

// EmailConfig holds all outbound and inbound mail settings.
type EmailConfig struct {
	// SystemAddress is the address reply tokens are grafted onto
	// (local+TOKEN@domain) and the From for outbound notifications.
	SystemAddress string     `mapstructure:"system_address"`
	SubjectPrefix string     `mapstructure:"subject_prefix"`
	SMTP          SMTPConfig `mapstructure:"smtp"`
	SES           SESConfig  `mapstructure:"ses"`
	IMAP          IMAPConfig `mapstructure:"imap"`
	// TemplateRegistryPath optionally overrides the built-in templates.
	TemplateRegistryPath string `mapstructure:"template_registry_path"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	UseTLS   bool   `mapstructure:"use_tls"`
}

type SESConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Region  string `mapstructure:"region"`
}

// IMAPConfig holds settings for the inbound mailbox ingester.
type IMAPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	UseTLS   bool   `mapstructure:"use_tls"`

	InputFolder string `mapstructure:"input_folder"`
	// SuccessFolder, ErrorFolder and DiscardFolder may be blank to skip the
	// copy for that outcome.
	SuccessFolder string `mapstructure:"success_folder"`
	ErrorFolder   string `mapstructure:"error_folder"`
	DiscardFolder string `mapstructure:"discard_folder"`

	PollInterval int `mapstructure:"poll_interval"` // milliseconds

	// Reply-quote markers used by the content extractor.
	Markers      []string `mapstructure:"markers"`
	RegexMarkers []string `mapstructure:"regex_markers"`
}

// NotificationConfig holds settings for notification generation.
type NotificationConfig struct {
	// BaseURL of the web UI, exposed to templates as url.base.
	BaseURL string `mapstructure:"base_url"`
	// ExtraProperties are merged into every template property map.
	ExtraProperties map[string]string `mapstructure:"extra_properties"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
