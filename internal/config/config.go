package config

import "time"

// Config holds service configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	DatabasePath  string `mapstructure:"database_path" yaml:"database_path"`
	TranscriptDir string `mapstructure:"transcript_dir" yaml:"transcript_dir"`

	// Platform connection.
	GatewayURL     string        `mapstructure:"gateway_url" yaml:"gateway_url"`
	APIBaseURL     string        `mapstructure:"api_base_url" yaml:"api_base_url"`
	BotToken       string        `mapstructure:"bot_token" yaml:"bot_token"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	PageTimeout    time.Duration `mapstructure:"page_timeout" yaml:"page_timeout"`

	// Ticket policy.
	TicketPrefix     string `mapstructure:"ticket_prefix" yaml:"ticket_prefix"`
	TicketCategoryID string `mapstructure:"ticket_category_id" yaml:"ticket_category_id"`
	SupportRoleID    string `mapstructure:"support_role_id" yaml:"support_role_id"`
	AllowedRoleID    string `mapstructure:"allowed_role_id" yaml:"allowed_role_id"`
	LogChannelID     string `mapstructure:"log_channel_id" yaml:"log_channel_id"`

	// Operator API auth.
	JWTSecret            string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer            string `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience          string `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	OperatorUsername     string `mapstructure:"operator_username" yaml:"operator_username"`
	OperatorPasswordHash string `mapstructure:"operator_password_hash" yaml:"operator_password_hash"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		LogFormat:         "console",
		DatabasePath:      "ticketdesk.db",
		TranscriptDir:     "transcripts",
		RequestTimeout:    15 * time.Second,
		PageTimeout:       10 * time.Second,
		TicketPrefix:      "ticket-",
		JWTIssuer:         "ticketdesk",
		JWTAudience:       "ticketdesk-api",
	}
}
