package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds server and client configuration values.
type Config struct {
	Server ServerConfig `mapstructure:"server" yaml:"server"`
	Client ClientConfig `mapstructure:"client" yaml:"client"`
}

// ServerConfig configures `simplechat serve`.
type ServerConfig struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	DatabasePath      string        `mapstructure:"database_path" yaml:"database_path"`
	JWTSecret         string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer         string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience       string        `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	JWTTTL            time.Duration `mapstructure:"jwt_ttl" yaml:"jwt_ttl"`
	HistoryLimit      int           `mapstructure:"history_limit" yaml:"history_limit"`
	MaxMessageLength  int           `mapstructure:"max_message_length" yaml:"max_message_length"`
	MessageRateLimit  int           `mapstructure:"message_rate_limit" yaml:"message_rate_limit"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
}

// ClientConfig configures the terminal client.
type ClientConfig struct {
	ServerURL    string `mapstructure:"server_url" yaml:"server_url"`
	IdentityPath string `mapstructure:"identity_path" yaml:"identity_path"`
	Room         string `mapstructure:"room" yaml:"room"`
	MaxInputRows int    `mapstructure:"max_input_rows" yaml:"max_input_rows"`
	Markdown     bool   `mapstructure:"markdown" yaml:"markdown"`
	LogFile      string `mapstructure:"log_file" yaml:"log_file"`
	LogLevel     string `mapstructure:"log_level" yaml:"log_level"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	home := homeDir()
	return Config{
		Server: ServerConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   5 * time.Second,
			DatabasePath:      "simplechat.db",
			JWTSecret:         "change-me",
			JWTIssuer:         "simplechat",
			JWTAudience:       "simplechat",
			JWTTTL:            24 * time.Hour,
			HistoryLimit:      50,
			MaxMessageLength:  4000,
			MessageRateLimit:  60,
			LogLevel:          "info",
		},
		Client: ClientConfig{
			ServerURL:    "http://localhost:8080",
			IdentityPath: filepath.Join(home, "identity.yaml"),
			Room:         "general",
			MaxInputRows: 8,
			Markdown:     false,
			LogFile:      filepath.Join(home, "client.log"),
			LogLevel:     "info",
		},
	}
}

// UpdateFrom overwrites non-zero server values from other into the receiver.
func (c *ServerConfig) UpdateFrom(other ServerConfig) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
}

// UpdateFrom overwrites non-zero client values from other into the receiver.
func (c *ClientConfig) UpdateFrom(other ClientConfig) {
	if other.ServerURL != "" {
		c.ServerURL = other.ServerURL
	}
	if other.IdentityPath != "" {
		c.IdentityPath = other.IdentityPath
	}
	if other.Room != "" {
		c.Room = other.Room
	}
	if other.MaxInputRows != 0 {
		c.MaxInputRows = other.MaxInputRows
	}
	if other.LogFile != "" {
		c.LogFile = other.LogFile
	}
}

func homeDir() string {
	if dir := os.Getenv(envHome); dir != "" {
		return dir
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "simplechat")
	}
	return ".simplechat"
}
