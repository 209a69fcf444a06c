package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	envHome           = "SIMPLECHAT_HOME"
	envPrefix         = "SIMPLECHAT"
	defaultConfigName = "config.yaml"
	dotEnvName        = ".env"
)

// Load builds configuration from defaults, optional config file, .env, env vars, and
// returns the resolved path.
// Precedence: defaults < config file < .env < env vars < caller overrides.
func Load(logger *zerolog.Logger, explicitPath string) (Config, string, error) {
	cfg := Default()

	if err := godotenv.Load(dotEnvName); err != nil && !errors.Is(err, fs.ErrNotExist) && logger != nil {
		logger.Warn().Err(err).Str("path", dotEnvName).Msg("failed to read .env")
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, cfg)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath := resolveConfigPath(explicitPath)
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			if writeErr := writeDefaultConfig(configPath, cfg); writeErr != nil && logger != nil {
				logger.Warn().Err(writeErr).Str("path", configPath).Msg("failed to write default config")
			} else if logger != nil {
				logger.Info().Str("path", configPath).Msg("created default config")
			}
			// try reading again in case it was just written
			if readErr := v.ReadInConfig(); readErr != nil && logger != nil {
				logger.Warn().Err(readErr).Str("path", configPath).Msg("failed to read config after writing default")
			}
		} else {
			return cfg, configPath, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, configPath, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, configPath, nil
}

func setDefaults(v *viper.Viper, cfg Config) {
	s := cfg.Server
	v.SetDefault("server.addr", s.Addr)
	v.SetDefault("server.read_header_timeout", s.ReadHeaderTimeout)
	v.SetDefault("server.shutdown_timeout", s.ShutdownTimeout)
	v.SetDefault("server.database_path", s.DatabasePath)
	v.SetDefault("server.jwt_secret", s.JWTSecret)
	v.SetDefault("server.jwt_issuer", s.JWTIssuer)
	v.SetDefault("server.jwt_audience", s.JWTAudience)
	v.SetDefault("server.jwt_ttl", s.JWTTTL)
	v.SetDefault("server.history_limit", s.HistoryLimit)
	v.SetDefault("server.max_message_length", s.MaxMessageLength)
	v.SetDefault("server.message_rate_limit", s.MessageRateLimit)
	v.SetDefault("server.log_level", s.LogLevel)

	c := cfg.Client
	v.SetDefault("client.server_url", c.ServerURL)
	v.SetDefault("client.identity_path", c.IdentityPath)
	v.SetDefault("client.room", c.Room)
	v.SetDefault("client.max_input_rows", c.MaxInputRows)
	v.SetDefault("client.markdown", c.Markdown)
	v.SetDefault("client.log_file", c.LogFile)
	v.SetDefault("client.log_level", c.LogLevel)
}

func resolveConfigPath(explicitPath string) string {
	if explicitPath != "" {
		return explicitPath
	}

	if base := os.Getenv(envHome); base != "" {
		if err := os.MkdirAll(base, 0o755); err == nil {
			return filepath.Join(base, defaultConfigName)
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return defaultConfigName
	}
	return filepath.Join(cwd, defaultConfigName)
}

func writeDefaultConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
