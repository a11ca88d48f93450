package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig reads configuration from a YAML file and environment variables.
// CONFIG_PATH selects an explicit file; otherwise config.<APP_ENV>.yaml is
// searched in ./configs, ., and /etc/fortalis-auth. Environment variables use
// the AUTH_ prefix with dots replaced by underscores.
func LoadConfig() (*Config, error) {
	setDefaults()

	env := strings.ToLower(os.Getenv("APP_ENV"))
	if env == "" {
		env = "development"
	}

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName(fmt.Sprintf("config.%s", env))
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/fortalis-auth")
	}

	viper.SetEnvPrefix("AUTH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Missing file is fine; env vars and defaults still apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "10s")
	viper.SetDefault("server.write_timeout", "10s")
	viper.SetDefault("server.idle_timeout", "60s")
	viper.SetDefault("server.shutdown_timeout", "15s")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	viper.SetDefault("jwt.access_token_ttl", "15m")
	viper.SetDefault("jwt.refresh_token_ttl", "720h")
	viper.SetDefault("jwt.issuer", "fortalis-auth")
	viper.SetDefault("jwt.audience", "fortalis-game")
	viper.SetDefault("jwt.refresh_token_byte_length", 32)

	viper.SetDefault("mfa.totp_issuer_name", "Fortalis")
	viper.SetDefault("mfa.backup_code_count", 10)
	viper.SetDefault("mfa.challenge_ttl", "300s")

	viper.SetDefault("security.rate_limiting.login_ip.limit", 20)
	viper.SetDefault("security.rate_limiting.login_ip.window", "60s")
	viper.SetDefault("security.rate_limiting.login_principal.limit", 5)
	viper.SetDefault("security.rate_limiting.login_principal.window", "900s")
	viper.SetDefault("security.rate_limiting.login_ticket.limit", 5)
	viper.SetDefault("security.rate_limiting.login_ticket.window", "300s")

	viper.SetDefault("security.password_hash.memory", 65536)
	viper.SetDefault("security.password_hash.iterations", 3)
	viper.SetDefault("security.password_hash.parallelism", 4)
	viper.SetDefault("security.password_hash.salt_length", 16)
	viper.SetDefault("security.password_hash.key_length", 32)

	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.port", 9090)
}
