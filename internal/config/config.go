package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the auth service.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	MFA      MFAConfig      `mapstructure:"mfa"`
	Security SecurityConfig `mapstructure:"security"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	DBName         string `mapstructure:"dbname"`
	SSLMode        string `mapstructure:"sslmode"`
	MaxConns       int32  `mapstructure:"max_conns"`
	AutoMigrate    bool   `mapstructure:"auto_migrate"`
	MigrationsPath string `mapstructure:"migrations_path"`
}

// DSN builds the postgres connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

type RedisConfig struct {
	// Enabled switches the rate limiter to the redis implementation for
	// multi-instance deployments.
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type JWTConfig struct {
	AccessTokenTTL         time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL        time.Duration `mapstructure:"refresh_token_ttl"`
	Issuer                 string        `mapstructure:"issuer"`
	Audience               string        `mapstructure:"audience"`
	RSAPrivateKeyPEMFile   string        `mapstructure:"rsa_private_key_pem_file"`
	RSAPublicKeyPEMFile    string        `mapstructure:"rsa_public_key_pem_file"`
	JWKSKeyID              string        `mapstructure:"jwks_key_id"`
	RefreshTokenByteLength int           `mapstructure:"refresh_token_byte_length"`
}

type MFAConfig struct {
	TOTPIssuerName string `mapstructure:"totp_issuer_name"`
	// EncryptionKey is the base64 encoding of a 32-byte AES-256 key. Empty
	// selects passthrough mode, for local development only.
	EncryptionKey   string        `mapstructure:"encryption_key"`
	EncryptionKeyID string        `mapstructure:"encryption_key_id"`
	BackupCodeCount int           `mapstructure:"backup_code_count"`
	ChallengeTTL    time.Duration `mapstructure:"challenge_ttl"`
}

// RateLimitRule configures one fixed-window limit.
type RateLimitRule struct {
	Limit  int           `mapstructure:"limit"`
	Window time.Duration `mapstructure:"window"`
}

type RateLimitConfig struct {
	LoginIP        RateLimitRule `mapstructure:"login_ip"`
	LoginPrincipal RateLimitRule `mapstructure:"login_principal"`
	LoginTicket    RateLimitRule `mapstructure:"login_ticket"`
}

type PasswordHashConfig struct {
	Memory      uint32 `mapstructure:"memory"`
	Iterations  uint32 `mapstructure:"iterations"`
	Parallelism uint8  `mapstructure:"parallelism"`
	SaltLength  uint32 `mapstructure:"salt_length"`
	KeyLength   uint32 `mapstructure:"key_length"`
}

type SecurityConfig struct {
	RateLimiting RateLimitConfig    `mapstructure:"rate_limiting"`
	PasswordHash PasswordHashConfig `mapstructure:"password_hash"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}
