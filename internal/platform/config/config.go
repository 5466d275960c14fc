package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "config/config.yaml"

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

// Enabled: host と dbname が揃っていれば MySQL を使う
func (d DatabaseConfig) Enabled() bool {
	return d.Host != "" && d.DBName != ""
}

type Certs struct {
	Cert string `yaml:"cert"`
	Key  string `yaml:"key"`
}

type ServerConfig struct {
	Addr        string   `yaml:"addr"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// UpstreamConfig: MES 接続先。base_url が空ならモックで動く
type UpstreamConfig struct {
	BaseURL       string        `yaml:"base_url"`
	Token         string        `yaml:"token"`
	TokenFile     string        `yaml:"token_file"`
	Timeout       time.Duration `yaml:"timeout"`
	ExportTimeout time.Duration `yaml:"export_timeout"`
}

type Account struct {
	ID           string `yaml:"id"`
	PasswordHash string `yaml:"password_hash"` // bcrypt
	Role         string `yaml:"role"`
	Disabled     bool   `yaml:"disabled"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
	Accounts  []Account     `yaml:"accounts"`
}

func (a AuthConfig) Enabled() bool { return a.JWTSecret != "" }

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Limit    int           `yaml:"limit"`
	Window   time.Duration `yaml:"window"`
}

type SweepConfig struct {
	Cron     string `yaml:"cron"`
	Disabled bool   `yaml:"disabled"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type Config struct {
	Version     string         `yaml:"version"`
	Mode        string         `yaml:"mode"`
	Server      ServerConfig   `yaml:"server"`
	Certificate Certs          `yaml:"certificate"`
	Upstream    UpstreamConfig `yaml:"upstream"`
	DB          DatabaseConfig `yaml:"database"`
	Auth        AuthConfig     `yaml:"auth"`
	Redis       RedisConfig    `yaml:"redis"`
	Sweep       SweepConfig    `yaml:"sweep"`
	Log         LogConfig      `yaml:"log"`
}

func LoadConfig(path string) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(buf)
}

func Parse(buf []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// 環境変数は設定ファイルより優先
func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("MES_BASE_URL")); v != "" {
		c.Upstream.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("JWT_SECRET")); v != "" {
		c.Auth.JWTSecret = v
	}
}

func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"http://localhost:3000"}
	}
	c.Upstream.BaseURL = strings.TrimRight(c.Upstream.BaseURL, "/")
	if c.Upstream.Timeout <= 0 {
		c.Upstream.Timeout = 10 * time.Second
	}
	if c.Upstream.ExportTimeout <= 0 {
		c.Upstream.ExportTimeout = 30 * time.Second
	}
	if c.DB.Port == 0 {
		c.DB.Port = 3306
	}
	if c.Auth.TokenTTL <= 0 {
		c.Auth.TokenTTL = 24 * time.Hour
	}
	if c.Redis.Limit <= 0 {
		c.Redis.Limit = 60
	}
	if c.Redis.Window <= 0 {
		c.Redis.Window = time.Minute
	}
	if c.Sweep.Cron == "" {
		c.Sweep.Cron = "*/10 * * * *"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) Validate() error {
	if c.Mode != "dev" && c.Mode != "release" {
		return fmt.Errorf("invalid mode %q (expected dev or release)", c.Mode)
	}
	if (c.Certificate.Cert == "") != (c.Certificate.Key == "") {
		return fmt.Errorf("certificate.cert and certificate.key must be set together")
	}
	return nil
}

// MockMode: MES が未設定（モックデータで応答する）
func (c *Config) MockMode() bool { return c.Upstream.BaseURL == "" }
