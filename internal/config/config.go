package config

import (
	"strings"
	"time"

	"github.com/secureauth/sentinel/params"
	"github.com/spf13/viper"
)

const (
	DefaultListenAddr = ":3000"
	DefaultDriver     = "sqlite"
	DefaultDsn        = "audit_log.db"
	DefaultTimezone   = "UTC"
)

type StorageConfig struct {
	Driver          string   `mapstructure:"driver"` // mysql or sqlite
	Dsn             string   `mapstructure:"dsn"`
	Replicas        []string `mapstructure:"replicas"` // read-replica DSNs (mysql only)
	TablePrefix     string   `mapstructure:"tablePrefix"`
	MaxIdleConns    int      `mapstructure:"maxIdleConns"`
	MaxOpenConns    int      `mapstructure:"maxOpenConns"`
	ConnMaxIdleTime int      `mapstructure:"connMaxIdleTime"`
	ConnMaxLifetime int      `mapstructure:"connMaxLifetime"`
}

type RedisConfig struct {
	URL         string `mapstructure:"url"`
	PoolSize    int    `mapstructure:"poolSize"`
	ClusterMode bool   `mapstructure:"clusterMode"`
}

type DetectorConfig struct {
	Timezone string `mapstructure:"timezone"` // IANA zone for the unusual timing rule
}

type RateLimitConfig struct {
	Max    int           `mapstructure:"max"`
	Window time.Duration `mapstructure:"window"`
}

type Config struct {
	Debug        bool            `mapstructure:"debug"`
	ListenAddr   string          `mapstructure:"listenAddr"`
	AllowOrigins []string        `mapstructure:"allowOrigins"`
	MasterKey    string          `mapstructure:"masterKey"` // signs API bearer tokens
	Storage      StorageConfig   `mapstructure:"storage"`
	Redis        RedisConfig     `mapstructure:"redis"`
	Detector     DetectorConfig  `mapstructure:"detector"`
	RateLimit    RateLimitConfig `mapstructure:"rateLimit"`
}

func (c *Config) Sanitize() error {
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = DefaultDriver
	}
	if c.Storage.Dsn == "" {
		c.Storage.Dsn = DefaultDsn
	}
	if c.Detector.Timezone == "" {
		c.Detector.Timezone = DefaultTimezone
	}
	if c.RateLimit.Max == 0 {
		c.RateLimit.Max = params.DefaultRateLimitMax
	}
	if c.RateLimit.Window == 0 {
		c.RateLimit.Window = params.DefaultRateLimitWindow
	}
	return nil
}

func LoadConfig(filename string) (*Config, error) {
	viper.SetConfigFile(filename)
	viper.SetConfigType("yaml")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Sanitize(); err != nil {
		return nil, err
	}
	return &config, nil
}
