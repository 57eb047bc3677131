package config

import (
	"fmt"
	"time"

	"owatch_service/pkg"
)

// RewardService definition reward_service YAML structure
type RewardService struct {
	Port      string `mapstructure:"port"`
	IP        string `mapstructure:"ip"`
	JWTSecret string `mapstructure:"jwt_secret"`

	Watch   WatchConfig   `mapstructure:"watch"`
	Wallet  WalletConfig  `mapstructure:"wallet"`
	Balance BalanceConfig `mapstructure:"balance"`
	Ledger  LedgerConfig  `mapstructure:"ledger"`
	Events  EventsConfig  `mapstructure:"events"`
}

// WatchConfig definition playback simulation setting
type WatchConfig struct {
	TickInterval    time.Duration `mapstructure:"tick_interval"`
	EligiblePercent float64       `mapstructure:"eligible_percent"`
	LoopOnComplete  bool          `mapstructure:"loop_on_complete"`
	SessionIdleTTL  time.Duration `mapstructure:"session_idle_ttl"`
}

// WalletConfig definition wallet adapter setting
type WalletConfig struct {
	NoticeTTL  time.Duration `mapstructure:"notice_ttl"`
	Connectors []string      `mapstructure:"connectors"`
}

// BalanceConfig definition balance store setting
type BalanceConfig struct {
	// Driver is one of memory, redis, sqlite
	Driver     string      `mapstructure:"driver"`
	KeyPrefix  string      `mapstructure:"key_prefix"`
	SQLitePath string      `mapstructure:"sqlite_path"`
	Redis      RedisConfig `mapstructure:"redis"`
}

// LedgerConfig definition claim ledger setting
type LedgerConfig struct {
	Enabled    bool           `mapstructure:"enabled"`
	PostgreSQL DatabaseConfig `mapstructure:"pg"`
}

// EventsConfig definition claim event publisher setting
type EventsConfig struct {
	Enabled       bool     `mapstructure:"enabled"`
	Brokers       []string `mapstructure:"brokers"`
	Topic         string   `mapstructure:"topic"`
	RetryCount    int      `mapstructure:"retry_count"`
	RetryInterval int      `mapstructure:"retry_interval"`
}

// RedisConfig definition redis setting
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	RedisDB  int    `mapstructure:"redis_db"`
}

// DatabaseConfig definition db setting
type DatabaseConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	Database      string `mapstructure:"database"`
	RetryInterval int    `mapstructure:"retry_interval"`
	RetryCount    int    `mapstructure:"retry_count"`
}

// BalanceDrivers supported balance.driver values
var BalanceDrivers = []string{"memory", "redis", "sqlite"}

// DefaultConnectors wallet connectors offered when none are configured
var DefaultConnectors = []string{"metaMask", "rabby", "coinbaseWallet", "walletConnect"}

// ApplyDefaults fills every zero field with its default value.
func (c *RewardService) ApplyDefaults() {
	if c.Port == "" {
		c.Port = "8080"
	}
	if c.JWTSecret == "" {
		c.JWTSecret = "owatch_secret_key"
	}
	if c.Watch.TickInterval <= 0 {
		c.Watch.TickInterval = time.Second
	}
	if c.Watch.EligiblePercent <= 0 {
		c.Watch.EligiblePercent = 80
	}
	if c.Watch.SessionIdleTTL <= 0 {
		c.Watch.SessionIdleTTL = 30 * time.Minute
	}
	if c.Wallet.NoticeTTL <= 0 {
		c.Wallet.NoticeTTL = 5 * time.Second
	}
	if len(c.Wallet.Connectors) == 0 {
		c.Wallet.Connectors = append([]string(nil), DefaultConnectors...)
	}
	if c.Balance.Driver == "" {
		c.Balance.Driver = "memory"
	}
	if c.Balance.KeyPrefix == "" {
		c.Balance.KeyPrefix = "owatch_balance_"
	}
	if c.Balance.SQLitePath == "" {
		c.Balance.SQLitePath = "./data/balance.db"
	}
	if c.Events.Topic == "" {
		c.Events.Topic = "owatch.reward.claimed"
	}
	if c.Events.RetryCount <= 0 {
		c.Events.RetryCount = 3
	}
	if c.Ledger.PostgreSQL.RetryCount <= 0 {
		c.Ledger.PostgreSQL.RetryCount = 3
	}
}

// Validate 檢查 ApplyDefaults 之後的設定
func (c *RewardService) Validate() error {
	if !pkg.Contains(BalanceDrivers, c.Balance.Driver) {
		return fmt.Errorf("balance.driver %q must be one of %v", c.Balance.Driver, BalanceDrivers)
	}
	if c.Watch.EligiblePercent > 100 {
		return fmt.Errorf("watch.eligible_percent %.1f must be at most 100", c.Watch.EligiblePercent)
	}
	if c.Events.Enabled && len(c.Events.Brokers) == 0 {
		return fmt.Errorf("events.enabled requires events.brokers")
	}
	return nil
}
