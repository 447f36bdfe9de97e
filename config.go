package session

import (
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/spf13/viper"
)

// AppConfig is the concrete Config loaded from the environment. Durations are
// expressed in Go duration syntax ("30s", "2m"); the idle timeout base is a
// plain number of minutes, matching what hosts typically expose to operators.
type AppConfig struct {
	IdleTimeoutMinutes   int           `mapstructure:"SESSION_IDLE_TIMEOUT_MINUTES"`
	MonitorInterval      time.Duration `mapstructure:"SESSION_MONITOR_INTERVAL"`
	RefreshWarningMargin time.Duration `mapstructure:"SESSION_REFRESH_WARNING_MARGIN"`
	BootSafetyMargin     time.Duration `mapstructure:"SESSION_BOOT_SAFETY_MARGIN"`
	DefaultRoute         string        `mapstructure:"SESSION_DEFAULT_ROUTE"`
	LoginRoute           string        `mapstructure:"SESSION_LOGIN_ROUTE"`
	StorageKey           string        `mapstructure:"SESSION_STORAGE_KEY"`
}

var _ Config = (*AppConfig)(nil)

func (c *AppConfig) GetIdleTimeoutMinutes() int { return c.IdleTimeoutMinutes }

func (c *AppConfig) GetMonitorInterval() time.Duration { return c.MonitorInterval }

func (c *AppConfig) GetRefreshWarningMargin() time.Duration { return c.RefreshWarningMargin }

func (c *AppConfig) GetBootSafetyMargin() time.Duration { return c.BootSafetyMargin }

func (c *AppConfig) GetDefaultRoute() string { return c.DefaultRoute }

func (c *AppConfig) GetLoginRoute() string { return c.LoginRoute }

func (c *AppConfig) GetStorageKey() string { return c.StorageKey }

// LoadConfig reads .env (if present), then builds AppConfig from the
// environment via Viper. Missing .env is ignored; env vars override .env.
func LoadConfig() (*AppConfig, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("SESSION_IDLE_TIMEOUT_MINUTES", defaultIdleTimeoutMinutes)
	v.SetDefault("SESSION_MONITOR_INTERVAL", "30s")
	v.SetDefault("SESSION_REFRESH_WARNING_MARGIN", "2m")
	v.SetDefault("SESSION_BOOT_SAFETY_MARGIN", "10s")
	v.SetDefault("SESSION_DEFAULT_ROUTE", "/")
	v.SetDefault("SESSION_LOGIN_ROUTE", "/login")
	v.SetDefault("SESSION_STORAGE_KEY", DefaultStorageKey)

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to load session config").
			WithCode(goerrors.CodeBadRequest)
	}

	if cfg.IdleTimeoutMinutes <= 0 {
		cfg.IdleTimeoutMinutes = defaultIdleTimeoutMinutes
	}

	return &cfg, nil
}
