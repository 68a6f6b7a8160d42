package config

import (
	"errors"

	"github.com/spf13/viper"
)

type Config struct {
	App struct {
		Env      string
		Timezone string
	} `mapstructure:"app"`

	HTTP struct {
		Addr string
	} `mapstructure:"http"`

	// Ops is the health/metrics listener, separate from the API.
	Ops struct {
		Addr string
	} `mapstructure:"ops"`

	Postgres struct {
		DSN string
	} `mapstructure:"postgres"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`

	Auth struct {
		JWTSecret string `mapstructure:"jwt_secret"`
		// BootstrapPassword is used once to create the default admin
		// when the user table is empty.
		BootstrapPassword string `mapstructure:"bootstrap_password"`
	} `mapstructure:"auth"`

	Ledger struct {
		MaxRequestQty int64 `mapstructure:"max_request_qty"`
	} `mapstructure:"ledger"`

	// Telegram is optional; notifications are disabled when the token
	// is empty.
	Telegram struct {
		Token       string
		AdminChatID int64 `mapstructure:"admin_chat_id"`
	} `mapstructure:"telegram"`
}

func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()

	var c Config
	if err := v.ReadInConfig(); err != nil {
		return c, err
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	if c.Auth.JWTSecret == "" {
		return c, errors.New("auth.jwt_secret must be set")
	}
	return c, nil
}
