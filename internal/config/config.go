// Package config читает настройки из окружения и необязательного файла .env.
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

type SMTP struct {
	Host string
	Port int
	User string
	Pass string
}

type Config struct {
	Env              string
	Port             string
	DatabaseURL      string
	RedisURL         string
	RedisPassword    string
	ClientURL        string
	JWTSecret        string
	JWTRefreshSecret string
	CookieSecret     string
	SMTP             SMTP
}

// Production включает Secure-cookie, JSON-логи и выключает playground.
func (c *Config) Production() bool {
	return c.Env == EnvProduction
}

var defaults = map[string]any{
	"APP_ENV":            EnvDevelopment,
	"PORT":               "8080",
	"DATABASE_URL":       "",
	"REDIS_URL":          "",
	"REDIS_PASSWORD":     "",
	"CLIENT_URL":         "http://localhost:3000",
	"JWT_SECRET":         "thisisasecret",
	"JWT_REFRESH_SECRET": "secretrefresh",
	"COOKIE_SECRET":      "thisisacookiesecret",
	"TRANSPORT_HOST":     "smtp.ethereal.email",
	"TRANSPORT_PORT":     587,
	"TRANSPORT_USER":     "",
	"TRANSPORT_PASS":     "",
}

// Load читает .env (если он есть) и переменные окружения. Окружение
// побеждает .env, .env побеждает значения по умолчанию.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	cfg := &Config{
		Env:              v.GetString("APP_ENV"),
		Port:             v.GetString("PORT"),
		DatabaseURL:      v.GetString("DATABASE_URL"),
		RedisURL:         v.GetString("REDIS_URL"),
		RedisPassword:    v.GetString("REDIS_PASSWORD"),
		ClientURL:        v.GetString("CLIENT_URL"),
		JWTSecret:        v.GetString("JWT_SECRET"),
		JWTRefreshSecret: v.GetString("JWT_REFRESH_SECRET"),
		CookieSecret:     v.GetString("COOKIE_SECRET"),
		SMTP: SMTP{
			Host: v.GetString("TRANSPORT_HOST"),
			Port: v.GetInt("TRANSPORT_PORT"),
			User: v.GetString("TRANSPORT_USER"),
			Pass: v.GetString("TRANSPORT_PASS"),
		},
	}

	if cfg.Production() {
		if cfg.JWTSecret == defaults["JWT_SECRET"] || cfg.JWTRefreshSecret == defaults["JWT_REFRESH_SECRET"] || cfg.CookieSecret == defaults["COOKIE_SECRET"] {
			return nil, errors.New("config: default secrets are not allowed in production")
		}
	}
	return cfg, nil
}
